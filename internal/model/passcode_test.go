package model

import (
	"testing"
	"time"
)

func TestPasscodeLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("ActiveBeforeExpiry", func(t *testing.T) {
		p := Passcode{ExpiresAt: now.Add(time.Hour)}
		if p.IsExpired(now) {
			t.Error("passcode should not be expired before its deadline")
		}
		if !p.IsActive(now) {
			t.Error("unused unexpired passcode should be active")
		}
	})

	t.Run("ExpiredAfterDeadline", func(t *testing.T) {
		p := Passcode{ExpiresAt: now.Add(-time.Minute)}
		if !p.IsExpired(now) {
			t.Error("passcode should be expired after its deadline")
		}
		if p.IsActive(now) {
			t.Error("expired passcode should not be active")
		}
	})

	t.Run("UsedIsNeverActive", func(t *testing.T) {
		p := Passcode{IsUsed: true, ExpiresAt: now.Add(time.Hour)}
		if p.IsActive(now) {
			t.Error("used passcode should not be active even before expiry")
		}
	})

	t.Run("ExactDeadlineStillValid", func(t *testing.T) {
		p := Passcode{ExpiresAt: now}
		if p.IsExpired(now) {
			t.Error("passcode at its exact deadline should not yet be expired")
		}
	})
}
