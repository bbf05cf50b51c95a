package model

import (
	"testing"
	"time"
)

func TestSessionStatusTransitions(t *testing.T) {
	allowed := map[SessionStatus]SessionStatus{
		SessionStatusNotStarted: SessionStatusInProgress,
		SessionStatusInProgress: SessionStatusSubmitted,
		SessionStatusSubmitted:  SessionStatusGraded,
	}

	all := []SessionStatus{
		SessionStatusNotStarted,
		SessionStatusInProgress,
		SessionStatusSubmitted,
		SessionStatusGraded,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from] == to
			if got := from.CanAdvanceTo(to); got != want {
				t.Errorf("CanAdvanceTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}

	t.Run("UnknownStatus", func(t *testing.T) {
		if SessionStatus("BOGUS").CanAdvanceTo(SessionStatusInProgress) {
			t.Error("unknown status must not advance")
		}
		if SessionStatusNotStarted.CanAdvanceTo(SessionStatus("BOGUS")) {
			t.Error("advance to unknown status must be rejected")
		}
	})
}

func TestSessionStatusIsFinal(t *testing.T) {
	if SessionStatusNotStarted.IsFinal() || SessionStatusInProgress.IsFinal() {
		t.Error("open statuses must not be final")
	}
	if !SessionStatusSubmitted.IsFinal() || !SessionStatusGraded.IsFinal() {
		t.Error("handed-in statuses must be final")
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	fresh := SessionToken{ExpiresAt: now.Add(30 * time.Minute)}
	if fresh.IsExpired(now) {
		t.Error("token should be valid before its deadline")
	}

	stale := SessionToken{ExpiresAt: now.Add(-time.Second)}
	if !stale.IsExpired(now) {
		t.Error("token past its deadline should be expired regardless of cache TTL")
	}
}
