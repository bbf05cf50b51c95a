package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PasscodeKey returns the cache key mirroring an issued passcode by code.
func (r *CacheKeyStruct) PasscodeKey(code string) string {
	return fmt.Sprintf("passcode:%s", code)
}

// StudentActivePasscodeKey returns the cache key pointing at a student's
// currently active passcode, if any.
func (r *CacheKeyStruct) StudentActivePasscodeKey(studentID int) string {
	return fmt.Sprintf("passcode:student:%d", studentID)
}

// SessionKey returns the cache key holding an exam-device session snapshot.
func (r *CacheKeyStruct) SessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// HallMonitorChannel returns the Redis PubSub channel name for live
// proctor monitoring of one exam hall.
func (r *CacheKeyStruct) HallMonitorChannel(hallID int) string {
	return fmt.Sprintf("hall:%d:monitor", hallID)
}

var CacheKey = NewCacheKeyStruct()
