package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active token id of a user session.
func (r *CacheKeyStruct) UserSessionKey(userID, tokenID string) string {
	return fmt.Sprintf("session:%s:%s", userID, tokenID)
}

// ProblemSnapshotKey returns the cache key for the decoded problem collection.
func (r *CacheKeyStruct) ProblemSnapshotKey() string {
	return "problems:snapshot"
}

// ProblemGenerationKey returns the counter bumped on every snapshot invalidation.
func (r *CacheKeyStruct) ProblemGenerationKey() string {
	return "problems:snapshot_gen"
}

// ResequenceLockKey returns the key guarding structural problem writes.
func (r *CacheKeyStruct) ResequenceLockKey() string {
	return "problems:resequence_lock"
}

// ProblemEventsChannel returns the Redis PubSub channel for problem collection changes.
func (r *CacheKeyStruct) ProblemEventsChannel() string {
	return "problems:events"
}

var CacheKey = NewCacheKeyStruct()
