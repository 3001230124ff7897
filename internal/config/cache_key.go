package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key tracking a user's active login session.
func (r *CacheKeyStruct) UserLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// UserExamSessionKey returns the cache key holding a user's serialized
// practice exam session blob.
func (r *CacheKeyStruct) UserExamSessionKey(userID int) string {
	return fmt.Sprintf("user:%d:exam_session", userID)
}

var CacheKey = NewCacheKeyStruct()
