package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TrainingSessionKey returns the cache key for a user's training session
func (r *CacheKeyStruct) TrainingSessionKey(userName string) string {
	return fmt.Sprintf("training:%s:session", userName)
}

// TrainingStatsKey returns the cache key for a user's answer counters
func (r *CacheKeyStruct) TrainingStatsKey(userName string) string {
	return fmt.Sprintf("training:%s:stats", userName)
}

// LevelRowsKey returns the cache key for the raw question rows of a level
func (r *CacheKeyStruct) LevelRowsKey(level string) string {
	return fmt.Sprintf("level:%s:rows", level)
}

var CacheKey = NewCacheKeyStruct()
