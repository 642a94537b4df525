package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentLoginKey returns the cache key for a student's login session.
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentAnswersKey returns the cache key for a student's autosaved answers
// in the currently active quiz session.
func (r *CacheKeyStruct) StudentAnswersKey(studentID int) string {
	return fmt.Sprintf("student:%d:quiz:answers", studentID)
}

// StudentActiveCategoryKey returns the cache key for a student's currently
// active quiz category.
func (r *CacheKeyStruct) StudentActiveCategoryKey(studentID int) string {
	return fmt.Sprintf("student:%d:quiz:category", studentID)
}

var CacheKey = NewCacheKeyStruct()
