package model

import (
	"slices"
	"time"
)

// Session is a user's in-progress training state.
type Session struct {
	UserName        string       `json:"user_name"`
	Level           string       `json:"level"`
	Order           []OrderEntry `json:"quiz_order"`
	CurrentIndex    int          `json:"current_question_index"`
	CompletedLevels []string     `json:"completed_levels"`
	ProgressRate    int          `json:"progress_rate"`
	// Finished is set once the last level of the progression is exhausted.
	Finished      bool      `json:"finished"`
	CorrectCount  int       `json:"correct_count"`
	AnsweredCount int       `json:"answered_count"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy so a transition can be abandoned without
// touching the stored record.
func (s *Session) Clone() *Session {
	c := *s
	c.Order = slices.Clone(s.Order)
	c.CompletedLevels = slices.Clone(s.CompletedLevels)
	return &c
}

// Current returns the entry at the current index.
func (s *Session) Current() (OrderEntry, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Order) {
		return OrderEntry{}, false
	}
	return s.Order[s.CurrentIndex], true
}

// HasCompleted reports whether level is in the completed set.
func (s *Session) HasCompleted(level string) bool {
	return slices.Contains(s.CompletedLevels, level)
}

// MarkCompleted appends level to the completed set once.
func (s *Session) MarkCompleted(level string) {
	if !s.HasCompleted(level) {
		s.CompletedLevels = append(s.CompletedLevels, level)
	}
}
