package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Defaults for a learner who has not saved any progress yet.
const (
	DefaultProgressLevel     = 1
	DefaultProgressIndex     = 0
	DefaultProgressQuizCount = 20
)

var (
	ErrInvalidLevel     = errors.New("level must be at least 1")
	ErrInvalidIndex     = errors.New("current index cannot be negative")
	ErrInvalidQuizCount = errors.New("quiz count must be at least 1")
	ErrEmptyCharacter   = errors.New("character cannot be empty")
)

// UserProgress is a learner's position in the graded character course.
type UserProgress struct {
	Username     string    `json:"username"`
	Level        int       `json:"level"`
	CurrentIndex int       `json:"current_index"`
	QuizCount    int       `json:"quiz_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultUserProgress returns the starting progress for a learner.
func DefaultUserProgress(username string) *UserProgress {
	return &UserProgress{
		Username:     username,
		Level:        DefaultProgressLevel,
		CurrentIndex: DefaultProgressIndex,
		QuizCount:    DefaultProgressQuizCount,
	}
}

func (p *UserProgress) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return ErrEmptyUsername
	}
	if p.Level < 1 {
		return ErrInvalidLevel
	}
	if p.CurrentIndex < 0 {
		return ErrInvalidIndex
	}
	if p.QuizCount < 1 {
		return ErrInvalidQuizCount
	}
	return nil
}

// WordMastery holds the client-defined mastery record for one character.
// The record is opaque to the server.
type WordMastery struct {
	Username  string          `json:"username"`
	Char      string          `json:"char"`
	Record    json.RawMessage `json:"record"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (m *WordMastery) Validate() error {
	if strings.TrimSpace(m.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(m.Char) == "" {
		return ErrEmptyCharacter
	}
	if len(m.Record) == 0 || !json.Valid(m.Record) {
		return ErrInvalidFormat
	}
	return nil
}
