package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default SRS state assigned to newly created cards.
const (
	DefaultInterval           = 5
	DefaultReviewLagDays      = 5
	DefaultApplicationLagDays = 1
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardModuleEmpty is returned when a card is not bound to a module.
	ErrCardModuleEmpty = errors.New("card module cannot be empty")

	// ErrCardContentInvalid is returned when a card's content is not a JSON object.
	ErrCardContentInvalid = errors.New("card content must be a JSON object")
)

// SRSState is the scheduling state of a card. Review and application are
// tracked independently: a review moves LastReviewDate only, an application
// moves LastApplicationDate and ReferenceCount only.
type SRSState struct {
	Interval            int       `json:"interval"`
	LastReviewDate      time.Time `json:"last_review_date"`
	LastApplicationDate time.Time `json:"last_application_date"`
	IsCore              bool      `json:"is_core"`
	ReferenceCount      int       `json:"reference_count"`
}

// NewSRSState returns the state a card starts with when created on the given day.
func NewSRSState(today time.Time) SRSState {
	day := DateOf(today)
	return SRSState{
		Interval:            DefaultInterval,
		LastReviewDate:      day.AddDate(0, 0, -DefaultReviewLagDays),
		LastApplicationDate: day.AddDate(0, 0, -DefaultApplicationLagDays),
		IsCore:              true,
		ReferenceCount:      0,
	}
}

// Validate checks the state invariants used by the scheduler.
// Every failure wraps ErrInvalidCardState.
func (s SRSState) Validate() error {
	if s.Interval < 0 {
		return fmt.Errorf("%w: interval %d is negative", ErrInvalidCardState, s.Interval)
	}
	if s.ReferenceCount < 0 {
		return fmt.Errorf("%w: reference count %d is negative", ErrInvalidCardState, s.ReferenceCount)
	}
	if s.LastReviewDate.IsZero() {
		return fmt.Errorf("%w: last review date is missing", ErrInvalidCardState)
	}
	if s.LastApplicationDate.IsZero() {
		return fmt.Errorf("%w: last application date is missing", ErrInvalidCardState)
	}
	return nil
}

// Card is a single flashcard in a learning module. Content is the free-form
// JSON object supplied by the client; Title is lifted out of it for display.
type Card struct {
	ID      string          `json:"cardid"`
	Module  string          `json:"module"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	SRSState
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a card with the default SRS state for the given day.
// A nil or empty content becomes an empty JSON object.
func NewCard(module, id string, content json.RawMessage, today time.Time) (*Card, error) {
	if len(content) == 0 {
		content = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	card := &Card{
		ID:        id,
		Module:    module,
		Title:     TitleFromContent(content),
		Content:   content,
		SRSState:  NewSRSState(today),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks identity, content shape and scheduling state.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrCardIDEmpty
	}
	if c.Module == "" {
		return ErrCardModuleEmpty
	}
	if err := ValidateContent(c.Content); err != nil {
		return err
	}
	return c.SRSState.Validate()
}

// ValidateContent checks that content is a JSON object.
func ValidateContent(content json.RawMessage) error {
	if !isJSONObject(content) {
		return ErrCardContentInvalid
	}
	return nil
}

// TitleFromContent returns the "title" field of a content object, or "" if
// the content has none.
func TitleFromContent(content json.RawMessage) string {
	var fields struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(content, &fields); err != nil {
		return ""
	}
	return fields.Title
}

// NextCardID returns "<module>_card_<n>" where n is one more than the highest
// sequence number among existing IDs of that form. Other IDs are ignored.
func NextCardID(module string, existing []string) string {
	prefix := module + "_card_"
	highest := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return prefix + strconv.Itoa(highest+1)
}

func isJSONObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
