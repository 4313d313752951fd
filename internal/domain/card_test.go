package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func TestNewCard(t *testing.T) {
	t.Parallel() // Enable parallel execution

	content := json.RawMessage(`{"title": "Greetings", "front": "你好", "back": "hello"}`)

	card, err := NewCard("mod1", "mod1_card_3", content, testToday)
	require.NoError(t, err)

	assert.Equal(t, "mod1_card_3", card.ID)
	assert.Equal(t, "mod1", card.Module)
	assert.Equal(t, "Greetings", card.Title)
	assert.JSONEq(t, string(content), string(card.Content))
	assert.Equal(t, 5, card.Interval)
	assert.Equal(t, testToday.AddDate(0, 0, -5), card.LastReviewDate)
	assert.Equal(t, testToday.AddDate(0, 0, -1), card.LastApplicationDate)
	assert.True(t, card.IsCore)
	assert.Zero(t, card.ReferenceCount)
	assert.False(t, card.CreatedAt.IsZero())
	assert.False(t, card.UpdatedAt.IsZero())
}

func TestNewCardValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		module  string
		id      string
		content json.RawMessage
		wantErr error
	}{
		{"empty id", "mod1", "  ", json.RawMessage(`{}`), ErrCardIDEmpty},
		{"empty module", "", "mod1_card_1", json.RawMessage(`{}`), ErrCardModuleEmpty},
		{"array content", "mod1", "mod1_card_1", json.RawMessage(`[1,2]`), ErrCardContentInvalid},
		{"malformed content", "mod1", "mod1_card_1", json.RawMessage(`{"title":`), ErrCardContentInvalid},
		{"nil content becomes object", "mod1", "mod1_card_1", nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card, err := NewCard(tc.module, tc.id, tc.content, testToday)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, card)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, `{}`, string(card.Content))
		})
	}
}

func TestSRSStateValidate(t *testing.T) {
	t.Parallel()

	valid := NewSRSState(testToday)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*SRSState)
	}{
		{"negative interval", func(s *SRSState) { s.Interval = -1 }},
		{"negative reference count", func(s *SRSState) { s.ReferenceCount = -3 }},
		{"missing review date", func(s *SRSState) { s.LastReviewDate = time.Time{} }},
		{"missing application date", func(s *SRSState) { s.LastApplicationDate = time.Time{} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			state := valid
			tc.mutate(&state)
			err := state.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCardState), "expected ErrInvalidCardState, got %v", err)
		})
	}
}

func TestNextCardID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		module   string
		existing []string
		want     string
	}{
		{"empty module", "mod1", nil, "mod1_card_1"},
		{"sequential ids", "mod1", []string{"mod1_card_1", "mod1_card_2"}, "mod1_card_3"},
		{"gaps use the maximum", "mod1", []string{"mod1_card_9", "mod1_card_2"}, "mod1_card_10"},
		{"foreign ids ignored", "mod2", []string{"mod1_card_40", "custom", "mod2_card_x", "mod2_card_4"}, "mod2_card_5"},
		{"prefix must match exactly", "mod1", []string{"mod10_card_7"}, "mod1_card_1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NextCardID(tc.module, tc.existing))
		})
	}
}

func TestTitleFromContent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Travel", TitleFromContent(json.RawMessage(`{"title":"Travel"}`)))
	assert.Equal(t, "", TitleFromContent(json.RawMessage(`{"front":"x"}`)))
	assert.Equal(t, "", TitleFromContent(json.RawMessage(`not json`)))
}
