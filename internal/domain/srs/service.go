package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
)

// Common errors
var (
	ErrNilCard         = errors.New("card cannot be nil")
	ErrNegativeTarget  = errors.New("target count cannot be negative")
	ErrMissingTodayArg = errors.New("today must be set")
)

// Service defines the interface for scheduler operations. Every method takes
// the current day explicitly; none of them read the clock.
type Service interface {
	// Params returns the parameters the service was built with
	Params() *Params

	// ReviewFactor returns the number of days the card is past due (R)
	ReviewFactor(card *domain.Card, today time.Time) (int, error)

	// ApplicationFactor returns the days since the card was last applied (A)
	ApplicationFactor(card *domain.Card, today time.Time) (int, error)

	// CalculatePriority classifies and scores a card
	CalculatePriority(card *domain.Card, today time.Time) (Priority, error)

	// MustUseList selects today's cards: all forced cards followed by the
	// highest ranked ones until targetCount is reached
	MustUseList(cards []domain.Card, today time.Time, targetCount int) ([]Candidate, error)

	// StateAfterReview returns the card state after an explicit review
	StateAfterReview(card *domain.Card, today time.Time) (domain.SRSState, error)

	// StateAfterApplication returns the card state after a practical use
	StateAfterApplication(card *domain.Card, today time.Time) (domain.SRSState, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new scheduler service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler service with custom parameters.
// A nil params value falls back to the defaults.
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

func (s *defaultService) Params() *Params {
	return s.params
}

func (s *defaultService) ReviewFactor(card *domain.Card, today time.Time) (int, error) {
	if err := checkInputs(card, today); err != nil {
		return 0, err
	}
	return calculateReviewFactor(card.SRSState, today), nil
}

func (s *defaultService) ApplicationFactor(card *domain.Card, today time.Time) (int, error) {
	if err := checkInputs(card, today); err != nil {
		return 0, err
	}
	return calculateApplicationFactor(card.SRSState, today), nil
}

func (s *defaultService) CalculatePriority(card *domain.Card, today time.Time) (Priority, error) {
	if err := checkInputs(card, today); err != nil {
		return Priority{}, err
	}
	return calculatePriority(card.SRSState, today, s.params), nil
}

// MustUseList implements the Service interface. A single card with invalid
// state fails the whole selection.
func (s *defaultService) MustUseList(
	cards []domain.Card,
	today time.Time,
	targetCount int,
) ([]Candidate, error) {
	if today.IsZero() {
		return nil, ErrMissingTodayArg
	}
	if targetCount < 0 {
		return nil, ErrNegativeTarget
	}

	candidates := make([]Candidate, 0, len(cards))
	for i := range cards {
		card := cards[i]
		if err := card.SRSState.Validate(); err != nil {
			return nil, fmt.Errorf("card %q: %w", card.ID, err)
		}
		candidates = append(candidates, Candidate{
			Card:     card,
			Priority: calculatePriority(card.SRSState, today, s.params),
		})
	}

	return selectMustUse(candidates, targetCount), nil
}

func (s *defaultService) StateAfterReview(card *domain.Card, today time.Time) (domain.SRSState, error) {
	if err := checkInputs(card, today); err != nil {
		return domain.SRSState{}, err
	}
	return calculateStateAfterReview(card.SRSState, today), nil
}

func (s *defaultService) StateAfterApplication(card *domain.Card, today time.Time) (domain.SRSState, error) {
	if err := checkInputs(card, today); err != nil {
		return domain.SRSState{}, err
	}
	return calculateStateAfterApplication(card.SRSState, today), nil
}

func checkInputs(card *domain.Card, today time.Time) error {
	if card == nil {
		return ErrNilCard
	}
	if today.IsZero() {
		return ErrMissingTodayArg
	}
	if err := card.SRSState.Validate(); err != nil {
		return fmt.Errorf("card %q: %w", card.ID, err)
	}
	return nil
}
