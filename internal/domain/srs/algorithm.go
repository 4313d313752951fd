package srs

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
)

// Tier classifies a card for today's session.
type Tier int

const (
	// TierNotDue cards are never study candidates.
	TierNotDue Tier = iota
	// TierRanked cards are due and compete for the remaining slots.
	TierRanked
	// TierForced cards have gone too long without practical use and are
	// always included.
	TierForced
)

// String returns the lowercase tier name used on the wire.
func (t Tier) String() string {
	switch t {
	case TierForced:
		return "forced"
	case TierRanked:
		return "ranked"
	default:
		return "not_due"
	}
}

// Priority is the tagged result of scoring a card.
// Score is 0 for TierNotDue, at least 1 for TierRanked and
// ForcedScoreOffset plus the hunger factor for TierForced.
type Priority struct {
	Tier  Tier
	Score float64
}

// Candidate is a card selected for today's session.
type Candidate struct {
	Card     domain.Card
	Priority Priority
}

// calculateReviewFactor returns how many days the card is past its review
// due date (R). Zero means the card is not yet due.
//
// next_due = last_review_date + interval days; R = max(0, today - next_due)
func calculateReviewFactor(state domain.SRSState, today time.Time) int {
	nextDue := domain.DateOf(state.LastReviewDate).AddDate(0, 0, state.Interval)
	overdue := domain.DaysBetween(nextDue, today)
	if overdue < 0 {
		return 0
	}
	return overdue
}

// calculateApplicationFactor returns the number of days since the card was
// last applied in practice (A). An application date in the future gives a
// negative value, which is passed through unchanged.
func calculateApplicationFactor(state domain.SRSState, today time.Time) int {
	return domain.DaysBetween(state.LastApplicationDate, today)
}

// calculatePriority scores a card for the given day.
//
// Algorithm behavior:
//   - A > ApplicationThreshold: forced, score = offset + A. Takes precedence
//     over due-ness so a card is never counted in two tiers.
//   - R == 0: not due, score 0.
//   - otherwise: ranked, score = max(1, R*C + floor(A/divisor) - log2(rc+1))
//     where C is the core or regular weight.
func calculatePriority(state domain.SRSState, today time.Time, params *Params) Priority {
	hunger := calculateApplicationFactor(state, today)
	if hunger > params.ApplicationThreshold {
		return Priority{
			Tier:  TierForced,
			Score: params.ForcedScoreOffset + float64(hunger),
		}
	}

	overdue := calculateReviewFactor(state, today)
	if overdue == 0 {
		return Priority{Tier: TierNotDue}
	}

	weight := params.RegularWeight
	if state.IsCore {
		weight = params.CoreWeight
	}

	damping := math.Log2(float64(state.ReferenceCount) + 1)
	base := overdue*weight + floorDiv(hunger, params.HungerDivisor)

	return Priority{
		Tier:  TierRanked,
		Score: math.Max(1, float64(base)-damping),
	}
}

// selectMustUse builds today's list from scored candidates: every forced
// card, then the best ranked cards up to the target count. Both groups are
// ordered by score descending and then by card ID ascending.
func selectMustUse(candidates []Candidate, targetCount int) []Candidate {
	var forced, ranked []Candidate
	for _, c := range candidates {
		switch c.Priority.Tier {
		case TierForced:
			forced = append(forced, c)
		case TierRanked:
			ranked = append(ranked, c)
		}
	}

	slices.SortFunc(forced, compareCandidates)
	slices.SortFunc(ranked, compareCandidates)

	remaining := max(0, targetCount-len(forced))
	if remaining > len(ranked) {
		remaining = len(ranked)
	}

	result := make([]Candidate, 0, len(forced)+remaining)
	result = append(result, forced...)
	result = append(result, ranked[:remaining]...)
	return result
}

func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.Priority.Score, a.Priority.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.Card.ID, b.Card.ID)
}

// calculateStateAfterReview records an explicit review on the given day.
// Only the last review date changes.
func calculateStateAfterReview(state domain.SRSState, today time.Time) domain.SRSState {
	next := state
	next.LastReviewDate = domain.DateOf(today)
	return next
}

// calculateStateAfterApplication records a practical use on the given day.
// Only the last application date and the reference count change.
func calculateStateAfterApplication(state domain.SRSState, today time.Time) domain.SRSState {
	next := state
	next.LastApplicationDate = domain.DateOf(today)
	next.ReferenceCount = state.ReferenceCount + 1
	return next
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
