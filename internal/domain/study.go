package domain

import "time"

// StudyItem is one card selected for today's session together with the
// priority that put it there.
type StudyItem struct {
	Card   Card
	Score  float64
	Forced bool
}

// StudyPlan is the ordered must-study list for one module on one day.
// Forced cards come first, followed by the best ranked cards.
type StudyPlan struct {
	Module string
	Date   time.Time
	Items  []StudyItem
}

// ForcedCount returns how many items were included because they were starved
// of practical application.
func (p *StudyPlan) ForcedCount() int {
	n := 0
	for _, item := range p.Items {
		if item.Forced {
			n++
		}
	}
	return n
}
