// Package review classifies a learner's question statistics into weak,
// low-attempt and unattempted buckets.
package review

import (
	"cmp"
	"slices"
	"time"
)

// Thresholds are the bucket boundaries.
type Thresholds struct {
	WeakAccuracy float64 `json:"weak_accuracy"`
	LowAttempts  int     `json:"low_attempts"`
}

// DefaultThresholds: weak below 60% accuracy, low attempts below 3.
var DefaultThresholds = Thresholds{WeakAccuracy: 0.6, LowAttempts: 3}

// Item is one question with the learner's aggregate statistics.
// UnitOrder is the unit's position in the material's curriculum order.
type Item struct {
	QuestionID      string     `json:"question_id"`
	UnitID          string     `json:"unit_id"`
	UnitOrder       int        `json:"unit_order"`
	QuestionOrder   int        `json:"question_order"`
	Japanese        string     `json:"japanese"`
	TotalAttempts   int        `json:"total_attempts"`
	CorrectCount    int        `json:"correct_count"`
	IncorrectCount  int        `json:"incorrect_count"`
	Accuracy        float64    `json:"accuracy"`
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`
}

// Groups holds the three buckets. Weak and LowAttempts may share items;
// Unattempted never overlaps either.
type Groups struct {
	Weak        []Item `json:"weak"`
	LowAttempts []Item `json:"low_attempts"`
	Unattempted []Item `json:"unattempted"`
}

// Summary counts bucket sizes for one material.
type Summary struct {
	WeakCount          int `json:"weak_count"`
	LowAttemptCount    int `json:"low_attempt_count"`
	UnattemptedCount   int `json:"unattempted_count"`
	TotalQuestionCount int `json:"total_question_count"`
}

// Buckets reports which buckets an item belongs to.
func (th Thresholds) Buckets(it Item) (weak, low, unattempted bool) {
	if it.TotalAttempts == 0 {
		return false, false, true
	}
	return it.Accuracy < th.WeakAccuracy, it.TotalAttempts < th.LowAttempts, false
}

// Group classifies items and sorts each bucket:
//
//	weak:        accuracy, then last attempt (missing first)
//	lowAttempts: total attempts, then last attempt (missing first)
//	unattempted: unit order, then question order
func Group(items []Item, th Thresholds) Groups {
	g := Groups{Weak: []Item{}, LowAttempts: []Item{}, Unattempted: []Item{}}
	for _, it := range items {
		weak, low, unattempted := th.Buckets(it)
		if weak {
			g.Weak = append(g.Weak, it)
		}
		if low {
			g.LowAttempts = append(g.LowAttempts, it)
		}
		if unattempted {
			g.Unattempted = append(g.Unattempted, it)
		}
	}

	slices.SortStableFunc(g.Weak, func(a, b Item) int {
		return cmp.Or(cmp.Compare(a.Accuracy, b.Accuracy), compareLastAttempt(a, b))
	})
	slices.SortStableFunc(g.LowAttempts, func(a, b Item) int {
		return cmp.Or(cmp.Compare(a.TotalAttempts, b.TotalAttempts), compareLastAttempt(a, b))
	})
	slices.SortStableFunc(g.Unattempted, func(a, b Item) int {
		return cmp.Or(
			cmp.Compare(a.UnitOrder, b.UnitOrder),
			cmp.Compare(a.QuestionOrder, b.QuestionOrder),
			cmp.Compare(a.UnitID, b.UnitID),
			cmp.Compare(a.QuestionID, b.QuestionID),
		)
	})
	return g
}

// compareLastAttempt orders older attempts first; a missing time is oldest.
func compareLastAttempt(a, b Item) int {
	switch {
	case a.LastAttemptedAt == nil && b.LastAttemptedAt == nil:
		return 0
	case a.LastAttemptedAt == nil:
		return -1
	case b.LastAttemptedAt == nil:
		return 1
	}
	return a.LastAttemptedAt.Compare(*b.LastAttemptedAt)
}

// Summarize counts the buckets of g out of total questions.
func Summarize(g Groups, total int) Summary {
	return Summary{
		WeakCount:          len(g.Weak),
		LowAttemptCount:    len(g.LowAttempts),
		UnattemptedCount:   len(g.Unattempted),
		TotalQuestionCount: total,
	}
}
