package grading

import (
	"context"
	"fmt"
	"math"
)

// Summary aggregates a graded answer sheet.
type Summary struct {
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
	NeedsManual bool    `json:"needs_manual,omitempty"`
}

// Summarize grades answers position by position and checks the percentage
// against passPercentage. Percentage counts correct questions; points only
// feed Score and MaxScore. Percentages are rounded to two decimals.
func Summarize(ctx context.Context, g Grader, qs []Q, answers []int, passPercentage float64) (Summary, error) {
	if len(answers) != len(qs) {
		return Summary{}, fmt.Errorf("%w: %d answers for %d questions", ErrLengthMismatch, len(answers), len(qs))
	}
	s := Summary{Total: len(qs)}
	for i, q := range qs {
		res, err := g.Grade(ctx, q, answers[i])
		if err != nil {
			return Summary{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		s.Score += res.AutoPoints
		s.MaxScore += res.MaxPoints
		if res.Correct {
			s.Correct++
		}
		if res.NeedsManual {
			s.NeedsManual = true
		}
	}
	if s.Total > 0 {
		s.Percentage = math.Round(float64(s.Correct)/float64(s.Total)*10000) / 100
	}
	s.Passed = s.Percentage >= passPercentage
	return s, nil
}
