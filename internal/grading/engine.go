package grading

import (
	"context"
	"errors"
)

var ErrLengthMismatch = errors.New("answer count does not match question count")

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type        string
	Points      float64
	Correct     int
	OptionCount int
}

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints  float64  // points awarded automatically
	MaxPoints   float64  // the question's max points
	Correct     bool     // response matched the key
	NeedsManual bool     // true if trainer review is required
	Feedback    []string // optional notes
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response int) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response int) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response int) (Result, error) {
	t := q.Type
	if t == "" {
		t = TypeMCQSingle
	}
	s, ok := g.strategies[t]
	if !ok {
		return Result{MaxPoints: q.points(), NeedsManual: true, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, q, response)
}

const (
	TypeMCQSingle = "mcq_single"
	TypeTrueFalse = "true_false"
)

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			TypeMCQSingle: optionStrategy{},
			TypeTrueFalse: optionStrategy{},
		},
	}
}

// --- Strategies ---

type optionStrategy struct{}

func (optionStrategy) Grade(_ context.Context, q Q, response int) (Result, error) {
	res := Result{MaxPoints: q.points()}
	if q.OptionCount > 0 && (response < 0 || response >= q.OptionCount) {
		return res, errors.New("response out of option range")
	}
	if response == q.Correct {
		res.AutoPoints = res.MaxPoints
		res.Correct = true
	}
	return res, nil
}

// questions without explicit points are worth one
func (q Q) points() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
