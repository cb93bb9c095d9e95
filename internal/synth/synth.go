// Package synth turns an operator-chosen percentage into a concrete answer
// selection for a multiple-choice test.
package synth

import (
	"errors"
	"math"
)

var (
	ErrInvalidScore        = errors.New("score must be between 0 and 100")
	ErrEmptyTestDefinition = errors.New("test has no questions")
	ErrInvalidQuestion     = errors.New("question has an out-of-range correct option")
)

// Question is the minimal view of a scored question needed to synthesize answers.
type Question struct {
	CorrectOptionIndex int `json:"correct_option_index"`
	OptionCount        int `json:"option_count"`
}

// AnswerVector holds one selected option index per question, in question order.
type AnswerVector []int

// Synthesize returns answers that grade to round(target/100*len(questions))
// correct answers. The first correctCount questions are answered correctly and
// every remaining question gets WrongOption.
func Synthesize(target float64, questions []Question) (AnswerVector, error) {
	if math.IsNaN(target) || target < 0 || target > 100 {
		return nil, ErrInvalidScore
	}
	if len(questions) == 0 {
		return nil, ErrEmptyTestDefinition
	}
	for _, q := range questions {
		if q.OptionCount < 2 || q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= q.OptionCount {
			return nil, ErrInvalidQuestion
		}
	}

	correct := CorrectCount(target, len(questions))
	out := make(AnswerVector, len(questions))
	for i, q := range questions {
		if i < correct {
			out[i] = q.CorrectOptionIndex
			continue
		}
		out[i] = WrongOption(q)
	}
	return out, nil
}

// CorrectCount is the number of questions that must be answered correctly to
// reach target percent of n. Halves round away from zero.
func CorrectCount(target float64, n int) int {
	c := int(math.Round(target / 100 * float64(n)))
	if c < 0 {
		return 0
	}
	if c > n {
		return n
	}
	return c
}

// WrongOption is the lowest-indexed option that is not the correct one.
func WrongOption(q Question) int {
	if q.CorrectOptionIndex == 0 {
		return 1
	}
	return 0
}

// Grade counts the answers matching their question's correct option and
// returns that count with the resulting percentage.
func Grade(answers AnswerVector, questions []Question) (correct int, percent float64) {
	if len(questions) == 0 {
		return 0, 0
	}
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectOptionIndex {
			correct++
		}
	}
	return correct, float64(correct) / float64(len(questions)) * 100
}
