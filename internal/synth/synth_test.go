package synth

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func fourOption(correct ...int) []Question {
	qs := make([]Question, len(correct))
	for i, c := range correct {
		qs[i] = Question{CorrectOptionIndex: c, OptionCount: 4}
	}
	return qs
}

func TestSynthesizeScenarios(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		qs     []Question
		want   AnswerVector
	}{
		{
			name:   "seventy percent of ten",
			target: 70,
			qs:     fourOption(2, 2, 2, 2, 2, 2, 2, 2, 2, 2),
			want:   AnswerVector{2, 2, 2, 2, 2, 2, 2, 0, 0, 0},
		},
		{
			name:   "half of four mixed keys",
			target: 50,
			qs:     fourOption(0, 1, 2, 3),
			want:   AnswerVector{0, 1, 0, 0},
		},
		{
			name:   "zero falls back to option one when zero is correct",
			target: 0,
			qs:     fourOption(0, 3, 0),
			want:   AnswerVector{1, 0, 1},
		},
		{
			name:   "full marks",
			target: 100,
			qs:     fourOption(3, 0, 1),
			want:   AnswerVector{3, 0, 1},
		},
		{
			name:   "tie rounds away from zero",
			target: 50,
			qs:     fourOption(1, 1, 1),
			want:   AnswerVector{1, 1, 0},
		},
		{
			name:   "just below tie rounds down",
			target: 49.9,
			qs:     fourOption(1, 1, 1),
			want:   AnswerVector{1, 0, 0},
		},
		{
			name:   "two option question",
			target: 0,
			qs:     []Question{{CorrectOptionIndex: 0, OptionCount: 2}},
			want:   AnswerVector{1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Synthesize(tc.target, tc.qs)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSynthesizeErrors(t *testing.T) {
	qs := fourOption(1, 2)
	for _, target := range []float64{-1, 101, -0.01, 100.01, math.NaN()} {
		if _, err := Synthesize(target, qs); !errors.Is(err, ErrInvalidScore) {
			t.Fatalf("target %v: expected ErrInvalidScore, got %v", target, err)
		}
	}
	if _, err := Synthesize(50, nil); !errors.Is(err, ErrEmptyTestDefinition) {
		t.Fatalf("expected ErrEmptyTestDefinition, got %v", err)
	}
	if _, err := Synthesize(50, []Question{}); !errors.Is(err, ErrEmptyTestDefinition) {
		t.Fatalf("expected ErrEmptyTestDefinition, got %v", err)
	}
	bad := [][]Question{
		{{CorrectOptionIndex: 4, OptionCount: 4}},
		{{CorrectOptionIndex: -1, OptionCount: 4}},
		{{CorrectOptionIndex: 0, OptionCount: 1}},
	}
	for _, b := range bad {
		if _, err := Synthesize(50, b); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("%v: expected ErrInvalidQuestion, got %v", b, err)
		}
	}
}

func TestSynthesizeGradesToTarget(t *testing.T) {
	targets := []float64{0, 1, 25, 33.3, 49.9, 50, 50.1, 70, 99, 100}
	for n := 1; n <= 50; n++ {
		qs := make([]Question, n)
		for i := range qs {
			qs[i] = Question{CorrectOptionIndex: i % 4, OptionCount: 4}
		}
		for _, target := range targets {
			got, err := Synthesize(target, qs)
			if err != nil {
				t.Fatalf("n=%d target=%v: %v", n, target, err)
			}
			if len(got) != n {
				t.Fatalf("n=%d target=%v: len %d", n, target, len(got))
			}
			correct, pct := Grade(got, qs)
			if want := CorrectCount(target, n); correct != want {
				t.Fatalf("n=%d target=%v: %d correct, want %d", n, target, correct, want)
			}
			if math.Abs(pct-target) > 50/float64(n)+1e-9 {
				t.Fatalf("n=%d target=%v: graded %v%%", n, target, pct)
			}
			if target == 0 && correct != 0 {
				t.Fatalf("n=%d: zero target produced %d correct", n, correct)
			}
			if target == 100 && correct != n {
				t.Fatalf("n=%d: full target produced %d correct", n, correct)
			}
			again, _ := Synthesize(target, qs)
			if !reflect.DeepEqual(got, again) {
				t.Fatalf("n=%d target=%v: not deterministic", n, target)
			}
		}
	}
}

func TestWrongOptionNeverCorrect(t *testing.T) {
	for c := 0; c < 4; c++ {
		q := Question{CorrectOptionIndex: c, OptionCount: 4}
		w := WrongOption(q)
		if w == c {
			t.Fatalf("correct %d: wrong option equals correct", c)
		}
		if c == 0 && w != 1 {
			t.Fatalf("correct 0: want 1, got %d", w)
		}
		if c != 0 && w != 0 {
			t.Fatalf("correct %d: want 0, got %d", c, w)
		}
	}
}

func TestCorrectCount(t *testing.T) {
	cases := []struct {
		target float64
		n      int
		want   int
	}{
		{50, 3, 2},
		{70, 10, 7},
		{33.3, 3, 1},
		{1, 50, 1},
		{0.9, 50, 0},
		{100, 7, 7},
	}
	for _, c := range cases {
		if got := CorrectCount(c.target, c.n); got != c.want {
			t.Errorf("CorrectCount(%v, %d) = %d, want %d", c.target, c.n, got, c.want)
		}
	}
}
