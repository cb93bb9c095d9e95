package training

import (
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-training/internal/grading"
)

const dateLayout = "2006-01-02"

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func ValidateProgram(p Program) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("program name required")
	}
	if p.PassPercentage < 0 || p.PassPercentage > 100 {
		return invalid("pass_percentage must be between 0 and 100")
	}
	return nil
}

func ValidateSession(s Session) error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("session name required")
	}
	if s.ProgramID == "" {
		return invalid("program_id required")
	}
	start, err := time.Parse(dateLayout, s.StartDate)
	if err != nil {
		return invalid("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, s.EndDate)
	if err != nil {
		return invalid("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return invalid("end_date before start_date")
	}
	return nil
}

func ValidTestType(t string) bool { return t == TestTypePre || t == TestTypePost }

func ValidateTest(t Test) error {
	if t.ProgramID == "" {
		return invalid("program_id required")
	}
	if !ValidTestType(t.TestType) {
		return invalid("test_type must be pre or post")
	}
	if len(t.Questions) == 0 {
		return invalid("test needs at least one question")
	}
	for i, q := range t.Questions {
		switch q.Type {
		case "", grading.TypeMCQSingle, grading.TypeTrueFalse:
		default:
			return invalid("question %d: unsupported type %q", i+1, q.Type)
		}
		if q.Points < 0 {
			return invalid("question %d: points must not be negative", i+1)
		}
		if len(q.Options) < 2 {
			return invalid("question %d needs at least two options", i+1)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return invalid("question %d correct_answer out of range", i+1)
		}
	}
	return nil
}

// SessionEndDate parses the session's end date; ok is false when it is unset
// or malformed.
func SessionEndDate(s Session) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s.EndDate)
	return t, err == nil
}
