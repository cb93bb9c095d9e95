package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-training/internal/grading"
)

// ---- tests ----

func (s *SQLStore) PutTest(ctx context.Context, t Test) (Test, error) {
	if err := ValidateTest(t); err != nil {
		return Test{}, err
	}
	if _, err := s.GetProgram(ctx, t.ProgramID); err != nil {
		return Test{}, err
	}
	// one test per program and type; replacing keeps the existing id
	if existing, err := s.GetTestForProgram(ctx, t.ProgramID, t.TestType); err == nil {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return Test{}, err
	}
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = s.now().Unix()
	}
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return Test{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,program_id,test_type,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET questions_json=EXCLUDED.questions_json`,
		t.ID, t.ProgramID, t.TestType, string(qj), t.CreatedAt)
	if err != nil {
		return Test{}, err
	}
	return t, nil
}

func scanTest(r rowScanner) (Test, error) {
	var t Test
	var qjson string
	if err := r.Scan(&t.ID, &t.ProgramID, &t.TestType, &qjson, &t.CreatedAt); err != nil {
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx,
		`SELECT id,program_id,test_type,questions_json,created_at FROM tests WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, notFound("test", id)
	}
	return t, err
}

func (s *SQLStore) GetTestForProgram(ctx context.Context, programID, testType string) (Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx,
		`SELECT id,program_id,test_type,questions_json,created_at FROM tests WHERE program_id=$1 AND test_type=$2`,
		programID, testType))
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, notFound(testType+"-test for program", programID)
	}
	return t, err
}

func (s *SQLStore) ListTestsForProgram(ctx context.Context, programID string) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,program_id,test_type,questions_json,created_at FROM tests WHERE program_id=$1 ORDER BY test_type DESC`,
		programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Test{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- results ----

// GradingQuestions maps a test's questions onto the grader's view.
func GradingQuestions(qs []Question) []grading.Q {
	out := make([]grading.Q, len(qs))
	for i, q := range qs {
		out[i] = grading.Q{Type: q.Type, Points: q.Points, Correct: q.CorrectAnswer, OptionCount: len(q.Options)}
	}
	return out
}

// grade scores answers against t and its program's pass mark.
func (s *SQLStore) grade(ctx context.Context, t Test, answers []int) (grading.Summary, error) {
	p, err := s.GetProgram(ctx, t.ProgramID)
	if err != nil {
		return grading.Summary{}, err
	}
	sum, err := grading.Summarize(ctx, grading.NewDefaultGrader(), GradingQuestions(t.Questions), answers, p.PassPercentage)
	if err != nil {
		return grading.Summary{}, invalid("%v", err)
	}
	return sum, nil
}

func (s *SQLStore) SubmitTestResult(ctx context.Context, sub TestSubmission) (TestResult, error) {
	t, err := s.GetTest(ctx, sub.TestID)
	if err != nil {
		return TestResult{}, err
	}
	ss, err := s.GetSession(ctx, sub.SessionID)
	if err != nil {
		return TestResult{}, err
	}
	if ss.ProgramID != t.ProgramID {
		return TestResult{}, invalid("test %s does not belong to session %s's program", t.ID, ss.ID)
	}
	if err := s.requireEnrolled(ctx, sub.SessionID, sub.ParticipantID); err != nil {
		return TestResult{}, err
	}
	sum, err := s.grade(ctx, t, sub.Answers)
	if err != nil {
		return TestResult{}, err
	}
	if sub.Source == "" {
		sub.Source = SourceParticipant
	}
	res := TestResult{
		ID:            newID(),
		TestID:        t.ID,
		SessionID:     sub.SessionID,
		ParticipantID: sub.ParticipantID,
		TestType:      t.TestType,
		Answers:       sub.Answers,
		Score:         sum.Score,
		MaxScore:      sum.MaxScore,
		Correct:       sum.Correct,
		Total:         sum.Total,
		Percentage:    sum.Percentage,
		Passed:        sum.Passed,
		Source:        sub.Source,
		SubmittedAt:   s.now().Unix(),
	}
	aj, err := json.Marshal(res.Answers)
	if err != nil {
		return TestResult{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO test_results
		(id,test_id,session_id,participant_id,test_type,answers_json,score,max_score,correct,total,percentage,passed,source,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		res.ID, res.TestID, res.SessionID, res.ParticipantID, res.TestType, string(aj), res.Score, res.MaxScore,
		res.Correct, res.Total, res.Percentage, boolInt(res.Passed), res.Source, res.SubmittedAt)
	if err != nil {
		return TestResult{}, err
	}
	return res, nil
}

const resultCols = `id,test_id,session_id,participant_id,test_type,answers_json,score,max_score,correct,total,percentage,passed,source,submitted_at`

func scanResult(r rowScanner) (TestResult, error) {
	var res TestResult
	var aj string
	var passed int
	if err := r.Scan(&res.ID, &res.TestID, &res.SessionID, &res.ParticipantID, &res.TestType, &aj, &res.Score,
		&res.MaxScore, &res.Correct, &res.Total, &res.Percentage, &passed, &res.Source, &res.SubmittedAt); err != nil {
		return TestResult{}, err
	}
	res.Passed = passed != 0
	if err := json.Unmarshal([]byte(aj), &res.Answers); err != nil {
		return TestResult{}, fmt.Errorf("test result %s: decode answers: %w", res.ID, err)
	}
	return res, nil
}

func (s *SQLStore) GetTestResult(ctx context.Context, id string) (TestResult, error) {
	res, err := scanResult(s.db.QueryRowContext(ctx, `SELECT `+resultCols+` FROM test_results WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return TestResult{}, notFound("test result", id)
	}
	return res, err
}

func (s *SQLStore) listResults(ctx context.Context, where string, arg string) ([]TestResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resultCols+` FROM test_results WHERE `+where+` ORDER BY submitted_at, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListResultsForParticipant(ctx context.Context, participantID string) ([]TestResult, error) {
	return s.listResults(ctx, "participant_id=$1", participantID)
}
