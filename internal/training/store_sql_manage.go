package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// ---- catalogue maintenance ----

func (s *SQLStore) deleteRow(ctx context.Context, table, what, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}

// DeleteProgram removes the program with its tests, templates and sessions.
func (s *SQLStore) DeleteProgram(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "programs", "program", id)
}

func (s *SQLStore) GetCompany(ctx context.Context, id string) (Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx, `SELECT id,name,created_at FROM companies WHERE id=$1`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, notFound("company", id)
	}
	return c, err
}

// DeleteCompany removes the company and detaches its sessions.
func (s *SQLStore) DeleteCompany(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, e := res.RowsAffected(); e != nil || n == 0 {
		if e == nil {
			e = notFound("company", id)
		}
		err = e
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE sessions SET company_id='' WHERE company_id=$1`, id)
	return err
}

// DeleteSession removes the session and every record filed under it.
func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "sessions", "session", id)
}

// ---- test results ----

func (s *SQLStore) ListResultsForSession(ctx context.Context, sessionID string) ([]TestResult, error) {
	return s.listResults(ctx, "session_id=$1", sessionID)
}

// RegradeTestResult replaces a stored result's answers and grades them again
// against the current test and pass mark. Source and submission time are kept.
func (s *SQLStore) RegradeTestResult(ctx context.Context, id string, answers []int) (TestResult, error) {
	res, err := s.GetTestResult(ctx, id)
	if err != nil {
		return TestResult{}, err
	}
	t, err := s.GetTest(ctx, res.TestID)
	if err != nil {
		return TestResult{}, err
	}
	sum, err := s.grade(ctx, t, answers)
	if err != nil {
		return TestResult{}, err
	}
	aj, err := json.Marshal(answers)
	if err != nil {
		return TestResult{}, err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE test_results SET answers_json=$1, score=$2, max_score=$3, correct=$4,
		total=$5, percentage=$6, passed=$7 WHERE id=$8`,
		string(aj), sum.Score, sum.MaxScore, sum.Correct, sum.Total, sum.Percentage, boolInt(sum.Passed), id)
	if err != nil {
		return TestResult{}, err
	}
	return s.GetTestResult(ctx, id)
}

func (s *SQLStore) DeleteTestResult(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "test_results", "test result", id)
}

// ---- attendance ----

func (s *SQLStore) GetAttendance(ctx context.Context, id string) (AttendanceRecord, error) {
	a, err := scanAttendance(s.db.QueryRowContext(ctx, `SELECT `+attendanceCols+` FROM attendance WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return AttendanceRecord{}, notFound("attendance", id)
	}
	return a, err
}

// UpdateAttendance overwrites both clock times of an existing row. The row
// keeps its date.
func (s *SQLStore) UpdateAttendance(ctx context.Context, a AttendanceRecord) (AttendanceRecord, error) {
	if a.ClockIn == nil && a.ClockOut == nil {
		return AttendanceRecord{}, invalid("clock_in or clock_out required")
	}
	if a.ClockIn != nil && a.ClockOut != nil && a.ClockOut.Before(*a.ClockIn) {
		return AttendanceRecord{}, invalid("clock_out before clock_in")
	}
	if _, err := s.GetAttendance(ctx, a.ID); err != nil {
		return AttendanceRecord{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE attendance SET clock_in=$1, clock_out=$2 WHERE id=$3`,
		unixPtr(a.ClockIn), unixPtr(a.ClockOut), a.ID); err != nil {
		return AttendanceRecord{}, err
	}
	return s.GetAttendance(ctx, a.ID)
}

func (s *SQLStore) DeleteAttendance(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "attendance", "attendance", id)
}

// ---- checklists ----

const checklistCols = `id,session_id,participant_id,interval_name,items_json,submitted_by,submitted_at`

func scanChecklist(r rowScanner) (ChecklistSubmission, error) {
	var c ChecklistSubmission
	var ij string
	if err := r.Scan(&c.ID, &c.SessionID, &c.ParticipantID, &c.Interval, &ij, &c.SubmittedBy, &c.SubmittedAt); err != nil {
		return ChecklistSubmission{}, err
	}
	if err := json.Unmarshal([]byte(ij), &c.Items); err != nil {
		return ChecklistSubmission{}, err
	}
	return c, nil
}

func (s *SQLStore) GetChecklist(ctx context.Context, id string) (ChecklistSubmission, error) {
	c, err := scanChecklist(s.db.QueryRowContext(ctx, `SELECT `+checklistCols+` FROM checklist_submissions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ChecklistSubmission{}, notFound("checklist", id)
	}
	return c, err
}

func (s *SQLStore) UpdateChecklistItems(ctx context.Context, id string, items []ChecklistItem) (ChecklistSubmission, error) {
	if len(items) == 0 {
		return ChecklistSubmission{}, invalid("checklist_items required")
	}
	if _, err := s.GetChecklist(ctx, id); err != nil {
		return ChecklistSubmission{}, err
	}
	ij, err := json.Marshal(items)
	if err != nil {
		return ChecklistSubmission{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE checklist_submissions SET items_json=$1 WHERE id=$2`, string(ij), id); err != nil {
		return ChecklistSubmission{}, err
	}
	return s.GetChecklist(ctx, id)
}

func (s *SQLStore) DeleteChecklist(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "checklist_submissions", "checklist", id)
}

// ---- feedback ----

const feedbackCols = `id,session_id,participant_id,responses_json,submitted_at`

func scanFeedback(r rowScanner) (FeedbackSubmission, error) {
	var f FeedbackSubmission
	var rj string
	if err := r.Scan(&f.ID, &f.SessionID, &f.ParticipantID, &rj, &f.SubmittedAt); err != nil {
		return FeedbackSubmission{}, err
	}
	if err := json.Unmarshal([]byte(rj), &f.Responses); err != nil {
		return FeedbackSubmission{}, err
	}
	return f, nil
}

func (s *SQLStore) GetFeedback(ctx context.Context, id string) (FeedbackSubmission, error) {
	f, err := scanFeedback(s.db.QueryRowContext(ctx, `SELECT `+feedbackCols+` FROM feedback_submissions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return FeedbackSubmission{}, notFound("feedback", id)
	}
	return f, err
}

func (s *SQLStore) UpdateFeedbackResponses(ctx context.Context, id string, responses []FeedbackResponse) (FeedbackSubmission, error) {
	if len(responses) == 0 {
		return FeedbackSubmission{}, invalid("responses required")
	}
	if _, err := s.GetFeedback(ctx, id); err != nil {
		return FeedbackSubmission{}, err
	}
	rj, err := json.Marshal(responses)
	if err != nil {
		return FeedbackSubmission{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE feedback_submissions SET responses_json=$1 WHERE id=$2`, string(rj), id); err != nil {
		return FeedbackSubmission{}, err
	}
	return s.GetFeedback(ctx, id)
}

func (s *SQLStore) DeleteFeedback(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "feedback_submissions", "feedback", id)
}
