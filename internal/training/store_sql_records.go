package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ---- attendance ----

func unixPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

// PutAttendance merges a clock-in and/or clock-out into the participant's
// attendance row for that day. Unset times keep their stored value. A lone
// clock-out closes the latest open row that clocked in before it, so a shift
// past midnight stays on its clock-in day. The merged row must not clock out
// before it clocks in.
func (s *SQLStore) PutAttendance(ctx context.Context, a AttendanceRecord) (AttendanceRecord, error) {
	if a.ClockIn == nil && a.ClockOut == nil {
		return AttendanceRecord{}, invalid("clock_in or clock_out required")
	}
	if err := s.requireEnrolled(ctx, a.SessionID, a.ParticipantID); err != nil {
		return AttendanceRecord{}, err
	}
	if a.Date == "" {
		d, err := s.attendanceDate(ctx, a)
		if err != nil {
			return AttendanceRecord{}, err
		}
		a.Date = d
	}

	merged := a
	cur, err := scanAttendance(s.db.QueryRowContext(ctx, `SELECT `+attendanceCols+` FROM attendance
		WHERE session_id=$1 AND participant_id=$2 AND date=$3`, a.SessionID, a.ParticipantID, a.Date))
	switch {
	case err == nil:
		merged.ID = cur.ID
		if merged.ClockIn == nil {
			merged.ClockIn = cur.ClockIn
		}
		if merged.ClockOut == nil {
			merged.ClockOut = cur.ClockOut
		}
	case !errors.Is(err, sql.ErrNoRows):
		return AttendanceRecord{}, err
	}
	if merged.ClockIn != nil && merged.ClockOut != nil && merged.ClockOut.Before(*merged.ClockIn) {
		return AttendanceRecord{}, invalid("clock_out %s before clock_in %s",
			merged.ClockOut.UTC().Format(time.RFC3339), merged.ClockIn.UTC().Format(time.RFC3339))
	}
	if merged.ID == "" {
		merged.ID = newID()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attendance (`+attendanceCols+`)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id,participant_id,date) DO UPDATE SET
			clock_in=EXCLUDED.clock_in,
			clock_out=EXCLUDED.clock_out`,
		merged.ID, merged.SessionID, merged.ParticipantID, merged.Date, unixPtr(merged.ClockIn), unixPtr(merged.ClockOut))
	if err != nil {
		return AttendanceRecord{}, err
	}
	return scanAttendance(s.db.QueryRowContext(ctx, `SELECT `+attendanceCols+` FROM attendance
		WHERE session_id=$1 AND participant_id=$2 AND date=$3`, a.SessionID, a.ParticipantID, a.Date))
}

const (
	attendanceCols = `id,session_id,participant_id,date,clock_in,clock_out`
	maxShift       = 24 * time.Hour
)

// attendanceDate picks the row a record belongs to: the clock-in's UTC date,
// or for a lone clock-out the newest open row clocked in within the
// preceding maxShift.
func (s *SQLStore) attendanceDate(ctx context.Context, a AttendanceRecord) (string, error) {
	if a.ClockIn != nil {
		return a.ClockIn.UTC().Format(dateLayout), nil
	}
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT date FROM attendance
		WHERE session_id=$1 AND participant_id=$2 AND clock_out IS NULL AND clock_in IS NOT NULL
			AND clock_in <= $3 AND clock_in >= $4
		ORDER BY clock_in DESC LIMIT 1`, a.SessionID, a.ParticipantID, a.ClockOut.Unix(), a.ClockOut.Add(-maxShift).Unix()).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return a.ClockOut.UTC().Format(dateLayout), nil
	}
	return d, err
}

func scanAttendance(r rowScanner) (AttendanceRecord, error) {
	var a AttendanceRecord
	var in, out sql.NullInt64
	if err := r.Scan(&a.ID, &a.SessionID, &a.ParticipantID, &a.Date, &in, &out); err != nil {
		return AttendanceRecord{}, err
	}
	a.ClockIn, a.ClockOut = timePtr(in), timePtr(out)
	return a, nil
}

// ListAttendance returns a session's attendance rows, for one participant or
// for everyone when participantID is empty.
func (s *SQLStore) ListAttendance(ctx context.Context, sessionID, participantID string) ([]AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+attendanceCols+` FROM attendance
		WHERE session_id=$1 AND ($2 = '' OR participant_id=$2) ORDER BY date, participant_id`, sessionID, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AttendanceRecord{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- vehicle details ----

func (s *SQLStore) PutVehicleDetails(ctx context.Context, v VehicleDetails) (VehicleDetails, error) {
	if strings.TrimSpace(v.VehicleModel) == "" || strings.TrimSpace(v.RegistrationNumber) == "" || strings.TrimSpace(v.RoadtaxExpiry) == "" {
		return VehicleDetails{}, invalid("vehicle_model, registration_number and roadtax_expiry are required")
	}
	if err := s.requireEnrolled(ctx, v.SessionID, v.ParticipantID); err != nil {
		return VehicleDetails{}, err
	}
	v.UpdatedAt = s.now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO vehicle_details
		(session_id,participant_id,vehicle_model,registration_number,roadtax_expiry,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id,participant_id) DO UPDATE SET vehicle_model=EXCLUDED.vehicle_model,
			registration_number=EXCLUDED.registration_number, roadtax_expiry=EXCLUDED.roadtax_expiry, updated_at=EXCLUDED.updated_at`,
		v.SessionID, v.ParticipantID, v.VehicleModel, v.RegistrationNumber, v.RoadtaxExpiry, v.UpdatedAt)
	if err != nil {
		return VehicleDetails{}, err
	}
	return v, nil
}

func (s *SQLStore) GetVehicleDetails(ctx context.Context, sessionID, participantID string) (VehicleDetails, error) {
	var v VehicleDetails
	err := s.db.QueryRowContext(ctx, `SELECT session_id,participant_id,vehicle_model,registration_number,roadtax_expiry,updated_at
		FROM vehicle_details WHERE session_id=$1 AND participant_id=$2`, sessionID, participantID).
		Scan(&v.SessionID, &v.ParticipantID, &v.VehicleModel, &v.RegistrationNumber, &v.RoadtaxExpiry, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return VehicleDetails{}, notFound("vehicle details for participant", participantID)
	}
	return v, err
}

// ---- checklists ----

func (s *SQLStore) PutChecklistTemplate(ctx context.Context, t ChecklistTemplate) (ChecklistTemplate, error) {
	if len(t.Items) == 0 {
		return ChecklistTemplate{}, invalid("checklist template needs items")
	}
	if _, err := s.GetProgram(ctx, t.ProgramID); err != nil {
		return ChecklistTemplate{}, err
	}
	if existing, err := s.GetChecklistTemplateForProgram(ctx, t.ProgramID); err == nil {
		t.ID = existing.ID
	} else if t.ID == "" {
		t.ID = newID()
	}
	ij, err := json.Marshal(t.Items)
	if err != nil {
		return ChecklistTemplate{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO checklist_templates (id,program_id,items_json) VALUES ($1,$2,$3)
		ON CONFLICT (program_id) DO UPDATE SET items_json=EXCLUDED.items_json`, t.ID, t.ProgramID, string(ij))
	if err != nil {
		return ChecklistTemplate{}, err
	}
	return t, nil
}

func (s *SQLStore) GetChecklistTemplateForProgram(ctx context.Context, programID string) (ChecklistTemplate, error) {
	var t ChecklistTemplate
	var ij string
	err := s.db.QueryRowContext(ctx, `SELECT id,program_id,items_json FROM checklist_templates WHERE program_id=$1`, programID).
		Scan(&t.ID, &t.ProgramID, &ij)
	if errors.Is(err, sql.ErrNoRows) {
		return ChecklistTemplate{}, notFound("checklist template for program", programID)
	}
	if err != nil {
		return ChecklistTemplate{}, err
	}
	if err := json.Unmarshal([]byte(ij), &t.Items); err != nil {
		return ChecklistTemplate{}, err
	}
	return t, nil
}

func (s *SQLStore) SubmitChecklist(ctx context.Context, c ChecklistSubmission) (ChecklistSubmission, error) {
	if !ValidTestType(c.Interval) {
		return ChecklistSubmission{}, invalid("interval must be pre or post")
	}
	if len(c.Items) == 0 {
		return ChecklistSubmission{}, invalid("checklist_items required")
	}
	if err := s.requireEnrolled(ctx, c.SessionID, c.ParticipantID); err != nil {
		return ChecklistSubmission{}, err
	}
	c.ID = newID()
	c.SubmittedAt = s.now().Unix()
	ij, err := json.Marshal(c.Items)
	if err != nil {
		return ChecklistSubmission{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO checklist_submissions
		(id,session_id,participant_id,interval_name,items_json,submitted_by,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.SessionID, c.ParticipantID, c.Interval, string(ij), c.SubmittedBy, c.SubmittedAt)
	if err != nil {
		return ChecklistSubmission{}, err
	}
	return c, nil
}

// ListChecklists returns a session's checklists, for one participant or for
// everyone when participantID is empty.
func (s *SQLStore) ListChecklists(ctx context.Context, sessionID, participantID string) ([]ChecklistSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+checklistCols+` FROM checklist_submissions
		WHERE session_id=$1 AND ($2 = '' OR participant_id=$2) ORDER BY submitted_at, id`, sessionID, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ChecklistSubmission{}
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- feedback ----

func (s *SQLStore) PutFeedbackTemplate(ctx context.Context, t FeedbackTemplate) (FeedbackTemplate, error) {
	if len(t.Questions) == 0 {
		return FeedbackTemplate{}, invalid("feedback template needs questions")
	}
	if _, err := s.GetProgram(ctx, t.ProgramID); err != nil {
		return FeedbackTemplate{}, err
	}
	if existing, err := s.GetFeedbackTemplateForProgram(ctx, t.ProgramID); err == nil {
		t.ID = existing.ID
	} else if t.ID == "" {
		t.ID = newID()
	}
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return FeedbackTemplate{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO feedback_templates (id,program_id,questions_json) VALUES ($1,$2,$3)
		ON CONFLICT (program_id) DO UPDATE SET questions_json=EXCLUDED.questions_json`, t.ID, t.ProgramID, string(qj))
	if err != nil {
		return FeedbackTemplate{}, err
	}
	return t, nil
}

func (s *SQLStore) GetFeedbackTemplateForProgram(ctx context.Context, programID string) (FeedbackTemplate, error) {
	var t FeedbackTemplate
	var qj string
	err := s.db.QueryRowContext(ctx, `SELECT id,program_id,questions_json FROM feedback_templates WHERE program_id=$1`, programID).
		Scan(&t.ID, &t.ProgramID, &qj)
	if errors.Is(err, sql.ErrNoRows) {
		return FeedbackTemplate{}, notFound("feedback template for program", programID)
	}
	if err != nil {
		return FeedbackTemplate{}, err
	}
	if err := json.Unmarshal([]byte(qj), &t.Questions); err != nil {
		return FeedbackTemplate{}, err
	}
	return t, nil
}

func (s *SQLStore) SubmitFeedback(ctx context.Context, f FeedbackSubmission) (FeedbackSubmission, error) {
	if len(f.Responses) == 0 {
		return FeedbackSubmission{}, invalid("responses required")
	}
	if err := s.requireEnrolled(ctx, f.SessionID, f.ParticipantID); err != nil {
		return FeedbackSubmission{}, err
	}
	f.ID = newID()
	f.SubmittedAt = s.now().Unix()
	rj, err := json.Marshal(f.Responses)
	if err != nil {
		return FeedbackSubmission{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO feedback_submissions (id,session_id,participant_id,responses_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5)`, f.ID, f.SessionID, f.ParticipantID, string(rj), f.SubmittedAt)
	if err != nil {
		return FeedbackSubmission{}, err
	}
	return f, nil
}

func (s *SQLStore) ListFeedback(ctx context.Context, sessionID string) ([]FeedbackSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+feedbackCols+` FROM feedback_submissions
		WHERE session_id=$1 ORDER BY submitted_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []FeedbackSubmission{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ---- summary ----

// ResultsSummary reports, per enrolled participant, the latest pre and post
// test result in the session and whether feedback was submitted.
func (s *SQLStore) ResultsSummary(ctx context.Context, sessionID string) (ResultsSummary, error) {
	ss, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return ResultsSummary{}, err
	}
	p, err := s.GetProgram(ctx, ss.ProgramID)
	if err != nil {
		return ResultsSummary{}, err
	}
	parts, err := s.ListParticipants(ctx, sessionID)
	if err != nil {
		return ResultsSummary{}, err
	}
	results, err := s.listResults(ctx, "session_id=$1", sessionID)
	if err != nil {
		return ResultsSummary{}, err
	}
	feedback, err := s.ListFeedback(ctx, sessionID)
	if err != nil {
		return ResultsSummary{}, err
	}

	latest := LatestResults(results)
	gave := map[string]bool{}
	for _, f := range feedback {
		gave[f.ParticipantID] = true
	}

	out := ResultsSummary{Session: ss, Program: p, Participants: make([]ParticipantSummary, 0, len(parts))}
	for _, pr := range parts {
		out.Participants = append(out.Participants, ParticipantSummary{
			Participant:       pr,
			PreTest:           latest[ResultKey{pr.ID, TestTypePre}],
			PostTest:          latest[ResultKey{pr.ID, TestTypePost}],
			FeedbackSubmitted: gave[pr.ID],
		})
	}
	return out, nil
}

// ResultKey identifies one participant's result slot for a test type.
type ResultKey struct {
	ParticipantID string
	TestType      string
}

// LatestResults keeps the most recently submitted result per participant and
// test type. A retake or a console injection supersedes earlier attempts; on
// equal timestamps the later element of results wins.
func LatestResults(results []TestResult) map[ResultKey]*TestResult {
	out := make(map[ResultKey]*TestResult, len(results))
	for i := range results {
		r := &results[i]
		k := ResultKey{r.ParticipantID, r.TestType}
		if prev, ok := out[k]; ok && prev.SubmittedAt > r.SubmittedAt {
			continue
		}
		out[k] = r
	}
	return out
}
