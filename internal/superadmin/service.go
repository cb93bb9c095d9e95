// Package superadmin implements the testing console that records data on a
// participant's behalf as if it came from the participant, trainer or
// coordinator portals, and the audited corrections of stored records.
package superadmin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/audit"
	"github.com/mind-engage/mindengage-training/internal/synth"
	"github.com/mind-engage/mindengage-training/internal/training"
)

// Store is the part of training.Store the console needs.
type Store interface {
	GetSession(ctx context.Context, id string) (training.Session, error)
	ListActiveSessions(ctx context.Context, day string) ([]training.Session, error)
	ListParticipants(ctx context.Context, sessionID string) ([]training.ParticipantRecord, error)
	GetTestForProgram(ctx context.Context, programID, testType string) (training.Test, error)
	SubmitTestResult(ctx context.Context, sub training.TestSubmission) (training.TestResult, error)
	ListResultsForParticipant(ctx context.Context, participantID string) ([]training.TestResult, error)
	PutAttendance(ctx context.Context, a training.AttendanceRecord) (training.AttendanceRecord, error)
	ListAttendance(ctx context.Context, sessionID, participantID string) ([]training.AttendanceRecord, error)
	PutVehicleDetails(ctx context.Context, v training.VehicleDetails) (training.VehicleDetails, error)
	GetChecklistTemplateForProgram(ctx context.Context, programID string) (training.ChecklistTemplate, error)
	SubmitChecklist(ctx context.Context, c training.ChecklistSubmission) (training.ChecklistSubmission, error)
	ListChecklists(ctx context.Context, sessionID, participantID string) ([]training.ChecklistSubmission, error)
	GetFeedbackTemplateForProgram(ctx context.Context, programID string) (training.FeedbackTemplate, error)
	SubmitFeedback(ctx context.Context, f training.FeedbackSubmission) (training.FeedbackSubmission, error)
}

type Service struct {
	store Store
	audit audit.Log
	log   *zap.Logger

	// overview fan-out width
	Concurrency int
}

func NewService(store Store, events audit.Log, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, audit: events, log: log, Concurrency: 8}
}

// TestInjection asks for a test result with a chosen percentage.
type TestInjection struct {
	SessionID     string  `json:"session_id"`
	ParticipantID string  `json:"participant_id"`
	TestType      string  `json:"test_type"` // pre|post
	Score         float64 `json:"score"`     // 0..100
}

type InjectionResult struct {
	Result         training.TestResult `json:"result"`
	Answers        synth.AnswerVector  `json:"answers"`
	CorrectAnswers int                 `json:"correct_answers"`
	TotalQuestions int                 `json:"total_questions"`
}

// SynthQuestions maps stored test questions onto the synthesizer's view.
func SynthQuestions(qs []training.Question) []synth.Question {
	out := make([]synth.Question, len(qs))
	for i, q := range qs {
		out[i] = synth.Question{CorrectOptionIndex: q.CorrectAnswer, OptionCount: len(q.Options)}
	}
	return out
}

// InjectTestScore submits a synthesized answer sheet for the session's
// program test so that it grades to in.Score percent.
func (s *Service) InjectTestScore(ctx context.Context, actor string, in TestInjection) (InjectionResult, error) {
	if in.Score < 0 || in.Score > 100 {
		return InjectionResult{}, synth.ErrInvalidScore
	}
	if !training.ValidTestType(in.TestType) {
		return InjectionResult{}, fmt.Errorf("%w: test_type must be pre or post", training.ErrValidation)
	}
	sess, err := s.store.GetSession(ctx, in.SessionID)
	if err != nil {
		return InjectionResult{}, err
	}
	test, err := s.store.GetTestForProgram(ctx, sess.ProgramID, in.TestType)
	if err != nil {
		return InjectionResult{}, err
	}
	qs := SynthQuestions(test.Questions)
	answers, err := synth.Synthesize(in.Score, qs)
	if err != nil {
		return InjectionResult{}, err
	}
	res, err := s.store.SubmitTestResult(ctx, training.TestSubmission{
		TestID:        test.ID,
		SessionID:     sess.ID,
		ParticipantID: in.ParticipantID,
		Answers:       answers,
		Source:        training.SourceSuperAdmin,
	})
	if err != nil {
		return InjectionResult{}, err
	}
	out := InjectionResult{
		Result:         res,
		Answers:        answers,
		CorrectAnswers: synth.CorrectCount(in.Score, len(qs)),
		TotalQuestions: len(qs),
	}
	s.record(ctx, audit.TypeTestInjected, in.ParticipantID, actor, map[string]any{
		"session_id": sess.ID,
		"test_id":    test.ID,
		"test_type":  in.TestType,
		"target":     in.Score,
		"correct":    out.CorrectAnswers,
		"total":      out.TotalQuestions,
		"result_id":  res.ID,
	})
	s.log.Info("test injected",
		zap.String("actor", actor),
		zap.String("session_id", sess.ID),
		zap.String("participant_id", in.ParticipantID),
		zap.String("test_type", in.TestType),
		zap.Float64("target", in.Score),
		zap.Int("correct", out.CorrectAnswers),
		zap.Int("total", out.TotalQuestions))
	return out, nil
}

// AttendanceInput carries a clock-in, a clock-out, or both.
type AttendanceInput struct {
	SessionID     string     `json:"session_id"`
	ParticipantID string     `json:"participant_id"`
	ClockIn       *time.Time `json:"clock_in,omitempty"`
	ClockOut      *time.Time `json:"clock_out,omitempty"`
}

func (s *Service) RecordAttendance(ctx context.Context, actor string, in AttendanceInput) (training.AttendanceRecord, error) {
	if in.ClockIn == nil && in.ClockOut == nil {
		return training.AttendanceRecord{}, fmt.Errorf("%w: clock_in or clock_out required", training.ErrValidation)
	}
	if in.ClockIn != nil && in.ClockOut != nil && in.ClockOut.Before(*in.ClockIn) {
		return training.AttendanceRecord{}, fmt.Errorf("%w: clock_out before clock_in", training.ErrValidation)
	}
	rec, err := s.store.PutAttendance(ctx, training.AttendanceRecord{
		SessionID:     in.SessionID,
		ParticipantID: in.ParticipantID,
		ClockIn:       in.ClockIn,
		ClockOut:      in.ClockOut,
	})
	if err != nil {
		return training.AttendanceRecord{}, err
	}
	s.record(ctx, audit.TypeAttendanceRecorded, in.ParticipantID, actor, rec)
	return rec, nil
}

func (s *Service) SaveVehicleDetails(ctx context.Context, actor string, v training.VehicleDetails) (training.VehicleDetails, error) {
	out, err := s.store.PutVehicleDetails(ctx, v)
	if err != nil {
		return training.VehicleDetails{}, err
	}
	s.record(ctx, audit.TypeVehicleSaved, v.ParticipantID, actor, out)
	return out, nil
}

// SubmitChecklist stores a checklist whose items all come from the program's
// checklist template.
func (s *Service) SubmitChecklist(ctx context.Context, actor string, c training.ChecklistSubmission) (training.ChecklistSubmission, error) {
	sess, err := s.store.GetSession(ctx, c.SessionID)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	tpl, err := s.store.GetChecklistTemplateForProgram(ctx, sess.ProgramID)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	if err := checkItems(tpl, c.Items); err != nil {
		return training.ChecklistSubmission{}, err
	}
	c.SubmittedBy = actor
	out, err := s.store.SubmitChecklist(ctx, c)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	s.record(ctx, audit.TypeChecklistSubmitted, c.ParticipantID, actor, map[string]any{
		"session_id": c.SessionID, "interval": c.Interval, "items": len(c.Items), "submission_id": out.ID,
	})
	return out, nil
}

// SubmitFeedback stores responses to the program's feedback template.
func (s *Service) SubmitFeedback(ctx context.Context, actor string, f training.FeedbackSubmission) (training.FeedbackSubmission, error) {
	sess, err := s.store.GetSession(ctx, f.SessionID)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	tpl, err := s.store.GetFeedbackTemplateForProgram(ctx, sess.ProgramID)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	if err := checkResponses(tpl, f.Responses); err != nil {
		return training.FeedbackSubmission{}, err
	}
	out, err := s.store.SubmitFeedback(ctx, f)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	s.record(ctx, audit.TypeFeedbackSubmitted, f.ParticipantID, actor, map[string]any{
		"session_id": f.SessionID, "responses": len(f.Responses), "submission_id": out.ID,
	})
	return out, nil
}

func checkItems(tpl training.ChecklistTemplate, items []training.ChecklistItem) error {
	known := make(map[string]bool, len(tpl.Items))
	for _, it := range tpl.Items {
		known[it] = true
	}
	for _, it := range items {
		if !known[it.Item] {
			return fmt.Errorf("%w: %q is not on the checklist template", training.ErrValidation, it.Item)
		}
	}
	return nil
}

func checkResponses(tpl training.FeedbackTemplate, responses []training.FeedbackResponse) error {
	known := make(map[string]bool, len(tpl.Questions))
	for _, q := range tpl.Questions {
		known[q.Question] = true
	}
	for _, r := range responses {
		if !known[r.Question] {
			return fmt.Errorf("%w: %q is not on the feedback template", training.ErrValidation, r.Question)
		}
	}
	return nil
}

// record appends an audit event. The console action has already been stored,
// so a failed append is logged and not returned.
func (s *Service) record(ctx context.Context, typ, key, actor string, payload any) {
	appendEvent(ctx, s.audit, s.log, typ, key, actor, payload)
}

func appendEvent(ctx context.Context, events audit.Log, log *zap.Logger, typ, key, actor string, payload any) {
	if events == nil {
		return
	}
	e, err := audit.NewEvent(typ, key, actor, payload)
	if err == nil {
		err = events.Append(ctx, e)
	}
	if err != nil {
		log.Error("audit append failed", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}
