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

// Record kinds, as they appear in data-management routes and audit keys.
const (
	KindTestResults = "test-results"
	KindAttendance  = "attendance"
	KindChecklists  = "checklists"
	KindFeedback    = "feedback"
)

// RecordStore is the part of training.Store that data corrections need.
type RecordStore interface {
	GetSession(ctx context.Context, id string) (training.Session, error)
	GetTest(ctx context.Context, id string) (training.Test, error)

	GetTestResult(ctx context.Context, id string) (training.TestResult, error)
	ListResultsForSession(ctx context.Context, sessionID string) ([]training.TestResult, error)
	RegradeTestResult(ctx context.Context, id string, answers []int) (training.TestResult, error)
	DeleteTestResult(ctx context.Context, id string) error

	GetAttendance(ctx context.Context, id string) (training.AttendanceRecord, error)
	ListAttendance(ctx context.Context, sessionID, participantID string) ([]training.AttendanceRecord, error)
	UpdateAttendance(ctx context.Context, a training.AttendanceRecord) (training.AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, id string) error

	GetChecklistTemplateForProgram(ctx context.Context, programID string) (training.ChecklistTemplate, error)
	GetChecklist(ctx context.Context, id string) (training.ChecklistSubmission, error)
	ListChecklists(ctx context.Context, sessionID, participantID string) ([]training.ChecklistSubmission, error)
	UpdateChecklistItems(ctx context.Context, id string, items []training.ChecklistItem) (training.ChecklistSubmission, error)
	DeleteChecklist(ctx context.Context, id string) error

	GetFeedbackTemplateForProgram(ctx context.Context, programID string) (training.FeedbackTemplate, error)
	GetFeedback(ctx context.Context, id string) (training.FeedbackSubmission, error)
	ListFeedback(ctx context.Context, sessionID string) ([]training.FeedbackSubmission, error)
	UpdateFeedbackResponses(ctx context.Context, id string, responses []training.FeedbackResponse) (training.FeedbackSubmission, error)
	DeleteFeedback(ctx context.Context, id string) error
}

// Records edits and deletes stored session records. Every change is audited
// under audit.RecordKey(kind, id) with the record before and after.
type Records struct {
	store RecordStore
	audit audit.Log
	log   *zap.Logger
}

func NewRecords(store RecordStore, events audit.Log, log *zap.Logger) *Records {
	if log == nil {
		log = zap.NewNop()
	}
	return &Records{store: store, audit: events, log: log}
}

func unknownKind(kind string) error {
	return fmt.Errorf("%w: unknown record kind %q", training.ErrValidation, kind)
}

// List returns every record of kind stored for the session.
func (r *Records) List(ctx context.Context, kind, sessionID string) (any, error) {
	if _, err := r.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	switch kind {
	case KindTestResults:
		return r.store.ListResultsForSession(ctx, sessionID)
	case KindAttendance:
		return r.store.ListAttendance(ctx, sessionID, "")
	case KindChecklists:
		return r.store.ListChecklists(ctx, sessionID, "")
	case KindFeedback:
		return r.store.ListFeedback(ctx, sessionID)
	}
	return nil, unknownKind(kind)
}

// ResultEdit changes a stored test result. Score re-synthesizes the answer
// sheet the way an injection does; Answers replaces it verbatim. Exactly one
// must be set.
type ResultEdit struct {
	Score   *float64 `json:"score,omitempty"`
	Answers []int    `json:"answers,omitempty"`
}

func (r *Records) EditTestResult(ctx context.Context, actor, id string, in ResultEdit) (training.TestResult, error) {
	if (in.Score == nil) == (in.Answers == nil) {
		return training.TestResult{}, fmt.Errorf("%w: exactly one of score or answers required", training.ErrValidation)
	}
	before, err := r.store.GetTestResult(ctx, id)
	if err != nil {
		return training.TestResult{}, err
	}
	answers := in.Answers
	if in.Score != nil {
		if *in.Score < 0 || *in.Score > 100 {
			return training.TestResult{}, synth.ErrInvalidScore
		}
		t, err := r.store.GetTest(ctx, before.TestID)
		if err != nil {
			return training.TestResult{}, err
		}
		if answers, err = synth.Synthesize(*in.Score, SynthQuestions(t.Questions)); err != nil {
			return training.TestResult{}, err
		}
	}
	after, err := r.store.RegradeTestResult(ctx, id, answers)
	if err != nil {
		return training.TestResult{}, err
	}
	r.changed(ctx, KindTestResults, id, actor, before, after)
	return after, nil
}

// AttendanceEdit replaces both clock times of an attendance row.
type AttendanceEdit struct {
	ClockIn  *time.Time `json:"clock_in,omitempty"`
	ClockOut *time.Time `json:"clock_out,omitempty"`
}

func (r *Records) EditAttendance(ctx context.Context, actor, id string, in AttendanceEdit) (training.AttendanceRecord, error) {
	before, err := r.store.GetAttendance(ctx, id)
	if err != nil {
		return training.AttendanceRecord{}, err
	}
	next := before
	next.ClockIn, next.ClockOut = in.ClockIn, in.ClockOut
	after, err := r.store.UpdateAttendance(ctx, next)
	if err != nil {
		return training.AttendanceRecord{}, err
	}
	r.changed(ctx, KindAttendance, id, actor, before, after)
	return after, nil
}

// EditChecklist replaces a checklist's items; they must stay on the program's template.
func (r *Records) EditChecklist(ctx context.Context, actor, id string, items []training.ChecklistItem) (training.ChecklistSubmission, error) {
	before, err := r.store.GetChecklist(ctx, id)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	sess, err := r.store.GetSession(ctx, before.SessionID)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	tpl, err := r.store.GetChecklistTemplateForProgram(ctx, sess.ProgramID)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	if err := checkItems(tpl, items); err != nil {
		return training.ChecklistSubmission{}, err
	}
	after, err := r.store.UpdateChecklistItems(ctx, id, items)
	if err != nil {
		return training.ChecklistSubmission{}, err
	}
	r.changed(ctx, KindChecklists, id, actor, before, after)
	return after, nil
}

// EditFeedback replaces a feedback submission's responses; they must answer
// questions on the program's template.
func (r *Records) EditFeedback(ctx context.Context, actor, id string, responses []training.FeedbackResponse) (training.FeedbackSubmission, error) {
	before, err := r.store.GetFeedback(ctx, id)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	sess, err := r.store.GetSession(ctx, before.SessionID)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	tpl, err := r.store.GetFeedbackTemplateForProgram(ctx, sess.ProgramID)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	if err := checkResponses(tpl, responses); err != nil {
		return training.FeedbackSubmission{}, err
	}
	after, err := r.store.UpdateFeedbackResponses(ctx, id, responses)
	if err != nil {
		return training.FeedbackSubmission{}, err
	}
	r.changed(ctx, KindFeedback, id, actor, before, after)
	return after, nil
}

// Delete removes one record and audits what it held.
func (r *Records) Delete(ctx context.Context, actor, kind, id string) error {
	var before any
	var del func(context.Context, string) error
	var err error
	switch kind {
	case KindTestResults:
		before, err = r.store.GetTestResult(ctx, id)
		del = r.store.DeleteTestResult
	case KindAttendance:
		before, err = r.store.GetAttendance(ctx, id)
		del = r.store.DeleteAttendance
	case KindChecklists:
		before, err = r.store.GetChecklist(ctx, id)
		del = r.store.DeleteChecklist
	case KindFeedback:
		before, err = r.store.GetFeedback(ctx, id)
		del = r.store.DeleteFeedback
	default:
		return unknownKind(kind)
	}
	if err != nil {
		return err
	}
	if err := del(ctx, id); err != nil {
		return err
	}
	appendEvent(ctx, r.audit, r.log, audit.TypeRecordDeleted, audit.RecordKey(kind, id), actor, map[string]any{"before": before})
	r.log.Info("record deleted", zap.String("actor", actor), zap.String("kind", kind), zap.String("id", id))
	return nil
}

// History lists the audit trail of one record, newest first.
func (r *Records) History(ctx context.Context, kind, id string, limit int) ([]audit.Event, error) {
	switch kind {
	case KindTestResults, KindAttendance, KindChecklists, KindFeedback:
	default:
		return nil, unknownKind(kind)
	}
	if r.audit == nil {
		return []audit.Event{}, nil
	}
	return r.audit.ListByKey(ctx, audit.RecordKey(kind, id), limit)
}

func (r *Records) changed(ctx context.Context, kind, id, actor string, before, after any) {
	appendEvent(ctx, r.audit, r.log, audit.TypeRecordUpdated, audit.RecordKey(kind, id), actor, map[string]any{"before": before, "after": after})
	r.log.Info("record updated", zap.String("actor", actor), zap.String("kind", kind), zap.String("id", id))
}
