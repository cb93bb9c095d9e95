package superadmin

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-training/internal/training"
)

// ActiveSessions lists sessions that have not ended before today, plus any
// still marked active.
func (s *Service) ActiveSessions(ctx context.Context, now time.Time) ([]training.Session, error) {
	return s.store.ListActiveSessions(ctx, now.UTC().Format("2006-01-02"))
}

type TestStatus struct {
	Completed bool                 `json:"completed"`
	Passed    *bool                `json:"passed,omitempty"`
	Score     float64              `json:"score,omitempty"`
	Result    *training.TestResult `json:"result,omitempty"`
}

type ChecklistStatus struct {
	Completed   bool                           `json:"completed"`
	Submissions []training.ChecklistSubmission `json:"data,omitempty"`
}

// ParticipantOverview is one row of a session overview.
type ParticipantOverview struct {
	Participant training.ParticipantRecord  `json:"participant"`
	SessionID   string                      `json:"session_id"`
	Attendance  []training.AttendanceRecord `json:"attendance"`
	PreTest     TestStatus                  `json:"pre_test"`
	PostTest    TestStatus                  `json:"post_test"`
	Checklist   ChecklistStatus             `json:"checklist"`
}

// SessionOverview loads every participant's test, checklist and attendance
// state concurrently. A failed lookup leaves that section empty for the
// participant; only the participant list itself is fatal.
func (s *Service) SessionOverview(ctx context.Context, sessionID string) ([]ParticipantOverview, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	parts, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]ParticipantOverview, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i, p := range parts {
		g.Go(func() error {
			out[i] = s.overviewFor(gctx, sessionID, p)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) overviewFor(ctx context.Context, sessionID string, p training.ParticipantRecord) ParticipantOverview {
	ov := ParticipantOverview{Participant: p, SessionID: sessionID, Attendance: []training.AttendanceRecord{}}

	var results []training.TestResult
	var checklists []training.ChecklistSubmission
	var attendance []training.AttendanceRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.store.ListResultsForParticipant(gctx, p.ID)
		s.degrade("test results", p.ID, err)
		results = r
		return nil
	})
	g.Go(func() error {
		c, err := s.store.ListChecklists(gctx, sessionID, p.ID)
		s.degrade("checklists", p.ID, err)
		checklists = c
		return nil
	})
	g.Go(func() error {
		a, err := s.store.ListAttendance(gctx, sessionID, p.ID)
		s.degrade("attendance", p.ID, err)
		attendance = a
		return nil
	})
	_ = g.Wait()

	inSession := results[:0]
	for _, r := range results {
		if r.SessionID == sessionID {
			inSession = append(inSession, r)
		}
	}
	latest := training.LatestResults(inSession)
	if r := latest[training.ResultKey{ParticipantID: p.ID, TestType: training.TestTypePre}]; r != nil {
		ov.PreTest = statusOf(r)
	}
	if r := latest[training.ResultKey{ParticipantID: p.ID, TestType: training.TestTypePost}]; r != nil {
		ov.PostTest = statusOf(r)
	}
	if len(checklists) > 0 {
		ov.Checklist = ChecklistStatus{Completed: true, Submissions: checklists}
	}
	if attendance != nil {
		ov.Attendance = attendance
	}
	return ov
}

func statusOf(r *training.TestResult) TestStatus {
	passed := r.Passed
	return TestStatus{Completed: true, Passed: &passed, Score: r.Percentage, Result: r}
}

func (s *Service) degrade(what, participantID string, err error) {
	if err != nil {
		s.log.Warn("overview lookup failed", zap.String("lookup", what), zap.String("participant_id", participantID), zap.Error(err))
	}
}
