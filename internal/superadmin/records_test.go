package superadmin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/mind-engage/mindengage-training/internal/audit"
	"github.com/mind-engage/mindengage-training/internal/db"
	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/training"
)

// sqlFixture is a real store holding prog-w, whose post-test weights its
// first question three times the others.
func sqlFixture(t *testing.T) (*training.SQLStore, *audit.EventRepo) {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, fmt.Sprintf("file:superadmin_%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	store := training.NewSQLStore(dbh, "sqlite")

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	_, _, err = store.UpsertUsers(ctx, rbac.RoleAdmin, []training.User{{ID: "p1", Username: "aisha", Password: "pw"}})
	must(err)
	_, err = store.PutProgram(ctx, training.Program{ID: "prog-w", Name: "Fleet Safety", PassPercentage: 60})
	must(err)
	opts := []string{"a", "b", "c"}
	_, err = store.PutTest(ctx, training.Test{ProgramID: "prog-w", TestType: training.TestTypePost, Questions: []training.Question{
		{Question: "q1", Options: opts, CorrectAnswer: 1, Points: 3},
		{Question: "q2", Options: opts, CorrectAnswer: 1, Points: 1},
		{Question: "q3", Options: opts, CorrectAnswer: 2, Points: 1},
		{Question: "q4", Type: "true_false", Options: []string{"true", "false"}, CorrectAnswer: 0, Points: 1},
	}})
	must(err)
	_, err = store.PutSession(ctx, training.Session{ID: "sess-w", Name: "Fleet intake", ProgramID: "prog-w",
		StartDate: "2026-03-09", EndDate: "2026-03-11"})
	must(err)
	must(store.AddParticipants(ctx, "sess-w", []string{"p1"}))
	return store, audit.NewEventRepo(dbh, "test")
}

func TestInjectedScoreSurvivesWeightedQuestions(t *testing.T) {
	store, events := sqlFixture(t)
	svc := NewService(store, events, nil)
	for _, target := range []float64{0, 25, 50, 75, 100} {
		out, err := svc.InjectTestScore(context.Background(), "root", TestInjection{
			SessionID: "sess-w", ParticipantID: "p1", TestType: training.TestTypePost, Score: target,
		})
		if err != nil {
			t.Fatalf("inject %v: %v", target, err)
		}
		if math.Abs(out.Result.Percentage-target) > 1e-9 {
			t.Errorf("inject %v: stored percentage %v", target, out.Result.Percentage)
		}
		if want := target >= 60; out.Result.Passed != want {
			t.Errorf("inject %v: passed = %v, want %v", target, out.Result.Passed, want)
		}
	}
}

func TestRecordsEditTestResult(t *testing.T) {
	store, events := sqlFixture(t)
	ctx := context.Background()
	svc := NewService(store, events, nil)
	rec := NewRecords(store, events, nil)

	in, err := svc.InjectTestScore(ctx, "root", TestInjection{SessionID: "sess-w", ParticipantID: "p1", TestType: "post", Score: 100})
	if err != nil {
		t.Fatal(err)
	}
	id := in.Result.ID

	score := 25.0
	got, err := rec.EditTestResult(ctx, "a1", id, ResultEdit{Score: &score})
	if err != nil {
		t.Fatal(err)
	}
	if got.Percentage != 25 || got.Correct != 1 || got.Passed {
		t.Errorf("after score edit: %+v", got)
	}
	if got.Source != training.SourceSuperAdmin || got.SubmittedAt != in.Result.SubmittedAt {
		t.Errorf("edit changed provenance: %+v", got)
	}

	got, err = rec.EditTestResult(ctx, "a1", id, ResultEdit{Answers: []int{1, 1, 2, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if got.Percentage != 75 || got.Score != 5 || got.MaxScore != 6 || !got.Passed {
		t.Errorf("after answer edit: %+v", got)
	}

	for name, edit := range map[string]ResultEdit{
		"neither":     {},
		"both":        {Score: &score, Answers: []int{0, 0, 0, 0}},
		"short sheet": {Answers: []int{1}},
		"bad option":  {Answers: []int{1, 1, 2, 7}},
	} {
		if _, err := rec.EditTestResult(ctx, "a1", id, edit); !errors.Is(err, training.ErrValidation) {
			t.Errorf("%s: err = %v, want validation error", name, err)
		}
	}
	if _, err := rec.EditTestResult(ctx, "a1", "missing", ResultEdit{Score: &score}); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("missing result: err = %v", err)
	}

	hist, err := rec.History(ctx, KindTestResults, id, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[0].Type != audit.TypeRecordUpdated || hist[0].Key != audit.RecordKey(KindTestResults, id) {
		t.Fatalf("history = %+v", hist)
	}

	if err := rec.Delete(ctx, "a1", KindTestResults, id); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetTestResult(ctx, id); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("deleted result still readable: %v", err)
	}
	if err := rec.Delete(ctx, "a1", "widgets", id); !errors.Is(err, training.ErrValidation) {
		t.Errorf("unknown kind: err = %v", err)
	}
}

func TestRecordsEditChecklistStaysOnTemplate(t *testing.T) {
	store, events := sqlFixture(t)
	ctx := context.Background()
	svc := NewService(store, events, nil)
	rec := NewRecords(store, events, nil)
	if _, err := store.PutChecklistTemplate(ctx, training.ChecklistTemplate{ProgramID: "prog-w", Items: []string{"Tyres", "Brakes"}}); err != nil {
		t.Fatal(err)
	}
	c, err := svc.SubmitChecklist(ctx, "t1", training.ChecklistSubmission{SessionID: "sess-w", ParticipantID: "p1", Interval: "pre",
		Items: []training.ChecklistItem{{Item: "Tyres", Checked: false}}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rec.EditChecklist(ctx, "a1", c.ID, []training.ChecklistItem{{Item: "Wipers", Checked: true}}); !errors.Is(err, training.ErrValidation) {
		t.Errorf("off-template item: err = %v", err)
	}
	got, err := rec.EditChecklist(ctx, "a1", c.ID, []training.ChecklistItem{{Item: "Tyres", Checked: true}, {Item: "Brakes", Checked: true}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 2 || got.SubmittedBy != "t1" {
		t.Errorf("edited checklist = %+v", got)
	}
	list, err := rec.List(ctx, KindChecklists, "sess-w")
	if err != nil {
		t.Fatal(err)
	}
	if cl := list.([]training.ChecklistSubmission); len(cl) != 1 || !cl[0].Items[1].Checked {
		t.Errorf("list = %+v", cl)
	}
}
