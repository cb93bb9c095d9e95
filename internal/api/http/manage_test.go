package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-training/internal/audit"
	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/superadmin"
	"github.com/mind-engage/mindengage-training/internal/training"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestCatalogueUpdateAndDelete(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPut, "/programs/prog-1", "a1", rbac.RoleAdmin, training.Program{Name: "Defensive Driving II", PassPercentage: 60})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prog := decode[training.Program](t, rec.Body.Bytes())
	assert.Equal(t, "prog-1", prog.ID)
	assert.Equal(t, "Defensive Driving II", prog.Name)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/programs/missing", "a1", rbac.RoleAdmin, prog).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/programs/prog-1", "c1", rbac.RoleCoordinator, prog).Code)

	rec = api.do(http.MethodPost, "/companies", "a1", rbac.RoleAdmin, training.Company{Name: "Acme Logistics"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	co := decode[training.Company](t, rec.Body.Bytes())
	rec = api.do(http.MethodPut, "/companies/"+co.ID, "a1", rbac.RoleAdmin, training.Company{Name: "Acme Freight"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodGet, "/companies/"+co.ID, "c1", rbac.RoleCoordinator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Freight", decode[training.Company](t, rec.Body.Bytes()).Name)

	sess, err := api.store.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	sess.CompanyID = co.ID
	sess.Location = "Klang"
	rec = api.do(http.MethodPut, "/sessions/sess-1", "c1", rbac.RoleCoordinator, sess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Klang", decode[training.Session](t, rec.Body.Bytes()).Location)

	// deleting the company leaves its session without one
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/companies/"+co.ID, "a1", rbac.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/companies/"+co.ID, "a1", rbac.RoleAdmin, nil).Code)
	sess, err = api.store.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, sess.CompanyID)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/sessions/sess-1", "t1", rbac.RoleTrainer, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/sessions/sess-1", "c1", rbac.RoleCoordinator, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/sessions/sess-1", "c1", rbac.RoleCoordinator, nil).Code)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/programs/prog-1", "a1", rbac.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/programs/prog-1", "a1", rbac.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/tests/"+api.test.ID, "a1", rbac.RoleAdmin, nil).Code)
}

func TestTemplatesAndPortalSubmits(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPut, "/programs/prog-1/checklist-template", "a1", rbac.RoleAdmin,
		training.ChecklistTemplate{Items: []string{"Tyres", "Brakes"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/programs/prog-1/checklist-template", "t1", rbac.RoleTrainer,
		training.ChecklistTemplate{Items: []string{"Mirrors"}}).Code)
	rec = api.do(http.MethodGet, "/programs/prog-1/checklist-template", "t1", rbac.RoleTrainer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Tyres", "Brakes"}, decode[training.ChecklistTemplate](t, rec.Body.Bytes()).Items)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/programs/prog-1/checklist-template", "p1", rbac.RoleParticipant, nil).Code)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/programs/prog-1/feedback-template", "p1", rbac.RoleParticipant, nil).Code)
	rec = api.do(http.MethodPut, "/programs/prog-1/feedback-template", "a1", rbac.RoleAdmin, training.FeedbackTemplate{
		Questions: []training.FeedbackQuestion{{Question: "Trainer clarity", Type: "rating"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/programs/prog-1/feedback-template", "p1", rbac.RoleParticipant, nil).Code)

	checklist := training.ChecklistSubmission{
		SessionID: "sess-1", ParticipantID: "p1", Interval: "pre",
		Items: []training.ChecklistItem{{Item: "Tyres", Checked: true}},
	}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/checklists", "p1", rbac.RoleParticipant, checklist).Code)
	rec = api.do(http.MethodPost, "/checklists", "t1", rbac.RoleTrainer, checklist)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	clockIn := superadmin.AttendanceInput{SessionID: "sess-1", ParticipantID: "p1", ClockIn: &in}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/attendance", "p1", rbac.RoleParticipant, clockIn).Code)
	rec = api.do(http.MethodPost, "/attendance", "t1", rbac.RoleTrainer, clockIn)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2026-03-10", decode[training.AttendanceRecord](t, rec.Body.Bytes()).Date)

	// participants always file feedback as themselves
	rec = api.do(http.MethodPost, "/feedback", "p1", rbac.RoleParticipant, training.FeedbackSubmission{
		SessionID: "sess-1", ParticipantID: "p2",
		Responses: []training.FeedbackResponse{{Question: "Trainer clarity", Response: "5"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "p1", decode[training.FeedbackSubmission](t, rec.Body.Bytes()).ParticipantID)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/feedback/session/sess-1", "p1", rbac.RoleParticipant, nil).Code)
	rec = api.do(http.MethodGet, "/feedback/session/sess-1", "t1", rbac.RoleTrainer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fb := decode[[]training.FeedbackSubmission](t, rec.Body.Bytes())
	require.Len(t, fb, 1)
	assert.Equal(t, "p1", fb[0].ParticipantID)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/feedback/session/nope", "t1", rbac.RoleTrainer, nil).Code)

	path := "/sessions/sess-1/participants/p1/vehicle-details"
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, "t1", rbac.RoleTrainer, nil).Code)
	rec = api.do(http.MethodPost, "/super-admin/vehicle-details", "root", rbac.RoleSuperAdmin, training.VehicleDetails{
		SessionID: "sess-1", ParticipantID: "p1", VehicleModel: "Hilux", RegistrationNumber: "WXY 1234", RoadtaxExpiry: "2027-01-31",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodGet, path, "t1", rbac.RoleTrainer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hilux", decode[training.VehicleDetails](t, rec.Body.Bytes()).VehicleModel)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, path, "p1", rbac.RoleParticipant, nil).Code)
}

func TestGetTestResultIsOwnerOnly(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/tests/"+api.test.ID+"/submit", "p1", rbac.RoleParticipant, map[string]any{
		"session_id": "sess-1", "answers": []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[training.TestResult](t, rec.Body.Bytes())

	path := "/tests/results/" + res.ID
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, "p1", rbac.RoleParticipant, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, path, "p2", rbac.RoleParticipant, nil).Code)
	rec = api.do(http.MethodGet, path, "t1", rbac.RoleTrainer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 100.0, decode[training.TestResult](t, rec.Body.Bytes()).Percentage, 1e-9)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/tests/results/nope", "t1", rbac.RoleTrainer, nil).Code)
}

func TestSubmitRejectsTestFromAnotherProgram(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	_, err := api.store.PutProgram(ctx, training.Program{ID: "prog-2", Name: "Forklift Safety", PassPercentage: 50})
	require.NoError(t, err)
	other, err := api.store.PutTest(ctx, training.Test{ProgramID: "prog-2", TestType: training.TestTypePre, Questions: []training.Question{
		{Question: "Load limit?", Options: []string{"1t", "2t"}, CorrectAnswer: 1},
	}})
	require.NoError(t, err)

	rec := api.do(http.MethodPost, "/tests/"+other.ID+"/submit", "p1", rbac.RoleParticipant, map[string]any{
		"session_id": "sess-1", "answers": []int{1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/sessions/sess-1/results-summary", "a1", rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, p := range decode[training.ResultsSummary](t, rec.Body.Bytes()).Participants {
		assert.Nil(t, p.PreTest, p.Participant.ID)
	}
}

func TestOnlySuperAdminGrantsSuperAdminRole(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPatch, "/admin/users/p1", "a1", rbac.RoleAdmin, updateUserRoleReq{Role: rbac.RoleSuperAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, "/users/bulk", "a1", rbac.RoleAdmin, []training.User{
		{ID: "x1", Username: "mallory", Role: rbac.RoleSuperAdmin, Password: "pw"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPatch, "/admin/users/p1", "root", rbac.RoleSuperAdmin, updateUserRoleReq{Role: rbac.RoleSuperAdmin})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// an admin cannot demote a super_admin either
	rec = api.do(http.MethodPatch, "/admin/users/p1", "a1", rbac.RoleAdmin, updateUserRoleReq{Role: rbac.RoleTrainer})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	// p1 is the only account with user administration rights
	rec = api.do(http.MethodPatch, "/admin/users/p1", "root", rbac.RoleSuperAdmin, updateUserRoleReq{Role: rbac.RoleTrainer})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDataManagementEditsAreAudited(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/tests/"+api.test.ID+"/submit", "p1", rbac.RoleParticipant, map[string]any{
		"session_id": "sess-1", "answers": []int{0, 1, 2, 3, 0, 1, 2, 3, 1, 0},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[training.TestResult](t, rec.Body.Bytes())

	base := "/admin/data-management/"
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, base+"test-results?session_id=sess-1", "c1", rbac.RoleCoordinator, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, base+"test-results", "a1", rbac.RoleAdmin, nil).Code)
	rec = api.do(http.MethodGet, base+"test-results?session_id=sess-1", "a1", rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]training.TestResult](t, rec.Body.Bytes()), 1)

	score := 50.0
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, base+"test-results/"+res.ID, "a1", rbac.RoleAdmin,
		superadmin.ResultEdit{Score: &score, Answers: []int{0}}).Code)
	rec = api.do(http.MethodPut, base+"test-results/"+res.ID, "a1", rbac.RoleAdmin, superadmin.ResultEdit{Score: &score})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[training.TestResult](t, rec.Body.Bytes())
	assert.InDelta(t, 50.0, edited.Percentage, 1e-9)
	assert.False(t, edited.Passed)
	assert.Equal(t, res.SubmittedAt, edited.SubmittedAt)

	rec = api.do(http.MethodGet, base+"audit-logs/test-results/"+res.ID, "a1", rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]audit.Event](t, rec.Body.Bytes())
	require.Len(t, events, 1)
	assert.Equal(t, audit.TypeRecordUpdated, events[0].Type)
	assert.Equal(t, "a1", events[0].Actor)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	rec = api.do(http.MethodPost, "/attendance", "t1", rbac.RoleTrainer, superadmin.AttendanceInput{SessionID: "sess-1", ParticipantID: "p2", ClockIn: &in})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	att := decode[training.AttendanceRecord](t, rec.Body.Bytes())
	early := in.Add(-time.Hour)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, base+"attendance/"+att.ID, "a1", rbac.RoleAdmin,
		superadmin.AttendanceEdit{ClockIn: &in, ClockOut: &early}).Code)
	out := in.Add(8 * time.Hour)
	rec = api.do(http.MethodPut, base+"attendance/"+att.ID, "a1", rbac.RoleAdmin, superadmin.AttendanceEdit{ClockIn: &in, ClockOut: &out})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decode[training.AttendanceRecord](t, rec.Body.Bytes()).ClockOut)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, base+"attendance/"+att.ID, "a1", rbac.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, base+"attendance/"+att.ID, "a1", rbac.RoleAdmin, nil).Code)
	rec = api.do(http.MethodGet, base+"audit-logs/attendance/"+att.ID, "a1", rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events = decode[[]audit.Event](t, rec.Body.Bytes())
	require.Len(t, events, 2)
	assert.Equal(t, audit.TypeRecordDeleted, events[0].Type)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, base+"audit-logs/widgets/x", "a1", rbac.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, base+"widgets?session_id=sess-1", "a1", rbac.RoleAdmin, nil).Code)
}
