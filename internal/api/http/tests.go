package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/mindengage-training/internal/auth/middleware"
	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/training"
)

type questionView struct {
	Question string   `json:"question"`
	Type     string   `json:"type,omitempty"`
	Options  []string `json:"options"`
	Points   float64  `json:"points,omitempty"`
}

type testView struct {
	ID        string         `json:"id"`
	ProgramID string         `json:"program_id"`
	TestType  string         `json:"test_type"`
	Questions []questionView `json:"questions"`
}

// forViewer hides answer keys from participants.
func forViewer(r *http.Request, t training.Test) any {
	if rbac.RoleFromContext(r.Context()) != rbac.RoleParticipant {
		return t
	}
	v := testView{ID: t.ID, ProgramID: t.ProgramID, TestType: t.TestType, Questions: make([]questionView, len(t.Questions))}
	for i, q := range t.Questions {
		v.Questions[i] = questionView{Question: q.Question, Type: q.Type, Options: q.Options, Points: q.Points}
	}
	return v
}

func ListProgramTestsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListTestsForProgram(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		out := make([]any, len(list))
		for i, t := range list {
			out[i] = forViewer(r, t)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetTestHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTest(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, forViewer(r, t))
	}
}

// POST /tests replaces the program's test of the same type.
func PutTestHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t training.Test
		if !decodeJSON(w, r, &t) {
			return
		}
		out, err := store.PutTest(r.Context(), t)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// POST /tests/{id}/submit  { "session_id": "...", "answers": [0,2,1] }
// Participants always submit for themselves; staff may name participant_id.
func SubmitTestHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID     string `json:"session_id"`
			ParticipantID string `json:"participant_id"`
			Answers       []int  `json:"answers"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if rbac.RoleFromContext(r.Context()) == rbac.RoleParticipant || req.ParticipantID == "" {
			req.ParticipantID = sub
		}
		if req.SessionID == "" || req.ParticipantID == "" {
			http.Error(w, "session_id and participant_id required", http.StatusBadRequest)
			return
		}
		res, err := store.SubmitTestResult(r.Context(), training.TestSubmission{
			TestID:        chi.URLParam(r, "id"),
			SessionID:     req.SessionID,
			ParticipantID: req.ParticipantID,
			Answers:       req.Answers,
			Source:        training.SourceParticipant,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func ListParticipantResultsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListResultsForParticipant(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// IsSelf reports whether the {id} route param is the caller's own subject.
func IsSelf(r *http.Request) bool {
	sub := authmw.SubjectFromContext(r.Context())
	return sub != "" && chi.URLParam(r, "id") == sub
}

// GET /tests/results/{id}. Participants see only their own results.
func GetTestResultHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.GetTestResult(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if res.ParticipantID != sub && !rbac.Can(rbac.RoleFromContext(r.Context()), "result:view-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
