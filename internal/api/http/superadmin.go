package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/audit"
	authmw "github.com/mind-engage/mindengage-training/internal/auth/middleware"
	"github.com/mind-engage/mindengage-training/internal/superadmin"
	"github.com/mind-engage/mindengage-training/internal/training"
)

// GET /super-admin/sessions
func ActiveSessionsHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ActiveSessions(r.Context(), time.Now().UTC())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /super-admin/sessions/{id}/overview
func SessionOverviewHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := svc.SessionOverview(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}

// POST /super-admin/tests/inject
// { "session_id": "...", "participant_id": "...", "test_type": "pre", "score": 70 }
func InjectTestHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in superadmin.TestInjection
		if !decodeJSON(w, r, &in) {
			return
		}
		if in.SessionID == "" || in.ParticipantID == "" {
			http.Error(w, "session_id and participant_id required", http.StatusBadRequest)
			return
		}
		out, err := svc.InjectTestScore(r.Context(), authmw.SubjectFromContext(r.Context()), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// POST /super-admin/attendance  { "session_id", "participant_id", "clock_in", "clock_out" }
func RecordAttendanceHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in superadmin.AttendanceInput
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := svc.RecordAttendance(r.Context(), authmw.SubjectFromContext(r.Context()), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func SaveVehicleDetailsHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in training.VehicleDetails
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := svc.SaveVehicleDetails(r.Context(), authmw.SubjectFromContext(r.Context()), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func SubmitChecklistHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in training.ChecklistSubmission
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := svc.SubmitChecklist(r.Context(), authmw.SubjectFromContext(r.Context()), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func SubmitFeedbackHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in training.FeedbackSubmission
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := svc.SubmitFeedback(r.Context(), authmw.SubjectFromContext(r.Context()), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /admin/audit-logs/{key}?limit=
func AuditLogsHandler(events audit.Log, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := events.ListByKey(r.Context(), chi.URLParam(r, "key"), parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
