package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/mindengage-training/internal/auth/middleware"
	"github.com/mind-engage/mindengage-training/internal/superadmin"
	"github.com/mind-engage/mindengage-training/internal/training"
)

// GET /admin/data-management/{kind}?session_id=
func ListRecordsHandler(rec *superadmin.Records, kind string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			http.Error(w, "session_id required", http.StatusBadRequest)
			return
		}
		list, err := rec.List(r.Context(), kind, sessionID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// PUT /admin/data-management/test-results/{id}  { "score": 80 } or { "answers": [...] }
func EditTestResultHandler(rec *superadmin.Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in superadmin.ResultEdit
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := rec.EditTestResult(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PUT /admin/data-management/attendance/{id}  { "clock_in": "...", "clock_out": "..." }
func EditAttendanceHandler(rec *superadmin.Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in superadmin.AttendanceEdit
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := rec.EditAttendance(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PUT /admin/data-management/checklists/{id}  { "checklist_items": [...] }
func EditChecklistHandler(rec *superadmin.Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in training.ChecklistSubmission
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := rec.EditChecklist(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), in.Items)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PUT /admin/data-management/feedback/{id}  { "responses": [...] }
func EditFeedbackHandler(rec *superadmin.Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in training.FeedbackSubmission
		if !decodeJSON(w, r, &in) {
			return
		}
		out, err := rec.EditFeedback(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), in.Responses)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DELETE /admin/data-management/{kind}/{id}
func DeleteRecordHandler(rec *superadmin.Records, kind string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := rec.Delete(r.Context(), authmw.SubjectFromContext(r.Context()), kind, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/data-management/audit-logs/{kind}/{id}?limit=
func RecordHistoryHandler(rec *superadmin.Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rec.History(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"), parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
