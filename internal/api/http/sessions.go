package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/training"
)

// GET /sessions?q=&status=&program_id=&company_id=&limit=&offset=
func ListSessionsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		list, err := store.ListSessions(r.Context(), training.SessionListOpts{
			Q:         strings.TrimSpace(qv.Get("q")),
			Status:    qv.Get("status"),
			ProgramID: qv.Get("program_id"),
			CompanyID: qv.Get("company_id"),
			Limit:     parseIntDefault(qv.Get("limit"), 50),
			Offset:    parseIntDefault(qv.Get("offset"), 0),
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetSessionHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func CreateSessionHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s training.Session
		if !decodeJSON(w, r, &s) {
			return
		}
		out, err := store.PutSession(r.Context(), s)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateSessionHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		var s training.Session
		if !decodeJSON(w, r, &s) {
			return
		}
		s.ID, s.CreatedAt = cur.ID, cur.CreatedAt
		out, err := store.PutSession(r.Context(), s)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DELETE /sessions/{id} removes the session and everything recorded in it.
func DeleteSessionHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /sessions/{id}/participants  { "participant_ids": ["..."] }
func AddParticipantsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ParticipantIDs []string `json:"participant_ids"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.ParticipantIDs) == 0 {
			http.Error(w, "participant_ids required", http.StatusBadRequest)
			return
		}
		id := chi.URLParam(r, "id")
		if err := store.AddParticipants(r.Context(), id, req.ParticipantIDs); err != nil {
			writeError(w, log, err)
			return
		}
		list, err := store.ListParticipants(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func ListParticipantsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := store.GetSession(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		list, err := store.ListParticipants(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func ResultsSummaryHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := store.ResultsSummary(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// GET /feedback/session/{id}
func ListSessionFeedbackHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := store.GetSession(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		list, err := store.ListFeedback(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /sessions/{id}/participants/{pid}/vehicle-details
func GetVehicleDetailsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := store.GetVehicleDetails(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pid"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
