package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/training"
)

func GetChecklistTemplateHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetChecklistTemplateForProgram(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// PUT /programs/{id}/checklist-template  { "items": ["Tyres", "Brakes"] }
func PutChecklistTemplateHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t training.ChecklistTemplate
		if !decodeJSON(w, r, &t) {
			return
		}
		t.ProgramID = chi.URLParam(r, "id")
		out, err := store.PutChecklistTemplate(r.Context(), t)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetFeedbackTemplateHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetFeedbackTemplateForProgram(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// PUT /programs/{id}/feedback-template  { "questions": [{"question": "...", "type": "rating"}] }
func PutFeedbackTemplateHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t training.FeedbackTemplate
		if !decodeJSON(w, r, &t) {
			return
		}
		t.ProgramID = chi.URLParam(r, "id")
		out, err := store.PutFeedbackTemplate(r.Context(), t)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
