package http

import (
	"net/http"

	"go.uber.org/zap"

	authmw "github.com/mind-engage/mindengage-training/internal/auth/middleware"
	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/superadmin"
	"github.com/mind-engage/mindengage-training/internal/training"
)

// POST /feedback  { "session_id": "...", "responses": [...] }
// Participants file feedback for themselves; console users may name anyone.
func PortalFeedbackHandler(svc *superadmin.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in training.FeedbackSubmission
		if !decodeJSON(w, r, &in) {
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if in.ParticipantID == "" || !rbac.Can(rbac.RoleFromContext(r.Context()), "superadmin:console") {
			in.ParticipantID = sub
		}
		out, err := svc.SubmitFeedback(r.Context(), sub, in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}
