package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/training"
)

type updateUserRoleReq struct {
	Role string `json:"role"`
}

// PATCH /admin/users/{userID}  { "role": "trainer" }
func AdminUpdateUserRoleHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "userID") // may be id or username
		if target == "" {
			http.Error(w, "missing userID", http.StatusBadRequest)
			return
		}
		var req updateUserRoleReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := store.SetUserRole(r.Context(), rbac.RoleFromContext(r.Context()), target, req.Role); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
