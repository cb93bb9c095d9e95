package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/training"
)

func ListProgramsHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListPrograms(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetProgramHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetProgram(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// POST /programs  { "name": "...", "pass_percentage": 70 }
func CreateProgramHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p training.Program
		if !decodeJSON(w, r, &p) {
			return
		}
		out, err := store.PutProgram(r.Context(), p)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func ListCompaniesHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListCompanies(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CreateCompanyHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c training.Company
		if !decodeJSON(w, r, &c) {
			return
		}
		out, err := store.PutCompany(r.Context(), c)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// PUT /programs/{id} replaces the program's fields.
func UpdateProgramHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := store.GetProgram(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		var p training.Program
		if !decodeJSON(w, r, &p) {
			return
		}
		p.ID, p.CreatedAt = cur.ID, cur.CreatedAt
		out, err := store.PutProgram(r.Context(), p)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DELETE /programs/{id} also removes the program's tests, templates and sessions.
func DeleteProgramHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteProgram(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetCompanyHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCompany(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func UpdateCompanyHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := store.GetCompany(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		var c training.Company
		if !decodeJSON(w, r, &c) {
			return
		}
		c.ID, c.CreatedAt = cur.ID, cur.CreatedAt
		out, err := store.PutCompany(r.Context(), c)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DELETE /companies/{id} leaves the company's sessions in place without a company.
func DeleteCompanyHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
