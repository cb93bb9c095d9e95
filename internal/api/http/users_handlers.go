package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/training"
)

// BulkUpsertUsersHandler accepts either a multipart file= (CSV/JSON) or a raw
// JSON array in the body.
func BulkUpsertUsersHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []training.User
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			b, err := io.ReadAll(f)
			if err != nil || len(strings.TrimSpace(string(b))) == 0 {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			// sniff CSV vs JSON by first non-space byte
			if t := strings.TrimSpace(string(b)); t[0] == '[' || t[0] == '{' {
				if err := json.Unmarshal(b, &rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseCSV(strings.NewReader(string(b)))
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := store.UpsertUsers(r.Context(), rbac.RoleFromContext(r.Context()), rows)
		if err != nil {
			writeError(w, log, err)
			return
		}
		log.Info("users upserted", zap.Int("inserted", ins), zap.Int("updated", upd))
		writeJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=participant
func ListUsersHandler(store training.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListUsers(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// parseCSV reads a header row naming at least username; id, role, password,
// full_name, email and id_number are optional.
func parseCSV(r io.Reader) ([]training.User, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["username"]; !ok {
		return nil, errors.New("missing column: username")
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []training.User
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, training.User{
			ID:       col(rec, "id"),
			Username: col(rec, "username"),
			Role:     strings.ToLower(col(rec, "role")),
			Password: col(rec, "password"),
			FullName: col(rec, "full_name"),
			Email:    col(rec, "email"),
			IDNumber: col(rec, "id_number"),
		})
	}
	return rows, nil
}
