package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-training/internal/db"
	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/training"
)

func TestLoginAndRoleAttach(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:auth_login?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	store := training.NewSQLStore(dbh, "sqlite")
	_, _, err = store.UpsertUsers(ctx, rbac.RoleAdmin, []training.User{{ID: "t1", Username: "lee", Role: "trainer", Password: "pw"}})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("root-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	a := NewAuthService("secret")
	login := LoginHandler(a, dbh, Admin{Username: "superadmin", PassHash: string(hash)}, zap.NewNop())

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return rec
	}
	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"lee","password":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"ghost","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{`).Code)

	rec := post(`{"username":"superadmin","password":"root-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, rbac.RoleSuperAdmin, out["role"])

	rec = post(`{"username":"lee","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "t1", out["sub"])
	assert.Equal(t, rbac.RoleTrainer, out["role"])

	// a token claiming admin is downgraded to the stored role
	forged, err := a.IssueJWT("t1", rbac.RoleAdmin)
	require.NoError(t, err)
	var gotSub, gotRole string
	h := JWTMiddleware(a)(AttachRoleFromDB(dbh, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub, gotRole = SubjectFromContext(r.Context()), rbac.RoleFromContext(r.Context())
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "t1", gotSub)
	assert.Equal(t, rbac.RoleTrainer, gotRole)

	// unknown subjects are refused in strict mode
	stray, _ := a.IssueJWT("nobody", rbac.RoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+stray)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	a := NewAuthService("secret")
	a.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }
	old, err := a.IssueJWT("u", rbac.RoleTrainer)
	require.NoError(t, err)
	_, err = a.Parse(old)
	assert.Error(t, err)

	other := NewAuthService("different")
	tok, err := other.IssueJWT("u", rbac.RoleTrainer)
	require.NoError(t, err)
	_, err = a.Parse(tok)
	assert.Error(t, err)
}
