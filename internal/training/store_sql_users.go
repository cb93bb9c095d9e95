package training

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-training/internal/rbac"
)

const passwordCost = 12

// User is an account row. Password is plaintext input only and never read back.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	FullName string `json:"full_name,omitempty" yaml:"full_name"`
	Email    string `json:"email,omitempty" yaml:"email"`
	IDNumber string `json:"id_number,omitempty" yaml:"id_number"`
	Role     string `json:"role" yaml:"role"`
	Password string `json:"password,omitempty" yaml:"password"`
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// adminCount counts accounts that can administer users.
func adminCount(ctx context.Context, q queryRower) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role=$1 OR role=$2`, rbac.RoleAdmin, rbac.RoleSuperAdmin).Scan(&n)
	return n, err
}

func isAdminRole(role string) bool { return role == rbac.RoleAdmin || role == rbac.RoleSuperAdmin }

// UpsertUsers inserts or updates users in one transaction. Existing users keep
// their password hash unless a new password is given; new users need one.
// Any row granting or revoking super_admin fails the batch unless actorRole
// may do so.
func (s *SQLStore) UpsertUsers(ctx context.Context, actorRole string, users []User) (inserted, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := s.now().Unix()
	for _, u := range users {
		u.Username = strings.TrimSpace(u.Username)
		u.Role = strings.ToLower(strings.TrimSpace(u.Role))
		if u.Role == "" {
			u.Role = rbac.RoleParticipant
		}
		if u.Username == "" {
			return inserted, updated, invalid("username required")
		}
		if !rbac.ValidRole(u.Role) {
			return inserted, updated, invalid("invalid role: %s", u.Role)
		}
		if u.ID == "" {
			u.ID = u.Username
		}
		var phash string
		if u.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(u.Password), passwordCost)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var exists bool
		var cur string
		if err = tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, u.ID).Scan(&cur); err == nil {
			exists = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		if !rbac.CanGrant(actorRole, cur, u.Role) {
			err = forbidden("%s may not assign role %s to %s", actorRole, u.Role, u.Username)
			return inserted, updated, err
		}
		if exists && isAdminRole(cur) && !isAdminRole(u.Role) {
			var n int
			if n, err = adminCount(ctx, tx); err != nil {
				return inserted, updated, err
			}
			if n <= 1 {
				err = invalid("cannot demote the last admin")
				return inserted, updated, err
			}
		}
		if exists {
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, full_name=$2, email=$3, id_number=$4, role=$5, password_hash=$6 WHERE id=$7`,
					u.Username, u.FullName, u.Email, u.IDNumber, u.Role, phash, u.ID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, full_name=$2, email=$3, id_number=$4, role=$5 WHERE id=$6`,
					u.Username, u.FullName, u.Email, u.IDNumber, u.Role, u.ID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
			continue
		}
		if phash == "" {
			err = invalid("password required for new user: %s", u.Username)
			return inserted, updated, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, username, full_name, email, id_number, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Username, u.FullName, u.Email, u.IDNumber, phash, u.Role, now)
		if err != nil {
			return inserted, updated, err
		}
		inserted++
	}
	return
}

// ListUsers returns users ordered by username, optionally restricted to a role.
func (s *SQLStore) ListUsers(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id,username,full_name,email,id_number,role FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY username`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.IDNumber, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ChangePassword replaces the user's hash after checking the old password.
// A wrong old password is reported as ErrValidation.
func (s *SQLStore) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return invalid("new password required")
	}
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("user", userID)
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return invalid("incorrect old password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID)
	return err
}

// SetUserRole changes a user's role, found by id or username. The last admin
// cannot be demoted, and only a super_admin actor may grant or revoke
// super_admin.
func (s *SQLStore) SetUserRole(ctx context.Context, actorRole, target, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !rbac.ValidRole(role) {
		return invalid("invalid role: %s", role)
	}
	var id, cur string
	err := s.db.QueryRowContext(ctx, `SELECT id, role FROM users WHERE id=$1 OR username=$1`, target).Scan(&id, &cur)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("user", target)
	}
	if err != nil {
		return err
	}
	if !rbac.CanGrant(actorRole, cur, role) {
		return forbidden("%s may not change %s from %s to %s", actorRole, target, cur, role)
	}
	if isAdminRole(cur) && !isAdminRole(role) {
		n, err := adminCount(ctx, s.db)
		if err != nil {
			return err
		}
		if n <= 1 {
			return invalid("cannot demote the last admin")
		}
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id)
	return err
}
