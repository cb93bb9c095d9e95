package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func newID() string { return uuid.NewString() }

func notFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ---- programs ----

func (s *SQLStore) PutProgram(ctx context.Context, p Program) (Program, error) {
	if err := ValidateProgram(p); err != nil {
		return Program{}, err
	}
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO programs (id,name,description,pass_percentage,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description, pass_percentage=EXCLUDED.pass_percentage`,
		p.ID, p.Name, p.Description, p.PassPercentage, p.CreatedAt)
	if err != nil {
		return Program{}, err
	}
	return p, nil
}

func (s *SQLStore) GetProgram(ctx context.Context, id string) (Program, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,pass_percentage,created_at FROM programs WHERE id=$1`, id)
	var p Program
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PassPercentage, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Program{}, notFound("program", id)
		}
		return Program{}, err
	}
	return p, nil
}

func (s *SQLStore) ListPrograms(ctx context.Context) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,pass_percentage,created_at FROM programs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PassPercentage, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- companies ----

func (s *SQLStore) PutCompany(ctx context.Context, c Company) (Company, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Company{}, invalid("company name required")
	}
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO companies (id,name,created_at) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,created_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Company{}
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- sessions ----

const sessionCols = `id,name,program_id,company_id,location,start_date,end_date,status,trainer_ids_json,coordinator_id,created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var ss Session
	var trainers string
	if err := r.Scan(&ss.ID, &ss.Name, &ss.ProgramID, &ss.CompanyID, &ss.Location, &ss.StartDate, &ss.EndDate,
		&ss.Status, &trainers, &ss.CoordinatorID, &ss.CreatedAt); err != nil {
		return Session{}, err
	}
	if trainers != "" {
		if err := json.Unmarshal([]byte(trainers), &ss.TrainerIDs); err != nil {
			return Session{}, fmt.Errorf("session %s: decode trainer ids: %w", ss.ID, err)
		}
	}
	return ss, nil
}

func (s *SQLStore) PutSession(ctx context.Context, ss Session) (Session, error) {
	if err := ValidateSession(ss); err != nil {
		return Session{}, err
	}
	if _, err := s.GetProgram(ctx, ss.ProgramID); err != nil {
		return Session{}, err
	}
	if ss.ID == "" {
		ss.ID = newID()
	}
	if ss.Status == "" {
		ss.Status = SessionStatusActive
	}
	if ss.CreatedAt == 0 {
		ss.CreatedAt = s.now().Unix()
	}
	tj, err := json.Marshal(ss.TrainerIDs)
	if err != nil {
		return Session{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (`+sessionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, program_id=EXCLUDED.program_id, company_id=EXCLUDED.company_id,
			location=EXCLUDED.location, start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date, status=EXCLUDED.status,
			trainer_ids_json=EXCLUDED.trainer_ids_json, coordinator_id=EXCLUDED.coordinator_id`,
		ss.ID, ss.Name, ss.ProgramID, ss.CompanyID, ss.Location, ss.StartDate, ss.EndDate, ss.Status,
		string(tj), ss.CoordinatorID, ss.CreatedAt)
	if err != nil {
		return Session{}, err
	}
	return ss, nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	ss, err := scanSession(s.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, notFound("session", id)
		}
		return Session{}, err
	}
	return ss, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		where = append(where, "(LOWER(name) LIKE "+p+" OR LOWER(location) LIKE "+p+")")
	}
	if opts.Status != "" {
		where = append(where, "status = "+arg(opts.Status))
	}
	if opts.ProgramID != "" {
		where = append(where, "program_id = "+arg(opts.ProgramID))
	}
	if opts.CompanyID != "" {
		where = append(where, "company_id = "+arg(opts.CompanyID))
	}
	q := `SELECT ` + sessionCols + ` FROM sessions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_date DESC, name"
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	q += " LIMIT " + arg(limit) + " OFFSET " + arg(opts.Offset)
	return s.querySessions(ctx, q, args...)
}

// ListActiveSessions returns every session that ends on or after day
// (YYYY-MM-DD) or is still marked active. It is not paged.
func (s *SQLStore) ListActiveSessions(ctx context.Context, day string) ([]Session, error) {
	if _, err := time.Parse(dateLayout, day); err != nil {
		return nil, invalid("day must be YYYY-MM-DD")
	}
	return s.querySessions(ctx, `SELECT `+sessionCols+` FROM sessions
		WHERE end_date >= $1 OR status = $2 ORDER BY start_date DESC, name`, day, SessionStatusActive)
}

func (s *SQLStore) querySessions(ctx context.Context, q string, args ...any) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		ss, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddParticipants(ctx context.Context, sessionID string, participantIDs []string) (err error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	for _, pid := range participantIDs {
		pid = strings.TrimSpace(pid)
		if pid == "" {
			continue
		}
		if err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1`, pid).Scan(new(int)); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = notFound("participant", pid)
			}
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO session_participants (session_id,participant_id) VALUES ($1,$2)
			ON CONFLICT (session_id,participant_id) DO NOTHING`, sessionID, pid); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) ListParticipants(ctx context.Context, sessionID string) ([]ParticipantRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT u.id,u.username,u.full_name,u.email,u.id_number
		FROM session_participants sp JOIN users u ON u.id = sp.participant_id
		WHERE sp.session_id=$1 ORDER BY u.full_name, u.username`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ParticipantRecord{}
	for rows.Next() {
		var p ParticipantRecord
		if err := rows.Scan(&p.ID, &p.Username, &p.FullName, &p.Email, &p.IDNumber); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) isEnrolled(ctx context.Context, sessionID, participantID string) (bool, error) {
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM session_participants WHERE session_id=$1 AND participant_id=$2`,
		sessionID, participantID).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) requireEnrolled(ctx context.Context, sessionID, participantID string) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	ok, err := s.isEnrolled(ctx, sessionID, participantID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("participant %s is not enrolled in session %s", participantID, sessionID)
	}
	return nil
}
