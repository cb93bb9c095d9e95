// Package seed loads YAML fixtures of users, programs, companies and sessions
// and applies them through the training store.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/training"
)

type Fixture struct {
	Users     []training.User `yaml:"users"`
	Programs  []Program       `yaml:"programs"`
	Companies []Company       `yaml:"companies"`
	Sessions  []Session       `yaml:"sessions"`
}

type Question struct {
	Question string   `yaml:"question"`
	Type     string   `yaml:"type"`
	Options  []string `yaml:"options"`
	Answer   int      `yaml:"answer"`
	Points   float64  `yaml:"points"`
}

type FeedbackQuestion struct {
	Question string `yaml:"question"`
	Type     string `yaml:"type"`
}

type Program struct {
	ID             string             `yaml:"id"`
	Name           string             `yaml:"name"`
	Description    string             `yaml:"description"`
	PassPercentage float64            `yaml:"pass_percentage"`
	PreTest        []Question         `yaml:"pre_test"`
	PostTest       []Question         `yaml:"post_test"`
	Checklist      []string           `yaml:"checklist"`
	Feedback       []FeedbackQuestion `yaml:"feedback"`
}

type Company struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Session struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Program      string   `yaml:"program"`
	Company      string   `yaml:"company"`
	Location     string   `yaml:"location"`
	StartDate    string   `yaml:"start_date"`
	EndDate      string   `yaml:"end_date"`
	Status       string   `yaml:"status"`
	Trainers     []string `yaml:"trainers"`
	Coordinator  string   `yaml:"coordinator"`
	Participants []string `yaml:"participants"`
}

// Store is the part of training.Store a fixture writes through.
type Store interface {
	UpsertUsers(ctx context.Context, actorRole string, users []training.User) (inserted, updated int, err error)
	PutProgram(ctx context.Context, p training.Program) (training.Program, error)
	PutTest(ctx context.Context, t training.Test) (training.Test, error)
	PutChecklistTemplate(ctx context.Context, t training.ChecklistTemplate) (training.ChecklistTemplate, error)
	PutFeedbackTemplate(ctx context.Context, t training.FeedbackTemplate) (training.FeedbackTemplate, error)
	PutCompany(ctx context.Context, c training.Company) (training.Company, error)
	PutSession(ctx context.Context, s training.Session) (training.Session, error)
	AddParticipants(ctx context.Context, sessionID string, participantIDs []string) error
}

// Report counts what Apply wrote.
type Report struct {
	UsersInserted int
	UsersUpdated  int
	Programs      int
	Tests         int
	Companies     int
	Sessions      int
	Enrollments   int
}

// Load reads and parses a fixture file.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes exactly one YAML document and rejects unknown fields.
func Parse(data []byte) (Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return Fixture{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return Fixture{}, fmt.Errorf("parse yaml: %w", err)
	}
	return f, nil
}

// Apply writes the fixture in dependency order. Everything is an upsert, so a
// fixture can be applied repeatedly.
func Apply(ctx context.Context, st Store, f Fixture, log *zap.Logger) (Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var rep Report
	var err error
	// fixtures are operator-authored and may create super_admin accounts
	if len(f.Users) > 0 {
		rep.UsersInserted, rep.UsersUpdated, err = st.UpsertUsers(ctx, rbac.RoleSuperAdmin, f.Users)
		if err != nil {
			return rep, fmt.Errorf("users: %w", err)
		}
	}
	for _, p := range f.Programs {
		n, err := applyProgram(ctx, st, p)
		if err != nil {
			return rep, fmt.Errorf("program %q: %w", p.Name, err)
		}
		rep.Programs++
		rep.Tests += n
	}
	for _, c := range f.Companies {
		if _, err := st.PutCompany(ctx, training.Company{ID: c.ID, Name: c.Name}); err != nil {
			return rep, fmt.Errorf("company %q: %w", c.Name, err)
		}
		rep.Companies++
	}
	for _, s := range f.Sessions {
		out, err := st.PutSession(ctx, training.Session{
			ID: s.ID, Name: s.Name, ProgramID: s.Program, CompanyID: s.Company, Location: s.Location,
			StartDate: s.StartDate, EndDate: s.EndDate, Status: s.Status,
			TrainerIDs: s.Trainers, CoordinatorID: s.Coordinator,
		})
		if err != nil {
			return rep, fmt.Errorf("session %q: %w", s.Name, err)
		}
		rep.Sessions++
		if len(s.Participants) > 0 {
			if err := st.AddParticipants(ctx, out.ID, s.Participants); err != nil {
				return rep, fmt.Errorf("session %q participants: %w", s.Name, err)
			}
			rep.Enrollments += len(s.Participants)
		}
	}
	log.Info("fixture applied",
		zap.Int("users_inserted", rep.UsersInserted),
		zap.Int("users_updated", rep.UsersUpdated),
		zap.Int("programs", rep.Programs),
		zap.Int("tests", rep.Tests),
		zap.Int("companies", rep.Companies),
		zap.Int("sessions", rep.Sessions),
		zap.Int("enrollments", rep.Enrollments))
	return rep, nil
}

func applyProgram(ctx context.Context, st Store, p Program) (tests int, err error) {
	prog, err := st.PutProgram(ctx, training.Program{ID: p.ID, Name: p.Name, Description: p.Description, PassPercentage: p.PassPercentage})
	if err != nil {
		return 0, err
	}
	for typ, qs := range map[string][]Question{training.TestTypePre: p.PreTest, training.TestTypePost: p.PostTest} {
		if len(qs) == 0 {
			continue
		}
		if _, err := st.PutTest(ctx, training.Test{ProgramID: prog.ID, TestType: typ, Questions: questions(qs)}); err != nil {
			return tests, fmt.Errorf("%s-test: %w", typ, err)
		}
		tests++
	}
	if len(p.Checklist) > 0 {
		if _, err := st.PutChecklistTemplate(ctx, training.ChecklistTemplate{ProgramID: prog.ID, Items: p.Checklist}); err != nil {
			return tests, fmt.Errorf("checklist: %w", err)
		}
	}
	if len(p.Feedback) > 0 {
		fq := make([]training.FeedbackQuestion, len(p.Feedback))
		for i, q := range p.Feedback {
			fq[i] = training.FeedbackQuestion{Question: q.Question, Type: q.Type}
		}
		if _, err := st.PutFeedbackTemplate(ctx, training.FeedbackTemplate{ProgramID: prog.ID, Questions: fq}); err != nil {
			return tests, fmt.Errorf("feedback: %w", err)
		}
	}
	return tests, nil
}

func questions(qs []Question) []training.Question {
	out := make([]training.Question, len(qs))
	for i, q := range qs {
		out[i] = training.Question{Question: q.Question, Type: q.Type, Options: q.Options, CorrectAnswer: q.Answer, Points: q.Points}
	}
	return out
}
