package training

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

type SessionListOpts struct {
	Q         string // matches name or location, case-insensitive
	Status    string
	ProgramID string
	CompanyID string
	Limit     int
	Offset    int
}

type Store interface {
	PutProgram(ctx context.Context, p Program) (Program, error)
	GetProgram(ctx context.Context, id string) (Program, error)
	ListPrograms(ctx context.Context) ([]Program, error)
	DeleteProgram(ctx context.Context, id string) error

	PutCompany(ctx context.Context, c Company) (Company, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	DeleteCompany(ctx context.Context, id string) error

	PutSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error)
	ListActiveSessions(ctx context.Context, day string) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
	AddParticipants(ctx context.Context, sessionID string, participantIDs []string) error
	ListParticipants(ctx context.Context, sessionID string) ([]ParticipantRecord, error)

	PutTest(ctx context.Context, t Test) (Test, error)
	GetTest(ctx context.Context, id string) (Test, error)
	ListTestsForProgram(ctx context.Context, programID string) ([]Test, error)
	// GetTestForProgram returns ErrNotFound when the program has no test of that type.
	GetTestForProgram(ctx context.Context, programID, testType string) (Test, error)

	// SubmitTestResult grades the answers against the test and stores the result.
	SubmitTestResult(ctx context.Context, sub TestSubmission) (TestResult, error)
	GetTestResult(ctx context.Context, id string) (TestResult, error)
	ListResultsForParticipant(ctx context.Context, participantID string) ([]TestResult, error)
	ListResultsForSession(ctx context.Context, sessionID string) ([]TestResult, error)
	RegradeTestResult(ctx context.Context, id string, answers []int) (TestResult, error)
	DeleteTestResult(ctx context.Context, id string) error

	PutAttendance(ctx context.Context, a AttendanceRecord) (AttendanceRecord, error)
	// ListAttendance, ListChecklists: an empty participantID lists the whole session.
	ListAttendance(ctx context.Context, sessionID, participantID string) ([]AttendanceRecord, error)
	GetAttendance(ctx context.Context, id string) (AttendanceRecord, error)
	UpdateAttendance(ctx context.Context, a AttendanceRecord) (AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, id string) error

	PutVehicleDetails(ctx context.Context, v VehicleDetails) (VehicleDetails, error)
	GetVehicleDetails(ctx context.Context, sessionID, participantID string) (VehicleDetails, error)

	PutChecklistTemplate(ctx context.Context, t ChecklistTemplate) (ChecklistTemplate, error)
	GetChecklistTemplateForProgram(ctx context.Context, programID string) (ChecklistTemplate, error)
	SubmitChecklist(ctx context.Context, c ChecklistSubmission) (ChecklistSubmission, error)
	ListChecklists(ctx context.Context, sessionID, participantID string) ([]ChecklistSubmission, error)
	GetChecklist(ctx context.Context, id string) (ChecklistSubmission, error)
	UpdateChecklistItems(ctx context.Context, id string, items []ChecklistItem) (ChecklistSubmission, error)
	DeleteChecklist(ctx context.Context, id string) error

	PutFeedbackTemplate(ctx context.Context, t FeedbackTemplate) (FeedbackTemplate, error)
	GetFeedbackTemplateForProgram(ctx context.Context, programID string) (FeedbackTemplate, error)
	SubmitFeedback(ctx context.Context, f FeedbackSubmission) (FeedbackSubmission, error)
	ListFeedback(ctx context.Context, sessionID string) ([]FeedbackSubmission, error)
	GetFeedback(ctx context.Context, id string) (FeedbackSubmission, error)
	UpdateFeedbackResponses(ctx context.Context, id string, responses []FeedbackResponse) (FeedbackSubmission, error)
	DeleteFeedback(ctx context.Context, id string) error

	ResultsSummary(ctx context.Context, sessionID string) (ResultsSummary, error)

	// UpsertUsers and SetUserRole check actorRole before touching super_admin accounts.
	UpsertUsers(ctx context.Context, actorRole string, users []User) (inserted, updated int, err error)
	ListUsers(ctx context.Context, role string) ([]User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	SetUserRole(ctx context.Context, actorRole, target, role string) error
}
