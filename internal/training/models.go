package training

import "time"

const (
	TestTypePre  = "pre"
	TestTypePost = "post"

	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"

	SourceParticipant = "participant"
	SourceSuperAdmin  = "super_admin"
)

type Program struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	PassPercentage float64 `json:"pass_percentage"` // 0..100
	CreatedAt      int64   `json:"created_at,omitempty"`
}

type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Session struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ProgramID     string   `json:"program_id"`
	CompanyID     string   `json:"company_id"`
	Location      string   `json:"location,omitempty"`
	StartDate     string   `json:"start_date"` // YYYY-MM-DD
	EndDate       string   `json:"end_date"`   // YYYY-MM-DD
	Status        string   `json:"status"`
	TrainerIDs    []string `json:"trainer_ids,omitempty"`
	CoordinatorID string   `json:"coordinator_id,omitempty"`
	CreatedAt     int64    `json:"created_at,omitempty"`
}

// ParticipantRecord is a participant resolved from the users table. ID is
// always set.
type ParticipantRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	IDNumber string `json:"id_number,omitempty"`
}

type Question struct {
	Question      string   `json:"question"`
	Type          string   `json:"type,omitempty"` // mcq_single (default) | true_false
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"` // index into Options
	Points        float64  `json:"points,omitempty"`
}

type Test struct {
	ID        string     `json:"id"`
	ProgramID string     `json:"program_id"`
	TestType  string     `json:"test_type"` // pre|post
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"created_at,omitempty"`
}

// TestSubmission is a completed answer sheet handed to SubmitTestResult.
type TestSubmission struct {
	TestID        string `json:"test_id"`
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Answers       []int  `json:"answers"`
	Source        string `json:"source,omitempty"` // participant|super_admin
}

type TestResult struct {
	ID            string  `json:"id"`
	TestID        string  `json:"test_id"`
	SessionID     string  `json:"session_id"`
	ParticipantID string  `json:"participant_id"`
	TestType      string  `json:"test_type"`
	Answers       []int   `json:"answers"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Correct       int     `json:"correct"`
	Total         int     `json:"total"`
	Percentage    float64 `json:"percentage"`
	Passed        bool    `json:"passed"`
	Source        string  `json:"source"`
	SubmittedAt   int64   `json:"submitted_at"`
}

type AttendanceRecord struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id"`
	ParticipantID string     `json:"participant_id"`
	Date          string     `json:"date"` // YYYY-MM-DD of the clock-in
	ClockIn       *time.Time `json:"clock_in,omitempty"`
	ClockOut      *time.Time `json:"clock_out,omitempty"`
}

type VehicleDetails struct {
	SessionID          string `json:"session_id"`
	ParticipantID      string `json:"participant_id"`
	VehicleModel       string `json:"vehicle_model"`
	RegistrationNumber string `json:"registration_number"`
	RoadtaxExpiry      string `json:"roadtax_expiry"`
	UpdatedAt          int64  `json:"updated_at,omitempty"`
}

type ChecklistTemplate struct {
	ID        string   `json:"id"`
	ProgramID string   `json:"program_id"`
	Items     []string `json:"items"`
}

type ChecklistItem struct {
	Item     string `json:"item"`
	Checked  bool   `json:"checked"`
	ImageURL string `json:"image_url,omitempty"`
}

type ChecklistSubmission struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	ParticipantID string          `json:"participant_id"`
	Interval      string          `json:"interval"` // pre|post
	Items         []ChecklistItem `json:"checklist_items"`
	SubmittedBy   string          `json:"submitted_by,omitempty"`
	SubmittedAt   int64           `json:"submitted_at,omitempty"`
}

type FeedbackQuestion struct {
	Question string `json:"question"`
	Type     string `json:"type,omitempty"` // rating|text
}

type FeedbackTemplate struct {
	ID        string             `json:"id"`
	ProgramID string             `json:"program_id"`
	Questions []FeedbackQuestion `json:"questions"`
}

type FeedbackResponse struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

type FeedbackSubmission struct {
	ID            string             `json:"id"`
	SessionID     string             `json:"session_id"`
	ParticipantID string             `json:"participant_id"`
	Responses     []FeedbackResponse `json:"responses"`
	SubmittedAt   int64              `json:"submitted_at,omitempty"`
}

type ParticipantSummary struct {
	Participant       ParticipantRecord `json:"participant"`
	PreTest           *TestResult       `json:"pre_test,omitempty"`
	PostTest          *TestResult       `json:"post_test,omitempty"`
	FeedbackSubmitted bool              `json:"feedback_submitted"`
}

type ResultsSummary struct {
	Session      Session              `json:"session"`
	Program      Program              `json:"program"`
	Participants []ParticipantSummary `json:"participants"`
}
