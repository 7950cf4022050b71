package models

import (
	"time"
)

// Role is a user's role on the platform
type Role string

const (
	RoleHR       Role = "HR"
	RoleMentor   Role = "Mentor"
	RoleIntern   Role = "Intern"
	RoleObserver Role = "Observer"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleHR, RoleMentor, RoleIntern, RoleObserver:
		return true
	}
	return false
}

// TaskStatus values. Done is terminal.
const (
	TaskStatusTodo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
)

// Evaluation types and statuses
const (
	EvaluationTypeMentor = "Mentor"
	EvaluationTypePeer   = "Peer"
	EvaluationTypeSelf   = "Self"

	EvaluationStatusPending   = "Pending"
	EvaluationStatusSubmitted = "Submitted"
)

// User is any platform account. Interns carry an optional GitHub username.
type User struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Role           Role      `json:"role" db:"role"`
	GitHubUsername *string   `json:"githubUsername,omitempty" db:"github_username"`
	MentorID       *string   `json:"mentorId,omitempty" db:"mentor_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// HasGitHub reports whether the user has a non-empty GitHub username
func (u *User) HasGitHub() bool {
	return u.GitHubUsername != nil && *u.GitHubUsername != ""
}

// Project groups milestones; interns are linked as primary intern or members
type Project struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Status          string    `json:"status" db:"status"`
	PrimaryInternID *string   `json:"primaryInternId,omitempty" db:"primary_intern_id"`
	MentorID        *string   `json:"mentorId,omitempty" db:"mentor_id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// Milestone belongs to a project
type Milestone struct {
	ID        string     `json:"id" db:"id"`
	ProjectID string     `json:"projectId" db:"project_id"`
	Title     string     `json:"title" db:"title"`
	DueDate   *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Task belongs to a milestone
type Task struct {
	ID          string    `json:"id" db:"id"`
	MilestoneID string    `json:"milestoneId" db:"milestone_id"`
	Title       string    `json:"title" db:"title"`
	Status      string    `json:"status" db:"status"`
	AssigneeID  *string   `json:"assigneeId,omitempty" db:"assignee_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Evaluation is mentor, peer or self feedback about an intern
type Evaluation struct {
	ID           string     `json:"id" db:"id"`
	InternID     string     `json:"internId" db:"intern_id"`
	EvaluatorID  string     `json:"evaluatorId" db:"evaluator_id"`
	Type         string     `json:"type" db:"type"`
	Status       string     `json:"status" db:"status"`
	Score        *float64   `json:"score,omitempty" db:"score"`
	FeedbackText string     `json:"feedbackText" db:"feedback_text"`
	DueDate      *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// MetricsRecord is one cached contribution snapshot for (intern, repository).
// Rows are append-only; the newest row per pair is the cache entry.
type MetricsRecord struct {
	ID           string    `json:"id" db:"id"`
	InternID     string    `json:"internId" db:"intern_id"`
	Repository   string    `json:"repository" db:"repository"`
	FetchDate    time.Time `json:"fetchDate" db:"fetch_date"`
	CommitCount  int       `json:"commitCount" db:"commit_count"`
	LinesAdded   int       `json:"linesAdded" db:"lines_added"`
	LinesDeleted int       `json:"linesDeleted" db:"lines_deleted"`
	RawResponse  JSONMap   `json:"rawResponse,omitempty" db:"raw_response"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// NlpSummary is a persisted feedback analysis. EvaluationID nil marks the
// per-intern aggregate row, of which there is at most one.
type NlpSummary struct {
	ID             string      `json:"id" db:"id"`
	InternID       string      `json:"internId" db:"intern_id"`
	EvaluationID   *string     `json:"evaluationId,omitempty" db:"evaluation_id"`
	SentimentLabel string      `json:"sentimentLabel" db:"sentiment_label"`
	Keywords       StringArray `json:"keywords" db:"keywords"`
	AnalysisDate   time.Time   `json:"analysisDate" db:"analysis_date"`
	Summary        SummaryJSON `json:"summary" db:"summary_json"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// TopicCount is one entry of a ranked topic list
type TopicCount struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
}

// TimelinePoint is one evaluation's sentiment in chronological order
type TimelinePoint struct {
	Date      time.Time `json:"date"`
	Sentiment string    `json:"sentiment"`
	Score     float64   `json:"score"`
}

// SummaryJSON is the structured payload stored with an NlpSummary.
// overallSentiment/sentimentScore and keywords/keyThemes carry the same
// values under both names; existing consumers read either pair.
type SummaryJSON struct {
	OverallSentiment  string             `json:"overallSentiment"`
	SentimentSummary  string             `json:"sentimentSummary"`
	SentimentTimeline []TimelinePoint    `json:"sentimentTimeline"`
	Keywords          []string           `json:"keywords"`
	Topics            []TopicCount       `json:"topics"`
	Emotions          map[string]float64 `json:"emotions"`
	SentimentScore    string             `json:"sentimentScore"`
	KeyThemes         []string           `json:"keyThemes"`
}
