// Package model contains domain models passed between layers.
package model

import "time"

// Status is the analysis state of a candidate record.
type Status string

// Candidate states. A record leaves pending exactly once.
const (
	StatusPending  Status = "pending"
	StatusAnalyzed Status = "analyzed"
	StatusFailed   Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzed, StatusFailed:
		return true
	}
	return false
}

// Role is a job role profile that resumes are matched against.
type Role struct {
	ID           int64
	Title        string
	Description  string
	Requirements *string
	// Embedding is nil when the role could not be encoded at creation time.
	Embedding      []float64
	EmbeddingModel string
	CreatedAt      time.Time
}

// EmbeddingText is the text a role is encoded from.
func (r Role) EmbeddingText() string {
	text := r.Title + " " + r.Description
	if r.Requirements != nil && *r.Requirements != "" {
		text += " " + *r.Requirements
	}
	return text
}

// RequirementsText returns the requirements or an empty string.
func (r Role) RequirementsText() string {
	if r.Requirements == nil {
		return ""
	}
	return *r.Requirements
}

// Candidate is one submitted resume and its analysis outcome.
//
// MatchScore is nil exactly when ResumeText is nil.
type Candidate struct {
	ID            int64
	RoleID        int64
	Filename      string
	Name          *string
	Email         *string
	ResumeText    *string
	ResumeVector  []float64
	MatchScore    *float64
	Status        Status
	FailureReason *string
	CreatedAt     time.Time
	AnalyzedAt    *time.Time
}

// Analysis is the result written to a candidate in one atomic step.
type Analysis struct {
	ResumeText   string
	ResumeVector []float64
	MatchScore   float64
}

// AnalysisTask is the unit of work placed on the queue for one submission.
type AnalysisTask struct {
	TaskID      string `json:"task_id"`
	CandidateID int64  `json:"candidate_id"`
	// Content is the raw document, base64 encoded.
	Content string `json:"content"`
}

// Suggestion is structured resume feedback for one candidate and role.
type Suggestion struct {
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	Suggestions       []string `json:"suggestions"`
	KeywordsToAdd     []string `json:"keywords_to_add"`
	OverallAssessment string   `json:"overall_assessment"`
	MatchScore        *float64 `json:"match_score"`
	RawResponse       string   `json:"raw_response"`
}
