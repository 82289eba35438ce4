// Package loadgen drives a running ResuMatch service end to end: it creates a
// role, uploads generated resumes concurrently, waits for the analyses to
// settle and checks the resulting ranking.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Resumes      int           // Number of resumes to generate
	Workers      int           // Number of concurrent uploaders
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between stats polls
	WaitTimeout  time.Duration // Upper bound on waiting for analyses
	ReportFile   string        // Optional JSON report path
	Seed         int64         // Seed for resume generation
}

// Stats holds run statistics.
type Stats struct {
	Generated   int           `json:"generated"`
	Accepted    int           `json:"accepted"`
	Rejected    int           `json:"rejected"`
	Throttled   int           `json:"throttled"`
	Analyzed    int           `json:"analyzed"`
	Failed      int           `json:"failed"`
	Pending     int           `json:"pending"`
	Ranked      int           `json:"ranked"`
	TopScore    float64       `json:"top_score"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	SettleAfter time.Duration `json:"settle_after"`
}

// Resume is one generated upload.
type Resume struct {
	Filename string
	Skills   []string
	Content  []byte
}

type roleResponse struct {
	ID int64 `json:"id"`
}

type analyzeResponse struct {
	CandidateID int64  `json:"candidate_id"`
	Status      string `json:"status"`
}

type statsResponse struct {
	Pending   int `json:"pending"`
	Analyzed  int `json:"analyzed"`
	Failed    int `json:"failed"`
	QueueSize int `json:"queue_size"`
}

// Entry is one row of the ranking endpoint.
type Entry struct {
	Rank        int      `json:"rank"`
	CandidateID int64    `json:"candidate_id"`
	Filename    string   `json:"filename"`
	Status      string   `json:"status"`
	MatchScore  *float64 `json:"match_score"`
}

type rankingResponse struct {
	RoleID     int64   `json:"role_id"`
	Candidates []Entry `json:"candidates"`
}
