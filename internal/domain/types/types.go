// Package types contains read-side shapes shared by the service and its adapters.
package types

// RankedCandidate is one row of a role's candidate ranking.
type RankedCandidate struct {
	Rank        int      `json:"rank"`
	CandidateID int64    `json:"candidate_id"`
	Filename    string   `json:"filename"`
	Status      string   `json:"status"`
	MatchScore  *float64 `json:"match_score"`
}

// Stats summarises candidate records by status.
type Stats struct {
	Roles     int `json:"roles"`
	Pending   int `json:"pending"`
	Analyzed  int `json:"analyzed"`
	Failed    int `json:"failed"`
	QueueSize int `json:"queue_size"`
}
