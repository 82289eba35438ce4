package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okian/resumatch/internal/domain/model"
)

type candidateResponse struct {
	ID            int64      `json:"id"`
	RoleID        int64      `json:"role_id"`
	Filename      string     `json:"filename"`
	Name          *string    `json:"name"`
	Email         *string    `json:"email"`
	Status        string     `json:"status"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	MatchScore    *float64   `json:"match_score"`
	ResumeText    *string    `json:"resume_text,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AnalyzedAt    *time.Time `json:"analyzed_at,omitempty"`
}

func toCandidateResponse(c model.Candidate) candidateResponse {
	return candidateResponse{
		ID:            c.ID,
		RoleID:        c.RoleID,
		Filename:      c.Filename,
		Name:          c.Name,
		Email:         c.Email,
		Status:        string(c.Status),
		FailureReason: c.FailureReason,
		MatchScore:    c.MatchScore,
		ResumeText:    c.ResumeText,
		CreatedAt:     c.CreatedAt,
		AnalyzedAt:    c.AnalyzedAt,
	}
}

func (s *Server) handleGetCandidate(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	cand, err := s.deps.GetCandidate(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toCandidateResponse(cand))
}

func (s *Server) handleSuggestions(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	sug, err := s.deps.Suggest(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sug)
}
