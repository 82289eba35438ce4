package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
)

type createRoleRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Requirements *string `json:"requirements"`
}

type roleResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements *string   `json:"requirements"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

type rankingResponse struct {
	RoleID     int64                   `json:"role_id"`
	Candidates []types.RankedCandidate `json:"candidates"`
}

func toRoleResponse(r model.Role) roleResponse {
	return roleResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Requirements: r.Requirements,
		HasEmbedding: r.Embedding != nil,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *Server) handleCreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	role, err := s.deps.CreateRole(c.Request.Context(), req.Title, req.Description, req.Requirements)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRoleResponse(role))
}

func (s *Server) handleGetRole(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	role, err := s.deps.GetRole(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRoleResponse(role))
}

// handleListCandidates returns the ranking; limit=0 selects the service default.
func (s *Server) handleListCandidates(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(c, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
			return
		}
	}
	ranked, err := s.deps.ListCandidates(c.Request.Context(), id, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if ranked == nil {
		ranked = []types.RankedCandidate{}
	}
	writeJSON(c, http.StatusOK, rankingResponse{RoleID: id, Candidates: ranked})
}
