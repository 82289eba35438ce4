// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateRole(ctx context.Context, title, description string, requirements *string) (model.Role, error)
	GetRole(ctx context.Context, id int64) (model.Role, error)
	ListCandidates(ctx context.Context, roleID int64, limit int) ([]types.RankedCandidate, error)

	// Submit stores a pending candidate and queues its analysis.
	Submit(ctx context.Context, roleID int64, filename string, content []byte) (model.Candidate, error)
	GetCandidate(ctx context.Context, id int64) (model.Candidate, error)
	Suggest(ctx context.Context, candidateID int64) (model.Suggestion, error)

	GetStats(ctx context.Context) (types.Stats, error)
	Started() bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	maxUploadBytes int64
	corsOrigins    []string
	logger         logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns a gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger), MetricsMiddleware())
	if len(s.corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.corsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Content-Type"},
		}))
	}
	s.Register(r)
	return r
}

// OpsHandler returns an engine exposing only the operational routes, for
// processes that run workers without the business API.
func (s *Server) OpsHandler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), MetricsMiddleware())
	s.registerOps(r)
	return r
}

func (s *Server) registerOps(r gin.IRouter) {
	r.GET("/", s.handleRoot)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", handleMetrics)
}

// Register attaches all routes to r.
func (s *Server) Register(r gin.IRouter) {
	s.registerOps(r)

	v1 := r.Group("/api/v1")
	v1.POST("/roles", s.handleCreateRole)
	v1.GET("/roles/:id", s.handleGetRole)
	v1.GET("/roles/:id/candidates", s.handleListCandidates)
	v1.POST("/analyze", s.handleAnalyze)
	v1.GET("/candidates/:id", s.handleGetCandidate)
	v1.GET("/candidates/:id/suggestions", s.handleSuggestions)
	v1.GET("/stats", s.handleStats)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: msg})
}

// fail classifies err and writes it, logging server-side failures.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
	}
	writeError(c, status, code, err)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadRequest
	}
	return id, nil
}
