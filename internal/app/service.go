// Package service wires the analysis pipeline and exposes the operations used
// by the HTTP API and the worker command.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/resumatch/internal/adapters/mq/queue"
	"github.com/okian/resumatch/internal/adapters/mq/worker"
	"github.com/okian/resumatch/internal/adapters/repository"
	"github.com/okian/resumatch/internal/domain/analysis"
	"github.com/okian/resumatch/internal/domain/dedupe"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/extract"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/suggest"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

const (
	// DefaultListLimit applies when a ranking is requested without a limit.
	DefaultListLimit = 100
	// MaxListLimit caps a single ranking page.
	MaxListLimit = 1000

	// ReasonQueueUnavailable marks records whose task could not be enqueued.
	ReasonQueueUnavailable = "queue_unavailable"
)

// Service implements the API dependencies for resume matching.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	queue     queue.Queue
	encoder   *embedding.Handle
	extractor extract.Extractor
	backend   suggest.Backend
	generator *suggest.Generator
	pool      *worker.Pool

	// Configuration
	workerCount    int
	runWorkers     bool
	queueSize      int
	maxAttempts    int
	dedupeSize     int
	suggestTimeout time.Duration

	started bool

	logger logger.Logger
}

// New constructs a Service. Components not supplied through options are
// created with in-process defaults on Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		runWorkers:     true,
		queueSize:      1_000,
		maxAttempts:    3,
		dedupeSize:     100_000,
		suggestTimeout: 30 * time.Second,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes missing components and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.queue == nil {
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize), queue.WithLogger(s.logger.Named("queue")))
	}
	if s.encoder == nil {
		s.encoder = embedding.Static(embedding.NewHashingEncoder(0))
	}
	if s.extractor == nil {
		s.extractor = extract.New()
	}
	s.generator = suggest.NewGenerator(s.backend,
		suggest.WithTimeout(s.suggestTimeout),
		suggest.WithLogger(s.logger.Named("suggest")),
	)

	if s.runWorkers {
		proc := analysis.NewProcessor(s.store, s.store, s.extractor, s.encoder,
			analysis.WithLogger(s.logger.Named("analysis")),
		)
		s.pool = worker.NewPool(s.workerCount, s.queue, proc,
			worker.WithPoolLogger(s.logger.Named("worker")),
			worker.WithPoolDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
			worker.WithPoolMaxAttempts(s.maxAttempts),
		)
		if err := s.pool.Start(ctx); err != nil {
			return fmt.Errorf("start workers: %w", err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "resume matching service started",
		logger.Bool("workers", s.runWorkers),
		logger.Int("worker_count", s.workerCount),
		logger.Int("max_attempts", s.maxAttempts),
		logger.Bool("llm", s.backend != nil),
	)
	return nil
}

// Stop shuts down workers and releases every component.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping resume matching service...")

	var errs []error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("workers: %w", err))
		}
	}
	if err := s.queue.Close(); err != nil {
		errs = append(errs, fmt.Errorf("queue: %w", err))
	}
	if err := s.encoder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("encoder: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "resume matching service stopped")
	return errors.Join(errs...)
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) ready() error {
	if !s.Started() {
		return ErrNotStarted
	}
	return nil
}

// CreateRole validates and stores a role profile together with its embedding.
// A role that cannot be encoded is stored without one; its candidates score 0.
func (s *Service) CreateRole(ctx context.Context, title, description string, requirements *string) (model.Role, error) {
	if err := s.ready(); err != nil {
		return model.Role{}, err
	}
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	switch {
	case title == "":
		return model.Role{}, fmt.Errorf("%w: missing title", ErrInvalidInput)
	case description == "":
		return model.Role{}, fmt.Errorf("%w: missing description", ErrInvalidInput)
	}
	if requirements != nil && strings.TrimSpace(*requirements) == "" {
		requirements = nil
	}

	role := model.Role{Title: title, Description: description, Requirements: requirements}
	enc, err := s.encoder.Get(ctx)
	if err == nil {
		role.Embedding, err = enc.Encode(ctx, role.EmbeddingText())
		role.EmbeddingModel = enc.Name()
	}
	if err != nil {
		s.logger.Warn(ctx, "role stored without embedding", logger.String("title", title), logger.Error(err))
		role.Embedding, role.EmbeddingModel = nil, ""
	}

	role, err = s.store.CreateRole(ctx, role)
	if err != nil {
		return model.Role{}, fmt.Errorf("create role: %w", err)
	}
	metrics.RecordRoleCreated()
	s.logger.Info(ctx, "role created", logger.Int64("role_id", role.ID))
	return role, nil
}

// GetRole returns a role profile.
func (s *Service) GetRole(ctx context.Context, id int64) (model.Role, error) {
	if err := s.ready(); err != nil {
		return model.Role{}, err
	}
	return s.store.GetRole(ctx, id)
}

// Submit records a pending candidate for roleID and schedules its analysis.
// It returns as soon as the task is queued.
func (s *Service) Submit(ctx context.Context, roleID int64, filename string, content []byte) (model.Candidate, error) {
	if err := s.ready(); err != nil {
		return model.Candidate{}, err
	}
	if len(content) == 0 {
		return model.Candidate{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if strings.TrimSpace(filename) == "" {
		return model.Candidate{}, fmt.Errorf("%w: missing filename", ErrInvalidInput)
	}
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return model.Candidate{}, err
	}

	cand, err := s.store.CreatePending(ctx, roleID, filename)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("create candidate: %w", err)
	}

	task := model.AnalysisTask{
		TaskID:      uuid.NewString(),
		CandidateID: cand.ID,
		Content:     analysis.EncodeContent(content),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.logger.Error(ctx, "failed to enqueue analysis task",
			logger.Int64("candidate_id", cand.ID),
			logger.Error(err),
		)
		if markErr := s.store.MarkFailed(context.WithoutCancel(ctx), cand.ID, ReasonQueueUnavailable); markErr != nil {
			s.logger.Error(ctx, "failed to mark candidate", logger.Int64("candidate_id", cand.ID), logger.Error(markErr))
		}
		return model.Candidate{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}

	metrics.RecordSubmission()
	s.logger.Info(ctx, "resume submitted",
		logger.Int64("candidate_id", cand.ID),
		logger.Int64("role_id", roleID),
		logger.String("task_id", task.TaskID),
		logger.Int("bytes", len(content)),
	)
	return cand, nil
}

// GetCandidate returns a candidate record in whatever state it is in.
func (s *Service) GetCandidate(ctx context.Context, id int64) (model.Candidate, error) {
	if err := s.ready(); err != nil {
		return model.Candidate{}, err
	}
	return s.store.GetCandidate(ctx, id)
}

// ListCandidates ranks the candidates of a role. limit <= 0 means DefaultListLimit.
func (s *Service) ListCandidates(ctx context.Context, roleID int64, limit int) ([]types.RankedCandidate, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidInput, MaxListLimit)
	}
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}

	cands, err := s.store.ListByRole(ctx, roleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	out := make([]types.RankedCandidate, len(cands))
	for i, c := range cands {
		out[i] = types.RankedCandidate{
			Rank:        i + 1,
			CandidateID: c.ID,
			Filename:    c.Filename,
			Status:      string(c.Status),
			MatchScore:  c.MatchScore,
		}
	}
	return out, nil
}

// Suggest produces improvement suggestions for an analyzed candidate.
func (s *Service) Suggest(ctx context.Context, candidateID int64) (model.Suggestion, error) {
	if err := s.ready(); err != nil {
		return model.Suggestion{}, err
	}
	cand, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return model.Suggestion{}, err
	}
	switch cand.Status {
	case model.StatusPending:
		return model.Suggestion{}, ErrResumeNotProcessed
	case model.StatusFailed:
		reason := ""
		if cand.FailureReason != nil {
			reason = *cand.FailureReason
		}
		return model.Suggestion{}, fmt.Errorf("%w: %s", ErrAnalysisFailed, reason)
	}

	role, err := s.store.GetRole(ctx, cand.RoleID)
	if err != nil {
		return model.Suggestion{}, err
	}

	text := ""
	if cand.ResumeText != nil {
		text = *cand.ResumeText
	}
	return s.generator.Generate(ctx, suggest.Input{
		Title:        role.Title,
		Description:  role.Description,
		Requirements: role.Requirements,
		MatchScore:   cand.MatchScore,
		ResumeText:   text,
	}), nil
}

// GetStats returns record counts for monitoring and refreshes the gauges.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	if err := s.ready(); err != nil {
		return types.Stats{}, err
	}
	roles, err := s.store.CountRoles(ctx)
	if err != nil {
		return types.Stats{}, fmt.Errorf("count roles: %w", err)
	}
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return types.Stats{}, fmt.Errorf("count candidates: %w", err)
	}

	stats := types.Stats{
		Roles:     roles,
		Pending:   counts[model.StatusPending],
		Analyzed:  counts[model.StatusAnalyzed],
		Failed:    counts[model.StatusFailed],
		QueueSize: s.queue.Len(ctx),
	}
	metrics.UpdateQueueSize(stats.QueueSize)
	metrics.UpdateCandidates(string(model.StatusPending), stats.Pending)
	metrics.UpdateCandidates(string(model.StatusAnalyzed), stats.Analyzed)
	metrics.UpdateCandidates(string(model.StatusFailed), stats.Failed)
	return stats, nil
}
