// Package analysis runs the resume analysis task: decode, extract, encode,
// score and persist, for one pending candidate record.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/resumatch/internal/adapters/repository"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/extract"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/scoring"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

// Processor executes analysis tasks.
//
// Fatal errors move the record to failed and are returned unwrapped; transient
// errors leave it pending and are returned wrapped with Retriable. A record that
// is no longer pending is left alone and nil is returned.
type Processor struct {
	candidates repository.CandidateStore
	roles      repository.RoleStore
	extractor  extract.Extractor
	encoder    *embedding.Handle
	log        logger.Logger
}

// NewProcessor wires a Processor. encoder must be the same handle used to embed roles.
func NewProcessor(candidates repository.CandidateStore, roles repository.RoleStore, extractor extract.Extractor, encoder *embedding.Handle, opts ...Option) *Processor {
	p := &Processor{
		candidates: candidates,
		roles:      roles,
		extractor:  extractor,
		encoder:    encoder,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one task to completion.
func (p *Processor) Process(ctx context.Context, task model.AnalysisTask) error {
	start := time.Now()
	ctx = logger.WithFields(ctx, logger.Int64("candidate_id", task.CandidateID), logger.String("task_id", task.TaskID))

	cand, err := p.candidates.GetCandidate(ctx, task.CandidateID)
	if errors.Is(err, repository.ErrCandidateNotFound) {
		p.log.Error(ctx, "candidate for task does not exist")
		metrics.RecordAnalysis(metrics.OutcomeFailed)
		return fmt.Errorf("%w: %d", ErrCandidateNotFound, task.CandidateID)
	}
	if err != nil {
		return Retriable(fmt.Errorf("load candidate: %w", err))
	}
	if cand.Status != model.StatusPending {
		p.log.Debug(ctx, "candidate already processed", logger.String("status", string(cand.Status)))
		metrics.RecordAnalysis(metrics.OutcomeDuplicate)
		return nil
	}

	raw, err := DecodeContent(task.Content)
	if err != nil {
		return p.fail(ctx, cand.ID, err)
	}

	stage := time.Now()
	text, err := p.extractor.Extract(ctx, raw)
	metrics.RecordStageLatency("extract", msSince(stage))
	if err != nil {
		if ctx.Err() != nil {
			return Retriable(fmt.Errorf("extract: %w", err))
		}
		return p.fail(ctx, cand.ID, err)
	}

	stage = time.Now()
	vec, err := p.encoder.Encode(ctx, text)
	metrics.RecordStageLatency("embed", msSince(stage))
	if err != nil {
		if encoderTransient(ctx, err) {
			return Retriable(fmt.Errorf("encode resume: %w", err))
		}
		return p.fail(ctx, cand.ID, fmt.Errorf("%w: %w", ErrEncoder, err))
	}

	role, err := p.roles.GetRole(ctx, cand.RoleID)
	if errors.Is(err, repository.ErrRoleNotFound) {
		return p.fail(ctx, cand.ID, fmt.Errorf("%w: %d", ErrRoleNotFound, cand.RoleID))
	}
	if err != nil {
		return Retriable(fmt.Errorf("load role: %w", err))
	}

	score, err := scoring.MatchScore(role.Embedding, vec)
	if err != nil {
		return p.fail(ctx, cand.ID, err)
	}

	stage = time.Now()
	err = p.candidates.MarkAnalyzed(ctx, cand.ID, model.Analysis{
		ResumeText:   text,
		ResumeVector: vec,
		MatchScore:   score,
	})
	metrics.RecordStageLatency("persist", msSince(stage))
	if errors.Is(err, repository.ErrAlreadyAnalyzed) {
		p.log.Info(ctx, "candidate completed by a concurrent delivery")
		metrics.RecordAnalysis(metrics.OutcomeDuplicate)
		return nil
	}
	if err != nil {
		return Retriable(fmt.Errorf("persist analysis: %w", err))
	}

	metrics.RecordAnalysis(metrics.OutcomeAnalyzed)
	metrics.RecordAnalysisLatency(msSince(start))
	p.log.Info(ctx, "resume analyzed",
		logger.Float64("match_score", score),
		logger.Int("text_length", len(text)),
	)
	return nil
}

// fail records cause on the candidate and returns it.
func (p *Processor) fail(ctx context.Context, id int64, cause error) error {
	reason := FailureReason(cause)
	p.log.Error(ctx, "resume analysis failed", logger.String("reason", reason), logger.Error(cause))

	err := p.candidates.MarkFailed(ctx, id, reason)
	switch {
	case err == nil, errors.Is(err, repository.ErrAlreadyAnalyzed):
		metrics.RecordAnalysis(metrics.OutcomeFailed)
		return cause
	default:
		return Retriable(fmt.Errorf("mark candidate failed (%s): %w", reason, err))
	}
}

// encoderTransient reports whether an encode error can clear up on redelivery:
// the backend is unreachable, the handle is closing or never came up, or the
// task itself was cancelled. A vector the encoder did return, empty or not,
// is never an error here.
func encoderTransient(ctx context.Context, err error) bool {
	return errors.Is(err, embedding.ErrUnavailable) ||
		errors.Is(err, embedding.ErrClosed) ||
		errors.Is(err, embedding.ErrInit) ||
		ctx.Err() != nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
