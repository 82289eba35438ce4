// Package suggest produces resume improvement feedback for a candidate and a
// role. A generative backend is used when one is configured; a keyword based
// analysis covers every other case, so Generate always yields a result.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second

	maxStrengths   = 5
	maxWeaknesses  = 5
	maxSuggestions = 7
)

// Backend sends a prompt pair to a generative model and returns its text reply.
type Backend interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Input carries the role and analyzed resume to compare.
type Input struct {
	Title        string
	Description  string
	Requirements *string
	MatchScore   *float64
	ResumeText   string
}

// Generator builds suggestions.
type Generator struct {
	backend Backend
	timeout time.Duration
	log     logger.Logger
}

// NewGenerator creates a Generator. A nil backend always takes the fallback path.
func NewGenerator(backend Backend, opts ...Option) *Generator {
	g := &Generator{
		backend: backend,
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns suggestions for in. It never fails.
func (g *Generator) Generate(ctx context.Context, in Input) model.Suggestion {
	start := time.Now()
	defer func() {
		metrics.RecordSuggestionLatency(float64(time.Since(start).Milliseconds()))
	}()

	if g.backend != nil {
		s, err := g.primary(ctx, in)
		if err == nil {
			metrics.RecordSuggestion(metrics.PathLLM)
			return s
		}
		g.log.Warn(ctx, "suggestion backend unavailable; using keyword analysis", logger.Error(err))
	}

	metrics.RecordSuggestion(metrics.PathFallback)
	return Fallback(in)
}

func (g *Generator) primary(ctx context.Context, in Input) (s model.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrBackend, r)
		}
	}()

	system, user, err := buildPrompts(in)
	if err != nil {
		return model.Suggestion{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.log.Debug(ctx, "suggestion request", logger.Int("prompt_length", utf8.RuneCountInString(user)))
	raw, err := g.backend.Generate(callCtx, system, user)
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	g.log.Debug(ctx, "suggestion response", logger.Int("response_length", utf8.RuneCountInString(raw)))

	s, err = parseReply(raw)
	if err != nil {
		return model.Suggestion{}, err
	}
	s.MatchScore = in.MatchScore
	s.RawResponse = raw
	return s, nil
}

type reply struct {
	Strengths         *[]string `json:"strengths"`
	Weaknesses        *[]string `json:"weaknesses"`
	Suggestions       *[]string `json:"suggestions"`
	KeywordsToAdd     *[]string `json:"keywords_to_add"`
	OverallAssessment *string   `json:"overall_assessment"`
}

func parseReply(raw string) (model.Suggestion, error) {
	var r reply
	if err := json.Unmarshal([]byte(extractJSON(raw)), &r); err != nil {
		return model.Suggestion{}, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	switch {
	case r.Strengths == nil, r.Weaknesses == nil, r.Suggestions == nil, r.KeywordsToAdd == nil, r.OverallAssessment == nil:
		return model.Suggestion{}, fmt.Errorf("%w: missing field", ErrMalformedReply)
	case strings.TrimSpace(*r.OverallAssessment) == "":
		return model.Suggestion{}, fmt.Errorf("%w: empty overall_assessment", ErrMalformedReply)
	}
	strengths, weaknesses, suggestions := nonBlank(*r.Strengths), nonBlank(*r.Weaknesses), nonBlank(*r.Suggestions)
	switch {
	case len(strengths) == 0:
		return model.Suggestion{}, fmt.Errorf("%w: empty strengths", ErrMalformedReply)
	case len(weaknesses) == 0:
		return model.Suggestion{}, fmt.Errorf("%w: empty weaknesses", ErrMalformedReply)
	case len(suggestions) == 0:
		return model.Suggestion{}, fmt.Errorf("%w: empty suggestions", ErrMalformedReply)
	}
	return model.Suggestion{
		Strengths:         truncate(strengths, maxStrengths),
		Weaknesses:        truncate(weaknesses, maxWeaknesses),
		Suggestions:       truncate(suggestions, maxSuggestions),
		KeywordsToAdd:     *r.KeywordsToAdd,
		OverallAssessment: strings.TrimSpace(*r.OverallAssessment),
	}, nil
}

// extractJSON strips markdown code fences around a reply.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// nonBlank trims every entry and drops the empty ones.
func nonBlank(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
