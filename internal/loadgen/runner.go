package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/resumatch/pkg/logger"
)

const (
	reportFilePermission = 0o600
	rankingLimit         = 1000
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("resumes", cfg.Resumes),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkHealth(ctx, client); err != nil {
		return stats, err
	}

	roleID, err := createRole(ctx, client)
	if err != nil {
		return stats, err
	}

	resumes, err := GenerateResumes(cfg.Resumes, cfg.Seed)
	if err != nil {
		return stats, fmt.Errorf("generate resumes: %w", err)
	}
	stats.Generated = len(resumes)

	if err := submit(ctx, client, cfg.Workers, roleID, resumes, stats); err != nil {
		return stats, err
	}
	log.Info(ctx, "uploads finished",
		logger.Int("accepted", stats.Accepted),
		logger.Int("throttled", stats.Throttled),
		logger.Int("rejected", stats.Rejected),
	)

	settleStart := time.Now()
	if err := waitSettled(ctx, client, cfg, stats); err != nil {
		return stats, err
	}
	stats.SettleAfter = time.Since(settleStart)

	entries, err := fetchRanking(ctx, client, roleID)
	if err != nil {
		return stats, err
	}
	stats.Ranked = len(entries)
	if len(entries) > 0 && entries[0].MatchScore != nil {
		stats.TopScore = *entries[0].MatchScore
	}
	if err := VerifyRanking(entries); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if cfg.ReportFile != "" {
		if err := writeReport(cfg.ReportFile, stats); err != nil {
			log.Warn(ctx, "failed to write report", logger.Error(err))
		}
	}
	log.Info(ctx, "load run completed",
		logger.Int("analyzed", stats.Analyzed),
		logger.Int("failed", stats.Failed),
		logger.Float64("top_score", stats.TopScore),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

func checkHealth(ctx context.Context, c *HTTPClient) error {
	status, err := c.getJSON(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func createRole(ctx context.Context, c *HTTPClient) (int64, error) {
	reqs := strings.Join(RoleSkills, ", ")
	var role roleResponse
	status, err := c.postJSON(ctx, "/api/v1/roles", map[string]any{
		"title":        "Platform Engineer",
		"description":  "Operate distributed backend services",
		"requirements": reqs,
	}, &role)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRoleCreate, err)
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("%w: status %d", ErrRoleCreate, status)
	}
	return role.ID, nil
}

// submit uploads resumes with at most workers requests in flight.
func submit(ctx context.Context, c *HTTPClient, workers int, roleID int64, resumes []Resume, stats *Stats) error {
	var accepted, throttled, rejected int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, r := range resumes {
		g.Go(func() error {
			var ack analyzeResponse
			status, err := c.upload(gctx, roleID, r, &ack)
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err == nil && status == http.StatusAccepted:
				atomic.AddInt64(&accepted, 1)
			case status == http.StatusTooManyRequests:
				atomic.AddInt64(&throttled, 1)
			default:
				atomic.AddInt64(&rejected, 1)
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Accepted = int(accepted)
	stats.Throttled = int(throttled)
	stats.Rejected = int(rejected)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// waitSettled polls /api/v1/stats until nothing is pending.
func waitSettled(ctx context.Context, c *HTTPClient, cfg Config, stats *Stats) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		var s statsResponse
		if _, err := c.getJSON(ctx, "/api/v1/stats", &s); err == nil {
			stats.Analyzed, stats.Failed, stats.Pending = s.Analyzed, s.Failed, s.Pending
			if s.Pending == 0 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d still pending", ErrNotSettled, stats.Pending)
		case <-ticker.C:
		}
	}
}

func fetchRanking(ctx context.Context, c *HTTPClient, roleID int64) ([]Entry, error) {
	var out rankingResponse
	path := fmt.Sprintf("/api/v1/roles/%d/candidates?limit=%d", roleID, rankingLimit)
	status, err := c.getJSON(ctx, path, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch ranking: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch ranking: status %d", status)
	}
	return out.Candidates, nil
}

func writeReport(path string, stats *Stats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, reportFilePermission); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
