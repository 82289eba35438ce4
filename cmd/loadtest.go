package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/resumatch/internal/loadgen"
	"github.com/okian/resumatch/pkg/logger"
)

// Default load test constants.
const (
	defaultResumes      = 200
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 500 * time.Millisecond
	defaultWait         = 5 * time.Minute
)

func newLoadTestCmd() *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Upload generated resumes to a running service and verify the ranking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.WaitTimeout+time.Minute)
			defer cancel()

			stats, err := loadgen.Run(ctx, cfg)
			if stats != nil {
				printStats(stats)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8000", "base URL of the service")
	f.IntVar(&cfg.Resumes, "resumes", defaultResumes, "number of resumes to generate and upload")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "concurrent uploads")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.PollInterval, "poll", defaultPollInterval, "stats polling interval")
	f.DurationVar(&cfg.WaitTimeout, "wait", defaultWait, "how long to wait for analyses to settle")
	f.StringVar(&cfg.ReportFile, "report", "", "write a JSON report to this path")
	f.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "seed for resume generation")
	return cmd
}

func printStats(s *loadgen.Stats) {
	fmt.Fprintf(os.Stdout, `Load run summary
  generated: %d
  accepted:  %d (throttled %d, rejected %d)
  analyzed:  %d
  failed:    %d
  pending:   %d
  ranked:    %d (top score %.2f)
  settled:   %s
`, s.Generated, s.Accepted, s.Throttled, s.Rejected, s.Analyzed, s.Failed, s.Pending, s.Ranked, s.TopScore, s.SettleAfter)
}
