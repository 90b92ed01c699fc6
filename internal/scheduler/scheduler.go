package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/clawbeat/forge/pkg/pipeline"
)

// Scheduler runs the story pipeline and the repo/event scans on their
// own intervals.
type Scheduler struct {
	pipe        *pipeline.Pipeline
	pipelineInt time.Duration
	repoScanInt time.Duration
}

// New creates a new scheduler.
func New(pipe *pipeline.Pipeline, pipelineInt, repoScanInt time.Duration) *Scheduler {
	if pipelineInt == 0 {
		pipelineInt = 1 * time.Hour
	}
	if repoScanInt == 0 {
		repoScanInt = 24 * time.Hour
	}
	return &Scheduler{
		pipe:        pipe,
		pipelineInt: pipelineInt,
		repoScanInt: repoScanInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	pipelineTicker := time.NewTicker(s.pipelineInt)
	repoTicker := time.NewTicker(s.repoScanInt)
	defer pipelineTicker.Stop()
	defer repoTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial pipeline run...")
	s.runPipeline(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial repo scan...")
	s.runScans(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (pipeline every %s, repo scan every %s)\n",
		s.pipelineInt, s.repoScanInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-pipelineTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: pipeline run...")
			s.runPipeline(ctx)
		case <-repoTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: repo scan...")
			s.runScans(ctx)
		}
	}
}

func (s *Scheduler) runPipeline(ctx context.Context) {
	report, err := s.pipe.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  pipeline error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  %s\n", report)
}

func (s *Scheduler) runScans(ctx context.Context) {
	repos, err := s.pipe.ScanRepos(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  repo scan error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "  repo scan: %d repos\n", repos)
	}

	events, err := s.pipe.ScanEvents(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  event scan error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "  event scan: %d events\n", events)
	}
}
