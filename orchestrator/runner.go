package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobConfig configures a recurring background job.
type JobConfig struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool // Run once before the first tick
}

// JobRunner owns the lifecycle of one recurring background job.
type JobRunner struct {
	config JobConfig
	fn     func(ctx context.Context) error
	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobRunner creates a runner for fn. The job does not start until Start.
func NewJobRunner(config JobConfig, fn func(ctx context.Context) error, logger *slog.Logger) *JobRunner {
	return &JobRunner{
		config: config,
		fn:     fn,
		logger: logger,
	}
}

// Start launches the job loop in a goroutine.
func (r *JobRunner) Start(ctx context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(jobCtx)
	}()
}

// Stop cancels the job and waits for the loop to exit.
func (r *JobRunner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *JobRunner) run(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "panic in background job", "job", r.config.Name, "panic", rec)
		}
	}()

	if r.config.RunImmediately {
		r.runOnce(ctx)
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "background job stopped", "job", r.config.Name)
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// runOnce logs failures instead of propagating them; a failed tick never
// stops the job.
func (r *JobRunner) runOnce(ctx context.Context) {
	if err := r.fn(ctx); err != nil {
		r.logger.ErrorContext(ctx, "background job failed", "job", r.config.Name, "error", err)
	}
}

// JobGroup manages a set of job runners sharing one lifecycle context.
type JobGroup struct {
	runners []*JobRunner
	ctx     context.Context
	logger  *slog.Logger
}

// NewJobGroup creates a job group. The provided context is used for every
// runner added via Add.
func NewJobGroup(ctx context.Context, logger *slog.Logger) *JobGroup {
	return &JobGroup{ctx: ctx, logger: logger}
}

// Add registers a runner with the group and starts it immediately.
func (g *JobGroup) Add(runner *JobRunner) {
	g.runners = append(g.runners, runner)
	g.logger.InfoContext(g.ctx, "starting background job", "job", runner.config.Name)
	runner.Start(g.ctx)
}

// StopAll stops every runner and waits for them to finish.
func (g *JobGroup) StopAll() {
	for _, r := range g.runners {
		r.Stop()
	}
}
