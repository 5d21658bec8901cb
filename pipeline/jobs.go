package pipeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"article-enricher/domain"
	"article-enricher/orchestrator"

	"github.com/google/uuid"
)

// jobEntry pairs a job with the cancel function of its run context.
type jobEntry struct {
	job    *domain.EnrichmentJob
	cancel context.CancelFunc
}

// EnrichBatch registers a batch job and starts processing it in the
// background. The returned job is a snapshot; poll GetJob for progress. The
// job runs on its own context so it survives the request that started it.
func (p *Pipeline) EnrichBatch(ctx context.Context, articleIDs []string, cfg domain.EnrichmentConfig) (*domain.EnrichmentJob, error) {
	if len(articleIDs) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	cfg = p.applyDefaults(cfg)

	job := &domain.EnrichmentJob{
		ID:         uuid.New().String(),
		Status:     domain.JobPending,
		ArticleIDs: append([]string(nil), articleIDs...),
		Config:     cfg,
		Progress:   domain.JobProgress{Total: len(articleIDs)},
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	p.mu.Lock()
	p.jobs[job.ID] = &jobEntry{job: job, cancel: cancel}
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "batch job accepted",
		"job_id", job.ID,
		"articles", len(articleIDs),
		"batch_size", cfg.BatchSize)

	go p.runJob(jobCtx, job.ID)

	return p.snapshotJob(job.ID)
}

// runJob processes the job's articles in chunks of the configured batch
// size. All articles within a chunk run concurrently. Cancellation is
// observed only here, between chunks; a chunk that has started runs to
// completion on a context that cannot be cancelled.
func (p *Pipeline) runJob(ctx context.Context, jobID string) {
	cfg, articleIDs, ok := p.startJob(jobID)
	if !ok {
		return
	}

	workCtx := context.WithoutCancel(ctx)

	cancelled := false
	for offset := 0; offset < len(articleIDs); offset += cfg.BatchSize {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		end := offset + cfg.BatchSize
		if end > len(articleIDs) {
			end = len(articleIDs)
		}
		chunk := articleIDs[offset:end]

		orchestrator.FanOut(workCtx, len(chunk), chunk, func(ctx context.Context, articleID string) (*domain.EnrichmentResult, error) {
			result, err := p.enrichOne(ctx, articleID, cfg)
			p.recordArticleOutcome(jobID, articleID, result, err)
			return result, err
		})
	}

	p.finishJob(ctx, jobID, cancelled)
}

// startJob transitions the job to running and returns what the run loop
// needs without holding the lock.
func (p *Pipeline) startJob(jobID string) (domain.EnrichmentConfig, []string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.jobs[jobID]
	if !ok {
		return domain.EnrichmentConfig{}, nil, false
	}

	entry.job.Status = domain.JobRunning
	entry.job.StartedAt = time.Now()
	return entry.job.Config, entry.job.ArticleIDs, true
}

// recordArticleOutcome folds one article result into the job's progress.
func (p *Pipeline) recordArticleOutcome(jobID, articleID string, result *domain.EnrichmentResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.jobs[jobID]
	if !ok {
		return
	}
	job := entry.job

	job.Progress.Completed++
	job.Progress.CurrentArticle = articleID

	switch {
	case err != nil:
		job.Progress.Failed++
		job.Results = append(job.Results, domain.EnrichmentResult{
			ArticleID: articleID,
			Errors:    []string{err.Error()},
		})
	case len(result.Steps) == 0 && len(result.SkippedSteps) > 0:
		job.Progress.Skipped++
		job.Results = append(job.Results, *result)
	case result.Success:
		job.Progress.Succeeded++
		job.Results = append(job.Results, *result)
	default:
		job.Progress.Failed++
		job.Results = append(job.Results, *result)
	}
}

// finishJob moves the job to its terminal state and emits the completion
// event.
func (p *Pipeline) finishJob(ctx context.Context, jobID string, cancelled bool) {
	p.mu.Lock()
	entry, ok := p.jobs[jobID]
	if !ok {
		p.mu.Unlock()
		return
	}
	job := entry.job

	switch {
	case cancelled:
		job.Status = domain.JobCancelled
	case job.Progress.Succeeded == 0 && job.Progress.Skipped == 0 && job.Progress.Failed > 0:
		job.Status = domain.JobFailed
	default:
		job.Status = domain.JobCompleted
	}
	job.CompletedAt = time.Now()
	job.Progress.CurrentArticle = ""
	snapshot := cloneJob(job)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "batch job finished",
		"job_id", jobID,
		"status", snapshot.Status,
		"succeeded", snapshot.Progress.Succeeded,
		"failed", snapshot.Progress.Failed,
		"skipped", snapshot.Progress.Skipped)

	if p.publisher != nil {
		// The job context may already be cancelled; publish on a fresh one.
		p.publisher.JobCompleted(context.WithoutCancel(ctx), snapshot)
	}
}

// GetJob returns a snapshot of the job, or ErrJobNotFound.
func (p *Pipeline) GetJob(jobID string) (*domain.EnrichmentJob, error) {
	return p.snapshotJob(jobID)
}

// CancelJob requests cancellation of a pending or running job. The job
// stops at the next batch boundary; articles already in flight run to
// completion and keep their outcomes.
func (p *Pipeline) CancelJob(jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}

	switch entry.job.Status {
	case domain.JobCompleted, domain.JobFailed, domain.JobCancelled:
		return domain.ErrJobNotCancellable
	}

	entry.cancel()
	p.logger.Info("job cancellation requested", "job_id", jobID)
	return nil
}

// ListJobs returns snapshots of all known jobs, newest first. When
// runningOnly is set, terminal jobs are filtered out.
func (p *Pipeline) ListJobs(runningOnly bool) []*domain.EnrichmentJob {
	p.mu.Lock()
	defer p.mu.Unlock()

	jobs := make([]*domain.EnrichmentJob, 0, len(p.jobs))
	for _, entry := range p.jobs {
		if runningOnly {
			switch entry.job.Status {
			case domain.JobPending, domain.JobRunning:
			default:
				continue
			}
		}
		jobs = append(jobs, cloneJob(entry.job))
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	return jobs
}

// GetStats aggregates per-article outcomes across every job seen by this
// instance.
func (p *Pipeline) GetStats() *domain.PipelineStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := &domain.PipelineStats{
		StepStats: make(map[domain.StepName]domain.StepStat),
	}

	var totalDuration time.Duration
	errorCounts := make(map[string]int)

	for _, entry := range p.jobs {
		for i := range entry.job.Results {
			result := &entry.job.Results[i]
			stats.TotalArticles++
			if result.Success {
				stats.SuccessfulArticles++
			}
			totalDuration += result.TotalDuration

			for _, step := range result.Steps {
				stat := stats.StepStats[step.Name]
				switch step.Status {
				case domain.StepCompleted:
					stat.Completed++
				case domain.StepFailed:
					stat.Failed++
				}
				stats.StepStats[step.Name] = stat
			}

			for _, errText := range result.Errors {
				errorCounts[errText]++
			}
		}
	}

	if stats.TotalArticles > 0 {
		stats.SuccessRate = float64(stats.SuccessfulArticles) / float64(stats.TotalArticles)
		stats.AverageDuration = totalDuration / time.Duration(stats.TotalArticles)
	}

	for name, stat := range stats.StepStats {
		total := stat.Completed + stat.Failed
		if total > 0 {
			stat.Rate = float64(stat.Completed) / float64(total)
		}
		stats.StepStats[name] = stat
	}

	stats.CommonErrors = topErrors(errorCounts, 5)

	return stats
}

func topErrors(counts map[string]int, limit int) []domain.ErrorCount {
	errs := make([]domain.ErrorCount, 0, len(counts))
	for text, count := range counts {
		errs = append(errs, domain.ErrorCount{Error: text, Count: count})
	}
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Count != errs[j].Count {
			return errs[i].Count > errs[j].Count
		}
		return errs[i].Error < errs[j].Error
	})
	if len(errs) > limit {
		errs = errs[:limit]
	}
	return errs
}

func (p *Pipeline) snapshotJob(jobID string) (*domain.EnrichmentJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return cloneJob(entry.job), nil
}

func cloneJob(job *domain.EnrichmentJob) *domain.EnrichmentJob {
	clone := *job
	clone.ArticleIDs = append([]string(nil), job.ArticleIDs...)
	clone.Results = append([]domain.EnrichmentResult(nil), job.Results...)
	return &clone
}

// IsPermanentInputError reports whether enrichment failed because of the
// article itself rather than a transient condition.
func IsPermanentInputError(err error) bool {
	return errors.Is(err, domain.ErrArticleNotFound) || errors.Is(err, domain.ErrNoUsableText)
}
