package domain

import (
	"time"
)

// StepName identifies one step of the enrichment sequence.
type StepName string

// Enrichment steps, in execution order. Related articles always runs last
// so it can use the results of earlier steps.
const (
	StepTextExtraction   StepName = "text_extraction"
	StepEntityExtraction StepName = "entity_extraction"
	StepTagGeneration    StepName = "tag_generation"
	StepContentAnalysis  StepName = "content_analysis"
	StepQuoteExtraction  StepName = "quote_extraction"
	StepStanceAnalysis   StepName = "stance_analysis"
	StepRelatedArticles  StepName = "related_articles"
)

// StepOrder is the fixed execution order of enrichment steps.
var StepOrder = []StepName{
	StepTextExtraction,
	StepEntityExtraction,
	StepTagGeneration,
	StepContentAnalysis,
	StepQuoteExtraction,
	StepStanceAnalysis,
	StepRelatedArticles,
}

// StepStatus is the lifecycle state of a single step run.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// JobStatus is the lifecycle state of a batch enrichment job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// EnrichmentConfig controls which steps run and how failures are handled.
// It is passed by value per run and never mutated in place.
type EnrichmentConfig struct {
	ExtractText      bool          `json:"extract_text"`
	ExtractEntities  bool          `json:"extract_entities"`
	GenerateTags     bool          `json:"generate_tags"`
	AnalyzeContent   bool          `json:"analyze_content"`
	ExtractQuotes    bool          `json:"extract_quotes"`
	AnalyzeStance    bool          `json:"analyze_stance"`
	FindRelated      bool          `json:"find_related"`
	SkipEnriched     bool          `json:"skip_enriched"`
	BatchSize        int           `json:"batch_size"`
	MaxRetries       int           `json:"max_retries"`
	StepTimeout      time.Duration `json:"step_timeout"`
}

// StepEnabled reports whether the named step is switched on in this config.
func (c EnrichmentConfig) StepEnabled(name StepName) bool {
	switch name {
	case StepTextExtraction:
		return c.ExtractText
	case StepEntityExtraction:
		return c.ExtractEntities
	case StepTagGeneration:
		return c.GenerateTags
	case StepContentAnalysis:
		return c.AnalyzeContent
	case StepQuoteExtraction:
		return c.ExtractQuotes
	case StepStanceAnalysis:
		return c.AnalyzeStance
	case StepRelatedArticles:
		return c.FindRelated
	default:
		return false
	}
}

// EnrichmentStep records one step run for one article. Created at step
// start, finalized at step end, never reused.
type EnrichmentStep struct {
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Name      StepName      `json:"name"`
	Status    StepStatus    `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Result    any           `json:"result,omitempty"`
}

// EnrichmentResult is the per-article outcome of one pipeline invocation.
type EnrichmentResult struct {
	ArticleID     string           `json:"article_id"`
	Success       bool             `json:"success"`
	TotalDuration time.Duration    `json:"total_duration"`
	Steps         []EnrichmentStep `json:"steps"`
	Errors        []string         `json:"errors"`
	SkippedSteps  []StepName       `json:"skipped_steps"`
}

// CompletedSteps returns the names of steps that finished successfully.
func (r *EnrichmentResult) CompletedSteps() []StepName {
	var names []StepName
	for _, s := range r.Steps {
		if s.Status == StepCompleted {
			names = append(names, s.Name)
		}
	}
	return names
}

// FailedSteps returns the names of steps that failed after retries.
func (r *EnrichmentResult) FailedSteps() []StepName {
	var names []StepName
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			names = append(names, s.Name)
		}
	}
	return names
}

// JobProgress tracks completion of a batch job.
type JobProgress struct {
	CurrentArticle string `json:"current_article"`
	Completed      int    `json:"completed"`
	Succeeded      int    `json:"succeeded"`
	Failed         int    `json:"failed"`
	Skipped        int    `json:"skipped"`
	Total          int    `json:"total"`
}

// EnrichmentJob is a batch enrichment run. Jobs live in the pipeline's
// in-memory registry for the duration of the run.
type EnrichmentJob struct {
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at,omitzero"`
	ID          string             `json:"id"`
	Status      JobStatus          `json:"status"`
	Error       string             `json:"error,omitempty"`
	ArticleIDs  []string           `json:"article_ids"`
	Config      EnrichmentConfig   `json:"config"`
	Progress    JobProgress        `json:"progress"`
	Results     []EnrichmentResult `json:"results"`
}

// StepStat aggregates outcomes for one step name across results.
type StepStat struct {
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Rate      float64 `json:"rate"`
}

// ErrorCount pairs an error message with how often it occurred.
type ErrorCount struct {
	Error string `json:"error"`
	Count int    `json:"count"`
}

// PipelineStats is the aggregate view exposed by the orchestrator API.
type PipelineStats struct {
	TotalArticles      int                   `json:"total_articles"`
	SuccessfulArticles int                   `json:"successful_articles"`
	SuccessRate        float64               `json:"success_rate"`
	AverageDuration    time.Duration         `json:"average_duration"`
	StepStats          map[StepName]StepStat `json:"step_stats"`
	CommonErrors       []ErrorCount          `json:"common_errors"`
}
