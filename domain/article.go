package domain

import (
	"time"
)

// Article represents an article entity. Articles are immutable once
// ingested; this service only derives annotations from them.
type Article struct {
	PublishedAt time.Time `db:"published_at"`
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	FullText    string    `db:"full_text"`
	URL         string    `db:"url"`
	Source      string    `db:"source"`
}

// BestText returns the richest text available for analysis: the extracted
// full text, else the description, else the title.
func (a *Article) BestText() string {
	if a.FullText != "" {
		return a.FullText
	}
	if a.Description != "" {
		return a.Description
	}
	return a.Title
}

// EnrichmentRecord holds the previously persisted enrichment fields for an
// article, used to decide whether enrichment can be skipped.
type EnrichmentRecord struct {
	ArticleID          string  `db:"article_id"`
	FullText           string  `db:"full_text"`
	ReadingTimeMinutes int     `db:"reading_time_minutes"`
	ComplexityScore    float64 `db:"complexity_score"`
}

// CandidateArticle is an article from the recency window annotated with its
// top entities and tags, as consumed by the similarity engine.
type CandidateArticle struct {
	Article  *Article
	Entities []Entity
	Tags     []Tag
}
