// ABOUTME: Domain-level sentinel errors for the article-enricher service
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import "errors"

// Article-related errors
var (
	// ErrArticleNotFound indicates the requested article does not exist
	ErrArticleNotFound = errors.New("article not found")

	// ErrNoUsableText indicates the article has no text, description or
	// title to analyze. Aborts the whole article's enrichment.
	ErrNoUsableText = errors.New("article has no usable text")
)

// Job-related errors
var (
	// ErrJobNotFound indicates the requested job does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotCancellable indicates the job already reached a terminal state
	ErrJobNotCancellable = errors.New("job is not cancellable")

	// ErrEmptyBatch indicates a batch request carried no article ids
	ErrEmptyBatch = errors.New("batch contains no article ids")
)

// External service errors
var (
	// ErrProviderUnavailable indicates the NLP provider is not reachable
	ErrProviderUnavailable = errors.New("nlp provider unavailable")

	// ErrExtractionFailed indicates the text extraction collaborator failed
	ErrExtractionFailed = errors.New("text extraction failed")
)
