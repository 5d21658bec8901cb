package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"article-enricher/config"
	"article-enricher/domain"
	"article-enricher/utils/html_parser"
)

// URL scheme constants
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Fallbacks when the extractor config leaves a knob unset.
const (
	defaultMaxBodyBytes = 5 << 20
	defaultUserAgent    = "Mozilla/5.0 (compatible; EnricherBot/1.0)"
)

// HTTPDoer is the minimal HTTP client surface, for dependency injection.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// textExtractorService implementation.
type textExtractorService struct {
	client       HTTPDoer
	logger       *slog.Logger
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
}

// NewTextExtractorService creates a text extractor backed by the given HTTP
// client.
func NewTextExtractorService(client HTTPDoer, cfg *config.ExtractorConfig, logger *slog.Logger) TextExtractorService {
	timeout := 30 * time.Second
	userAgent := defaultUserAgent
	maxBodyBytes := int64(defaultMaxBodyBytes)
	if cfg != nil {
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			userAgent = cfg.UserAgent
		}
		if cfg.MaxBodyBytes > 0 {
			maxBodyBytes = cfg.MaxBodyBytes
		}
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &textExtractorService{
		client:       client,
		logger:       logger,
		timeout:      timeout,
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

// Extract fetches the URL and converts the page into readable plain text.
func (s *textExtractorService) Extract(ctx context.Context, rawURL string) (*ExtractedContent, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to fetch article page", "url", rawURL, "error", err)
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrExtractionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	raw := string(body)
	text := html_parser.ExtractArticleText(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no readable text", domain.ErrExtractionFailed)
	}

	s.logger.InfoContext(ctx, "article text extracted", "url", rawURL, "text_length", len(text))

	return &ExtractedContent{
		Title:   html_parser.ExtractTitle(raw),
		Text:    text,
		Excerpt: excerpt(text, 200),
	}, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != SchemeHTTP && parsed.Scheme != SchemeHTTPS {
		return errors.New("only HTTP or HTTPS schemes allowed")
	}
	if parsed.Hostname() == "" {
		return errors.New("URL must contain a host")
	}
	return nil
}

// excerpt returns the first n characters of text, cut at a word boundary.
func excerpt(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := text[:n]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
