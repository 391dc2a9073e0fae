package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/markusmobius/go-trafilatura"

	"github.com/solvari/radar/pkg/config"
	"github.com/solvari/radar/pkg/domain"
)

// Scraper fetches a URL and produces plain-text content for classification.
// Each fetch is preceded by a randomized delay within the configured bounds
// to avoid burst patterns on target sites.
type Scraper struct {
	cfg    config.ScraperConfig
	client *http.Client
}

// New creates a scraper from configuration
func New(cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch retrieves a URL and extracts its text content. The source type tag
// travels with the result so the classifier knows where the text came from.
func (s *Scraper) Fetch(ctx context.Context, urlStr, sourceType string) (*domain.ScrapedContent, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", urlStr)
	}

	// pacing delay before each fetch
	if err := s.pace(ctx); err != nil {
		return nil, err
	}

	lgr.Printf("[DEBUG] fetching %s (source %s)", urlStr, sourceType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	userAgent := s.cfg.UserAgent
	if userAgent == "" {
		userAgent = randomUserAgent()
	}
	req.Header.Set("User-Agent", userAgent)
	addBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for URL %s", resp.StatusCode, urlStr)
	}

	// extract readable text, dropping navigation and boilerplate
	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	}

	result, err := trafilatura.Extract(resp.Body, opts)
	if err != nil {
		return nil, fmt.Errorf("extract content from %s: %w", urlStr, err)
	}
	if result == nil {
		return nil, fmt.Errorf("no content extracted from %s", urlStr)
	}

	text := strings.TrimSpace(result.ContentText)
	if len(text) < s.cfg.MinTextLength {
		return nil, fmt.Errorf("extracted text too short (%d chars) from %s", len(text), urlStr)
	}

	metadata := map[string]string{}
	if result.Metadata.Title != "" {
		metadata["title"] = result.Metadata.Title
	}

	return &domain.ScrapedContent{
		URL:         urlStr,
		TextContent: text,
		SourceType:  sourceType,
		Metadata:    metadata,
		ScrapedAt:   time.Now(),
	}, nil
}

// pace sleeps a random duration between the configured bounds, honoring
// context cancellation
func (s *Scraper) pace(ctx context.Context) error {
	delay := s.cfg.MinDelay
	if span := s.cfg.MaxDelay - s.cfg.MinDelay; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span))) //nolint:gosec // non-cryptographic randomness is fine for pacing
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
