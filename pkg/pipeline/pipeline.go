package pipeline

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"

	"github.com/solvari/radar/pkg/domain"
)

// maxStoredText caps the raw text persisted with a profile
const maxStoredText = 5000

// Scraper fetches a URL and returns plain-text content
type Scraper interface {
	Fetch(ctx context.Context, url, sourceType string) (*domain.ScrapedContent, error)
}

// Classifier classifies scraped content, guaranteed total
type Classifier interface {
	Classify(ctx context.Context, content domain.ScrapedContent) domain.Classification
}

// Generator produces a personalized outreach message
type Generator interface {
	Generate(profileID int64, classification domain.Classification, channel domain.Channel) domain.OutreachMessage
}

// Store persists profiles and outreach messages
type Store interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	CreateOutreach(ctx context.Context, msg *domain.OutreachMessage) (int64, error)
}

// Processor drives the scrape -> classify -> personalize pipeline for a
// batch of URLs. Fetches run under a bounded worker pool; classification
// and personalization are local and run as each fetch completes.
type Processor struct {
	scraper    Scraper
	classifier Classifier
	generator  Generator
	store      Store
	maxWorkers int
}

// Config holds processor dependencies and limits
type Config struct {
	Scraper    Scraper
	Classifier Classifier
	Generator  Generator
	Store      Store
	MaxWorkers int
}

// NewProcessor creates a pipeline processor
func NewProcessor(cfg Config) *Processor {
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 3
	}
	return &Processor{
		scraper:    cfg.Scraper,
		classifier: cfg.Classifier,
		generator:  cfg.Generator,
		store:      cfg.Store,
		maxWorkers: cfg.MaxWorkers,
	}
}

// Process runs the pipeline for a batch of URLs and returns one result per
// URL. Results arrive in completion order, each tagged with its URL; a
// failed item never aborts the rest of the batch. When autoOutreach is set
// a personalized message is generated and stored for every classified
// profile.
func (p *Processor) Process(ctx context.Context, urls []string, sourceType string, autoOutreach bool) []domain.Result {
	lgr.Printf("[INFO] starting pipeline for %d urls (source %s)", len(urls), sourceType)

	resultCh := make(chan domain.Result, len(urls))

	// fetch concurrency is capped, downstream stages are cheap and run
	// unbounded as fetches complete
	sem := make(chan struct{}, p.maxWorkers)
	var wg sync.WaitGroup

	for _, u := range urls {
		wg.Add(1)
		go func(urlStr string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				resultCh <- domain.Result{URL: urlStr, Error: ctx.Err().Error()}
				return
			}
			content, err := p.scraper.Fetch(ctx, urlStr, sourceType)
			<-sem

			if err != nil {
				lgr.Printf("[WARN] fetch failed for %s: %v", urlStr, err)
				resultCh <- domain.Result{URL: urlStr, Error: err.Error()}
				return
			}

			resultCh <- p.processItem(ctx, content, autoOutreach)
		}(u)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]domain.Result, 0, len(urls))
	for r := range resultCh {
		results = append(results, r)
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	lgr.Printf("[INFO] pipeline complete: %d/%d successful", succeeded, len(results))

	return results
}

// processItem classifies fetched content, persists the profile and
// optionally generates outreach. Classification itself cannot fail;
// persistence errors fail only this item.
func (p *Processor) processItem(ctx context.Context, content *domain.ScrapedContent, autoOutreach bool) domain.Result {
	result := domain.Result{URL: content.URL}

	classification := p.classifier.Classify(ctx, *content)

	rawText := truncateOnRune(content.TextContent, maxStoredText)

	profile := &domain.Profile{
		SourceURL:       content.URL,
		SourceType:      content.SourceType,
		Name:            extractString(classification.ExtractedData, "name"),
		Location:        extractString(classification.ExtractedData, "location"),
		Specialization:  extractStrings(classification.ExtractedData, "specialization"),
		Ring:            classification.Ring,
		QualityScore:    classification.QualityScore,
		Confidence:      classification.Confidence,
		Reasoning:       classification.Reasoning,
		ExtractedData:   classification.ExtractedData,
		RecommendedHook: classification.RecommendedHook,
		RawText:         rawText,
	}

	if err := p.store.CreateProfile(ctx, profile); err != nil {
		lgr.Printf("[WARN] failed to save profile for %s: %v", content.URL, err)
		result.Error = fmt.Sprintf("save profile: %v", err)
		return result
	}

	result.Success = true
	result.ProfileID = profile.ID
	result.Ring = classification.Ring
	result.RingName = classification.Ring.Name()
	result.QualityScore = classification.QualityScore

	if autoOutreach {
		msg := p.generator.Generate(profile.ID, classification, "")
		if _, err := p.store.CreateOutreach(ctx, &msg); err != nil {
			// profile is saved, losing the message is not a batch failure
			lgr.Printf("[WARN] failed to save outreach for profile %d: %v", profile.ID, err)
		} else {
			result.OutreachChannel = msg.Channel
		}
	}

	lgr.Printf("[DEBUG] processed %s: ring %d, score %.1f", content.URL, result.Ring, result.QualityScore)
	return result
}

// truncateOnRune cuts s at limit bytes without splitting a multi-byte rune,
// keeping the stored text valid UTF-8
func truncateOnRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// extractString pulls a string field from extracted data
func extractString(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// extractStrings pulls a string list field from extracted data, accepting
// both a single string and a JSON array
func extractStrings(data map[string]any, key string) []string {
	v, ok := data[key]
	if !ok || v == nil {
		return nil
	}

	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
