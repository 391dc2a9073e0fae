package classifier

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/solvari/radar/pkg/config"
	"github.com/solvari/radar/pkg/domain"
)

// Strategy is a single classification implementation. Remote strategies may
// fail on transport or parse errors, the rule-based strategy never does.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, content domain.ScrapedContent) (*domain.Classification, error)
}

// Classifier chains strategies in priority order and guarantees a result.
// Remote LLM strategies are tried first, the deterministic rule-based
// strategy is the terminal fallback and cannot fail.
type Classifier struct {
	strategies []Strategy
	rules      *RuleStrategy
}

// New creates a classifier from the LLM configuration. Providers without an
// endpoint or API key are skipped; with no usable providers the classifier
// runs rule-based only.
func New(cfg config.LLMConfig) *Classifier {
	var strategies []Strategy
	for _, p := range cfg.Providers {
		if p.Endpoint == "" && p.APIKey == "" {
			lgr.Printf("[WARN] llm provider %s has no endpoint or api key, skipped", p.Name)
			continue
		}
		strategies = append(strategies, NewLLMStrategy(p))
		lgr.Printf("[INFO] llm provider %s initialized (model %s)", p.Name, p.Model)
	}

	if len(strategies) == 0 {
		lgr.Printf("[WARN] no llm providers available, using rule-based classification only")
	}

	return &Classifier{strategies: strategies, rules: NewRuleStrategy()}
}

// NewWithStrategies creates a classifier with explicit strategies, used in tests
func NewWithStrategies(strategies ...Strategy) *Classifier {
	return &Classifier{strategies: strategies, rules: NewRuleStrategy()}
}

// Classify runs the strategy chain on scraped content. Each strategy failure
// is logged and triggers fallback to the next one; the rule-based terminal
// strategy makes the call total, so no error is ever returned.
func (c *Classifier) Classify(ctx context.Context, content domain.ScrapedContent) domain.Classification {
	for _, s := range c.strategies {
		result, err := s.Classify(ctx, content)
		if err != nil {
			lgr.Printf("[WARN] %s classification failed for %s: %v", s.Name(), content.URL, err)
			continue
		}
		result.Clamp()
		if result.ClassifiedAt.IsZero() {
			result.ClassifiedAt = time.Now()
		}
		lgr.Printf("[DEBUG] classified %s via %s: ring %d, score %.1f", content.URL, s.Name(), result.Ring, result.QualityScore)
		return *result
	}

	result := c.rules.ClassifyRules(content)
	lgr.Printf("[DEBUG] classified %s via rules: ring %d, score %.1f", content.URL, result.Ring, result.QualityScore)
	return result
}
