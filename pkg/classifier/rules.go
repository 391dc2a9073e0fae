package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/solvari/radar/pkg/domain"
)

// recommended hooks per ring, attached by the rule-based strategy
const (
	hookVakman   = "Directe agenda-vulling en Instant Payouts"
	hookZZP      = "Gratis Admin-Bot en Real-time Lead Radar"
	hookHobbyist = "Solvari Starter Programma"
	hookGeneric  = "Algemene Solvari introductie"
)

// RuleStrategy is the deterministic keyword-based classifier. It is total:
// any input text yields a classification, so it serves as the terminal
// fallback when no LLM provider responds.
type RuleStrategy struct{}

// NewRuleStrategy creates the rule-based strategy
func NewRuleStrategy() *RuleStrategy { return &RuleStrategy{} }

// Name returns the strategy name
func (s *RuleStrategy) Name() string { return "rules" }

// ClassifyRules classifies content with keyword heuristics. Indicator sets
// are checked in fixed priority order: vakman signals dominate zzp signals,
// which dominate hobbyist signals, reflecting revenue priority in ambiguous
// cases. Text with no signal at all defaults to ring 2 with low confidence.
func (s *RuleStrategy) ClassifyRules(content domain.ScrapedContent) domain.Classification {
	text := strings.ToLower(content.TextContent)
	score := 5.0
	confidence := 0.7

	vakmanCount := countMatches(text,
		func(t string) bool { return strings.Contains(t, "kvk") && containsDigit(t) },
		func(t string) bool { return strings.Contains(t, "jaar ervaring") || strings.Contains(t, "years experience") },
		func(t string) bool { return strings.Contains(t, "medewerkers") || strings.Contains(t, "employees") },
		func(t string) bool { return strings.Contains(t, "bv") || strings.Contains(t, "b.v.") },
		func(t string) bool { return strings.Contains(t, "reviews") || strings.Contains(t, "★") },
	)

	zzpCount := countMatches(text,
		func(t string) bool { return strings.Contains(t, "zzp") || strings.Contains(t, "freelance") },
		func(t string) bool { return strings.Contains(t, "instagram") || strings.Contains(t, "@") },
		func(t string) bool { return strings.Contains(t, "dm") || strings.Contains(t, "volg") },
		func(t string) bool { return strings.Contains(t, "startend") || strings.Contains(t, "jong") },
	)

	hobbyistCount := countMatches(text,
		func(t string) bool { return strings.Contains(t, "hobby") || strings.Contains(t, "bijverdienste") },
		func(t string) bool { return strings.Contains(t, "buurman") || strings.Contains(t, "buurvrouw") },
		func(t string) bool { return strings.Contains(t, "€") && containsLowRate(t) },
		func(t string) bool { return strings.Contains(t, "marktplaats") || strings.Contains(t, "kleine klussen") },
		func(t string) bool { return strings.Contains(t, "geen kvk") || strings.Contains(t, "zonder kvk") },
	)

	var ring domain.Ring
	var hook string

	switch {
	case vakmanCount >= 2:
		ring = domain.RingVakman
		score = 7.0 + float64(min(vakmanCount, 3))
		hook = hookVakman
	case zzpCount >= 2:
		ring = domain.RingZZP
		score = 6.0 + float64(min(zzpCount, 3))
		hook = hookZZP
	case hobbyistCount >= 1:
		ring = domain.RingHobbyist
		score = 5.0 + float64(min(hobbyistCount, 3))
		hook = hookHobbyist
	default:
		// no signal at all, default to zzp with reduced confidence
		ring = domain.RingZZP
		score = 5.0
		confidence = 0.4
		hook = hookGeneric
	}

	result := domain.Classification{
		Ring:         ring,
		QualityScore: score,
		Confidence:   confidence,
		Reasoning: fmt.Sprintf("Rule-based classification: vakman=%d, zzp=%d, hobbyist=%d",
			vakmanCount, zzpCount, hobbyistCount),
		ExtractedData: map[string]any{
			"source_url":  content.URL,
			"source_type": content.SourceType,
		},
		RecommendedHook: hook,
		ClassifiedAt:    time.Now(),
	}
	result.Clamp()
	return result
}

// Classify implements Strategy, the error is always nil
func (s *RuleStrategy) Classify(_ context.Context, content domain.ScrapedContent) (*domain.Classification, error) {
	result := s.ClassifyRules(content)
	return &result, nil
}

// countMatches counts how many predicates hold for the text
func countMatches(text string, predicates ...func(string) bool) int {
	count := 0
	for _, p := range predicates {
		if p(text) {
			count++
		}
	}
	return count
}

// containsDigit reports whether the text has any digit, used to require an
// actual registration number next to a "kvk" mention
func containsDigit(text string) bool {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// containsLowRate reports whether the text mentions a typical hobbyist
// hourly rate
func containsLowRate(text string) bool {
	for _, rate := range []string{"15", "20", "25"} {
		if strings.Contains(text, rate) {
			return true
		}
	}
	return false
}
