package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/solvari/radar/pkg/config"
	"github.com/solvari/radar/pkg/domain"
)

// maxPromptText caps the profile text interpolated into the prompt
const maxPromptText = 4000

// classificationPrompt is the fixed instruction template, the profile text
// is interpolated once at %s
const classificationPrompt = `Je bent een expert classificatie-AI voor Solvari, een Nederlands platform dat vakmensen koppelt aan huiseigenaren.

Analyseer het volgende profiel en classificeer het volgens het 4-RINGEN SYSTEEM:

## DE 4 RINGEN:

RING 1 - VAKMAN (hoogste prioriteit)
- Gevestigd bedrijf met >5 jaar ervaring
- Heeft KvK-nummer
- Meerdere medewerkers mogelijk
- Professionele website/aanwezigheid
- Reviews en ratings beschikbaar

RING 2 - ZZP'ER (hoge prioriteit)
- Jonge ondernemer (<5 jaar actief)
- Heeft KvK-nummer
- Actief op social media
- Tech-savvy, zoekt groei

RING 3 - HOBBYIST (medium prioriteit)
- Part-timer of starter
- Mogelijk GEEN KvK-nummer
- Actief op Marktplaats/buurtplatforms
- Kleine klussen (<€500)

RING 4 - ACADEMY (niet van toepassing voor externe profielen, alleen intern)

---

## PROFIEL DATA:
%s

---

## INSTRUCTIES:
Analyseer het profiel en geef een JSON response met:
1. "ring": nummer 1-3 (4 is alleen intern)
2. "quality_score": 0-10 gebaseerd op professionaliteit en volledigheid
3. "confidence": 0-1 hoe zeker je bent van de classificatie
4. "reasoning": korte uitleg van je beslissing
5. "extracted_data": alle relevante geëxtraheerde informatie (naam, bedrijfsnaam, locatie, specialisaties, diensten, jaren actief)
6. "recommended_hook": welke hook/aanpak voor deze persoon

Respond ALLEEN met valid JSON.`

// LLMStrategy classifies profiles with an OpenAI-compatible provider
type LLMStrategy struct {
	client *openai.Client
	cfg    config.ProviderConfig
}

// NewLLMStrategy creates a remote classification strategy for one provider
func NewLLMStrategy(cfg config.ProviderConfig) *LLMStrategy {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	return &LLMStrategy{client: openai.NewClientWithConfig(clientConfig), cfg: cfg}
}

// Name returns the configured provider name
func (s *LLMStrategy) Name() string { return s.cfg.Name }

// Classify sends the profile text to the provider and parses the response.
// Transport errors and unparsable responses both fail the strategy, the
// caller falls back to the next one in the chain.
func (s *LLMStrategy) Classify(ctx context.Context, content domain.ScrapedContent) (*domain.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text := truncateOnRune(content.TextContent, maxPromptText)

	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: float32(s.cfg.Temperature),
		MaxTokens:   s.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Je bent een expert classificatie-AI. Respond alleen met valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(classificationPrompt, text),
			},
		},
	}

	if s.cfg.UseJSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from llm")
	}

	result, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	// rule-based fallback knows the source too, remote extraction should
	// not lose it either
	if _, ok := result.ExtractedData["source_url"]; !ok {
		result.ExtractedData["source_url"] = content.URL
	}
	if _, ok := result.ExtractedData["source_type"]; !ok {
		result.ExtractedData["source_type"] = content.SourceType
	}

	return result, nil
}

// truncateOnRune cuts s at limit bytes, backing up so a multi-byte rune is
// never split; Dutch profile text carries é/€ and emoji
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

// llmResult is the expected response shape. Ring is decoded loosely since
// models return it as number or numeric string; score and confidence are
// pointers to distinguish absent fields from zero.
type llmResult struct {
	Ring            any            `json:"ring"`
	QualityScore    *float64       `json:"quality_score"`
	Confidence      *float64       `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	ExtractedData   map[string]any `json:"extracted_data"`
	RecommendedHook string         `json:"recommended_hook"`
}

// parseClassification extracts and validates the JSON object from the raw
// model output. Any shape violation, including an out-of-range ring, is a
// parse failure and triggers fallback rather than passing bad data through.
func parseClassification(content string) (*domain.Classification, error) {
	// models often wrap the JSON in prose, take the outermost object
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("no json object found in response")
	}

	var parsed llmResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse json response: %w", err)
	}

	ring, err := parseRing(parsed.Ring)
	if err != nil {
		return nil, err
	}

	qualityScore := 5.0
	if parsed.QualityScore != nil {
		qualityScore = *parsed.QualityScore
	}
	confidence := 0.8
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "AI classification"
	}

	extracted := parsed.ExtractedData
	if extracted == nil {
		extracted = map[string]any{}
	}

	result := &domain.Classification{
		Ring:            ring,
		QualityScore:    qualityScore,
		Confidence:      confidence,
		Reasoning:       reasoning,
		ExtractedData:   extracted,
		RecommendedHook: parsed.RecommendedHook,
		ClassifiedAt:    time.Now(),
	}
	result.Clamp()
	return result, nil
}

// parseRing coerces the loosely-typed ring value and validates the range.
// Automated classification never produces ring 4, it is reserved for
// internal profiles, so anything outside 1-3 is rejected.
func parseRing(v any) (domain.Ring, error) {
	var n int
	switch val := v.(type) {
	case float64:
		n = int(val)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid ring value %q", val)
		}
		n = parsed
	case nil:
		return 0, fmt.Errorf("missing ring value")
	default:
		return 0, fmt.Errorf("invalid ring type %T", v)
	}

	ring := domain.Ring(n)
	if ring < domain.RingVakman || ring > domain.RingHobbyist {
		return 0, fmt.Errorf("ring value %d out of range", n)
	}
	return ring, nil
}
