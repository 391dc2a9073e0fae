package outreach

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/solvari/radar/pkg/domain"
)

// subjectMarker prefixes the subject line in email templates
const subjectMarker = "Onderwerp:"

// Generator produces personalized outreach messages from classifications.
// It is stateless and safe for concurrent use.
type Generator struct{}

// NewGenerator creates a message generator
func NewGenerator() *Generator { return &Generator{} }

// Generate builds an outreach message for a classified profile. An empty
// channel selects the ring's default; the caller's override takes
// precedence. Generation is total: template lookup degrades instead of
// failing and every token has a hard-coded Dutch default.
func (g *Generator) Generate(profileID int64, classification domain.Classification, channel domain.Channel) domain.OutreachMessage {
	ring := classification.Ring

	if channel == "" {
		channel = ring.DefaultChannel()
	}

	tmpl := lookupTemplate(ring, channel)
	tokens := extractTokens(classification)
	body := personalize(tmpl, tokens)

	// the first template line carries the subject for email
	subject := ""
	if channel == domain.ChannelEmail && strings.Contains(body, subjectMarker) {
		lines := strings.Split(strings.TrimSpace(body), "\n")
		if strings.HasPrefix(lines[0], subjectMarker) {
			subject = strings.TrimSpace(strings.TrimPrefix(lines[0], subjectMarker))
			body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
		}
	}

	lgr.Printf("[INFO] generated %s message for ring %d profile %d", channel, ring, profileID)

	return domain.OutreachMessage{
		ProfileID:    profileID,
		Ring:         ring,
		Channel:      channel,
		TemplateType: fmt.Sprintf("ring_%d_%s", ring, channel),
		Subject:      subject,
		Body:         body,
		Tokens:       tokens,
		GeneratedAt:  time.Now(),
	}
}

// extractTokens builds the personalization token map from extracted data.
// Each token tries its fields in order and falls back to a Dutch default,
// so a rule-based classification with no extraction still personalizes.
func extractTokens(classification domain.Classification) map[string]string {
	data := classification.ExtractedData

	return map[string]string{
		"name":                firstString(data, "daar", "name", "business_name"),
		"business_name":       firstString(data, "uw bedrijf", "business_name", "name"),
		"location":            firstString(data, "uw regio", "location", "region"),
		"specialization":      formatSpecialization(firstValue(data, "specialization", "services")),
		"service_description": firstString(data, "uw diensten", "service_description", "description"),
		"years_active":        firstString(data, "", "years_in_business", "years_active"),
	}
}

// firstValue returns the first present key's value
func firstValue(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first present key's value as a string, or the
// default when none is present
func firstString(data map[string]any, def string, keys ...string) string {
	v := firstValue(data, keys...)
	if v == nil {
		return def
	}
	s := stringify(v)
	if s == "" {
		return def
	}
	return s
}

// formatSpecialization renders the specialization token: two values join as
// "A en B", a single value stands alone, none falls back to the generic
// trade word
func formatSpecialization(v any) string {
	switch spec := v.(type) {
	case []any:
		parts := make([]string, 0, len(spec))
		for _, s := range spec {
			if str := stringify(s); str != "" {
				parts = append(parts, str)
			}
		}
		switch {
		case len(parts) == 0:
			return "vakman"
		case len(parts) == 1:
			return parts[0]
		default:
			return parts[0] + " en " + parts[1]
		}
	case []string:
		switch {
		case len(spec) == 0:
			return "vakman"
		case len(spec) == 1:
			return spec[0]
		default:
			return spec[0] + " en " + spec[1]
		}
	case nil:
		return "vakman"
	default:
		if s := stringify(v); s != "" {
			return s
		}
		return "vakman"
	}
}

// stringify renders extracted JSON values, numbers without a trailing .0
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// personalize substitutes every {token} occurrence with its resolved value.
// Placeholders without a matching token are left as-is, substitution is not
// required to be exhaustive.
func personalize(template string, tokens map[string]string) string {
	result := strings.TrimSpace(template)
	for key, value := range tokens {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}
