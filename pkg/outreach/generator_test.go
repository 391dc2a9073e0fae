package outreach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solvari/radar/pkg/domain"
)

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()

	t.Run("vakman email with full extraction", func(t *testing.T) {
		classification := domain.Classification{
			Ring:       domain.RingVakman,
			Confidence: 0.9,
			ExtractedData: map[string]any{
				"name":           "Jan de Vries",
				"business_name":  "De Vries Installaties",
				"location":       "Utrecht",
				"specialization": []any{"loodgieterswerk", "cv-installatie"},
			},
		}

		msg := g.Generate(42, classification, "")

		assert.Equal(t, int64(42), msg.ProfileID)
		assert.Equal(t, domain.ChannelEmail, msg.Channel, "vakman defaults to email")
		assert.Equal(t, "ring_1_email", msg.TemplateType)

		// subject comes off the Onderwerp line
		assert.Contains(t, msg.Subject, "De Vries Installaties")
		assert.NotContains(t, msg.Body, "Onderwerp:")

		assert.Contains(t, msg.Body, "Jan de Vries")
		assert.Contains(t, msg.Body, "Utrecht")
		assert.Contains(t, msg.Body, "loodgieterswerk en cv-installatie")
		assert.NotContains(t, msg.Body, "{name}")
		assert.NotContains(t, msg.Body, "{location}")
		assert.NotContains(t, msg.Body, "{specialization}")
	})

	t.Run("zzp defaults to dm", func(t *testing.T) {
		classification := domain.Classification{
			Ring:          domain.RingZZP,
			ExtractedData: map[string]any{"name": "Kees"},
		}

		msg := g.Generate(1, classification, "")
		assert.Equal(t, domain.ChannelDM, msg.Channel)
		assert.Empty(t, msg.Subject, "dm messages have no subject")
		assert.Contains(t, msg.Body, "Kees")
	})

	t.Run("hobbyist defaults to invite", func(t *testing.T) {
		classification := domain.Classification{
			Ring:          domain.RingHobbyist,
			ExtractedData: map[string]any{"name": "Piet"},
		}

		msg := g.Generate(1, classification, "")
		assert.Equal(t, domain.ChannelInvite, msg.Channel)
		assert.Contains(t, msg.Body, "Starter")
	})

	t.Run("caller channel override wins", func(t *testing.T) {
		classification := domain.Classification{Ring: domain.RingZZP, ExtractedData: map[string]any{}}

		msg := g.Generate(1, classification, domain.ChannelEmail)
		assert.Equal(t, domain.ChannelEmail, msg.Channel)
		assert.NotEmpty(t, msg.Subject)
	})

	t.Run("missing channel template degrades to ring email", func(t *testing.T) {
		// vakman has no invite template, the ring email one is used instead
		classification := domain.Classification{Ring: domain.RingVakman, ExtractedData: map[string]any{"name": "Jan"}}

		msg := g.Generate(1, classification, domain.ChannelInvite)
		assert.Equal(t, domain.ChannelInvite, msg.Channel, "requested channel sticks even when the template degrades")
		assert.Contains(t, msg.Body, "agenda")
	})

	t.Run("academy ring falls back to zzp templates", func(t *testing.T) {
		classification := domain.Classification{Ring: domain.RingAcademy, ExtractedData: map[string]any{"name": "Intern"}}

		msg := g.Generate(1, classification, "")
		assert.Equal(t, domain.ChannelEmail, msg.Channel)
		assert.NotEmpty(t, msg.Body)
		assert.Contains(t, msg.Body, "Intern")
	})

	t.Run("no extraction uses dutch defaults", func(t *testing.T) {
		classification := domain.Classification{Ring: domain.RingVakman, ExtractedData: nil}

		msg := g.Generate(1, classification, "")
		assert.Contains(t, msg.Body, "Beste daar")
		assert.Contains(t, msg.Body, "uw regio")
		assert.Contains(t, msg.Subject, "uw bedrijf")
		assert.False(t, strings.Contains(msg.Body, "{"), "no unresolved placeholders for known tokens: %s", msg.Body)
	})

	t.Run("tokens recorded on message", func(t *testing.T) {
		classification := domain.Classification{
			Ring:          domain.RingZZP,
			ExtractedData: map[string]any{"name": "Kees", "location": "Zwolle"},
		}

		msg := g.Generate(1, classification, "")
		assert.Equal(t, "Kees", msg.Tokens["name"])
		assert.Equal(t, "Zwolle", msg.Tokens["location"])
		assert.Equal(t, "Kees", msg.Tokens["business_name"], "business name falls back to personal name")
	})
}

func TestExtractTokens(t *testing.T) {
	t.Run("fallback chains", func(t *testing.T) {
		tokens := extractTokens(domain.Classification{ExtractedData: map[string]any{
			"business_name": "Bouwbedrijf Jansen",
			"region":        "Drenthe",
			"description":   "dakwerk en onderhoud",
		}})

		assert.Equal(t, "Bouwbedrijf Jansen", tokens["name"], "name falls back to business name")
		assert.Equal(t, "Drenthe", tokens["location"], "location falls back to region")
		assert.Equal(t, "dakwerk en onderhoud", tokens["service_description"], "service description falls back to description")
	})

	t.Run("all defaults on empty data", func(t *testing.T) {
		tokens := extractTokens(domain.Classification{})

		assert.Equal(t, "daar", tokens["name"])
		assert.Equal(t, "uw bedrijf", tokens["business_name"])
		assert.Equal(t, "uw regio", tokens["location"])
		assert.Equal(t, "vakman", tokens["specialization"])
		assert.Equal(t, "uw diensten", tokens["service_description"])
		assert.Empty(t, tokens["years_active"])
	})

	t.Run("numeric years rendered without decimal", func(t *testing.T) {
		// JSON numbers decode as float64
		tokens := extractTokens(domain.Classification{ExtractedData: map[string]any{
			"years_in_business": float64(12),
		}})
		assert.Equal(t, "12", tokens["years_active"])
	})
}

func TestFormatSpecialization(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, "vakman"},
		{"empty list", []any{}, "vakman"},
		{"single", []any{"schilderwerk"}, "schilderwerk"},
		{"two joined with en", []any{"schilderwerk", "behangen"}, "schilderwerk en behangen"},
		{"more than two keeps first two", []any{"a", "b", "c"}, "a en b"},
		{"plain string", "timmerwerk", "timmerwerk"},
		{"string slice", []string{"metselwerk", "voegen"}, "metselwerk en voegen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatSpecialization(tt.input))
		})
	}
}

func TestPersonalize(t *testing.T) {
	t.Run("unknown placeholders left alone", func(t *testing.T) {
		result := personalize("Hallo {name}, uw {unknown_token} staat klaar", map[string]string{"name": "Jan"})
		assert.Equal(t, "Hallo Jan, uw {unknown_token} staat klaar", result)
	})

	t.Run("repeated placeholders all replaced", func(t *testing.T) {
		result := personalize("{name} en nogmaals {name}", map[string]string{"name": "Jan"})
		assert.Equal(t, "Jan en nogmaals Jan", result)
	})
}

func TestLookupTemplate(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		tmpl := lookupTemplate(domain.RingZZP, domain.ChannelDM)
		assert.Contains(t, tmpl, "solvari.nl/zzp")
	})

	t.Run("degrades to ring email", func(t *testing.T) {
		tmpl := lookupTemplate(domain.RingVakman, domain.ChannelSMS)
		assert.Contains(t, tmpl, "Onderwerp:")
	})

	t.Run("unknown ring uses zzp set", func(t *testing.T) {
		tmpl := lookupTemplate(domain.Ring(99), domain.ChannelEmail)
		assert.Contains(t, tmpl, "Onderwerp:")
	})
}
