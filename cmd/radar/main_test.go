package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solvari/radar/pkg/config"
)

func TestApiKeys(t *testing.T) {
	t.Run("collects configured keys", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.LLM.Providers = []config.ProviderConfig{
			{Name: "a", APIKey: "sk-one"},
			{Name: "b", APIKey: ""},
			{Name: "c", APIKey: "  "},
			{Name: "d", APIKey: "sk-two"},
		}
		assert.Equal(t, []string{"sk-one", "sk-two"}, apiKeys(cfg))
	})

	t.Run("no providers", func(t *testing.T) {
		assert.Empty(t, apiKeys(&config.Config{}))
	})
}

func TestSetupLog(t *testing.T) {
	// must not panic in any combination
	setupLog(false, false)
	setupLog(true, true)
	setupLog(true, false, "secret-key")
}
