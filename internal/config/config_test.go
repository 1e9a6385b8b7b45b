package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/config"
)

func TestParserConfig_PrimaryConfig_LegacyFallback(t *testing.T) {
	cfg := config.ParserConfig{
		Provider:     "openai",
		APIKey:       "sk-legacy",
		DefaultModel: "gpt-4o-mini",
		TimeoutSecs:  30,
	}

	primary := cfg.PrimaryConfig()

	assert.Equal(t, "openai", primary.Provider)
	assert.Equal(t, "sk-legacy", primary.APIKey)
	assert.Equal(t, "gpt-4o-mini", primary.DefaultModel)
	assert.Equal(t, 30, primary.TimeoutSecs)
}

func TestParserConfig_PrimaryConfig_ExplicitPrimary(t *testing.T) {
	cfg := config.ParserConfig{
		Provider: "legacy-should-be-ignored",
		Primary: config.ParserProviderConfig{
			Provider:     "claude",
			APIKey:       "sk-primary",
			DefaultModel: "claude-sonnet-4-20250514",
		},
	}

	primary := cfg.PrimaryConfig()

	assert.Equal(t, "claude", primary.Provider)
	assert.Equal(t, "sk-primary", primary.APIKey)
}

func TestParserConfig_Providers_Order(t *testing.T) {
	cfg := config.ParserConfig{
		Primary:  config.ParserProviderConfig{Provider: "openai"},
		Tertiary: config.ParserProviderConfig{Provider: "vertex"},
	}

	providers := cfg.Providers()

	require.Len(t, providers, 2)
	assert.Equal(t, "openai", providers[0].Provider)
	assert.Equal(t, "vertex", providers[1].Provider)
	assert.Nil(t, cfg.SecondaryConfig())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 14000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 3, cfg.Parser.Attempts)
	assert.Equal(t, time.Second, cfg.Parser.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Parser.RetryMaxDelay)
	assert.Equal(t, 16000, cfg.Parser.MaxTokens)
	assert.InDelta(t, 0.1, float64(cfg.Parser.Temperature), 1e-6)
	assert.Equal(t, "gpt-4o-mini", cfg.Parser.DefaultModel)
	assert.Equal(t, "document-intelligence", cfg.Layout.Provider)
	assert.Equal(t, "prebuilt-layout", cfg.Layout.ModelID)
	assert.Equal(t, 3, cfg.Store.MaxRetries)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	t.Setenv("AZURE_FORM_RECOGNIZER_ENDPOINT", "https://example.cognitiveservices.azure.com")
	t.Setenv("AZURE_FORM_RECOGNIZER_KEY", "fr-key")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("COSMOS_CONTAINER", "invoices")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.cognitiveservices.azure.com", cfg.Layout.Endpoint)
	assert.Equal(t, "fr-key", cfg.Layout.APIKey)
	assert.Equal(t, "sk-env", cfg.Parser.PrimaryConfig().APIKey)
	assert.Equal(t, "invoices", cfg.Firestore.Collection)
}

func TestLoad_PrefixedNameWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("INVOICEFLOW_PARSER_API_KEY", "sk-prefixed")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-prefixed", cfg.Parser.APIKey)
}

func TestLoad_PortEnv(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestMissingSettings(t *testing.T) {
	cfg := &config.Config{
		Parser:  config.ParserConfig{Provider: "openai"},
		Store:   config.StoreConfig{Backend: "firestore"},
		Archive: config.ArchiveConfig{Backend: "none"},
	}

	missing := cfg.MissingSettings()

	assert.Contains(t, missing, "layout.endpoint (AZURE_FORM_RECOGNIZER_ENDPOINT)")
	assert.Contains(t, missing, "layout.api_key (AZURE_FORM_RECOGNIZER_KEY)")
	assert.Contains(t, missing, "parser provider 1 (openai) api_key")
	assert.Contains(t, missing, "firestore.project_id")
	assert.NotContains(t, missing, "archive.bucket")
}
