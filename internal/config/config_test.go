package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("AIRTABLE_BASE_ID", "")

	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("AIRTABLE_API_KEY", "key")
	_, err = FromEnv()
	require.Error(t, err, "the base id is required too")
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "appBase1")
	t.Setenv("AIRTABLE_BASE_URL", "")
	t.Setenv("DASHBOARD_RATE_LIMIT", "")
	t.Setenv("DASHBOARD_MAX_RETRIES", "")
	t.Setenv("AIRTABLE_COHORTS_TABLE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://api.airtable.com/v0", cfg.BaseURL)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, "Cohorts", cfg.Tables.Cohorts)
	assert.NotEmpty(t, cfg.CacheSocket)
	assert.NotEmpty(t, cfg.CacheDB)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "appBase1")
	t.Setenv("AIRTABLE_BASE_URL", "http://localhost:8080/v0")
	t.Setenv("DASHBOARD_RATE_LIMIT", "9")
	t.Setenv("DASHBOARD_MAX_RETRIES", "2")
	t.Setenv("AIRTABLE_COHORTS_TABLE", "Cohorts2026")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v0", cfg.BaseURL)
	assert.Equal(t, 9, cfg.RateLimit)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "Cohorts2026", cfg.Tables.Cohorts)
}

func TestFromEnvRejectsNonsenseNumbers(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "appBase1")
	t.Setenv("DASHBOARD_RATE_LIMIT", "0")
	t.Setenv("DASHBOARD_MAX_RETRIES", "-3")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
}
