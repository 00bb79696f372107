// Package config reads process configuration from the environment once at
// startup. The resulting Config is treated as immutable for the process
// lifetime.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// DefaultRateLimit is the per-second request quota enforced by the
	// record store for a single API key.
	DefaultRateLimit = 4
	// DefaultMaxRetries bounds rate-limit retries per logical fetch.
	DefaultMaxRetries = 5
)

// Tables holds the record-store table names used by the resolver. The store's
// schema is otherwise opaque; only table names and link-field names are known.
type Tables struct {
	Contacts      string
	Education     string
	Institutions  string
	Initiatives   string
	Cohorts       string
	Participation string
	Teams         string
	Members       string
	Partnerships  string
	Submissions   string
	Milestones    string
	Topics        string
	Classes       string
}

// Config is the full process configuration.
type Config struct {
	APIKey  string
	BaseID  string
	BaseURL string

	RateLimit  int
	MaxRetries int

	Tables Tables

	// Cache daemon endpoints (teacher-style shared cache for short-lived
	// dashboard processes).
	CacheSocket string
	CacheDB     string
}

// FromEnv builds a Config from environment variables. The API key and base id
// are required; everything else has defaults.
func FromEnv() (*Config, error) {
	apiKey := os.Getenv("AIRTABLE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("config: AIRTABLE_API_KEY is required")
	}
	baseID := os.Getenv("AIRTABLE_BASE_ID")
	if baseID == "" {
		return nil, errors.New("config: AIRTABLE_BASE_ID is required")
	}

	cfg := &Config{
		APIKey:     apiKey,
		BaseID:     baseID,
		BaseURL:    envDefault("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
		RateLimit:  envInt("DASHBOARD_RATE_LIMIT", DefaultRateLimit),
		MaxRetries: envInt("DASHBOARD_MAX_RETRIES", DefaultMaxRetries),
		Tables: Tables{
			Contacts:      envDefault("AIRTABLE_CONTACTS_TABLE", "Contacts"),
			Education:     envDefault("AIRTABLE_EDUCATION_TABLE", "Education"),
			Institutions:  envDefault("AIRTABLE_INSTITUTIONS_TABLE", "Institutions"),
			Initiatives:   envDefault("AIRTABLE_INITIATIVES_TABLE", "Initiatives"),
			Cohorts:       envDefault("AIRTABLE_COHORTS_TABLE", "Cohorts"),
			Participation: envDefault("AIRTABLE_PARTICIPATION_TABLE", "Participation"),
			Teams:         envDefault("AIRTABLE_TEAMS_TABLE", "Teams"),
			Members:       envDefault("AIRTABLE_MEMBERS_TABLE", "Members"),
			Partnerships:  envDefault("AIRTABLE_PARTNERSHIPS_TABLE", "Partnerships"),
			Submissions:   envDefault("AIRTABLE_SUBMISSIONS_TABLE", "Submissions"),
			Milestones:    envDefault("AIRTABLE_MILESTONES_TABLE", "Milestones"),
			Topics:        envDefault("AIRTABLE_TOPICS_TABLE", "Topics"),
			Classes:       envDefault("AIRTABLE_CLASSES_TABLE", "Classes"),
		},
		CacheSocket: envDefault("DASHBOARD_CACHE_SOCK", defaultCachePath("cache.sock")),
		CacheDB:     envDefault("DASHBOARD_CACHE_DB", defaultCachePath("cache.bbolt")),
	}
	if cfg.RateLimit < 1 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return cfg, nil
}

func envDefault(key, d string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return d
}

func envInt(key string, d int) int {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func defaultCachePath(name string) string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "dashboard", name)
}
