package client

import "time"

// Config holds settings for the backend adapters.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:5000
	BaseURL string `yaml:"base_url" json:"base_url"`
	// HazardsURL optionally points hazard calls at a separate service; empty means BaseURL
	HazardsURL string `yaml:"hazards_url" json:"hazards_url"`
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// LoginPath is the route handed to the navigator after a 401
	LoginPath string `yaml:"login_path" json:"login_path"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:5000",
		Timeout:   15 * time.Second,
		LoginPath: "/login",
	}
}
