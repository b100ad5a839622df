// Package config loads client settings from JSON files and the environment.
// File values are a base; environment variables overlay them so deployments
// can override a checked-in settings file without editing it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/routerkit/routerkit-go/pkg/openrouter"
)

// Environment variables recognized by FromEnv.
const (
	EnvAPIKey         = "OPENROUTER_API_KEY"
	EnvBaseURL        = "OPENROUTER_BASE_URL"
	EnvModel          = "OPENROUTER_MODEL"
	EnvFallbackModels = "OPENROUTER_FALLBACK_MODELS" // comma separated
	EnvReferer        = "OPENROUTER_REFERER"
	EnvTitle          = "OPENROUTER_TITLE"
	EnvMaxToolDepth   = "OPENROUTER_MAX_TOOL_DEPTH"
	EnvTimeoutSeconds = "OPENROUTER_TIMEOUT_SECONDS"
	EnvRetryMax       = "OPENROUTER_RETRY_MAX"
)

// Settings is the serializable client configuration.
type Settings struct {
	APIKey           string   `json:"api_key,omitempty"`
	BaseURL          string   `json:"base_url,omitempty"`
	Model            string   `json:"model,omitempty"`
	FallbackModels   []string `json:"fallback_models,omitempty"`
	Referer          string   `json:"referer,omitempty"`
	Title            string   `json:"title,omitempty"`
	MaxToolCallDepth int      `json:"max_tool_call_depth,omitempty"`
	TimeoutSeconds   int      `json:"timeout_seconds,omitempty"`
	RetryMax         int      `json:"retry_max,omitempty"`
}

// LoadFile reads settings from a JSON file. A missing file is not an error;
// it yields empty settings so the env overlay still applies.
func LoadFile(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// FromEnv builds settings from the process environment.
func FromEnv() Settings {
	s := Settings{
		APIKey:  strings.TrimSpace(os.Getenv(EnvAPIKey)),
		BaseURL: strings.TrimSpace(os.Getenv(EnvBaseURL)),
		Model:   strings.TrimSpace(os.Getenv(EnvModel)),
		Referer: strings.TrimSpace(os.Getenv(EnvReferer)),
		Title:   strings.TrimSpace(os.Getenv(EnvTitle)),
	}
	if raw := strings.TrimSpace(os.Getenv(EnvFallbackModels)); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(m); trimmed != "" {
				s.FallbackModels = append(s.FallbackModels, trimmed)
			}
		}
	}
	s.MaxToolCallDepth = envInt(EnvMaxToolDepth)
	s.TimeoutSeconds = envInt(EnvTimeoutSeconds)
	s.RetryMax = envInt(EnvRetryMax)
	return s
}

// Load combines a settings file with the environment overlay.
func Load(path string) (Settings, error) {
	base, err := LoadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return base.Merge(FromEnv()), nil
}

// Merge overlays other on top of s; non-zero fields of other win.
func (s Settings) Merge(other Settings) Settings {
	if other.APIKey != "" {
		s.APIKey = other.APIKey
	}
	if other.BaseURL != "" {
		s.BaseURL = other.BaseURL
	}
	if other.Model != "" {
		s.Model = other.Model
	}
	if len(other.FallbackModels) > 0 {
		s.FallbackModels = append([]string(nil), other.FallbackModels...)
	}
	if other.Referer != "" {
		s.Referer = other.Referer
	}
	if other.Title != "" {
		s.Title = other.Title
	}
	if other.MaxToolCallDepth != 0 {
		s.MaxToolCallDepth = other.MaxToolCallDepth
	}
	if other.TimeoutSeconds != 0 {
		s.TimeoutSeconds = other.TimeoutSeconds
	}
	if other.RetryMax != 0 {
		s.RetryMax = other.RetryMax
	}
	return s
}

// TransportConfig projects the settings onto the HTTP transport.
func (s Settings) TransportConfig() openrouter.TransportConfig {
	return openrouter.TransportConfig{
		APIKey:   s.APIKey,
		BaseURL:  s.BaseURL,
		Referer:  s.Referer,
		Title:    s.Title,
		RetryMax: s.RetryMax,
		Timeout:  time.Duration(s.TimeoutSeconds) * time.Second,
	}
}

func envInt(key string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
