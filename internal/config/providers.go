package config

import "time"

// ProvidersConfig lists the text-generation providers in priority order.
// The chain tries them top to bottom; order in the file is the fallback order.
type ProvidersConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Name    string        `yaml:"name"`
	Type    string        `yaml:"type"` // "gemini" or "openai"
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether the provider has a credential and may be
// attempted at all.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}
