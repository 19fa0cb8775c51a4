package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"financeqa_agent/pkg/core/llm"
)

// Config selects which model backs the run. Loaded from YAML, e.g.:
//
//	active_provider: gemini
//	providers:
//	  gemini:
//	    model: gemini-2.0-flash-exp
type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	MaxIterations  int                       `yaml:"max_iterations"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Model string `yaml:"model"`
	Host  string `yaml:"host"`
}

// LoadConfig reads a YAML config file. A missing file is not an error: the
// zero Config falls back to Gemini with default settings.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Manager owns the provider instances and routes prompt execution to the
// active one.
type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	gemini := &llm.GeminiProvider{}
	ollama := &llm.OllamaProvider{}
	if pc, ok := config.Providers["gemini"]; ok {
		gemini.Model = pc.Model
	}
	if pc, ok := config.Providers["ollama"]; ok {
		ollama.Model = pc.Model
		ollama.Host = pc.Host
	}
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini": gemini,
			"ollama": ollama,
		},
	}
}

// GetProvider returns the active provider, falling back to Gemini.
func (m *Manager) GetProvider() llm.Provider {
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["gemini"]
}

// MaxIterations returns the tool-loop budget, defaulting to 5.
func (m *Manager) MaxIterations() int {
	if m.config.MaxIterations > 0 {
		return m.config.MaxIterations
	}
	return 5
}
