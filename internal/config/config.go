package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds every runtime setting, parsed from the environment.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	DBPath     string `env:"DB_PATH" envDefault:"./nutrichat.db"`

	// LLM_BASE_URL points at the OpenAI-compatible endpoint of the local
	// Ollama server. LLM_MODEL must already be pulled there.
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"http://localhost:11434/v1"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-oss:20b"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
