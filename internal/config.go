package internal

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/api"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/cache"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/probe"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/ytdlp"
)

// PrimeConfig is the struct used to contain the various user config
// supplied by file or environment.
type PrimeConfig struct {
	Rest      api.RestConfig `yaml:"rest"`
	Extractor ytdlp.Config   `yaml:"extractor"`
	Probe     probe.Config   `yaml:"probe"`
	Cache     cache.Config   `yaml:"cache"`
	APIKey    string         `yaml:"api_key" env:"API_KEY"`
	CORS      string         `yaml:"cors_origins" env:"CORS_ORIGINS"`
	RateLimit float64        `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" env-default:"0"`
}

// LoadFromFile loads a YAML-formatted configuration file in to a
// PrimeConfig struct, allowing environment variables to override
// any file-provided values.
func (config *PrimeConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from %s - %v", configPath, err.Error())
	}

	return nil
}

// LoadFromEnv populates the config from environment variables only,
// used when no config file is present on disk.
func (config *PrimeConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment - %v", err.Error())
	}

	return nil
}

// AllowedOrigins splits the comma-separated CORS origin list. An empty
// list, or a list containing "*", allows all origins.
func (config *PrimeConfig) AllowedOrigins() []string {
	if config.CORS == "" {
		return []string{"*"}
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(config.CORS, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			return []string{"*"}
		}

		origins = append(origins, trimmed)
	}

	if len(origins) == 0 {
		return []string{"*"}
	}

	return origins
}
