// Package config loads auditor configuration from an optional YAML file,
// environment variables, and a local .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "MCPAUDIT"
	configName      = "config"
	configType      = "yaml"
	defaultBaseURL  = "https://openrouter.ai/api/v1"
	defaultModel    = "anthropic/claude-3.7-sonnet"
	defaultProvider = "openai"
)

// Config carries everything the pipeline needs; credentials never travel
// through ambient lookups inside core logic.
type Config struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	Provider          string  `mapstructure:"provider"`
	Marker            string  `mapstructure:"marker"`
	MaxConcurrency    int     `mapstructure:"max_concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	ReposRoot         string  `mapstructure:"repos_root"`
	ManifestPath      string  `mapstructure:"manifest"`
}

// Load reads configuration with the following precedence: explicit config
// file (or ./config.yaml when present), MCPAUDIT_* environment variables,
// then defaults. A .env file in the working directory is loaded first, and
// the legacy OPENAI_API_KEY / BASE_URL names are honored for compatibility
// with existing deployments.
func Load(configPath string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	// Every key needs a default so viper considers it known when resolving
	// environment overrides during Unmarshal.
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("model", defaultModel)
	v.SetDefault("provider", defaultProvider)
	v.SetDefault("marker", "mcp.tool")
	v.SetDefault("max_concurrency", 10)
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("repos_root", "mcp_repos")
	v.SetDefault("manifest", "repos.csv")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if legacy := os.Getenv("BASE_URL"); legacy != "" && cfg.BaseURL == defaultBaseURL {
		cfg.BaseURL = legacy
	}
	return cfg, nil
}
