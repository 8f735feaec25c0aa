// Package config loads pipeline configuration from environment variables,
// optionally overlaid with a YAML file. Environment variables are the
// primary source; a config file is a convenience for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries everything the pipeline needs to talk to Figma and Spaces.
type Config struct {
	FigmaToken string `yaml:"figma_token"`

	DOAccessKey string `yaml:"do_access_key"`
	DOSecretKey string `yaml:"do_secret_key"`
	DORegion    string `yaml:"do_region"`
	DOSpaceName string `yaml:"do_space_name"`

	LogLevel       string `yaml:"log_level"`
	MaxRetries     int    `yaml:"max_retries"`
	RequestTimeout int    `yaml:"request_timeout"` // seconds
}

// Load reads configuration from the environment, applying defaults for the
// optional settings.
func Load() *Config {
	return &Config{
		FigmaToken:     os.Getenv("FIGMA_API_TOKEN"),
		DOAccessKey:    os.Getenv("DO_ACCESS_KEY"),
		DOSecretKey:    os.Getenv("DO_SECRET_KEY"),
		DORegion:       envOr("DO_REGION", "nyc3"),
		DOSpaceName:    os.Getenv("DO_SPACE_NAME"),
		LogLevel:       envOr("LOG_LEVEL", "INFO"),
		MaxRetries:     envIntOr("MAX_RETRIES", 3),
		RequestTimeout: envIntOr("REQUEST_TIMEOUT", 30),
	}
}

// ApplyFile overlays values from a YAML config file. Only fields set in the
// file override the current values; everything else is left alone.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if overlay.FigmaToken != "" {
		c.FigmaToken = overlay.FigmaToken
	}
	if overlay.DOAccessKey != "" {
		c.DOAccessKey = overlay.DOAccessKey
	}
	if overlay.DOSecretKey != "" {
		c.DOSecretKey = overlay.DOSecretKey
	}
	if overlay.DORegion != "" {
		c.DORegion = overlay.DORegion
	}
	if overlay.DOSpaceName != "" {
		c.DOSpaceName = overlay.DOSpaceName
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.RequestTimeout != 0 {
		c.RequestTimeout = overlay.RequestTimeout
	}

	return nil
}

// Validate reports every missing required setting at once. Upload settings
// are only required when uploading; pass requireUpload accordingly.
func (c *Config) Validate(requireUpload bool) error {
	var missing []string

	if c.FigmaToken == "" {
		missing = append(missing, "FIGMA_API_TOKEN")
	}
	if requireUpload {
		if c.DOAccessKey == "" {
			missing = append(missing, "DO_ACCESS_KEY")
		}
		if c.DOSecretKey == "" {
			missing = append(missing, "DO_SECRET_KEY")
		}
		if c.DOSpaceName == "" {
			missing = append(missing, "DO_SPACE_NAME")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EndpointURL returns the DigitalOcean Spaces endpoint URL for the
// configured region.
func (c *Config) EndpointURL() string {
	return fmt.Sprintf("https://%s.digitaloceanspaces.com", c.DORegion)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
