package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultVersion is reported when no application version is configured.
	DefaultVersion = "1.0.0"

	// DefaultFrameworkVersion names the HTTP framework the binary is built on.
	DefaultFrameworkVersion = "go-chi/chi v5.2.3"
)

type Config struct {
	ListenAddr         string
	ApplicationName    string
	ApplicationVersion string
	FrameworkVersion   string
	CookieSecure       bool
	TrustProxy         bool
	MinifyHTML         bool
	RateLimit          float64
	RateBurst          int
}

// fileConfig mirrors the optional YAML config file.
type fileConfig struct {
	ListenAddr  string `yaml:"listenAddr"`
	Application struct {
		Name             string `yaml:"name"`
		Version          string `yaml:"version"`
		FrameworkVersion string `yaml:"frameworkVersion"`
	} `yaml:"application"`
	MinifyHTML *bool `yaml:"minifyHTML"`
}

func Default() Config {
	return Config{
		ListenAddr:         ":8080",
		ApplicationVersion: DefaultVersion,
		FrameworkVersion:   DefaultFrameworkVersion,
		CookieSecure:       false,
		MinifyHTML:         true,
		RateLimit:          100,
		RateBurst:          200,
	}
}

// Load builds the configuration from defaults, the YAML file at path (if any)
// and finally the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if listen := os.Getenv("LISTEN_ADDR"); listen != "" {
		cfg.ListenAddr = listen
	}

	if name := os.Getenv("APPLICATION_NAME"); name != "" {
		cfg.ApplicationName = name
	}

	if version := os.Getenv("APPLICATION_VERSION"); version != "" {
		cfg.ApplicationVersion = version
	}

	if fw := os.Getenv("FRAMEWORK_VERSION"); fw != "" {
		cfg.FrameworkVersion = fw
	}

	if os.Getenv("COOKIE_SECURE") == "true" {
		cfg.CookieSecure = true
	}

	if os.Getenv("TRUST_PROXY") == "true" {
		cfg.TrustProxy = true
	}

	if os.Getenv("MINIFY_HTML") == "false" {
		cfg.MinifyHTML = false
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q", v)
		}
		cfg.RateLimit = limit
	}

	if v := os.Getenv("RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil || burst <= 0 {
			return nil, fmt.Errorf("invalid RATE_BURST %q", v)
		}
		cfg.RateBurst = burst
	}

	if cfg.ApplicationVersion == "" {
		cfg.ApplicationVersion = DefaultVersion
	}

	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.ListenAddr != "" {
		c.ListenAddr = fc.ListenAddr
	}
	if fc.Application.Name != "" {
		c.ApplicationName = fc.Application.Name
	}
	if fc.Application.Version != "" {
		c.ApplicationVersion = fc.Application.Version
	}
	if fc.Application.FrameworkVersion != "" {
		c.FrameworkVersion = fc.Application.FrameworkVersion
	}
	if fc.MinifyHTML != nil {
		c.MinifyHTML = *fc.MinifyHTML
	}
	return nil
}
