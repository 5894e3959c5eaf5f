// Package config provides the wellmap CLI settings: a JSON file under the
// user config directory, overridden by WELLMAP_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wellmap/internal/plate"
	"wellmap/internal/source"
)

const configFile = "config.json"

// Environment variables read by ApplyEnv.
const (
	EnvSourceDriver = "WELLMAP_SOURCE_DRIVER"
	EnvS3Bucket     = "WELLMAP_S3_BUCKET"
	EnvS3Region     = "WELLMAP_S3_REGION"
	EnvS3Endpoint   = "WELLMAP_S3_ENDPOINT"
	EnvS3PathStyle  = "WELLMAP_S3_PATH_STYLE"
	EnvS3AccessKey  = "WELLMAP_S3_ACCESS_KEY_ID"
	EnvS3SecretKey  = "WELLMAP_S3_SECRET_ACCESS_KEY"
	EnvStoreDSN     = "WELLMAP_STORE_DSN"
)

// Config holds the CLI settings.
type Config struct {
	// SourceDriver is where bare document references are read from: "fs"
	// (default) or "s3", in which case they are keys in S3.Bucket.
	SourceDriver source.Driver   `json:"source_driver,omitempty"`
	S3           source.S3Config `json:"s3"`
	StoreDSN     string          `json:"store_dsn,omitempty"`
	MetricsPath  string          `json:"metrics_path,omitempty"`
	PlateFiles   []string        `json:"plate_files,omitempty"`
	Workers      int             `json:"workers,omitempty"`
	Verbose      bool            `json:"verbose,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SourceDriver: source.DriverFilesystem,
		Workers:      4,
	}
}

// DefaultPath returns ~/.config/wellmap/config.json, honouring XDG_CONFIG_HOME.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "wellmap", configFile)
}

// Load reads settings from path. A missing file yields Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes settings to path, creating its directory.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides settings from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvSourceDriver); v != "" {
		c.SourceDriver = source.Driver(strings.ToLower(v))
	}
	if v := getenv(EnvS3Bucket); v != "" {
		c.S3.Bucket = v
	}
	if v := getenv(EnvS3Region); v != "" {
		c.S3.Region = v
	}
	if v := getenv(EnvS3Endpoint); v != "" {
		c.S3.Endpoint = v
	}
	if v := getenv(EnvS3PathStyle); v != "" {
		c.S3.PathStyle = strings.EqualFold(v, "true")
	}
	if v := getenv(EnvS3AccessKey); v != "" {
		c.S3.AccessKeyID = v
	}
	if v := getenv(EnvS3SecretKey); v != "" {
		c.S3.SecretAccessKey = v
	}
	if v := getenv(EnvStoreDSN); v != "" {
		c.StoreDSN = v
	}
	return c.Validate()
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	switch c.SourceDriver {
	case "", source.DriverFilesystem:
	case source.DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("source driver s3 requires %s", EnvS3Bucket)
		}
	default:
		return fmt.Errorf("unknown source driver %q", c.SourceDriver)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// ParseRef parses a document reference. With the s3 source driver a bare
// reference is a key in the configured bucket.
func (c Config) ParseRef(s string) (source.Ref, error) {
	ref, err := source.ParseRef(s)
	if err != nil {
		return ref, err
	}
	if ref.Driver == source.DriverFilesystem && c.SourceDriver == source.DriverS3 {
		ref = source.Ref{Driver: source.DriverS3, Bucket: c.S3.Bucket, Key: ref.Key}
	}
	return ref, nil
}

// Catalog returns the built-in plate catalog extended with PlateFiles.
func (c Config) Catalog() (*plate.Catalog, error) {
	catalog := plate.DefaultCatalog()
	for _, path := range c.PlateFiles {
		spec, err := plate.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := catalog.Register(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return catalog, nil
}
