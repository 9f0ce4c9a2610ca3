package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/tags"
)

// UserConfig holds user-level configuration loaded from
// ~/.config/taxdiff/config.toml.
type UserConfig struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Storage  StorageConfig  `toml:"storage"`
	Tags     TagsConfig     `toml:"tags"`
	Scanner  ScannerConfig  `toml:"scanner"`
}

// AnalysisConfig holds the comparison tuning.
type AnalysisConfig struct {
	Absent  float64 `toml:"absent"`
	Present float64 `toml:"present"`
	Workers int     `toml:"workers"`
}

// StorageConfig selects the blob backend for taxonomy and tag directories.
type StorageConfig struct {
	Driver            string `toml:"driver"`
	S3Bucket          string `toml:"s3_bucket"`
	S3Region          string `toml:"s3_region"`
	S3Endpoint        string `toml:"s3_endpoint"`
	S3PathStyle       bool   `toml:"s3_path_style"`
	S3AccessKeyID     string `toml:"s3_access_key_id"`
	S3SecretAccessKey string `toml:"s3_secret_access_key"`
}

// TagsConfig selects the tag store backend.
type TagsConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// ScannerConfig selects how tags are extracted from genomes.
type ScannerConfig struct {
	Type  string `toml:"type"`
	Roles string `toml:"roles"`
}

const (
	defaultAbsent      = 0.2
	defaultPresent     = 0.8
	defaultStorage     = string(blob.DriverFilesystem)
	defaultS3Region    = "us-east-1"
	defaultTagDriver   = string(tags.DriverDir)
	defaultScannerType = "role"
	defaultRolesFile   = "roles.in.subsystems"
)

func defaultConfig() *UserConfig {
	return &UserConfig{
		Analysis: AnalysisConfig{Absent: defaultAbsent, Present: defaultPresent},
		Storage:  StorageConfig{Driver: defaultStorage, S3Region: defaultS3Region},
		Tags:     TagsConfig{Driver: defaultTagDriver},
		Scanner:  ScannerConfig{Type: defaultScannerType, Roles: defaultRolesFile},
	}
}

// userConfigPath returns $TAXDIFF_CONFIG, or ~/.config/taxdiff/config.toml.
func userConfigPath() (string, error) {
	if p := os.Getenv("TAXDIFF_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".config", "taxdiff", "config.toml"), nil
}

// loadUserConfig reads the config file at path and returns it with defaults
// applied. If the file does not exist, defaults are returned with no error.
func loadUserConfig(path string) (*UserConfig, error) {
	cfg := defaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Re-apply defaults for empty fields
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaultStorage
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = defaultS3Region
	}
	if cfg.Tags.Driver == "" {
		cfg.Tags.Driver = defaultTagDriver
	}
	if cfg.Scanner.Type == "" {
		cfg.Scanner.Type = defaultScannerType
	}
	if cfg.Scanner.Roles == "" {
		cfg.Scanner.Roles = defaultRolesFile
	}

	return cfg, nil
}

// vars exposes config values as flag defaults.
func (c *UserConfig) vars() kong.Vars {
	return kong.Vars{
		"absent":       strconv.FormatFloat(c.Analysis.Absent, 'g', -1, 64),
		"present":      strconv.FormatFloat(c.Analysis.Present, 'g', -1, 64),
		"workers":      strconv.Itoa(c.Analysis.Workers),
		"scanner_type": c.Scanner.Type,
		"roles":        c.Scanner.Roles,
	}
}

func (c *UserConfig) blobConfig() blob.Config {
	s := c.Storage
	return blob.Config{
		Driver:            blob.Driver(s.Driver),
		S3Bucket:          s.S3Bucket,
		S3Region:          s.S3Region,
		S3Endpoint:        s.S3Endpoint,
		S3PathStyle:       s.S3PathStyle,
		S3AccessKeyID:     s.S3AccessKeyID,
		S3SecretAccessKey: s.S3SecretAccessKey,
	}
}

func (c *UserConfig) tagStoreConfig() tags.StoreConfig {
	return tags.StoreConfig{
		Driver: tags.Driver(c.Tags.Driver),
		DSN:    c.Tags.DSN,
		Blob:   c.blobConfig(),
	}
}
