// Package config provides configuration file support for DeploySeal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/deployseal/deployseal/pkg/pathutil"
)

// Config is the DeploySeal configuration, loaded from deployseal.yaml.
type Config struct {
	StateDir     string             `yaml:"state_dir"`
	Identity     IdentityConfig     `yaml:"identity"`
	Repositories []RepositoryConfig `yaml:"repositories"`
	Git          GitConfig          `yaml:"git"`
	Audit        AuditConfig        `yaml:"audit"`
	Certificates CertificateConfig  `yaml:"certificates"`
	Backup       BackupConfig       `yaml:"backup"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// IdentityConfig names the issuing machine and the default operator.
type IdentityConfig struct {
	MachineID    string `yaml:"machine_id"`
	OperatorName string `yaml:"operator_name"`
}

// RepositoryConfig describes one tracked source tree.
type RepositoryConfig struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Remote string `yaml:"remote"` // remote name, defaults to origin
}

// GitConfig configures external git invocation.
type GitConfig struct {
	Timeout string `yaml:"timeout"` // per-invocation deadline, e.g. "60s"
}

// AuditConfig configures the hash-chained audit log.
type AuditConfig struct {
	SegmentMaxEntries int    `yaml:"segment_max_entries"`
	SegmentMaxAge     string `yaml:"segment_max_age"` // e.g. "720h"
}

// CertificateConfig configures the deployment-certificate log.
type CertificateConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// BackupConfig configures working-tree exports.
type BackupConfig struct {
	MaxLogEntries    int      `yaml:"max_log_entries"`
	ExcludeDirs      []string `yaml:"exclude_dirs"`
	ExcludeExts      []string `yaml:"exclude_exts"`
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	host, _ := os.Hostname()
	return &Config{
		StateDir: ".deployseal",
		Identity: IdentityConfig{
			MachineID:    host,
			OperatorName: "System",
		},
		Git: GitConfig{
			Timeout: "60s",
		},
		Audit: AuditConfig{
			SegmentMaxEntries: 10000,
			SegmentMaxAge:     "720h",
		},
		Certificates: CertificateConfig{
			MaxEntries: 500,
		},
		Backup: BackupConfig{
			MaxLogEntries: 100,
			ExcludeDirs: []string{
				".git", "bin", "obj", "node_modules", "dist", "build",
				"packages", ".vs", ".deployseal",
			},
			ExcludeExts: []string{
				".exe", ".dll", ".so", ".bin", ".log", ".tmp", ".zip",
			},
			MaxFileSizeBytes: 5 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the given YAML file, falling back to
// defaults when the file does not exist. A .env file next to the config,
// if present, supplies identity overrides (DEPLOYSEAL_MACHINE_ID,
// DEPLOYSEAL_OPERATOR) so shared config files can stay identity-free.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Best effort; absence of a .env file is the normal case.
	godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	if v := os.Getenv("DEPLOYSEAL_MACHINE_ID"); v != "" {
		cfg.Identity.MachineID = v
	}
	if v := os.Getenv("DEPLOYSEAL_OPERATOR"); v != "" {
		cfg.Identity.OperatorName = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks repository names and duration fields.
func (c *Config) Validate() error {
	for _, r := range c.Repositories {
		if err := pathutil.ValidateRepoName(r.Name); err != nil {
			return err
		}
	}
	if _, err := time.ParseDuration(c.Git.Timeout); err != nil {
		return fmt.Errorf("git.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Audit.SegmentMaxAge); err != nil {
		return fmt.Errorf("audit.segment_max_age: %w", err)
	}
	return nil
}

// Repository returns the configuration for a named repository.
func (c *Config) Repository(name string) (RepositoryConfig, bool) {
	for _, r := range c.Repositories {
		if r.Name == name {
			return r, true
		}
	}
	return RepositoryConfig{}, false
}

// GitTimeout returns the parsed per-invocation git deadline.
func (c *Config) GitTimeout() time.Duration {
	d, err := time.ParseDuration(c.Git.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// SegmentMaxAge returns the parsed audit segment age threshold.
func (c *Config) SegmentMaxAge() time.Duration {
	d, err := time.ParseDuration(c.Audit.SegmentMaxAge)
	if err != nil {
		return 720 * time.Hour
	}
	return d
}

// AuditDir returns the directory holding audit segments.
func (c *Config) AuditDir() string {
	return filepath.Join(c.StateDir, "audit")
}

// CertificateLogPath returns the deployment-certificate log path.
func (c *Config) CertificateLogPath() string {
	return filepath.Join(c.StateDir, "certificates.jsonl")
}

// BackupLogPath returns the backup log path.
func (c *Config) BackupLogPath() string {
	return filepath.Join(c.StateDir, "backups.json")
}
