// Package config loads noteline settings from .noteline.yaml, NOTELINE_*
// environment variables and built-in defaults, in decreasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alexanderramin/noteline/internal/domain"
)

// FileName is the config file looked up in the workspace directory.
const FileName = ".noteline"

// EnvPrefix prefixes every environment override, e.g. NOTELINE_VAULT_ROOT.
const EnvPrefix = "NOTELINE"

type Config struct {
	Vault   VaultConfig
	Notes   NotesConfig
	Sync    SyncConfig
	History HistoryConfig
	DB      DBConfig
	Log     LogConfig
}

type VaultConfig struct {
	Root          string
	ProjectFolder string
}

// NotesConfig holds body templates for new notes. The type-specific template
// wins over Template; an empty result means the default skeleton.
type NotesConfig struct {
	Template          string
	TaskTemplate      string
	MilestoneTemplate string
}

type SyncConfig struct {
	Auto       bool
	DebounceMs int
}

type HistoryConfig struct {
	Author string
}

type DBConfig struct {
	Path string
}

type LogConfig struct {
	Level string
	// File, when set, receives logs through a rotating writer instead of stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Vault:   VaultConfig{Root: ".", ProjectFolder: "Projects"},
		Sync:    SyncConfig{Auto: true, DebounceMs: 300},
		History: HistoryConfig{Author: "user"},
		DB:      DBConfig{Path: defaultDBPath()},
		Log:     LogConfig{Level: "warn", MaxSizeMB: 10, MaxBackups: 3},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".noteline", "noteline.db")
	}
	return filepath.Join(home, ".noteline", "noteline.db")
}

// Load reads dir/.noteline.yaml when present. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("vault.root", cfg.Vault.Root)
	v.SetDefault("vault.project_folder", cfg.Vault.ProjectFolder)
	v.SetDefault("notes.template", cfg.Notes.Template)
	v.SetDefault("notes.task_template", cfg.Notes.TaskTemplate)
	v.SetDefault("notes.milestone_template", cfg.Notes.MilestoneTemplate)
	v.SetDefault("sync.auto", cfg.Sync.Auto)
	v.SetDefault("sync.debounce_ms", cfg.Sync.DebounceMs)
	v.SetDefault("history.author", cfg.History.Author)
	v.SetDefault("db.path", cfg.DB.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading %s.yaml: %w", FileName, err)
		}
	}

	cfg.Vault.Root = v.GetString("vault.root")
	cfg.Vault.ProjectFolder = strings.Trim(v.GetString("vault.project_folder"), "/")
	cfg.Notes.Template = v.GetString("notes.template")
	cfg.Notes.TaskTemplate = v.GetString("notes.task_template")
	cfg.Notes.MilestoneTemplate = v.GetString("notes.milestone_template")
	cfg.Sync.Auto = v.GetBool("sync.auto")
	cfg.Sync.DebounceMs = v.GetInt("sync.debounce_ms")
	cfg.History.Author = v.GetString("history.author")
	cfg.DB.Path = v.GetString("db.path")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")
	cfg.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	cfg.Log.MaxBackups = v.GetInt("log.max_backups")

	// Relative paths in the file are relative to the workspace, not the cwd.
	cfg.Vault.Root = resolvePath(dir, cfg.Vault.Root)
	if cfg.DB.Path != ":memory:" {
		cfg.DB.Path = resolvePath(dir, cfg.DB.Path)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = resolvePath(dir, cfg.Log.File)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Vault.Root) == "" {
		errs = append(errs, fmt.Errorf("vault.root is required"))
	}
	if c.Sync.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("sync.debounce_ms must be >= 0, got %d", c.Sync.DebounceMs))
	}
	if strings.TrimSpace(c.History.Author) == "" {
		errs = append(errs, fmt.Errorf("history.author is required"))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, fmt.Errorf("db.path is required"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c SyncConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// TemplateFor returns the body template for a new note of the given type.
func (c NotesConfig) TemplateFor(t domain.ItemType) string {
	switch t {
	case domain.ItemTask:
		if c.TaskTemplate != "" {
			return c.TaskTemplate
		}
	case domain.ItemMilestone:
		if c.MilestoneTemplate != "" {
			return c.MilestoneTemplate
		}
	}
	return c.Template
}

func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", c.Level)
	}
	return level, nil
}
