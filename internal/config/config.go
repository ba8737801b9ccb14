package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Archive ArchiveConfig `toml:"archive"`
	Journal JournalConfig `toml:"journal"`
	Logging LoggingConfig `toml:"logging"`
}

type ArchiveConfig struct {
	Path string `toml:"path"`
}

type JournalConfig struct {
	MaxVersionRetries int `toml:"max_version_retries"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func logLevels() []string {
	return []string{"debug", "info", "warn", "error", "fatal"}
}

func Default(archivePath string) Config {
	return Config{
		Archive: ArchiveConfig{
			Path: archivePath,
		},
		Journal: JournalConfig{
			MaxVersionRetries: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Archive.Path = strings.TrimSpace(c.Archive.Path)
	if c.Archive.Path == "" {
		return errors.New("archive path is required")
	}

	if c.Journal.MaxVersionRetries < 1 {
		return fmt.Errorf("journal.max_version_retries must be >= 1, got %d", c.Journal.MaxVersionRetries)
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if !slices.Contains(logLevels(), level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
