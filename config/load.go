package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Load reads the optional YAML file at path and then applies INCIDENTDASH_*
// environment overrides. An empty path reads the environment only.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	path = strings.TrimSpace(path)
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case "sqlite":
		c.DBDriver = "sqlite"
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("%w: db_path is required for sqlite", ErrInvalidConfig)
		}
	case "postgres":
		c.DBDriver = "postgres"
		if strings.TrimSpace(c.DBURL) == "" {
			return fmt.Errorf("%w: db_url is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.Projection.Window < 2 || c.Projection.Window > maxProjectionWindow {
		return fmt.Errorf("%w: projection.window must be between 2 and %d", ErrInvalidConfig, maxProjectionWindow)
	}
	if c.Chart.WidthPx <= 0 || c.Chart.HeightPx <= 0 {
		return fmt.Errorf("%w: chart dimensions must be positive", ErrInvalidConfig)
	}
	if spec := strings.TrimSpace(c.Loader.ReloadSchedule); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%w: loader.reload_schedule: %v", ErrInvalidConfig, err)
		}
		if strings.TrimSpace(c.Loader.CSVPath) == "" {
			return fmt.Errorf("%w: loader.reload_schedule needs loader.csv_path", ErrInvalidConfig)
		}
	}
	return nil
}
