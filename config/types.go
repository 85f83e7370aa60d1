package config

import "time"

type AppConfig struct {
	DBDriver   string           `yaml:"db_driver" env:"INCIDENTDASH_DB_DRIVER" env-default:"sqlite"`
	DBURL      string           `yaml:"db_url" env:"INCIDENTDASH_DB_URL"`
	DBPath     string           `yaml:"db_path" env:"INCIDENTDASH_DB_PATH" env-default:"security_incidents.db"`
	ListenAddr string           `yaml:"listen_addr" env:"INCIDENTDASH_LISTEN_ADDR" env-default:"127.0.0.1:5000"`
	AppEnv     string           `yaml:"app_env" env:"INCIDENTDASH_APP_ENV"`
	HTTP       HTTPConfig       `yaml:"http"`
	Loader     LoaderConfig     `yaml:"loader"`
	Projection ProjectionConfig `yaml:"projection"`
	Chart      ChartConfig      `yaml:"chart"`
	Log        LogConfig        `yaml:"log"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"INCIDENTDASH_HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"INCIDENTDASH_HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"INCIDENTDASH_HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type LoaderConfig struct {
	CSVPath     string `yaml:"csv_path" env:"INCIDENTDASH_LOADER_CSV_PATH" env-default:"csv/incidents.csv"`
	LoadOnStart bool   `yaml:"load_on_start" env:"INCIDENTDASH_LOADER_LOAD_ON_START" env-default:"false"`
	// Standard 5-field cron expression; empty disables periodic reloads.
	ReloadSchedule string `yaml:"reload_schedule" env:"INCIDENTDASH_LOADER_RELOAD_SCHEDULE"`
}

type ProjectionConfig struct {
	Window int `yaml:"window" env:"INCIDENTDASH_PROJECTION_WINDOW" env-default:"30"`
}

type ChartConfig struct {
	WidthPx  int `yaml:"width_px" env:"INCIDENTDASH_CHART_WIDTH_PX" env-default:"640"`
	HeightPx int `yaml:"height_px" env:"INCIDENTDASH_CHART_HEIGHT_PX" env-default:"480"`
}

type LogConfig struct {
	Level   string `yaml:"level" env:"INCIDENTDASH_LOG_LEVEL" env-default:"info"`
	File    string `yaml:"file" env:"INCIDENTDASH_LOG_FILE"`
	Console bool   `yaml:"console" env:"INCIDENTDASH_LOG_CONSOLE" env-default:"true"`
}

const maxProjectionWindow = 30

func (c *AppConfig) IsPostgres() bool {
	if c == nil {
		return false
	}
	return c.DBDriver == "postgres"
}

func (c *AppConfig) EffectiveWindow() int {
	if c == nil || c.Projection.Window <= 0 {
		return maxProjectionWindow
	}
	if c.Projection.Window > maxProjectionWindow {
		return maxProjectionWindow
	}
	return c.Projection.Window
}
