// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig configures shard discovery and parsing.
type InputConfig struct {
	BaseDir        string `yaml:"base_dir" mapstructure:"base_dir"`
	BiometricDir   string `yaml:"biometric_dir" mapstructure:"biometric_dir"`
	DemographicDir string `yaml:"demographic_dir" mapstructure:"demographic_dir"`
	EnrolmentDir   string `yaml:"enrolment_dir" mapstructure:"enrolment_dir"`
	DateLayout     string `yaml:"date_layout" mapstructure:"date_layout"`
	Parallelism    int    `yaml:"parallelism" mapstructure:"parallelism"`
}

// OutputConfig configures where the three result tables are written.
type OutputConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	DistrictFile string `yaml:"district_file" mapstructure:"district_file"`
	StateFile    string `yaml:"state_file" mapstructure:"state_file"`
	TrendsFile   string `yaml:"trends_file" mapstructure:"trends_file"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only results server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CIVIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.base_dir", ".")
	v.SetDefault("input.biometric_dir", "api_data_aadhar_biometric")
	v.SetDefault("input.demographic_dir", "api_data_aadhar_demographic")
	v.SetDefault("input.enrolment_dir", "api_data_aadhar_enrolment")
	v.SetDefault("input.date_layout", "02-01-2006")
	v.SetDefault("input.parallelism", 4)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.district_file", "civic_pulse_district.csv")
	v.SetDefault("output.state_file", "civic_pulse_state.csv")
	v.SetDefault("output.trends_file", "civic_pulse_trends.csv")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "civic_pulse.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// CategoryDir returns the shard directory (relative to BaseDir) for a category name.
func (c InputConfig) CategoryDir(category string) string {
	switch category {
	case "biometric":
		return c.BiometricDir
	case "demographic":
		return c.DemographicDir
	case "enrolment":
		return c.EnrolmentDir
	}
	return category
}
