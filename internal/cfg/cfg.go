package cfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"diabetes-risk/internal/common"
)

const (
	defaultFetchTimeout    = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type Settings struct {
	ModelLocation   string
	PreprocLocation string
	DatasetLocation string
	DataPath        string // prediction history; empty disables it
	APIPort         int
	MetricsPort     int
	FetchTimeout    time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	RecordInputs    bool
	Preload         bool
}

type ConfigFile struct {
	Artifacts struct {
		Model         string `yaml:"model"`
		Preprocessing string `yaml:"preprocessing"`
		Dataset       string `yaml:"dataset"`
	} `yaml:"artifacts"`

	Server struct {
		APIPort         int    `yaml:"apiPort"`
		MetricsPort     int    `yaml:"metricsPort"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	System struct {
		DataPath     *string `yaml:"dataPath"`
		FetchTimeout string  `yaml:"fetchTimeout"`
		LogLevel     string  `yaml:"logLevel"`
		RecordInputs bool    `yaml:"recordInputs"`
		Preload      bool    `yaml:"preload"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	fetchTimeout, err := parseDurationOrDefault(config.System.FetchTimeout, defaultFetchTimeout)
	if err != nil {
		return Settings{}, fmt.Errorf("system.fetchTimeout: %w", err)
	}
	shutdownTimeout, err := parseDurationOrDefault(config.Server.ShutdownTimeout, defaultShutdownTimeout)
	if err != nil {
		return Settings{}, fmt.Errorf("server.shutdownTimeout: %w", err)
	}

	dataPath := common.DefaultDataPath
	if config.System.DataPath != nil {
		dataPath = *config.System.DataPath
	}

	// Environment variables override the file
	settings := Settings{
		ModelLocation:   getEnvOrDefault(common.EnvModelLocation, orDefault(config.Artifacts.Model, common.DefaultModelLocation)),
		PreprocLocation: getEnvOrDefault(common.EnvPreprocLocation, orDefault(config.Artifacts.Preprocessing, common.DefaultPreprocLocation)),
		DatasetLocation: getEnvOrDefault(common.EnvDatasetLocation, orDefault(config.Artifacts.Dataset, common.DefaultDatasetLocation)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, dataPath),
		APIPort:         getIntFromEnvOrConfig(common.EnvAPIPort, config.Server.APIPort, common.DefaultAPIPort),
		MetricsPort:     getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		FetchTimeout:    getDurationOrDefault(common.EnvFetchTimeout, fetchTimeout),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, shutdownTimeout),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
		RecordInputs:    getBoolOrDefault(common.EnvRecordInputs, config.System.RecordInputs),
		Preload:         getBoolOrDefault(common.EnvPreload, config.System.Preload),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	dataPath := common.DefaultDataPath
	if v, ok := os.LookupEnv(common.EnvDataPath); ok {
		dataPath = v // may be empty to disable history
	}

	settings := Settings{
		ModelLocation:   getEnvOrDefault(common.EnvModelLocation, common.DefaultModelLocation),
		PreprocLocation: getEnvOrDefault(common.EnvPreprocLocation, common.DefaultPreprocLocation),
		DatasetLocation: getEnvOrDefault(common.EnvDatasetLocation, common.DefaultDatasetLocation),
		DataPath:        dataPath,
		APIPort:         getIntOrDefault(common.EnvAPIPort, common.DefaultAPIPort),
		MetricsPort:     getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		FetchTimeout:    getDurationOrDefault(common.EnvFetchTimeout, defaultFetchTimeout),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, defaultShutdownTimeout),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		RecordInputs:    getBoolOrDefault(common.EnvRecordInputs, false),
		Preload:         getBoolOrDefault(common.EnvPreload, false),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDurationOrDefault(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ModelLocation == "" {
		return errors.New(common.ErrMsgModelLocationRequired)
	}
	if settings.PreprocLocation == "" {
		return errors.New(common.ErrMsgPreprocLocationRequired)
	}
	if settings.DatasetLocation == "" {
		return errors.New(common.ErrMsgDatasetLocationRequired)
	}

	if settings.APIPort < common.MinPort || settings.APIPort > common.MaxPort {
		return fmt.Errorf("API port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.APIPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.APIPort == settings.MetricsPort {
		return fmt.Errorf("API and metrics ports must differ, both are %d", settings.APIPort)
	}

	if settings.FetchTimeout < time.Second || settings.FetchTimeout > 5*time.Minute {
		return fmt.Errorf("fetch timeout must be between 1s and 5m, got %v", settings.FetchTimeout)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 1m, got %v", settings.ShutdownTimeout)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	return nil
}
