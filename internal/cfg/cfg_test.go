package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabetes-risk/internal/common"
)

var allKeys = []string{
	common.EnvConfigFile,
	common.EnvModelLocation,
	common.EnvPreprocLocation,
	common.EnvDatasetLocation,
	common.EnvDataPath,
	common.EnvAPIPort,
	common.EnvMetricsPort,
	common.EnvFetchTimeout,
	common.EnvShutdownTimeout,
	common.EnvLogLevel,
	common.EnvRecordInputs,
	common.EnvPreload,
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, s Settings) {
				assert.Equal(t, common.DefaultModelLocation, s.ModelLocation)
				assert.Equal(t, common.DefaultPreprocLocation, s.PreprocLocation)
				assert.Equal(t, common.DefaultDatasetLocation, s.DatasetLocation)
				assert.Equal(t, common.DefaultDataPath, s.DataPath)
				assert.Equal(t, common.DefaultAPIPort, s.APIPort)
				assert.Equal(t, common.DefaultMetricsPort, s.MetricsPort)
				assert.Equal(t, 10*time.Second, s.FetchTimeout)
				assert.Equal(t, 10*time.Second, s.ShutdownTimeout)
				assert.Equal(t, "info", s.LogLevel)
				assert.False(t, s.RecordInputs)
				assert.False(t, s.Preload)
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				common.EnvModelLocation:   "https://models.example.com/dt.json",
				common.EnvPreprocLocation: "https://models.example.com/preproc.json",
				common.EnvDatasetLocation: "/srv/brfss.csv",
				common.EnvAPIPort:         "8000",
				common.EnvMetricsPort:     "9100",
				common.EnvFetchTimeout:    "30s",
				common.EnvLogLevel:        "debug",
				common.EnvRecordInputs:    "true",
				common.EnvPreload:         "1",
			},
			validate: func(t *testing.T, s Settings) {
				assert.Equal(t, "https://models.example.com/dt.json", s.ModelLocation)
				assert.Equal(t, "/srv/brfss.csv", s.DatasetLocation)
				assert.Equal(t, 8000, s.APIPort)
				assert.Equal(t, 9100, s.MetricsPort)
				assert.Equal(t, 30*time.Second, s.FetchTimeout)
				assert.Equal(t, "debug", s.LogLevel)
				assert.True(t, s.RecordInputs)
				assert.True(t, s.Preload)
			},
		},
		{
			name:    "empty data path disables history",
			envVars: map[string]string{common.EnvDataPath: ""},
			validate: func(t *testing.T, s Settings) {
				assert.Empty(t, s.DataPath)
			},
		},
		{
			name:    "unparseable values fall back to defaults",
			envVars: map[string]string{common.EnvAPIPort: "eighty", common.EnvFetchTimeout: "soon"},
			validate: func(t *testing.T, s Settings) {
				assert.Equal(t, common.DefaultAPIPort, s.APIPort)
				assert.Equal(t, 10*time.Second, s.FetchTimeout)
			},
		},
		{
			name:    "privileged port",
			envVars: map[string]string{common.EnvAPIPort: "80"},
			wantErr: true,
		},
		{
			name:    "port clash",
			envVars: map[string]string{common.EnvAPIPort: "9090", common.EnvMetricsPort: "9090"},
			wantErr: true,
		},
		{
			name:    "timeout too short",
			envVars: map[string]string{common.EnvFetchTimeout: "100ms"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			envVars: map[string]string{common.EnvLogLevel: "verbose"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			settings, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, settings)
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
artifacts:
  model: https://cdn.example.com/model.json
  preprocessing: https://cdn.example.com/preproc.json
  dataset: https://cdn.example.com/brfss.csv
server:
  apiPort: 8500
  metricsPort: 9500
  shutdownTimeout: 5s
system:
  dataPath: /var/lib/diabetes-risk
  fetchTimeout: 20s
  logLevel: warn
  recordInputs: true
`)
	t.Setenv(common.EnvConfigFile, path)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/model.json", s.ModelLocation)
	assert.Equal(t, "https://cdn.example.com/preproc.json", s.PreprocLocation)
	assert.Equal(t, "https://cdn.example.com/brfss.csv", s.DatasetLocation)
	assert.Equal(t, 8500, s.APIPort)
	assert.Equal(t, 9500, s.MetricsPort)
	assert.Equal(t, 5*time.Second, s.ShutdownTimeout)
	assert.Equal(t, 20*time.Second, s.FetchTimeout)
	assert.Equal(t, "/var/lib/diabetes-risk", s.DataPath)
	assert.Equal(t, "warn", s.LogLevel)
	assert.True(t, s.RecordInputs)
	assert.False(t, s.Preload)
}

func TestLoadFromYAML_EnvOverridesAndDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  apiPort: 8500
system:
  dataPath: ""
`)
	t.Setenv(common.EnvConfigFile, path)
	t.Setenv(common.EnvAPIPort, "8600")
	t.Setenv(common.EnvModelLocation, "/opt/model.json")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8600, s.APIPort)
	assert.Equal(t, "/opt/model.json", s.ModelLocation)
	assert.Equal(t, common.DefaultPreprocLocation, s.PreprocLocation)
	assert.Equal(t, common.DefaultMetricsPort, s.MetricsPort)
	assert.Empty(t, s.DataPath, "explicit empty dataPath disables history")
}

func TestLoadFromYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "server: [apiPort"},
		{"bad duration", "system:\n  fetchTimeout: forever\n"},
		{"invalid port", "server:\n  metricsPort: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(common.EnvConfigFile, writeConfig(t, tt.content))
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(common.EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}
