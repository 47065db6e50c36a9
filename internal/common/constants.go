package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvModelLocation   = "MODEL_LOCATION"
	EnvPreprocLocation = "PREPROC_LOCATION"
	EnvDatasetLocation = "DATASET_LOCATION"
	EnvDataPath        = "DATA_PATH"
	EnvAPIPort         = "API_PORT"
	EnvMetricsPort     = "METRICS_PORT"
	EnvFetchTimeout    = "FETCH_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvRecordInputs    = "RECORD_INPUTS"
	EnvPreload         = "PRELOAD"
)

// Configuration defaults
const (
	DefaultModelLocation   = "models/decision_tree_model.json"
	DefaultPreprocLocation = "models/preprocessing_config.json"
	DefaultDatasetLocation = "data/diabetes_012_health_indicators_BRFSS2015.csv"
	DefaultDataPath        = "data"
	DefaultAPIPort         = 8080
	DefaultMetricsPort     = 9090
	DefaultLogLevel        = "info"
)

// Validation constants
const (
	MinPort = 1024
	MaxPort = 65535
)

// Common error messages
const (
	ErrMsgModelLocationRequired   = "model location is required"
	ErrMsgPreprocLocationRequired = "preprocessing config location is required"
	ErrMsgDatasetLocationRequired = "dataset location is required"
)
