// Package config loads pipeline settings from defaults, an optional YAML
// file, an optional .env file and ADULTCENSUS_* environment variables.
package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/adultcensus/dataset"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
	"github.com/YuminosukeSato/adultcensus/preprocessing"
	"github.com/YuminosukeSato/adultcensus/sklearn/linear_model"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ADULTCENSUS_"

// Output artifact names inside OutputsDir.
const (
	ModelDirName   = "AdultCensus.mml"
	ROCFileName    = "roc.png"
	SchemaFileName = "service_schema.json"
)

// Config holds every pipeline setting.
type Config struct {
	DataPath        string        `yaml:"data_path"`
	DataURL         string        `yaml:"data_url"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	OutputsDir      string        `yaml:"outputs_dir"`

	Seed         int64     `yaml:"seed"`
	SplitWeights []float64 `yaml:"split_weights"`

	LabelCol    string   `yaml:"label_col"`
	FeatureCols []string `yaml:"feature_cols"`
	NumFeatures int      `yaml:"num_features"`

	RegParam float64 `yaml:"reg_param"`
	MaxIter  int     `yaml:"max_iter"`
	Tol      float64 `yaml:"tol"`

	LogLevel string `yaml:"log_level"`

	Tracking Tracking `yaml:"tracking"`
}

// Tracking selects the run-metric sinks. The log sink is always on.
type Tracking struct {
	OTLPEnabled    bool   `yaml:"otlp_enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	HistoryEnabled bool   `yaml:"history_enabled"`
	HistoryURL     string `yaml:"history_url"`
}

// Default returns the settings of the reference run.
func Default() *Config {
	return &Config{
		DataPath:     dataset.DefaultPath,
		DataURL:      dataset.DefaultURL,
		OutputsDir:   "outputs",
		Seed:         123,
		SplitWeights: []float64{0.75, 0.25},
		LabelCol:     "income",
		FeatureCols:  []string{"education", "marital-status", "hours-per-week"},
		NumFeatures:  preprocessing.DefaultNumFeatures,
		RegParam:     linear_model.DefaultRegParam,
		MaxIter:      100,
		Tol:          1e-6,
		LogLevel:     "info",
		Tracking: Tracking{
			HistoryURL: "file:outputs/run_history.db",
		},
	}
}

// Options locates the optional sources. Empty paths are skipped; Getenv
// defaults to os.Getenv.
type Options struct {
	File    string
	EnvFile string
	Getenv  func(string) string
}

// Load builds a Config: defaults, then File, then the environment. Variables
// set in the process environment take precedence over EnvFile.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", opts.File)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", opts.File)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	var dotenv map[string]string
	if opts.EnvFile != "" {
		m, err := godotenv.Read(opts.EnvFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read %s", opts.EnvFile)
		}
		dotenv = m
	}
	lookup := func(name string) (string, bool) {
		if v := getenv(EnvPrefix + name); v != "" {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+name]
		return v, ok && v != ""
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	var err error
	parse := func(name string, fn func(string) error) {
		if err != nil {
			return
		}
		if v, ok := lookup(name); ok {
			if e := fn(v); e != nil {
				err = errors.NewValidationError(EnvPrefix+name, e.Error(), v)
			}
		}
	}

	str("DATA_PATH", &c.DataPath)
	str("DATA_URL", &c.DataURL)
	str("OUTPUTS_DIR", &c.OutputsDir)
	str("LABEL_COL", &c.LabelCol)
	str("LOG_LEVEL", &c.LogLevel)
	str("OTLP_ENDPOINT", &c.Tracking.OTLPEndpoint)
	str("HISTORY_URL", &c.Tracking.HistoryURL)

	parse("FEATURE_COLS", func(v string) error {
		c.FeatureCols = splitList(v)
		return nil
	})
	parse("DOWNLOAD_TIMEOUT", func(v string) (e error) {
		c.DownloadTimeout, e = time.ParseDuration(v)
		return e
	})
	parse("SEED", func(v string) (e error) {
		c.Seed, e = strconv.ParseInt(v, 10, 64)
		return e
	})
	parse("NUM_FEATURES", func(v string) (e error) {
		c.NumFeatures, e = strconv.Atoi(v)
		return e
	})
	parse("REG_PARAM", func(v string) (e error) {
		c.RegParam, e = strconv.ParseFloat(v, 64)
		return e
	})
	parse("MAX_ITER", func(v string) (e error) {
		c.MaxIter, e = strconv.Atoi(v)
		return e
	})
	parse("TOL", func(v string) (e error) {
		c.Tol, e = strconv.ParseFloat(v, 64)
		return e
	})
	parse("OTLP_ENABLED", func(v string) (e error) {
		c.Tracking.OTLPEnabled, e = strconv.ParseBool(v)
		return e
	})
	parse("OTLP_INSECURE", func(v string) (e error) {
		c.Tracking.OTLPInsecure, e = strconv.ParseBool(v)
		return e
	})
	parse("HISTORY_ENABLED", func(v string) (e error) {
		c.Tracking.HistoryEnabled, e = strconv.ParseBool(v)
		return e
	})
	return err
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseRegularization parses the positional regularization argument.
func ParseRegularization(arg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, errors.NewValidationError("regularization", "must be a number", arg)
	}
	return v, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.DataPath == "":
		return errors.NewValidationError("data_path", "is required", c.DataPath)
	case c.DataURL == "":
		return errors.NewValidationError("data_url", "is required", c.DataURL)
	case c.OutputsDir == "":
		return errors.NewValidationError("outputs_dir", "is required", c.OutputsDir)
	case c.DownloadTimeout < 0:
		return errors.NewValidationError("download_timeout", "must not be negative", c.DownloadTimeout)
	case len(c.SplitWeights) != 2:
		return errors.NewValidationError("split_weights", "must hold a train and a test weight", c.SplitWeights)
	case c.LabelCol == "":
		return errors.NewValidationError("label_col", "is required", c.LabelCol)
	case len(c.FeatureCols) == 0:
		return errors.NewValidationError("feature_cols", "at least one feature column is required", c.FeatureCols)
	case c.NumFeatures <= 0:
		return errors.NewValidationError("num_features", "must be positive", c.NumFeatures)
	case c.RegParam < 0 || math.IsNaN(c.RegParam) || math.IsInf(c.RegParam, 0):
		return errors.NewValidationError("reg_param", "must be finite and non-negative", c.RegParam)
	case c.MaxIter <= 0:
		return errors.NewValidationError("max_iter", "must be positive", c.MaxIter)
	case c.Tol <= 0 || math.IsNaN(c.Tol):
		return errors.NewValidationError("tol", "must be positive", c.Tol)
	case c.Tracking.OTLPEnabled && c.Tracking.OTLPEndpoint == "":
		return errors.NewValidationError("tracking.otlp_endpoint", "is required when OTLP is enabled", "")
	case c.Tracking.HistoryEnabled && c.Tracking.HistoryURL == "":
		return errors.NewValidationError("tracking.history_url", "is required when history is enabled", "")
	}
	for _, w := range c.SplitWeights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.NewValidationError("split_weights", "must be finite and positive", c.SplitWeights)
		}
	}
	for _, f := range c.FeatureCols {
		if f == c.LabelCol {
			return errors.NewValidationError("feature_cols", "must not contain the label column", f)
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	return nil
}

// ModelDir is where the trained model is saved.
func (c *Config) ModelDir() string { return filepath.Join(c.OutputsDir, ModelDirName) }

// ROCPath is where the ROC plot is written.
func (c *Config) ROCPath() string { return filepath.Join(c.OutputsDir, ROCFileName) }

// SchemaPath is where the service schema is written.
func (c *Config) SchemaPath() string { return filepath.Join(c.OutputsDir, SchemaFileName) }
