// Package config loads and validates the pipeline configuration from a
// YAML file, with environment-variable overrides for the paths that
// differ between machines. One explicit Pipeline value is passed
// through every stage; there is no global configuration state.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"insurisk/domain/core"
	apperrors "insurisk/internal/errors"
	"insurisk/internal/model"
)

// Pipeline is the complete run configuration
type Pipeline struct {
	Data       DataConfig       `yaml:"data"`
	Split      SplitConfig      `yaml:"split"`
	Classifier ModelConfig      `yaml:"classifier"`
	Premium    ModelConfig      `yaml:"premium"`
	Severity   ModelConfig      `yaml:"severity"`
	Evaluation EvalConfig       `yaml:"evaluation"`
	Interpret  InterpretConfig  `yaml:"interpret"`
	Hypothesis HypothesisConfig `yaml:"hypothesis"`
	Output     OutputConfig     `yaml:"output"`
}

// DataConfig locates and describes the input dataset
type DataConfig struct {
	Path        string   `yaml:"path"`
	Delimiter   string   `yaml:"delimiter"`    // for .txt inputs; default "|"
	ConvertCSV  bool     `yaml:"convert_csv"`  // write a .csv copy next to a loaded .txt
	DateColumns []string `yaml:"date_columns"` // parsed to days since epoch
	BoolColumns []string `yaml:"bool_columns"` // yes/no normalised to 1/0
}

// SplitConfig controls the stratified train/test split
type SplitConfig struct {
	TestSize       float64 `yaml:"test_size"`
	Seed           int64   `yaml:"seed"`
	StratifyColumn string  `yaml:"stratify_column"`
}

// ModelConfig selects a model family and its hyperparameters for one task
type ModelConfig struct {
	Kind   string       `yaml:"kind"`
	Params model.Params `yaml:"params"`

	resolved model.Kind
}

// ResolvedKind returns the kind resolved during Load
func (m ModelConfig) ResolvedKind() model.Kind { return m.resolved }

// EvalConfig holds evaluation settings
type EvalConfig struct {
	Threshold float64 `yaml:"threshold"` // 0 selects the 0.5 default
}

// InterpretConfig controls attribution
type InterpretConfig struct {
	Enabled      bool `yaml:"enabled"`
	SampleSize   int  `yaml:"sample_size"`
	Permutations int  `yaml:"permutations"`
	TopN         int  `yaml:"top_n"`
}

// TestSpec is one configured hypothesis test
type TestSpec struct {
	Kind    string `yaml:"kind"`    // welch_t, mann_whitney, proportions
	Feature string `yaml:"feature"` // categorical segmentation column
	GroupA  string `yaml:"group_a"`
	GroupB  string `yaml:"group_b"`
	KPI     string `yaml:"kpi"`
}

// HypothesisConfig drives the A/B testing stage
type HypothesisConfig struct {
	Alpha float64    `yaml:"alpha"`
	Tests []TestSpec `yaml:"tests"`
}

// OutputConfig names the artifact destinations
type OutputConfig struct {
	ModelsDir  string `yaml:"models_dir"`
	ReportsDir string `yaml:"reports_dir"`
	PlotsDir   string `yaml:"plots_dir"`
	LedgerDir  string `yaml:"ledger_dir"`
}

// Load reads, overrides, resolves and validates a pipeline configuration
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IOError("read config file", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(err, "parse config file")
	}

	cfg.applyEnv()

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Pipeline {
	return &Pipeline{
		Data:  DataConfig{Delimiter: "|"},
		Split: SplitConfig{TestSize: 0.2, Seed: 42, StratifyColumn: "ClaimOccurred"},
		Interpret: InterpretConfig{
			SampleSize:   100,
			Permutations: 16,
			TopN:         15,
		},
		Hypothesis: HypothesisConfig{Alpha: 0.05},
		Output: OutputConfig{
			ModelsDir:  "out/models",
			ReportsDir: "out/reports",
			PlotsDir:   "out/plots",
			LedgerDir:  "out",
		},
	}
}

// applyEnv overlays the environment variables that commonly differ
// between machines onto the file configuration
func (c *Pipeline) applyEnv() {
	if v := os.Getenv("INSURISK_DATA_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("INSURISK_OUTPUT_DIR"); v != "" {
		c.Output.ModelsDir = v + "/models"
		c.Output.ReportsDir = v + "/reports"
		c.Output.PlotsDir = v + "/plots"
		c.Output.LedgerDir = v
	}
	if v := os.Getenv("INSURISK_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Split.Seed = seed
		}
	}
}

// resolve maps the configured model names onto the closed kind set.
// Empty kinds get the originals' defaults.
func (c *Pipeline) resolve() error {
	var err error
	if c.Classifier.Kind == "" {
		c.Classifier.Kind = "xgboost"
	}
	if c.Classifier.resolved, err = model.ParseKind(c.Classifier.Kind, model.TaskClassification); err != nil {
		return err
	}

	if c.Premium.Kind == "" {
		c.Premium.Kind = "linear"
	}
	if c.Premium.resolved, err = model.ParseKind(c.Premium.Kind, model.TaskRegression); err != nil {
		return err
	}

	if c.Severity.Kind == "" {
		c.Severity.Kind = "xgboost_reg"
	}
	if c.Severity.resolved, err = model.ParseKind(c.Severity.Kind, model.TaskRegression); err != nil {
		return err
	}
	return nil
}

// Validate fails fast on anything a run could not recover from
func (c *Pipeline) Validate() error {
	if c.Data.Path == "" {
		return core.NewConfigError("data.path", "must be set")
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return core.NewConfigError("split.test_size", "must be in (0, 1)")
	}
	if c.Split.StratifyColumn == "" {
		return core.NewConfigError("split.stratify_column", "must be set")
	}
	if c.Evaluation.Threshold < 0 || c.Evaluation.Threshold >= 1 {
		return core.NewConfigError("evaluation.threshold", "must be in [0, 1)")
	}
	if c.Hypothesis.Alpha <= 0 || c.Hypothesis.Alpha >= 1 {
		return core.NewConfigError("hypothesis.alpha", "must be in (0, 1)")
	}
	for _, t := range c.Hypothesis.Tests {
		switch t.Kind {
		case "welch_t", "mann_whitney", "proportions":
		default:
			return core.NewConfigError("hypothesis.tests", "unknown test kind "+strconv.Quote(t.Kind))
		}
		if t.Feature == "" || t.GroupA == "" || t.GroupB == "" || t.KPI == "" {
			return core.NewConfigError("hypothesis.tests", "feature, group_a, group_b and kpi must all be set")
		}
	}
	return nil
}
