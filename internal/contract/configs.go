package contract

import (
	"fmt"
	"maps"
	"strings"

	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/schema"
	"go.uber.org/zap/zapcore"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 2
	MaxPrecision       = 4
	DefaultSeed        = 42
)

// Config holds the runtime configuration for a run.
// This struct is the "final, validated" config.
type Config struct {
	Seed        uint64
	Output      schema.OutputMode
	OutputFile  string
	OutputDir   string
	SamplesFile string
	MetricsFile string
	Precision   int
	ResultLimit int
	Width       int // Terminal width override (0 = auto-detect)
	LogLevel    string

	UsagePath   string
	MetricsPath string

	FixtureBackend   schema.DatabaseBackend
	FixtureDBConnect string // Please use env var as this is plaintext

	Generator synth.Config
	Model     model.Options

	// Weights is the final heuristic weight map, computed from defaults or custom overrides
	Weights map[schema.MetricKey]float64

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Seed             uint64 `mapstructure:"seed"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	SamplesFile      string `mapstructure:"samples-file"`
	MetricsFile      string `mapstructure:"metrics-file"`
	Precision        int    `mapstructure:"precision"`
	Limit            int    `mapstructure:"limit"`
	Width            int    `mapstructure:"width"`
	LogLevel         string `mapstructure:"log-level"`
	FixtureBackend   string `mapstructure:"fixture-backend"`
	FixtureDBConnect string `mapstructure:"fixture-db-connect"`
	Emoji            string `mapstructure:"emoji"`
	Color            string `mapstructure:"color"`

	// --- Fields from generateCmd.Flags() ---
	OutputDir string `mapstructure:"output-dir"`

	// --- Fields from fitCmd.Flags() ---
	Usage   string `mapstructure:"usage"`
	Metrics string `mapstructure:"metrics"`

	// --- Nested sections from the config file ---
	Generator synth.Config  `mapstructure:"generator"`
	Model     model.Options `mapstructure:"model"`

	// --- Custom heuristic weights from config file, then flag ---
	Weights    map[string]float64 `mapstructure:"weights"`
	WeightsStr string             `mapstructure:"weights-override"`
}

// NewConfigRawInput returns a raw input prefilled with defaults, so that viper
// only overwrites what a flag, env var or config file actually sets. Collection
// fields start empty because decoding would merge into them.
func NewConfigRawInput() *ConfigRawInput {
	gen := synth.DefaultConfig()
	gen.Languages = nil
	gen.Affinity = nil
	gen.Label.Weights = nil

	return &ConfigRawInput{
		Seed:           DefaultSeed,
		Output:         string(schema.TextOut),
		Precision:      DefaultPrecision,
		Limit:          DefaultResultLimit,
		LogLevel:       DefaultLogLevel,
		FixtureBackend: string(schema.NoneBackend),
		Emoji:          "no",
		Color:          "yes",
		Generator:      gen,
		Model:          model.DefaultOptions(),
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	if err := processGenerator(cfg, input); err != nil {
		return err
	}
	if err := processModel(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("fixture-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("fixture-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the fixture backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(input.FixtureBackend)
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.FixtureBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.FixtureBackend]; !ok {
		return fmt.Errorf("invalid fixture backend '%s'. must be sqlite, mysql, postgresql, none", input.FixtureBackend)
	}
	cfg.FixtureDBConnect = input.FixtureDBConnect
	return ValidateDatabaseConnectionString(cfg.FixtureBackend, cfg.FixtureDBConnect)
}

// validateSimpleInputs processes and validates the output and input fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Seed = input.Seed
	cfg.OutputFile = input.OutputFile
	cfg.OutputDir = input.OutputDir
	cfg.SamplesFile = input.SamplesFile
	cfg.MetricsFile = input.MetricsFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	// --- 3. Log Level Validation ---
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
	}

	// --- 4. Dataset Files ---
	cfg.UsagePath = strings.TrimSpace(input.Usage)
	cfg.MetricsPath = strings.TrimSpace(input.Metrics)
	if cfg.MetricsPath != "" && cfg.UsagePath == "" && cfg.FixtureBackend == schema.NoneBackend {
		return fmt.Errorf("--metrics requires --usage or a fixture backend so every repository has language rows")
	}

	return nil
}

// ProcessWeightsRawInput converts the raw weight map into heuristic weights.
// If validateSum is true, it validates that the weights sum to 1.0.
func ProcessWeightsRawInput(raw map[string]float64, validateSum bool) (map[schema.MetricKey]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	result := make(map[schema.MetricKey]float64, len(raw))
	sum := 0.0
	for name, w := range raw {
		key := schema.MetricKey(strings.ToLower(name))
		if _, ok := schema.ValidMetricKeys[key]; !ok {
			return nil, fmt.Errorf("custom weight for unknown metric %q", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("custom weight for %s must not be negative, got %.3f", key, w)
		}
		result[key] = w
		sum += w
	}
	if validateSum && (sum < 0.999 || sum > 1.001) {
		return nil, fmt.Errorf("custom heuristic weights must sum to 1.0, got %.3f", sum)
	}
	return result, nil
}

// processCustomWeights resolves the heuristic weights. The --weights-override
// flag takes precedence over the config file; either replaces the defaults whole.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	raw := make(map[string]float64, len(input.Weights))
	maps.Copy(raw, input.Weights)

	if input.WeightsStr != "" {
		parsed, err := ParseWeightsString(input.WeightsStr)
		if err != nil {
			return fmt.Errorf("invalid --weights-override format: %w", err)
		}
		raw = make(map[string]float64, len(parsed))
		for k, v := range parsed {
			raw[string(k)] = v
		}
	}

	custom, err := ProcessWeightsRawInput(raw, true)
	if err != nil {
		return err
	}
	if custom == nil {
		custom = schema.GetDefaultWeights()
	}
	cfg.Weights = custom
	return nil
}

// processGenerator fills catalog defaults and validates the generator config.
func processGenerator(cfg *Config, input *ConfigRawInput) error {
	gen := input.Generator.Clone()
	if len(gen.Languages) == 0 {
		gen.Languages = synth.DefaultLanguages()
		if gen.Affinity == nil {
			gen.Affinity = synth.DefaultAffinity()
		}
	}
	if gen.Label.Enabled && len(gen.Label.Weights) == 0 {
		gen.Label.Weights = synth.DefaultLabelWeights()
	}
	if err := synth.Validate(gen); err != nil {
		return err
	}
	cfg.Generator = gen
	return nil
}

// processModel validates the sampler options. The root seed is used when
// no model seed is configured.
func processModel(cfg *Config, input *ConfigRawInput) error {
	opts := input.Model
	opts.Proxy = schema.ProxySource(strings.ToLower(string(opts.Proxy)))
	if opts.Proxy == "" {
		opts.Proxy = schema.AutoProxy
	}
	if opts.Seed == 0 {
		opts.Seed = cfg.Seed
	}
	opts.HeuristicWeights = cfg.Weights
	if err := opts.Validate(); err != nil {
		return err
	}
	cfg.Model = opts
	return nil
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Generator = c.Generator.Clone()
	clone.Weights = maps.Clone(c.Weights)
	clone.Model.HeuristicWeights = clone.Weights
	return &clone
}
