package contract

import (
	"testing"

	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		errContains string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*ConfigRawInput) {},
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			errContains: "invalid output format",
		},
		{
			name:        "precision too high",
			mutate:      func(in *ConfigRawInput) { in.Precision = 9 },
			errContains: "precision must be between 1 and 4",
		},
		{
			name:        "limit too low",
			mutate:      func(in *ConfigRawInput) { in.Limit = 0 },
			errContains: "limit must be greater than 0",
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			errContains: "invalid --color value",
		},
		{
			name:        "invalid log level",
			mutate:      func(in *ConfigRawInput) { in.LogLevel = "chatty" },
			errContains: "invalid log level",
		},
		{
			name:        "metrics without usage",
			mutate:      func(in *ConfigRawInput) { in.Metrics = "metrics.csv" },
			errContains: "--metrics requires --usage",
		},
		{
			name:        "invalid backend",
			mutate:      func(in *ConfigRawInput) { in.FixtureBackend = "oracle" },
			errContains: "invalid fixture backend",
		},
		{
			name:        "mysql without connection string",
			mutate:      func(in *ConfigRawInput) { in.FixtureBackend = "mysql" },
			errContains: "fixture-db-connect is required",
		},
		{
			name:        "weights do not sum to one",
			mutate:      func(in *ConfigRawInput) { in.Weights = map[string]float64{"age_days": 0.5} },
			errContains: "must sum to 1.0",
		},
		{
			name:        "generator rejects inverted repo range",
			mutate:      func(in *ConfigRawInput) { in.Generator.MinRepos, in.Generator.MaxRepos = 5, 2 },
			errContains: "invalid generator config",
		},
		{
			name:        "model rejects unknown proxy",
			mutate:      func(in *ConfigRawInput) { in.Model.Proxy = "oracle" },
			errContains: "proxy must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewConfigRawInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.errContains == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, NewConfigRawInput()))

	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.NoneBackend, cfg.FixtureBackend)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
	assert.Equal(t, synth.DefaultLanguages(), cfg.Generator.Languages)
	assert.Equal(t, synth.DefaultAffinity(), cfg.Generator.Affinity)
	assert.Equal(t, synth.DefaultLabelWeights(), cfg.Generator.Label.Weights)
	assert.Equal(t, schema.GetDefaultWeights(), cfg.Weights)
	assert.Equal(t, cfg.Weights, cfg.Model.HeuristicWeights)
	assert.Equal(t, uint64(DefaultSeed), cfg.Model.Seed, "model seed falls back to the root seed")
}

func TestProcessAndValidateCustomCatalog(t *testing.T) {
	input := NewConfigRawInput()
	input.Generator.Languages = []synth.Language{{Name: "A", Popularity: 1}, {Name: "B", Popularity: 1}}
	input.Model.Seed = 7
	input.Model.Proxy = "HEURISTIC"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Len(t, cfg.Generator.Languages, 2)
	assert.Nil(t, cfg.Generator.Affinity, "default affinity only applies to the default catalog")
	assert.Equal(t, uint64(7), cfg.Model.Seed)
	assert.Equal(t, schema.HeuristicProxy, cfg.Model.Proxy)
}

func TestProcessCustomWeights(t *testing.T) {
	input := NewConfigRawInput()
	input.Weights = map[string]float64{"COMMIT_FREQUENCY": 0.6, "pr_resolution_days": 0.4}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, map[schema.MetricKey]float64{
		schema.CommitFrequencyKey:  0.6,
		schema.PRResolutionDaysKey: 0.4,
	}, cfg.Weights)

	// The flag replaces the config file weights.
	input.WeightsStr = "age_days:1"
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, map[schema.MetricKey]float64{schema.AgeDaysKey: 1}, cfg.Weights)

	input.WeightsStr = "age_days=1"
	assert.ErrorContains(t, ProcessAndValidate(cfg, input), "invalid --weights-override format")
}

func TestProcessWeightsRawInput(t *testing.T) {
	weights, err := ProcessWeightsRawInput(nil, true)
	require.NoError(t, err)
	assert.Nil(t, weights)

	_, err = ProcessWeightsRawInput(map[string]float64{"stars": 1}, true)
	assert.ErrorContains(t, err, "unknown metric")

	_, err = ProcessWeightsRawInput(map[string]float64{"age_days": -1, "language_count": 2}, true)
	assert.ErrorContains(t, err, "must not be negative")

	weights, err = ProcessWeightsRawInput(map[string]float64{"age_days": 0.2}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.2, weights[schema.AgeDaysKey])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/tribal", false},
		{schema.MySQLBackend, "user:pass@localhost/tribal", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=tribal", false},
		{schema.PostgreSQLBackend, "dbname=tribal", true},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend)+"/"+tt.conn, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, NewConfigRawInput()))

	clone := cfg.Clone()
	clone.Generator.Languages[0].Name = "Changed"
	clone.Weights[schema.AgeDaysKey] = 0.99
	clone.ResultLimit = 3

	assert.NotEqual(t, "Changed", cfg.Generator.Languages[0].Name)
	assert.NotEqual(t, 0.99, cfg.Weights[schema.AgeDaysKey])
	assert.Equal(t, DefaultResultLimit, cfg.ResultLimit)
	assert.Equal(t, 0.99, clone.Model.HeuristicWeights[schema.AgeDaysKey])
}
