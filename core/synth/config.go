// Package synth generates reproducible synthetic repository datasets:
// language usage edges drawn through an affinity model, skewed byte shares,
// and coupled activity metrics.
package synth

import "github.com/huangsam/tribal/schema"

// Language is one catalog entry with its relative popularity.
type Language struct {
	Name       string  `mapstructure:"name" json:"name" yaml:"name" validate:"required"`
	Popularity float64 `mapstructure:"popularity" json:"popularity" yaml:"popularity" validate:"gte=0"`
}

// BytesConfig controls total repository size and how it splits across languages.
type BytesConfig struct {
	MinTotal      int64   `mapstructure:"min-total" json:"min_total" validate:"gt=0"`
	MaxTotal      int64   `mapstructure:"max-total" json:"max_total" validate:"gtefield=MinTotal"`
	DominantAlpha float64 `mapstructure:"dominant-alpha" json:"dominant_alpha" validate:"gt=0"`
	TailAlpha     float64 `mapstructure:"tail-alpha" json:"tail_alpha" validate:"gt=0"`
}

// MetricsConfig holds the distribution parameters of the seven metrics and
// the coupling strengths between them. Log-scale parameters are natural logs.
type MetricsConfig struct {
	AgeMu      float64 `mapstructure:"age-mu" json:"age_mu"`
	AgeSigma   float64 `mapstructure:"age-sigma" json:"age_sigma" validate:"gt=0"`
	MinAgeDays float64 `mapstructure:"min-age-days" json:"min_age_days" validate:"gte=0"`

	FrequencyMu     float64 `mapstructure:"frequency-mu" json:"frequency_mu"`
	FrequencySigma  float64 `mapstructure:"frequency-sigma" json:"frequency_sigma" validate:"gt=0"`
	AgeCoupling     float64 `mapstructure:"age-coupling" json:"age_coupling"`
	SizeCoupling    float64 `mapstructure:"size-coupling" json:"size_coupling"`
	ProjectCoupling float64 `mapstructure:"project-coupling" json:"project_coupling"`
	MonthlyNoise    float64 `mapstructure:"monthly-noise" json:"monthly_noise" validate:"gt=0"`

	StalenessScale float64 `mapstructure:"staleness-scale" json:"staleness_scale" validate:"gt=0"`

	IssueAlpha    float64 `mapstructure:"issue-alpha" json:"issue_alpha" validate:"gt=0"`
	IssueBeta     float64 `mapstructure:"issue-beta" json:"issue_beta" validate:"gt=0"`
	IssueCoupling float64 `mapstructure:"issue-coupling" json:"issue_coupling"`

	PRMu              float64 `mapstructure:"pr-mu" json:"pr_mu"`
	PRSigma           float64 `mapstructure:"pr-sigma" json:"pr_sigma" validate:"gt=0"`
	PRAgeCoupling     float64 `mapstructure:"pr-age-coupling" json:"pr_age_coupling"`
	PRProjectCoupling float64 `mapstructure:"pr-project-coupling" json:"pr_project_coupling"`
}

// LabelConfig controls the synthetic risk-proxy label attached to each repository.
// Its fields are only checked when Enabled is set.
type LabelConfig struct {
	Enabled       bool                         `mapstructure:"enabled" json:"enabled"`
	Coverage      float64                      `mapstructure:"coverage" json:"coverage"`
	Center        float64                      `mapstructure:"center" json:"center"`
	Scale         float64                      `mapstructure:"scale" json:"scale"`
	Noise         float64                      `mapstructure:"noise" json:"noise"`
	ProjectWeight float64                      `mapstructure:"project-weight" json:"project_weight"`
	Weights       map[schema.MetricKey]float64 `mapstructure:"weights" json:"weights"`
}

// Config is the plain structured record that fully determines a generator run
// together with a seed.
type Config struct {
	Projects          int     `mapstructure:"projects" json:"projects" validate:"gte=1"`
	MinRepos          int     `mapstructure:"min-repos" json:"min_repos" validate:"gte=1"`
	MaxRepos          int     `mapstructure:"max-repos" json:"max_repos" validate:"gtefield=MinRepos"`
	MaxExtraLanguages int     `mapstructure:"max-extra-languages" json:"max_extra_languages" validate:"gte=0"`
	BackgroundRate    float64 `mapstructure:"background-rate" json:"background_rate" validate:"gte=0,lte=1"`
	ProjectEffectSD   float64 `mapstructure:"project-effect-sd" json:"project_effect_sd" validate:"gte=0"`

	Languages []Language                    `mapstructure:"languages" json:"languages" validate:"required,min=1,dive"`
	Affinity  map[string]map[string]float64 `mapstructure:"affinity" json:"affinity"`

	Bytes   BytesConfig   `mapstructure:"bytes" json:"bytes"`
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics"`
	Label   LabelConfig   `mapstructure:"label" json:"label"`
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	clone := c
	clone.Languages = append([]Language(nil), c.Languages...)
	if c.Affinity != nil {
		clone.Affinity = make(map[string]map[string]float64, len(c.Affinity))
		for from, row := range c.Affinity {
			clone.Affinity[from] = make(map[string]float64, len(row))
			for to, v := range row {
				clone.Affinity[from][to] = v
			}
		}
	}
	if c.Label.Weights != nil {
		clone.Label.Weights = make(map[schema.MetricKey]float64, len(c.Label.Weights))
		for k, v := range c.Label.Weights {
			clone.Label.Weights[k] = v
		}
	}
	return clone
}
