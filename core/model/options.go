package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/tribal/schema"
)

var optionsValidate = validator.New()

// Default sampler settings.
const (
	DefaultChains        = 4
	DefaultWarmup        = 500
	DefaultDraws         = 1000
	DefaultMaxIterations = 6000
	DefaultMaxRhat       = 1.05
	DefaultMinESS        = 100.0
	DefaultCredibleMass  = 0.95
)

// Options configures a fit. Iteration counts are per chain.
type Options struct {
	Chains        int                `mapstructure:"chains" json:"chains" validate:"gte=1"`
	Warmup        int                `mapstructure:"warmup" json:"warmup" validate:"gte=0"`
	Draws         int                `mapstructure:"draws" json:"draws" validate:"gte=4"`
	MaxIterations int                `mapstructure:"max-iterations" json:"max_iterations" validate:"gte=1"`
	MaxRhat       float64            `mapstructure:"max-rhat" json:"max_rhat" validate:"gt=1"`
	MinESS        float64            `mapstructure:"min-ess" json:"min_ess" validate:"gte=0"`
	CredibleMass  float64            `mapstructure:"credible-mass" json:"credible_mass" validate:"gt=0,lt=1"`
	Seed          uint64             `mapstructure:"seed" json:"seed"`
	Proxy         schema.ProxySource `mapstructure:"proxy" json:"proxy"`
	Priors        Priors             `mapstructure:"priors" json:"priors"`

	// HeuristicWeights feed the heuristic proxy; nil means the defaults.
	HeuristicWeights map[schema.MetricKey]float64 `mapstructure:"-" json:"heuristic_weights,omitempty"`
}

// DefaultOptions returns the default fit options.
func DefaultOptions() Options {
	return Options{
		Chains:        DefaultChains,
		Warmup:        DefaultWarmup,
		Draws:         DefaultDraws,
		MaxIterations: DefaultMaxIterations,
		MaxRhat:       DefaultMaxRhat,
		MinESS:        DefaultMinESS,
		CredibleMass:  DefaultCredibleMass,
		Proxy:         schema.AutoProxy,
		Priors:        DefaultPriors(),
	}
}

// Validate checks the options and reports every problem at once.
func (o Options) Validate() error {
	var errs []error
	if err := optionsValidate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate model options: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("model option %s failed %s=%s (received %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	if _, ok := schema.ValidProxySources[o.Proxy]; !ok {
		errs = append(errs, fmt.Errorf("model option proxy must be one of auto, label, heuristic (received %q)", o.Proxy))
	}
	if o.MaxIterations < o.Warmup+o.Draws {
		errs = append(errs, fmt.Errorf("model option max-iterations (%d) must cover warmup + draws (%d)", o.MaxIterations, o.Warmup+o.Draws))
	}
	keys := make([]string, 0, len(o.HeuristicWeights))
	for k := range o.HeuristicWeights {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		w := o.HeuristicWeights[schema.MetricKey(k)]
		if _, ok := schema.ValidMetricKeys[schema.MetricKey(k)]; !ok {
			errs = append(errs, fmt.Errorf("heuristic weight for unknown metric %q", k))
		} else if math.IsNaN(w) || w < 0 {
			errs = append(errs, fmt.Errorf("heuristic weight for %s must be a non-negative number (received %g)", k, w))
		}
	}
	return errors.Join(errs...)
}
