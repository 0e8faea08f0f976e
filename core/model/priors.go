package model

import "fmt"

// Priors holds the hyper-prior widths of the model. They are configuration,
// not inferred, and must all be positive.
type Priors struct {
	MuSD       float64 `mapstructure:"mu-sd" json:"mu_sd" validate:"gt=0"`             // mu ~ N(0, MuSD^2)
	WeightSD   float64 `mapstructure:"weight-sd" json:"weight_sd" validate:"gt=0"`     // w_k ~ N(0, WeightSD^2)
	SigmaShape float64 `mapstructure:"sigma-shape" json:"sigma_shape" validate:"gt=0"` // sigma^2 ~ InvGamma(shape, scale)
	SigmaScale float64 `mapstructure:"sigma-scale" json:"sigma_scale" validate:"gt=0"`
	TauShape   float64 `mapstructure:"tau-shape" json:"tau_shape" validate:"gt=0"` // tau^2 ~ InvGamma(shape, scale)
	TauScale   float64 `mapstructure:"tau-scale" json:"tau_scale" validate:"gt=0"`
}

// DefaultPriors returns weakly informative priors on the standardized scale.
func DefaultPriors() Priors {
	return Priors{
		MuSD:       1.0,
		WeightSD:   1.0,
		SigmaShape: 2.0,
		SigmaScale: 1.0,
		TauShape:   2.0,
		TauScale:   0.5,
	}
}

func (p Priors) muDist() string {
	return fmt.Sprintf("Normal(0, %g^2)", p.MuSD)
}

func (p Priors) weightDist() string {
	return fmt.Sprintf("Normal(0, %g^2)", p.WeightSD)
}

func (p Priors) sigmaDist() string {
	return fmt.Sprintf("sigma^2 ~ InvGamma(%g, %g)", p.SigmaShape, p.SigmaScale)
}

func (p Priors) tauDist() string {
	return fmt.Sprintf("tau^2 ~ InvGamma(%g, %g)", p.TauShape, p.TauScale)
}
