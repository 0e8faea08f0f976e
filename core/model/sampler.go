package model

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/huangsam/tribal/schema"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Trace column layout. It matches the order of Graph.Stochastic.
const (
	muCol     = 0
	weightCol = 1
	sigmaCol  = weightCol + schema.NumMetrics
	tauCol    = sigmaCol + 1
	alphaCol  = tauCol + 1

	// offsetCol is where the project offsets start in the location block.
	offsetCol = weightCol + schema.NumMetrics
)

// cancelCheckEvery is how many iterations run between context checks.
const cancelCheckEvery = 64

// jitterSteps bounds the retries on a non positive definite precision matrix.
const jitterSteps = 6

var errNotPositiveDefinite = errors.New("precision matrix is not positive definite")

// chain is one independent Markov chain. It owns its random source and state
// and is never touched by another goroutine while sampling.
type chain struct {
	id     int
	d      *design
	priors Priors
	src    *rand.PCG
	rng    *rand.Rand

	beta   []float64 // mu, weights, project offsets
	sigma2 float64
	tau2   float64
	y      []float64 // outcome with imputed values filled in

	xtx      *mat.SymDense // fixed cross product of the design
	iter     int
	trace    [][]float64 // kept draws, one row per draw
	shrink   [][]float64 // per draw, weight of each project's own evidence
	unpooled [][]float64 // per draw, each project's mean of y - w.z
}

func chainSource(seed uint64, id int) *rand.PCG {
	return rand.NewPCG(seed, 0xda3e39cb94b95bdb^uint64(id+1))
}

func newChain(id int, d *design, opts Options) *chain {
	src := chainSource(opts.Seed, id)
	c := &chain{
		id:     id,
		d:      d,
		priors: opts.Priors,
		src:    src,
		rng:    rand.New(src),
		beta:   make([]float64, d.dim()),
		y:      append([]float64(nil), d.y...),
		xtx:    crossProduct(d),
	}

	// Overdispersed starting points so that R-hat can detect poor mixing.
	c.beta[muCol] = c.rng.NormFloat64()
	for k := range schema.NumMetrics {
		c.beta[weightCol+k] = 0.5 * c.rng.NormFloat64()
	}
	for p := range d.projects {
		c.beta[offsetCol+p] = 0.5 * c.rng.NormFloat64()
	}
	c.sigma2 = math.Exp(0.5 * c.rng.NormFloat64())
	c.tau2 = 0.25 * math.Exp(0.5*c.rng.NormFloat64())
	for _, r := range d.missing {
		c.y[r] = c.rng.NormFloat64()
	}
	return c
}

// crossProduct returns X'X for the design X = [1, z, project indicator].
func crossProduct(d *design) *mat.SymDense {
	dim := d.dim()
	xtx := mat.NewSymDense(dim, nil)
	row := make([]float64, dim)
	for r := range d.n() {
		fillRow(d, r, row)
		for i := range dim {
			if row[i] == 0 {
				continue
			}
			for j := i; j < dim; j++ {
				xtx.SetSym(i, j, xtx.At(i, j)+row[i]*row[j])
			}
		}
	}
	return xtx
}

// fillRow writes the design row of repository r into row.
func fillRow(d *design, r int, row []float64) {
	clear(row)
	row[0] = 1
	copy(row[weightCol:offsetCol], d.z[r])
	row[offsetCol+d.project[r]] = 1
}

// theta returns the latent risk of repository r under the current state.
func (c *chain) theta(r int) float64 {
	t := c.beta[muCol] + c.alpha(c.d.project[r])
	for k, z := range c.d.z[r] {
		t += c.beta[weightCol+k] * z
	}
	return t
}

// alpha returns the offset of project p.
func (c *chain) alpha(p int) float64 {
	return c.beta[offsetCol+p]
}

// run advances the chain by iters iterations, keeping draws once warmup is done.
func (c *chain) run(ctx context.Context, iters, warmup int) error {
	for i := range iters {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.step(); err != nil {
			return err
		}
		if c.iter >= warmup {
			c.record()
		}
		c.iter++
	}
	return nil
}

// step is one Gibbs sweep.
func (c *chain) step() error {
	c.impute()
	if err := c.drawLocation(); err != nil {
		return &NumericalError{Block: "mu,w,alpha", Chain: c.id, Err: err}
	}
	c.drawSigma()
	c.drawTau()
	return nil
}

// impute draws every missing outcome from its predictive distribution.
func (c *chain) impute() {
	sd := math.Sqrt(c.sigma2)
	for _, r := range c.d.missing {
		c.y[r] = c.theta(r) + sd*c.rng.NormFloat64()
	}
}

// drawLocation samples mu, the weights and the project offsets jointly from
// their multivariate normal conditional.
func (c *chain) drawLocation() error {
	dim := c.d.dim()
	prec := mat.NewSymDense(dim, nil)
	prec.ScaleSym(1/c.sigma2, c.xtx)
	prior := make([]float64, dim)
	prior[muCol] = 1 / (c.priors.MuSD * c.priors.MuSD)
	for k := range schema.NumMetrics {
		prior[weightCol+k] = 1 / (c.priors.WeightSD * c.priors.WeightSD)
	}
	for p := range c.d.projects {
		prior[offsetCol+p] = 1 / c.tau2
	}
	for i, v := range prior {
		prec.SetSym(i, i, prec.At(i, i)+v)
	}

	xty := mat.NewVecDense(dim, nil)
	row := make([]float64, dim)
	for r := range c.d.n() {
		fillRow(c.d, r, row)
		for i, x := range row {
			if x != 0 {
				xty.SetVec(i, xty.AtVec(i)+x*c.y[r]/c.sigma2)
			}
		}
	}

	jitter := 0.0
	for attempt := range jitterSteps {
		if attempt > 0 {
			jitter = 1e-10 * math.Pow(10, float64(attempt))
			for i := range dim {
				prec.SetSym(i, i, prec.At(i, i)+jitter)
			}
		}
		var chol mat.Cholesky
		if !chol.Factorize(prec) {
			continue
		}
		var mean mat.VecDense
		if err := chol.SolveVecTo(&mean, xty); err != nil {
			continue
		}
		normal, ok := distmv.NewNormalPrecision(mean.RawVector().Data, prec, c.src)
		if !ok {
			continue
		}
		normal.Rand(c.beta)
		return nil
	}
	return errNotPositiveDefinite
}

// drawSigma samples the residual variance from its inverse-gamma conditional.
func (c *chain) drawSigma() {
	ssr := 0.0
	for r := range c.d.n() {
		e := c.y[r] - c.theta(r)
		ssr += e * e
	}
	shape := c.priors.SigmaShape + float64(c.d.n())/2
	rate := c.priors.SigmaScale + ssr/2
	c.sigma2 = 1 / distuv.Gamma{Alpha: shape, Beta: rate, Src: c.src}.Rand()
}

// drawTau samples the between-project variance from its inverse-gamma conditional.
func (c *chain) drawTau() {
	ss := 0.0
	for p := range c.d.projects {
		a := c.alpha(p)
		ss += a * a
	}
	shape := c.priors.TauShape + float64(len(c.d.projects))/2
	rate := c.priors.TauScale + ss/2
	c.tau2 = 1 / distuv.Gamma{Alpha: shape, Beta: rate, Src: c.src}.Rand()
}

// record appends the current state to the trace along with the
// Rao-Blackwellized pieces of each project offset's conditional:
// E[alpha_p | rest] = B_p (ubar_p - mu) with B_p = (n_p/sigma^2) / (n_p/sigma^2 + 1/tau^2).
func (c *chain) record() {
	np := len(c.d.projects)
	row := make([]float64, alphaCol+np)
	copy(row[:sigmaCol], c.beta[:sigmaCol])
	row[sigmaCol] = math.Sqrt(c.sigma2)
	row[tauCol] = math.Sqrt(c.tau2)
	for p := range np {
		row[alphaCol+p] = c.alpha(p)
	}
	c.trace = append(c.trace, row)

	shrink := make([]float64, np)
	unpooled := make([]float64, np)
	for p, members := range c.d.members {
		sum := 0.0
		for _, r := range members {
			resid := c.y[r]
			for k, z := range c.d.z[r] {
				resid -= c.beta[weightCol+k] * z
			}
			sum += resid
		}
		n := float64(len(members))
		unpooled[p] = sum / n
		data := n / c.sigma2
		shrink[p] = data / (data + 1/c.tau2)
	}
	c.shrink = append(c.shrink, shrink)
	c.unpooled = append(c.unpooled, unpooled)
}
