package synth

import (
	"math"

	"github.com/huangsam/tribal/schema"
)

// weeksPerMonth converts weekly commit rates to monthly ones.
const weeksPerMonth = 4.345

// sizeScale standardizes log total bytes against the configured log-uniform range.
type sizeScale struct {
	mean, sd float64
}

func newSizeScale(cfg BytesConfig) sizeScale {
	lo, hi := math.Log(float64(cfg.MinTotal)), math.Log(float64(cfg.MaxTotal))
	return sizeScale{mean: (lo + hi) / 2, sd: (hi - lo) / math.Sqrt(12)}
}

func (s sizeScale) z(total float64) float64 {
	if s.sd == 0 || total <= 0 {
		return 0
	}
	return (math.Log(total) - s.mean) / s.sd
}

// drawMetrics fills the seven metrics of one repository. The draws are
// coupled through repository age, total size and the project's latent
// activity effect; a positive effect means a more active project.
func drawMetrics(state *State, cfg MetricsConfig, row *schema.RepositoryMetrics, zSize, effect float64, languages int) {
	age := max(state.LogNormal(cfg.AgeMu, cfg.AgeSigma), cfg.MinAgeDays)
	zAge := (math.Log(max(age, 1)) - cfg.AgeMu) / cfg.AgeSigma

	freqLog := cfg.FrequencyMu - cfg.AgeCoupling*zAge + cfg.SizeCoupling*zSize + cfg.ProjectCoupling*effect
	freq := state.LogNormal(freqLog, cfg.FrequencySigma)
	zFreq := (math.Log(freq) - cfg.FrequencyMu) / cfg.FrequencySigma

	monthly := freq * weeksPerMonth * state.LogNormal(0, cfg.MonthlyNoise)
	staleness := min(state.Exponential(7*cfg.StalenessScale/freq), age)
	issues := state.Beta(cfg.IssueAlpha*math.Exp(-cfg.IssueCoupling*zFreq), cfg.IssueBeta)
	pr := state.LogNormal(cfg.PRMu+cfg.PRAgeCoupling*zAge-cfg.PRProjectCoupling*effect, cfg.PRSigma)

	row.AgeDays = age
	row.CommitFrequency = freq
	row.AvgCommitsPerMonth = monthly
	row.DaysSinceLastCommit = staleness
	row.OpenIssueRatio = clamp01(issues)
	row.PRResolutionDays = pr
	row.LanguageCount = languages
}
