package synth

import (
	"math"

	"github.com/huangsam/tribal/schema"
)

// Default values for the generator.
const (
	DefaultProjects          = 5
	DefaultMinRepos          = 3
	DefaultMaxRepos          = 15
	DefaultMaxExtraLanguages = 4
	DefaultBackgroundRate    = 0.3
	DefaultProjectEffectSD   = 0.5
)

// DefaultLanguages returns the default catalog, ordered by popularity.
func DefaultLanguages() []Language {
	return []Language{
		{"Python", 15}, {"JavaScript", 14}, {"Java", 13}, {"C#", 7},
		{"PHP", 6}, {"C++", 6}, {"TypeScript", 5}, {"SQL", 5},
		{"Ruby", 4}, {"Swift", 3}, {"Kotlin", 3}, {"Go", 3}, {".NET", 3},
		{"Rust", 2}, {"Scala", 2}, {"Bash", 2}, {"HTML", 2}, {"CSS", 2}, {"C", 2},
		{"Perl", 1}, {"Lua", 1}, {"Haskell", 1}, {"Clojure", 1}, {"Elixir", 1},
		{"Dart", 1}, {"Groovy", 1}, {"Objective-C", 1}, {"PowerShell", 1},
		{"Erlang", 1}, {"Julia", 1}, {"Fortran", 1}, {"R", 1}, {"MATLAB", 1},
		{"VBA", 1}, {"Rails", 1}, {"Flutter", 1}, {"Octave", 1}, {"F#", 1},
	}
}

// DefaultAffinity returns the default asymmetric affinity matrix.
func DefaultAffinity() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"Python":      {"Bash": 0.3, "R": 0.2, "JavaScript": -0.2, "Java": -0.5},
		"JavaScript":  {"TypeScript": 0.5, "HTML": 0.4, "CSS": 0.4, "Python": -0.2, "Java": -0.4},
		"Java":        {"Kotlin": 0.4, "Scala": 0.3, "Groovy": 0.3, "Python": -0.5, "JavaScript": -0.4},
		"C#":          {".NET": 0.5, "F#": 0.3, "PowerShell": 0.2, "Java": -0.4},
		"PHP":         {"JavaScript": 0.3, "HTML": 0.3, "CSS": 0.3, "Python": -0.3},
		"C++":         {"C": 0.4, "Python": 0.2, "Java": -0.3},
		"TypeScript":  {"JavaScript": 0.5, "HTML": 0.4, "CSS": 0.4},
		"Ruby":        {"Rails": 0.4, "JavaScript": 0.2, "Java": -0.3},
		"Swift":       {"Objective-C": 0.3, "C++": -0.2, "Python": -0.2},
		"Kotlin":      {"Java": 0.4, "Scala": 0.3, "Groovy": 0.2},
		"Go":          {"C": 0.2, "Python": 0.1, "Java": -0.2},
		"Rust":        {"C": 0.3, "C++": 0.3, "Python": 0.1},
		"Scala":       {"Java": 0.3, "Kotlin": 0.3, "Groovy": 0.2},
		"Perl":        {"Python": 0.2, "Bash": 0.3, "R": -0.2},
		"Lua":         {"C": 0.3, "Python": 0.1, "Java": -0.2},
		"Haskell":     {"Scala": 0.2, "Erlang": 0.1, "Python": -0.1},
		"Clojure":     {"Java": 0.3, "Scala": 0.2, "Kotlin": 0.1},
		"Elixir":      {"Erlang": 0.4, "Ruby": 0.2, "Python": -0.1},
		"Dart":        {"Flutter": 0.5, "JavaScript": 0.1, "Java": -0.2},
		"Groovy":      {"Java": 0.3, "Scala": 0.2, "Kotlin": 0.2},
		"Objective-C": {"Swift": 0.3, "C++": -0.2, "Python": -0.2},
		"Bash":        {"Python": 0.3, "Perl": 0.3, "PowerShell": -0.3},
		"PowerShell":  {"C#": 0.3, "Bash": -0.3, ".NET": 0.4},
		"Erlang":      {"Elixir": 0.4, "Scala": 0.1, "Java": -0.2},
		"Julia":       {"Python": 0.3, "R": 0.4, "MATLAB": 0.3},
		"Fortran":     {"C": 0.2, "MATLAB": 0.3, "Python": -0.1},
		"R":           {"Python": 0.3, "Julia": 0.4, "MATLAB": 0.3},
		"MATLAB":      {"Octave": 0.4, "Python": 0.2, "R": 0.3},
		"VBA":         {"SQL": 0.3, "Python": -0.2, "Java": -0.3},
		"SQL":         {"Python": 0.2, "Java": 0.1, "PHP": 0.3},
		"HTML":        {"CSS": 0.5, "JavaScript": 0.4},
		"CSS":         {"HTML": 0.5, "JavaScript": 0.4},
		".NET":        {"C#": 0.5, "F#": 0.3, "PowerShell": 0.4},
		"Rails":       {"Ruby": 0.4},
		"Flutter":     {"Dart": 0.5},
		"Octave":      {"MATLAB": 0.4},
		"F#":          {"C#": 0.3, ".NET": 0.3},
	}
}

// DefaultLabelWeights returns the coefficients of the synthetic risk proxy.
// Commit frequency lowers risk; staleness, slow reviews and sprawl raise it.
func DefaultLabelWeights() map[schema.MetricKey]float64 {
	return map[schema.MetricKey]float64{
		schema.DaysSinceLastCommitKey: 0.35,
		schema.AgeDaysKey:             0.10,
		schema.CommitFrequencyKey:     -0.45,
		schema.OpenIssueRatioKey:      0.20,
		schema.PRResolutionDaysKey:    0.30,
		schema.LanguageCountKey:       0.25,
		schema.AvgCommitsPerMonthKey:  0.0,
	}
}

// DefaultConfig returns a complete, valid generator configuration.
func DefaultConfig() Config {
	return Config{
		Projects:          DefaultProjects,
		MinRepos:          DefaultMinRepos,
		MaxRepos:          DefaultMaxRepos,
		MaxExtraLanguages: DefaultMaxExtraLanguages,
		BackgroundRate:    DefaultBackgroundRate,
		ProjectEffectSD:   DefaultProjectEffectSD,
		Languages:         DefaultLanguages(),
		Affinity:          DefaultAffinity(),
		Bytes: BytesConfig{
			MinTotal:      50_000,
			MaxTotal:      5_000_000,
			DominantAlpha: 4,
			TailAlpha:     1,
		},
		Metrics: MetricsConfig{
			AgeMu:             math.Log(900),
			AgeSigma:          0.8,
			MinAgeDays:        30,
			FrequencyMu:       math.Log(4),
			FrequencySigma:    0.6,
			AgeCoupling:       0.35,
			SizeCoupling:      0.25,
			ProjectCoupling:   1.0,
			MonthlyNoise:      0.35,
			StalenessScale:    1.0,
			IssueAlpha:        2,
			IssueBeta:         6,
			IssueCoupling:     0.5,
			PRMu:              math.Log(2.5),
			PRSigma:           0.6,
			PRAgeCoupling:     0.2,
			PRProjectCoupling: 0.5,
		},
		Label: LabelConfig{
			Enabled:       true,
			Coverage:      1.0,
			Center:        50,
			Scale:         15,
			Noise:         0.5,
			ProjectWeight: 0.5,
			Weights:       DefaultLabelWeights(),
		},
	}
}
