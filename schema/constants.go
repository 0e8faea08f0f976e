package schema

// Custom string types for type safety.
type (
	// MetricKey identifies one of the seven repository risk metrics.
	MetricKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// ProxySource selects the outcome the risk model regresses on.
	ProxySource string

	// Level is the position of a parameter in the pooling hierarchy.
	Level string

	// SignStatus describes how a learned weight compares to its expected sign.
	SignStatus string

	// DatabaseBackend represents the database backend for the topology fixture store.
	DatabaseBackend string
)

// Metric keys, in the canonical column order of the metrics table.
const (
	DaysSinceLastCommitKey MetricKey = "days_since_last_commit"
	AgeDaysKey             MetricKey = "age_days"
	CommitFrequencyKey     MetricKey = "commit_frequency"
	OpenIssueRatioKey      MetricKey = "open_issue_ratio"
	PRResolutionDaysKey    MetricKey = "pr_resolution_days"
	LanguageCountKey       MetricKey = "language_count"
	AvgCommitsPerMonthKey  MetricKey = "avg_commits_per_month"
)

// AllMetricKeys lists the metric keys in canonical order.
// Anything that builds a design matrix or a table header iterates this slice.
var AllMetricKeys = []MetricKey{
	DaysSinceLastCommitKey,
	AgeDaysKey,
	CommitFrequencyKey,
	OpenIssueRatioKey,
	PRResolutionDaysKey,
	LanguageCountKey,
	AvgCommitsPerMonthKey,
}

// NumMetrics is the length of the metric vector.
const NumMetrics = 7

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All proxy sources supported.
const (
	AutoProxy      ProxySource = "auto" // default
	LabelProxy     ProxySource = "label"
	HeuristicProxy ProxySource = "heuristic"
)

// Levels of the pooling hierarchy.
const (
	GlobalLevel     Level = "global"
	ProjectLevel    Level = "project"
	RepositoryLevel Level = "repository"
)

// Weight sign outcomes.
const (
	SignConfirmed    SignStatus = "confirmed"
	SignInconclusive SignStatus = "inconclusive"
	SignContradicted SignStatus = "contradicted"
	SignUnspecified  SignStatus = "unspecified"
)

// All fixture backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidProxySources lists all valid proxy sources.
var ValidProxySources = map[ProxySource]struct{}{
	AutoProxy:      {},
	LabelProxy:     {},
	HeuristicProxy: {},
}

// ValidDatabaseBackends lists all valid fixture backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidMetricKeys lists all valid metric keys.
var ValidMetricKeys = map[MetricKey]struct{}{
	DaysSinceLastCommitKey: {},
	AgeDaysKey:             {},
	CommitFrequencyKey:     {},
	OpenIssueRatioKey:      {},
	PRResolutionDaysKey:    {},
	LanguageCountKey:       {},
	AvgCommitsPerMonthKey:  {},
}

// ExpectedWeightSign returns the direction a metric is expected to push risk:
// -1 for risk-reducing, +1 for risk-increasing and 0 when no direction is assumed.
func ExpectedWeightSign(key MetricKey) int {
	switch key {
	case CommitFrequencyKey:
		return -1
	case PRResolutionDaysKey, LanguageCountKey, DaysSinceLastCommitKey:
		return 1
	default:
		return 0
	}
}

// GetDefaultWeights returns the default heuristic weights for the risk proxy.
// The weights sum to 1.
func GetDefaultWeights() map[MetricKey]float64 {
	return map[MetricKey]float64{
		DaysSinceLastCommitKey: 0.25,
		AgeDaysKey:             0.05,
		CommitFrequencyKey:     0.25,
		OpenIssueRatioKey:      0.10,
		PRResolutionDaysKey:    0.15,
		LanguageCountKey:       0.15,
		AvgCommitsPerMonthKey:  0.05,
	}
}
