// Package schema has the shared data model for every part of tribal.
package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// LanguageUsage is one edge between a repository and a language, weighted by bytes.
type LanguageUsage struct {
	ProjectID    string `json:"project_id" yaml:"project_id" db:"project_id"`
	RepositoryID string `json:"repository_id" yaml:"repository_id" db:"repository_id"`
	Language     string `json:"language" yaml:"language" db:"language"`
	ByteCount    int64  `json:"byte_count" yaml:"byte_count" db:"byte_count"`
}

// RepositoryMetrics is the row group of risk-relevant metrics for one repository.
type RepositoryMetrics struct {
	ProjectID           string   `json:"project_id"`
	RepositoryID        string   `json:"repository_id"`
	Name                string   `json:"name"`
	DaysSinceLastCommit float64  `json:"days_since_last_commit"` // Days since the most recent commit
	AgeDays             float64  `json:"age_days"`               // Days since the first commit
	CommitFrequency     float64  `json:"commit_frequency"`       // Commits per week
	OpenIssueRatio      float64  `json:"open_issue_ratio"`       // Open issues over all issues, in [0,1]
	PRResolutionDays    float64  `json:"pr_resolution_days"`     // Median days to merge or close a pull request
	LanguageCount       int      `json:"language_count"`         // Distinct languages with usage edges
	AvgCommitsPerMonth  float64  `json:"avg_commits_per_month"`  // Commits per calendar month
	RiskProxy           *float64 `json:"risk_proxy,omitempty"`   // Optional hand-labeled risk on a 0-100 scale
}

// Dataset is the tabular contract between the generator and the model.
type Dataset struct {
	Usage   []LanguageUsage     `json:"usage"`
	Metrics []RepositoryMetrics `json:"metrics"`
}

// RepositoryKey identifies a repository inside its project.
type RepositoryKey struct {
	ProjectID    string
	RepositoryID string
}

// KeySeparator joins project and repository IDs in a RepositoryKey string.
// IDs may not contain it, so every key string is unambiguous.
const KeySeparator = "/"

// String returns the key as project/repository.
func (k RepositoryKey) String() string {
	return k.ProjectID + KeySeparator + k.RepositoryID
}

// validateIDs rejects IDs that would make the key string ambiguous.
func (k RepositoryKey) validateIDs() error {
	if strings.Contains(k.ProjectID, KeySeparator) || strings.Contains(k.RepositoryID, KeySeparator) {
		return fmt.Errorf("project_id %q and repository_id %q must not contain %q", k.ProjectID, k.RepositoryID, KeySeparator)
	}
	return nil
}

// ProjectSummary is a per-project rollup of a dataset used for display.
type ProjectSummary struct {
	ProjectID        string  `json:"project_id"`
	Repositories     int     `json:"repositories"`
	Languages        int     `json:"languages"`
	TotalBytes       int64   `json:"total_bytes"`
	DominantLanguage string  `json:"dominant_language"`
	Labeled          int     `json:"labeled"`
	MeanFrequency    float64 `json:"mean_commit_frequency"`
}

// Key returns the repository key of the metrics row.
func (m RepositoryMetrics) Key() RepositoryKey {
	return RepositoryKey{ProjectID: m.ProjectID, RepositoryID: m.RepositoryID}
}

// Key returns the repository key of the usage row.
func (u LanguageUsage) Key() RepositoryKey {
	return RepositoryKey{ProjectID: u.ProjectID, RepositoryID: u.RepositoryID}
}

// Value returns the raw value of a single metric.
func (m RepositoryMetrics) Value(key MetricKey) float64 {
	switch key {
	case DaysSinceLastCommitKey:
		return m.DaysSinceLastCommit
	case AgeDaysKey:
		return m.AgeDays
	case CommitFrequencyKey:
		return m.CommitFrequency
	case OpenIssueRatioKey:
		return m.OpenIssueRatio
	case PRResolutionDaysKey:
		return m.PRResolutionDays
	case LanguageCountKey:
		return float64(m.LanguageCount)
	case AvgCommitsPerMonthKey:
		return m.AvgCommitsPerMonth
	default:
		return math.NaN()
	}
}

// Vector returns the seven metrics in AllMetricKeys order.
func (m RepositoryMetrics) Vector() [NumMetrics]float64 {
	var v [NumMetrics]float64
	for i, key := range AllMetricKeys {
		v[i] = m.Value(key)
	}
	return v
}

// Projects returns the project IDs in order of first appearance in the metrics table.
func (d *Dataset) Projects() []string {
	seen := make(map[string]struct{})
	var projects []string
	for _, m := range d.Metrics {
		if _, ok := seen[m.ProjectID]; ok {
			continue
		}
		seen[m.ProjectID] = struct{}{}
		projects = append(projects, m.ProjectID)
	}
	return projects
}

// Repositories returns the metrics rows that belong to a project.
func (d *Dataset) Repositories(projectID string) []RepositoryMetrics {
	var repos []RepositoryMetrics
	for _, m := range d.Metrics {
		if m.ProjectID == projectID {
			repos = append(repos, m)
		}
	}
	return repos
}

// UsageByRepository groups usage rows by repository, preserving row order.
func (d *Dataset) UsageByRepository() map[RepositoryKey][]LanguageUsage {
	grouped := make(map[RepositoryKey][]LanguageUsage)
	for _, u := range d.Usage {
		grouped[u.Key()] = append(grouped[u.Key()], u)
	}
	return grouped
}

// LabelCount returns how many repositories carry a risk proxy.
func (d *Dataset) LabelCount() int {
	n := 0
	for _, m := range d.Metrics {
		if m.RiskProxy != nil {
			n++
		}
	}
	return n
}

// Topology returns the nested project -> repository -> language -> bytes form.
func (d *Dataset) Topology() map[string]map[string]map[string]int64 {
	return TopologyFromUsage(d.Usage)
}

// TopologyFromUsage converts usage rows into the nested topology form.
func TopologyFromUsage(usage []LanguageUsage) map[string]map[string]map[string]int64 {
	topo := make(map[string]map[string]map[string]int64)
	for _, u := range usage {
		if topo[u.ProjectID] == nil {
			topo[u.ProjectID] = make(map[string]map[string]int64)
		}
		if topo[u.ProjectID][u.RepositoryID] == nil {
			topo[u.ProjectID][u.RepositoryID] = make(map[string]int64)
		}
		topo[u.ProjectID][u.RepositoryID][u.Language] += u.ByteCount
	}
	return topo
}

// UsageFromTopology flattens the nested topology form into usage rows.
// Keys are visited in sorted order so the result is deterministic.
func UsageFromTopology(topo map[string]map[string]map[string]int64) []LanguageUsage {
	var usage []LanguageUsage
	for _, project := range sortedKeys(topo) {
		repos := topo[project]
		for _, repo := range sortedKeys(repos) {
			langs := repos[repo]
			for _, lang := range sortedKeys(langs) {
				usage = append(usage, LanguageUsage{
					ProjectID:    project,
					RepositoryID: repo,
					Language:     lang,
					ByteCount:    langs[lang],
				})
			}
		}
	}
	return usage
}

// Summary returns a per-project rollup in project order.
func (d *Dataset) Summary() []ProjectSummary {
	usage := d.UsageByRepository()
	var out []ProjectSummary
	for _, project := range d.Projects() {
		repos := d.Repositories(project)
		langBytes := make(map[string]int64)
		s := ProjectSummary{ProjectID: project, Repositories: len(repos)}
		for _, m := range repos {
			for _, u := range usage[m.Key()] {
				langBytes[u.Language] += u.ByteCount
				s.TotalBytes += u.ByteCount
			}
			if m.RiskProxy != nil {
				s.Labeled++
			}
			s.MeanFrequency += m.CommitFrequency
		}
		if len(repos) > 0 {
			s.MeanFrequency /= float64(len(repos))
		}
		s.Languages = len(langBytes)
		var best int64 = -1
		for _, lang := range sortedKeys(langBytes) {
			if langBytes[lang] > best {
				best = langBytes[lang]
				s.DominantLanguage = lang
			}
		}
		out = append(out, s)
	}
	return out
}

// ValidateTopology checks the usage-table invariants on their own.
func ValidateTopology(usage []LanguageUsage) error {
	type edge struct {
		key      RepositoryKey
		language string
	}
	var errs []error
	seen := make(map[edge]int, len(usage))
	for i, u := range usage {
		switch {
		case u.ProjectID == "" || u.RepositoryID == "":
			errs = append(errs, fmt.Errorf("usage row %d: project_id and repository_id are required", i))
			continue
		case u.Language == "":
			errs = append(errs, fmt.Errorf("usage row %d (%s): language is required", i, u.Key()))
			continue
		case u.ByteCount < 0:
			errs = append(errs, fmt.Errorf("usage row %d (%s, %s): byte_count must be >= 0 (received %d)", i, u.Key(), u.Language, u.ByteCount))
		}
		if err := u.Key().validateIDs(); err != nil {
			errs = append(errs, fmt.Errorf("usage row %d: %w", i, err))
		}
		e := edge{u.Key(), u.Language}
		if first, dup := seen[e]; dup {
			errs = append(errs, fmt.Errorf("usage row %d (%s, %s): duplicate language row, first seen at row %d", i, u.Key(), u.Language, first))
			continue
		}
		seen[e] = i
	}
	return errors.Join(errs...)
}

// Validate checks every schema invariant and reports all violations together.
func (d *Dataset) Validate() error {
	if len(d.Metrics) == 0 {
		return errors.New("dataset has no repositories")
	}
	errs := []error{ValidateTopology(d.Usage)}

	usage := d.UsageByRepository()
	seen := make(map[RepositoryKey]struct{}, len(d.Metrics))
	for _, m := range d.Metrics {
		key := m.Key()
		if m.ProjectID == "" || m.RepositoryID == "" {
			errs = append(errs, errors.New("metrics row: project_id and repository_id are required"))
			continue
		}
		if err := key.validateIDs(); err != nil {
			errs = append(errs, fmt.Errorf("metrics row: %w", err))
		}
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("repository %s: duplicate metrics row", key))
		}
		seen[key] = struct{}{}
		if len(usage[key]) == 0 {
			errs = append(errs, fmt.Errorf("repository %s: no language usage rows", key))
		}
		for _, metric := range AllMetricKeys {
			v := m.Value(metric)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = append(errs, fmt.Errorf("repository %s: %s is not finite", key, metric))
			} else if v < 0 {
				errs = append(errs, fmt.Errorf("repository %s: %s must be >= 0 (received %g)", key, metric, v))
			}
		}
		if m.OpenIssueRatio > 1 {
			errs = append(errs, fmt.Errorf("repository %s: open_issue_ratio must be in [0,1] (received %g)", key, m.OpenIssueRatio))
		}
		if m.LanguageCount < 1 {
			errs = append(errs, fmt.Errorf("repository %s: language_count must be at least 1", key))
		}
		if m.RiskProxy != nil && (math.IsNaN(*m.RiskProxy) || math.IsInf(*m.RiskProxy, 0)) {
			errs = append(errs, fmt.Errorf("repository %s: risk_proxy is not finite", key))
		}
	}
	orphans := make(map[RepositoryKey]struct{})
	for _, u := range d.Usage {
		key := u.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		if _, reported := orphans[key]; !reported {
			orphans[key] = struct{}{}
			errs = append(errs, fmt.Errorf("repository %s: usage rows without a metrics row", key))
		}
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
