package schema

import "time"

// RankedRepository adds a rank to a RepositoryEstimate.
type RankedRepository struct {
	Rank int `json:"rank"`
	RepositoryEstimate
}

// RankedProject adds a rank to a ProjectEstimate.
type RankedProject struct {
	Rank int `json:"rank"`
	ProjectEstimate
}

// EnrichRepositories numbers an already ranked list of repository estimates.
func EnrichRepositories(repos []RepositoryEstimate) []RankedRepository {
	output := make([]RankedRepository, len(repos))
	for i, r := range repos {
		output[i] = RankedRepository{Rank: i + 1, RepositoryEstimate: r}
	}
	return output
}

// EnrichProjects numbers an already ranked list of project estimates.
func EnrichProjects(projects []ProjectEstimate) []RankedProject {
	output := make([]RankedProject, len(projects))
	for i, p := range projects {
		output[i] = RankedProject{Rank: i + 1, ProjectEstimate: p}
	}
	return output
}

// FixtureStatus represents the status of the topology fixture store.
type FixtureStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	SchemaVersion uint      `json:"schema_version"`
	Dirty         bool      `json:"dirty"`
	Projects      int       `json:"projects"`
	Repositories  int       `json:"repositories"`
	Rows          int       `json:"rows"`
	TotalBytes    int64     `json:"total_bytes"`
	Imports       int       `json:"imports"`
	LastImport    time.Time `json:"last_import"`
	LastSource    string    `json:"last_source"`
}

// ImportRecord is one row of the fixture import log.
type ImportRecord struct {
	ImportID   string    `json:"import_id"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	ImportedAt time.Time `json:"imported_at"`
}

// MigrationResult describes what a fixture schema migration did.
type MigrationResult struct {
	Backend DatabaseBackend `json:"backend"`
	From    uint            `json:"from"`
	To      uint            `json:"to"`
	Changed bool            `json:"changed"`
}
