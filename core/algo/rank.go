package algo

import (
	"sort"

	"github.com/huangsam/tribal/schema"
)

// RankRepositories sorts repository estimates by posterior risk in descending
// order and returns the top 'limit' entries. A limit of zero or less, or one
// greater than the number of estimates, returns all of them.
func RankRepositories(repos []schema.RepositoryEstimate, limit int) []schema.RepositoryEstimate {
	sort.SliceStable(repos, func(i, j int) bool {
		if repos[i].RiskMean != repos[j].RiskMean {
			return repos[i].RiskMean > repos[j].RiskMean
		}
		return repos[i].Name < repos[j].Name
	})
	if limit > 0 && len(repos) > limit {
		return repos[:limit]
	}
	return repos
}

// RankProjects sorts project estimates by posterior risk in descending order
// and returns the top 'limit' entries.
func RankProjects(projects []schema.ProjectEstimate, limit int) []schema.ProjectEstimate {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].RiskMean != projects[j].RiskMean {
			return projects[i].RiskMean > projects[j].RiskMean
		}
		return projects[i].ProjectID < projects[j].ProjectID
	})
	if limit > 0 && len(projects) > limit {
		return projects[:limit]
	}
	return projects
}
