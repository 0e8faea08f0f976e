package synth

import (
	"fmt"

	"github.com/huangsam/tribal/schema"
	"go.uber.org/zap"
)

// Generator draws datasets from a validated configuration.
// It holds no random state; every call gets its own State.
type Generator struct {
	cfg     Config
	catalog *catalog
	size    sizeScale
}

// New validates cfg and returns a generator for it.
func New(cfg Config) (*Generator, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()
	return &Generator{
		cfg:     cfg,
		catalog: newCatalog(cfg),
		size:    newSizeScale(cfg.Bytes),
	}, nil
}

// Config returns a copy of the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg.Clone()
}

// Generate draws a complete dataset. The same seed always yields the same dataset.
func (g *Generator) Generate(seed uint64) (*schema.Dataset, error) {
	state := NewState(seed)
	data := &schema.Dataset{}
	var effects []float64

	for p := 1; p <= g.cfg.Projects; p++ {
		projectID := fmt.Sprintf("Project_%d", p)
		effect := state.Normal(0, g.cfg.ProjectEffectSD)
		repos := state.IntRange(g.cfg.MinRepos, g.cfg.MaxRepos)

		for r := 1; r <= repos; r++ {
			repoID := fmt.Sprintf("Repo_%d", r)
			langs := g.catalog.selectLanguages(state, g.cfg.MaxExtraLanguages, g.cfg.BackgroundRate)
			total, counts := byteShares(state, g.cfg.Bytes, len(langs))
			for i, l := range langs {
				data.Usage = append(data.Usage, schema.LanguageUsage{
					ProjectID:    projectID,
					RepositoryID: repoID,
					Language:     g.catalog.names[l],
					ByteCount:    counts[i],
				})
			}

			row := schema.RepositoryMetrics{
				ProjectID:    projectID,
				RepositoryID: repoID,
				Name:         projectID + "/" + repoID,
			}
			drawMetrics(state, g.cfg.Metrics, &row, g.size.z(total), effect, len(langs))
			data.Metrics = append(data.Metrics, row)
			effects = append(effects, effect)
		}
	}
	attachLabels(state, g.cfg.Label, data.Metrics, effects)

	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("generated dataset is inconsistent: %w", err)
	}
	zap.L().Debug("Generated dataset",
		zap.Uint64("seed", seed),
		zap.Int("projects", g.cfg.Projects),
		zap.Int("repositories", len(data.Metrics)),
		zap.Int("usage_rows", len(data.Usage)))
	return data, nil
}

// SynthesizeMetrics draws a metrics row for every repository in a supplied
// topology. The usage rows are kept as given; language count and size come
// from them rather than from the language model.
func (g *Generator) SynthesizeMetrics(usage []schema.LanguageUsage, seed uint64) (*schema.Dataset, error) {
	if len(usage) == 0 {
		return nil, fmt.Errorf("topology has no usage rows")
	}
	if err := schema.ValidateTopology(usage); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}

	state := NewState(seed)
	data := &schema.Dataset{Usage: append([]schema.LanguageUsage(nil), usage...)}
	byRepo := data.UsageByRepository()
	projectEffect := make(map[string]float64)
	seen := make(map[schema.RepositoryKey]struct{})
	var effects []float64

	for _, u := range usage {
		key := u.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		effect, ok := projectEffect[key.ProjectID]
		if !ok {
			effect = state.Normal(0, g.cfg.ProjectEffectSD)
			projectEffect[key.ProjectID] = effect
		}

		var total int64
		languages := make(map[string]struct{})
		for _, edge := range byRepo[key] {
			total += edge.ByteCount
			languages[edge.Language] = struct{}{}
		}

		row := schema.RepositoryMetrics{
			ProjectID:    key.ProjectID,
			RepositoryID: key.RepositoryID,
			Name:         key.String(),
		}
		drawMetrics(state, g.cfg.Metrics, &row, g.size.z(float64(total)), effect, len(languages))
		data.Metrics = append(data.Metrics, row)
		effects = append(effects, effect)
	}
	attachLabels(state, g.cfg.Label, data.Metrics, effects)

	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized dataset is inconsistent: %w", err)
	}
	return data, nil
}
