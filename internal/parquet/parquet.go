// Package parquet provides row schemas and helpers for exchanging tribal
// datasets, estimates and posterior samples as Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/tribal/schema"
	"github.com/parquet-go/parquet-go"
)

// sampleBatch is how many posterior samples SampleWriter buffers per write.
const sampleBatch = 4096

// UsageRow is one language usage edge.
type UsageRow struct {
	ProjectID    string `parquet:"project_id,snappy,dict"`
	RepositoryID string `parquet:"repository_id,snappy,dict"`
	Language     string `parquet:"language,snappy,dict"`
	ByteCount    int64  `parquet:"byte_count,snappy"`
}

// MetricsRow is the metric row group of one repository.
type MetricsRow struct {
	ProjectID           string  `parquet:"project_id,snappy,dict"`
	RepositoryID        string  `parquet:"repository_id,snappy,dict"`
	Name                string  `parquet:"name,snappy"`
	DaysSinceLastCommit float64 `parquet:"days_since_last_commit,snappy"`
	AgeDays             float64 `parquet:"age_days,snappy"`
	CommitFrequency     float64 `parquet:"commit_frequency,snappy"`
	OpenIssueRatio      float64 `parquet:"open_issue_ratio,snappy"`
	PRResolutionDays    float64 `parquet:"pr_resolution_days,snappy"`
	LanguageCount       int32   `parquet:"language_count,snappy"`
	AvgCommitsPerMonth  float64 `parquet:"avg_commits_per_month,snappy"`

	// RiskProxy is the optional hand-labeled risk (nullable)
	RiskProxy *float64 `parquet:"risk_proxy,optional,snappy"`
}

// RepositoryEstimateRow is the posterior risk summary of one repository.
type RepositoryEstimateRow struct {
	RunID        string  `parquet:"run_id,snappy,dict"`
	Rank         int32   `parquet:"rank,snappy"`
	ProjectID    string  `parquet:"project_id,snappy,dict"`
	RepositoryID string  `parquet:"repository_id,snappy"`
	RiskMean     float64 `parquet:"risk_mean,snappy"`
	RiskSD       float64 `parquet:"risk_sd,snappy"`
	RiskLowerCI  float64 `parquet:"risk_lower_ci,snappy"`
	RiskUpperCI  float64 `parquet:"risk_upper_ci,snappy"`
	RiskIndex    float64 `parquet:"risk_index,snappy"`
	Label        string  `parquet:"label,snappy,dict"`
	Imputed      bool    `parquet:"imputed"`
}

// ProjectEstimateRow is the pooled posterior risk summary of one project.
type ProjectEstimateRow struct {
	RunID          string  `parquet:"run_id,snappy,dict"`
	Rank           int32   `parquet:"rank,snappy"`
	ProjectID      string  `parquet:"project_id,snappy"`
	Repositories   int32   `parquet:"repositories,snappy"`
	RiskMean       float64 `parquet:"risk_mean,snappy"`
	RiskSD         float64 `parquet:"risk_sd,snappy"`
	RiskLowerCI    float64 `parquet:"risk_lower_ci,snappy"`
	RiskUpperCI    float64 `parquet:"risk_upper_ci,snappy"`
	RiskIndex      float64 `parquet:"risk_index,snappy"`
	Label          string  `parquet:"label,snappy,dict"`
	PopulationMean float64 `parquet:"population_mean,snappy"`
	UnpooledMean   float64 `parquet:"unpooled_mean,snappy"`
	Shrinkage      float64 `parquet:"shrinkage,snappy"`
}

// SampleRow is one posterior draw of one parameter, in long format.
type SampleRow struct {
	RunID     string  `parquet:"run_id,snappy,dict"`
	Chain     int32   `parquet:"chain,snappy"`
	Draw      int32   `parquet:"draw,snappy"`
	Parameter string  `parquet:"parameter,snappy,dict"`
	Value     float64 `parquet:"value,snappy"`
}

// Write writes rows as a single Parquet file to w.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ReadFile reads every row of a Parquet file at path.
func ReadFile[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows[:n], nil
}

// SampleWriter streams posterior samples to a Parquet file in batches.
type SampleWriter struct {
	writer *parquet.GenericWriter[SampleRow]
	buf    []SampleRow
	rows   int
}

// NewSampleWriter returns a SampleWriter that writes to w.
func NewSampleWriter(w io.Writer) *SampleWriter {
	return &SampleWriter{
		writer: parquet.NewGenericWriter[SampleRow](w),
		buf:    make([]SampleRow, 0, sampleBatch),
	}
}

// Write buffers one sample and flushes a full batch.
func (s *SampleWriter) Write(sample schema.PosteriorSample) error {
	s.buf = append(s.buf, FromSample(sample))
	if len(s.buf) == cap(s.buf) {
		return s.flush()
	}
	return nil
}

func (s *SampleWriter) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	if _, err := s.writer.Write(s.buf); err != nil {
		return fmt.Errorf("failed to write posterior samples: %w", err)
	}
	s.rows += len(s.buf)
	s.buf = s.buf[:0]
	return nil
}

// Rows returns how many samples have been flushed so far.
func (s *SampleWriter) Rows() int { return s.rows }

// Close flushes pending samples and finalizes the file footer.
func (s *SampleWriter) Close() error {
	if err := s.flush(); err != nil {
		_ = s.writer.Close()
		return err
	}
	return s.writer.Close()
}

// FromUsage converts usage edges to Parquet rows.
func FromUsage(usage []schema.LanguageUsage) []UsageRow {
	result := make([]UsageRow, len(usage))
	for i, u := range usage {
		result[i] = UsageRow(u)
	}
	return result
}

// ToUsage converts Parquet rows back to usage edges.
func ToUsage(rows []UsageRow) []schema.LanguageUsage {
	result := make([]schema.LanguageUsage, len(rows))
	for i, r := range rows {
		result[i] = schema.LanguageUsage(r)
	}
	return result
}

// FromMetrics converts metric rows to Parquet rows.
func FromMetrics(metrics []schema.RepositoryMetrics) []MetricsRow {
	result := make([]MetricsRow, len(metrics))
	for i, m := range metrics {
		result[i] = MetricsRow{
			ProjectID:           m.ProjectID,
			RepositoryID:        m.RepositoryID,
			Name:                m.Name,
			DaysSinceLastCommit: m.DaysSinceLastCommit,
			AgeDays:             m.AgeDays,
			CommitFrequency:     m.CommitFrequency,
			OpenIssueRatio:      m.OpenIssueRatio,
			PRResolutionDays:    m.PRResolutionDays,
			LanguageCount:       int32(m.LanguageCount),
			AvgCommitsPerMonth:  m.AvgCommitsPerMonth,
			RiskProxy:           m.RiskProxy,
		}
	}
	return result
}

// ToMetrics converts Parquet rows back to metric rows.
func ToMetrics(rows []MetricsRow) []schema.RepositoryMetrics {
	result := make([]schema.RepositoryMetrics, len(rows))
	for i, r := range rows {
		result[i] = schema.RepositoryMetrics{
			ProjectID:           r.ProjectID,
			RepositoryID:        r.RepositoryID,
			Name:                r.Name,
			DaysSinceLastCommit: r.DaysSinceLastCommit,
			AgeDays:             r.AgeDays,
			CommitFrequency:     r.CommitFrequency,
			OpenIssueRatio:      r.OpenIssueRatio,
			PRResolutionDays:    r.PRResolutionDays,
			LanguageCount:       int(r.LanguageCount),
			AvgCommitsPerMonth:  r.AvgCommitsPerMonth,
			RiskProxy:           r.RiskProxy,
		}
	}
	return result
}

// FromRepositoryEstimates converts ranked repository estimates to Parquet rows.
func FromRepositoryEstimates(runID string, repos []schema.RankedRepository) []RepositoryEstimateRow {
	result := make([]RepositoryEstimateRow, len(repos))
	for i, r := range repos {
		result[i] = RepositoryEstimateRow{
			RunID:        runID,
			Rank:         int32(r.Rank),
			ProjectID:    r.ProjectID,
			RepositoryID: r.RepositoryID,
			RiskMean:     r.RiskMean,
			RiskSD:       r.RiskSD,
			RiskLowerCI:  r.RiskLowerCI,
			RiskUpperCI:  r.RiskUpperCI,
			RiskIndex:    r.RiskIndex,
			Label:        r.Label,
			Imputed:      r.Imputed,
		}
	}
	return result
}

// FromProjectEstimates converts ranked project estimates to Parquet rows.
func FromProjectEstimates(runID string, projects []schema.RankedProject) []ProjectEstimateRow {
	result := make([]ProjectEstimateRow, len(projects))
	for i, p := range projects {
		result[i] = ProjectEstimateRow{
			RunID:          runID,
			Rank:           int32(p.Rank),
			ProjectID:      p.ProjectID,
			Repositories:   int32(p.Repositories),
			RiskMean:       p.RiskMean,
			RiskSD:         p.RiskSD,
			RiskLowerCI:    p.RiskLowerCI,
			RiskUpperCI:    p.RiskUpperCI,
			RiskIndex:      p.RiskIndex,
			Label:          p.Label,
			PopulationMean: p.PopulationMean,
			UnpooledMean:   p.UnpooledMean,
			Shrinkage:      p.Shrinkage,
		}
	}
	return result
}

// FromSample converts one posterior sample to a Parquet row.
func FromSample(s schema.PosteriorSample) SampleRow {
	return SampleRow{
		RunID:     s.RunID,
		Chain:     int32(s.Chain),
		Draw:      int32(s.Draw),
		Parameter: s.Parameter,
		Value:     s.Value,
	}
}
