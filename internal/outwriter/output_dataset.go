package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/huangsam/tribal/core/algo"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/datasource"
	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Base names of the two dataset tables.
const (
	UsageTable   = "usage"
	MetricsTable = "metrics"
)

// PrintDataset writes a dataset. Text mode prints a per-project summary table;
// csv, json and parquet write the usage and metrics tables into cfg.OutputDir.
func PrintDataset(data *schema.Dataset, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.TextOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDatasetTable(w, data, cfg, duration)
		}, "Wrote table")
	}
	if _, _, err := WriteDatasetFiles(data, cfg.OutputDir, cfg.Output); err != nil {
		return fmt.Errorf("error writing %s dataset: %w", cfg.Output, err)
	}
	return nil
}

// WriteDatasetFiles writes usage.<ext> and metrics.<ext> into dir and returns their paths.
func WriteDatasetFiles(data *schema.Dataset, dir string, mode schema.OutputMode) (string, string, error) {
	if mode == schema.TextOut {
		return "", "", fmt.Errorf("dataset files need csv, json or parquet output")
	}
	usagePath, err := tablePath(dir, UsageTable, mode)
	if err != nil {
		return "", "", err
	}
	metricsPath, err := tablePath(dir, MetricsTable, mode)
	if err != nil {
		return "", "", err
	}

	switch mode {
	case schema.ParquetOut:
		if err := writeParquetFile(parquet.FromUsage(data.Usage), usagePath, "Wrote usage table"); err != nil {
			return "", "", err
		}
		if err := writeParquetFile(parquet.FromMetrics(data.Metrics), metricsPath, "Wrote metrics table"); err != nil {
			return "", "", err
		}
	case schema.JSONOut:
		if err := writeWithFile(usagePath, func(w io.Writer) error { return writeJSON(w, data.Usage) }, "Wrote usage table"); err != nil {
			return "", "", err
		}
		if err := writeWithFile(metricsPath, func(w io.Writer) error { return writeJSON(w, data.Metrics) }, "Wrote metrics table"); err != nil {
			return "", "", err
		}
	default:
		if err := writeWithFile(usagePath, func(w io.Writer) error { return WriteUsageCSV(w, data.Usage) }, "Wrote usage table"); err != nil {
			return "", "", err
		}
		if err := writeWithFile(metricsPath, func(w io.Writer) error { return WriteMetricsCSV(w, data.Metrics) }, "Wrote metrics table"); err != nil {
			return "", "", err
		}
	}
	return usagePath, metricsPath, nil
}

// WriteUsageCSV writes the usage table. Output is byte-identical for equal input.
func WriteUsageCSV(w io.Writer, usage []schema.LanguageUsage) error {
	return writeCSVWithHeader(w, datasource.UsageHeader, func(cw *csv.Writer) error {
		for _, u := range usage {
			if err := cw.Write(datasource.UsageRecord(u)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMetricsCSV writes the metrics table with full float precision.
func WriteMetricsCSV(w io.Writer, metrics []schema.RepositoryMetrics) error {
	return writeCSVWithHeader(w, datasource.MetricsHeader, func(cw *csv.Writer) error {
		for _, m := range metrics {
			if err := cw.Write(datasource.MetricsRecord(m)); err != nil {
				return err
			}
		}
		return nil
	})
}

// languageGini measures how concentrated a project's bytes are across languages.
func languageGini(repos map[string]map[string]int64) float64 {
	byLanguage := make(map[string]float64)
	for _, langs := range repos {
		for lang, n := range langs {
			byLanguage[lang] += float64(n)
		}
	}
	values := make([]float64, 0, len(byLanguage))
	for _, v := range byLanguage {
		values = append(values, v)
	}
	sort.Float64s(values)
	return algo.Gini(values)
}

// writeDatasetTable prints one row per project.
func writeDatasetTable(w io.Writer, data *schema.Dataset, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	topology := data.Topology()

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Project", "Repos", "Langs", "Dominant", "Bytes", "Gini", "Labeled", "Commits/wk"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg, 70)
	summaries := data.Summary()
	shown := summaries[:min(len(summaries), cfg.ResultLimit)]
	var rows [][]string
	for _, s := range shown {
		rows = append(rows, []string{
			contract.TruncateName(s.ProjectID, nameWidth),
			fmt.Sprintf(intFmt, s.Repositories),
			fmt.Sprintf(intFmt, s.Languages),
			s.DominantLanguage,
			strconv.FormatInt(s.TotalBytes, 10),
			fmtFloat(languageGini(topology[s.ProjectID])),
			fmt.Sprintf(intFmt, s.Labeled),
			fmtFloat(s.MeanFrequency),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d projects (repositories: %d, usage rows: %d, labeled: %d)\n",
		len(shown), len(summaries), len(data.Metrics), len(data.Usage), data.LabelCount()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Generated in %v with seed %d\n", duration, cfg.Seed)
	return err
}
