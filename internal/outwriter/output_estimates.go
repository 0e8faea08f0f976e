package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tribal/core/algo"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Base names of the estimate tables written in parquet mode.
const (
	RepositoryEstimatesTable = "repository_estimates"
	ProjectEstimatesTable    = "project_estimates"
)

// EstimatesHeader is the csv header of the estimates output.
var EstimatesHeader = []string{
	"level", "rank", "project_id", "repository_id", "name",
	"risk_mean", "risk_sd", "risk_lower_ci", "risk_upper_ci", "risk_index", "label",
}

// FitReport is the JSON document of a fit.
type FitReport struct {
	RunID        string                       `json:"run_id"`
	Proxy        schema.ProxySource           `json:"proxy"`
	Chains       int                          `json:"chains"`
	Iterations   int                          `json:"iterations"`
	Draws        int                          `json:"draws"`
	CredibleMass float64                      `json:"credible_mass"`
	Projects     []schema.RankedProject       `json:"projects"`
	Repositories []schema.RankedRepository    `json:"repositories"`
	Weights      []schema.WeightEstimate      `json:"weights"`
	Diagnostics  []schema.ParameterDiagnostic `json:"diagnostics"`
	Warnings     []string                     `json:"warnings,omitempty"`
}

// NewFitReport numbers the already ranked estimates of a fit summary.
func NewFitReport(s schema.FitSummary) FitReport {
	return FitReport{
		RunID:        s.RunID,
		Proxy:        s.Proxy,
		Chains:       s.Chains,
		Iterations:   s.Iterations,
		Draws:        s.Draws,
		CredibleMass: s.CredibleMass,
		Projects:     schema.EnrichProjects(s.Projects),
		Repositories: schema.EnrichRepositories(s.Repositories),
		Weights:      s.Weights,
		Diagnostics:  s.Diagnostics,
		Warnings:     s.Warnings,
	}
}

// PrintEstimates outputs the fit results, dispatching based on the output format configured.
func PrintEstimates(summary schema.FitSummary, cfg *contract.Config, duration time.Duration) error {
	report := NewFitReport(summary)
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEstimatesCSV(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeEstimatesParquet(report, cfg.OutputDir); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEstimatesText(w, report, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// writeEstimatesCSV writes projects then repositories in one long table.
func writeEstimatesCSV(w io.Writer, report FitReport, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, EstimatesHeader, func(cw *csv.Writer) error {
		for _, p := range report.Projects {
			rec := []string{
				string(schema.ProjectLevel), strconv.Itoa(p.Rank), p.ProjectID, "", p.ProjectID,
				fmtFloat(p.RiskMean), fmtFloat(p.RiskSD), fmtFloat(p.RiskLowerCI), fmtFloat(p.RiskUpperCI),
				fmtFloat(p.RiskIndex), p.Label,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		for _, r := range report.Repositories {
			rec := []string{
				string(schema.RepositoryLevel), strconv.Itoa(r.Rank), r.ProjectID, r.RepositoryID, r.Name,
				fmtFloat(r.RiskMean), fmtFloat(r.RiskSD), fmtFloat(r.RiskLowerCI), fmtFloat(r.RiskUpperCI),
				fmtFloat(r.RiskIndex), r.Label,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeEstimatesParquet(report FitReport, dir string) error {
	repoPath, err := tablePath(dir, RepositoryEstimatesTable, schema.ParquetOut)
	if err != nil {
		return err
	}
	projectPath, err := tablePath(dir, ProjectEstimatesTable, schema.ParquetOut)
	if err != nil {
		return err
	}
	rows := parquet.FromRepositoryEstimates(report.RunID, report.Repositories)
	if err := writeParquetFile(rows, repoPath, "Wrote repository estimates"); err != nil {
		return err
	}
	return writeParquetFile(parquet.FromProjectEstimates(report.RunID, report.Projects), projectPath, "Wrote project estimates")
}

// label renders a risk label, colored when the config asks for it.
func label(index float64, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(index)
	}
	return algo.GetPlainLabel(index)
}

func interval(lower, upper float64, fmtFloat func(float64) string) string {
	return "[" + fmtFloat(lower) + ", " + fmtFloat(upper) + "]"
}

func drivers(keys []schema.MetricKey) string {
	if len(keys) == 0 {
		return "-"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, " > ")
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

func renderTable(table *tablewriter.Table, rows [][]string) error {
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writeEstimatesText prints the project, repository and weight tables.
func writeEstimatesText(w io.Writer, report FitReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	mass := fmt.Sprintf("%.0f%% CI", report.CredibleMass*100)

	var rows [][]string
	nameWidth := GetMaxTableNameWidth(cfg, 75)
	for _, p := range report.Projects {
		rows = append(rows, []string{
			strconv.Itoa(p.Rank),
			contract.TruncateName(p.ProjectID, nameWidth),
			fmt.Sprintf(intFmt, p.Repositories),
			fmtFloat(p.RiskMean),
			interval(p.RiskLowerCI, p.RiskUpperCI, fmtFloat),
			fmtFloat(p.RiskIndex),
			label(p.RiskIndex, cfg),
			fmtFloat(p.Shrinkage),
		})
	}
	if err := renderTable(newTable(w, []string{"Rank", "Project", "Repos", "Risk", mass, "Index", "Label", "Shrinkage"}), rows); err != nil {
		return err
	}

	rows = nil
	nameWidth = GetMaxTableNameWidth(cfg, 95)
	for _, r := range report.Repositories {
		name := r.Name
		if r.Imputed {
			name += "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Rank),
			contract.TruncateName(name, nameWidth),
			fmtFloat(r.RiskMean),
			interval(r.RiskLowerCI, r.RiskUpperCI, fmtFloat),
			fmtFloat(r.RiskIndex),
			label(r.RiskIndex, cfg),
			drivers(r.Drivers),
		})
	}
	if err := renderTable(newTable(w, []string{"Rank", "Repository", "Risk", mass, "Index", "Label", "Drivers"}), rows); err != nil {
		return err
	}

	rows = nil
	for _, wt := range report.Weights {
		rows = append(rows, []string{
			string(wt.Metric),
			fmtFloat(wt.Mean),
			interval(wt.Lower, wt.Upper, fmtFloat),
			expectedSign(wt.ExpectedSign),
			string(wt.Status),
		})
	}
	if err := renderTable(newTable(w, []string{"Metric", "Weight", mass, "Expected", "Status"}), rows); err != nil {
		return err
	}

	maxRhat, minESS := diagnosticExtremes(report.Diagnostics)
	if _, err := fmt.Fprintf(w, "Showing %d projects and %d repositories (* = imputed proxy). Proxy: %s\n",
		len(report.Projects), len(report.Repositories), report.Proxy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Fit %s completed in %v: %d chains x %d draws (%d iterations per chain), max R-hat %s, min ESS %s\n",
		report.RunID, duration, report.Chains, report.Draws, report.Iterations, fmtFloat(maxRhat), fmtFloat(minESS)); err != nil {
		return err
	}
	for _, warning := range report.Warnings {
		if _, err := fmt.Fprintf(w, "Warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

func expectedSign(sign int) string {
	switch {
	case sign > 0:
		return "+"
	case sign < 0:
		return "-"
	default:
		return "any"
	}
}

// diagnosticExtremes returns the worst R-hat and ESS across all parameters.
func diagnosticExtremes(diags []schema.ParameterDiagnostic) (maxRhat, minESS float64) {
	for i, d := range diags {
		if i == 0 || d.Rhat > maxRhat {
			maxRhat = d.Rhat
		}
		if i == 0 || d.ESS < minESS {
			minESS = d.ESS
		}
	}
	return maxRhat, minESS
}
