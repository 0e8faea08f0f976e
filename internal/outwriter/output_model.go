package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/schema"
)

// ModelHeader is the csv header of the model description.
var ModelHeader = []string{"name", "level", "kind", "parents", "distribution"}

// PrintModel displays the parameter graph, priors and link of the model.
// This is a static display that does not need a dataset.
func PrintModel(desc model.Description, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, desc)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeModelCSV(w, desc)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("the model description has no parquet form; use text, csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeModelText(w, desc, cfg)
		}, "Wrote text")
	}
}

func writeModelCSV(w io.Writer, desc model.Description) error {
	return writeCSVWithHeader(w, ModelHeader, func(cw *csv.Writer) error {
		for _, n := range desc.Nodes {
			rec := []string{n.Name, string(n.Level), string(n.Kind), strings.Join(n.Parents, "|"), n.Distribution}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeModelText(w io.Writer, desc model.Description, cfg *contract.Config) error {
	title := "Hierarchical Risk Model"
	if cfg.UseEmojis {
		title = "🧠 " + title
	}
	lines := []string{
		title,
		strings.Repeat("=", len("Hierarchical Risk Model")),
		"",
		"Outcome: " + desc.Outcome,
		"Proxy:   " + string(desc.Proxy),
		"Link:    " + desc.Link,
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	var rows [][]string
	for _, n := range desc.Nodes {
		parents := strings.Join(n.Parents, ", ")
		if len(n.Parents) > 4 {
			parents = strings.Join(n.Parents[:2], ", ") + fmt.Sprintf(", w_* (%d weights)", len(n.Parents)-2)
		}
		rows = append(rows, []string{n.Name, string(n.Level), string(n.Kind), n.Distribution, parents})
	}
	table := newTable(w, []string{"Node", "Level", "Kind", "Distribution", "Parents"})
	if err := renderTable(table, rows); err != nil {
		return err
	}

	rows = nil
	for _, key := range schema.AllMetricKeys {
		rows = append(rows, []string{
			string(key),
			expectedSign(desc.ExpectedSigns[key]),
			fmt.Sprintf("%.2f", desc.HeuristicWeights[key]),
		})
	}
	if err := renderTable(newTable(w, []string{"Metric", "Expected Sign", "Heuristic Weight"}), rows); err != nil {
		return err
	}

	bands := make([]string, len(desc.Bands))
	for i, b := range desc.Bands {
		bands[i] = fmt.Sprintf("%s >= %.0f", b.Label, b.Min)
	}
	s := desc.Sampler
	_, err := fmt.Fprintf(w, "Labels: %s\nSampler: %d chains, %d warmup + %d draws, up to %d iterations, R-hat <= %.2f, ESS >= %.0f, %.0f%% intervals\n",
		strings.Join(bands, ", "), s.Chains, s.Warmup, s.Draws, s.MaxIterations, s.MaxRhat, s.MinESS, s.CredibleMass*100)
	return err
}
