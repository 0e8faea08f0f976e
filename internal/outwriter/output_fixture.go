package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/schema"
)

// PrintFixtureStatus prints fixture store status and its import log.
func PrintFixtureStatus(status schema.FixtureStatus, history []schema.ImportRecord, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				schema.FixtureStatus
				History []schema.ImportRecord `json:"history"`
			}{status, history})
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeFixtureStatusText(w, status, history)
	}, "Wrote text")
}

func writeFixtureStatusText(w io.Writer, status schema.FixtureStatus, history []schema.ImportRecord) error {
	if _, err := fmt.Fprintf(w, "Fixture Backend: %s\nConnected: %t\n", status.Backend, status.Connected); err != nil {
		return err
	}
	if !status.Connected {
		return nil
	}
	if status.SchemaVersion > 0 {
		if _, err := fmt.Fprintf(w, "Schema Version: %d (dirty: %t)\n", status.SchemaVersion, status.Dirty); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Projects: %d\nRepositories: %d\nUsage Rows: %d\nTotal Bytes: %d\nImports: %d\n",
		status.Projects, status.Repositories, status.Rows, status.TotalBytes, status.Imports); err != nil {
		return err
	}
	if status.Imports > 0 {
		if _, err := fmt.Fprintf(w, "Last Import: %s from %s\n", status.LastImport.Format(contract.DateTimeFormat), status.LastSource); err != nil {
			return err
		}
	}
	if len(history) == 0 {
		return nil
	}

	var rows [][]string
	for _, h := range history {
		rows = append(rows, []string{h.ImportedAt.Format(contract.DateTimeFormat), h.Source, fmt.Sprintf("%d", h.Rows), h.ImportID})
	}
	return renderTable(newTable(w, []string{"Imported", "Source", "Rows", "Import ID"}), rows)
}

// PrintMigration reports the outcome of a fixture schema migration.
func PrintMigration(result schema.MigrationResult, w io.Writer) error {
	var err error
	switch {
	case !result.Changed:
		_, err = fmt.Fprintf(w, "No migration needed. Database is already at version %d\n", result.To)
	case result.To < result.From:
		_, err = fmt.Fprintf(w, "Successfully rolled back from version %d to version %d\n", result.From, result.To)
	default:
		_, err = fmt.Fprintf(w, "Successfully migrated from version %d to version %d\n", result.From, result.To)
	}
	return err
}

// PrintImport reports a finished fixture import.
func PrintImport(rows int, source string, w io.Writer) error {
	_, err := fmt.Fprintf(w, "Imported %d topology rows from %s\n", rows, source)
	return err
}
