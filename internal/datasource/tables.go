// Package datasource reads the usage and metrics tables, and topology
// fixtures, from csv, json, parquet and yaml files.
package datasource

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
)

// Column names of the tables.
const (
	ProjectIDColumn    = "project_id"
	RepositoryIDColumn = "repository_id"
	LanguageColumn     = "language"
	ByteCountColumn    = "byte_count"
	NameColumn         = "name"
	RiskProxyColumn    = "risk_proxy"
)

// UsageHeader is the csv header of the usage table.
var UsageHeader = []string{ProjectIDColumn, RepositoryIDColumn, LanguageColumn, ByteCountColumn}

// MetricsHeader is the csv header of the metrics table.
var MetricsHeader = func() []string {
	header := []string{ProjectIDColumn, RepositoryIDColumn, NameColumn}
	for _, key := range schema.AllMetricKeys {
		header = append(header, string(key))
	}
	return append(header, RiskProxyColumn)
}()

// FormatOf infers the file format from the extension.
func FormatOf(path string) (schema.OutputMode, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return schema.CSVOut, nil
	case ".json":
		return schema.JSONOut, nil
	case ".parquet":
		return schema.ParquetOut, nil
	default:
		return "", fmt.Errorf("unsupported table format for %s (expected .csv, .json or .parquet)", path)
	}
}

// UsageRecord encodes one usage edge as a csv record.
func UsageRecord(u schema.LanguageUsage) []string {
	return []string{u.ProjectID, u.RepositoryID, u.Language, strconv.FormatInt(u.ByteCount, 10)}
}

// MetricsRecord encodes one metrics row as a csv record. Floats use the
// shortest representation that round-trips exactly.
func MetricsRecord(m schema.RepositoryMetrics) []string {
	record := []string{m.ProjectID, m.RepositoryID, m.Name}
	for _, key := range schema.AllMetricKeys {
		if key == schema.LanguageCountKey {
			record = append(record, strconv.Itoa(m.LanguageCount))
			continue
		}
		record = append(record, formatFloat(m.Value(key)))
	}
	proxy := ""
	if m.RiskProxy != nil {
		proxy = formatFloat(*m.RiskProxy)
	}
	return append(record, proxy)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadUsage reads a usage table.
func ReadUsage(path string) ([]schema.LanguageUsage, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case schema.ParquetOut:
		rows, err := parquet.ReadFile[parquet.UsageRow](path)
		if err != nil {
			return nil, err
		}
		return parquet.ToUsage(rows), nil
	case schema.JSONOut:
		var usage []schema.LanguageUsage
		if err := readJSON(path, &usage); err != nil {
			return nil, err
		}
		return usage, nil
	default:
		return readCSV(path, UsageHeader, decodeUsage)
	}
}

// ReadMetrics reads a metrics table.
func ReadMetrics(path string) ([]schema.RepositoryMetrics, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case schema.ParquetOut:
		rows, err := parquet.ReadFile[parquet.MetricsRow](path)
		if err != nil {
			return nil, err
		}
		return parquet.ToMetrics(rows), nil
	case schema.JSONOut:
		var metrics []schema.RepositoryMetrics
		if err := readJSON(path, &metrics); err != nil {
			return nil, err
		}
		return metrics, nil
	default:
		return readCSV(path, MetricsHeader[:len(MetricsHeader)-1], decodeMetrics)
	}
}

// ReadDataset reads both tables and validates them together.
func ReadDataset(usagePath, metricsPath string) (*schema.Dataset, error) {
	usage, err := ReadUsage(usagePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read usage table: %w", err)
	}
	metrics, err := ReadMetrics(metricsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read metrics table: %w", err)
	}
	data := &schema.Dataset{Usage: usage, Metrics: metrics}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	return data, nil
}

func readJSON(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", path, err)
	}
	return nil
}

// row gives named access to one csv record.
type row struct {
	record  []string
	columns map[string]int
	line    int
}

func (r row) get(column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) float(column string) (float64, error) {
	v, err := strconv.ParseFloat(r.get(column), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", r.line, column, err)
	}
	return v, nil
}

func readCSV[T any](path string, required []string, decode func(row) (T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s is empty", path)
		}
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s is missing columns: %s", path, strings.Join(missing, ", "))
	}

	var out []T
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV from %s: %w", path, err)
		}
		v, err := decode(row{record: record, columns: columns, line: line})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeUsage(r row) (schema.LanguageUsage, error) {
	n, err := strconv.ParseInt(r.get(ByteCountColumn), 10, 64)
	if err != nil {
		return schema.LanguageUsage{}, fmt.Errorf("line %d: %s: %w", r.line, ByteCountColumn, err)
	}
	return schema.LanguageUsage{
		ProjectID:    r.get(ProjectIDColumn),
		RepositoryID: r.get(RepositoryIDColumn),
		Language:     r.get(LanguageColumn),
		ByteCount:    n,
	}, nil
}

func decodeMetrics(r row) (schema.RepositoryMetrics, error) {
	m := schema.RepositoryMetrics{
		ProjectID:    r.get(ProjectIDColumn),
		RepositoryID: r.get(RepositoryIDColumn),
		Name:         r.get(NameColumn),
	}
	if m.Name == "" {
		m.Name = m.Key().String()
	}

	fields := map[schema.MetricKey]*float64{
		schema.DaysSinceLastCommitKey: &m.DaysSinceLastCommit,
		schema.AgeDaysKey:             &m.AgeDays,
		schema.CommitFrequencyKey:     &m.CommitFrequency,
		schema.OpenIssueRatioKey:      &m.OpenIssueRatio,
		schema.PRResolutionDaysKey:    &m.PRResolutionDays,
		schema.AvgCommitsPerMonthKey:  &m.AvgCommitsPerMonth,
	}
	for _, key := range schema.AllMetricKeys {
		if key == schema.LanguageCountKey {
			n, err := strconv.Atoi(r.get(string(key)))
			if err != nil {
				return m, fmt.Errorf("line %d: %s: %w", r.line, key, err)
			}
			m.LanguageCount = n
			continue
		}
		v, err := r.float(string(key))
		if err != nil {
			return m, err
		}
		*fields[key] = v
	}

	if raw := r.get(RiskProxyColumn); raw != "" {
		v, err := r.float(RiskProxyColumn)
		if err != nil {
			return m, err
		}
		m.RiskProxy = &v
	}
	return m, nil
}
