package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		precision int
		value     float64
		expected  string
	}{
		{2, 0.87654, "0.88"},
		{1, -1.25, "-1.2"},
		{4, 73.5, "73.5000"},
	}
	for _, tt := range tests {
		fmtFloat, intFmt := createFormatters(tt.precision)
		assert.Equal(t, tt.expected, fmtFloat(tt.value))
		assert.Equal(t, "%d", intFmt)
	}
}

func TestWriteJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, schema.ImportRecord{ImportID: "a", Source: "topo.yaml", Rows: 3}))
	assert.Contains(t, buf.String(), "\n  \"import_id\": \"a\",\n")

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"project_id", "language"}, func(w *csv.Writer) error {
		return w.Write([]string{"payments", "Go, mostly"})
	})
	require.NoError(t, err)
	assert.Equal(t, "project_id,language\npayments,\"Go, mostly\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeWithFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "risk")
		return err
	}, "Wrote text"))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "risk", string(content))

	err = writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote text")
	assert.Equal(t, assert.AnError, err)

	require.Error(t, writeWithFile("/nonexistent/dir/out.txt", func(io.Writer) error { return nil }, "Wrote text"))
}

func TestTablePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path, err := tablePath(dir, UsageTable, schema.CSVOut)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "usage.csv"), path)
	assert.DirExists(t, dir)

	path, err = tablePath("", MetricsTable, schema.ParquetOut)
	require.NoError(t, err)
	assert.Equal(t, "metrics.parquet", path)
}

func TestWriteParquetFile(t *testing.T) {
	rows := parquet.FromUsage([]schema.LanguageUsage{
		{ProjectID: "p1", RepositoryID: "r1", Language: "Go", ByteCount: 100},
	})
	require.Error(t, writeParquetFile(rows, "", "Wrote usage"))

	path := filepath.Join(t.TempDir(), "usage.parquet")
	require.NoError(t, writeParquetFile(rows, path, "Wrote usage"))
	back, err := parquet.ReadFile[parquet.UsageRow](path)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}
