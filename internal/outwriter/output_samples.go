package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/tribal/internal/datasource"
	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
)

// SampleSource streams posterior draws in long format.
type SampleSource interface {
	Each(fn func(schema.PosteriorSample) error) error
}

// SamplesHeader is the csv header of the posterior sample artifact.
var SamplesHeader = []string{"run_id", "chain", "draw", "parameter", "value"}

// WriteSamplesFile streams every posterior draw to path. The format follows
// the extension: parquet, or csv for anything else. It returns the row count.
func WriteSamplesFile(path string, src SampleSource) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create samples file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var rows int
	if format, _ := datasource.FormatOf(path); format == schema.ParquetOut {
		rows, err = writeSamplesParquet(file, src)
	} else {
		rows, err = WriteSamplesCSV(file, src)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write samples to %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return 0, err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote %d posterior samples to %s\n", rows, path)
	return rows, nil
}

func writeSamplesParquet(w io.Writer, src SampleSource) (int, error) {
	sw := parquet.NewSampleWriter(w)
	if err := src.Each(sw.Write); err != nil {
		_ = sw.Close()
		return 0, err
	}
	if err := sw.Close(); err != nil {
		return 0, err
	}
	return sw.Rows(), nil
}

// WriteSamplesCSV writes the sample artifact as csv with full float precision.
func WriteSamplesCSV(w io.Writer, src SampleSource) (int, error) {
	rows := 0
	err := writeCSVWithHeader(w, SamplesHeader, func(cw *csv.Writer) error {
		return src.Each(func(s schema.PosteriorSample) error {
			rows++
			return cw.Write([]string{
				s.RunID,
				strconv.Itoa(s.Chain),
				strconv.Itoa(s.Draw),
				s.Parameter,
				strconv.FormatFloat(s.Value, 'g', -1, 64),
			})
		})
	})
	return rows, err
}
