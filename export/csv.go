// Package export materializes analysis results for download: CSV for
// the raw table and a PDF report for the whole analysis.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"trpc.group/trpc-go/trpc-agent-go/log"

	"github.com/dewdew978/GBI-BI-Agent/interpret"
)

// ErrNoData is returned when an export is requested before any rows
// exist.
var ErrNoData = errors.New("no data to download")

// EncodeCSV writes the table as UTF-8 CSV: one header row of column
// names, then the data rows, no index column.
func EncodeCSV(table *interpret.Table, w io.Writer) error {
	if table.Empty() {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = interpret.FormatCell(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV materializes the table to a timestamped file in the scratch
// directory and returns its path.
func WriteCSV(table *interpret.Table) (string, error) {
	if table.Empty() {
		return "", ErrNoData
	}
	name := fmt.Sprintf("query_results_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(os.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	if err := EncodeCSV(table, f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	log.Debugf("export: wrote csv %s", path)
	return path, nil
}
