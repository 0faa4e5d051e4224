package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrColumnNotFound is returned when the input has no column with the
// requested label.
var ErrColumnNotFound = errors.New("column not found")

// LoadProductURLs reads the product URL column from a .csv or .xlsx file.
// The first row is the header. Blank cells are skipped; order is preserved.
func LoadProductURLs(path, column string) ([]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx":
		rows, err = readXLSXRows(path)
	default:
		return nil, fmt.Errorf("unsupported input file %q: want .csv or .xlsx", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file %q is empty", path)
	}

	col := -1
	for i, label := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(column)) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, column, path)
	}

	urls := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if value := strings.TrimSpace(row[col]); value != "" {
			urls = append(urls, value)
		}
	}
	return urls, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv input: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv input: %w", err)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx input: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx input %q has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx input: %w", err)
	}
	return rows, nil
}
