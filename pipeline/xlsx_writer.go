package pipeline

import (
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/xuri/excelize/v2"
)

const (
	reviewsSheet = "Reviews"
	summarySheet = "Summary"
)

// XLSXWriter collects reviews into a workbook and saves it on Close.
type XLSXWriter struct {
	filename   string
	file       *excelize.File
	nextRow    int
	hasSummary bool
	mu         sync.Mutex
}

// NewXLSXWriter creates an in-memory workbook with a Reviews sheet.
func NewXLSXWriter(filename string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reviewsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename xlsx sheet: %w", err)
	}
	if err := setRow(f, reviewsSheet, 1, toCells(reviewHeader)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}

	return &XLSXWriter{
		filename: filename,
		file:     f,
		nextRow:  2,
	}, nil
}

// Write appends reviews to the Reviews sheet.
func (xw *XLSXWriter) Write(reviews []*models.Review) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	for _, r := range reviews {
		row := []interface{}{
			r.Product,
			r.Title,
			r.Page,
			r.Rating,
			r.Helpfulness,
			r.Date.Format(dateLayout),
			r.Body,
		}
		if err := setRow(xw.file, reviewsSheet, xw.nextRow, row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", xw.nextRow, err)
		}
		xw.nextRow++
	}
	return nil
}

// WriteSummaries fills the Summary sheet with one row per product.
func (xw *XLSXWriter) WriteSummaries(summaries []models.ProductSummary) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if !xw.hasSummary {
		if _, err := xw.file.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("create xlsx summary sheet: %w", err)
		}
		xw.hasSummary = true
	}
	if err := setRow(xw.file, summarySheet, 1, toCells(summaryHeader)); err != nil {
		return fmt.Errorf("write xlsx summary header: %w", err)
	}

	for i, s := range summaries {
		row := []interface{}{
			s.ProductURL,
			s.ReviewURL,
			s.Product,
			s.GlobalRatings,
			s.GlobalReviews,
			s.ErrorsEncountered,
			s.PagesSkipped,
			s.PagesScraped,
			s.ReviewsScraped,
			s.ReviewsSkipped,
			string(s.StopReason),
			s.Error,
		}
		if err := setRow(xw.file, summarySheet, i+2, row); err != nil {
			return fmt.Errorf("write xlsx summary row: %w", err)
		}
	}
	return nil
}

// Close saves the workbook to disk.
func (xw *XLSXWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if err := xw.file.SaveAs(xw.filename); err != nil {
		xw.file.Close()
		return fmt.Errorf("save xlsx file: %w", err)
	}
	return xw.file.Close()
}

// Validate ensures the Reviews sheet carries its header row.
func (xw *XLSXWriter) Validate() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	rows, err := xw.file.GetRows(reviewsSheet)
	if err != nil {
		return fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("xlsx reviews sheet is empty")
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
