package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// DualWriter outputs to both CSV and JSONL at once.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
	mu         sync.Mutex
}

// NewDualWriter creates a writer pair for csvFilename and jsonFilename.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create json writer: %w", err)
	}

	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write writes reviews to both outputs.
func (dw *DualWriter) Write(reviews []*models.Review) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.csvWriter.Write(reviews); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	if err := dw.jsonWriter.Write(reviews); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// WriteSummaries stores the summaries next to both outputs.
func (dw *DualWriter) WriteSummaries(summaries []models.ProductSummary) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.csvWriter.WriteSummaries(summaries); err != nil {
		return fmt.Errorf("csv summaries: %w", err)
	}
	if err := dw.jsonWriter.WriteSummaries(summaries); err != nil {
		return fmt.Errorf("json summaries: %w", err)
	}
	return nil
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("csv close: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close: %w", err))
	}
	return errors.Join(errs...)
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.csvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("csv validation: %w", err))
	}
	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("json validation: %w", err))
	}
	return errors.Join(errs...)
}
