package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

const dateLayout = "2006-01-02"

var (
	reviewHeader  = []string{"product", "title", "page", "rating", "helpfulness", "date", "body"}
	summaryHeader = []string{
		"product_url", "review_url", "product", "global_ratings", "global_reviews",
		"errors_encountered", "pages_skipped", "pages_scraped",
		"reviews_scraped", "reviews_skipped", "stop_reason", "error",
	}
)

func reviewRow(r *models.Review) []string {
	return []string{
		r.Product,
		r.Title,
		strconv.Itoa(r.Page),
		strconv.FormatFloat(r.Rating, 'f', 1, 64),
		strconv.Itoa(r.Helpfulness),
		r.Date.Format(dateLayout),
		r.Body,
	}
}

func summaryRow(s models.ProductSummary) []string {
	return []string{
		s.ProductURL,
		s.ReviewURL,
		s.Product,
		strconv.Itoa(s.GlobalRatings),
		strconv.Itoa(s.GlobalReviews),
		strconv.Itoa(s.ErrorsEncountered),
		strconv.Itoa(s.PagesSkipped),
		strconv.Itoa(s.PagesScraped),
		strconv.Itoa(s.ReviewsScraped),
		strconv.Itoa(s.ReviewsSkipped),
		string(s.StopReason),
		s.Error,
	}
}

// SummaryPath derives the sibling file used for product summaries, e.g.
// reviews.csv -> reviews_summary.csv.
func SummaryPath(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_summary" + ext
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	f, writer, err := createCSV(filename, reviewHeader)
	if err != nil {
		return nil, err
	}

	return &CSVWriter{
		filename: filename,
		file:     f,
		writer:   writer,
	}, nil
}

func createCSV(filename string, header []string) (*os.File, *csv.Writer, error) {
	if err := ensureDir(filename); err != nil {
		return nil, nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("flush csv header: %w", err)
	}
	return f, writer, nil
}

// Write appends reviews to the CSV output.
func (cw *CSVWriter) Write(reviews []*models.Review) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, review := range reviews {
		if err := cw.writer.Write(reviewRow(review)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// WriteSummaries writes product summaries to SummaryPath(filename).
func (cw *CSVWriter) WriteSummaries(summaries []models.ProductSummary) error {
	f, writer, err := createCSV(SummaryPath(cw.filename), summaryHeader)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, s := range summaries {
		if err := writer.Write(summaryRow(s)); err != nil {
			return fmt.Errorf("write csv summary: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv summaries: %w", err)
	}
	return f.Close()
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	filename string
	file     *os.File
	writer   *bufio.Writer
	encoder  *json.Encoder
	mu       sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		filename: filename,
		file:     f,
		writer:   buffer,
		encoder:  json.NewEncoder(buffer),
	}, nil
}

// Write appends reviews in JSONL format.
func (jw *JSONWriter) Write(reviews []*models.Review) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, review := range reviews {
		if err := jw.encoder.Encode(review); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// WriteSummaries writes one JSON line per product to SummaryPath(filename).
func (jw *JSONWriter) WriteSummaries(summaries []models.ProductSummary) error {
	path := SummaryPath(jw.filename)
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json summary file: %w", err)
	}
	defer f.Close()

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	for _, s := range summaries {
		if err := encoder.Encode(s); err != nil {
			return fmt.Errorf("encode json summary: %w", err)
		}
	}
	if err := buffer.Flush(); err != nil {
		return fmt.Errorf("flush json summaries: %w", err)
	}
	return f.Close()
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file is still reachable. A run without reviews
// legitimately leaves it empty.
func (jw *JSONWriter) Validate() error {
	if _, err := jw.file.Stat(); err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
