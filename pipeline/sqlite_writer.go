package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/aluiziolira/go-scrape-reviews/models"
	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE reviews (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	product     TEXT NOT NULL,
	title       TEXT NOT NULL,
	page        INTEGER NOT NULL,
	rating      REAL NOT NULL,
	helpfulness INTEGER NOT NULL,
	date        TEXT NOT NULL,
	body        TEXT NOT NULL
)`,
	`CREATE INDEX idx_reviews_product ON reviews(product)`,
	`CREATE TABLE product_summaries (
	product_url        TEXT NOT NULL,
	review_url         TEXT,
	product            TEXT,
	global_ratings     INTEGER,
	global_reviews     INTEGER,
	counts_found       INTEGER,
	errors_encountered INTEGER,
	pages_skipped      INTEGER,
	pages_scraped      INTEGER,
	reviews_scraped    INTEGER,
	reviews_skipped    INTEGER,
	stop_reason        TEXT,
	error              TEXT
)`,
}

// SQLiteWriter stores reviews and summaries in a fresh SQLite database.
type SQLiteWriter struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteWriter recreates the database at path.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove old sqlite file: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return &SQLiteWriter{db: db}, nil
}

// Write inserts a batch of reviews in one transaction.
func (sw *SQLiteWriter) Write(reviews []*models.Review) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return sw.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO reviews (product, title, page, rating, helpfulness, date, body) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare review insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range reviews {
			if _, err := stmt.Exec(r.Product, r.Title, r.Page, r.Rating, r.Helpfulness, r.Date.Format(dateLayout), r.Body); err != nil {
				return fmt.Errorf("insert review: %w", err)
			}
		}
		return nil
	})
}

// WriteSummaries replaces the product_summaries rows.
func (sw *SQLiteWriter) WriteSummaries(summaries []models.ProductSummary) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return sw.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM product_summaries`); err != nil {
			return fmt.Errorf("clear summaries: %w", err)
		}
		stmt, err := tx.Prepare(`INSERT INTO product_summaries (
			product_url, review_url, product, global_ratings, global_reviews, counts_found,
			errors_encountered, pages_skipped, pages_scraped, reviews_scraped, reviews_skipped,
			stop_reason, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare summary insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range summaries {
			if _, err := stmt.Exec(
				s.ProductURL, s.ReviewURL, s.Product, s.GlobalRatings, s.GlobalReviews, s.CountsFound,
				s.ErrorsEncountered, s.PagesSkipped, s.PagesScraped, s.ReviewsScraped, s.ReviewsSkipped,
				string(s.StopReason), s.Error,
			); err != nil {
				return fmt.Errorf("insert summary: %w", err)
			}
		}
		return nil
	})
}

// Close closes the database handle.
func (sw *SQLiteWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.db.Close()
}

// Validate checks the reviews table is readable.
func (sw *SQLiteWriter) Validate() error {
	var n int
	if err := sw.db.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&n); err != nil {
		return fmt.Errorf("count sqlite reviews: %w", err)
	}
	return nil
}

func (sw *SQLiteWriter) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := sw.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite tx: %w", err)
	}
	return nil
}
