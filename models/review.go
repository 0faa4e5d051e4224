// Package models defines data structures shared by the scrapers.
package models

import "time"

// Review is one customer review extracted from a review-listing page.
type Review struct {
	Product     string    `csv:"product" json:"product"`
	Title       string    `csv:"title" json:"title"`
	Page        int       `csv:"page" json:"page"`
	Rating      float64   `csv:"rating" json:"rating"`
	Helpfulness int       `csv:"helpfulness" json:"helpfulness"`
	Date        time.Time `csv:"date" json:"date"`
	Body        string    `csv:"body" json:"body"`
}

// SkippedReview records a review container that could not be parsed.
type SkippedReview struct {
	ProductURL string `json:"product_url"`
	Page       int    `json:"page"`
	Reason     string `json:"reason"`
	HTML       string `json:"html,omitempty"`
}

// StopReason explains why pagination for a product ended.
type StopReason string

const (
	StopLastPage   StopReason = "last_page"
	StopNoReviews  StopReason = "no_reviews"
	StopPageLimit  StopReason = "page_limit"
	StopCancelled  StopReason = "cancelled"
	StopInvalidURL StopReason = "invalid_url"
)

// ProductSummary holds the per-product outcome of a scrape.
type ProductSummary struct {
	ProductURL        string     `json:"product_url"`
	ReviewURL         string     `json:"review_url"`
	Product           string     `json:"product"`
	GlobalRatings     int        `json:"global_ratings"`
	GlobalReviews     int        `json:"global_reviews"`
	CountsFound       bool       `json:"counts_found"`
	ErrorsEncountered int        `json:"errors_encountered"`
	PagesSkipped      int        `json:"pages_skipped"`
	PagesScraped      int        `json:"pages_scraped"`
	ReviewsScraped    int        `json:"reviews_scraped"`
	ReviewsSkipped    int        `json:"reviews_skipped"`
	StopReason        StopReason `json:"stop_reason"`
	Error             string     `json:"error,omitempty"`
}

// ScraperResult holds the overall result of a scraping run.
type ScraperResult struct {
	Reviews      []*Review
	Skipped      []*SkippedReview
	Summaries    []ProductSummary
	StartTime    time.Time
	EndTime      time.Time
	ErrorCount   int
	ErrorsByType map[string]int
	RetryCount   int
	RequestCount int
	PagesSkipped int
}
