package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/araddon/dateparse"
)

var (
	productTitlePrefix = regexp.MustCompile(`(?i)^\s*amazon\.[a-z.]+\s*:\s*customer reviews\s*:\s*`)
	helpfulOne         = regexp.MustCompile(`^One\b`)
	dateStart          = regexp.MustCompile(`[0-9].*$`)
	countNumber        = regexp.MustCompile(`[0-9][0-9,]*`)

	dateLayouts = []string{
		"2 January 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"Jan 2, 2006",
		"2006-01-02",
	}
)

// ErrEmpty is wrapped when a field is present but carries no text.
var ErrEmpty = errors.New("empty value")

// FieldError describes why a single review field could not be extracted.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidateReview ensures the extractor produced a coherent record.
func ValidateReview(r *models.Review) error {
	if r == nil {
		return fmt.Errorf("review is nil")
	}
	if r.Page < 1 {
		return fmt.Errorf("review %q has invalid page %d", r.Title, r.Page)
	}
	if r.Rating < 0 || r.Rating > 5 {
		return fmt.Errorf("review %q has rating %.1f outside 0-5", r.Title, r.Rating)
	}
	if r.Helpfulness < 0 {
		return fmt.Errorf("review %q has negative helpfulness", r.Title)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("review %q missing date", r.Title)
	}
	return nil
}

// NormalizeProductName strips the storefront prefix from a review page title.
func NormalizeProductName(title string) string {
	return strings.TrimSpace(productTitlePrefix.ReplaceAllString(title, ""))
}

// ParseRating converts "4.0 out of 5 stars" into 4.0.
func ParseRating(text string) (float64, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, "out of 5 stars"))
	if text == "" {
		return 0, ErrEmpty
	}
	rating, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rating %q: %w", text, err)
	}
	if rating < 0 || rating > 5 {
		return 0, fmt.Errorf("rating %.1f outside 0-5", rating)
	}
	return rating, nil
}

// ParseHelpfulness converts the helpful-vote statement into a count. The site
// spells a single vote as "One person found this helpful".
func ParseHelpfulness(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrEmpty
	}
	if helpfulOne.MatchString(text) {
		return 1, nil
	}

	text = strings.TrimSuffix(text, " people found this helpful")
	text = strings.TrimSuffix(text, " person found this helpful")
	text = strings.ReplaceAll(text, ",", "")
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("parse helpfulness %q: %w", text, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative helpfulness %d", n)
	}
	return n, nil
}

// ParseReviewDate extracts the calendar date from strings such as
// "Reviewed in the United Kingdom on 26 September 2021". The prefix varies
// by storefront, so everything before the date is discarded.
func ParseReviewDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndex(text, " on "); idx >= 0 {
		text = strings.TrimSpace(text[idx+len(" on "):])
	} else {
		text = dateStart.FindString(text)
	}
	if text == "" {
		return time.Time{}, ErrEmpty
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return truncateDate(t), nil
		}
	}

	t, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", text, err)
	}
	return truncateDate(t), nil
}

// ParseGlobalCounts reads "1,234 global ratings | 15 global reviews".
func ParseGlobalCounts(text string) (ratings, reviews int, err error) {
	matches := countNumber.FindAllString(text, -1)
	if len(matches) < 2 {
		return 0, 0, fmt.Errorf("expected two counts in %q", strings.TrimSpace(text))
	}

	values := make([]int, 2)
	for i := range values {
		digits := strings.ReplaceAll(strings.Trim(matches[i], ","), ",", "")
		values[i], err = strconv.Atoi(digits)
		if err != nil {
			return 0, 0, fmt.Errorf("parse count %q: %w", matches[i], err)
		}
	}
	return values[0], values[1], nil
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
