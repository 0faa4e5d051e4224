package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

func TestValidateReview(t *testing.T) {
	date := time.Date(2021, 9, 26, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		review  *models.Review
		wantErr bool
	}{
		{
			name:    "valid review",
			review:  &models.Review{Product: "Lego Set", Title: "Great", Page: 1, Rating: 5, Date: date},
			wantErr: false,
		},
		{
			name:    "nil review",
			review:  nil,
			wantErr: true,
		},
		{
			name:    "page zero",
			review:  &models.Review{Title: "Great", Page: 0, Rating: 5, Date: date},
			wantErr: true,
		},
		{
			name:    "rating above five",
			review:  &models.Review{Title: "Great", Page: 1, Rating: 6, Date: date},
			wantErr: true,
		},
		{
			name:    "negative helpfulness",
			review:  &models.Review{Title: "Great", Page: 1, Rating: 4, Helpfulness: -1, Date: date},
			wantErr: true,
		},
		{
			name:    "missing date",
			review:  &models.Review{Title: "Great", Page: 1, Rating: 4},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReview(tt.review)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReview() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "4.0 out of 5 stars", want: 4.0},
		{input: "  1.0 out of 5 stars ", want: 1.0},
		{input: "5", want: 5},
		{input: "", wantErr: true},
		{input: "4,0 von 5 Sternen", wantErr: true},
		{input: "7.0 out of 5 stars", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRating(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRating(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRating(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseHelpfulness(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "One person found this helpful", want: 1},
		{input: "12 people found this helpful", want: 12},
		{input: "1,024 people found this helpful", want: 1024},
		{input: "  3 people found this helpful\n", want: 3},
		{input: "Report abuse", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHelpfulness(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHelpfulness(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHelpfulness(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReviewDate(t *testing.T) {
	want := time.Date(2021, 9, 26, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
	}{
		{name: "uk storefront", input: "Reviewed in the United Kingdom on 26 September 2021"},
		{name: "us storefront", input: "Reviewed in the United States on September 26, 2021"},
		{name: "legacy prefix", input: "Reviewed 26 September 2021"},
		{name: "iso", input: "2021-09-26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReviewDate(tt.input)
			if err != nil {
				t.Fatalf("ParseReviewDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseReviewDate(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}

	if _, err := ParseReviewDate("Reviewed recently"); err == nil {
		t.Fatalf("expected error for text without a date")
	}
	if _, err := ParseReviewDate("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestParseGlobalCounts(t *testing.T) {
	tests := []struct {
		input       string
		wantRatings int
		wantReviews int
		wantErr     bool
	}{
		{input: "1,234 global ratings | 15 global reviews", wantRatings: 1234, wantReviews: 15},
		{input: "0 global ratings | 0 global reviews", wantRatings: 0, wantReviews: 0},
		{input: "2,871 total ratings, 412 with reviews", wantRatings: 2871, wantReviews: 412},
		{input: "No customer reviews", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ratings, reviews, err := ParseGlobalCounts(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGlobalCounts(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if ratings != tt.wantRatings || reviews != tt.wantReviews {
				t.Errorf("ParseGlobalCounts(%q) = %d/%d, want %d/%d", tt.input, ratings, reviews, tt.wantRatings, tt.wantReviews)
			}
		})
	}
}

func TestNormalizeProductName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Amazon.co.uk:Customer reviews: LEGO 10696 Classic Bricks", want: "LEGO 10696 Classic Bricks"},
		{input: "Amazon.com: Customer reviews: Echo Dot", want: "Echo Dot"},
		{input: "  Plain Title ", want: "Plain Title"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeProductName(tt.input); got != tt.want {
				t.Errorf("NormalizeProductName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFieldErrorUnwrap(t *testing.T) {
	err := error(&FieldError{Field: "rating", Err: ErrEmpty})
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("FieldError should unwrap to ErrEmpty")
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "rating" {
		t.Fatalf("errors.As should expose the field name")
	}
}
