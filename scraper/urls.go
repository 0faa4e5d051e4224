package scraper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	productMarker = "/dp/"
	reviewsMarker = "/product-reviews/"
	// reviewQuery ends with an unset page number; PageURL appends it.
	reviewQuery = "/ref=cm_cr_dp_d_show_all_btm?ie=UTF8&reviewerType=all_reviews&pageNumber="
)

// ErrNotProductURL is returned for URLs without a product detail path.
var ErrNotProductURL = errors.New("url has no product detail path")

// BuildReviewURL rewrites a product detail URL into the "all reviews"
// listing template. Any ref segment, query or fragment is dropped.
func BuildReviewURL(productURL string) (string, error) {
	productURL = strings.TrimSpace(productURL)
	idx := strings.Index(productURL, productMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotProductURL, productURL)
	}

	reviewURL := productURL[:idx] + reviewsMarker + productURL[idx+len(productMarker):]
	if i := strings.Index(reviewURL, "/ref="); i >= 0 {
		reviewURL = reviewURL[:i]
	}
	if i := strings.IndexAny(reviewURL, "?#"); i >= 0 {
		reviewURL = reviewURL[:i]
	}
	reviewURL = strings.TrimRight(reviewURL, "/")

	return reviewURL + reviewQuery, nil
}

// PageURL completes a review URL template with a page number.
func PageURL(reviewURL string, page int) string {
	return reviewURL + strconv.Itoa(page)
}
