package scraper

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/parser"
)

const (
	reviewSelector      = `div[data-hook="review"]`
	titleSelector       = `a[data-hook="review-title"]`
	ratingSelector      = `i[data-hook="review-star-rating"]`
	bodySelector        = `span[data-hook="review-body"]`
	dateSelector        = `span[data-hook="review-date"]`
	helpfulSelector     = `span[data-hook="helpful-vote-statement"]`
	globalCountSelector = `div[data-hook="cr-filter-info-review-rating-count"]`
	lastPageSelector    = `li.a-disabled.a-last`
)

var errMissingElement = errors.New("element not found")

// PageReviews holds the extraction outcome of one page. Found always equals
// len(Reviews)+len(Skipped).
type PageReviews struct {
	Reviews []*models.Review
	Skipped []*models.SkippedReview
	Found   int
}

// ExtractReviews parses every review container on doc. A container that
// fails extraction is recorded as skipped and does not affect the others.
func ExtractReviews(doc *goquery.Document, page int) PageReviews {
	product := parser.NormalizeProductName(doc.Find("title").First().Text())

	containers := doc.Find(reviewSelector)
	out := PageReviews{Found: containers.Length()}

	containers.Each(func(_ int, item *goquery.Selection) {
		review, err := extractReview(item, product, page)
		if err != nil {
			html, _ := goquery.OuterHtml(item)
			out.Skipped = append(out.Skipped, &models.SkippedReview{
				Page:   page,
				Reason: err.Error(),
				HTML:   html,
			})
			return
		}
		out.Reviews = append(out.Reviews, review)
	})

	return out
}

func extractReview(item *goquery.Selection, product string, page int) (*models.Review, error) {
	if product == "" {
		return nil, &parser.FieldError{Field: "product", Err: parser.ErrEmpty}
	}

	title, err := requiredText(item, titleSelector, "title")
	if err != nil {
		return nil, err
	}

	ratingText, err := requiredText(item, ratingSelector, "rating")
	if err != nil {
		return nil, err
	}
	rating, err := parser.ParseRating(ratingText)
	if err != nil {
		return nil, &parser.FieldError{Field: "rating", Err: err}
	}

	body, err := requiredText(item, bodySelector, "body")
	if err != nil {
		return nil, err
	}

	dateText, err := requiredText(item, dateSelector, "date")
	if err != nil {
		return nil, err
	}
	date, err := parser.ParseReviewDate(dateText)
	if err != nil {
		return nil, &parser.FieldError{Field: "date", Err: err}
	}

	helpfulness := 0
	if helpful := item.Find(helpfulSelector).First(); helpful.Length() > 0 {
		helpfulness, err = parser.ParseHelpfulness(helpful.Text())
		if err != nil {
			return nil, &parser.FieldError{Field: "helpfulness", Err: err}
		}
	}

	return &models.Review{
		Product:     product,
		Title:       title,
		Page:        page,
		Rating:      rating,
		Helpfulness: helpfulness,
		Date:        date,
		Body:        body,
	}, nil
}

func requiredText(item *goquery.Selection, selector, field string) (string, error) {
	sel := item.Find(selector).First()
	if sel.Length() == 0 {
		return "", &parser.FieldError{Field: field, Err: errMissingElement}
	}
	return strings.TrimSpace(sel.Text()), nil
}

// ExtractGlobalCounts reads the site-reported rating and review totals.
func ExtractGlobalCounts(doc *goquery.Document) (ratings, reviews int, err error) {
	sel := doc.Find(globalCountSelector).First()
	if sel.Length() == 0 {
		return 0, 0, &parser.FieldError{Field: "global_counts", Err: errMissingElement}
	}
	return parser.ParseGlobalCounts(sel.Text())
}

// IsLastPage reports whether the "next page" control is disabled.
func IsLastPage(doc *goquery.Document) bool {
	return doc.Find(lastPageSelector).Length() > 0
}
