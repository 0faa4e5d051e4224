package scraper

import (
	"context"
	"log/slog"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// ProductResult is everything scraped for one product URL.
type ProductResult struct {
	Reviews []*models.Review
	Skipped []*models.SkippedReview
	Summary models.ProductSummary
}

// ScrapeProduct walks the review pages of one product in order. Page 1..N-1
// are visited, where N is MaxPagesPerProduct, unless the site reports zero
// reviews or the last-page marker shows up first. Failed pages are counted
// and skipped; nothing here aborts the product.
func (s *Scraper) ScrapeProduct(ctx context.Context, productURL string) *ProductResult {
	result := &ProductResult{}
	summary := models.ProductSummary{
		ProductURL: productURL,
		StopReason: models.StopPageLimit,
	}

	reviewURL, err := BuildReviewURL(productURL)
	if err != nil {
		slog.Warn("skipping product url", slog.String("url", productURL), slog.Any("error", err))
		summary.StopReason = models.StopInvalidURL
		summary.Error = err.Error()
		result.Summary = summary
		return result
	}
	summary.ReviewURL = reviewURL
	slog.Info("scraping product", slog.String("review_url", reviewURL))

	countsChecked := false
	for page := 1; page < s.cfg.MaxPagesPerProduct; page++ {
		if ctx.Err() != nil {
			summary.StopReason = models.StopCancelled
			break
		}

		fetched := s.fetcher.Fetch(ctx, PageURL(reviewURL, page))
		summary.ErrorsEncountered = fetched.Attempts
		if fetched.Document == nil {
			if ctx.Err() != nil {
				summary.StopReason = models.StopCancelled
				break
			}
			summary.PagesSkipped++
			s.Metrics.IncPagesSkipped()
			continue
		}
		doc := fetched.Document

		extracted := ExtractReviews(doc, page)
		for _, skipped := range extracted.Skipped {
			skipped.ProductURL = productURL
			slog.Debug("skipping review",
				slog.String("url", productURL),
				slog.Int("page", page),
				slog.String("reason", skipped.Reason),
			)
		}
		result.Reviews = append(result.Reviews, extracted.Reviews...)
		result.Skipped = append(result.Skipped, extracted.Skipped...)
		summary.PagesScraped++
		s.Metrics.AddReviews(len(extracted.Reviews), len(extracted.Skipped))
		if summary.Product == "" && len(extracted.Reviews) > 0 {
			summary.Product = extracted.Reviews[0].Product
		}

		if !countsChecked {
			countsChecked = true
			ratings, reviews, err := ExtractGlobalCounts(doc)
			if err != nil {
				slog.Warn("global review counts not found", slog.String("url", productURL), slog.Any("error", err))
			} else {
				summary.GlobalRatings = ratings
				summary.GlobalReviews = reviews
				summary.CountsFound = true
				if reviews == 0 {
					summary.StopReason = models.StopNoReviews
					break
				}
			}
		}

		slog.Info("scraped review page",
			slog.Int("page", page),
			slog.Int("found", extracted.Found),
			slog.Int("reviews_total", len(result.Reviews)),
		)

		if IsLastPage(doc) {
			slog.Info("final review page found", slog.String("url", productURL), slog.Int("page", page))
			summary.StopReason = models.StopLastPage
			break
		}
	}

	summary.ReviewsScraped = len(result.Reviews)
	summary.ReviewsSkipped = len(result.Skipped)
	result.Summary = summary

	slog.Info("product complete",
		slog.String("url", productURL),
		slog.Int("global_ratings", summary.GlobalRatings),
		slog.Int("global_reviews", summary.GlobalReviews),
		slog.Int("errors_encountered", summary.ErrorsEncountered),
		slog.Int("pages_skipped", summary.PagesSkipped),
		slog.Int("reviews_scraped", summary.ReviewsScraped),
		slog.Int("reviews_skipped", summary.ReviewsSkipped),
		slog.String("stop_reason", string(summary.StopReason)),
	)
	return result
}
