package sentiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/social"
)

// Searcher fetches raw posts. *social.Client implements it.
type Searcher interface {
	Search(ctx context.Context, opts social.SearchOptions) ([]models.Post, error)
}

// Collector runs a search and turns the posts into deduplicated records.
type Collector struct {
	searcher   Searcher
	classifier *Classifier
	dedupeSize int
}

// NewCollector wires a searcher to a classifier. dedupeSize bounds the
// number of records remembered for repost dedup.
func NewCollector(searcher Searcher, classifier *Classifier, dedupeSize int) *Collector {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Collector{
		searcher:   searcher,
		classifier: classifier,
		dedupeSize: dedupeSize,
	}
}

// Collect searches and classifies. Search failures are returned so callers
// can tell an error apart from an empty result.
func (c *Collector) Collect(ctx context.Context, opts social.SearchOptions) ([]models.SentimentRecord, error) {
	posts, err := c.searcher.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", opts.Query, err)
	}

	// The whole result set is in memory anyway; a cache smaller than it
	// would forget keys and let reposted duplicates back in.
	deduper, err := NewDeduper(max(c.dedupeSize, len(posts), 1))
	if err != nil {
		return nil, err
	}

	records := make([]models.SentimentRecord, 0, len(posts))
	dropped := 0
	for _, post := range posts {
		rec := models.SentimentRecord{
			Text:      post.Text,
			Time:      post.CreatedAt,
			Sentiment: c.classifier.Classify(post.Text),
		}
		if !deduper.Keep(rec, post.RetweetCount) {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	slog.Info("posts classified",
		slog.String("query", opts.Query),
		slog.Int("fetched", len(posts)),
		slog.Int("kept", len(records)),
		slog.Int("duplicates", dropped),
	)
	return records, nil
}
