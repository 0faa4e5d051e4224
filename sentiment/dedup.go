package sentiment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Deduper drops reposted records whose full content was already kept. Keys
// are content hashes held in a bounded LRU; once more than maxSize distinct
// records pass through, the oldest keys are forgotten. Collect sizes it to
// the result set.
type Deduper struct {
	seen *lru.Cache[string, struct{}]
}

// NewDeduper remembers at most maxSize records.
func NewDeduper(maxSize int) (*Deduper, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("dedupe size must be positive, got %d", maxSize)
	}
	cache, err := lru.New[string, struct{}](maxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Deduper{seen: cache}, nil
}

// Keep reports whether rec belongs in the result. Records that were never
// reposted are always kept; reposted ones only the first time their exact
// content appears.
func (d *Deduper) Keep(rec models.SentimentRecord, reposts int) bool {
	key := recordKey(rec)
	if reposts <= 0 {
		d.seen.Add(key, struct{}{})
		return true
	}
	seen, _ := d.seen.ContainsOrAdd(key, struct{}{})
	return !seen
}

func recordKey(rec models.SentimentRecord) string {
	h := sha256.New()
	h.Write([]byte(rec.Text))
	h.Write([]byte{0})
	h.Write([]byte(rec.Time.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte{0})
	h.Write([]byte(rec.Sentiment))
	return hex.EncodeToString(h.Sum(nil))
}
