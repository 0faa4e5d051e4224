package pipeline

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
)

type mockWriter struct {
	mu          sync.Mutex
	batches     [][]*models.Review
	closed      bool
	validateErr error
}

func (mw *mockWriter) Write(reviews []*models.Review) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	copyBatch := make([]*models.Review, len(reviews))
	copy(copyBatch, reviews)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return mw.validateErr
}

func (mw *mockWriter) all() []*models.Review {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var out []*models.Review
	for _, batch := range mw.batches {
		out = append(out, batch...)
	}
	return out
}

func (mw *mockWriter) totalWritten() int {
	return len(mw.all())
}

func (mw *mockWriter) batchSizes() []int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	sizes := make([]int, 0, len(mw.batches))
	for _, batch := range mw.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

type blockingWriter struct {
	blockCh chan struct{}
}

func (bw *blockingWriter) Write(reviews []*models.Review) error {
	<-bw.blockCh
	return nil
}

func (bw *blockingWriter) Close() error {
	return nil
}

func (bw *blockingWriter) Validate() error {
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(reviews []*models.Review) error {
	return errors.New("disk full")
}

func (failingWriter) Close() error {
	return nil
}

func (failingWriter) Validate() error {
	return nil
}

func testReview(i int) *models.Review {
	return &models.Review{
		Product:     "LEGO Classic Bricks",
		Title:       "Review " + strconv.Itoa(i),
		Page:        1,
		Rating:      5,
		Helpfulness: i,
		Date:        time.Date(2021, time.September, 26, 0, 0, 0, 0, time.UTC),
		Body:        "Great set",
	}
}

func TestPipelineProcessValidation(t *testing.T) {
	cfg := config.DefaultConfig()
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	valid := testReview(1)
	invalid := testReview(2)
	invalid.Rating = 7
	undated := testReview(3)
	undated.Date = time.Time{}

	if err := p.Process(valid, invalid, undated); err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 1 {
		t.Fatalf("written reviews = %d, want 1", got)
	}

	metrics := p.GetMetrics()
	validation, ok := metrics["validation_errors"].(map[string]int)
	if !ok {
		t.Fatalf("expected validation errors map")
	}
	if validation["invalid_record"] != 2 {
		t.Fatalf("invalid_record = %d, want 2", validation["invalid_record"])
	}
	if processed := metrics["processed_reviews"].(int64); processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
}

func TestPipelineKeepsDuplicatesAndOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 3
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	reviews := []*models.Review{testReview(1), testReview(2), testReview(1), testReview(3)}
	before := *reviews[0]
	if err := p.Process(reviews...); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	written := writer.all()
	if len(written) != len(reviews) {
		t.Fatalf("written = %d, want %d", len(written), len(reviews))
	}
	for i := range reviews {
		if written[i] != reviews[i] {
			t.Fatalf("review %d out of order", i)
		}
	}
	if *written[0] != before {
		t.Fatalf("review was modified: %+v", written[0])
	}
}

func TestPipelineBatchFlushThreshold(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 64
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	for i := 0; i < 65; i++ {
		if err := p.Process(testReview(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sizes := writer.batchSizes()
	if len(sizes) != 2 {
		t.Fatalf("batch writes = %d, want 2", len(sizes))
	}
	if sizes[0] != 64 || sizes[1] != 1 {
		t.Fatalf("batch sizes = %v, want [64 1]", sizes)
	}
}

func TestPipelineCloseDrainsPendingItems(t *testing.T) {
	cfg := config.DefaultConfig()
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start(2)

	for i := 0; i < 100; i++ {
		if err := p.Process(testReview(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 100 {
		t.Fatalf("written reviews = %d, want 100", got)
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	p := NewPipeline(context.Background(), &mockWriter{}, config.DefaultConfig())
	p.Start(1)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := p.Process(testReview(1)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("process after close = %v, want ErrPipelineClosed", err)
	}
}

func TestPipelineWriterFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 1
	p := NewPipeline(context.Background(), failingWriter{}, cfg)
	p.Start(1)

	if err := p.Process(testReview(1)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := p.Close(); err == nil {
		t.Fatalf("expected write error from close")
	}
}

func TestPipelineCloseTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 1

	writer := &blockingWriter{blockCh: make(chan struct{})}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	if err := p.Process(testReview(1)); err != nil {
		t.Fatalf("process: %v", err)
	}

	previousTimeout := drainTimeout
	drainTimeout = 25 * time.Millisecond
	t.Cleanup(func() {
		drainTimeout = previousTimeout
		close(writer.blockCh)
	})

	if err := p.Close(); err == nil || !errors.Is(err, ErrPipelineCloseTimeout) {
		t.Fatalf("expected close timeout error, got %v", err)
	}
}
