package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrPipelineCloseTimeout is returned when workers do not drain in time.
	ErrPipelineCloseTimeout = errors.New("pipeline: close timed out")
)

// drainTimeout bounds how long Close waits for in-flight batches.
var drainTimeout = 30 * time.Second

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(reviews []*models.Review) error
	Close() error
	Validate() error
}

// SummaryWriter is implemented by writers that can also persist the
// per-product summaries.
type SummaryWriter interface {
	WriteSummaries(summaries []models.ProductSummary) error
}

// Pipeline coordinates validation and batched output writing. Records pass
// through untouched; invalid ones are counted and dropped.
type Pipeline struct {
	ctx       context.Context
	writer    OutputWriter
	reviewCh  chan *models.Review
	batchSize int

	wg sync.WaitGroup

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline sized from cfg. Cancelling ctx stops new
// submissions; records already queued are still written by Close.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}
	bufferSize, batchSize := 512, 64
	if cfg != nil {
		if cfg.PipelineBufferSize > 0 {
			bufferSize = cfg.PipelineBufferSize
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
	}

	return &Pipeline{
		ctx:       ctx,
		writer:    writer,
		reviewCh:  make(chan *models.Review, bufferSize),
		batchSize: batchSize,
		metrics:   metrics{validation: make(map[string]int)},
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines. A single worker keeps records in
// submission order.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues reviews for downstream processing.
func (p *Pipeline) Process(reviews ...*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, review := range reviews {
		if review == nil {
			continue
		}
		if err := p.enqueue(review); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.reviewCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		return fmt.Errorf("%w after %s", ErrPipelineCloseTimeout, drainTimeout)
	}
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				processed := metrics["processed_reviews"].(int64)
				validation := metrics["validation_errors"].(map[string]int)
				invalid := 0
				for _, n := range validation {
					invalid += n
				}
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("validation_errors", invalid),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.Review, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = make([]*models.Review, 0, p.batchSize)
		return nil
	}

	for review := range p.reviewCh {
		if !p.accept(review) {
			continue
		}
		batch = append(batch, review)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) accept(review *models.Review) bool {
	if err := parser.ValidateReview(review); err != nil {
		slog.Debug("dropping invalid review", slog.Any("error", err))
		p.metrics.addValidation("invalid_record")
		return false
	}
	p.metrics.incrementProcessed()
	return true
}

func (p *Pipeline) enqueue(review *models.Review) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.reviewCh <- review:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.reviewCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_reviews": m.processed,
		"validation_errors": copyValidation,
	}
}
