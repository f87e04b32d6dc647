package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Ingester consumes closed klines from a source and persists them in
// batches. Duplicates are tolerated: a reconnect can replay the last candle.
type Ingester struct {
	source KlineSource
	store  storage.CandleStore
	logger *log.Logger

	batchSize     int
	flushInterval time.Duration
}

// NewIngester creates an ingester with default batching.
func NewIngester(source KlineSource, store storage.CandleStore, logger *log.Logger) *Ingester {
	return &Ingester{
		source:        source,
		store:         store,
		logger:        logger,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
}

// WithBatching overrides batch size and flush interval.
func (in *Ingester) WithBatching(size int, interval time.Duration) *Ingester {
	in.batchSize = size
	in.flushInterval = interval
	return in
}

// Run streams until the context is cancelled or the source closes its
// channel. Returns the number of candles persisted.
func (in *Ingester) Run(ctx context.Context) (int, error) {
	events, err := in.source.Stream(ctx)
	if err != nil {
		return 0, fmt.Errorf("open kline stream: %w", err)
	}

	var pending []*domain.Candle
	persisted := 0

	ticker := time.NewTicker(in.flushInterval)
	defer ticker.Stop()

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		n, err := in.flushBatch(ctx, pending)
		persisted += n
		pending = pending[:0]
		return err
	}

	for {
		select {
		case <-ctx.Done():
			// Best-effort final flush with a fresh context; the stream
			// context is already dead.
			if len(pending) > 0 {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				n, _ := in.flushBatch(flushCtx, pending)
				cancel()
				persisted += n
			}
			return persisted, ctx.Err()

		case <-ticker.C:
			if err := flush(); err != nil {
				return persisted, err
			}

		case event, ok := <-events:
			if !ok {
				err := flush()
				return persisted, err
			}
			if !event.Closed {
				continue
			}

			candle := event.Candle
			pending = append(pending, &candle)
			if len(pending) >= in.batchSize {
				if err := flush(); err != nil {
					return persisted, err
				}
			}
		}
	}
}

// flushBatch inserts a batch, retrying one-by-one when the batch trips a
// duplicate so replayed candles don't block fresh ones.
func (in *Ingester) flushBatch(ctx context.Context, batch []*domain.Candle) (int, error) {
	err := in.store.InsertBulk(ctx, batch)
	if err == nil {
		return len(batch), nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return 0, fmt.Errorf("persist candles: %w", err)
	}

	in.logger.Printf("duplicate in batch of %d, retrying individually", len(batch))

	inserted := 0
	for _, c := range batch {
		err := in.store.InsertBulk(ctx, []*domain.Candle{c})
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("persist candle: %w", err)
		}
		inserted++
	}
	return inserted, nil
}
