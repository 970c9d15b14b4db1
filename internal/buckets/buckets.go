// Package buckets batches generation records and flushes them to the usage
// ledger
package buckets

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"insight-api/internal/database"
	"insight-api/internal/metrics"
	"insight-api/internal/shared"

	"go.uber.org/zap"
)

type FlushFunc func(ctx context.Context, records []*shared.GenerationRecord) error

type UsageCache struct {
	mu       sync.Mutex
	records  []*shared.GenerationRecord
	timer    *time.Timer
	flushing sync.WaitGroup
	closed   bool

	log        *zap.SugaredLogger
	flush      FlushFunc
	interval   time.Duration
	maxSize    int
	retryDelay time.Duration
}

func NewUsageCache(log *zap.SugaredLogger, db *sql.DB) *UsageCache {
	return NewUsageCacheWithFlush(log, DBFlush(db), shared.BucketFlushInterval, shared.MaxBucketSize)
}

func NewUsageCacheWithFlush(log *zap.SugaredLogger, flush FlushFunc, interval time.Duration, maxSize int) *UsageCache {
	return &UsageCache{
		log:        log,
		flush:      flush,
		interval:   interval,
		maxSize:    maxSize,
		retryDelay: shared.BucketRetryDelay,
	}
}

// DBFlush writes a batch in a single transaction.
func DBFlush(db *sql.DB) FlushFunc {
	return func(ctx context.Context, records []*shared.GenerationRecord) error {
		return database.ExecuteTransaction(ctx, db, []func(*sql.Tx) error{
			func(tx *sql.Tx) error {
				return database.SaveGenerations(ctx, tx, records)
			},
		})
	}
}

// AddRecord buffers a record. The first record of a fresh bucket arms the
// flush timer; reaching maxSize flushes right away.
func (c *UsageCache) AddRecord(record *shared.GenerationRecord) {
	if record == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.log.Warnw("Usage cache closed, dropping record", "request_id", record.RequestID)
		return
	}
	c.records = append(c.records, record)

	if len(c.records) >= c.maxSize {
		c.flushLocked()
		return
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.interval, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.flushLocked()
		})
	}
}

// flushLocked detaches the current bucket and writes it in the background.
// Caller must hold c.mu.
func (c *UsageCache) flushLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if len(c.records) == 0 {
		return
	}
	batch := c.records
	c.records = nil

	c.flushing.Add(1)
	go func() {
		defer c.flushing.Done()
		c.write(batch)
	}()
}

func (c *UsageCache) write(batch []*shared.GenerationRecord) {
	var err error
	for attempt := range shared.MaxFlushRetries {
		err = c.flush(context.Background(), batch)
		if err == nil {
			c.log.Infow("Flushed usage bucket", "records", len(batch))
			metrics.LedgerRecords.WithLabelValues("saved").Add(float64(len(batch)))
			return
		}
		c.log.Warnw("Failed to flush usage bucket, retrying", "error", err, "attempt", attempt+1)
		if attempt+1 < shared.MaxFlushRetries {
			time.Sleep(c.retryDelay)
		}
	}
	c.log.Errorw("Failed to flush usage bucket, dropping records", "error", err, "records", len(batch), "retries", shared.MaxFlushRetries)
	metrics.LedgerRecords.WithLabelValues("dropped").Add(float64(len(batch)))
	metrics.ErrorCount.WithLabelValues("unknown", shared.ErrFailedSavingRecords.Code).Inc()
}

// Shutdown flushes what is buffered and waits for in-flight writes.
func (c *UsageCache) Shutdown() {
	c.log.Info("Shutting down usage cache")
	c.mu.Lock()
	c.closed = true
	c.flushLocked()
	c.mu.Unlock()
	c.flushing.Wait()
}
