// Package worker contains the portal's background tasks.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/flowtrade/portal/internal/metrics"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

const (
	defaultBufferSize    = 1024
	defaultBatchSize     = 50
	defaultFlushInterval = 500 * time.Millisecond
	drainTimeout         = 5 * time.Second
)

// BatchWriter persists a batch of access log entries.
type BatchWriter interface {
	WriteBatch(ctx context.Context, entries []*portalDomain.AccessLog) error
}

// AccessLogWriterConfig configures an AccessLogWriter. Zero values select defaults.
type AccessLogWriterConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// AccessLogWriter persists access log entries off the request path. Enqueue never blocks:
// when the buffer is full the entry is dropped and counted. A single Run loop batches
// entries and writes them; write failures are logged and counted, never surfaced to the
// request that produced the entry.
type AccessLogWriter struct {
	buffer        chan *portalDomain.AccessLog
	batchSize     int
	flushInterval time.Duration
	writer        BatchWriter
	logger        *slog.Logger
	metrics       metrics.BusinessMetrics

	dropped   atomic.Int64
	failed    atomic.Int64
	written   atomic.Int64
	dropWarn  rate.Sometimes
	writeWarn rate.Sometimes
}

// NewAccessLogWriter creates a writer. Call Run to start flushing.
func NewAccessLogWriter(
	cfg AccessLogWriterConfig,
	writer BatchWriter,
	logger *slog.Logger,
	m metrics.BusinessMetrics,
) *AccessLogWriter {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}

	return &AccessLogWriter{
		buffer:        make(chan *portalDomain.AccessLog, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		writer:        writer,
		logger:        logger,
		metrics:       m,
		dropWarn:      rate.Sometimes{First: 1, Interval: 10 * time.Second},
		writeWarn:     rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Enqueue queues an entry for persistence. It drops the entry if the buffer is full.
func (w *AccessLogWriter) Enqueue(entry *portalDomain.AccessLog) {
	select {
	case w.buffer <- entry:
	default:
		total := w.dropped.Add(1)
		w.metrics.RecordOperation(context.Background(), "portal", "access_log_enqueue", "dropped")
		w.dropWarn.Do(func() {
			w.logger.Warn("access log buffer full, dropping entries",
				slog.Int64("dropped_total", total),
				slog.Int("buffer_size", cap(w.buffer)),
			)
		})
	}
}

// Run flushes batches until ctx is cancelled, then drains whatever is still buffered.
func (w *AccessLogWriter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]*portalDomain.AccessLog, 0, w.batchSize)

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			defer cancel()
			w.drain(drainCtx, batch)
			return nil
		case entry := <-w.buffer:
			batch = append(batch, entry)
			if len(batch) >= w.batchSize {
				batch = w.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = w.flush(ctx, batch)
		}
	}
}

func (w *AccessLogWriter) drain(ctx context.Context, batch []*portalDomain.AccessLog) {
	for {
		select {
		case entry := <-w.buffer:
			batch = append(batch, entry)
			if len(batch) >= w.batchSize {
				batch = w.flush(ctx, batch)
			}
		default:
			w.flush(ctx, batch)
			return
		}
	}
}

// flush writes the batch and returns it emptied for reuse. When the batch insert fails the
// entries are retried one at a time, so a single entry the store rejects does not take the
// rest of the batch with it.
func (w *AccessLogWriter) flush(ctx context.Context, batch []*portalDomain.AccessLog) []*portalDomain.AccessLog {
	if len(batch) == 0 {
		return batch
	}

	entries := make([]*portalDomain.AccessLog, len(batch))
	copy(entries, batch)

	err := w.writer.WriteBatch(ctx, entries)
	if err == nil {
		w.written.Add(int64(len(entries)))
		w.metrics.RecordOperation(ctx, "portal", "access_log_write", "success")
		return batch[:0]
	}
	if len(entries) > 1 {
		w.logger.Debug("access log batch rejected, retrying entries individually",
			slog.Any("error", err),
			slog.Int("batch_size", len(entries)))
		err = w.writeEach(ctx, entries)
	} else {
		w.recordFailed(ctx, 1, err)
	}
	if err == nil {
		w.metrics.RecordOperation(ctx, "portal", "access_log_write", "success")
	}

	return batch[:0]
}

// writeEach writes entries one per call and returns the last error seen, if any.
func (w *AccessLogWriter) writeEach(ctx context.Context, entries []*portalDomain.AccessLog) error {
	var lastErr error
	for _, entry := range entries {
		if err := w.writer.WriteBatch(ctx, []*portalDomain.AccessLog{entry}); err != nil {
			lastErr = err
			w.recordFailed(ctx, 1, err)
			continue
		}
		w.written.Add(1)
	}
	return lastErr
}

func (w *AccessLogWriter) recordFailed(ctx context.Context, n int, err error) {
	total := w.failed.Add(int64(n))
	w.metrics.RecordOperation(ctx, "portal", "access_log_write", "error")
	w.writeWarn.Do(func() {
		w.logger.Error("failed to write access logs",
			slog.Any("error", err),
			slog.Int("entries", n),
			slog.Int64("failed_total", total),
		)
	})
}

// Stats reports how many entries were written, dropped at enqueue time and lost to
// write failures.
func (w *AccessLogWriter) Stats() (written, dropped, failed int64) {
	return w.written.Load(), w.dropped.Load(), w.failed.Load()
}
