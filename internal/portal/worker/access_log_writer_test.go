package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBatchWriter records written batches and optionally fails.
type fakeBatchWriter struct {
	mu      sync.Mutex
	batches [][]*portalDomain.AccessLog
	err     error
	block   chan struct{}
}

func (f *fakeBatchWriter) WriteBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, entries)
	return f.err
}

func (f *fakeBatchWriter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func (f *fakeBatchWriter) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func entry() *portalDomain.AccessLog {
	return &portalDomain.AccessLog{
		ID:         uuid.Must(uuid.NewV7()),
		TokenID:    uuid.Must(uuid.NewV7()),
		Action:     portalDomain.ActionQuoteViewed,
		Outcome:    portalDomain.OutcomeGranted,
		AccessedAt: time.Now().UTC(),
	}
}

func startWriter(t *testing.T, w *AccessLogWriter) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancelCtx()
		require.NoError(t, <-done)
	}
}

func TestAccessLogWriter_FlushesFullBatches(t *testing.T) {
	sink := &fakeBatchWriter{}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 16, BatchSize: 3, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)
	stop := startWriter(t, w)

	for i := 0; i < 6; i++ {
		w.Enqueue(entry())
	}

	assert.Eventually(t, func() bool { return sink.total() == 6 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, sink.batchCount())
	stop()
}

func TestAccessLogWriter_FlushesOnInterval(t *testing.T) {
	sink := &fakeBatchWriter{}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 16, BatchSize: 100, FlushInterval: 10 * time.Millisecond},
		sink, discardLogger(), nil,
	)
	stop := startWriter(t, w)

	w.Enqueue(entry())

	assert.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)
	stop()
}

func TestAccessLogWriter_DrainsOnShutdown(t *testing.T) {
	sink := &fakeBatchWriter{}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 64, BatchSize: 10, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)

	for i := 0; i < 25; i++ {
		w.Enqueue(entry())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, 25, sink.total())
	written, dropped, failed := w.Stats()
	assert.Equal(t, int64(25), written)
	assert.Zero(t, dropped)
	assert.Zero(t, failed)
}

func TestAccessLogWriter_EnqueueNeverBlocks(t *testing.T) {
	sink := &fakeBatchWriter{}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 2, BatchSize: 10, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			w.Enqueue(entry())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}

	_, dropped, _ := w.Stats()
	assert.Equal(t, int64(3), dropped)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 2, sink.total())
}

func TestAccessLogWriter_WriteFailuresAreCounted(t *testing.T) {
	sink := &fakeBatchWriter{err: errors.New("database unavailable")}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 8, BatchSize: 2, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)

	for i := 0; i < 4; i++ {
		w.Enqueue(entry())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	written, _, failed := w.Stats()
	assert.Zero(t, written)
	assert.Equal(t, int64(4), failed)
}

// rejectingWriter fails any batch that contains the rejected entry, the way a single
// oversized column value fails a multi-row INSERT.
type rejectingWriter struct {
	mu       sync.Mutex
	rejected uuid.UUID
	stored   map[uuid.UUID]bool
	calls    int
}

func (r *rejectingWriter) WriteBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, e := range entries {
		if e.ID == r.rejected {
			return errors.New("pq: value too long for type character varying(64)")
		}
	}
	for _, e := range entries {
		r.stored[e.ID] = true
	}
	return nil
}

func TestAccessLogWriter_RejectedEntryDoesNotLoseItsBatch(t *testing.T) {
	bad := entry()
	sink := &rejectingWriter{rejected: bad.ID, stored: map[uuid.UUID]bool{}}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 16, BatchSize: 5, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)

	good := []*portalDomain.AccessLog{entry(), entry(), entry(), entry()}
	w.Enqueue(good[0])
	w.Enqueue(good[1])
	w.Enqueue(bad)
	w.Enqueue(good[2])
	w.Enqueue(good[3])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	for _, e := range good {
		assert.True(t, sink.stored[e.ID], "entry %s should have been written", e.ID)
	}
	assert.False(t, sink.stored[bad.ID])
	assert.Equal(t, 6, sink.calls, "one batch attempt plus one retry per entry")

	written, dropped, failed := w.Stats()
	assert.Equal(t, int64(4), written)
	assert.Zero(t, dropped)
	assert.Equal(t, int64(1), failed)
}

func TestAccessLogWriter_HealthyBatchIsWrittenOnce(t *testing.T) {
	sink := &rejectingWriter{rejected: uuid.Nil, stored: map[uuid.UUID]bool{}}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 16, BatchSize: 5, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)
	for i := 0; i < 5; i++ {
		w.Enqueue(entry())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, 1, sink.calls)
	assert.Len(t, sink.stored, 5)
}

func TestAccessLogWriter_SlowWriterDoesNotBlockEnqueue(t *testing.T) {
	sink := &fakeBatchWriter{block: make(chan struct{})}
	w := NewAccessLogWriter(
		AccessLogWriterConfig{BufferSize: 1, BatchSize: 1, FlushInterval: time.Hour},
		sink, discardLogger(), nil,
	)
	stop := startWriter(t, w)

	w.Enqueue(entry())
	start := time.Now()
	for i := 0; i < 10; i++ {
		w.Enqueue(entry())
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(sink.block)
	stop()
}

func TestNewAccessLogWriter_Defaults(t *testing.T) {
	w := NewAccessLogWriter(AccessLogWriterConfig{}, &fakeBatchWriter{}, discardLogger(), nil)

	assert.Equal(t, defaultBufferSize, cap(w.buffer))
	assert.Equal(t, defaultBatchSize, w.batchSize)
	assert.Equal(t, defaultFlushInterval, w.flushInterval)
}
