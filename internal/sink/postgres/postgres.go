// Package postgres is the batched PostgreSQL writer for decoded field
// snapshots. A Sink accumulates Snapshot values in memory and flushes them
// to the database either when the buffer reaches a configured batch size or
// when a background ticker fires, whichever comes first.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripwire/framewire/internal/schema"
	"github.com/tripwire/framewire/internal/valuemap"
)

const (
	// DefaultBatchSize is the maximum number of snapshot rows held in memory
	// before an automatic flush is triggered.
	DefaultBatchSize = 100

	// DefaultFlushInterval is how often the background goroutine flushes
	// pending snapshots even when the buffer has not reached DefaultBatchSize.
	DefaultFlushInterval = 2 * time.Second
)

// Snapshot is one decoded field value, timestamped, destined for the
// field_snapshot table.
type Snapshot struct {
	Tag       schema.FieldTag
	Data      []byte
	Timestamp time.Time
}

// Sink is the PostgreSQL-backed storage layer for decoded field snapshots.
type Sink struct {
	pool          *pgxpool.Pool
	mu            sync.Mutex
	batch         []Snapshot
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// Open opens a pgxpool connection to connStr, pings the database, and
// starts the background flush goroutine.
//
// batchSize <= 0 is replaced with DefaultBatchSize.
// flushInterval <= 0 is replaced with DefaultFlushInterval.
func Open(ctx context.Context, connStr string, batchSize int, flushInterval time.Duration) (*Sink, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("sink/postgres: pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sink/postgres: pool.Ping: %w", err)
	}

	s := &Sink{
		pool:          pool,
		batch:         make([]Snapshot, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

// Close stops the background flush goroutine, flushes any remaining
// buffered snapshots, and closes the connection pool. Safe to call more
// than once; subsequent calls are no-ops.
func (s *Sink) Close(ctx context.Context) {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
		<-s.doneCh
		_ = s.Flush(ctx)
	}
	s.pool.Close()
}

func (s *Sink) flushLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			_ = s.Flush(context.Background())
		}
	}
}

// WriteSnapshot enqueues every field in m for deferred batch insertion. If
// the internal buffer reaches batchSize after appending, Flush is called
// synchronously so the caller observes back-pressure rather than unbounded
// memory growth.
func (s *Sink) WriteSnapshot(ctx context.Context, m valuemap.Map) error {
	s.mu.Lock()
	for tag, payload := range m {
		s.batch = append(s.batch, Snapshot{Tag: tag, Data: payload.Data, Timestamp: payload.Timestamp})
	}
	full := len(s.batch) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.Flush(ctx)
	}
	return nil
}

// Flush drains the current snapshot buffer and sends all rows to
// PostgreSQL in a single pgx.Batch round-trip. Flush is safe to call
// concurrently: a mutex swap ensures each call drains a distinct snapshot
// of the buffer.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	toInsert := s.batch
	s.batch = make([]Snapshot, 0, s.batchSize)
	s.mu.Unlock()

	const query = `
		INSERT INTO field_snapshot (field_tag, data, observed_at)
		VALUES ($1, $2, $3)`

	b := &pgx.Batch{}
	for i := range toInsert {
		snap := &toInsert[i]
		b.Queue(query, int64(snap.Tag), snap.Data, snap.Timestamp)
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close()

	for range toInsert {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("sink/postgres: batch exec snapshot: %w", err)
		}
	}
	return nil
}

// FieldQuery selects field_snapshot rows within [From, To) on observed_at,
// optionally filtered to a single field tag.
type FieldQuery struct {
	Tag    *schema.FieldTag
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// QuerySnapshots returns paginated snapshots matching q, ordered by
// observed_at DESC. q.Limit defaults to 100.
func (s *Sink) QuerySnapshots(ctx context.Context, q FieldQuery) ([]Snapshot, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}

	args := []any{q.From, q.To, q.Limit, q.Offset}
	where := "WHERE observed_at >= $1 AND observed_at < $2"
	if q.Tag != nil {
		where += " AND field_tag = $5"
		args = append(args, int64(*q.Tag))
	}

	sqlText := fmt.Sprintf(`
		SELECT field_tag, data, observed_at
		FROM   field_snapshot
		%s
		ORDER  BY observed_at DESC
		LIMIT  $3 OFFSET $4`, where)

	rows, err := s.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("sink/postgres: query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var tag int64
		if err := rows.Scan(&tag, &snap.Data, &snap.Timestamp); err != nil {
			return nil, fmt.Errorf("sink/postgres: scan snapshot: %w", err)
		}
		snap.Tag = schema.FieldTag(tag)
		out = append(out, snap)
	}
	return out, rows.Err()
}
