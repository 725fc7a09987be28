// Package outbox provides a WAL-mode SQLite-backed durable queue of
// outbound frames. It decouples Processor.Send from the transceiver: a
// caller enqueues a frame id once, and a separate
// delivery goroutine drains the queue through the processor, acknowledging
// each row only once the send has actually happened.
//
// # WAL mode
//
// The database is opened with PRAGMA journal_mode = WAL so the enqueueing
// goroutine and the delivery goroutine can proceed without blocking each
// other.
//
// # At-least-once delivery
//
// The delivered column is set to 1 only when Ack is called. If the process
// crashes between Enqueue and Ack, the frame is returned again by the next
// Dequeue call after restart, so no outbound frame is silently lost.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite" // register "sqlite" driver with database/sql
)

// Outbox is a WAL-mode SQLite-backed durable queue of outbound frames. It is
// safe for concurrent use.
type Outbox struct {
	db    *sql.DB
	depth atomic.Int64
}

// Open opens (or creates) the SQLite database at path, enables WAL journal
// mode, and applies the schema. If path is ":memory:", an in-memory database
// is used; this is suitable for tests but loses all data when closed.
//
// Open seeds the internal depth counter from the number of rows currently
// marked as pending (delivered = 0), so Depth() is accurate immediately
// after a crash-recovery restart.
func Open(path string) (*Outbox, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("outbox: open %q: %w", path, err)
	}

	// SQLite allows only one writer at a time. Limiting the pool to a single
	// connection avoids "database is locked" errors when multiple goroutines
	// call Enqueue concurrently; each call serialises through this connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("outbox: set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous = NORMAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("outbox: set synchronous = NORMAL: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("outbox: apply schema: %w", err)
	}

	ob := &Outbox{db: db}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM outbound_frame WHERE delivered = 0`).Scan(&count); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("outbox: count pending rows: %w", err)
	}
	ob.depth.Store(count)

	return ob, nil
}

const ddl = `
CREATE TABLE IF NOT EXISTS outbound_frame (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    frame_id    INTEGER NOT NULL,
    attempts    INTEGER NOT NULL DEFAULT 0,
    enqueued_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    delivered   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_outbound_frame_pending
    ON outbound_frame (delivered, id);
`

// PendingFrame is an unacknowledged outbound frame returned by Dequeue. ID
// is the database primary key used to acknowledge the frame via Ack.
// FrameID identifies which schema.Frame layout in the processor's frame map
// should be sent; field values are read from the processor's live value map
// at send time rather than snapshotted here, so an enqueued send always
// reflects the freshest known field values.
type PendingFrame struct {
	ID       int64
	FrameID  uint8
	Attempts int
}

// Enqueue persists a request to send frameID. It is returned by subsequent
// Dequeue calls until Ack is called for its ID.
func (o *Outbox) Enqueue(ctx context.Context, frameID uint8) (int64, error) {
	result, err := o.db.ExecContext(ctx,
		`INSERT INTO outbound_frame (frame_id) VALUES (?)`, frameID)
	if err != nil {
		return 0, fmt.Errorf("outbox: enqueue: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("outbox: enqueue: last insert id: %w", err)
	}

	o.depth.Add(1)
	return id, nil
}

// Dequeue returns up to n unacknowledged frames in insertion order (oldest
// first). It does not mark frames as delivered; call Ack with the returned
// IDs to do that. If n <= 0, Dequeue returns nil without querying the
// database.
func (o *Outbox) Dequeue(ctx context.Context, n int) ([]PendingFrame, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := o.db.QueryContext(ctx,
		`SELECT id, frame_id, attempts
		 FROM   outbound_frame
		 WHERE  delivered = 0
		 ORDER  BY id
		 LIMIT  ?`, n)
	if err != nil {
		return nil, fmt.Errorf("outbox: dequeue query: %w", err)
	}
	defer rows.Close()

	var frames []PendingFrame
	for rows.Next() {
		var pf PendingFrame
		if err := rows.Scan(&pf.ID, &pf.FrameID, &pf.Attempts); err != nil {
			return nil, fmt.Errorf("outbox: dequeue scan: %w", err)
		}
		frames = append(frames, pf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox: dequeue rows: %w", err)
	}
	return frames, nil
}

// MarkAttempt increments the attempts counter for id, used by a delivery
// loop to track retries before giving up on a frame.
func (o *Outbox) MarkAttempt(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbound_frame SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("outbox: mark attempt: %w", err)
	}
	return nil
}

// Ack marks the frames identified by ids as delivered. Acknowledged frames
// are excluded from subsequent Dequeue results. Ack is idempotent.
func (o *Outbox) Ack(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := o.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE outbound_frame SET delivered = 1 WHERE id IN (%s) AND delivered = 0`, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("outbox: ack: %w", err)
	}

	n, _ := result.RowsAffected()
	o.depth.Add(-n)
	return nil
}

// Depth returns the number of pending (unacknowledged) frames. It reads
// from an atomic counter updated by Enqueue and Ack, so it never blocks.
func (o *Outbox) Depth() int {
	return int(o.depth.Load())
}

// Close closes the underlying database connection. Subsequent calls to any
// method are undefined; callers must not use the Outbox after Close
// returns.
func (o *Outbox) Close() error {
	return o.db.Close()
}
