// Package audit keeps a tamper-evident record of frame traffic. Each record
// captures one FrameEvent (a decoded inbound frame, a transmitted outbound
// frame, or a dropped outbound frame) together with a sequence number, a
// timestamp, the previous record's hash, and the SHA-256 hash of the
// record's own content. The records form a chain: altering, reordering, or
// removing any record breaks every hash that follows it, so a stored frame
// history can be checked end to end with Verify.
//
// # Hash chain
//
// The event_hash for record N is computed as:
//
//	SHA-256( JSON({seq, ts, event, prev_hash}) )
//
// where the JSON encoding of those four fields is treated as a canonical
// byte sequence. The genesis record (seq=1) uses a prev_hash of 64 ASCII
// zero characters.
//
// # Append semantics
//
// Each record is one JSON line terminated by '\n'. The underlying file is
// opened with os.O_APPEND | os.O_CREATE | os.O_WRONLY so every write is
// appended atomically by the OS; frame events are far below the PIPE_BUF
// atomicity bound. A mutex serialises appends within the process so the
// sequence number and chain hash stay consistent, which also makes Logger
// safe to share between the decode callback and the outbox worker.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// GenesisHash is the all-zero SHA-256 hex digest used as the prev_hash of
// the very first record in a chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one record of the frame audit chain, as stored on disk and as
// returned by Append and Verify.
type Entry struct {
	Seq       int64      `json:"seq"`
	Timestamp time.Time  `json:"ts"`
	Event     FrameEvent `json:"event"`
	PrevHash  string     `json:"prev_hash"`
	EventHash string     `json:"event_hash"`
}

// entryContent is the subset of Entry fields that are hashed to produce
// EventHash. It deliberately excludes EventHash itself.
type entryContent struct {
	Seq       int64      `json:"seq"`
	Timestamp time.Time  `json:"ts"`
	Event     FrameEvent `json:"event"`
	PrevHash  string     `json:"prev_hash"`
}

// Logger appends FrameEvents to a tamper-evident chain file. Create one
// with Open; do not copy after first use.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	prevHash string
	seq      int64
}

// Open opens (or creates) the chain file at path and prepares the Logger
// for appending. An existing file is verified in full so the chain resumes
// from its last record; a missing file starts a fresh chain at the genesis
// hash. Returns an error if the file cannot be opened or the existing chain
// does not verify.
func Open(path string) (*Logger, error) {
	prevHash := GenesisHash
	var seq int64

	if _, err := os.Stat(path); err == nil {
		entries, err := Verify(path)
		if err != nil {
			return nil, err
		}
		if n := len(entries); n > 0 {
			prevHash = entries[n-1].EventHash
			seq = entries[n-1].Seq
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open for appending %q: %w", path, err)
	}

	return &Logger{
		file:     f,
		prevHash: prevHash,
		seq:      seq,
	}, nil
}

// Append records ev as the next link of the chain. It is safe to call from
// multiple goroutines. The returned Entry carries the assigned sequence
// number, timestamp, and hashes so callers can cross-reference chain
// positions without re-reading the file.
func (l *Logger) Append(ev FrameEvent) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Seq:       l.seq + 1,
		Timestamp: time.Now().UTC(),
		Event:     ev,
		PrevHash:  l.prevHash,
	}
	e.EventHash = hashEntry(e)

	line, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: marshal entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		return Entry{}, fmt.Errorf("audit: write entry: %w", err)
	}

	l.seq = e.Seq
	l.prevHash = e.EventHash
	return e, nil
}

// Close flushes OS-level buffers and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("audit: sync: %w", err)
	}
	return l.file.Close()
}

// Verify reads the chain file at path and checks every record: prev_hash
// linkage and a recomputed event_hash. It returns the ordered records on
// success, or the first chain error encountered. An empty file is a valid
// empty chain.
func Verify(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: verify open %q: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	prevHash := GenesisHash
	scanner := bufio.NewScanner(f)
	// A decoded-frame record carries at most a value map's worth of
	// hex-encoded fields; 1 MiB leaves generous headroom.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("audit: malformed entry after seq %d: %w", prevSeq(entries), err)
		}
		if e.PrevHash != prevHash {
			return nil, fmt.Errorf("audit: chain break at seq %d: expected prev_hash %q, got %q",
				e.Seq, prevHash, e.PrevHash)
		}
		if computed := hashEntry(e); computed != e.EventHash {
			return nil, fmt.Errorf("audit: hash mismatch at seq %d: stored %q, computed %q",
				e.Seq, e.EventHash, computed)
		}
		entries = append(entries, e)
		prevHash = e.EventHash
	}

	return entries, scanner.Err()
}

func prevSeq(entries []Entry) int64 {
	if len(entries) == 0 {
		return 0
	}
	return entries[len(entries)-1].Seq
}

// hashEntry computes the SHA-256 hex digest of e's content fields,
// excluding EventHash. It panics on marshal failure, which cannot happen:
// every entryContent field is JSON-serialisable.
func hashEntry(e Entry) string {
	raw, err := json.Marshal(entryContent{
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		Event:     e.Event,
		PrevHash:  e.PrevHash,
	})
	if err != nil {
		panic(fmt.Sprintf("audit: marshal entry content: %v", err))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
