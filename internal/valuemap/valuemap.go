// Package valuemap implements the protected field-value store shared
// between the frame processor and external readers/writers.
//
// The contract is move-out/move-back: a caller acquires the map (blocking
// until available), mutates it freely, and must return it. Every critical
// section therefore holds the lock across the caller's entire transaction
// instead of requiring fine-grained lock scoping inside the processor.
package valuemap

import (
	"fmt"
	"sync"
	"time"

	"github.com/tripwire/framewire/internal/codec"
	"github.com/tripwire/framewire/internal/frameerr"
	"github.com/tripwire/framewire/internal/schema"
)

// Payload is a bounded byte string paired with the time it was last updated.
type Payload struct {
	Data      []byte
	Timestamp time.Time
}

// Map is the tag -> Payload store guarded by Protected.
type Map map[schema.FieldTag]Payload

// Protected is a mutual-exclusion wrapper over a Map using the
// Acquire/Release (move-out/move-back) discipline. The zero value is not
// usable; construct with New.
type Protected struct {
	mu       sync.Mutex
	resource Map
	held     bool
}

// New creates a Protected wrapping an empty Map.
func New() *Protected {
	return &Protected{resource: make(Map)}
}

// Acquire blocks until the map is available, then returns it to the caller.
// The caller owns the map exclusively until it calls Release; Acquire must
// never be called again before a matching Release, even from the same
// goroutine, or it deadlocks by design (this is the move-out half of the
// contract).
func (p *Protected) Acquire() Map {
	p.mu.Lock()
	m := p.resource
	p.resource = nil
	p.held = true
	return m
}

// Release returns ownership of the map to Protected. Failing to call
// Release after Acquire is a fatal programming error: the next Acquire will
// block forever. Calling Release without a matching outstanding Acquire
// panics immediately rather than silently corrupting state.
func (p *Protected) Release(m Map) {
	if !p.held {
		panic("valuemap: Release called without a matching Acquire")
	}
	p.resource = m
	p.held = false
	p.mu.Unlock()
}

// WithLocked acquires the map, runs fn with it, and releases it — the
// scoped-mutex equivalent of the move-out/move-back discipline, for callers
// that do not need to interleave other logic between Acquire and Release.
func (p *Protected) WithLocked(fn func(Map)) {
	m := p.Acquire()
	defer p.Release(m)
	fn(m)
}

// HasField reports whether tag currently has an entry in the map.
func (p *Protected) HasField(tag schema.FieldTag) bool {
	var has bool
	p.WithLocked(func(m Map) {
		_, has = m[tag]
	})
	return has
}

// GetField returns the current payload for tag, or the zero-value Payload
// (empty data, zero timestamp) if no entry exists.
func (p *Protected) GetField(tag schema.FieldTag) Payload {
	var payload Payload
	p.WithLocked(func(m Map) {
		payload = m[tag]
	})
	return payload
}

// SetField inserts or overwrites tag's payload with data, stamped with now.
// It returns a fatal-class error if len(data) >= codec.MaxDataBytes.
func (p *Protected) SetField(tag schema.FieldTag, data []byte, now time.Time) error {
	if len(data) >= codec.MaxDataBytes {
		return frameerr.NewFatal("valuemap.SetField", fmt.Errorf("field %d payload length %d exceeds MAX_DATA_BYTES (%d)", tag, len(data), codec.MaxDataBytes))
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	p.WithLocked(func(m Map) {
		m[tag] = Payload{Data: cp, Timestamp: now}
	})
	return nil
}

// Snapshot returns a shallow copy of the current map, suitable for handing
// to a new-message callback without exposing the live map for further
// mutation outside the Acquire/Release discipline.
func (p *Protected) Snapshot() Map {
	out := make(Map)
	p.WithLocked(func(m Map) {
		for k, v := range m {
			out[k] = v
		}
	})
	return out
}
