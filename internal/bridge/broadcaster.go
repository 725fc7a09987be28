// Package bridge fans decoded field snapshots out to external consumers
// (currently the gRPC streaming server) without coupling the processor's
// receive loop to however many consumers are attached at any moment.
//
// Design notes
//
//   - Each subscriber has a dedicated buffered channel of valuemap.Map
//     snapshots. A non-blocking send is used so a slow or disconnected
//     consumer never applies back-pressure to the goroutine calling Update.
//   - Subscribers are tracked in a sync.Map keyed by the channel itself to
//     allow concurrent reads without a global lock on the hot publish path.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tripwire/framewire/internal/valuemap"
)

// Broadcaster fans decoded field snapshots out to every currently-subscribed
// consumer. It is safe for concurrent use.
type Broadcaster struct {
	subs    sync.Map // map[<-chan valuemap.Map]chan valuemap.Map
	subCnt  atomic.Int64
	bufSize int
	logger  *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewBroadcaster creates a Broadcaster.
//
// bufSize is the per-subscriber channel buffer depth. Pass 0 to use the
// default of 64.
func NewBroadcaster(logger *slog.Logger, bufSize int) *Broadcaster {
	if bufSize <= 0 {
		bufSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{bufSize: bufSize, logger: logger}
}

// Subscribe registers a new subscriber and returns a channel on which every
// subsequent snapshot will be delivered. The channel is closed automatically
// when ctx is cancelled or when Close is called.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan valuemap.Map {
	ch := make(chan valuemap.Map, b.bufSize)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	b.subs.Store((<-chan valuemap.Map)(ch), ch)
	b.subCnt.Add(1)

	if ctx != nil {
		go func() {
			<-ctx.Done()
			b.Unsubscribe(ch)
		}()
	}

	return ch
}

// Unsubscribe removes the subscription associated with ch and closes the
// channel so the consumer loop exits cleanly. It is a no-op if ch is not a
// currently-registered subscription.
func (b *Broadcaster) Unsubscribe(ch <-chan valuemap.Map) {
	if actual, loaded := b.subs.LoadAndDelete(ch); loaded {
		close(actual.(chan valuemap.Map))
		b.subCnt.Add(-1)
	}
}

// SubscriberCount returns the number of currently registered subscribers.
func (b *Broadcaster) SubscriberCount() int {
	return int(b.subCnt.Load())
}

// Publish delivers snapshot to every subscriber using a non-blocking send.
// When a subscriber's buffer is full the snapshot is dropped for that
// subscriber and a warning is logged; this keeps Publish suitable as a
// processor.NewMessageFunc callback, which must never block the receive
// loop.
func (b *Broadcaster) Publish(snapshot valuemap.Map) {
	if b.closed.Load() {
		return
	}
	b.subs.Range(func(key, value any) bool {
		ch := value.(chan valuemap.Map)
		select {
		case ch <- snapshot:
		default:
			b.logger.Warn("bridge: subscriber buffer full, dropping snapshot")
		}
		return true
	})
}

// Close unsubscribes and closes every subscriber channel. After Close
// returns, Publish is a no-op and Subscribe returns a closed channel.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.subs.Range(func(key, value any) bool {
			b.subs.Delete(key)
			close(value.(chan valuemap.Map))
			b.subCnt.Add(-1)
			return true
		})
	})
}
