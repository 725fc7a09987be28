// Package processor implements the frame processor: the state machine that
// owns a receive accumulation buffer, searches it for sync, identifies and
// validates candidate frames, extracts fields into a protected value map,
// fires a new-message callback, and packs outgoing frames. It is the core
// of the framing engine.
//
// A Processor is driven entirely by its caller: Update performs one
// non-blocking pass over whatever the Transceiver currently has available,
// and returns. It is not safe to call Update concurrently with itself; the
// protected value map is the only state safe to touch concurrently with
// Update.
package processor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tripwire/framewire/internal/codec"
	"github.com/tripwire/framewire/internal/frameerr"
	"github.com/tripwire/framewire/internal/schema"
	"github.com/tripwire/framewire/internal/transceiver"
	"github.com/tripwire/framewire/internal/valuemap"
)

// BufferSize is the fixed capacity of the processor's accumulation and
// transmission buffers.
const BufferSize = 4096

// MaxFrameIDBytes bounds how many bytes the TagFrame run may occupy; a
// frame-id is decoded as an unsigned byte, so a single byte suffices.
const MaxFrameIDBytes = 1

// CheckFunc is a per-frame predicate evaluated against a candidate message
// before it is accepted. DefaultCheck accepts every candidate.
type CheckFunc func(msg []byte, f schema.Frame) bool

// DefaultCheck is the zero-value CheckFunc: it accepts every candidate.
func DefaultCheck(_ []byte, _ schema.Frame) bool { return true }

// NewMessageFunc is invoked after a successful full decode with a snapshot
// of the value map at that moment.
type NewMessageFunc func(valuemap.Map)

// ChecksumEvaluator, given the raw message bytes (with the checksum run
// stripped) and the decoded checksum value, reports whether the message
// passes.
type ChecksumEvaluator func(msg []byte, checksum uint64) bool

// ChecksumGenerator computes the checksum to embed in an outbound frame for
// the given message bytes (with the checksum run stripped, exactly as the
// evaluator sees them on receive). An error return is treated as a fatal
// misconfiguration.
type ChecksumGenerator func(msg []byte) (uint64, error)

// Callbacks bundles the processor's optional user-supplied hooks.
type Callbacks struct {
	NewMessage        NewMessageFunc
	ChecksumEvaluator ChecksumEvaluator
	ChecksumGenerator ChecksumGenerator
}

// Config is the full set of options recognized at processor construction.
type Config struct {
	Transceiver  transceiver.Transceiver
	FrameMap     schema.FrameMap
	DefaultFrame schema.FrameID
	SyncValue    []byte
	Checker      CheckFunc
	Callbacks    Callbacks
	Logger       *slog.Logger
}

// Processor is the frame processor state machine: it owns a Transceiver, a
// frame map, and a protected value map, and drives decode/encode through
// Update and Send.
type Processor struct {
	xcvr   transceiver.Transceiver
	logger *slog.Logger

	frameMap     schema.FrameMap
	defaultFrame schema.FrameID
	syncValue    []byte
	checker      CheckFunc
	callbacks    Callbacks

	values *valuemap.Protected

	recvScratch []byte
	msgBuffer   []byte
	msgLen      int

	failedOfLastTen uint16
	failedCounter   uint16
	totalCounter    uint16
}

// New validates the configuration and constructs a Processor. Any violation
// of the schema or frame-map invariants, or a Transceiver.Init failure, is
// returned as a *frameerr.Fatal; the caller must discard the Processor in
// that case.
func New(cfg Config) (*Processor, error) {
	if cfg.Transceiver == nil {
		return nil, frameerr.Fatalf("processor.New", "transceiver is required")
	}
	if len(cfg.SyncValue) < 1 || len(cfg.SyncValue) > codec.MaxDataBytes {
		return nil, frameerr.Fatalf("processor.New", "sync value length must be in [1, %d]", codec.MaxDataBytes)
	}
	if cfg.Checker == nil {
		cfg.Checker = DefaultCheck
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := cfg.FrameMap.Validate(cfg.DefaultFrame, len(cfg.SyncValue), MaxFrameIDBytes); err != nil {
		return nil, frameerr.NewFatal("processor.New", err)
	}

	if !cfg.Transceiver.Init() {
		return nil, frameerr.Fatalf("processor.New", "transceiver initialization failed")
	}

	p := &Processor{
		xcvr:         cfg.Transceiver,
		logger:       cfg.Logger,
		frameMap:     copyFrameMap(cfg.FrameMap),
		defaultFrame: cfg.DefaultFrame,
		syncValue:    append([]byte(nil), cfg.SyncValue...),
		checker:      cfg.Checker,
		callbacks:    cfg.Callbacks,
		values:       valuemap.New(),
		recvScratch:  make([]byte, BufferSize),
		msgBuffer:    make([]byte, BufferSize),
	}

	if err := p.values.SetField(schema.TagSync, p.syncValue, time.Time{}); err != nil {
		return nil, frameerr.NewFatal("processor.New", err)
	}

	return p, nil
}

// Close releases the underlying transceiver. It is idempotent because
// Transceiver.Deinit is required to be.
func (p *Processor) Close() {
	p.xcvr.Deinit()
}

// HasDataForField reports whether tag currently has an entry in the value
// map.
func (p *Processor) HasDataForField(tag schema.FieldTag) bool {
	return p.values.HasField(tag)
}

// GetField returns the current payload for tag, or a zero-value payload if
// no entry exists.
func (p *Processor) GetField(tag schema.FieldTag) valuemap.Payload {
	return p.values.GetField(tag)
}

// SetField inserts or overwrites tag's payload with data, stamped with now.
func (p *Processor) SetField(tag schema.FieldTag, data []byte, now time.Time) error {
	return p.values.SetField(tag, data, now)
}

// FailedOfLastTenMessages returns the failure count of the most recently
// completed group of ten processed messages (zero until the first group
// completes).
func (p *Processor) FailedOfLastTenMessages() uint16 {
	return p.failedOfLastTen
}

// Snapshot returns a copy of every field currently held in the value map,
// for callers that need a point-in-time view without holding the field
// lock for the duration of their own work (admin and bridge surfaces).
func (p *Processor) Snapshot() valuemap.Map {
	return p.values.Snapshot()
}

// Frames returns the frame map the processor was constructed with, for
// callers that need to describe the wire schema without reaching into the
// configuration that built it.
func (p *Processor) Frames() schema.FrameMap {
	return p.frameMap
}

// Update performs one receive pass: it drains whatever the transceiver
// currently has available into the accumulation buffer (dropping bytes that
// would overflow BufferSize), then repeatedly scans for a sync candidate,
// resolving the frame-id, validating the candidate, and either extracting
// its fields into the value map and firing the new-message callback, or
// discarding through the sync byte and advancing the failure counters.
func (p *Processor) Update(now time.Time) {
	recvd := p.xcvr.Recv(p.recvScratch)
	if recvd == 0 {
		return
	}

	toCopy := recvd
	if p.msgLen+recvd > BufferSize {
		toCopy = BufferSize - p.msgLen
	}
	copy(p.msgBuffer[p.msgLen:p.msgLen+toCopy], p.recvScratch[:toCopy])
	p.msgLen += toCopy

	for {
		syncOffset := codec.MemStr(p.msgBuffer, p.msgLen, p.syncValue)
		if syncOffset < 0 {
			return
		}

		if !p.processOneCandidate(syncOffset, now) {
			return
		}
	}
}

// processOneCandidate handles a single sync occurrence at syncOffset within
// p.msgBuffer[:p.msgLen]. It returns false when there is not yet enough
// buffered data to resolve the candidate and Update should stop for now
// (waiting for more bytes), true when it consumed (accepted or discarded)
// the candidate and the caller should continue scanning for the next sync.
func (p *Processor) processOneCandidate(syncOffset int, now time.Time) bool {
	defaultFrame := p.frameMap[p.defaultFrame]
	msgStartOffset := syncRunOffset(defaultFrame)

	msgStart := syncOffset - msgStartOffset
	frameToUse := defaultFrame
	frameLen := frameToUse.Len()

	p.totalCounter++

	if msgStart < 0 {
		// The schema places bytes before the sync that are missing from the
		// buffer origin; the candidate can never complete. Discard through
		// the sync byte and resync.
		p.logger.Debug("discarding candidate with truncated pre-sync prefix",
			slog.Int("sync_offset", syncOffset))
		p.failedCounter++
		p.rollCounters()
		p.consumeThrough(syncOffset + 1)
		return true
	}

	if p.msgLen-msgStart < frameLen {
		// Not enough buffered data yet to resolve even the default frame;
		// undo the speculative counter bump and wait for more bytes.
		p.totalCounter--
		return false
	}

	hasFrameToUse := true
	if len(p.frameMap) > 1 {
		fieldBuf := make([]byte, codec.MaxDataBytes)
		n := codec.ExtractField(p.msgBuffer[msgStart:p.msgLen], frameToUse, schema.TagFrame, fieldBuf)
		if n > 0 {
			frameID := schema.FrameID(codec.BytesToUint(fieldBuf[:n]))
			resolved, ok := p.frameMap[frameID]
			if !ok {
				hasFrameToUse = false
			} else {
				frameToUse = resolved
				frameLen = frameToUse.Len()
				if p.msgLen-msgStart < frameLen {
					// Can't yet resolve this specific frame; keep waiting.
					p.totalCounter--
					return false
				}
			}
		}
	}

	msgEnd := msgStart + frameLen
	candidate := p.msgBuffer[msgStart:msgEnd]

	accept := hasFrameToUse &&
		p.checker(candidate, frameToUse) &&
		p.checksumPasses(candidate, frameToUse)

	if accept {
		p.acceptFrame(candidate, frameToUse, now)
	} else {
		// Malformed: discard only through the sync byte so resync can find
		// the next candidate.
		p.logger.Debug("rejecting frame candidate",
			slog.Int("sync_offset", syncOffset),
			slog.Bool("known_frame_id", hasFrameToUse))
		msgEnd = syncOffset + 1
		p.failedCounter++
	}

	p.rollCounters()
	p.consumeThrough(msgEnd)
	return true
}

// rollCounters snapshots the failure count into failedOfLastTen each time a
// group of ten candidates completes.
func (p *Processor) rollCounters() {
	if p.totalCounter >= 10 {
		p.failedOfLastTen = p.failedCounter
		p.failedCounter = 0
		p.totalCounter = 0
	}
}

// checksumPasses reports whether msg passes the configured checksum
// evaluator. When no evaluator is configured, checksum positions are
// ordinary payload bytes and every message passes.
func (p *Processor) checksumPasses(msg []byte, f schema.Frame) bool {
	if p.callbacks.ChecksumEvaluator == nil {
		return true
	}
	checksumBuf := make([]byte, codec.MaxDataBytes)
	n := codec.ExtractField(msg, f, schema.TagChecksum, checksumBuf)
	if n == 0 {
		return true
	}
	checksum := codec.BytesToUint(checksumBuf[:n])
	stripped := codec.DeleteChecksumRun(msg, f)
	return p.callbacks.ChecksumEvaluator(stripped, checksum)
}

// acceptFrame extracts every field known to the working schema into the
// value map, stamping each with now, and fires the new-message callback.
func (p *Processor) acceptFrame(msg []byte, f schema.Frame, now time.Time) {
	p.values.WithLocked(func(m valuemap.Map) {
		for _, tag := range f {
			if _, ok := m[tag]; !ok {
				m[tag] = valuemap.Payload{}
			}
		}

		fieldBuf := make([]byte, codec.MaxDataBytes)
		for tag := range m {
			n := codec.ExtractField(msg, f, tag, fieldBuf)
			if n == 0 {
				// Field absent from this message: preserve the prior payload.
				continue
			}
			data := make([]byte, n)
			copy(data, fieldBuf[:n])
			m[tag] = valuemap.Payload{Data: data, Timestamp: now}
		}
	})

	if p.callbacks.NewMessage != nil {
		p.callbacks.NewMessage(p.values.Snapshot())
	}
}

// consumeThrough removes msgBuffer[:upTo] from the accumulation buffer,
// compacting the remainder to the front.
func (p *Processor) consumeThrough(upTo int) {
	if upTo >= p.msgLen {
		p.msgLen = 0
		return
	}
	if upTo <= 0 {
		return
	}
	copy(p.msgBuffer, p.msgBuffer[upTo:p.msgLen])
	p.msgLen -= upTo
}

// syncRunOffset returns the byte offset of f's TagSync run. Schema
// validation at construction guarantees every frame in the map has exactly
// one contiguous such run.
func syncRunOffset(f schema.Frame) int {
	for i, tag := range f {
		if tag == schema.TagSync {
			return i
		}
	}
	// Unreachable given Validate; guarded defensively.
	panic("processor: frame has no sync run despite passing validation")
}

// Send composes the outbound layout for frameId and hands it to the
// transceiver. It returns a *frameerr.NonFatal if frameId is unknown, or if
// the schema references a user field with no current value in the value
// map.
func (p *Processor) Send(frameID schema.FrameID) error {
	f, ok := p.frameMap[frameID]
	if !ok {
		return frameerr.NonFatalf("processor.Send", "unknown frame id %d", frameID)
	}

	buf := make([]byte, f.Len())

	distinct := distinctTags(f)
	for _, tag := range distinct {
		data, err := p.fieldBytesForSend(tag, frameID, f)
		if err != nil {
			return err
		}
		codec.InsertField(buf, f, tag, data)
	}

	if p.callbacks.ChecksumGenerator != nil {
		if err := p.insertGeneratedChecksum(buf, f); err != nil {
			return err
		}
	}

	p.xcvr.Send(buf)
	return nil
}

// fieldBytesForSend resolves the bytes to insert for tag when composing an
// outbound frame: the configured sync value for TagSync, the big-endian
// frame id for TagFrame, a placeholder for TagChecksum (filled in
// separately once the rest of the frame is packed), or the current
// value-map payload for a user field.
func (p *Processor) fieldBytesForSend(tag schema.FieldTag, frameID schema.FrameID, f schema.Frame) ([]byte, error) {
	switch tag {
	case schema.TagSync:
		return p.syncValue, nil
	case schema.TagFrame:
		buf := make([]byte, MaxFrameIDBytes)
		codec.UintToBytes(uint64(frameID), MaxFrameIDBytes, buf)
		return buf, nil
	case schema.TagChecksum:
		// Placeholder zeros; insertGeneratedChecksum overwrites the run once
		// the rest of the frame is packed.
		n := len(fieldPositions(f, tag))
		return make([]byte, n), nil
	case schema.TagTerm:
		return make([]byte, len(fieldPositions(f, tag))), nil
	default:
		payload := p.values.GetField(tag)
		if payload.Data == nil {
			return nil, frameerr.NonFatalf("processor.Send", "missing field %d required by frame", tag)
		}
		return payload.Data, nil
	}
}

// insertGeneratedChecksum computes the checksum over buf with the checksum
// run stripped (the same view the evaluator gets on receive), then writes
// the generated value into the checksum run.
func (p *Processor) insertGeneratedChecksum(buf []byte, f schema.Frame) error {
	checksum, err := p.callbacks.ChecksumGenerator(codec.DeleteChecksumRun(buf, f))
	if err != nil {
		return frameerr.NewFatal("processor.Send", fmt.Errorf("checksum generator: %w", err))
	}
	width := len(fieldPositions(f, schema.TagChecksum))
	if width == 0 {
		return nil
	}
	checksumBytes := make([]byte, width)
	codec.UintToBytes(checksum, width, checksumBytes)
	codec.InsertField(buf, f, schema.TagChecksum, checksumBytes)
	return nil
}

// copyFrameMap deep-copies m so later caller mutation of the map or its
// frames cannot change the layouts the processor validated.
func copyFrameMap(m schema.FrameMap) schema.FrameMap {
	out := make(schema.FrameMap, len(m))
	for id, f := range m {
		out[id] = append(schema.Frame(nil), f...)
	}
	return out
}

// fieldPositions returns the indices within f that carry tag.
func fieldPositions(f schema.Frame, tag schema.FieldTag) []int {
	var out []int
	for i, t := range f {
		if t == tag {
			out = append(out, i)
		}
	}
	return out
}

// distinctTags returns the set of distinct field tags in f, in first-seen
// order: deterministic iteration without depending on Go's randomized map
// iteration order.
func distinctTags(f schema.Frame) []schema.FieldTag {
	seen := make(map[schema.FieldTag]bool, len(f))
	out := make([]schema.FieldTag, 0, len(f))
	for _, tag := range f {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
