package audit

import (
	"encoding/hex"
	"strconv"

	"github.com/tripwire/framewire/internal/schema"
	"github.com/tripwire/framewire/internal/valuemap"
)

// Event types recorded by the framing engine.
const (
	// EventFrameDecoded records a successfully decoded inbound frame.
	EventFrameDecoded = "frame_decoded"
	// EventFrameSent records a successfully composed and transmitted
	// outbound frame.
	EventFrameSent = "frame_sent"
	// EventFrameDropped records an outbound frame abandoned after
	// exhausting its delivery retries.
	EventFrameDropped = "frame_dropped"
)

// FrameEvent is the domain payload of every chain record.
type FrameEvent struct {
	// Type is one of the Event* constants.
	Type string `json:"type"`
	// Instance identifies the engine process that produced the record.
	Instance string `json:"instance"`
	// FrameID is the frame layout involved, when known.
	FrameID uint8 `json:"frame_id"`
	// Fields maps decoded field tags (decimal) to hex-encoded payloads.
	// Present only on EventFrameDecoded records.
	Fields map[string]string `json:"fields,omitempty"`
	// Detail carries free-form context, e.g. the delivery error that caused
	// a drop.
	Detail string `json:"detail,omitempty"`
}

// AppendFrameDecoded records a decoded frame's field snapshot.
func (l *Logger) AppendFrameDecoded(instance string, snapshot valuemap.Map) (Entry, error) {
	fields := make(map[string]string, len(snapshot))
	for tag, payload := range snapshot {
		fields[strconv.Itoa(int(tag))] = hex.EncodeToString(payload.Data)
	}
	return l.Append(FrameEvent{
		Type:     EventFrameDecoded,
		Instance: instance,
		Fields:   fields,
	})
}

// AppendFrameSent records a successful outbound transmission of frameID.
func (l *Logger) AppendFrameSent(instance string, frameID schema.FrameID) (Entry, error) {
	return l.Append(FrameEvent{
		Type:     EventFrameSent,
		Instance: instance,
		FrameID:  uint8(frameID),
	})
}

// AppendFrameDropped records an outbound frame abandoned after exceeding
// its retry budget.
func (l *Logger) AppendFrameDropped(instance string, frameID schema.FrameID, detail string) (Entry, error) {
	return l.Append(FrameEvent{
		Type:     EventFrameDropped,
		Instance: instance,
		FrameID:  uint8(frameID),
		Detail:   detail,
	})
}
