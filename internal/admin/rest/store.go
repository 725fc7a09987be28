package rest

import (
	"github.com/tripwire/framewire/internal/schema"
	"github.com/tripwire/framewire/internal/valuemap"
)

// FieldStore is the subset of processor.Processor used by the admin API.
// Defining a local interface lets handlers be tested with a fake processor.
type FieldStore interface {
	// Snapshot returns every field currently held in the value map.
	Snapshot() valuemap.Map

	// Frames returns the frame map the processor was constructed with.
	Frames() schema.FrameMap

	// FailedOfLastTenMessages returns the failure count of the most
	// recently completed group of ten processed messages.
	FailedOfLastTenMessages() uint16
}
