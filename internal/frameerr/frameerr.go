// Package frameerr defines the two-variant error taxonomy used throughout
// the framing engine: fatal errors that make a Processor unusable, and
// non-fatal errors that are returned from a single failed operation while
// leaving the Processor otherwise intact.
package frameerr

import (
	"errors"
	"fmt"
)

// Fatal describes an unrecoverable misconfiguration or operating failure
// (transceiver init failure, schema validation failure, value-map discipline
// violation, or a payload assignment that would overflow MAX_DATA_BYTES). A
// Processor that produced a Fatal error must be discarded.
type Fatal struct {
	Op  string
	Err error
}

func (e *Fatal) Error() string {
	return fmt.Sprintf("framewire: fatal: %s: %v", e.Op, e.Err)
}

func (e *Fatal) Unwrap() error { return e.Err }

// NewFatal wraps err as a Fatal error tagged with the operation that
// produced it.
func NewFatal(op string, err error) *Fatal {
	return &Fatal{Op: op, Err: err}
}

// Fatalf is a convenience constructor mirroring fmt.Errorf.
func Fatalf(op, format string, args ...any) *Fatal {
	return &Fatal{Op: op, Err: fmt.Errorf(format, args...)}
}

// NonFatal describes a per-operation failure (unknown frame id on send,
// send referencing a field absent from the value map, a frame map entry
// missing a sync run). The Processor remains usable after a NonFatal error.
type NonFatal struct {
	Op  string
	Err error
}

func (e *NonFatal) Error() string {
	return fmt.Sprintf("framewire: %s: %v", e.Op, e.Err)
}

func (e *NonFatal) Unwrap() error { return e.Err }

// NewNonFatal wraps err as a NonFatal error tagged with the operation that
// produced it.
func NewNonFatal(op string, err error) *NonFatal {
	return &NonFatal{Op: op, Err: err}
}

// NonFatalf is a convenience constructor mirroring fmt.Errorf.
func NonFatalf(op, format string, args ...any) *NonFatal {
	return &NonFatal{Op: op, Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err (or any error it wraps) is a Fatal error.
func IsFatal(err error) bool {
	var f *Fatal
	return errors.As(err, &f)
}
