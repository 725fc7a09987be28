// Package transceiver: serial line driver.
package transceiver

import (
	"log/slog"
	"time"

	"go.bug.st/serial"
)

// SerialConfig configures a serial-line Transceiver.
type SerialConfig struct {
	// Port is the device file, e.g. "/dev/ttyUSB0".
	Port string
	// Baud is the line rate, e.g. 115200.
	Baud int
	// ReadTimeout bounds how long Recv waits for at least one byte before
	// returning 0, keeping Recv an effectively non-blocking poll. Defaults
	// to 10ms when zero.
	ReadTimeout time.Duration
}

// SerialTransceiver implements Transceiver over a serial port using
// go.bug.st/serial.
type SerialTransceiver struct {
	cfg    SerialConfig
	logger *slog.Logger

	port serial.Port
}

// NewSerialTransceiver creates a SerialTransceiver from cfg. Call Init
// before use.
func NewSerialTransceiver(cfg SerialConfig, logger *slog.Logger) *SerialTransceiver {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialTransceiver{cfg: cfg, logger: logger}
}

// Init opens and configures the serial port (8 data bits, no parity, one
// stop bit, at the configured baud rate) and sets a short read timeout so
// Recv behaves as a non-blocking poll.
func (s *SerialTransceiver) Init() bool {
	mode := &serial.Mode{
		BaudRate: s.cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.cfg.Port, mode)
	if err != nil {
		s.logger.Error("serial transceiver: open failed", slog.String("port", s.cfg.Port), slog.Any("error", err))
		return false
	}
	if err := port.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		s.logger.Error("serial transceiver: set read timeout failed", slog.Any("error", err))
		_ = port.Close()
		return false
	}
	s.port = port
	return true
}

// Send writes data to the port. Failures are logged, not returned.
func (s *SerialTransceiver) Send(data []byte) {
	if s.port == nil {
		return
	}
	if _, err := s.port.Write(data); err != nil {
		s.logger.Warn("serial transceiver: send failed", slog.Any("error", err))
	}
}

// Recv reads whatever is currently available, up to len(buf), returning
// within ReadTimeout with 0 if nothing arrives.
func (s *SerialTransceiver) Recv(buf []byte) int {
	if s.port == nil {
		return 0
	}
	n, err := s.port.Read(buf)
	if err != nil {
		s.logger.Debug("serial transceiver: recv failed", slog.Any("error", err))
		return 0
	}
	return n
}

// Deinit closes the port. It is idempotent.
func (s *SerialTransceiver) Deinit() {
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
}
