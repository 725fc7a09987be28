//go:build linux

package transceiver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"
)

// UDPConfig configures a single-socket UDP Transceiver: a socket bound to a
// local port and connected to a single remote peer.
type UDPConfig struct {
	// Address is the remote peer's host.
	Address string
	// Port is both the local bind port and the remote peer's port.
	Port int
	// AllowAddrReuse sets SO_REUSEADDR on the socket before bind, needed to
	// run multiple transceivers against the same loopback port in tests.
	AllowAddrReuse bool
	// SkipBind, when true, does not bind to Port (the OS assigns an
	// ephemeral local port instead). Used by DualUDPTransceiver's send half.
	SkipBind bool
	// SkipConnect, when true, does not connect the socket to a single peer,
	// leaving Recv able to receive from any sender on Port. Used by
	// DualUDPTransceiver's receive half.
	SkipConnect bool
}

// UDPTransceiver implements Transceiver over a single UDP socket.
type UDPTransceiver struct {
	cfg    UDPConfig
	logger *slog.Logger

	conn *net.UDPConn
}

// NewUDPTransceiver creates a UDPTransceiver from cfg. Call Init before use.
func NewUDPTransceiver(cfg UDPConfig, logger *slog.Logger) *UDPTransceiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &UDPTransceiver{cfg: cfg, logger: logger}
}

// Init opens the socket, optionally sets SO_REUSEADDR, binds to Port
// (unless SkipBind), and connects to the remote peer (unless SkipConnect).
// It returns false if any of these steps fail.
func (u *UDPTransceiver) Init() bool {
	if u.cfg.SkipConnect {
		return u.initListenOnly()
	}

	var laddr *net.UDPAddr
	if !u.cfg.SkipBind {
		laddr = &net.UDPAddr{Port: u.cfg.Port}
	}

	dialer := &net.Dialer{LocalAddr: laddr}
	if u.cfg.AllowAddrReuse {
		dialer.Control = reuseAddrControl
	}

	conn, err := dialer.Dial("udp", fmt.Sprintf("%s:%d", u.cfg.Address, u.cfg.Port))
	if err != nil {
		u.logger.Error("udp transceiver: dial failed", slog.Any("error", err))
		return false
	}
	u.conn = conn.(*net.UDPConn)
	return true
}

// initListenOnly binds a receive-only socket to Port without connecting it
// to a peer, used for the receive half of DualUDPTransceiver.
func (u *UDPTransceiver) initListenOnly() bool {
	lc := &net.ListenConfig{}
	if u.cfg.AllowAddrReuse {
		lc.Control = reuseAddrControl
	}
	pc, err := lc.ListenPacket(context.Background(), "udp", fmt.Sprintf(":%d", u.cfg.Port))
	if err != nil {
		u.logger.Error("udp transceiver: listen failed", slog.Any("error", err))
		return false
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		u.logger.Error("udp transceiver: unexpected packet conn type")
		return false
	}
	u.conn = conn
	return true
}

// Send writes data to the connected peer. Failures are logged, not
// returned.
func (u *UDPTransceiver) Send(data []byte) {
	if u.conn == nil {
		return
	}
	if _, err := u.conn.Write(data); err != nil {
		u.logger.Warn("udp transceiver: send failed", slog.Any("error", err))
	}
}

// Recv performs one short read: it sets a one-millisecond read deadline so
// a read with nothing pending returns 0 rather than blocking.
func (u *UDPTransceiver) Recv(buf []byte) int {
	if u.conn == nil {
		return 0
	}
	if err := u.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		u.logger.Warn("udp transceiver: set read deadline failed", slog.Any("error", err))
		return 0
	}
	n, err := u.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0
		}
		u.logger.Debug("udp transceiver: recv failed", slog.Any("error", err))
		return 0
	}
	return n
}

// Deinit closes the socket. It is idempotent.
func (u *UDPTransceiver) Deinit() {
	if u.conn != nil {
		_ = u.conn.Close()
		u.conn = nil
	}
}

// reuseAddrControl sets SO_REUSEADDR on the dialer's or listener's socket
// before bind/connect, letting paired tests reuse a loopback port across
// short-lived sockets.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
