//go:build linux

package transceiver

import "log/slog"

// DualUDPTransceiver composes two UDPTransceivers — one dedicated to
// receiving, one dedicated to sending — so that two processors on the same
// host can exchange frames over a pair of UDP sockets without either side
// needing a bound, connected two-way socket. The recv half binds recvPort
// and skips connect; the send half skips bind and connects to
// (address, sendPort).
type DualUDPTransceiver struct {
	recv *UDPTransceiver
	send *UDPTransceiver
}

// NewDualUDPTransceiver creates a DualUDPTransceiver that receives on
// recvPort and sends to address:sendPort.
func NewDualUDPTransceiver(address string, recvPort, sendPort int, logger *slog.Logger) *DualUDPTransceiver {
	recv := NewUDPTransceiver(UDPConfig{
		Address:     address,
		Port:        recvPort,
		SkipConnect: true,
	}, logger)
	send := NewUDPTransceiver(UDPConfig{
		Address:  address,
		Port:     sendPort,
		SkipBind: true,
	}, logger)
	return &DualUDPTransceiver{recv: recv, send: send}
}

// Init initializes both the receive and send sockets.
func (d *DualUDPTransceiver) Init() bool {
	return d.recv.Init() && d.send.Init()
}

// Send forwards to the send-only socket.
func (d *DualUDPTransceiver) Send(data []byte) { d.send.Send(data) }

// Recv forwards to the receive-only socket.
func (d *DualUDPTransceiver) Recv(buf []byte) int { return d.recv.Recv(buf) }

// Deinit closes both sockets.
func (d *DualUDPTransceiver) Deinit() {
	d.recv.Deinit()
	d.send.Deinit()
}
