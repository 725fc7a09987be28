// Package transport implements the gRPC client consumers use to follow a
// running framing engine's decoded field stream.
//
// # Overview
//
// Client connects to a framecat bridge endpoint using mutual TLS (mTLS): the
// consumer presents a client certificate to prove its identity, and it
// verifies the bridge's server certificate against a trusted CA.
//
// Once connected, the client opens the StreamFields server stream and
// forwards every FieldUpdate to the OnUpdate callback.
//
// # Reconnection
//
// If the connection drops for any reason, Client reconnects automatically
// using exponential backoff: each successive failure grows the wait
// interval (backoff's default 1.5x multiplier, with jitter) up to MaxBackoff, after which every retry waits MaxBackoff. On a
// successful reconnection the backoff interval resets to InitialBackoff so
// that a transient fault is not penalised on the next failure.
//
// # Usage
//
//	c := transport.NewClient(transport.ClientConfig{
//	    BridgeAddr: "frames.example.com:4443",
//	    CertPath:   "/etc/framewire/consumer.crt",
//	    KeyPath:    "/etc/framewire/consumer.key",
//	    CAPath:     "/etc/framewire/ca.crt",
//	    OnUpdate:   func(u transport.FieldUpdate) { ... },
//	}, logger)
//
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/tripwire/framewire/internal/schema"
	framepb "github.com/tripwire/framewire/proto"
)

const (
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 2 * time.Minute
	defaultDialTimeout    = 30 * time.Second
)

// FieldUpdate is one decoded field value delivered by the stream.
type FieldUpdate struct {
	Tag       schema.FieldTag
	Data      []byte
	Timestamp time.Time
}

// ClientConfig holds the configuration for the field-stream client.
type ClientConfig struct {
	// BridgeAddr is the "host:port" of the framecat bridge gRPC server.
	// Required.
	BridgeAddr string

	// CertPath is the path to the PEM-encoded consumer TLS certificate.
	// Required.
	CertPath string

	// KeyPath is the path to the PEM-encoded consumer TLS private key.
	// Required.
	KeyPath string

	// CAPath is the path to the PEM-encoded CA certificate used to verify
	// the bridge server's TLS certificate. Required.
	CAPath string

	// OnUpdate is invoked for every FieldUpdate received from the stream.
	// Required. It is called from the connection goroutine; a slow callback
	// delays the stream, not the remote processor.
	OnUpdate func(FieldUpdate)

	// InitialBackoff is the starting interval for exponential-backoff
	// reconnection. Defaults to 1 second when zero.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential-backoff interval. Defaults to 2
	// minutes when zero.
	MaxBackoff time.Duration

	// DialTimeout limits how long each SendFrame RPC waits before giving
	// up. Defaults to 30 seconds when zero.
	DialTimeout time.Duration
}

func (c *ClientConfig) applyDefaults() {
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
}

// Client follows a framing engine's field stream over an mTLS-protected gRPC
// connection, maintaining the connection with exponential-backoff
// reconnection.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	// id labels this consumer in the client's own log records; it is not
	// sent to the server.
	id string

	// creds is loaded once in Start and reused on every reconnect.
	creds credentials.TransportCredentials

	// mu guards client, which is replaced on every (re)connect.
	mu     sync.RWMutex
	client framepb.FrameStreamServiceClient

	// cancel terminates the connection loop; set by Start.
	cancel context.CancelFunc

	// wg tracks the connectLoop goroutine so Stop can wait for it.
	wg sync.WaitGroup
}

// NewClient creates a Client with the given configuration and logger. Call
// [Client.Start] to begin connecting.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		id:     uuid.NewString(),
	}
}

// ID returns the client's stream identifier, stamped into the client's
// "connecting" and "stream established" log records.
func (c *Client) ID() string { return c.id }

// Start validates the mTLS credentials from disk, then launches a background
// goroutine that connects to the bridge and keeps the stream alive.
//
// Start returns an error only if OnUpdate is missing or the TLS certificate
// files cannot be loaded. All connectivity failures (bridge unreachable,
// stream errors) are handled internally with exponential-backoff retries.
func (c *Client) Start(ctx context.Context) error {
	if c.cfg.OnUpdate == nil {
		return fmt.Errorf("transport: OnUpdate callback is required")
	}

	creds, err := c.loadTLSCredentials()
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	c.creds = creds

	connectCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.connectLoop(connectCtx)

	return nil
}

// SendFrame asks the remote processor to compose and transmit the named
// outbound frame using its current value map. It returns an error if the
// client is not currently connected or the bridge reports a failure.
func (c *Client) SendFrame(ctx context.Context, frameID schema.FrameID) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("transport: not connected to bridge")
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	resp, err := client.SendFrame(sendCtx, &framepb.SendFrameRequest{FrameId: uint32(frameID)})
	if err != nil {
		return fmt.Errorf("transport: SendFrame: %w", err)
	}
	if !resp.GetOk() {
		return fmt.Errorf("transport: SendFrame rejected: %s", resp.GetError())
	}
	return nil
}

// Stop cancels the connection loop and waits for all background goroutines
// to exit. It is safe to call Stop multiple times.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// ─── Connection loop ──────────────────────────────────────────────────────────

// connectLoop runs until ctx is cancelled. On each iteration it calls
// connect, which blocks for the lifetime of one stream. Between failed
// attempts (or after a stream is lost) it applies exponential backoff.
func (c *Client) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.MaxElapsedTime = 0 // retry indefinitely
	b.Reset()

	for {
		if ctx.Err() != nil {
			return
		}

		c.logger.Info("transport: connecting to bridge",
			slog.String("addr", c.cfg.BridgeAddr),
			slog.String("stream_id", c.id))

		wasConnected, err := c.connect(ctx)

		if ctx.Err() != nil {
			return
		}

		if wasConnected {
			// A stream was established before this failure; reset the backoff
			// so the next reconnect starts from InitialBackoff again.
			b.Reset()
		}

		if err != nil {
			c.logger.Warn("transport: stream ended",
				slog.Any("error", err),
				slog.String("addr", c.cfg.BridgeAddr))
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			// Should not happen when MaxElapsedTime == 0, but guard anyway.
			c.logger.Error("transport: backoff exhausted; giving up")
			return
		}

		c.logger.Info("transport: will reconnect",
			slog.String("addr", c.cfg.BridgeAddr),
			slog.Duration("after", wait))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// connect performs one full stream lifecycle: it dials the bridge with mTLS,
// opens StreamFields, and blocks in drainStream until the stream closes or
// ctx is cancelled. It returns (true, err) when the stream was successfully
// established before failing, or (false, err) when the dial or the
// StreamFields call itself failed.
func (c *Client) connect(ctx context.Context) (wasConnected bool, err error) {
	conn, err := grpc.NewClient(
		c.cfg.BridgeAddr,
		grpc.WithTransportCredentials(c.creds),
	)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.cfg.BridgeAddr, err)
	}
	defer conn.Close()

	client := framepb.NewFrameStreamServiceClient(conn)

	stream, err := client.StreamFields(ctx, &framepb.StreamFieldsRequest{})
	if err != nil {
		return false, fmt.Errorf("StreamFields: %w", err)
	}

	// Publish the client so concurrent SendFrame calls can use it.
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	c.logger.Info("transport: stream established",
		slog.String("addr", c.cfg.BridgeAddr),
		slog.String("stream_id", c.id))

	streamErr := c.drainStream(stream)

	// Retract the client so SendFrame returns an error while disconnected.
	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()

	if streamErr == io.EOF {
		// Bridge closed the stream gracefully.
		return true, nil
	}
	return true, streamErr
}

// drainStream reads FieldUpdates from stream until the stream is closed by
// the bridge (io.EOF) or an error occurs, forwarding each update to the
// OnUpdate callback.
func (c *Client) drainStream(stream framepb.FrameStreamService_StreamFieldsClient) error {
	for {
		u, err := stream.Recv()
		if err != nil {
			return err
		}
		c.cfg.OnUpdate(FieldUpdate{
			Tag:       schema.FieldTag(u.GetTag()),
			Data:      u.GetData(),
			Timestamp: time.UnixMicro(u.GetTimestampUs()),
		})
	}
}

// ─── TLS helpers ─────────────────────────────────────────────────────────────

// loadTLSCredentials reads the consumer certificate+key and the CA
// certificate from the configured paths, then constructs gRPC transport
// credentials for mTLS. The ServerName is derived from the host component of
// BridgeAddr so that the TLS handshake verifies the bridge's certificate
// CN/SAN.
func (c *Client) loadTLSCredentials() (credentials.TransportCredentials, error) {
	clientCert, err := tls.LoadX509KeyPair(c.cfg.CertPath, c.cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("load client cert/key (%s, %s): %w",
			c.cfg.CertPath, c.cfg.KeyPath, err)
	}

	caPEM, err := os.ReadFile(c.cfg.CAPath)
	if err != nil {
		return nil, fmt.Errorf("read CA cert %s: %w", c.cfg.CAPath, err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("parse CA cert from %s: no certificates found", c.cfg.CAPath)
	}

	serverName, _, splitErr := net.SplitHostPort(c.cfg.BridgeAddr)
	if splitErr != nil {
		// BridgeAddr has no port; use it verbatim as the server name.
		serverName = c.cfg.BridgeAddr
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      caPool,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
	}

	return credentials.NewTLS(tlsCfg), nil
}
