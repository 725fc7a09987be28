// Package grpc implements the gRPC bridge that exposes a running framing
// engine to external consumers: StreamFields pushes decoded field snapshots
// as they arrive, and SendFrame lets a remote caller request an outbound
// transmission.
//
// Lifecycle
//
//	srv := bridgegrpc.NewServer(proc, broadcaster, logger)
//	grpcSrv := grpc.NewServer(grpc.Creds(creds))
//	framepb.RegisterFrameStreamServiceServer(grpcSrv, srv)
//	grpcSrv.Serve(listener)
package grpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/tripwire/framewire/internal/bridge"
	"github.com/tripwire/framewire/internal/frameerr"
	"github.com/tripwire/framewire/internal/schema"
	framepb "github.com/tripwire/framewire/proto"
)

// Processor is the subset of processor.Processor used by the gRPC bridge.
// Defined as an interface so tests can substitute a fake.
type Processor interface {
	// Send composes and transmits the named outbound frame using the
	// processor's current value map.
	Send(frameID schema.FrameID) error
}

// Server implements framepb.FrameStreamServiceServer.
type Server struct {
	framepb.UnimplementedFrameStreamServiceServer

	proc        Processor
	broadcaster *bridge.Broadcaster
	logger      *slog.Logger
}

// NewServer creates a Server wired to proc and broadcaster.
func NewServer(proc Processor, broadcaster *bridge.Broadcaster, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{proc: proc, broadcaster: broadcaster, logger: logger}
}

// StreamFields handles the server-streaming StreamFields RPC. It subscribes
// to the broadcaster and forwards every subsequent field snapshot as one
// FieldUpdate per field, until the client disconnects or the broadcaster is
// closed.
func (s *Server) StreamFields(_ *framepb.StreamFieldsRequest, stream framepb.FrameStreamService_StreamFieldsServer) error {
	ctx := stream.Context()
	ch := s.broadcaster.Subscribe(ctx)

	streamID := uuid.NewString()
	s.logger.Info("grpc: field stream opened", slog.String("stream_id", streamID))
	defer s.logger.Info("grpc: field stream closed", slog.String("stream_id", streamID))

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, ok := <-ch:
			if !ok {
				return nil
			}
			for tag, payload := range snapshot {
				update := &framepb.FieldUpdate{
					Tag:         uint64(tag),
					Data:        payload.Data,
					TimestampUs: payload.Timestamp.UnixMicro(),
				}
				if err := stream.Send(update); err != nil {
					s.logger.Warn("grpc: StreamFields send failed", slog.Any("error", err))
					return err
				}
			}
		}
	}
}

// SendFrame handles the unary SendFrame RPC. A missing frame id or an unset
// required field is reported in the response body (Ok=false) rather than as
// a transport error, mirroring processor.Send's own fatal/non-fatal split:
// only a fatal processor error is surfaced as a gRPC status error.
func (s *Server) SendFrame(_ context.Context, req *framepb.SendFrameRequest) (*framepb.SendFrameResponse, error) {
	err := s.proc.Send(schema.FrameID(req.GetFrameId()))
	if err == nil {
		return &framepb.SendFrameResponse{Ok: true}, nil
	}
	if frameerr.IsFatal(err) {
		return nil, status.Errorf(codes.Internal, "send frame %d: %v", req.GetFrameId(), err)
	}
	return &framepb.SendFrameResponse{Ok: false, Error: err.Error()}, nil
}

// NewServerCredentials builds mTLS server credentials from a PEM certificate
// and key and a CA bundle used to verify client certificates. Every caller
// of StreamFields or SendFrame must present a certificate signed by caPath.
func NewServerCredentials(certPath, keyPath, caPath string) (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("grpc: load server keypair: %w", err)
	}

	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("grpc: read CA bundle: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("grpc: CA bundle %q contains no usable certificates", caPath)
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}), nil
}
