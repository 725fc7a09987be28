// Command framecat is the framing engine's runtime binary. It loads a YAML
// configuration file, constructs the configured transceiver and checksum
// algorithm, drives the frame processor's receive loop, and optionally
// starts the durable outbox worker, the Postgres snapshot sink, the gRPC
// field-stream bridge, and the REST introspection API, shutting down
// gracefully on SIGTERM or SIGINT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/tripwire/framewire/internal/admin/rest"
	"github.com/tripwire/framewire/internal/audit"
	"github.com/tripwire/framewire/internal/bridge"
	bridgegrpc "github.com/tripwire/framewire/internal/bridge/grpc"
	"github.com/tripwire/framewire/internal/checksum"
	"github.com/tripwire/framewire/internal/config"
	"github.com/tripwire/framewire/internal/frameerr"
	"github.com/tripwire/framewire/internal/outbox"
	"github.com/tripwire/framewire/internal/processor"
	"github.com/tripwire/framewire/internal/schema"
	"github.com/tripwire/framewire/internal/sink/postgres"
	"github.com/tripwire/framewire/internal/transceiver"
	"github.com/tripwire/framewire/internal/valuemap"
	framepb "github.com/tripwire/framewire/proto"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "/etc/framecat/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framecat: %v\n", err)
		os.Exit(1)
	}

	instanceID := uuid.NewString()
	logger := newLogger(cfg.LogLevel).With(slog.String("instance_id", instanceID))
	slog.SetDefault(logger)
	logger.Info("framecat starting", slog.String("transceiver_kind", cfg.Transceiver.Kind))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	xcvr, err := buildTransceiver(cfg.Transceiver, logger)
	if err != nil {
		logger.Error("failed to construct transceiver", slog.Any("error", err))
		os.Exit(1)
	}

	frameMap, err := config.BuildFrameMap(cfg.Schema)
	if err != nil {
		logger.Error("failed to build frame map", slog.Any("error", err))
		os.Exit(1)
	}
	syncBytes, err := config.SyncBytes(cfg.Schema)
	if err != nil {
		logger.Error("failed to decode sync sequence", slog.Any("error", err))
		os.Exit(1)
	}

	gen, eval, err := checksum.New(cfg.Checksum.Algorithm)
	if err != nil {
		logger.Error("failed to resolve checksum algorithm", slog.Any("error", err))
		os.Exit(1)
	}

	// ── Optional Postgres sink ────────────────────────────────────────────
	var sink *postgres.Sink
	if cfg.Sink != nil {
		flushInterval, err := time.ParseDuration(cfg.Sink.FlushInterval)
		if err != nil {
			logger.Error("invalid sink.flush_interval", slog.Any("error", err))
			os.Exit(1)
		}
		sink, err = postgres.Open(ctx, cfg.Sink.DSN, cfg.Sink.BatchSize, flushInterval)
		if err != nil {
			logger.Error("failed to open Postgres sink", slog.Any("error", err))
			os.Exit(1)
		}
		defer sink.Close(context.Background())
		logger.Info("Postgres snapshot sink connected")
	}

	// ── Optional audit trail ──────────────────────────────────────────────
	var auditLog *audit.Logger
	if cfg.Audit != nil {
		auditLog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Error("failed to open audit log", slog.Any("error", err))
			os.Exit(1)
		}
		defer auditLog.Close()
		logger.Info("audit trail opened", slog.String("path", cfg.Audit.Path))
	}

	// ── gRPC field-stream broadcaster (always created) ────────────────────
	broadcaster := bridge.NewBroadcaster(logger, 64)
	defer broadcaster.Close()

	newMessage := func(snapshot valuemap.Map) {
		broadcaster.Publish(snapshot)
		if sink != nil {
			if err := sink.WriteSnapshot(context.Background(), snapshot); err != nil {
				logger.Warn("sink: write snapshot failed", slog.Any("error", err))
			}
		}
		if auditLog != nil {
			if _, err := auditLog.AppendFrameDecoded(instanceID, snapshot); err != nil {
				logger.Warn("audit: append decoded frame failed", slog.Any("error", err))
			}
		}
	}

	// ── Optional durable outbox ────────────────────────────────────────────
	var ob *outbox.Outbox
	if cfg.Outbox != nil {
		ob, err = outbox.Open(cfg.Outbox.DBPath)
		if err != nil {
			logger.Error("failed to open outbox", slog.Any("error", err))
			os.Exit(1)
		}
		defer ob.Close()
		logger.Info("durable outbox opened", slog.String("path", cfg.Outbox.DBPath))
	}

	proc, err := processor.New(processor.Config{
		Transceiver:  xcvr,
		FrameMap:     frameMap,
		DefaultFrame: schema.FrameID(cfg.Schema.DefaultFrame),
		SyncValue:    syncBytes,
		Logger:       logger,
		Callbacks: processor.Callbacks{
			NewMessage:        newMessage,
			ChecksumGenerator: processor.ChecksumGenerator(gen),
			ChecksumEvaluator: processor.ChecksumEvaluator(eval),
		},
	})
	if err != nil {
		logger.Error("failed to construct processor", slog.Any("error", err))
		os.Exit(1)
	}
	defer proc.Close()

	// ── gRPC bridge server ─────────────────────────────────────────────────
	var grpcSrv *grpc.Server
	var grpcErrCh = make(chan error, 1)
	if cfg.Bridge != nil {
		creds, err := bridgegrpc.NewServerCredentials(cfg.Bridge.TLS.CertPath, cfg.Bridge.TLS.KeyPath, cfg.Bridge.TLS.CAPath)
		if err != nil {
			logger.Error("failed to build gRPC server credentials", slog.Any("error", err))
			os.Exit(1)
		}
		lis, err := net.Listen("tcp", cfg.Bridge.ListenAddr)
		if err != nil {
			logger.Error("failed to listen for gRPC", slog.Any("error", err))
			os.Exit(1)
		}
		// With an outbox configured, remote send requests are persisted and
		// delivered by the retry worker instead of going straight to the
		// transceiver.
		var sender bridgegrpc.Processor = proc
		if ob != nil {
			sender = enqueueSender{ob: ob}
		}
		grpcSrv = grpc.NewServer(grpc.Creds(creds))
		framepb.RegisterFrameStreamServiceServer(grpcSrv, bridgegrpc.NewServer(sender, broadcaster, logger))
		go func() {
			logger.Info("gRPC field-stream bridge listening", slog.String("addr", cfg.Bridge.ListenAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				grpcErrCh <- fmt.Errorf("gRPC server: %w", err)
			}
			close(grpcErrCh)
		}()
	} else {
		close(grpcErrCh)
	}

	// ── REST introspection API ─────────────────────────────────────────────
	var httpServer *http.Server
	httpErrCh := make(chan error, 1)
	if cfg.Admin != nil {
		pem, err := os.ReadFile(cfg.Admin.JWTPublicKeyPath)
		if err != nil {
			logger.Error("failed to read JWT public key", slog.Any("error", err))
			os.Exit(1)
		}
		pubKey, err := rest.ParseRSAPublicKey(pem)
		if err != nil {
			logger.Error("failed to parse JWT public key", slog.Any("error", err))
			os.Exit(1)
		}
		restSrv := rest.NewServer(proc)
		httpServer = &http.Server{
			Addr:         cfg.Admin.ListenAddr,
			Handler:      rest.NewRouter(restSrv, pubKey),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			logger.Info("REST introspection API listening", slog.String("addr", cfg.Admin.ListenAddr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				httpErrCh <- fmt.Errorf("HTTP server: %w", err)
			}
			close(httpErrCh)
		}()
	} else {
		close(httpErrCh)
	}

	// ── Outbox retry worker ────────────────────────────────────────────────
	if ob != nil {
		go runOutboxWorker(ctx, ob, proc, cfg.Outbox.MaxRetries, instanceID, auditLog, logger)
	}

	// ── Receive loop ───────────────────────────────────────────────────────
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				proc.Update(time.Now())
			}
		}
	}()

	// ── Wait for shutdown signal or fatal error ───────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("gRPC server error", slog.Any("error", err))
		}
	case err := <-httpErrCh:
		if err != nil {
			logger.Error("HTTP server error", slog.Any("error", err))
		}
	}

	logger.Info("shutting down")
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown error", slog.Any("error", err))
		}
		shutdownCancel()
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}

	logger.Info("framecat exited cleanly")
}

// buildTransceiver constructs the configured Transceiver variant. Init is
// left to the processor constructor.
func buildTransceiver(tc config.TransceiverConfig, logger *slog.Logger) (transceiver.Transceiver, error) {
	switch tc.Kind {
	case "serial":
		readTimeout, err := time.ParseDuration(tc.Serial.ReadTimeout)
		if err != nil && tc.Serial.ReadTimeout != "" {
			return nil, fmt.Errorf("transceiver.serial.read_timeout: %w", err)
		}
		return transceiver.NewSerialTransceiver(transceiver.SerialConfig{
			Port:        tc.Serial.Port,
			Baud:        tc.Serial.Baud,
			ReadTimeout: readTimeout,
		}, logger), nil
	case "udp":
		return transceiver.NewUDPTransceiver(transceiver.UDPConfig{
			Address:        tc.UDP.Address,
			Port:           tc.UDP.Port,
			AllowAddrReuse: tc.UDP.AllowAddrReuse,
		}, logger), nil
	case "dualudp":
		return transceiver.NewDualUDPTransceiver(tc.DualUDP.Address, tc.DualUDP.RecvPort, tc.DualUDP.SendPort, logger), nil
	default:
		return nil, fmt.Errorf("unknown transceiver kind %q", tc.Kind)
	}
}

// enqueueSender satisfies bridgegrpc.Processor by persisting the send
// request in the outbox rather than transmitting immediately; the retry
// worker performs the actual send.
type enqueueSender struct {
	ob *outbox.Outbox
}

func (s enqueueSender) Send(frameID schema.FrameID) error {
	_, err := s.ob.Enqueue(context.Background(), uint8(frameID))
	return err
}

// runOutboxWorker dequeues pending outbound frames and sends them through
// proc, retrying with exponential backoff on failure and dropping a frame
// once it exceeds maxRetries.
func runOutboxWorker(ctx context.Context, ob *outbox.Outbox, proc *processor.Processor, maxRetries int, instanceID string, auditLog *audit.Logger, logger *slog.Logger) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pending, err := ob.Dequeue(ctx, 10)
		if err != nil {
			logger.Warn("outbox: dequeue failed", slog.Any("error", err))
			sleep(ctx, b.NextBackOff())
			continue
		}
		if len(pending) == 0 {
			sleep(ctx, b.NextBackOff())
			continue
		}
		b.Reset()

		var acked []int64
		for _, frame := range pending {
			if frame.Attempts >= maxRetries {
				logger.Error("outbox: dropping frame after exceeding max retries",
					slog.Int64("frame_row", frame.ID), slog.Int("attempts", frame.Attempts))
				if auditLog != nil {
					if _, err := auditLog.AppendFrameDropped(instanceID, schema.FrameID(frame.FrameID), "max retries exceeded"); err != nil {
						logger.Warn("audit: append dropped frame failed", slog.Any("error", err))
					}
				}
				acked = append(acked, frame.ID)
				continue
			}

			err := proc.Send(schema.FrameID(frame.FrameID))
			if err == nil {
				if auditLog != nil {
					if _, err := auditLog.AppendFrameSent(instanceID, schema.FrameID(frame.FrameID)); err != nil {
						logger.Warn("audit: append sent frame failed", slog.Any("error", err))
					}
				}
				acked = append(acked, frame.ID)
				continue
			}
			if frameerr.IsFatal(err) {
				logger.Error("outbox: fatal send error, stopping worker", slog.Any("error", err))
				return
			}
			if markErr := ob.MarkAttempt(ctx, frame.ID); markErr != nil {
				logger.Warn("outbox: mark attempt failed", slog.Any("error", markErr))
			}
			logger.Warn("outbox: send failed, will retry", slog.Int64("frame_row", frame.ID), slog.Any("error", err))
		}
		if len(acked) > 0 {
			if err := ob.Ack(ctx, acked); err != nil {
				logger.Warn("outbox: ack failed", slog.Any("error", err))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d == backoff.Stop {
		d = 10 * time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// newLogger constructs a *slog.Logger that writes JSON-structured log
// records to stderr at the requested minimum level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
