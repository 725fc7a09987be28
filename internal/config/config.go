// Package config provides YAML configuration loading and validation for the
// framewire agent: transceiver selection, frame schema, checksum algorithm,
// and the optional outbox, sink, bridge, and admin components.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tripwire/framewire/internal/schema"
)

// Config is the top-level configuration structure for the framewire agent.
type Config struct {
	// LogLevel sets the minimum log severity: "debug", "info", "warn", or
	// "error". Defaults to "info" when omitted.
	LogLevel string `yaml:"log_level"`

	// Transceiver selects and configures the byte transport.
	Transceiver TransceiverConfig `yaml:"transceiver"`

	// Schema describes the frame map this agent speaks. Required.
	Schema SchemaConfig `yaml:"schema"`

	// Checksum selects the checksum algorithm applied to outbound frames and
	// verified on inbound frames. Defaults to "none" when omitted.
	Checksum ChecksumConfig `yaml:"checksum"`

	// Outbox configures the durable outbound frame queue. Optional; when
	// omitted, Send calls go straight to the transceiver with no persistence.
	Outbox *OutboxConfig `yaml:"outbox,omitempty"`

	// Sink configures the Postgres field-snapshot writer. Optional.
	Sink *SinkConfig `yaml:"sink,omitempty"`

	// Bridge configures the gRPC field-stream service. Optional.
	Bridge *BridgeConfig `yaml:"bridge,omitempty"`

	// Admin configures the REST introspection API. Optional.
	Admin *AdminConfig `yaml:"admin,omitempty"`

	// Audit configures the tamper-evident frame audit trail. Optional.
	Audit *AuditConfig `yaml:"audit,omitempty"`
}

// TransceiverConfig selects and configures one of the three transceiver
// kinds. Exactly one of the kind-specific sub-structs is consulted,
// according to Kind.
type TransceiverConfig struct {
	// Kind is one of "serial", "udp", or "dualudp". Required.
	Kind string `yaml:"kind"`

	Serial  SerialTransceiverConfig  `yaml:"serial,omitempty"`
	UDP     UDPTransceiverConfig     `yaml:"udp,omitempty"`
	DualUDP DualUDPTransceiverConfig `yaml:"dual_udp,omitempty"`
}

// SerialTransceiverConfig configures a "serial" transceiver.
type SerialTransceiverConfig struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	ReadTimeout string `yaml:"read_timeout,omitempty"`
}

// UDPTransceiverConfig configures a "udp" transceiver.
type UDPTransceiverConfig struct {
	Address        string `yaml:"address"`
	Port           int    `yaml:"port"`
	AllowAddrReuse bool   `yaml:"allow_addr_reuse,omitempty"`
}

// DualUDPTransceiverConfig configures a "dualudp" transceiver.
type DualUDPTransceiverConfig struct {
	Address  string `yaml:"address"`
	RecvPort int    `yaml:"recv_port"`
	SendPort int    `yaml:"send_port"`
}

// SchemaConfig describes the frame map, sync sequence, and default frame id.
type SchemaConfig struct {
	// SyncHex is the sync byte sequence, hex-encoded (e.g. "aa55"). Required.
	SyncHex string `yaml:"sync_hex"`

	// DefaultFrame is the frame id used when the frame map has only one
	// entry, or to resolve a frame before the frame-id field has been read.
	DefaultFrame uint8 `yaml:"default_frame"`

	// Frames maps a frame id to its ordered field layout. Required, must
	// contain at least one entry.
	Frames map[uint8][]string `yaml:"frames"`
}

// ChecksumConfig selects a checksum algorithm.
type ChecksumConfig struct {
	// Algorithm is one of "none", "sum8", or "crc16". Defaults to "none".
	Algorithm string `yaml:"algorithm"`
}

// OutboxConfig configures the SQLite-backed durable outbound queue.
type OutboxConfig struct {
	// DBPath is the path to the SQLite database file. Required.
	DBPath string `yaml:"db_path"`

	// MaxRetries bounds how many times a queued frame is retried before
	// being dropped. Defaults to 5 when zero.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// SinkConfig configures the batched Postgres field-snapshot writer.
type SinkConfig struct {
	// DSN is the PostgreSQL connection string. Required.
	DSN string `yaml:"dsn"`

	// BatchSize is the number of snapshots buffered before a flush.
	// Defaults to 100 when zero.
	BatchSize int `yaml:"batch_size,omitempty"`

	// FlushInterval is a duration string (e.g. "2s") bounding how long a
	// partial batch waits before flushing anyway. Defaults to "2s" when
	// omitted.
	FlushInterval string `yaml:"flush_interval,omitempty"`
}

// BridgeConfig configures the gRPC field-stream bridge.
type BridgeConfig struct {
	// ListenAddr is the gRPC listen address (e.g. "0.0.0.0:4443"). Required.
	ListenAddr string `yaml:"listen_addr"`

	TLS TLSConfig `yaml:"tls"`
}

// AdminConfig configures the chi-based REST introspection API.
type AdminConfig struct {
	// ListenAddr is the HTTP listen address (e.g. "127.0.0.1:9100").
	// Required.
	ListenAddr string `yaml:"listen_addr"`

	// JWTPublicKeyPath is the path to the PEM-encoded RSA public key used to
	// verify bearer tokens. Required.
	JWTPublicKeyPath string `yaml:"jwt_public_key_path"`
}

// AuditConfig configures the hash-chained audit log of decoded and
// transmitted frames.
type AuditConfig struct {
	// Path is the audit log file. Required.
	Path string `yaml:"path"`
}

// TLSConfig holds certificate and key paths for mTLS.
type TLSConfig struct {
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
	CAPath   string `yaml:"ca_path"`
}

// fieldNameTags maps the four reserved schema field names recognized in a
// frames entry to their schema.FieldTag. Any other token in a frames entry
// is parsed as an unsigned decimal user tag.
var fieldNameTags = map[string]schema.FieldTag{
	"SYNC":     schema.TagSync,
	"FRAME":    schema.TagFrame,
	"CHECKSUM": schema.TagChecksum,
	"TERM":     schema.TagTerm,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validTransceiverKinds = map[string]bool{
	"serial":  true,
	"udp":     true,
	"dualudp": true,
}

var validChecksumAlgorithms = map[string]bool{
	"none":  true,
	"sum8":  true,
	"crc16": true,
}

// LoadConfig reads the YAML file at path, unmarshals it into Config, applies
// defaults, and validates all required fields. It returns a typed error
// describing the first validation failure encountered.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: cannot parse %q: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed for %q: %w", path, err)
	}

	return &cfg, nil
}

// applyDefaults fills in zero-value optional fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Checksum.Algorithm == "" {
		cfg.Checksum.Algorithm = "none"
	}
	if cfg.Outbox != nil && cfg.Outbox.MaxRetries == 0 {
		cfg.Outbox.MaxRetries = 5
	}
	if cfg.Sink != nil {
		if cfg.Sink.BatchSize == 0 {
			cfg.Sink.BatchSize = 100
		}
		if cfg.Sink.FlushInterval == "" {
			cfg.Sink.FlushInterval = "2s"
		}
	}
}

// validate checks that all required fields are populated and that
// enumerated fields contain only valid values.
func validate(cfg *Config) error {
	var errs []error

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level %q must be one of: debug, info, warn, error", cfg.LogLevel))
	}

	if !validTransceiverKinds[cfg.Transceiver.Kind] {
		errs = append(errs, fmt.Errorf("transceiver.kind %q must be one of: serial, udp, dualudp", cfg.Transceiver.Kind))
	}
	switch cfg.Transceiver.Kind {
	case "serial":
		if cfg.Transceiver.Serial.Port == "" {
			errs = append(errs, errors.New("transceiver.serial.port is required"))
		}
		if cfg.Transceiver.Serial.Baud <= 0 {
			errs = append(errs, errors.New("transceiver.serial.baud must be positive"))
		}
	case "udp":
		if cfg.Transceiver.UDP.Address == "" {
			errs = append(errs, errors.New("transceiver.udp.address is required"))
		}
		if cfg.Transceiver.UDP.Port <= 0 {
			errs = append(errs, errors.New("transceiver.udp.port must be positive"))
		}
	case "dualudp":
		if cfg.Transceiver.DualUDP.Address == "" {
			errs = append(errs, errors.New("transceiver.dual_udp.address is required"))
		}
		if cfg.Transceiver.DualUDP.RecvPort <= 0 || cfg.Transceiver.DualUDP.SendPort <= 0 {
			errs = append(errs, errors.New("transceiver.dual_udp.recv_port and send_port must be positive"))
		}
	}

	if !validChecksumAlgorithms[cfg.Checksum.Algorithm] {
		errs = append(errs, fmt.Errorf("checksum.algorithm %q must be one of: none, sum8, crc16", cfg.Checksum.Algorithm))
	}

	if _, err := BuildFrameMap(cfg.Schema); err != nil {
		errs = append(errs, fmt.Errorf("schema: %w", err))
	}

	if cfg.Outbox != nil && cfg.Outbox.DBPath == "" {
		errs = append(errs, errors.New("outbox.db_path is required when outbox is configured"))
	}
	if cfg.Sink != nil && cfg.Sink.DSN == "" {
		errs = append(errs, errors.New("sink.dsn is required when sink is configured"))
	}
	if cfg.Bridge != nil && cfg.Bridge.ListenAddr == "" {
		errs = append(errs, errors.New("bridge.listen_addr is required when bridge is configured"))
	}
	if cfg.Admin != nil {
		if cfg.Admin.ListenAddr == "" {
			errs = append(errs, errors.New("admin.listen_addr is required when admin is configured"))
		}
		if cfg.Admin.JWTPublicKeyPath == "" {
			errs = append(errs, errors.New("admin.jwt_public_key_path is required when admin is configured"))
		}
	}
	if cfg.Audit != nil && cfg.Audit.Path == "" {
		errs = append(errs, errors.New("audit.path is required when audit is configured"))
	}

	return errors.Join(errs...)
}

// BuildFrameMap decodes the sync sequence and resolves every frame entry in
// sc into a schema.FrameMap, without running schema.FrameMap.Validate. It is
// exported so cmd/framecat and tests can share the same parsing logic LoadConfig
// validates against.
func BuildFrameMap(sc SchemaConfig) (schema.FrameMap, error) {
	if len(sc.SyncHex) == 0 {
		return nil, errors.New("sync_hex is required")
	}
	if _, err := hex.DecodeString(sc.SyncHex); err != nil {
		return nil, fmt.Errorf("sync_hex: %w", err)
	}
	if len(sc.Frames) == 0 {
		return nil, errors.New("frames must contain at least one entry")
	}

	out := make(schema.FrameMap, len(sc.Frames))
	for id, fields := range sc.Frames {
		frame := make(schema.Frame, 0, len(fields))
		for _, tok := range fields {
			tag, err := parseFieldTag(tok)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", id, err)
			}
			frame = append(frame, tag)
		}
		out[schema.FrameID(id)] = frame
	}
	return out, nil
}

// SyncBytes decodes sc.SyncHex. Callers should only invoke this after
// BuildFrameMap has validated sc.
func SyncBytes(sc SchemaConfig) ([]byte, error) {
	return hex.DecodeString(sc.SyncHex)
}

// parseFieldTag resolves a single frames entry token: one of the four
// reserved names, or an unsigned decimal user tag.
func parseFieldTag(tok string) (schema.FieldTag, error) {
	if tag, ok := fieldNameTags[tok]; ok {
		return tag, nil
	}
	var n int
	if _, err := fmt.Sscanf(tok, "%d", &n); err != nil {
		return 0, fmt.Errorf("field %q: not a reserved name or integer tag", tok)
	}
	if n < 0 {
		return 0, fmt.Errorf("field %q: user tags must be non-negative", tok)
	}
	tag := schema.FieldTag(n)
	if !schema.IsUser(tag) {
		return 0, fmt.Errorf("field %q: tag value collides with a reserved range", tok)
	}
	return tag, nil
}
