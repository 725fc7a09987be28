package rest

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/tripwire/framewire/internal/schema"
)

// Server holds the dependencies needed by the admin REST handlers.
type Server struct {
	store FieldStore
}

// NewServer creates a new Server with the provided field store.
func NewServer(store FieldStore) *Server {
	return &Server{store: store}
}

// FieldSnapshot is the JSON representation of one entry in the value map.
type FieldSnapshot struct {
	Tag       int       `json:"tag"`
	DataHex   string    `json:"data_hex"`
	Timestamp time.Time `json:"timestamp"`
}

// FrameDescription is the JSON representation of one frame layout.
type FrameDescription struct {
	FrameID uint8    `json:"frame_id"`
	Fields  []string `json:"fields"`
}

// handleHealthz responds to GET /healthz.
//
// This endpoint does not require authentication and returns HTTP 200 with a
// simple JSON body so load balancers and orchestrators can verify liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleGetFields responds to GET /api/v1/fields.
//
// Returns HTTP 200 with a JSON array of every field currently held in the
// processor's value map, ordered by tag. Reserved tags (SYNC, FRAME,
// CHECKSUM, TERM) are included like any other field.
func (s *Server) handleGetFields(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.Snapshot()

	out := make([]FieldSnapshot, 0, len(snapshot))
	for tag, payload := range snapshot {
		out = append(out, FieldSnapshot{
			Tag:       int(tag),
			DataHex:   hex.EncodeToString(payload.Data),
			Timestamp: payload.Timestamp,
		})
	}
	sortFieldSnapshots(out)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

// handleGetFrames responds to GET /api/v1/frames.
//
// Returns HTTP 200 with a JSON array describing every frame layout in the
// configured frame map, ordered by frame id.
func (s *Server) handleGetFrames(w http.ResponseWriter, r *http.Request) {
	frameMap := s.store.Frames()

	ids := make([]schema.FrameID, 0, len(frameMap))
	for id := range frameMap {
		ids = append(ids, id)
	}
	sortFrameIDs(ids)

	out := make([]FrameDescription, 0, len(ids))
	for _, id := range ids {
		frame := frameMap[id]
		fields := make([]string, len(frame))
		for i, tag := range frame {
			fields[i] = tagLabel(tag)
		}
		out = append(out, FrameDescription{FrameID: uint8(id), Fields: fields})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

// handleGetHealth responds to GET /api/v1/health.
//
// Returns HTTP 200 with the failure count of the most recently completed
// group of ten processed messages, giving an operator a coarse signal of
// stream quality without exposing raw bytes.
func (s *Server) handleGetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]uint16{
		"failed_of_last_ten": s.store.FailedOfLastTenMessages(),
	})
}

// tagLabel returns the human-readable name of a reserved tag, or the
// decimal tag value for a user-defined field.
func tagLabel(tag schema.FieldTag) string {
	switch tag {
	case schema.TagSync:
		return "SYNC"
	case schema.TagFrame:
		return "FRAME"
	case schema.TagChecksum:
		return "CHECKSUM"
	case schema.TagTerm:
		return "TERM"
	default:
		return strconv.Itoa(int(tag))
	}
}

// sortFieldSnapshots sorts out in place by Tag ascending. Insertion sort is
// adequate: a value map has at most a few dozen distinct fields.
func sortFieldSnapshots(out []FieldSnapshot) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Tag > out[j].Tag; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
}

// sortFrameIDs sorts ids in place ascending.
func sortFrameIDs(ids []schema.FrameID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
