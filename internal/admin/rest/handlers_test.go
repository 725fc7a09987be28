package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tripwire/framewire/internal/schema"
	"github.com/tripwire/framewire/internal/valuemap"
)

// fakeStore is an in-memory FieldStore for handler tests.
type fakeStore struct {
	snapshot valuemap.Map
	frames   schema.FrameMap
	failed   uint16
}

func (f *fakeStore) Snapshot() valuemap.Map              { return f.snapshot }
func (f *fakeStore) Frames() schema.FrameMap             { return f.frames }
func (f *fakeStore) FailedOfLastTenMessages() uint16     { return f.failed }

func TestHandleHealthzReturnsOK(t *testing.T) {
	srv := NewServer(&fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestHandleGetFieldsReturnsSortedSnapshot(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	store := &fakeStore{
		snapshot: valuemap.Map{
			5: {Data: []byte{0xAB}, Timestamp: now},
			1: {Data: []byte{0xCD}, Timestamp: now},
		},
	}
	srv := NewServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields", nil)
	rec := httptest.NewRecorder()
	srv.handleGetFields(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []FieldSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Tag != 1 || out[1].Tag != 5 {
		t.Errorf("expected tags sorted [1, 5], got [%d, %d]", out[0].Tag, out[1].Tag)
	}
	if out[0].DataHex != "cd" {
		t.Errorf("DataHex = %q, want cd", out[0].DataHex)
	}
}

func TestHandleGetFramesDescribesSchema(t *testing.T) {
	store := &fakeStore{
		frames: schema.FrameMap{
			0: schema.Frame{schema.TagSync, schema.TagFrame, 3, schema.TagChecksum},
		},
	}
	srv := NewServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/frames", nil)
	rec := httptest.NewRecorder()
	srv.handleGetFrames(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []FrameDescription
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out) != 1 || out[0].FrameID != 0 {
		t.Fatalf("unexpected frames: %+v", out)
	}
	want := []string{"SYNC", "FRAME", "3", "CHECKSUM"}
	if len(out[0].Fields) != len(want) {
		t.Fatalf("fields = %v, want %v", out[0].Fields, want)
	}
	for i := range want {
		if out[0].Fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, out[0].Fields[i], want[i])
		}
	}
}

func TestHandleGetHealthReportsFailureCounter(t *testing.T) {
	store := &fakeStore{failed: 3}
	srv := NewServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.handleGetHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]uint16
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["failed_of_last_ten"] != 3 {
		t.Errorf("failed_of_last_ten = %d, want 3", body["failed_of_last_ten"])
	}
}
