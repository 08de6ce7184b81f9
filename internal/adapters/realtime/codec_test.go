package realtime_test

import (
	"strings"
	"testing"

	"github.com/dkeye/SyncSound/internal/adapters/realtime"
	"github.com/dkeye/SyncSound/internal/core"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		check   func(core.Event) bool
		wantErr bool
	}{
		{
			name:  "room updated",
			frame: `{"event":"room-updated","data":{"participants":2}}`,
			check: func(e core.Event) bool { r, ok := e.(core.RoomUpdated); return ok && r.Participants == 2 },
		},
		{
			name:  "participant left without payload",
			frame: `{"event":"participant-left"}`,
			check: func(e core.Event) bool { _, ok := e.(core.ParticipantLeft); return ok },
		},
		{
			name:  "error with message",
			frame: `{"event":"error","data":{"message":"room full"}}`,
			check: func(e core.Event) bool {
				te, ok := e.(core.TransportError)
				return ok && strings.Contains(te.Err.Error(), "room full")
			},
		},
		{
			name:  "error with string",
			frame: `{"event":"error","data":"kicked"}`,
			check: func(e core.Event) bool {
				te, ok := e.(core.TransportError)
				return ok && strings.Contains(te.Err.Error(), "kicked")
			},
		},
		{name: "unknown", frame: `{"event":"play","data":{}}`, wantErr: true},
		{name: "missing name", frame: `{"data":{}}`, wantErr: true},
		{name: "bad json", frame: `{"event":`, wantErr: true},
		{name: "bad payload", frame: `{"event":"room-updated","data":{"participants":"two"}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := realtime.Decode([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", ev)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(ev) {
				t.Errorf("unexpected event %#v", ev)
			}
		})
	}
}
