package console_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dkeye/SyncSound/internal/adapters/console"
	"github.com/dkeye/SyncSound/internal/core"
)

func TestView_RendersRoom(t *testing.T) {
	var buf bytes.Buffer
	v := console.New(&buf)

	v.SetVisible(core.ScreenDashboard, true)
	v.ShowUser("alice")
	v.ShowRoom("Room-AB12CD", "AB12CD")
	v.ShowHostControls(true)
	v.SetVisible(core.ScreenDashboard, false)
	v.SetVisible(core.ScreenRoom, true)
	v.SetParticipantCount(2)
	v.RenderParticipants([]core.ParticipantDTO{{Name: "alice", IsHost: true}, {Name: "bob"}})
	v.Notify("bob joined the room")

	out := buf.String()
	for _, want := range []string{
		"== dashboard ==",
		"signed in as alice",
		"room Room-AB12CD (code: AB12CD)",
		"you are the host",
		"== room ==",
		"participants (2):",
		"  - alice (host)",
		"  - bob\n",
		"! bob joined the room",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	status := v.Status()
	if !strings.Contains(status, "screen: room") || !strings.Contains(status, "participants: 2") {
		t.Errorf("unexpected status:\n%s", status)
	}
}

func TestView_ScreenAndConnectionPrintedOnChangeOnly(t *testing.T) {
	var buf bytes.Buffer
	v := console.New(&buf)

	v.SetVisible(core.ScreenAuth, true)
	v.SetVisible(core.ScreenAuth, true)
	v.SetConnected(true)
	v.SetConnected(true)
	v.SetConnected(false)

	out := buf.String()
	if n := strings.Count(out, "== auth =="); n != 1 {
		t.Errorf("expected one auth header, got %d", n)
	}
	if strings.Count(out, "[connected]") != 1 || strings.Count(out, "[disconnected]") != 1 {
		t.Errorf("unexpected connection lines:\n%s", out)
	}
	if strings.Contains(v.Status(), "user:") {
		t.Error("auth screen must not show a user")
	}
}
