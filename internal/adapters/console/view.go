package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
)

var screenHints = map[core.Screen]string{
	core.ScreenLoading:   "loading...",
	core.ScreenAuth:      "commands: signup <username> <email> <password>, signin <email> <password>",
	core.ScreenDashboard: "commands: create, join <code>, signout",
	core.ScreenRoom:      "commands: leave, refresh, share, status",
}

// View renders the client as plain text lines.
type View struct {
	mu  sync.Mutex
	out io.Writer

	screen       core.Screen
	user         string
	roomName     string
	roomCode     domain.RoomCode
	host         bool
	count        int
	participants []core.ParticipantDTO
	connected    bool
}

var _ core.View = (*View)(nil)

func New(out io.Writer) *View {
	return &View{out: out, screen: -1}
}

func (v *View) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(v.out, format+"\n", args...)
}

func (v *View) SetVisible(screen core.Screen, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !visible || screen == v.screen {
		return
	}
	v.screen = screen
	v.printf("== %s ==", screen)
	if hint := screenHints[screen]; hint != "" {
		v.printf("   %s", hint)
	}
}

func (v *View) ShowUser(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.user = name
	v.printf("signed in as %s", name)
}

func (v *View) ShowRoom(name string, code domain.RoomCode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roomName, v.roomCode = name, code
	v.printf("room %s (code: %s)", name, code)
}

func (v *View) ShowHostControls(isHost bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.host = isHost
	if isHost {
		v.printf("you are the host")
	} else {
		v.printf("you are a listener")
	}
}

func (v *View) SetParticipantCount(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.count = n
}

func (v *View) RenderParticipants(list []core.ParticipantDTO) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.participants = append(v.participants[:0], list...)
	v.printf("participants (%d):", v.count)
	for _, p := range list {
		if p.IsHost {
			v.printf("  - %s (host)", p.Name)
		} else {
			v.printf("  - %s", p.Name)
		}
	}
}

func (v *View) SetConnected(connected bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.connected == connected {
		return
	}
	v.connected = connected
	if connected {
		v.printf("[connected]")
	} else {
		v.printf("[disconnected]")
	}
}

func (v *View) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printf("! %s", message)
}

// Status describes what is currently on screen.
func (v *View) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "screen: %s\n", v.screen)
	conn := "offline"
	if v.connected {
		conn = "online"
	}
	fmt.Fprintf(&b, "realtime: %s\n", conn)
	if v.user != "" && v.screen != core.ScreenAuth {
		fmt.Fprintf(&b, "user: %s\n", v.user)
	}
	if v.screen == core.ScreenRoom {
		fmt.Fprintf(&b, "room: %s (%s)\n", v.roomName, v.roomCode)
		fmt.Fprintf(&b, "participants: %d\n", v.count)
		for _, p := range v.participants {
			suffix := ""
			if p.IsHost {
				suffix = " (host)"
			}
			fmt.Fprintf(&b, "  - %s%s\n", p.Name, suffix)
		}
	}
	return b.String()
}
