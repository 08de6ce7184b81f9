package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dkeye/SyncSound/internal/adapters/console"
	"github.com/dkeye/SyncSound/internal/adapters/share"
	"github.com/dkeye/SyncSound/internal/app"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog/log"
)

const helpText = `commands:
  signup <username> <email> <password>
  signin <email> <password>
  signout
  create
  join <code>
  leave
  refresh
  share
  status
  help
  quit`

// shell maps text commands onto client operations. Failures are already
// shown through the view, so returned errors are only logged.
type shell struct {
	client *app.Client
	view   *console.View
	out    io.Writer
}

func newShell(client *app.Client, view *console.View, out io.Writer) *shell {
	return &shell{client: client, view: view, out: out}
}

func (s *shell) println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

// Run reads commands until quit, end of input or ctx cancellation.
func (s *shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	s.println("type 'help' for commands")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if s.Exec(ctx, line) {
				return nil
			}
		}
	}
}

// Exec runs one command line and reports whether the shell should stop.
func (s *shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "signup":
		if len(args) != 3 {
			s.println("usage: signup <username> <email> <password>")
			return false
		}
		err = s.client.Auth.SignUp(ctx, args[0], args[1], args[2])
	case "signin", "login":
		if len(args) != 2 {
			s.println("usage: signin <email> <password>")
			return false
		}
		err = s.client.Auth.SignIn(ctx, args[0], args[1])
	case "signout", "logout":
		err = s.client.Auth.SignOut(ctx)
	case "create":
		err = s.client.Rooms.Create(ctx)
	case "join":
		err = s.client.Rooms.JoinByCode(ctx, strings.Join(args, ""))
	case "leave":
		err = s.client.Rooms.Leave(ctx)
	case "refresh":
		err = s.client.Rooms.Resume(ctx)
	case "share":
		s.share()
	case "status":
		_, _ = io.WriteString(s.out, s.view.Status())
	case "help", "?":
		s.println(helpText)
	case "quit", "exit":
		return true
	default:
		s.println("unknown command, type 'help'")
	}
	if err != nil {
		log.Debug().Err(err).Str("module", "main.shell").Str("command", cmd).Msg("command failed")
	}
	return false
}

func (s *shell) share() {
	var code domain.RoomCode
	if room := s.client.Session.Room(); room != nil {
		code = room.Code
	}
	qr, err := share.Terminal(code)
	if err != nil {
		s.println(err.Error())
		return
	}
	s.println(qr)
	s.println("room code: " + string(code))
}
