package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure       = errors.New("backpressure")
	ErrClosed             = errors.New("channel closed")
	ErrReconnectExhausted = errors.New("reconnection attempts exhausted")
)

const (
	TransportWebsocket = "websocket"

	defaultPath       = "/ws"
	defaultSendBuffer = 32
	writeWait         = 5 * time.Second
	readLimit         = 32768
)

type Options struct {
	Endpoint          string
	Transports        []string
	Timeout           time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	PingPeriod        time.Duration
	SendBuffer        int
}

// Channel is a reconnecting websocket client. Emit may be called before Run
// or while disconnected; queued frames go out on the next connection.
type Channel struct {
	opts   Options
	url    string
	dialer *websocket.Dialer
	send   chan []byte

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func New(opts Options) (*Channel, error) {
	if len(opts.Transports) > 0 && !slices.Contains(opts.Transports, TransportWebsocket) {
		return nil, fmt.Errorf("realtime: no supported transport in %v", opts.Transports)
	}
	u, err := wsURL(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}
	return &Channel{
		opts:   opts,
		url:    u,
		dialer: &websocket.Dialer{HandshakeTimeout: opts.Timeout},
		send:   make(chan []byte, opts.SendBuffer),
		done:   make(chan struct{}),
	}, nil
}

// URL is the websocket address the channel dials.
func (c *Channel) URL() string { return c.url }

func wsURL(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("realtime: empty endpoint")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("realtime: bad endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("realtime: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("realtime: missing host in %q", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = defaultPath
	}
	return u.String(), nil
}

func (c *Channel) Emit(msg core.Outbound) error {
	b, err := json.Marshal(envelope{Event: msg.EventName(), Data: mustRaw(msg)})
	if err != nil {
		return fmt.Errorf("realtime: encode %s: %w", msg.EventName(), err)
	}
	return c.trySend(b)
}

func (c *Channel) trySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops Run and rejects further emits.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Run connects and keeps reconnecting until ctx ends, Close is called, or
// ReconnectAttempts consecutive attempts after a failure have not succeeded.
// Inbound events are dispatched on the calling goroutine.
func (c *Channel) Run(ctx context.Context, h core.EventHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	failures := 0
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return c.stopErr(ctx)
			}
			failures++
			log.Warn().Err(err).Str("module", "realtime").Int("attempt", failures).Msg("connect failed")
			if failures > c.opts.ReconnectAttempts {
				h.Dispatch(ctx, core.TransportError{Err: fmt.Errorf("%w: %v", ErrReconnectExhausted, err)})
				return ErrReconnectExhausted
			}
			if !sleep(ctx, c.opts.ReconnectDelay) {
				return c.stopErr(ctx)
			}
			continue
		}

		failures = 0
		log.Info().Str("module", "realtime").Str("url", c.url).Msg("connected")
		h.Dispatch(ctx, core.Connected{})

		reason := c.serve(ctx, conn, h)
		h.Dispatch(ctx, core.Disconnected{Reason: reason})

		if ctx.Err() != nil {
			return c.stopErr(ctx)
		}
		if !sleep(ctx, c.opts.ReconnectDelay) {
			return c.stopErr(ctx)
		}
	}
}

func (c *Channel) stopErr(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// serve pumps one connection until it breaks and returns the reason.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn, h core.EventHandler) string {
	connCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		_ = conn.Close()
		wg.Wait()
	}()

	conn.SetReadLimit(readLimit)
	if c.opts.PingPeriod > 0 {
		wait := 2 * c.opts.PingPeriod
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(connCtx, conn)
	}()

	// Unblock ReadMessage on shutdown.
	go func() {
		<-connCtx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	return c.readPump(connCtx, conn, h)
}

func (c *Channel) writePump(ctx context.Context, conn *websocket.Conn) {
	var tick <-chan time.Time
	if c.opts.PingPeriod > 0 {
		ticker := time.NewTicker(c.opts.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case data := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "realtime").Msg("writePump set deadline")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "realtime").Msg("writePump write error")
				_ = conn.Close()
				return
			}
		case <-tick:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "realtime").Msg("writePump ping")
				_ = conn.Close()
				return
			}
		}
	}
}

func (c *Channel) readPump(ctx context.Context, conn *websocket.Conn, h core.EventHandler) string {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "client closed"
			}
			log.Warn().Err(err).Str("module", "realtime").Msg("readPump read error")
			return err.Error()
		}
		ev, err := Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "realtime").Msg("dropping frame")
			continue
		}
		h.Dispatch(ctx, ev)
	}
}
