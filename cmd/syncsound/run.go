package main

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/dkeye/SyncSound/internal/adapters/console"
	router "github.com/dkeye/SyncSound/internal/adapters/http"
	"github.com/dkeye/SyncSound/internal/adapters/local"
	"github.com/dkeye/SyncSound/internal/adapters/pgstore"
	"github.com/dkeye/SyncSound/internal/adapters/realtime"
	"github.com/dkeye/SyncSound/internal/adapters/supabase"
	"github.com/dkeye/SyncSound/internal/app"
	"github.com/dkeye/SyncSound/internal/config"
	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// backend is everything the client needs from the outside besides the view.
type backend struct {
	identity core.IdentityProvider
	store    core.RecordStore
	// feed, when set, pushes store changes into the client.
	feed  func(ctx context.Context, h core.EventHandler)
	close func()
}

func run(ctx context.Context, v *viper.Viper, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.Verbose || cfg.Development {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Str("module", "config").Msg(w)
	}
	if cfg.Development && len(cfg.Warnings()) > 0 {
		log.Info().Str("module", "config").Msg("set values in config/config.dev.yaml or SYNCSOUND_* variables")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	be := buildBackend(ctx, cfg)
	defer be.close()

	view := console.New(out)

	var rt core.RealtimeChannel
	channel := buildChannel(cfg)
	if channel != nil {
		rt = channel
	}

	client := app.NewClient(be.identity, be.store, rt, view)
	client.Start(ctx)
	defer client.Stop()

	var wg sync.WaitGroup
	if channel != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := channel.Run(ctx, client.Router); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("module", "main").Msg("realtime stopped")
			}
		}()
	}
	if be.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			be.feed(ctx, client.Router)
		}()
	}
	if cfg.Development {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := router.Serve(ctx, cfg.DebugAddr, router.SetupRouter(cfg, client.Session)); err != nil {
				log.Error().Err(err).Str("module", "main").Msg("debug server")
			}
		}()
	}

	err = newShell(client, view, out).Run(ctx, in)

	cancel()
	if channel != nil {
		channel.Close()
	}
	wg.Wait()
	return err
}

func buildChannel(cfg *config.Config) *realtime.Channel {
	if strings.TrimSpace(cfg.BackendURL) == "" {
		log.Warn().Str("module", "main").Msg("realtime not available: backend_url is empty")
		return nil
	}
	ch, err := realtime.New(realtime.Options{
		Endpoint:          cfg.BackendURL,
		Transports:        cfg.Transports,
		Timeout:           cfg.Timeout,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		PingPeriod:        cfg.PingPeriod,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "main").Msg("realtime not available")
		return nil
	}
	return ch
}

// buildBackend never fails: a misconfigured hosted backend degrades to the
// in-process one so the client still starts.
func buildBackend(ctx context.Context, cfg *config.Config) backend {
	be := backend{close: func() {}}

	if cfg.Backend != config.BackendLocal {
		sb, err := supabase.New(supabase.Options{URL: cfg.SupabaseURL, AnonKey: cfg.SupabaseAnonKey, Timeout: cfg.Timeout})
		if err == nil {
			be.identity, be.store = sb, sb
		} else {
			log.Warn().Err(err).Str("module", "main").Msg("falling back to the local backend")
		}
	}
	if be.identity == nil {
		id := local.NewIdentity()
		mem := local.NewStore(id)
		be.identity, be.store = id, mem
		be.feed = func(ctx context.Context, h core.EventHandler) {
			mem.OnChange(func(roomID domain.RoomID) {
				h.Dispatch(ctx, core.RecordsChanged{RoomID: roomID})
			})
		}
	}

	if cfg.DatabaseURL == "" {
		return be
	}
	pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Str("module", "main").Msg("database unavailable, keeping the default record store")
		return be
	}
	be.store = pg
	be.close = func() { _ = pg.Close() }
	listener := pgstore.NewListener(cfg.DatabaseURL)
	be.feed = func(ctx context.Context, h core.EventHandler) {
		_ = listener.Run(ctx, h)
	}
	return be
}
