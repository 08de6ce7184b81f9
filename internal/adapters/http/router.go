package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/SyncSound/internal/adapters/share"
	"github.com/dkeye/SyncSound/internal/app"
	"github.com/dkeye/SyncSound/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const qrSize = 256

// SessionSource exposes the client state read by the debug endpoints.
type SessionSource interface {
	Snapshot() app.SessionSnapshot
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// SetupRouter builds the local debug surface. It is read-only and
// unauthenticated, so callers only start it in development.
func SetupRouter(cfg *config.Config, sessions SessionSource) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Verbose {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	debug := r.Group("/debug")
	debug.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, sessions.Snapshot())
	})
	debug.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Redacted())
	})

	r.GET("/room/qr.png", func(c *gin.Context) {
		snap := sessions.Snapshot()
		if snap.Room == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": share.ErrNoRoom.Error()})
			return
		}
		img, err := share.PNG(snap.Room.Code, qrSize)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("qr encode")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encode failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", img)
	})

	log.Info().Str("module", "adapters.http").Msg("debug router setup")
	return r
}

// Serve runs the handler on addr until ctx ends.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("module", "adapters.http").Str("addr", addr).Msg("debug server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("debug server forced to shutdown")
		return err
	}
	log.Info().Str("module", "adapters.http").Msg("debug server exited")
	return nil
}
