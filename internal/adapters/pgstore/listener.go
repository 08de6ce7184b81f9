package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

var triggerSQL = []string{
	`CREATE OR REPLACE FUNCTION notify_room_participants_changed() RETURNS trigger AS $$
DECLARE
	rid text;
BEGIN
	IF TG_OP = 'DELETE' THEN
		rid := OLD.room_id;
	ELSE
		rid := NEW.room_id;
	END IF;
	PERFORM pg_notify('` + ChangeChannel + `', json_build_object('room_id', rid, 'op', TG_OP)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS ` + ChangeChannel + ` ON room_participants`,
	`CREATE TRIGGER ` + ChangeChannel + ` AFTER INSERT OR UPDATE OR DELETE ON room_participants
FOR EACH ROW EXECUTE FUNCTION notify_room_participants_changed()`,
}

type notification struct {
	RoomID string `json:"room_id"`
	Op     string `json:"op"`
}

func parsePayload(payload string) (core.RecordsChanged, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return core.RecordsChanged{}, fmt.Errorf("bad payload: %w", err)
	}
	if n.RoomID == "" {
		return core.RecordsChanged{}, errors.New("payload without room_id")
	}
	return core.RecordsChanged{RoomID: domain.RoomID(n.RoomID)}, nil
}

// Listener turns participant-table notifications into RecordsChanged events.
type Listener struct {
	DSN     string
	Channel string
	// RetryDelay separates reconnection attempts, which are unbounded.
	RetryDelay time.Duration
}

func NewListener(dsn string) *Listener {
	return &Listener{DSN: dsn, Channel: ChangeChannel, RetryDelay: 5 * time.Second}
}

// Run blocks until ctx ends.
func (l *Listener) Run(ctx context.Context, h core.EventHandler) error {
	for {
		err := l.listen(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Str("module", "pgstore.listener").Msg("change feed interrupted")

		t := time.NewTimer(l.RetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Listener) listen(ctx context.Context, h core.EventHandler) error {
	conn, err := pgx.Connect(ctx, l.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Info().Str("module", "pgstore.listener").Str("channel", l.Channel).Msg("listening for changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := parsePayload(n.Payload)
		if err != nil {
			log.Warn().Err(err).Str("module", "pgstore.listener").Msg("dropping notification")
			continue
		}
		h.Dispatch(ctx, ev)
	}
}
