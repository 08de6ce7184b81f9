package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/SyncSound/internal/core"
)

// envelope is the frame shape in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type serverError struct {
	Message string `json:"message"`
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// Decode maps one inbound frame onto a core.Event.
func Decode(frame []byte) (core.Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("bad json: %w", err)
	}

	switch env.Event {
	case core.EventRoomUpdated:
		var e core.RoomUpdated
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case core.EventParticipantJoined:
		var e core.ParticipantJoined
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case core.EventParticipantLeft:
		var e core.ParticipantLeft
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case core.EventError:
		return core.TransportError{Err: errorFrom(env.Data)}, nil
	case "":
		return nil, errors.New("missing event name")
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

func unmarshalData(data json.RawMessage, into any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("bad payload: %w", err)
	}
	return nil
}

// errorFrom accepts {"message": "..."} or a bare string.
func errorFrom(data json.RawMessage) error {
	var se serverError
	if json.Unmarshal(data, &se) == nil && se.Message != "" {
		return fmt.Errorf("server error: %s", se.Message)
	}
	var s string
	if json.Unmarshal(data, &s) == nil && s != "" {
		return fmt.Errorf("server error: %s", s)
	}
	return errors.New("server error")
}
