package share

import (
	"errors"

	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/skip2/go-qrcode"
)

var ErrNoRoom = errors.New("not in a room")

// Payload is what a room QR code carries: the command that joins the room.
func Payload(code domain.RoomCode) string {
	return "syncsound join " + string(code)
}

func PNG(code domain.RoomCode, size int) ([]byte, error) {
	if code == "" {
		return nil, ErrNoRoom
	}
	return qrcode.Encode(Payload(code), qrcode.Medium, size)
}

// Terminal renders the code with half-block characters.
func Terminal(code domain.RoomCode) (string, error) {
	if code == "" {
		return "", ErrNoRoom
	}
	q, err := qrcode.New(Payload(code), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
