package domain

import (
	"math/rand/v2"
	"strings"
)

type (
	RoomID     string
	RoomCode   string
	RoomStatus string
)

const StatusWaiting RoomStatus = "waiting"

const (
	RoomCodeLen      = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Room struct {
	ID     RoomID     `json:"id"`
	Code   RoomCode   `json:"code"`
	Name   string     `json:"name"`
	HostID UserID     `json:"host_id"`
	Status RoomStatus `json:"status"`
}

func (r *Room) IsHost(uid UserID) bool {
	return r != nil && r.HostID == uid
}

// NewRoomCode is not collision-checked; uniqueness belongs to the store.
func NewRoomCode() RoomCode {
	var b [RoomCodeLen]byte
	for i := range b {
		b[i] = roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))]
	}
	return RoomCode(b[:])
}

// NormalizeCode mirrors the join input filter: trim, uppercase, cut to RoomCodeLen.
func NormalizeCode(raw string) RoomCode {
	code := []rune(strings.ToUpper(strings.TrimSpace(raw)))
	if len(code) > RoomCodeLen {
		code = code[:RoomCodeLen]
	}
	return RoomCode(code)
}

func DefaultRoomName(code RoomCode) string {
	return "Room-" + string(code)
}
