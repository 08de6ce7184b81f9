package domain

// Participant is a membership record linking a user to a room.
// User is filled by the store's join-fetch and may be nil on insert results.
type Participant struct {
	RoomID RoomID `json:"room_id"`
	UserID UserID `json:"user_id"`
	IsHost bool   `json:"is_host"`
	User   *User  `json:"user,omitempty"`
}

func (p Participant) DisplayName() string {
	if name := p.User.DisplayName(); name != "" {
		return name
	}
	return "Unknown"
}
