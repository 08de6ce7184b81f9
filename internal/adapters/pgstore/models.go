package pgstore

import (
	"time"

	"github.com/dkeye/SyncSound/internal/domain"
)

type Room struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Code      string    `gorm:"size:6;not null;uniqueIndex"`
	HostID    string    `gorm:"not null;index"`
	Status    string    `gorm:"size:16;not null;default:waiting;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Room) TableName() string { return "audio_rooms" }

func (r Room) toDomain() *domain.Room {
	return &domain.Room{
		ID:     domain.RoomID(r.ID),
		Code:   domain.RoomCode(r.Code),
		Name:   r.Name,
		HostID: domain.UserID(r.HostID),
		Status: domain.RoomStatus(r.Status),
	}
}

// Participant uses a composite primary key so a user appears once per room.
type Participant struct {
	RoomID   string    `gorm:"primaryKey"`
	UserID   string    `gorm:"primaryKey"`
	IsHost   bool      `gorm:"not null;default:false"`
	JoinedAt time.Time `gorm:"autoCreateTime;index"`

	Profile *Profile `gorm:"foreignKey:UserID;references:ID"`
}

func (Participant) TableName() string { return "room_participants" }

func (p Participant) toDomain() domain.Participant {
	out := domain.Participant{
		RoomID: domain.RoomID(p.RoomID),
		UserID: domain.UserID(p.UserID),
		IsHost: p.IsHost,
	}
	if p.Profile != nil {
		out.User = &domain.User{
			ID:       domain.UserID(p.Profile.ID),
			Email:    p.Profile.Email,
			Username: p.Profile.Username,
		}
	}
	return out
}

// Profile is the public copy of an identity-provider user.
type Profile struct {
	ID        string `gorm:"primaryKey"`
	Email     string
	Username  string    `gorm:"size:36"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }
