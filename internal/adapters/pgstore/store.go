package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ChangeChannel is the NOTIFY channel fed by the participants trigger.
const ChangeChannel = "room_participants_changed"

// Store is a core.RecordStore on a Postgres database reached directly.
type Store struct {
	db *gorm.DB
}

var _ core.RecordStore = (*Store)(nil)

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	log.Debug().Str("module", "pgstore.gorm").Msgf(format, args...)
}

func newLogger() logger.Interface {
	return logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open connects and migrates.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger(),
		TranslateError: true,
		// Profiles arrive lazily; participants must not depend on them.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	log.Info().Str("module", "pgstore").Msg("database connection established")

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables and the change-notification trigger.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&Room{}, &Profile{}, &Participant{}); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	for _, stmt := range triggerSQL {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("pgstore: install trigger: %w", err)
		}
	}
	log.Info().Str("module", "pgstore").Msg("database migrated")
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto core sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("pgstore: %s: %w", op, core.ErrDuplicate)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("pgstore: %s: %w", op, core.ErrNotFound)
	default:
		return fmt.Errorf("pgstore: %s: %w", op, err)
	}
}

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error) {
	row := Room{
		ID:     uuid.NewString(),
		Name:   room.Name,
		Code:   string(room.Code),
		HostID: string(room.HostID),
		Status: string(room.Status),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translate("create room", err)
	}
	return row.toDomain(), nil
}

// FindRoomByCode treats anything other than exactly one match as not found.
func (s *Store) FindRoomByCode(ctx context.Context, code domain.RoomCode, status domain.RoomStatus) (*domain.Room, error) {
	var rows []Room
	err := s.db.WithContext(ctx).
		Where("code = ? AND status = ?", string(code), string(status)).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, translate("find room", err)
	}
	if len(rows) != 1 {
		return nil, core.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// AddParticipant also refreshes the user's public profile when it is known.
func (s *Store) AddParticipant(ctx context.Context, p domain.Participant) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.User != nil {
			prof := Profile{ID: string(p.UserID), Email: p.User.Email, Username: p.User.Username}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"email", "username", "updated_at"}),
			}).Create(&prof).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(&Participant{
			RoomID: string(p.RoomID),
			UserID: string(p.UserID),
			IsHost: p.IsHost,
		}).Error
	})
	return translate("add participant", err)
}

func (s *Store) RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", string(roomID), string(userID)).
		Delete(&Participant{}).Error
	return translate("remove participant", err)
}

func (s *Store) ListParticipants(ctx context.Context, roomID domain.RoomID) ([]domain.Participant, error) {
	var rows []Participant
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("room_id = ?", string(roomID)).
		Order("joined_at").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list participants", err)
	}
	out := make([]domain.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
