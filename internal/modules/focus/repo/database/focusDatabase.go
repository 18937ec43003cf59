package database

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"focusflow/internal/modules/focus"
)

type FocusDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewFocusDatabase(db *gorm.DB, log *slog.Logger) *FocusDatabase {
	return &FocusDatabase{
		db:  db,
		log: log,
	}
}

func (r *FocusDatabase) CreateSession(session *focus.Session) (*focus.Session, error) {
	op := "FocusDatabase.CreateSession"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(session.UserID)))

	if err := r.db.Create(session).Error; err != nil {
		log.Error("failed to create focus session in DB", "error", err)
		return nil, focus.ErrSessionInternal
	}

	log.Info("focus session created", slog.String("sessionID", session.SessionID))
	return session, nil
}

func (r *FocusDatabase) GetSessionByID(sessionID string) (*focus.Session, error) {
	op := "FocusDatabase.GetSessionByID"
	log := r.log.With(slog.String("op", op), slog.String("sessionID", sessionID))

	var session focus.Session
	if err := r.db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("focus session not found by ID")
			return nil, focus.ErrSessionNotFound
		}
		log.Error("failed to get focus session from DB", "error", err)
		return nil, focus.ErrSessionInternal
	}

	return &session, nil
}

func (r *FocusDatabase) GetActiveSession(userID uint) (*focus.Session, error) {
	op := "FocusDatabase.GetActiveSession"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var session focus.Session
	err := r.db.
		Where("user_id = ? AND ended_at IS NULL", userID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, focus.ErrNoActiveSession
		}
		log.Error("failed to get active focus session from DB", "error", err)
		return nil, focus.ErrSessionInternal
	}

	return &session, nil
}

func (r *FocusDatabase) EndSession(sessionID string, endedAt time.Time) (*focus.Session, error) {
	op := "FocusDatabase.EndSession"
	log := r.log.With(slog.String("op", op), slog.String("sessionID", sessionID))

	session, err := r.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}

	result := r.db.Model(&focus.Session{}).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		Update("ended_at", endedAt)
	if result.Error != nil {
		log.Error("failed to end focus session in DB", "error", result.Error)
		return nil, focus.ErrSessionInternal
	}
	if result.RowsAffected == 0 {
		return nil, focus.ErrNoActiveSession
	}

	session.EndedAt = &endedAt
	return session, nil
}

func (r *FocusDatabase) GetHyperfocusSessions(startedBefore time.Time) ([]*focus.Session, error) {
	op := "FocusDatabase.GetHyperfocusSessions"
	log := r.log.With(slog.String("op", op))

	var sessions []*focus.Session
	err := r.db.
		Where("ended_at IS NULL AND started_at <= ?", startedBefore).
		Order("started_at ASC").
		Find(&sessions).Error
	if err != nil {
		log.Error("failed to get hyperfocus sessions from DB", "error", err)
		return nil, focus.ErrSessionInternal
	}

	return sessions, nil
}
