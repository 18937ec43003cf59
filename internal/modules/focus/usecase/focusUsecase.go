package usecase

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"focusflow/internal/modules/focus"
)

type FocusUseCase struct {
	repo focus.Repo
	log  *slog.Logger
	now  func() time.Time
}

func NewFocusUseCase(repo focus.Repo, log *slog.Logger) focus.UseCase {
	return &FocusUseCase{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

func (uc *FocusUseCase) StartSession(userID uint, req focus.StartSessionRequest) (*focus.SessionResponse, error) {
	op := "FocusUseCase.StartSession"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	_, err := uc.repo.GetActiveSession(userID)
	if err == nil {
		log.Warn("user already has an active focus session")
		return nil, focus.ErrSessionAlreadyActive
	}
	if !errors.Is(err, focus.ErrNoActiveSession) {
		return nil, err
	}

	session := &focus.Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		TaskID:    req.TaskID,
		StartedAt: uc.now(),
	}

	created, err := uc.repo.CreateSession(session)
	if err != nil {
		return nil, err
	}

	log.Info("focus session started", slog.String("sessionID", created.SessionID))
	return focus.ToSessionResponse(created), nil
}

func (uc *FocusUseCase) StopSession(userID uint) (*focus.SessionResponse, error) {
	op := "FocusUseCase.StopSession"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	session, err := uc.repo.GetActiveSession(userID)
	if err != nil {
		return nil, err
	}

	ended, err := uc.repo.EndSession(session.SessionID, uc.now())
	if err != nil {
		return nil, err
	}

	log.Info("focus session stopped", slog.String("sessionID", ended.SessionID))
	return focus.ToSessionResponse(ended), nil
}

func (uc *FocusUseCase) GetCurrentSession(userID uint) (*focus.SessionResponse, error) {
	session, err := uc.repo.GetActiveSession(userID)
	if err != nil {
		return nil, err
	}
	return focus.ToSessionResponse(session), nil
}
