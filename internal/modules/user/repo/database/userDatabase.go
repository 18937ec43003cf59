package database

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"focusflow/internal/modules/user"
)

type UserDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewUserDatabase(db *gorm.DB, log *slog.Logger) *UserDatabase {
	return &UserDatabase{
		db:  db,
		log: log,
	}
}

func (r *UserDatabase) GetUserByID(userID uint) (*user.User, error) {
	op := "UserDatabase.GetUserByID"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var userModel user.User
	if err := r.db.First(&userModel, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("user not found by ID")
			return nil, user.ErrUserNotFound
		}
		log.Error("failed to get user by ID from DB", "error", err)
		return nil, user.ErrUserInternal
	}

	return &userModel, nil
}

func (r *UserDatabase) GetUserDeviceTokens(userID uint) ([]user.UserDeviceToken, error) {
	op := "UserDatabase.GetUserDeviceTokens"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var tokens []user.UserDeviceToken
	if err := r.db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		log.Error("failed to get device tokens from DB", "error", err)
		return nil, user.ErrUserInternal
	}

	return tokens, nil
}

func (r *UserDatabase) GetUserEmail(userID uint) (string, bool, error) {
	userModel, err := r.GetUserByID(userID)
	if err != nil {
		return "", false, err
	}
	return userModel.Email, userModel.VerifiedEmail, nil
}
