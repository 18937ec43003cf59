package user

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInternal = errors.New("internal error")
)

type User struct {
	UserId        uint      `gorm:"primaryKey;column:user_id"`
	Login         string    `gorm:"unique;size:100;not null;column:login"`
	Email         string    `gorm:"unique;size:100;not null;column:email"`
	VerifiedEmail bool      `gorm:"default:false;column:verified_email"`
	Timezone      string    `gorm:"size:64;default:'UTC';column:timezone"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (User) TableName() string {
	return "users"
}

type UserDeviceToken struct {
	TokenID     uint      `gorm:"primaryKey;column:token_id"`
	UserID      uint      `gorm:"column:user_id;not null"`
	DeviceToken string    `gorm:"column:device_token;not null"`
	DeviceType  string    `gorm:"size:20;default:'android';column:device_type"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (UserDeviceToken) TableName() string {
	return "user_device_tokens"
}

// Repo is the read surface the notification layer needs for a user.
type Repo interface {
	GetUserByID(userID uint) (*User, error)
	GetUserDeviceTokens(userID uint) ([]UserDeviceToken, error)
	GetUserEmail(userID uint) (email string, isVerified bool, err error)
}
