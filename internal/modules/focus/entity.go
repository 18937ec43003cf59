package focus

import (
	"time"
)

// Session is the GORM model for the 'focus_sessions' table. An active session
// has no EndedAt; the scheduler treats active sessions older than the
// hyperfocus threshold as interrupt candidates.
type Session struct {
	SessionID string     `gorm:"type:uuid;primaryKey;column:session_id"`
	UserID    uint       `gorm:"column:user_id;not null"`
	TaskID    *uint      `gorm:"column:task_id"`
	StartedAt time.Time  `gorm:"column:started_at;not null"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (Session) TableName() string {
	return "focus_sessions"
}

func (s *Session) IsActive() bool {
	return s.EndedAt == nil
}

type SessionResponse struct {
	SessionID string     `json:"session_id"`
	UserID    uint       `json:"user_id"`
	TaskID    *uint      `json:"task_id,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func ToSessionResponse(s *Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		TaskID:    s.TaskID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}
}

type StartSessionRequest struct {
	TaskID *uint `json:"task_id,omitempty"`
}

type UseCase interface {
	StartSession(userID uint, req StartSessionRequest) (*SessionResponse, error)
	StopSession(userID uint) (*SessionResponse, error)
	GetCurrentSession(userID uint) (*SessionResponse, error)
}

type Repo interface {
	CreateSession(session *Session) (*Session, error)
	GetSessionByID(sessionID string) (*Session, error)
	// GetActiveSession returns the user's unended session, or
	// ErrNoActiveSession.
	GetActiveSession(userID uint) (*Session, error)
	EndSession(sessionID string, endedAt time.Time) (*Session, error)
	// GetHyperfocusSessions returns all active sessions started at or before
	// the cutoff, across users.
	GetHyperfocusSessions(startedBefore time.Time) ([]*Session, error)
}
