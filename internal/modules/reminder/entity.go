package reminder

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// ReminderType classifies what a reminder is nudging the user about.
type ReminderType string

const (
	TypeTaskStart          ReminderType = "task_start"
	TypeBreakReminder      ReminderType = "break_reminder"
	TypeDeadlineWarning    ReminderType = "deadline_warning"
	TypeEnergyCheck        ReminderType = "energy_check"
	TypeHyperfocusBreak    ReminderType = "hyperfocus_break"
	TypeMedicationReminder ReminderType = "medication_reminder"
	TypeTransitionWarning  ReminderType = "transition_warning"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for dispatch: urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusScheduled    Status = "scheduled"
	StatusSent         Status = "sent"
	StatusAcknowledged Status = "acknowledged"
	StatusSnoozed      Status = "snoozed"
	StatusDismissed    Status = "dismissed"
	StatusExpired      Status = "expired"
	StatusCancelled    Status = "cancelled"
)

// IsTerminal reports whether a reminder in this status may never be
// re-scheduled or escalated again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAcknowledged, StatusDismissed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// ResponseType is what the user did with a sent reminder.
type ResponseType string

const (
	ResponseAcknowledged  ResponseType = "acknowledged"
	ResponseCompletedTask ResponseType = "completed_task"
	ResponseSnoozed5Min   ResponseType = "snoozed_5min"
	ResponseSnoozed15Min  ResponseType = "snoozed_15min"
	ResponseSnoozed30Min  ResponseType = "snoozed_30min"
	ResponseDismissed     ResponseType = "dismissed"
	ResponseNotNow        ResponseType = "not_now"
	ResponseTooFrequent   ResponseType = "too_frequent"
)

// SnoozeDuration parses the snooze amount out of a snoozed_* response name.
// Returns false for non-snooze responses.
func (rt ResponseType) SnoozeDuration() (time.Duration, bool) {
	name := string(rt)
	if !strings.HasPrefix(name, "snoozed_") || !strings.HasSuffix(name, "min") {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "snoozed_"), "min"))
	if err != nil || minutes <= 0 {
		return 0, false
	}
	return time.Duration(minutes) * time.Minute, true
}

// StatusAfter maps a response to the resulting reminder status.
func (rt ResponseType) StatusAfter() Status {
	switch rt {
	case ResponseAcknowledged, ResponseCompletedTask:
		return StatusAcknowledged
	case ResponseSnoozed5Min, ResponseSnoozed15Min, ResponseSnoozed30Min:
		return StatusSnoozed
	case ResponseDismissed, ResponseNotNow, ResponseTooFrequent:
		// too_frequent is an implicit cooldown signal; the reminder is
		// dismissed and never escalated further.
		return StatusDismissed
	default:
		return StatusDismissed
	}
}

// Reminder is the GORM model for the 'reminders' table.
type Reminder struct {
	ReminderID               uint         `gorm:"primaryKey;column:reminder_id;autoIncrement"`
	UserID                   uint         `gorm:"column:user_id;not null"`
	TaskID                   *uint        `gorm:"column:task_id"`
	FocusSessionID           *string      `gorm:"type:uuid;column:focus_session_id"`
	Title                    string       `gorm:"type:varchar(255);not null;column:title"`
	Description              *string      `gorm:"type:text;column:description"`
	Type                     ReminderType `gorm:"type:varchar(50);not null;column:reminder_type"`
	Priority                 Priority     `gorm:"type:varchar(20);default:'medium';not null;column:priority"`
	Status                   Status       `gorm:"type:varchar(20);default:'scheduled';not null;column:status"`
	ScheduledTime            time.Time    `gorm:"column:scheduled_time;not null"`
	ActualSentTime           *time.Time   `gorm:"column:actual_sent_time"`
	EscalationLevel          int          `gorm:"default:0;not null;column:escalation_level"`
	MaxEscalations           int          `gorm:"default:3;not null;column:max_escalations"`
	NextEscalationAt         *time.Time   `gorm:"column:next_escalation_at"`
	PredictedEnergyLevel     *float64     `gorm:"column:predicted_energy_level"`
	EstimatedDurationMinutes *int         `gorm:"column:estimated_duration_minutes"`
	CreatedAt                time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt                time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Reminder) TableName() string {
	return "reminders"
}

// --- Preference sub-records (stored as JSONB, structured for shape checking) ---

type QuietHours struct {
	Start string `json:"start" validate:"omitempty,len=5"`
	End   string `json:"end" validate:"omitempty,len=5"`
}

type PreferredTimeWindow struct {
	Start            string         `json:"start"`
	End              string         `json:"end"`
	Days             []int          `json:"days"`
	EnergyPreference string         `json:"energy_preference"`
	ReminderTypes    []ReminderType `json:"reminder_types"`
}

type ReminderTypesEnabled struct {
	TaskStart          bool `json:"task_start"`
	BreakReminder      bool `json:"break_reminder"`
	DeadlineWarning    bool `json:"deadline_warning"`
	EnergyCheck        bool `json:"energy_check"`
	HyperfocusBreak    bool `json:"hyperfocus_break"`
	MedicationReminder bool `json:"medication_reminder"`
	TransitionWarning  bool `json:"transition_warning"`
}

func (t ReminderTypesEnabled) IsEnabled(rt ReminderType) bool {
	switch rt {
	case TypeTaskStart:
		return t.TaskStart
	case TypeBreakReminder:
		return t.BreakReminder
	case TypeDeadlineWarning:
		return t.DeadlineWarning
	case TypeEnergyCheck:
		return t.EnergyCheck
	case TypeHyperfocusBreak:
		return t.HyperfocusBreak
	case TypeMedicationReminder:
		return t.MedicationReminder
	case TypeTransitionWarning:
		return t.TransitionWarning
	}
	return false
}

type EscalationPreferences struct {
	InitialDelayMinutes int  `json:"initial_delay_minutes"`
	IntervalMinutes     int  `json:"interval_minutes"`
	MaxEscalations      int  `json:"max_escalations"`
	WeekendAdjustment   bool `json:"weekend_adjustment"`
}

type AdaptiveLearning struct {
	Enabled                 bool    `json:"enabled"`
	EffectivenessWeight     float64 `json:"effectiveness_weight"`
	EnergyCorrelationWeight float64 `json:"energy_correlation_weight"`
	TimePreferenceWeight    float64 `json:"time_preference_weight"`
}

type Frequency string

const (
	FrequencyMinimal  Frequency = "minimal"
	FrequencyLow      Frequency = "low"
	FrequencyModerate Frequency = "moderate"
	FrequencyHigh     Frequency = "high"
	FrequencyAdaptive Frequency = "adaptive"
)

// Preferences is the GORM model for 'reminder_preferences', one row per user.
type Preferences struct {
	UserID                uint                  `gorm:"primaryKey;column:user_id"`
	Frequency             Frequency             `gorm:"type:varchar(20);default:'moderate';not null;column:reminder_frequency"`
	PreferredTimes        []PreferredTimeWindow `gorm:"type:jsonb;serializer:json;column:preferred_times"`
	EnergyBasedAdjustment bool                  `gorm:"default:true;column:energy_based_adjustment"`
	GentleEscalation      bool                  `gorm:"default:true;column:gentle_escalation"`
	MaxDailyReminders     int                   `gorm:"default:10;not null;column:max_daily_reminders"`
	QuietHours            QuietHours            `gorm:"type:jsonb;serializer:json;column:quiet_hours"`
	TypesEnabled          ReminderTypesEnabled  `gorm:"type:jsonb;serializer:json;column:reminder_types_enabled"`
	Escalation            EscalationPreferences `gorm:"type:jsonb;serializer:json;column:escalation_preferences"`
	AdaptiveLearning      AdaptiveLearning      `gorm:"type:jsonb;serializer:json;column:adaptive_learning"`
	CreatedAt             time.Time             `gorm:"column:created_at"`
	UpdatedAt             time.Time             `gorm:"column:updated_at"`
}

func (Preferences) TableName() string {
	return "reminder_preferences"
}

// DefaultPreferences returns a fully populated preference row for a user who
// has never configured anything. No partial preference object may ever reach
// the optimizer.
func DefaultPreferences(userID uint) *Preferences {
	return &Preferences{
		UserID:    userID,
		Frequency: FrequencyModerate,
		PreferredTimes: []PreferredTimeWindow{
			{
				Start:            "09:00",
				End:              "12:00",
				Days:             []int{1, 2, 3, 4, 5},
				EnergyPreference: "high",
				ReminderTypes:    []ReminderType{TypeTaskStart, TypeDeadlineWarning},
			},
			{
				Start:            "14:00",
				End:              "17:00",
				Days:             []int{1, 2, 3, 4, 5},
				EnergyPreference: "medium",
				ReminderTypes:    []ReminderType{TypeEnergyCheck, TypeTransitionWarning},
			},
		},
		EnergyBasedAdjustment: true,
		GentleEscalation:      true,
		MaxDailyReminders:     10,
		QuietHours:            QuietHours{Start: "22:00", End: "08:00"},
		TypesEnabled: ReminderTypesEnabled{
			TaskStart:          true,
			BreakReminder:      true,
			DeadlineWarning:    true,
			EnergyCheck:        true,
			HyperfocusBreak:    true,
			MedicationReminder: true,
			TransitionWarning:  true,
		},
		Escalation: EscalationPreferences{
			InitialDelayMinutes: 10,
			IntervalMinutes:     15,
			MaxEscalations:      3,
			WeekendAdjustment:   true,
		},
		AdaptiveLearning: AdaptiveLearning{
			Enabled:                 true,
			EffectivenessWeight:     0.4,
			EnergyCorrelationWeight: 0.3,
			TimePreferenceWeight:    0.3,
		},
	}
}

// ResponseContext is the snapshot stored with every response log row.
type ResponseContext struct {
	TimeOfDay          string  `json:"time_of_day"`
	DayOfWeek          int     `json:"day_of_week"`
	FocusSessionActive bool    `json:"focus_session_active"`
	TaskComplexity     *string `json:"task_complexity,omitempty"`
	RecentBreak        bool    `json:"recent_break"`
}

// Log is the GORM model for 'reminder_logs'. Rows are append-only and never
// mutated after insert.
type Log struct {
	LogID           uint            `gorm:"primaryKey;column:log_id;autoIncrement"`
	ReminderID      uint            `gorm:"column:reminder_id;not null"`
	UserID          uint            `gorm:"column:user_id;not null"`
	SentTime        time.Time       `gorm:"column:sent_time;not null"`
	Response        ResponseType    `gorm:"type:varchar(30);not null;column:response"`
	ResponseSeconds int             `gorm:"default:0;not null;column:response_seconds"`
	Effectiveness   *int            `gorm:"column:effectiveness"`
	EnergyBefore    *int            `gorm:"column:energy_before"`
	EnergyAfter     *int            `gorm:"column:energy_after"`
	Context         ResponseContext `gorm:"type:jsonb;serializer:json;column:context"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
}

func (Log) TableName() string {
	return "reminder_logs"
}

// --- DTOs ---

type CreateReminderRequest struct {
	TaskID                   *uint        `json:"task_id,omitempty"`
	FocusSessionID           *string      `json:"focus_session_id,omitempty" validate:"omitempty,uuid"`
	Title                    string       `json:"title" validate:"required,min=1,max=255"`
	Description              *string      `json:"description,omitempty"`
	Type                     ReminderType `json:"reminder_type" validate:"required,oneof=task_start break_reminder deadline_warning energy_check hyperfocus_break medication_reminder transition_warning"`
	Priority                 Priority     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ScheduledTime            time.Time    `json:"scheduled_time" validate:"required"`
	MaxEscalations           *int         `json:"max_escalations,omitempty" validate:"omitempty,gte=0,lte=10"`
	EstimatedDurationMinutes *int         `json:"estimated_duration_minutes,omitempty" validate:"omitempty,gte=1"`
}

type RecordResponseRequest struct {
	Response        ResponseType `json:"response" validate:"required,oneof=acknowledged completed_task snoozed_5min snoozed_15min snoozed_30min dismissed not_now too_frequent"`
	ResponseSeconds int          `json:"response_time_seconds" validate:"gte=0"`
	Effectiveness   *int         `json:"effectiveness_rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	EnergyBefore    *int         `json:"energy_before,omitempty" validate:"omitempty,gte=1,lte=10"`
	EnergyAfter     *int         `json:"energy_after,omitempty" validate:"omitempty,gte=1,lte=10"`
}

type SnoozeRequest struct {
	Minutes int `json:"minutes" validate:"required,gte=1,lte=1440"`
}

type GetRemindersRequest struct {
	Status   *Status       `validate:"omitempty,oneof=scheduled sent acknowledged snoozed dismissed expired cancelled"`
	Type     *ReminderType `validate:"omitempty,oneof=task_start break_reminder deadline_warning energy_check hyperfocus_break medication_reminder transition_warning"`
	Priority *Priority     `validate:"omitempty,oneof=low medium high urgent"`
	From     *time.Time
	To       *time.Time
	Page     int `validate:"gte=1"`
	PageSize int `validate:"gte=1,lte=100"`
}

type GetRemindersParams struct {
	UserID   uint
	Status   *Status
	Type     *ReminderType
	Priority *Priority
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type UpdatePreferencesRequest struct {
	Frequency             *Frequency             `json:"reminder_frequency,omitempty" validate:"omitempty,oneof=minimal low moderate high adaptive"`
	PreferredTimes        *[]PreferredTimeWindow `json:"preferred_times,omitempty"`
	EnergyBasedAdjustment *bool                  `json:"energy_based_adjustment,omitempty"`
	GentleEscalation      *bool                  `json:"gentle_escalation,omitempty"`
	MaxDailyReminders     *int                   `json:"max_daily_reminders,omitempty" validate:"omitempty,gte=1,lte=100"`
	QuietHours            *QuietHours            `json:"quiet_hours,omitempty"`
	TypesEnabled          *ReminderTypesEnabled  `json:"reminder_types_enabled,omitempty"`
	Escalation            *EscalationPreferences `json:"escalation_preferences,omitempty"`
	AdaptiveLearning      *AdaptiveLearning      `json:"adaptive_learning,omitempty"`
}

type ReminderResponse struct {
	ReminderID               uint         `json:"reminder_id"`
	UserID                   uint         `json:"user_id"`
	TaskID                   *uint        `json:"task_id,omitempty"`
	FocusSessionID           *string      `json:"focus_session_id,omitempty"`
	Title                    string       `json:"title"`
	Description              *string      `json:"description,omitempty"`
	Type                     ReminderType `json:"reminder_type"`
	Priority                 Priority     `json:"priority"`
	Status                   Status       `json:"status"`
	ScheduledTime            time.Time    `json:"scheduled_time"`
	ActualSentTime           *time.Time   `json:"actual_sent_time,omitempty"`
	EscalationLevel          int          `json:"escalation_level"`
	MaxEscalations           int          `json:"max_escalations"`
	PredictedEnergyLevel     *float64     `json:"predicted_energy_level,omitempty"`
	EstimatedDurationMinutes *int         `json:"estimated_duration_minutes,omitempty"`
	CreatedAt                time.Time    `json:"created_at"`
}

func ToReminderResponse(r *Reminder) *ReminderResponse {
	if r == nil {
		return nil
	}
	return &ReminderResponse{
		ReminderID:               r.ReminderID,
		UserID:                   r.UserID,
		TaskID:                   r.TaskID,
		FocusSessionID:           r.FocusSessionID,
		Title:                    r.Title,
		Description:              r.Description,
		Type:                     r.Type,
		Priority:                 r.Priority,
		Status:                   r.Status,
		ScheduledTime:            r.ScheduledTime,
		ActualSentTime:           r.ActualSentTime,
		EscalationLevel:          r.EscalationLevel,
		MaxEscalations:           r.MaxEscalations,
		PredictedEnergyLevel:     r.PredictedEnergyLevel,
		EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		CreatedAt:                r.CreatedAt,
	}
}

func ToReminderResponseList(reminders []*Reminder) []*ReminderResponse {
	if len(reminders) == 0 {
		return []*ReminderResponse{}
	}
	responses := make([]*ReminderResponse, len(reminders))
	for i, r := range reminders {
		responses[i] = ToReminderResponse(r)
	}
	return responses
}

type PreferencesResponse struct {
	UserID                uint                  `json:"user_id"`
	Frequency             Frequency             `json:"reminder_frequency"`
	PreferredTimes        []PreferredTimeWindow `json:"preferred_times"`
	EnergyBasedAdjustment bool                  `json:"energy_based_adjustment"`
	GentleEscalation      bool                  `json:"gentle_escalation"`
	MaxDailyReminders     int                   `json:"max_daily_reminders"`
	QuietHours            QuietHours            `json:"quiet_hours"`
	TypesEnabled          ReminderTypesEnabled  `json:"reminder_types_enabled"`
	Escalation            EscalationPreferences `json:"escalation_preferences"`
	AdaptiveLearning      AdaptiveLearning      `json:"adaptive_learning"`
}

func ToPreferencesResponse(p *Preferences) *PreferencesResponse {
	if p == nil {
		return nil
	}
	return &PreferencesResponse{
		UserID:                p.UserID,
		Frequency:             p.Frequency,
		PreferredTimes:        p.PreferredTimes,
		EnergyBasedAdjustment: p.EnergyBasedAdjustment,
		GentleEscalation:      p.GentleEscalation,
		MaxDailyReminders:     p.MaxDailyReminders,
		QuietHours:            p.QuietHours,
		TypesEnabled:          p.TypesEnabled,
		Escalation:            p.Escalation,
		AdaptiveLearning:      p.AdaptiveLearning,
	}
}

type AnalyticsResponse struct {
	TotalReminders   int64              `json:"total_reminders"`
	ResponseRate     float64            `json:"response_rate"`
	AvgEffectiveness float64            `json:"avg_effectiveness"`
	AvgResponseTime  float64            `json:"avg_response_time_seconds"`
	TypeEffect       map[string]float64 `json:"type_effectiveness"`
	OptimalHours     []string           `json:"optimal_hours"`
}

// --- Interfaces ---

type UseCase interface {
	CreateReminder(userID uint, req CreateReminderRequest) (*ReminderResponse, error)
	GetReminders(userID uint, req GetRemindersRequest) ([]*ReminderResponse, error)
	RecordResponse(reminderID uint, userID uint, req RecordResponseRequest) error
	Snooze(reminderID uint, userID uint, minutes int) (*ReminderResponse, error)
	Dismiss(reminderID uint, userID uint) error
	GetPreferences(userID uint) (*PreferencesResponse, error)
	UpdatePreferences(userID uint, req UpdatePreferencesRequest) (*PreferencesResponse, error)
	GetOptimalTimes(userID uint, reminderType ReminderType) ([]string, error)
	GetAnalytics(userID uint, days int) (*AnalyticsResponse, error)
	ScheduleAutomaticReminders(userID uint) error

	// Scheduler-facing sweeps.
	ProcessDueReminders(ctx context.Context) error
	ProcessDeadlineChecks(ctx context.Context) error
	ProcessHyperfocusChecks(ctx context.Context) error
	RefreshEnergyInsights(ctx context.Context) error
	RetuneReminderTiming(ctx context.Context) error
}

type Repo interface {
	CreateReminder(r *Reminder) (*Reminder, error)
	GetReminderByID(reminderID uint) (*Reminder, error)
	GetReminders(params GetRemindersParams) ([]*Reminder, error)
	UpdateReminder(r *Reminder) (*Reminder, error)

	GetDueReminders(now time.Time) ([]*Reminder, error)
	GetEscalationDue(now time.Time) ([]*Reminder, error)
	CountSentSince(userID uint, since time.Time) (int64, error)
	HasActiveReminderForTask(taskID uint, reminderType ReminderType, priority Priority) (bool, error)
	HasReminderForSessionSince(sessionID string, reminderType ReminderType, since time.Time) (bool, error)
	MarkSent(reminderID uint, sentAt time.Time, nextEscalationAt *time.Time) error
	DelayReminder(reminderID uint, until time.Time) error

	CreateLogAndUpdateReminder(logRow *Log, r *Reminder) error
	GetLogsSince(userID uint, since time.Time) ([]*Log, error)

	GetPreferences(userID uint) (*Preferences, error)
	CreatePreferences(p *Preferences) (*Preferences, error)
	UpdatePreferences(p *Preferences) (*Preferences, error)
	GetUserIDsWithEnergyAdjustment() ([]uint, error)
	GetUserIDsWithAdaptiveLearning() ([]uint, error)
}
