package repo

import (
	"errors"
	"time"

	"focusflow/internal/modules/reminder"
)

type ReminderDb interface {
	CreateReminder(r *reminder.Reminder) (*reminder.Reminder, error)
	GetReminderByID(reminderID uint) (*reminder.Reminder, error)
	GetReminders(params reminder.GetRemindersParams) ([]*reminder.Reminder, error)
	UpdateReminder(r *reminder.Reminder) (*reminder.Reminder, error)
	GetDueReminders(now time.Time) ([]*reminder.Reminder, error)
	GetEscalationDue(now time.Time) ([]*reminder.Reminder, error)
	CountSentSince(userID uint, since time.Time) (int64, error)
	HasActiveReminderForTask(taskID uint, reminderType reminder.ReminderType, priority reminder.Priority) (bool, error)
	HasReminderForSessionSince(sessionID string, reminderType reminder.ReminderType, since time.Time) (bool, error)
	MarkSent(reminderID uint, sentAt time.Time, nextEscalationAt *time.Time) error
	DelayReminder(reminderID uint, until time.Time) error
	CreateLogAndUpdateReminder(logRow *reminder.Log, r *reminder.Reminder) error
	GetLogsSince(userID uint, since time.Time) ([]*reminder.Log, error)
	GetPreferences(userID uint) (*reminder.Preferences, error)
	CreatePreferences(p *reminder.Preferences) (*reminder.Preferences, error)
	UpdatePreferences(p *reminder.Preferences) (*reminder.Preferences, error)
	GetUserIDsWithEnergyAdjustment() ([]uint, error)
	GetUserIDsWithAdaptiveLearning() ([]uint, error)
}

type PreferenceCache interface {
	GetPreferences(userID uint) (*reminder.Preferences, error)
	SavePreferences(p *reminder.Preferences) error
	InvalidatePreferences(userID uint) error
}

type repo struct {
	db ReminderDb
	ch PreferenceCache
}

func NewRepo(db ReminderDb, ch PreferenceCache) reminder.Repo {
	return &repo{
		db: db,
		ch: ch,
	}
}

func (r *repo) CreateReminder(reminderModel *reminder.Reminder) (*reminder.Reminder, error) {
	return r.db.CreateReminder(reminderModel)
}

func (r *repo) GetReminderByID(reminderID uint) (*reminder.Reminder, error) {
	return r.db.GetReminderByID(reminderID)
}

func (r *repo) GetReminders(params reminder.GetRemindersParams) ([]*reminder.Reminder, error) {
	return r.db.GetReminders(params)
}

func (r *repo) UpdateReminder(reminderModel *reminder.Reminder) (*reminder.Reminder, error) {
	return r.db.UpdateReminder(reminderModel)
}

func (r *repo) GetDueReminders(now time.Time) ([]*reminder.Reminder, error) {
	return r.db.GetDueReminders(now)
}

func (r *repo) GetEscalationDue(now time.Time) ([]*reminder.Reminder, error) {
	return r.db.GetEscalationDue(now)
}

func (r *repo) CountSentSince(userID uint, since time.Time) (int64, error) {
	return r.db.CountSentSince(userID, since)
}

func (r *repo) HasActiveReminderForTask(taskID uint, reminderType reminder.ReminderType, priority reminder.Priority) (bool, error) {
	return r.db.HasActiveReminderForTask(taskID, reminderType, priority)
}

func (r *repo) HasReminderForSessionSince(sessionID string, reminderType reminder.ReminderType, since time.Time) (bool, error) {
	return r.db.HasReminderForSessionSince(sessionID, reminderType, since)
}

func (r *repo) MarkSent(reminderID uint, sentAt time.Time, nextEscalationAt *time.Time) error {
	return r.db.MarkSent(reminderID, sentAt, nextEscalationAt)
}

func (r *repo) DelayReminder(reminderID uint, until time.Time) error {
	return r.db.DelayReminder(reminderID, until)
}

func (r *repo) CreateLogAndUpdateReminder(logRow *reminder.Log, reminderModel *reminder.Reminder) error {
	return r.db.CreateLogAndUpdateReminder(logRow, reminderModel)
}

func (r *repo) GetLogsSince(userID uint, since time.Time) ([]*reminder.Log, error) {
	return r.db.GetLogsSince(userID, since)
}

// GetPreferences is read-through: cache first, then DB, refilling the cache
// on a miss. Cache failures degrade to the DB silently.
func (r *repo) GetPreferences(userID uint) (*reminder.Preferences, error) {
	if r.ch != nil {
		if prefs, err := r.ch.GetPreferences(userID); err == nil {
			return prefs, nil
		}
	}

	prefs, err := r.db.GetPreferences(userID)
	if err != nil {
		return nil, err
	}

	if r.ch != nil {
		_ = r.ch.SavePreferences(prefs)
	}
	return prefs, nil
}

func (r *repo) CreatePreferences(prefs *reminder.Preferences) (*reminder.Preferences, error) {
	created, err := r.db.CreatePreferences(prefs)
	if err != nil {
		return nil, err
	}
	if r.ch != nil {
		_ = r.ch.SavePreferences(created)
	}
	return created, nil
}

func (r *repo) UpdatePreferences(prefs *reminder.Preferences) (*reminder.Preferences, error) {
	updated, err := r.db.UpdatePreferences(prefs)
	if err != nil {
		if r.ch != nil && !errors.Is(err, reminder.ErrPreferencesNotFound) {
			_ = r.ch.InvalidatePreferences(prefs.UserID)
		}
		return nil, err
	}
	if r.ch != nil {
		_ = r.ch.SavePreferences(updated)
	}
	return updated, nil
}

func (r *repo) GetUserIDsWithEnergyAdjustment() ([]uint, error) {
	return r.db.GetUserIDsWithEnergyAdjustment()
}

func (r *repo) GetUserIDsWithAdaptiveLearning() ([]uint, error) {
	return r.db.GetUserIDsWithAdaptiveLearning()
}
