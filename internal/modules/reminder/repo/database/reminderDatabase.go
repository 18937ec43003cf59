package database

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"focusflow/internal/modules/reminder"
)

type ReminderDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewReminderDatabase(db *gorm.DB, log *slog.Logger) *ReminderDatabase {
	return &ReminderDatabase{
		db:  db,
		log: log,
	}
}

// priorityRank orders reminders urgent-first inside SQL.
const priorityRank = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END"

func (r *ReminderDatabase) CreateReminder(reminderModel *reminder.Reminder) (*reminder.Reminder, error) {
	op := "ReminderDatabase.CreateReminder"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(reminderModel.UserID)))

	if err := r.db.Create(reminderModel).Error; err != nil {
		log.Error("failed to create reminder in DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	log.Info("reminder created successfully in DB", slog.Uint64("reminderID", uint64(reminderModel.ReminderID)))
	return reminderModel, nil
}

func (r *ReminderDatabase) GetReminderByID(reminderID uint) (*reminder.Reminder, error) {
	op := "ReminderDatabase.GetReminderByID"
	log := r.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderID)))

	var reminderModel reminder.Reminder
	if err := r.db.First(&reminderModel, reminderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("reminder not found by ID")
			return nil, reminder.ErrReminderNotFound
		}
		log.Error("failed to get reminder by ID from DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return &reminderModel, nil
}

func (r *ReminderDatabase) GetReminders(params reminder.GetRemindersParams) ([]*reminder.Reminder, error) {
	op := "ReminderDatabase.GetReminders"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(params.UserID)))

	query := r.db.Model(&reminder.Reminder{}).Where("user_id = ?", params.UserID)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Type != nil {
		query = query.Where("reminder_type = ?", *params.Type)
	}
	if params.Priority != nil {
		query = query.Where("priority = ?", *params.Priority)
	}
	if params.From != nil {
		query = query.Where("scheduled_time >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("scheduled_time <= ?", *params.To)
	}

	query = query.Order("scheduled_time DESC")
	if params.Limit > 0 {
		query = query.Limit(params.Limit).Offset(params.Offset)
	}

	var reminders []*reminder.Reminder
	if err := query.Find(&reminders).Error; err != nil {
		log.Error("failed to get reminders from DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return reminders, nil
}

func (r *ReminderDatabase) UpdateReminder(reminderModel *reminder.Reminder) (*reminder.Reminder, error) {
	op := "ReminderDatabase.UpdateReminder"
	log := r.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderModel.ReminderID)))

	if err := r.db.Save(reminderModel).Error; err != nil {
		log.Error("failed to update reminder in DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return reminderModel, nil
}

// dispatchableStatuses are the statuses a due sweep may pick up. Snoozed
// reminders come back through the same path once their snooze elapses.
var dispatchableStatuses = []reminder.Status{reminder.StatusScheduled, reminder.StatusSnoozed}

// GetDueReminders returns dispatchable reminders whose time has come, ordered
// priority desc then scheduled_time asc. Ordering holds within one sweep
// only; nothing is promised across sweeps.
func (r *ReminderDatabase) GetDueReminders(now time.Time) ([]*reminder.Reminder, error) {
	op := "ReminderDatabase.GetDueReminders"
	log := r.log.With(slog.String("op", op))

	var reminders []*reminder.Reminder
	err := r.db.
		Where("status IN ? AND scheduled_time <= ?", dispatchableStatuses, now).
		Order(priorityRank + " DESC, scheduled_time ASC").
		Find(&reminders).Error
	if err != nil {
		log.Error("failed to get due reminders from DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return reminders, nil
}

// GetEscalationDue returns sent reminders whose persisted escalation check
// time has passed. Persisting the check time keeps pending escalations alive
// across process restarts.
func (r *ReminderDatabase) GetEscalationDue(now time.Time) ([]*reminder.Reminder, error) {
	op := "ReminderDatabase.GetEscalationDue"
	log := r.log.With(slog.String("op", op))

	var reminders []*reminder.Reminder
	err := r.db.
		Where("status = ? AND next_escalation_at IS NOT NULL AND next_escalation_at <= ?", reminder.StatusSent, now).
		Order("next_escalation_at ASC").
		Find(&reminders).Error
	if err != nil {
		log.Error("failed to get escalation-due reminders from DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return reminders, nil
}

func (r *ReminderDatabase) CountSentSince(userID uint, since time.Time) (int64, error) {
	op := "ReminderDatabase.CountSentSince"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var count int64
	err := r.db.Model(&reminder.Reminder{}).
		Where("user_id = ? AND actual_sent_time IS NOT NULL AND actual_sent_time >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		log.Error("failed to count sent reminders", "error", err)
		return 0, reminder.ErrReminderInternal
	}

	return count, nil
}

// HasActiveReminderForTask is keyed on (task, type, priority): the two-stage
// deadline warnings share a type and only differ in priority, so a type-only
// check would suppress the second one.
func (r *ReminderDatabase) HasActiveReminderForTask(taskID uint, reminderType reminder.ReminderType, priority reminder.Priority) (bool, error) {
	op := "ReminderDatabase.HasActiveReminderForTask"
	log := r.log.With(slog.String("op", op), slog.Uint64("taskID", uint64(taskID)))

	var count int64
	err := r.db.Model(&reminder.Reminder{}).
		Where("task_id = ? AND reminder_type = ? AND priority = ? AND status IN ?", taskID, reminderType, priority,
			[]reminder.Status{reminder.StatusScheduled, reminder.StatusSent, reminder.StatusSnoozed}).
		Count(&count).Error
	if err != nil {
		log.Error("failed to check active reminder for task", "error", err)
		return false, reminder.ErrReminderInternal
	}

	return count > 0, nil
}

func (r *ReminderDatabase) HasReminderForSessionSince(sessionID string, reminderType reminder.ReminderType, since time.Time) (bool, error) {
	op := "ReminderDatabase.HasReminderForSessionSince"
	log := r.log.With(slog.String("op", op), slog.String("sessionID", sessionID))

	var count int64
	err := r.db.Model(&reminder.Reminder{}).
		Where("focus_session_id = ? AND reminder_type = ? AND created_at >= ?", sessionID, reminderType, since).
		Count(&count).Error
	if err != nil {
		log.Error("failed to check reminder for session", "error", err)
		return false, reminder.ErrReminderInternal
	}

	return count > 0, nil
}

// MarkSent flips the reminder to sent and stamps the send and escalation
// check times in one statement. The status guard keeps a concurrent response
// from being overwritten.
func (r *ReminderDatabase) MarkSent(reminderID uint, sentAt time.Time, nextEscalationAt *time.Time) error {
	op := "ReminderDatabase.MarkSent"
	log := r.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderID)))

	result := r.db.Model(&reminder.Reminder{}).
		Where("reminder_id = ? AND status IN ?", reminderID, dispatchableStatuses).
		Updates(map[string]interface{}{
			"status":             reminder.StatusSent,
			"actual_sent_time":   sentAt,
			"next_escalation_at": nextEscalationAt,
			"updated_at":         sentAt,
		})
	if result.Error != nil {
		log.Error("failed to mark reminder as sent", "error", result.Error)
		return reminder.ErrReminderInternal
	}
	if result.RowsAffected == 0 {
		log.Warn("reminder no longer in scheduled state, send skipped")
		return reminder.ErrReminderNotFound
	}

	return nil
}

func (r *ReminderDatabase) DelayReminder(reminderID uint, until time.Time) error {
	op := "ReminderDatabase.DelayReminder"
	log := r.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderID)))

	result := r.db.Model(&reminder.Reminder{}).
		Where("reminder_id = ? AND status IN ?", reminderID, dispatchableStatuses).
		Update("scheduled_time", until)
	if result.Error != nil {
		log.Error("failed to delay reminder", "error", result.Error)
		return reminder.ErrReminderInternal
	}
	if result.RowsAffected == 0 {
		return reminder.ErrReminderNotFound
	}

	return nil
}

// CreateLogAndUpdateReminder inserts the response log row and applies the
// reminder's state transition in a single transaction. Either both commit or
// neither does.
func (r *ReminderDatabase) CreateLogAndUpdateReminder(logRow *reminder.Log, reminderModel *reminder.Reminder) error {
	op := "ReminderDatabase.CreateLogAndUpdateReminder"
	log := r.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderModel.ReminderID)))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(logRow).Error; err != nil {
			return err
		}
		return tx.Save(reminderModel).Error
	})
	if err != nil {
		log.Error("failed to record response transactionally", "error", err)
		return reminder.ErrReminderInternal
	}

	return nil
}

func (r *ReminderDatabase) GetLogsSince(userID uint, since time.Time) ([]*reminder.Log, error) {
	op := "ReminderDatabase.GetLogsSince"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var logs []*reminder.Log
	err := r.db.
		Where("user_id = ? AND sent_time >= ?", userID, since).
		Order("sent_time ASC").
		Find(&logs).Error
	if err != nil {
		log.Error("failed to get reminder logs from DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return logs, nil
}

func (r *ReminderDatabase) GetPreferences(userID uint) (*reminder.Preferences, error) {
	op := "ReminderDatabase.GetPreferences"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var prefs reminder.Preferences
	if err := r.db.Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reminder.ErrPreferencesNotFound
		}
		log.Error("failed to get preferences from DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return &prefs, nil
}

func (r *ReminderDatabase) CreatePreferences(prefs *reminder.Preferences) (*reminder.Preferences, error) {
	op := "ReminderDatabase.CreatePreferences"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(prefs.UserID)))

	if err := r.db.Create(prefs).Error; err != nil {
		log.Error("failed to create preferences in DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	log.Info("default preferences created")
	return prefs, nil
}

func (r *ReminderDatabase) UpdatePreferences(prefs *reminder.Preferences) (*reminder.Preferences, error) {
	op := "ReminderDatabase.UpdatePreferences"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(prefs.UserID)))

	if err := r.db.Save(prefs).Error; err != nil {
		log.Error("failed to update preferences in DB", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return prefs, nil
}

func (r *ReminderDatabase) GetUserIDsWithEnergyAdjustment() ([]uint, error) {
	op := "ReminderDatabase.GetUserIDsWithEnergyAdjustment"
	log := r.log.With(slog.String("op", op))

	var userIDs []uint
	err := r.db.Model(&reminder.Preferences{}).
		Where("energy_based_adjustment = ?", true).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		log.Error("failed to get users with energy adjustment", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return userIDs, nil
}

func (r *ReminderDatabase) GetUserIDsWithAdaptiveLearning() ([]uint, error) {
	op := "ReminderDatabase.GetUserIDsWithAdaptiveLearning"
	log := r.log.With(slog.String("op", op))

	var userIDs []uint
	err := r.db.Model(&reminder.Preferences{}).
		Where("adaptive_learning ->> 'enabled' = 'true'").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		log.Error("failed to get users with adaptive learning", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	return userIDs, nil
}
