package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"focusflow/config"
	"focusflow/internal/modules/energy"
	"focusflow/internal/modules/focus"
	"focusflow/internal/modules/notification"
	"focusflow/internal/modules/reminder"
	"focusflow/internal/modules/reminder/optimizer"
	"focusflow/internal/modules/task"
)

const (
	// taskStartLeadTime is how far ahead a task-start nudge for an unstarted
	// task is scheduled during automatic generation.
	taskStartLeadTime = 5 * time.Minute

	// Deadline warnings fire at these offsets before the due date.
	deadlineFirstWarning  = 24 * time.Hour
	deadlineSecondWarning = 2 * time.Hour

	// rateWindow is the rolling window the per-user send cap is counted over.
	rateWindow = time.Hour

	// Optimal-time analysis parameters.
	optimalTimesLimit      = 5
	optimalTimesMinSamples = 3
	analyticsDefaultDays   = 30
)

// fallbackOptimalTimes is returned when a user has no usable energy history.
var fallbackOptimalTimes = []string{"09:00", "14:00", "16:00"}

type ReminderUseCase struct {
	repo       reminder.Repo
	taskRepo   task.Repo
	focusRepo  focus.Repo
	energyUC   energy.UseCase
	dispatcher notification.Dispatcher
	cfg        config.SchedulerConfig
	log        *slog.Logger
	now        func() time.Time
}

func NewReminderUseCase(
	repo reminder.Repo,
	taskRepo task.Repo,
	focusRepo focus.Repo,
	energyUC energy.UseCase,
	dispatcher notification.Dispatcher,
	cfg config.SchedulerConfig,
	log *slog.Logger,
) *ReminderUseCase {
	return &ReminderUseCase{
		repo:       repo,
		taskRepo:   taskRepo,
		focusRepo:  focusRepo,
		energyUC:   energyUC,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// preferencesFor loads the user's preferences, falling back to the defaults
// when no row exists yet. The fallback is not persisted here; the preferences
// endpoints own lazy creation.
func (uc *ReminderUseCase) preferencesFor(userID uint) *reminder.Preferences {
	prefs, err := uc.repo.GetPreferences(userID)
	if err != nil {
		if !errors.Is(err, reminder.ErrPreferencesNotFound) {
			uc.log.Warn("failed to load preferences, using defaults",
				slog.Uint64("userID", uint64(userID)), "error", err)
		}
		return reminder.DefaultPreferences(userID)
	}
	return prefs
}

func (uc *ReminderUseCase) CreateReminder(userID uint, req reminder.CreateReminderRequest) (*reminder.ReminderResponse, error) {
	op := "ReminderUseCase.CreateReminder"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	if !req.ScheduledTime.After(uc.now().Add(-time.Minute)) {
		log.Warn("scheduled time is in the past", slog.Time("scheduledTime", req.ScheduledTime))
		return nil, reminder.ErrReminderInvalidInput
	}

	priority := req.Priority
	if priority == "" {
		priority = reminder.PriorityMedium
	}

	prefs := uc.preferencesFor(userID)

	maxEscalations := prefs.Escalation.MaxEscalations
	if req.MaxEscalations != nil {
		maxEscalations = *req.MaxEscalations
	}

	created, err := uc.createOptimized(&reminder.Reminder{
		UserID:                   userID,
		TaskID:                   req.TaskID,
		FocusSessionID:           req.FocusSessionID,
		Title:                    req.Title,
		Description:              req.Description,
		Type:                     req.Type,
		Priority:                 priority,
		Status:                   reminder.StatusScheduled,
		ScheduledTime:            req.ScheduledTime,
		MaxEscalations:           maxEscalations,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
	}, prefs)
	if err != nil {
		return nil, err
	}

	log.Info("reminder created",
		slog.Uint64("reminderID", uint64(created.ReminderID)),
		slog.String("type", string(created.Type)),
		slog.Time("scheduledTime", created.ScheduledTime))
	return reminder.ToReminderResponse(created), nil
}

// createOptimized runs the timing optimizer and energy prediction over a fully
// populated reminder and persists it. Callers own validation.
func (uc *ReminderUseCase) createOptimized(r *reminder.Reminder, prefs *reminder.Preferences) (*reminder.Reminder, error) {
	patterns, err := uc.energyUC.GetPatternsForDay(r.UserID, int(r.ScheduledTime.Weekday()))
	if err != nil {
		// Optimization is best-effort; the requested time still stands.
		uc.log.Warn("failed to load energy patterns, skipping optimization",
			slog.Uint64("userID", uint64(r.UserID)), "error", err)
		patterns = nil
	}

	r.ScheduledTime = optimizer.Optimize(r.ScheduledTime, r.Type, prefs, patterns)

	if predicted, err := uc.energyUC.PredictLevel(r.UserID, r.ScheduledTime); err == nil {
		r.PredictedEnergyLevel = &predicted
	}

	return uc.repo.CreateReminder(r)
}

func (uc *ReminderUseCase) GetReminders(userID uint, req reminder.GetRemindersRequest) ([]*reminder.ReminderResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	reminders, err := uc.repo.GetReminders(reminder.GetRemindersParams{
		UserID:   userID,
		Status:   req.Status,
		Type:     req.Type,
		Priority: req.Priority,
		From:     req.From,
		To:       req.To,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return reminder.ToReminderResponseList(reminders), nil
}

// ownedMutable loads a reminder and checks ownership and that it can still
// change state.
func (uc *ReminderUseCase) ownedMutable(reminderID uint, userID uint) (*reminder.Reminder, error) {
	r, err := uc.repo.GetReminderByID(reminderID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, reminder.ErrReminderAccessDenied
	}
	if r.Status.IsTerminal() {
		return nil, reminder.ErrReminderTerminal
	}
	return r, nil
}

func (uc *ReminderUseCase) RecordResponse(reminderID uint, userID uint, req reminder.RecordResponseRequest) error {
	op := "ReminderUseCase.RecordResponse"
	log := uc.log.With(slog.String("op", op),
		slog.Uint64("reminderID", uint64(reminderID)), slog.Uint64("userID", uint64(userID)))

	r, err := uc.ownedMutable(reminderID, userID)
	if err != nil {
		return err
	}

	now := uc.now()
	newStatus := req.Response.StatusAfter()

	r.Status = newStatus
	r.NextEscalationAt = nil
	r.UpdatedAt = now
	if d, ok := req.Response.SnoozeDuration(); ok {
		r.ScheduledTime = now.Add(d)
	}

	sentTime := now
	if r.ActualSentTime != nil {
		sentTime = *r.ActualSentTime
	}

	focusActive := false
	if s, err := uc.focusRepo.GetActiveSession(userID); err == nil && s != nil {
		focusActive = true
	}

	logRow := &reminder.Log{
		ReminderID:      r.ReminderID,
		UserID:          userID,
		SentTime:        sentTime,
		Response:        req.Response,
		ResponseSeconds: req.ResponseSeconds,
		Effectiveness:   req.Effectiveness,
		EnergyBefore:    req.EnergyBefore,
		EnergyAfter:     req.EnergyAfter,
		Context: reminder.ResponseContext{
			TimeOfDay:          energy.SlotFor(now),
			DayOfWeek:          int(now.Weekday()),
			FocusSessionActive: focusActive,
		},
		CreatedAt: now,
	}

	if err := uc.repo.CreateLogAndUpdateReminder(logRow, r); err != nil {
		return err
	}

	// Only the pre-response level feeds the pattern model; the post level is
	// an outcome of the reminder, not a reading of the bucket. Failures here
	// must not undo an already recorded response.
	if req.EnergyBefore != nil {
		if err := uc.energyUC.RecordObservation(userID, now, float64(*req.EnergyBefore)); err != nil {
			log.Warn("failed to record energy observation", "error", err)
		}
	}

	if req.Effectiveness != nil {
		if prefs := uc.preferencesFor(userID); prefs.AdaptiveLearning.Enabled {
			log.Info("adaptive learning signal recorded",
				slog.Int("effectiveness", *req.Effectiveness),
				slog.String("response", string(req.Response)))
		}
	}

	log.Info("reminder response recorded",
		slog.String("response", string(req.Response)), slog.String("newStatus", string(newStatus)))
	return nil
}

func (uc *ReminderUseCase) Snooze(reminderID uint, userID uint, minutes int) (*reminder.ReminderResponse, error) {
	op := "ReminderUseCase.Snooze"
	log := uc.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderID)))

	if minutes < 1 {
		return nil, reminder.ErrReminderInvalidInput
	}

	r, err := uc.ownedMutable(reminderID, userID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	r.Status = reminder.StatusSnoozed
	r.ScheduledTime = now.Add(time.Duration(minutes) * time.Minute)
	r.NextEscalationAt = nil
	r.UpdatedAt = now

	updated, err := uc.repo.UpdateReminder(r)
	if err != nil {
		return nil, err
	}

	log.Info("reminder snoozed", slog.Int("minutes", minutes), slog.Time("until", updated.ScheduledTime))
	return reminder.ToReminderResponse(updated), nil
}

func (uc *ReminderUseCase) Dismiss(reminderID uint, userID uint) error {
	op := "ReminderUseCase.Dismiss"
	log := uc.log.With(slog.String("op", op), slog.Uint64("reminderID", uint64(reminderID)))

	r, err := uc.ownedMutable(reminderID, userID)
	if err != nil {
		return err
	}

	r.Status = reminder.StatusDismissed
	r.NextEscalationAt = nil
	r.UpdatedAt = uc.now()

	if _, err := uc.repo.UpdateReminder(r); err != nil {
		return err
	}

	log.Info("reminder dismissed")
	return nil
}

func (uc *ReminderUseCase) GetPreferences(userID uint) (*reminder.PreferencesResponse, error) {
	op := "ReminderUseCase.GetPreferences"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	prefs, err := uc.repo.GetPreferences(userID)
	if err != nil {
		if !errors.Is(err, reminder.ErrPreferencesNotFound) {
			return nil, err
		}
		// First read creates the row so later updates have something to
		// build on.
		log.Info("no preferences yet, creating defaults")
		prefs, err = uc.repo.CreatePreferences(reminder.DefaultPreferences(userID))
		if err != nil {
			return nil, err
		}
	}

	return reminder.ToPreferencesResponse(prefs), nil
}

func (uc *ReminderUseCase) UpdatePreferences(userID uint, req reminder.UpdatePreferencesRequest) (*reminder.PreferencesResponse, error) {
	op := "ReminderUseCase.UpdatePreferences"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	prefs, err := uc.repo.GetPreferences(userID)
	if err != nil {
		if !errors.Is(err, reminder.ErrPreferencesNotFound) {
			return nil, err
		}
		prefs = reminder.DefaultPreferences(userID)
		if prefs, err = uc.repo.CreatePreferences(prefs); err != nil {
			return nil, err
		}
	}

	if req.Frequency != nil {
		prefs.Frequency = *req.Frequency
	}
	if req.PreferredTimes != nil {
		prefs.PreferredTimes = *req.PreferredTimes
	}
	if req.EnergyBasedAdjustment != nil {
		prefs.EnergyBasedAdjustment = *req.EnergyBasedAdjustment
	}
	if req.GentleEscalation != nil {
		prefs.GentleEscalation = *req.GentleEscalation
	}
	if req.MaxDailyReminders != nil {
		prefs.MaxDailyReminders = *req.MaxDailyReminders
	}
	if req.QuietHours != nil {
		prefs.QuietHours = *req.QuietHours
	}
	if req.TypesEnabled != nil {
		prefs.TypesEnabled = *req.TypesEnabled
	}
	if req.Escalation != nil {
		prefs.Escalation = *req.Escalation
	}
	if req.AdaptiveLearning != nil {
		prefs.AdaptiveLearning = *req.AdaptiveLearning
	}
	prefs.UpdatedAt = uc.now()

	updated, err := uc.repo.UpdatePreferences(prefs)
	if err != nil {
		return nil, err
	}

	log.Info("preferences updated")
	return reminder.ToPreferencesResponse(updated), nil
}

// GetOptimalTimes ranks the user's historical send hours by mean
// effectiveness over the last 30 days. Hours with too few rated responses
// are noise and are skipped.
func (uc *ReminderUseCase) GetOptimalTimes(userID uint, reminderType reminder.ReminderType) ([]string, error) {
	logs, err := uc.repo.GetLogsSince(userID, uc.now().AddDate(0, 0, -analyticsDefaultDays))
	if err != nil {
		return nil, err
	}

	effectSum := map[int]float64{}
	effectCount := map[int]int{}
	for _, l := range logs {
		if l.Effectiveness == nil {
			continue
		}
		h := l.SentTime.Hour()
		effectSum[h] += float64(*l.Effectiveness)
		effectCount[h]++
	}

	type scored struct {
		hour int
		mean float64
	}
	candidates := make([]scored, 0, len(effectCount))
	for h, n := range effectCount {
		if n < optimalTimesMinSamples {
			continue
		}
		candidates = append(candidates, scored{hour: h, mean: effectSum[h] / float64(n)})
	}
	if len(candidates) == 0 {
		return fallbackOptimalTimes, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mean != candidates[j].mean {
			return candidates[i].mean > candidates[j].mean
		}
		return candidates[i].hour < candidates[j].hour
	})

	limit := optimalTimesLimit
	if len(candidates) < limit {
		limit = len(candidates)
	}
	times := make([]string, 0, limit)
	for _, c := range candidates[:limit] {
		times = append(times, fmt.Sprintf("%02d:00", c.hour))
	}
	return times, nil
}

func (uc *ReminderUseCase) GetAnalytics(userID uint, days int) (*reminder.AnalyticsResponse, error) {
	op := "ReminderUseCase.GetAnalytics"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	if days < 1 {
		days = analyticsDefaultDays
	}

	logs, err := uc.repo.GetLogsSince(userID, uc.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	resp := &reminder.AnalyticsResponse{
		TotalReminders: int64(len(logs)),
		TypeEffect:     map[string]float64{},
		OptimalHours:   []string{},
	}
	if len(logs) == 0 {
		return resp, nil
	}

	var engaged int
	var effectSum float64
	var effectCount int
	var responseSecondsSum int

	// Per-type effectiveness needs the reminder type, which lives on the
	// reminder row, not the log. One lookup per distinct reminder.
	typeByReminder := map[uint]reminder.ReminderType{}
	typeSum := map[reminder.ReminderType]float64{}
	typeCount := map[reminder.ReminderType]int{}

	for _, l := range logs {
		switch l.Response {
		case reminder.ResponseAcknowledged, reminder.ResponseCompletedTask,
			reminder.ResponseSnoozed5Min, reminder.ResponseSnoozed15Min, reminder.ResponseSnoozed30Min:
			engaged++
		}
		responseSecondsSum += l.ResponseSeconds

		if l.Effectiveness == nil {
			continue
		}
		effectSum += float64(*l.Effectiveness)
		effectCount++

		rt, seen := typeByReminder[l.ReminderID]
		if !seen {
			r, err := uc.repo.GetReminderByID(l.ReminderID)
			if err != nil {
				log.Warn("failed to resolve reminder type for analytics",
					slog.Uint64("reminderID", uint64(l.ReminderID)), "error", err)
				continue
			}
			rt = r.Type
			typeByReminder[l.ReminderID] = rt
		}
		typeSum[rt] += float64(*l.Effectiveness)
		typeCount[rt]++
	}

	resp.ResponseRate = float64(engaged) / float64(len(logs))
	resp.AvgResponseTime = float64(responseSecondsSum) / float64(len(logs))
	if effectCount > 0 {
		resp.AvgEffectiveness = effectSum / float64(effectCount)
	}
	for rt, sum := range typeSum {
		resp.TypeEffect[string(rt)] = sum / float64(typeCount[rt])
	}

	if hours, err := uc.GetOptimalTimes(userID, ""); err == nil {
		resp.OptimalHours = hours
	}

	return resp, nil
}

// ScheduleAutomaticReminders generates task-start and deadline-warning
// reminders for a user's open, dated tasks. Generation is idempotent per task
// and type.
func (uc *ReminderUseCase) ScheduleAutomaticReminders(userID uint) error {
	op := "ReminderUseCase.ScheduleAutomaticReminders"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	prefs := uc.preferencesFor(userID)
	tasks, err := uc.taskRepo.GetOpenDatedTasks(userID)
	if err != nil {
		return err
	}

	now := uc.now()
	var created int
	for _, t := range tasks {
		if t.IsCompleted() {
			continue
		}

		if prefs.TypesEnabled.TaskStart && !t.IsStarted() {
			n, err := uc.ensureTaskReminder(t, reminder.TypeTaskStart, reminder.PriorityMedium,
				now.Add(taskStartLeadTime), fmt.Sprintf("Time to start: %s", t.Title), prefs)
			if err != nil {
				log.Warn("failed to create task-start reminder", slog.Uint64("taskID", uint64(t.TaskID)), "error", err)
			}
			created += n
		}

		if prefs.TypesEnabled.DeadlineWarning && t.DueDate != nil {
			remaining := t.DueDate.Sub(now)
			title := fmt.Sprintf("Deadline approaching: %s", t.Title)

			// The two warnings are independent: a far-off task gets both the
			// 24h heads-up and the 2h final call.
			if remaining > deadlineFirstWarning {
				n, err := uc.ensureTaskReminder(t, reminder.TypeDeadlineWarning, reminder.PriorityHigh,
					t.DueDate.Add(-deadlineFirstWarning), title, prefs)
				if err != nil {
					log.Warn("failed to create deadline reminder", slog.Uint64("taskID", uint64(t.TaskID)), "error", err)
				}
				created += n
			}
			if remaining > deadlineSecondWarning {
				n, err := uc.ensureTaskReminder(t, reminder.TypeDeadlineWarning, reminder.PriorityUrgent,
					t.DueDate.Add(-deadlineSecondWarning), title, prefs)
				if err != nil {
					log.Warn("failed to create deadline reminder", slog.Uint64("taskID", uint64(t.TaskID)), "error", err)
				}
				created += n
			}
		}
	}

	log.Info("automatic reminders scheduled", slog.Int("created", created), slog.Int("tasks", len(tasks)))
	return nil
}

// ensureTaskReminder creates a task-bound reminder unless one of the same
// type and priority is already live for the task. Returns how many were
// created (0 or 1).
func (uc *ReminderUseCase) ensureTaskReminder(t *task.Task, rt reminder.ReminderType, priority reminder.Priority, at time.Time, title string, prefs *reminder.Preferences) (int, error) {
	exists, err := uc.repo.HasActiveReminderForTask(t.TaskID, rt, priority)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	taskID := t.TaskID
	_, err = uc.createOptimized(&reminder.Reminder{
		UserID:         t.UserID,
		TaskID:         &taskID,
		Title:          title,
		Description:    t.Description,
		Type:           rt,
		Priority:       priority,
		Status:         reminder.StatusScheduled,
		ScheduledTime:  at,
		MaxEscalations: prefs.Escalation.MaxEscalations,
	}, prefs)
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// --- Scheduler sweeps ---

// ProcessDueReminders is the dispatch sweep: first advance overdue
// escalations, then walk due reminders through the send decision chain. One
// bad reminder never aborts the sweep.
func (uc *ReminderUseCase) ProcessDueReminders(ctx context.Context) error {
	op := "ReminderUseCase.ProcessDueReminders"
	log := uc.log.With(slog.String("op", op))
	now := uc.now()

	escalationDue, err := uc.repo.GetEscalationDue(now)
	if err != nil {
		return err
	}
	for _, r := range escalationDue {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := uc.escalate(r, now); err != nil {
			log.Error("failed to escalate reminder", slog.Uint64("reminderID", uint64(r.ReminderID)), "error", err)
		}
	}

	due, err := uc.repo.GetDueReminders(now)
	if err != nil {
		return err
	}

	prefsByUser := map[uint]*reminder.Preferences{}
	for _, r := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prefs, ok := prefsByUser[r.UserID]
		if !ok {
			prefs = uc.preferencesFor(r.UserID)
			prefsByUser[r.UserID] = prefs
		}

		if err := uc.dispatchOne(ctx, r, prefs, now); err != nil {
			log.Error("failed to dispatch reminder", slog.Uint64("reminderID", uint64(r.ReminderID)), "error", err)
		}
	}

	if len(escalationDue) > 0 || len(due) > 0 {
		log.Info("dispatch sweep finished",
			slog.Int("escalated", len(escalationDue)), slog.Int("due", len(due)))
	}
	return nil
}

// escalate advances one unanswered sent reminder. At the cap it expires;
// below the cap it goes back to scheduled for an immediate, louder re-send.
func (uc *ReminderUseCase) escalate(r *reminder.Reminder, now time.Time) error {
	log := uc.log.With(slog.String("op", "ReminderUseCase.escalate"),
		slog.Uint64("reminderID", uint64(r.ReminderID)))

	if r.Status.IsTerminal() {
		return nil
	}

	if r.EscalationLevel >= r.MaxEscalations {
		r.Status = reminder.StatusExpired
		r.NextEscalationAt = nil
		r.UpdatedAt = now
		if _, err := uc.repo.UpdateReminder(r); err != nil {
			return err
		}
		log.Info("reminder expired at escalation cap", slog.Int("level", r.EscalationLevel))
		return nil
	}

	prefs := uc.preferencesFor(r.UserID)
	interval := time.Duration(prefs.Escalation.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = uc.cfg.EscalationCheckDelay
	}

	r.EscalationLevel++
	r.Status = reminder.StatusScheduled
	r.ScheduledTime = now.Add(interval)
	r.NextEscalationAt = nil
	r.UpdatedAt = now
	if _, err := uc.repo.UpdateReminder(r); err != nil {
		return err
	}

	log.Info("reminder escalated",
		slog.Int("level", r.EscalationLevel), slog.Time("rescheduledFor", r.ScheduledTime))
	return nil
}

// dispatchOne runs the send decision chain for a single due reminder.
func (uc *ReminderUseCase) dispatchOne(ctx context.Context, r *reminder.Reminder, prefs *reminder.Preferences, now time.Time) error {
	log := uc.log.With(slog.String("op", "ReminderUseCase.dispatchOne"),
		slog.Uint64("reminderID", uint64(r.ReminderID)), slog.Uint64("userID", uint64(r.UserID)))

	urgent := r.Priority == reminder.PriorityUrgent

	// A running focus session defers everything except urgent reminders and
	// the hyperfocus interrupt itself.
	if !urgent && r.Type != reminder.TypeHyperfocusBreak {
		if s, err := uc.focusRepo.GetActiveSession(r.UserID); err == nil && s != nil {
			log.Debug("focus session active, delaying reminder")
			return uc.repo.DelayReminder(r.ReminderID, now.Add(uc.cfg.DispatchDelay))
		}
	}

	sent, err := uc.repo.CountSentSince(r.UserID, now.Add(-rateWindow))
	if err != nil {
		return err
	}
	if sent >= int64(prefs.MaxDailyReminders) {
		log.Debug("send cap reached, delaying reminder", slog.Int64("sentInWindow", sent))
		return uc.repo.DelayReminder(r.ReminderID, now.Add(uc.cfg.DispatchDelay))
	}

	// Quiet hours defer every priority; the short delay re-evaluates the
	// window on the next pass instead of jumping straight to its end.
	if optimizer.InQuietHours(now, prefs.QuietHours) {
		log.Debug("quiet hours, delaying reminder")
		return uc.repo.DelayReminder(r.ReminderID, now.Add(uc.cfg.DispatchDelay))
	}

	var nextEscalation *time.Time
	if r.EscalationLevel < r.MaxEscalations {
		t := now.Add(uc.cfg.EscalationCheckDelay)
		nextEscalation = &t
	}

	if err := uc.repo.MarkSent(r.ReminderID, now, nextEscalation); err != nil {
		if errors.Is(err, reminder.ErrReminderNotFound) {
			// Responded to or cancelled between the query and the send.
			log.Debug("reminder changed state before send, skipping")
			return nil
		}
		return err
	}

	body := ""
	if r.Description != nil {
		body = *r.Description
	}
	uc.dispatcher.Dispatch(ctx, notification.Event{
		Type: notification.EventReminderDue,
		Payload: notification.ReminderDuePayload{
			ReminderID:      r.ReminderID,
			UserID:          r.UserID,
			Title:           r.Title,
			Body:            body,
			ReminderType:    string(r.Type),
			Priority:        string(r.Priority),
			EscalationLevel: r.EscalationLevel,
		},
	})

	log.Info("reminder sent", slog.String("type", string(r.Type)), slog.String("priority", string(r.Priority)))
	return nil
}

// ProcessDeadlineChecks scans for incomplete tasks nearing their due date and
// raises deadline warnings sized to the time remaining.
func (uc *ReminderUseCase) ProcessDeadlineChecks(ctx context.Context) error {
	op := "ReminderUseCase.ProcessDeadlineChecks"
	log := uc.log.With(slog.String("op", op))
	now := uc.now()

	tasks, err := uc.taskRepo.GetTasksNearingDeadline(now, uc.cfg.DeadlineHorizon)
	if err != nil {
		return err
	}

	prefsByUser := map[uint]*reminder.Preferences{}
	var created int
	for _, t := range tasks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if t.DueDate == nil {
			continue
		}

		prefs, ok := prefsByUser[t.UserID]
		if !ok {
			prefs = uc.preferencesFor(t.UserID)
			prefsByUser[t.UserID] = prefs
		}
		if !prefs.TypesEnabled.DeadlineWarning {
			continue
		}

		remaining := t.DueDate.Sub(now)
		priority := reminder.PriorityMedium
		switch {
		case remaining < 6*time.Hour:
			priority = reminder.PriorityUrgent
		case remaining < 24*time.Hour:
			priority = reminder.PriorityHigh
		}

		n, err := uc.ensureTaskReminder(t, reminder.TypeDeadlineWarning, priority, now,
			fmt.Sprintf("Deadline approaching: %s", t.Title), prefs)
		if err != nil {
			log.Warn("failed to create deadline warning", slog.Uint64("taskID", uint64(t.TaskID)), "error", err)
			continue
		}
		created += n
	}

	if created > 0 {
		log.Info("deadline sweep finished", slog.Int("created", created), slog.Int("candidates", len(tasks)))
	}
	return nil
}

// ProcessHyperfocusChecks finds focus sessions running past the hyperfocus
// threshold and schedules an immediate break interrupt, once per session.
func (uc *ReminderUseCase) ProcessHyperfocusChecks(ctx context.Context) error {
	op := "ReminderUseCase.ProcessHyperfocusChecks"
	log := uc.log.With(slog.String("op", op))
	now := uc.now()

	sessions, err := uc.focusRepo.GetHyperfocusSessions(now.Add(-uc.cfg.HyperfocusThreshold))
	if err != nil {
		return err
	}

	var created int
	for _, s := range sessions {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prefs := uc.preferencesFor(s.UserID)
		if !prefs.TypesEnabled.HyperfocusBreak {
			continue
		}

		exists, err := uc.repo.HasReminderForSessionSince(s.SessionID, reminder.TypeHyperfocusBreak, s.StartedAt)
		if err != nil {
			log.Warn("failed to check session reminder", slog.String("sessionID", s.SessionID), "error", err)
			continue
		}
		if exists {
			continue
		}

		sessionID := s.SessionID
		runningFor := now.Sub(s.StartedAt).Round(time.Minute)
		description := fmt.Sprintf("You have been focused for %s. A short break keeps the momentum sustainable.", runningFor)
		_, err = uc.repo.CreateReminder(&reminder.Reminder{
			UserID:         s.UserID,
			TaskID:         s.TaskID,
			FocusSessionID: &sessionID,
			Title:          "Time for a break",
			Description:    &description,
			Type:           reminder.TypeHyperfocusBreak,
			Priority:       reminder.PriorityHigh,
			Status:         reminder.StatusScheduled,
			ScheduledTime:  now,
			MaxEscalations: prefs.Escalation.MaxEscalations,
		})
		if err != nil {
			log.Warn("failed to create hyperfocus reminder", slog.String("sessionID", s.SessionID), "error", err)
			continue
		}
		created++
	}

	if created > 0 {
		log.Info("hyperfocus sweep finished", slog.Int("created", created), slog.Int("sessions", len(sessions)))
	}
	return nil
}

// RefreshEnergyInsights re-derives per-user energy summaries for everyone who
// opted into energy-based adjustment. The pattern table is already folded
// incrementally on write; this sweep re-snapshots predicted levels on pending
// reminders.
func (uc *ReminderUseCase) RefreshEnergyInsights(ctx context.Context) error {
	op := "ReminderUseCase.RefreshEnergyInsights"
	log := uc.log.With(slog.String("op", op))

	userIDs, err := uc.repo.GetUserIDsWithEnergyAdjustment()
	if err != nil {
		return err
	}

	scheduled := reminder.StatusScheduled
	var refreshed int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		pending, err := uc.repo.GetReminders(reminder.GetRemindersParams{UserID: userID, Status: &scheduled})
		if err != nil {
			log.Warn("failed to load pending reminders", slog.Uint64("userID", uint64(userID)), "error", err)
			continue
		}
		for _, r := range pending {
			predicted, err := uc.energyUC.PredictLevel(userID, r.ScheduledTime)
			if err != nil {
				continue
			}
			if r.PredictedEnergyLevel != nil && *r.PredictedEnergyLevel == predicted {
				continue
			}
			r.PredictedEnergyLevel = &predicted
			if _, err := uc.repo.UpdateReminder(r); err != nil {
				log.Warn("failed to refresh predicted energy", slog.Uint64("reminderID", uint64(r.ReminderID)), "error", err)
				continue
			}
			refreshed++
		}
	}

	log.Info("energy insights refreshed", slog.Int("users", len(userIDs)), slog.Int("remindersRefreshed", refreshed))
	return nil
}

// RetuneReminderTiming is the daily optimization sweep: every adaptive-learning
// user's future scheduled reminders are re-run through the timing optimizer
// against the latest energy patterns.
func (uc *ReminderUseCase) RetuneReminderTiming(ctx context.Context) error {
	op := "ReminderUseCase.RetuneReminderTiming"
	log := uc.log.With(slog.String("op", op))
	now := uc.now()

	userIDs, err := uc.repo.GetUserIDsWithAdaptiveLearning()
	if err != nil {
		return err
	}

	scheduled := reminder.StatusScheduled
	var retuned int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prefs := uc.preferencesFor(userID)
		pending, err := uc.repo.GetReminders(reminder.GetRemindersParams{UserID: userID, Status: &scheduled, From: &now})
		if err != nil {
			log.Warn("failed to load pending reminders", slog.Uint64("userID", uint64(userID)), "error", err)
			continue
		}

		for _, r := range pending {
			patterns, err := uc.energyUC.GetPatternsForDay(userID, int(r.ScheduledTime.Weekday()))
			if err != nil {
				continue
			}
			adjusted := optimizer.Optimize(r.ScheduledTime, r.Type, prefs, patterns)
			if adjusted.Equal(r.ScheduledTime) || adjusted.Before(now) {
				continue
			}
			r.ScheduledTime = adjusted
			r.UpdatedAt = now
			if _, err := uc.repo.UpdateReminder(r); err != nil {
				log.Warn("failed to retune reminder", slog.Uint64("reminderID", uint64(r.ReminderID)), "error", err)
				continue
			}
			retuned++
		}
	}

	log.Info("reminder timing retuned", slog.Int("users", len(userIDs)), slog.Int("remindersMoved", retuned))
	return nil
}
