package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/config"
	"focusflow/internal/modules/energy"
	"focusflow/internal/modules/focus"
	"focusflow/internal/modules/notification"
	"focusflow/internal/modules/reminder"
	"focusflow/internal/modules/task"
)

// --- In-memory fakes ---

type fakeReminderRepo struct {
	reminders map[uint]*reminder.Reminder
	logs      []*reminder.Log
	prefs     map[uint]*reminder.Preferences
	nextID    uint
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{
		reminders: map[uint]*reminder.Reminder{},
		prefs:     map[uint]*reminder.Preferences{},
	}
}

func (f *fakeReminderRepo) CreateReminder(r *reminder.Reminder) (*reminder.Reminder, error) {
	f.nextID++
	r.ReminderID = f.nextID
	f.reminders[r.ReminderID] = r
	return r, nil
}

func (f *fakeReminderRepo) GetReminderByID(reminderID uint) (*reminder.Reminder, error) {
	r, ok := f.reminders[reminderID]
	if !ok {
		return nil, reminder.ErrReminderNotFound
	}
	return r, nil
}

func (f *fakeReminderRepo) GetReminders(params reminder.GetRemindersParams) ([]*reminder.Reminder, error) {
	var out []*reminder.Reminder
	for _, r := range f.reminders {
		if r.UserID != params.UserID {
			continue
		}
		if params.Status != nil && r.Status != *params.Status {
			continue
		}
		if params.Type != nil && r.Type != *params.Type {
			continue
		}
		if params.From != nil && r.ScheduledTime.Before(*params.From) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReminderRepo) UpdateReminder(r *reminder.Reminder) (*reminder.Reminder, error) {
	f.reminders[r.ReminderID] = r
	return r, nil
}

func (f *fakeReminderRepo) GetDueReminders(now time.Time) ([]*reminder.Reminder, error) {
	var out []*reminder.Reminder
	for _, r := range f.reminders {
		if (r.Status == reminder.StatusScheduled || r.Status == reminder.StatusSnoozed) && !r.ScheduledTime.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) GetEscalationDue(now time.Time) ([]*reminder.Reminder, error) {
	var out []*reminder.Reminder
	for _, r := range f.reminders {
		if r.Status == reminder.StatusSent && r.NextEscalationAt != nil && !r.NextEscalationAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) CountSentSince(userID uint, since time.Time) (int64, error) {
	var count int64
	for _, r := range f.reminders {
		if r.UserID == userID && r.ActualSentTime != nil && !r.ActualSentTime.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReminderRepo) HasActiveReminderForTask(taskID uint, reminderType reminder.ReminderType, priority reminder.Priority) (bool, error) {
	for _, r := range f.reminders {
		if r.TaskID != nil && *r.TaskID == taskID && r.Type == reminderType && r.Priority == priority && !r.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReminderRepo) HasReminderForSessionSince(sessionID string, reminderType reminder.ReminderType, since time.Time) (bool, error) {
	for _, r := range f.reminders {
		if r.FocusSessionID != nil && *r.FocusSessionID == sessionID && r.Type == reminderType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReminderRepo) MarkSent(reminderID uint, sentAt time.Time, nextEscalationAt *time.Time) error {
	r, ok := f.reminders[reminderID]
	if !ok || (r.Status != reminder.StatusScheduled && r.Status != reminder.StatusSnoozed) {
		return reminder.ErrReminderNotFound
	}
	r.Status = reminder.StatusSent
	r.ActualSentTime = &sentAt
	r.NextEscalationAt = nextEscalationAt
	return nil
}

func (f *fakeReminderRepo) DelayReminder(reminderID uint, until time.Time) error {
	r, ok := f.reminders[reminderID]
	if !ok || (r.Status != reminder.StatusScheduled && r.Status != reminder.StatusSnoozed) {
		return reminder.ErrReminderNotFound
	}
	r.ScheduledTime = until
	return nil
}

func (f *fakeReminderRepo) CreateLogAndUpdateReminder(logRow *reminder.Log, r *reminder.Reminder) error {
	f.logs = append(f.logs, logRow)
	f.reminders[r.ReminderID] = r
	return nil
}

func (f *fakeReminderRepo) GetLogsSince(userID uint, since time.Time) ([]*reminder.Log, error) {
	var out []*reminder.Log
	for _, l := range f.logs {
		if l.UserID == userID && !l.SentTime.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) GetPreferences(userID uint) (*reminder.Preferences, error) {
	p, ok := f.prefs[userID]
	if !ok {
		return nil, reminder.ErrPreferencesNotFound
	}
	return p, nil
}

func (f *fakeReminderRepo) CreatePreferences(p *reminder.Preferences) (*reminder.Preferences, error) {
	f.prefs[p.UserID] = p
	return p, nil
}

func (f *fakeReminderRepo) UpdatePreferences(p *reminder.Preferences) (*reminder.Preferences, error) {
	f.prefs[p.UserID] = p
	return p, nil
}

func (f *fakeReminderRepo) GetUserIDsWithEnergyAdjustment() ([]uint, error) {
	var out []uint
	for id, p := range f.prefs {
		if p.EnergyBasedAdjustment {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) GetUserIDsWithAdaptiveLearning() ([]uint, error) {
	var out []uint
	for id, p := range f.prefs {
		if p.AdaptiveLearning.Enabled {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeTaskRepo struct {
	tasks []*task.Task
}

func (f *fakeTaskRepo) CreateTask(t *task.Task) (*task.Task, error) { return t, nil }
func (f *fakeTaskRepo) GetTaskByID(taskID uint, userID uint) (*task.Task, error) {
	for _, t := range f.tasks {
		if t.TaskID == taskID && t.UserID == userID {
			return t, nil
		}
	}
	return nil, task.ErrTaskNotFound
}
func (f *fakeTaskRepo) GetTasks(params task.GetTasksParams) ([]*task.Task, error) {
	return f.tasks, nil
}
func (f *fakeTaskRepo) UpdateTask(t *task.Task) (*task.Task, error) { return t, nil }
func (f *fakeTaskRepo) GetTasksNearingDeadline(now time.Time, horizon time.Duration) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range f.tasks {
		if t.IsCompleted() || t.DueDate == nil {
			continue
		}
		if t.DueDate.After(now) && !t.DueDate.After(now.Add(horizon)) {
			out = append(out, t)
		}
	}
	return out, nil
}
func (f *fakeTaskRepo) GetOpenDatedTasks(userID uint) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range f.tasks {
		if t.UserID == userID && !t.IsCompleted() && t.DueDate != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeFocusRepo struct {
	active map[uint]*focus.Session
}

func (f *fakeFocusRepo) CreateSession(s *focus.Session) (*focus.Session, error) { return s, nil }
func (f *fakeFocusRepo) GetSessionByID(sessionID string) (*focus.Session, error) {
	return nil, focus.ErrSessionNotFound
}
func (f *fakeFocusRepo) GetActiveSession(userID uint) (*focus.Session, error) {
	s, ok := f.active[userID]
	if !ok {
		return nil, focus.ErrNoActiveSession
	}
	return s, nil
}
func (f *fakeFocusRepo) EndSession(sessionID string, endedAt time.Time) (*focus.Session, error) {
	return nil, focus.ErrSessionNotFound
}
func (f *fakeFocusRepo) GetHyperfocusSessions(startedBefore time.Time) ([]*focus.Session, error) {
	var out []*focus.Session
	for _, s := range f.active {
		if s.IsActive() && !s.StartedAt.After(startedBefore) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeEnergyUseCase struct {
	patterns  []*energy.Pattern
	predicted float64
	recorded  []float64
}

func (f *fakeEnergyUseCase) RecordObservation(userID uint, at time.Time, level float64) error {
	f.recorded = append(f.recorded, level)
	return nil
}
func (f *fakeEnergyUseCase) GetPatternsForDay(userID uint, dayOfWeek int) ([]*energy.Pattern, error) {
	return f.patterns, nil
}
func (f *fakeEnergyUseCase) PredictLevel(userID uint, at time.Time) (float64, error) {
	return f.predicted, nil
}

type fakeDispatcher struct {
	events []notification.Event
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, event notification.Event) {
	f.events = append(f.events, event)
}

// --- Harness ---

type ucFixture struct {
	uc         *ReminderUseCase
	repo       *fakeReminderRepo
	tasks      *fakeTaskRepo
	focus      *fakeFocusRepo
	energy     *fakeEnergyUseCase
	dispatcher *fakeDispatcher
	now        time.Time
}

func newFixture(t *testing.T) *ucFixture {
	t.Helper()

	fx := &ucFixture{
		repo:       newFakeReminderRepo(),
		tasks:      &fakeTaskRepo{},
		focus:      &fakeFocusRepo{active: map[uint]*focus.Session{}},
		energy:     &fakeEnergyUseCase{predicted: 6.5},
		dispatcher: &fakeDispatcher{},
		// Tuesday afternoon, outside the default quiet hours.
		now: time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
	}

	cfg := config.SchedulerConfig{
		DispatchInterval:       time.Minute,
		EnergyAnalysisInterval: 15 * time.Minute,
		DailyOptimizationCron:  "0 0 * * *",
		DeadlineWatchInterval:  5 * time.Minute,
		HyperfocusInterval:     30 * time.Minute,
		EscalationCheckDelay:   15 * time.Minute,
		DispatchDelay:          10 * time.Minute,
		HyperfocusThreshold:    90 * time.Minute,
		DeadlineHorizon:        48 * time.Hour,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.uc = NewReminderUseCase(fx.repo, fx.tasks, fx.focus, fx.energy, fx.dispatcher, cfg, log)
	fx.uc.now = func() time.Time { return fx.now }
	return fx
}

func (fx *ucFixture) seedReminder(r *reminder.Reminder) *reminder.Reminder {
	created, _ := fx.repo.CreateReminder(r)
	return created
}

// --- Tests ---

func TestCreateReminder_RejectsPastTime(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.uc.CreateReminder(1, reminder.CreateReminderRequest{
		Title:         "stale",
		Type:          reminder.TypeTaskStart,
		ScheduledTime: fx.now.Add(-2 * time.Hour),
	})
	assert.ErrorIs(t, err, reminder.ErrReminderInvalidInput)
}

func TestCreateReminder_AppliesDefaultsAndPrediction(t *testing.T) {
	fx := newFixture(t)

	resp, err := fx.uc.CreateReminder(1, reminder.CreateReminderRequest{
		Title:         "write report",
		Type:          reminder.TypeTaskStart,
		ScheduledTime: fx.now.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, reminder.PriorityMedium, resp.Priority)
	assert.Equal(t, reminder.StatusScheduled, resp.Status)
	assert.Equal(t, 3, resp.MaxEscalations)
	require.NotNil(t, resp.PredictedEnergyLevel)
	assert.Equal(t, 6.5, *resp.PredictedEnergyLevel)
}

func TestProcessDueReminders_SendsDueReminder(t *testing.T) {
	fx := newFixture(t)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "stand up", Type: reminder.TypeBreakReminder,
		Priority: reminder.PriorityMedium, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now.Add(-time.Minute), MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, reminder.StatusSent, r.Status)
	require.NotNil(t, r.ActualSentTime)
	assert.Equal(t, fx.now, *r.ActualSentTime)
	require.NotNil(t, r.NextEscalationAt)
	assert.Equal(t, fx.now.Add(15*time.Minute), *r.NextEscalationAt)

	require.Len(t, fx.dispatcher.events, 1)
	payload, ok := fx.dispatcher.events[0].Payload.(notification.ReminderDuePayload)
	require.True(t, ok)
	assert.Equal(t, r.ReminderID, payload.ReminderID)
	assert.Equal(t, "stand up", payload.Title)
}

func TestProcessDueReminders_AtEscalationCapNoFurtherCheck(t *testing.T) {
	fx := newFixture(t)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "final nudge", Type: reminder.TypeTaskStart,
		Priority: reminder.PriorityHigh, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now, EscalationLevel: 3, MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, reminder.StatusSent, r.Status)
	assert.Nil(t, r.NextEscalationAt)
}

func TestProcessDueReminders_FocusSessionDelaysNonUrgent(t *testing.T) {
	fx := newFixture(t)
	fx.focus.active[1] = &focus.Session{SessionID: "s-1", UserID: 1, StartedAt: fx.now.Add(-30 * time.Minute)}

	medium := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "check email", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityMedium, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now.Add(-time.Minute), MaxEscalations: 3,
	})
	urgent := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "leave now", Type: reminder.TypeDeadlineWarning,
		Priority: reminder.PriorityUrgent, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now.Add(-time.Minute), MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, reminder.StatusScheduled, medium.Status)
	assert.Equal(t, fx.now.Add(10*time.Minute), medium.ScheduledTime)

	assert.Equal(t, reminder.StatusSent, urgent.Status)
	require.Len(t, fx.dispatcher.events, 1)
}

func TestProcessDueReminders_HyperfocusBreakIgnoresFocusSession(t *testing.T) {
	fx := newFixture(t)
	fx.focus.active[1] = &focus.Session{SessionID: "s-1", UserID: 1, StartedAt: fx.now.Add(-2 * time.Hour)}

	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "Time for a break", Type: reminder.TypeHyperfocusBreak,
		Priority: reminder.PriorityHigh, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now, MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))
	assert.Equal(t, reminder.StatusSent, r.Status)
}

func TestProcessDueReminders_RateCapDelays(t *testing.T) {
	fx := newFixture(t)
	prefs := reminder.DefaultPreferences(1)
	prefs.MaxDailyReminders = 1
	fx.repo.prefs[1] = prefs

	sentAt := fx.now.Add(-10 * time.Minute)
	fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "already sent", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityMedium, Status: reminder.StatusSent,
		ScheduledTime: sentAt, ActualSentTime: &sentAt, MaxEscalations: 3,
	})
	due := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "over cap", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityMedium, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now, MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, reminder.StatusScheduled, due.Status)
	assert.Equal(t, fx.now.Add(10*time.Minute), due.ScheduledTime)
	assert.Empty(t, fx.dispatcher.events)
}

func TestProcessDueReminders_QuietHoursDelay(t *testing.T) {
	fx := newFixture(t)
	fx.now = time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC)

	due := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "too late", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityMedium, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now.Add(-time.Minute), MaxEscalations: 3,
	})
	// Quiet hours hold back even urgent reminders.
	urgent := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "still too late", Type: reminder.TypeDeadlineWarning,
		Priority: reminder.PriorityUrgent, Status: reminder.StatusScheduled,
		ScheduledTime: fx.now.Add(-time.Minute), MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, reminder.StatusScheduled, due.Status)
	assert.Equal(t, fx.now.Add(10*time.Minute), due.ScheduledTime)
	assert.Equal(t, reminder.StatusScheduled, urgent.Status)
	assert.Equal(t, fx.now.Add(10*time.Minute), urgent.ScheduledTime)
	assert.Empty(t, fx.dispatcher.events)
}

func TestEscalation_ExpiresAtCap(t *testing.T) {
	fx := newFixture(t)
	escAt := fx.now.Add(-time.Minute)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "ignored", Type: reminder.TypeTaskStart,
		Priority: reminder.PriorityHigh, Status: reminder.StatusSent,
		ScheduledTime: fx.now.Add(-time.Hour), NextEscalationAt: &escAt,
		EscalationLevel: 2, MaxEscalations: 2,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, reminder.StatusExpired, r.Status)
	assert.Nil(t, r.NextEscalationAt)
	assert.Equal(t, 2, r.EscalationLevel)
	assert.Empty(t, fx.dispatcher.events)
}

func TestEscalation_AdvancesAndReschedules(t *testing.T) {
	fx := newFixture(t)
	escAt := fx.now.Add(-time.Minute)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "still waiting", Type: reminder.TypeTaskStart,
		Priority: reminder.PriorityHigh, Status: reminder.StatusSent,
		ScheduledTime: fx.now.Add(-time.Hour), NextEscalationAt: &escAt,
		EscalationLevel: 0, MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.ProcessDueReminders(context.Background()))

	assert.Equal(t, 1, r.EscalationLevel)
	// Back in the dispatch queue after the default escalation interval.
	assert.Equal(t, reminder.StatusScheduled, r.Status)
	assert.Equal(t, fx.now.Add(15*time.Minute), r.ScheduledTime)
	assert.Nil(t, r.NextEscalationAt)
}

func TestRecordResponse_SnoozePushesForward(t *testing.T) {
	fx := newFixture(t)
	sentAt := fx.now.Add(-5 * time.Minute)
	energyBefore, energyAfter := 4, 7
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "drink water", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityLow, Status: reminder.StatusSent,
		ScheduledTime: sentAt, ActualSentTime: &sentAt, MaxEscalations: 3,
	})

	err := fx.uc.RecordResponse(r.ReminderID, 1, reminder.RecordResponseRequest{
		Response:        reminder.ResponseSnoozed15Min,
		ResponseSeconds: 30,
		EnergyBefore:    &energyBefore,
		EnergyAfter:     &energyAfter,
	})
	require.NoError(t, err)

	assert.Equal(t, reminder.StatusSnoozed, r.Status)
	assert.Equal(t, fx.now.Add(15*time.Minute), r.ScheduledTime)
	assert.Nil(t, r.NextEscalationAt)

	require.Len(t, fx.repo.logs, 1)
	logRow := fx.repo.logs[0]
	assert.Equal(t, reminder.ResponseSnoozed15Min, logRow.Response)
	assert.Equal(t, sentAt, logRow.SentTime)
	assert.Equal(t, "15:00", logRow.Context.TimeOfDay)
	require.NotNil(t, logRow.EnergyAfter)
	assert.Equal(t, 7, *logRow.EnergyAfter)

	// Only the pre-response level feeds the energy model; the post level
	// stays on the log.
	assert.Equal(t, []float64{4}, fx.energy.recorded)
}

func TestRecordResponse_DismissalIsTerminal(t *testing.T) {
	fx := newFixture(t)
	sentAt := fx.now.Add(-5 * time.Minute)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "nope", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityLow, Status: reminder.StatusSent,
		ScheduledTime: sentAt, ActualSentTime: &sentAt, MaxEscalations: 3,
	})

	require.NoError(t, fx.uc.RecordResponse(r.ReminderID, 1, reminder.RecordResponseRequest{
		Response: reminder.ResponseNotNow,
	}))
	assert.Equal(t, reminder.StatusDismissed, r.Status)

	// A second response against a terminal reminder is refused and leaves a
	// single log row.
	err := fx.uc.RecordResponse(r.ReminderID, 1, reminder.RecordResponseRequest{
		Response: reminder.ResponseAcknowledged,
	})
	assert.ErrorIs(t, err, reminder.ErrReminderTerminal)
	assert.Len(t, fx.repo.logs, 1)
}

func TestRecordResponse_AccessDenied(t *testing.T) {
	fx := newFixture(t)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "mine", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityLow, Status: reminder.StatusSent,
		ScheduledTime: fx.now, MaxEscalations: 3,
	})

	err := fx.uc.RecordResponse(r.ReminderID, 2, reminder.RecordResponseRequest{
		Response: reminder.ResponseAcknowledged,
	})
	assert.ErrorIs(t, err, reminder.ErrReminderAccessDenied)
}

func TestSnoozeAndDismiss(t *testing.T) {
	fx := newFixture(t)
	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "later", Type: reminder.TypeEnergyCheck,
		Priority: reminder.PriorityLow, Status: reminder.StatusSent,
		ScheduledTime: fx.now, MaxEscalations: 3,
	})

	resp, err := fx.uc.Snooze(r.ReminderID, 1, 45)
	require.NoError(t, err)
	assert.Equal(t, reminder.StatusSnoozed, resp.Status)
	assert.Equal(t, fx.now.Add(45*time.Minute), resp.ScheduledTime)

	require.NoError(t, fx.uc.Dismiss(r.ReminderID, 1))
	assert.Equal(t, reminder.StatusDismissed, r.Status)

	err = fx.uc.Dismiss(r.ReminderID, 1)
	assert.ErrorIs(t, err, reminder.ErrReminderTerminal)
}

func TestProcessHyperfocusChecks_OncePerSession(t *testing.T) {
	fx := newFixture(t)
	fx.focus.active[1] = &focus.Session{
		SessionID: "s-long", UserID: 1, StartedAt: fx.now.Add(-2 * time.Hour),
	}
	fx.focus.active[2] = &focus.Session{
		SessionID: "s-short", UserID: 2, StartedAt: fx.now.Add(-30 * time.Minute),
	}

	require.NoError(t, fx.uc.ProcessHyperfocusChecks(context.Background()))

	var hyperfocus []*reminder.Reminder
	for _, r := range fx.repo.reminders {
		if r.Type == reminder.TypeHyperfocusBreak {
			hyperfocus = append(hyperfocus, r)
		}
	}
	require.Len(t, hyperfocus, 1)
	assert.Equal(t, uint(1), hyperfocus[0].UserID)
	assert.Equal(t, reminder.PriorityHigh, hyperfocus[0].Priority)
	require.NotNil(t, hyperfocus[0].FocusSessionID)
	assert.Equal(t, "s-long", *hyperfocus[0].FocusSessionID)

	// A second sweep over the same session creates nothing new.
	require.NoError(t, fx.uc.ProcessHyperfocusChecks(context.Background()))
	assert.Len(t, fx.repo.reminders, 1)
}

func TestProcessHyperfocusChecks_RespectsPreference(t *testing.T) {
	fx := newFixture(t)
	prefs := reminder.DefaultPreferences(1)
	prefs.TypesEnabled.HyperfocusBreak = false
	fx.repo.prefs[1] = prefs

	fx.focus.active[1] = &focus.Session{
		SessionID: "s-long", UserID: 1, StartedAt: fx.now.Add(-3 * time.Hour),
	}

	require.NoError(t, fx.uc.ProcessHyperfocusChecks(context.Background()))
	assert.Empty(t, fx.repo.reminders)
}

func TestProcessDeadlineChecks_PriorityLadder(t *testing.T) {
	fx := newFixture(t)

	due3h := fx.now.Add(3 * time.Hour)
	due20h := fx.now.Add(20 * time.Hour)
	due40h := fx.now.Add(40 * time.Hour)
	fx.tasks.tasks = []*task.Task{
		{TaskID: 1, UserID: 1, Title: "urgent one", DueDate: &due3h, Status: task.StatusTodo},
		{TaskID: 2, UserID: 1, Title: "high one", DueDate: &due20h, Status: task.StatusTodo},
		{TaskID: 3, UserID: 1, Title: "medium one", DueDate: &due40h, Status: task.StatusTodo},
	}

	require.NoError(t, fx.uc.ProcessDeadlineChecks(context.Background()))

	byTask := map[uint]*reminder.Reminder{}
	for _, r := range fx.repo.reminders {
		require.NotNil(t, r.TaskID)
		assert.Equal(t, reminder.TypeDeadlineWarning, r.Type)
		byTask[*r.TaskID] = r
	}
	require.Len(t, byTask, 3)
	assert.Equal(t, reminder.PriorityUrgent, byTask[1].Priority)
	assert.Equal(t, reminder.PriorityHigh, byTask[2].Priority)
	assert.Equal(t, reminder.PriorityMedium, byTask[3].Priority)

	// Re-running the sweep never duplicates warnings.
	require.NoError(t, fx.uc.ProcessDeadlineChecks(context.Background()))
	assert.Len(t, fx.repo.reminders, 3)
}

func TestScheduleAutomaticReminders(t *testing.T) {
	fx := newFixture(t)
	// Due Thursday morning; the 24h warning lands Wednesday late morning,
	// outside the default quiet hours.
	due := fx.now.Add(44 * time.Hour)
	fx.tasks.tasks = []*task.Task{
		{TaskID: 7, UserID: 1, Title: "thesis chapter", DueDate: &due, Status: task.StatusTodo},
	}

	require.NoError(t, fx.uc.ScheduleAutomaticReminders(1))

	var taskStart *reminder.Reminder
	deadlines := map[reminder.Priority]*reminder.Reminder{}
	for _, r := range fx.repo.reminders {
		switch r.Type {
		case reminder.TypeTaskStart:
			taskStart = r
		case reminder.TypeDeadlineWarning:
			deadlines[r.Priority] = r
		}
	}

	require.NotNil(t, taskStart)
	assert.Equal(t, reminder.PriorityMedium, taskStart.Priority)
	assert.Equal(t, fx.now.Add(5*time.Minute), taskStart.ScheduledTime)

	// A task this far out gets both the 24h heads-up and the 2h final call.
	require.Len(t, deadlines, 2)
	require.NotNil(t, deadlines[reminder.PriorityHigh])
	assert.Equal(t, due.Add(-24*time.Hour), deadlines[reminder.PriorityHigh].ScheduledTime)
	require.NotNil(t, deadlines[reminder.PriorityUrgent])
	assert.Equal(t, due.Add(-2*time.Hour), deadlines[reminder.PriorityUrgent].ScheduledTime)

	// Idempotent while the generated reminders are still live.
	require.NoError(t, fx.uc.ScheduleAutomaticReminders(1))
	assert.Len(t, fx.repo.reminders, 3)
}

func TestGetOptimalTimes(t *testing.T) {
	fx := newFixture(t)

	// No history at all: fixed fallback.
	times, err := fx.uc.GetOptimalTimes(1, reminder.TypeTaskStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "14:00", "16:00"}, times)

	eff5, eff3 := 5, 3
	addLog := func(hour int, eff *int) {
		fx.repo.logs = append(fx.repo.logs, &reminder.Log{
			ReminderID: 1, UserID: 1,
			SentTime: time.Date(2026, 3, 1, hour, 0, 0, 0, time.UTC),
			Response: reminder.ResponseAcknowledged, Effectiveness: eff,
		})
	}

	// Two rated responses at 09:00 stay below the sample floor, and unrated
	// responses never count as samples.
	addLog(9, &eff5)
	addLog(9, &eff5)
	addLog(10, nil)
	addLog(10, nil)
	addLog(10, nil)
	times, err = fx.uc.GetOptimalTimes(1, reminder.TypeTaskStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "14:00", "16:00"}, times)

	// Qualifying hours rank by mean effectiveness, best first.
	for i := 0; i < 3; i++ {
		addLog(10, &eff5)
	}
	for i := 0; i < 4; i++ {
		addLog(16, &eff3)
	}
	times, err = fx.uc.GetOptimalTimes(1, reminder.TypeTaskStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "16:00"}, times)
}

func TestGetPreferences_LazyDefaults(t *testing.T) {
	fx := newFixture(t)

	prefs, err := fx.uc.GetPreferences(9)
	require.NoError(t, err)
	assert.Equal(t, uint(9), prefs.UserID)
	assert.Equal(t, 10, prefs.MaxDailyReminders)

	// The row is persisted on first read.
	_, ok := fx.repo.prefs[9]
	assert.True(t, ok)
}

func TestUpdatePreferences_PartialUpdate(t *testing.T) {
	fx := newFixture(t)
	maxDaily := 4
	quiet := reminder.QuietHours{Start: "21:00", End: "09:00"}

	updated, err := fx.uc.UpdatePreferences(1, reminder.UpdatePreferencesRequest{
		MaxDailyReminders: &maxDaily,
		QuietHours:        &quiet,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, updated.MaxDailyReminders)
	assert.Equal(t, quiet, updated.QuietHours)
	// Untouched fields keep their defaults.
	assert.Equal(t, reminder.FrequencyModerate, updated.Frequency)
	assert.True(t, updated.EnergyBasedAdjustment)
}

func TestGetAnalytics(t *testing.T) {
	fx := newFixture(t)
	sentAt := fx.now.Add(-time.Hour)
	eff4, eff2 := 4, 2

	r := fx.seedReminder(&reminder.Reminder{
		UserID: 1, Title: "logged", Type: reminder.TypeTaskStart,
		Priority: reminder.PriorityMedium, Status: reminder.StatusAcknowledged,
		ScheduledTime: sentAt, MaxEscalations: 3,
	})
	fx.repo.logs = []*reminder.Log{
		{ReminderID: r.ReminderID, UserID: 1, SentTime: sentAt, Response: reminder.ResponseAcknowledged, ResponseSeconds: 20, Effectiveness: &eff4},
		{ReminderID: r.ReminderID, UserID: 1, SentTime: sentAt, Response: reminder.ResponseDismissed, ResponseSeconds: 40, Effectiveness: &eff2},
	}

	analytics, err := fx.uc.GetAnalytics(1, 30)
	require.NoError(t, err)

	assert.Equal(t, int64(2), analytics.TotalReminders)
	assert.Equal(t, 0.5, analytics.ResponseRate)
	assert.Equal(t, 30.0, analytics.AvgResponseTime)
	assert.Equal(t, 3.0, analytics.AvgEffectiveness)
	assert.Equal(t, 3.0, analytics.TypeEffect[string(reminder.TypeTaskStart)])
}
