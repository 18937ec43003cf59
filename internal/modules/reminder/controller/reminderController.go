package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"focusflow/internal/modules/reminder"
	resp "focusflow/pkg/lib/response"
)

// ReminderController handles HTTP requests for reminders, preferences and
// reminder analytics.
type ReminderController struct {
	useCase  reminder.UseCase
	log      *slog.Logger
	validate *validator.Validate
}

func NewReminderController(useCase reminder.UseCase, log *slog.Logger) *ReminderController {
	return &ReminderController{
		useCase:  useCase,
		log:      log,
		validate: validator.New(),
	}
}

func userIDFromContext(r *http.Request) (uint, bool) {
	userID, ok := r.Context().Value("userId").(uint)
	return userID, ok
}

func reminderIDFromPath(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "reminderID"), 10, 32)
	return uint(id), err
}

// CreateReminder
// @Summary Create a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Param reminder body reminder.CreateReminderRequest true "Reminder data"
// @Success 201 {object} reminder.ReminderResponse "Reminder created; scheduled_time may differ from the requested one after timing optimization"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload or validation error"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 422 {object} response.ErrorResponse "Scheduled time in the past"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders [post]
// @Security ApiKeyAuth
func (c *ReminderController) CreateReminder(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.CreateReminder"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	var req reminder.CreateReminderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", "error", err)
		resp.SendError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := c.validate.Struct(req); err != nil {
		log.Warn("validation failed", "error", err)
		resp.SendValidationError(w, r, err)
		return
	}

	reminderResponse, err := c.useCase.CreateReminder(userID, req)
	if err != nil {
		log.Error("usecase CreateReminder failed", "error", err)
		switch {
		case errors.Is(err, reminder.ErrReminderInvalidInput):
			resp.SendError(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			resp.SendError(w, r, http.StatusInternalServerError, "Failed to create reminder")
		}
		return
	}

	log.Info("reminder created", slog.Uint64("reminderID", uint64(reminderResponse.ReminderID)))
	resp.SendSuccess(w, r, http.StatusCreated, reminderResponse)
}

// GetReminders
// @Summary List reminders
// @Tags reminders
// @Produce json
// @Param status query string false "Filter by status" Enums(scheduled, sent, acknowledged, snoozed, dismissed, expired, cancelled)
// @Param type query string false "Filter by reminder type"
// @Param priority query string false "Filter by priority" Enums(low, medium, high, urgent)
// @Param from query string false "Scheduled at or after this RFC3339 timestamp"
// @Param to query string false "Scheduled at or before this RFC3339 timestamp"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {array} reminder.ReminderResponse "Reminders retrieved successfully"
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders [get]
// @Security ApiKeyAuth
func (c *ReminderController) GetReminders(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.GetReminders"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	req := reminder.GetRemindersRequest{Page: 1, PageSize: 20}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		s := reminder.Status(v)
		req.Status = &s
	}
	if v := q.Get("type"); v != "" {
		t := reminder.ReminderType(v)
		req.Type = &t
	}
	if v := q.Get("priority"); v != "" {
		p := reminder.Priority(v)
		req.Priority = &p
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			resp.SendError(w, r, http.StatusBadRequest, "Invalid 'from' timestamp")
			return
		}
		req.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			resp.SendError(w, r, http.StatusBadRequest, "Invalid 'to' timestamp")
			return
		}
		req.To = &t
	}
	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil {
			req.Page = page
		}
	}
	if v := q.Get("page_size"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			req.PageSize = size
		}
	}

	if err := c.validate.Struct(req); err != nil {
		log.Warn("validation failed", "error", err)
		resp.SendValidationError(w, r, err)
		return
	}

	reminders, err := c.useCase.GetReminders(userID, req)
	if err != nil {
		log.Error("usecase GetReminders failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to get reminders")
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, reminders)
}

// RecordResponse
// @Summary Record the user's response to a sent reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Param reminderID path int true "Reminder ID"
// @Param response body reminder.RecordResponseRequest true "Response data"
// @Success 200 {object} response.SuccessResponse "Response recorded"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload or reminder ID"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Access denied"
// @Failure 404 {object} response.ErrorResponse "Reminder not found"
// @Failure 409 {object} response.ErrorResponse "Reminder already in a terminal state"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/{reminderID}/response [post]
// @Security ApiKeyAuth
func (c *ReminderController) RecordResponse(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.RecordResponse"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	reminderID, err := reminderIDFromPath(r)
	if err != nil {
		resp.SendError(w, r, http.StatusBadRequest, "Invalid reminder ID")
		return
	}

	var req reminder.RecordResponseRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", "error", err)
		resp.SendError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := c.validate.Struct(req); err != nil {
		log.Warn("validation failed", "error", err)
		resp.SendValidationError(w, r, err)
		return
	}

	if err := c.useCase.RecordResponse(reminderID, userID, req); err != nil {
		c.sendReminderError(w, r, log, err, "Failed to record response")
		return
	}

	log.Info("reminder response recorded", slog.Uint64("reminderID", uint64(reminderID)))
	resp.SendOK(w, r, http.StatusOK)
}

// Snooze
// @Summary Snooze a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Param reminderID path int true "Reminder ID"
// @Param snooze body reminder.SnoozeRequest true "Snooze duration in minutes"
// @Success 200 {object} reminder.ReminderResponse "Reminder snoozed"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload or reminder ID"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Access denied"
// @Failure 404 {object} response.ErrorResponse "Reminder not found"
// @Failure 409 {object} response.ErrorResponse "Reminder already in a terminal state"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/{reminderID}/snooze [post]
// @Security ApiKeyAuth
func (c *ReminderController) Snooze(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.Snooze"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	reminderID, err := reminderIDFromPath(r)
	if err != nil {
		resp.SendError(w, r, http.StatusBadRequest, "Invalid reminder ID")
		return
	}

	var req reminder.SnoozeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", "error", err)
		resp.SendError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := c.validate.Struct(req); err != nil {
		log.Warn("validation failed", "error", err)
		resp.SendValidationError(w, r, err)
		return
	}

	reminderResponse, err := c.useCase.Snooze(reminderID, userID, req.Minutes)
	if err != nil {
		c.sendReminderError(w, r, log, err, "Failed to snooze reminder")
		return
	}

	log.Info("reminder snoozed", slog.Uint64("reminderID", uint64(reminderID)), slog.Int("minutes", req.Minutes))
	resp.SendSuccess(w, r, http.StatusOK, reminderResponse)
}

// Dismiss
// @Summary Dismiss a reminder
// @Tags reminders
// @Produce json
// @Param reminderID path int true "Reminder ID"
// @Success 200 {object} response.SuccessResponse "Reminder dismissed"
// @Failure 400 {object} response.ErrorResponse "Invalid reminder ID"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Access denied"
// @Failure 404 {object} response.ErrorResponse "Reminder not found"
// @Failure 409 {object} response.ErrorResponse "Reminder already in a terminal state"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/{reminderID}/dismiss [post]
// @Security ApiKeyAuth
func (c *ReminderController) Dismiss(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.Dismiss"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	reminderID, err := reminderIDFromPath(r)
	if err != nil {
		resp.SendError(w, r, http.StatusBadRequest, "Invalid reminder ID")
		return
	}

	if err := c.useCase.Dismiss(reminderID, userID); err != nil {
		c.sendReminderError(w, r, log, err, "Failed to dismiss reminder")
		return
	}

	log.Info("reminder dismissed", slog.Uint64("reminderID", uint64(reminderID)))
	resp.SendOK(w, r, http.StatusOK)
}

// GetPreferences
// @Summary Get reminder preferences
// @Tags preferences
// @Produce json
// @Success 200 {object} reminder.PreferencesResponse "Preferences; defaults are created on first read"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/preferences [get]
// @Security ApiKeyAuth
func (c *ReminderController) GetPreferences(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.GetPreferences"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	prefs, err := c.useCase.GetPreferences(userID)
	if err != nil {
		log.Error("usecase GetPreferences failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to get preferences")
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, prefs)
}

// UpdatePreferences
// @Summary Update reminder preferences
// @Tags preferences
// @Accept json
// @Produce json
// @Param preferences body reminder.UpdatePreferencesRequest true "Fields to update; omitted fields keep their current value"
// @Success 200 {object} reminder.PreferencesResponse "Updated preferences"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload or validation error"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/preferences [put]
// @Security ApiKeyAuth
func (c *ReminderController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.UpdatePreferences"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	var req reminder.UpdatePreferencesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", "error", err)
		resp.SendError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := c.validate.Struct(req); err != nil {
		log.Warn("validation failed", "error", err)
		resp.SendValidationError(w, r, err)
		return
	}

	prefs, err := c.useCase.UpdatePreferences(userID, req)
	if err != nil {
		log.Error("usecase UpdatePreferences failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	log.Info("preferences updated")
	resp.SendSuccess(w, r, http.StatusOK, prefs)
}

// GetOptimalTimes
// @Summary Get the best times of day for a reminder type
// @Tags reminders
// @Produce json
// @Param type query string false "Reminder type" Enums(task_start, break_reminder, deadline_warning, energy_check, hyperfocus_break, medication_reminder, transition_warning)
// @Success 200 {array} string "Up to five HH:MM slots, best first"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/optimal-times [get]
// @Security ApiKeyAuth
func (c *ReminderController) GetOptimalTimes(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.GetOptimalTimes"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reminderType := reminder.ReminderType(r.URL.Query().Get("type"))

	times, err := c.useCase.GetOptimalTimes(userID, reminderType)
	if err != nil {
		log.Error("usecase GetOptimalTimes failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to get optimal times")
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, times)
}

// GetAnalytics
// @Summary Get reminder response analytics
// @Tags reminders
// @Produce json
// @Param days query int false "Analysis window in days (default 30)"
// @Success 200 {object} reminder.AnalyticsResponse "Aggregated response analytics"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/analytics [get]
// @Security ApiKeyAuth
func (c *ReminderController) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.GetAnalytics"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			days = parsed
		}
	}

	analytics, err := c.useCase.GetAnalytics(userID, days)
	if err != nil {
		log.Error("usecase GetAnalytics failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to get analytics")
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, analytics)
}

// ScheduleAutomatic
// @Summary Generate task-start and deadline reminders for open tasks
// @Tags reminders
// @Produce json
// @Success 200 {object} response.SuccessResponse "Generation finished; already covered tasks are skipped"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /reminders/schedule-automatic [post]
// @Security ApiKeyAuth
func (c *ReminderController) ScheduleAutomatic(w http.ResponseWriter, r *http.Request) {
	op := "ReminderController.ScheduleAutomatic"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	if err := c.useCase.ScheduleAutomaticReminders(userID); err != nil {
		log.Error("usecase ScheduleAutomaticReminders failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to schedule automatic reminders")
		return
	}

	resp.SendOK(w, r, http.StatusOK)
}

func (c *ReminderController) sendReminderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, fallback string) {
	log.Error("usecase call failed", "error", err)
	switch {
	case errors.Is(err, reminder.ErrReminderNotFound):
		resp.SendError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, reminder.ErrReminderAccessDenied):
		resp.SendError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, reminder.ErrReminderTerminal):
		resp.SendError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, reminder.ErrReminderInvalidInput):
		resp.SendError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		resp.SendError(w, r, http.StatusInternalServerError, fallback)
	}
}
