package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"focusflow/internal/modules/focus"
	resp "focusflow/pkg/lib/response"
)

// FocusController handles HTTP requests for focus sessions.
type FocusController struct {
	useCase  focus.UseCase
	log      *slog.Logger
	validate *validator.Validate
}

func NewFocusController(useCase focus.UseCase, log *slog.Logger) *FocusController {
	return &FocusController{
		useCase:  useCase,
		log:      log,
		validate: validator.New(),
	}
}

func userIDFromContext(r *http.Request) (uint, bool) {
	userID, ok := r.Context().Value("userId").(uint)
	return userID, ok
}

// StartSession
// @Summary Start a focus session
// @Tags focus
// @Accept json
// @Produce json
// @Param session body focus.StartSessionRequest false "Optional task binding"
// @Success 201 {object} focus.SessionResponse "Session started"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 409 {object} response.ErrorResponse "A session is already active"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /focus/sessions [post]
// @Security ApiKeyAuth
func (c *FocusController) StartSession(w http.ResponseWriter, r *http.Request) {
	op := "FocusController.StartSession"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	var req focus.StartSessionRequest
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("failed to decode request body", "error", err)
			resp.SendError(w, r, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	session, err := c.useCase.StartSession(userID, req)
	if err != nil {
		log.Error("usecase StartSession failed", "error", err)
		switch {
		case errors.Is(err, focus.ErrSessionAlreadyActive):
			resp.SendError(w, r, http.StatusConflict, err.Error())
		default:
			resp.SendError(w, r, http.StatusInternalServerError, "Failed to start focus session")
		}
		return
	}

	log.Info("focus session started", slog.String("sessionID", session.SessionID))
	resp.SendSuccess(w, r, http.StatusCreated, session)
}

// StopSession
// @Summary Stop the active focus session
// @Tags focus
// @Produce json
// @Success 200 {object} focus.SessionResponse "Session stopped"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 404 {object} response.ErrorResponse "No active session"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /focus/sessions/current/stop [post]
// @Security ApiKeyAuth
func (c *FocusController) StopSession(w http.ResponseWriter, r *http.Request) {
	op := "FocusController.StopSession"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	session, err := c.useCase.StopSession(userID)
	if err != nil {
		log.Error("usecase StopSession failed", "error", err)
		switch {
		case errors.Is(err, focus.ErrNoActiveSession):
			resp.SendError(w, r, http.StatusNotFound, err.Error())
		default:
			resp.SendError(w, r, http.StatusInternalServerError, "Failed to stop focus session")
		}
		return
	}

	log.Info("focus session stopped", slog.String("sessionID", session.SessionID))
	resp.SendSuccess(w, r, http.StatusOK, session)
}

// GetCurrentSession
// @Summary Get the active focus session
// @Tags focus
// @Produce json
// @Success 200 {object} focus.SessionResponse "Active session"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 404 {object} response.ErrorResponse "No active session"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /focus/sessions/current [get]
// @Security ApiKeyAuth
func (c *FocusController) GetCurrentSession(w http.ResponseWriter, r *http.Request) {
	op := "FocusController.GetCurrentSession"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	session, err := c.useCase.GetCurrentSession(userID)
	if err != nil {
		switch {
		case errors.Is(err, focus.ErrNoActiveSession):
			resp.SendError(w, r, http.StatusNotFound, err.Error())
		default:
			log.Error("usecase GetCurrentSession failed", "error", err)
			resp.SendError(w, r, http.StatusInternalServerError, "Failed to get focus session")
		}
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, session)
}
