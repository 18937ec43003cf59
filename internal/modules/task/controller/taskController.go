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

	"focusflow/internal/modules/task"
	resp "focusflow/pkg/lib/response"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	useCase  task.UseCase
	log      *slog.Logger
	validate *validator.Validate
}

func NewTaskController(useCase task.UseCase, log *slog.Logger) *TaskController {
	return &TaskController{
		useCase:  useCase,
		log:      log,
		validate: validator.New(),
	}
}

func userIDFromContext(r *http.Request) (uint, bool) {
	userID, ok := r.Context().Value("userId").(uint)
	return userID, ok
}

// CreateTask
// @Summary Create a new task
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body task.CreateTaskRequest true "Task creation data"
// @Success 201 {object} task.TaskResponse "Task created successfully"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload or validation error"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /tasks [post]
// @Security ApiKeyAuth
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	op := "TaskController.CreateTask"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	var req task.CreateTaskRequest
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

	taskResponse, err := c.useCase.CreateTask(userID, req)
	if err != nil {
		log.Error("usecase CreateTask failed", "error", err)
		switch {
		case errors.Is(err, task.ErrTaskInvalidInput):
			resp.SendError(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			resp.SendError(w, r, http.StatusInternalServerError, "Failed to create task")
		}
		return
	}

	log.Info("task created successfully", slog.Uint64("taskID", uint64(taskResponse.TaskID)))
	resp.SendSuccess(w, r, http.StatusCreated, taskResponse)
}

// GetTask
// @Summary Get a specific task by ID
// @Tags tasks
// @Produce json
// @Param taskID path int true "Task ID"
// @Success 200 {object} task.TaskResponse "Task retrieved successfully"
// @Failure 400 {object} response.ErrorResponse "Invalid Task ID"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Access denied"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /tasks/{taskID} [get]
// @Security ApiKeyAuth
func (c *TaskController) GetTask(w http.ResponseWriter, r *http.Request) {
	op := "TaskController.GetTask"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	taskID, err := strconv.ParseUint(chi.URLParam(r, "taskID"), 10, 32)
	if err != nil {
		log.Warn("invalid task ID in path", "error", err)
		resp.SendError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	taskResponse, err := c.useCase.GetTask(uint(taskID), userID)
	if err != nil {
		c.sendTaskError(w, r, log, err, "Failed to get task")
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, taskResponse)
}

// GetTasks
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param status query string false "Filter by status" Enums(todo, in_progress, done)
// @Param due_before query string false "Only tasks due before this RFC3339 timestamp"
// @Param due_after query string false "Only tasks due after this RFC3339 timestamp"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {array} task.TaskResponse "Tasks retrieved successfully"
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /tasks [get]
// @Security ApiKeyAuth
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	op := "TaskController.GetTasks"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	req := task.GetTasksRequest{Page: 1, PageSize: 20}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		req.Status = &s
	}
	if v := q.Get("due_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			resp.SendError(w, r, http.StatusBadRequest, "Invalid due_before timestamp")
			return
		}
		req.DueBefore = &t
	}
	if v := q.Get("due_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			resp.SendError(w, r, http.StatusBadRequest, "Invalid due_after timestamp")
			return
		}
		req.DueAfter = &t
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

	tasks, err := c.useCase.GetTasks(userID, req)
	if err != nil {
		log.Error("usecase GetTasks failed", "error", err)
		resp.SendError(w, r, http.StatusInternalServerError, "Failed to get tasks")
		return
	}

	resp.SendSuccess(w, r, http.StatusOK, tasks)
}

// UpdateTask
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param taskID path int true "Task ID"
// @Param task body task.UpdateTaskRequest true "Fields to update"
// @Success 200 {object} task.TaskResponse "Task updated successfully"
// @Failure 400 {object} response.ErrorResponse "Invalid request payload or task ID"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Access denied"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /tasks/{taskID} [put]
// @Security ApiKeyAuth
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	op := "TaskController.UpdateTask"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	taskID, err := strconv.ParseUint(chi.URLParam(r, "taskID"), 10, 32)
	if err != nil {
		resp.SendError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req task.UpdateTaskRequest
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

	taskResponse, err := c.useCase.UpdateTask(uint(taskID), userID, req)
	if err != nil {
		c.sendTaskError(w, r, log, err, "Failed to update task")
		return
	}

	log.Info("task updated successfully", slog.Uint64("taskID", taskID))
	resp.SendSuccess(w, r, http.StatusOK, taskResponse)
}

// CompleteTask
// @Summary Mark a task as done
// @Tags tasks
// @Produce json
// @Param taskID path int true "Task ID"
// @Success 200 {object} task.TaskResponse "Task completed"
// @Failure 400 {object} response.ErrorResponse "Invalid task ID"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Access denied"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 409 {object} response.ErrorResponse "Task already completed"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /tasks/{taskID}/complete [post]
// @Security ApiKeyAuth
func (c *TaskController) CompleteTask(w http.ResponseWriter, r *http.Request) {
	op := "TaskController.CompleteTask"
	log := c.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Error("userID not found in context")
		resp.SendError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.Uint64("userID", uint64(userID)))

	taskID, err := strconv.ParseUint(chi.URLParam(r, "taskID"), 10, 32)
	if err != nil {
		resp.SendError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	taskResponse, err := c.useCase.CompleteTask(uint(taskID), userID)
	if err != nil {
		c.sendTaskError(w, r, log, err, "Failed to complete task")
		return
	}

	log.Info("task completed", slog.Uint64("taskID", taskID))
	resp.SendSuccess(w, r, http.StatusOK, taskResponse)
}

func (c *TaskController) sendTaskError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, fallback string) {
	log.Error("usecase call failed", "error", err)
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		resp.SendError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, task.ErrTaskAccessDenied):
		resp.SendError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, task.ErrTaskAlreadyCompleted):
		resp.SendError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, task.ErrTaskInvalidInput):
		resp.SendError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		resp.SendError(w, r, http.StatusInternalServerError, fallback)
	}
}
