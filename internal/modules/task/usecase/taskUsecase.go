package usecase

import (
	"log/slog"
	"time"

	"focusflow/internal/modules/task"
)

type TaskUseCase struct {
	repo task.Repo
	log  *slog.Logger
	now  func() time.Time
}

func NewTaskUseCase(repo task.Repo, log *slog.Logger) task.UseCase {
	return &TaskUseCase{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

func (uc *TaskUseCase) CreateTask(userID uint, req task.CreateTaskRequest) (*task.TaskResponse, error) {
	op := "TaskUseCase.CreateTask"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	priority := 1
	if req.Priority != nil {
		priority = *req.Priority
	}

	taskModel := &task.Task{
		UserID:           userID,
		Title:            req.Title,
		Description:      req.Description,
		DueDate:          req.DueDate,
		Status:           task.StatusTodo,
		Priority:         priority,
		EstimatedMinutes: req.EstimatedMinutes,
	}

	created, err := uc.repo.CreateTask(taskModel)
	if err != nil {
		log.Error("failed to create task", "error", err)
		return nil, err
	}

	return task.ToTaskResponse(created), nil
}

func (uc *TaskUseCase) GetTask(taskID uint, userID uint) (*task.TaskResponse, error) {
	taskModel, err := uc.repo.GetTaskByID(taskID, userID)
	if err != nil {
		return nil, err
	}
	return task.ToTaskResponse(taskModel), nil
}

func (uc *TaskUseCase) GetTasks(userID uint, req task.GetTasksRequest) ([]*task.TaskResponse, error) {
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 50
	}
	page := req.Page
	if page == 0 {
		page = 1
	}

	tasks, err := uc.repo.GetTasks(task.GetTasksParams{
		UserID:    userID,
		Status:    req.Status,
		DueBefore: req.DueBefore,
		DueAfter:  req.DueAfter,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return task.ToTaskResponseList(tasks), nil
}

func (uc *TaskUseCase) UpdateTask(taskID uint, userID uint, req task.UpdateTaskRequest) (*task.TaskResponse, error) {
	op := "TaskUseCase.UpdateTask"
	log := uc.log.With(slog.String("op", op), slog.Uint64("taskID", uint64(taskID)))

	taskModel, err := uc.repo.GetTaskByID(taskID, userID)
	if err != nil {
		return nil, err
	}
	if taskModel.IsCompleted() {
		return nil, task.ErrTaskAlreadyCompleted
	}

	if req.Title != nil {
		taskModel.Title = *req.Title
	}
	if req.Description != nil {
		taskModel.Description = req.Description
	}
	if req.DueDate != nil {
		taskModel.DueDate = req.DueDate
	}
	if req.Priority != nil {
		taskModel.Priority = *req.Priority
	}
	if req.EstimatedMinutes != nil {
		taskModel.EstimatedMinutes = req.EstimatedMinutes
	}
	if req.Status != nil {
		taskModel.Status = *req.Status
		now := uc.now()
		switch *req.Status {
		case task.StatusInProgress:
			if taskModel.StartedAt == nil {
				taskModel.StartedAt = &now
			}
		case task.StatusDone:
			taskModel.CompletedAt = &now
		}
	}
	taskModel.UpdatedAt = uc.now()

	updated, err := uc.repo.UpdateTask(taskModel)
	if err != nil {
		log.Error("failed to update task", "error", err)
		return nil, err
	}

	return task.ToTaskResponse(updated), nil
}

func (uc *TaskUseCase) CompleteTask(taskID uint, userID uint) (*task.TaskResponse, error) {
	op := "TaskUseCase.CompleteTask"
	log := uc.log.With(slog.String("op", op), slog.Uint64("taskID", uint64(taskID)))

	taskModel, err := uc.repo.GetTaskByID(taskID, userID)
	if err != nil {
		return nil, err
	}
	if taskModel.IsCompleted() {
		return nil, task.ErrTaskAlreadyCompleted
	}

	now := uc.now()
	taskModel.Status = task.StatusDone
	taskModel.CompletedAt = &now
	taskModel.UpdatedAt = now

	updated, err := uc.repo.UpdateTask(taskModel)
	if err != nil {
		log.Error("failed to complete task", "error", err)
		return nil, err
	}

	log.Info("task completed", slog.Uint64("taskID", uint64(taskID)))
	return task.ToTaskResponse(updated), nil
}
