package database

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"focusflow/internal/modules/task"
)

type TaskDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTaskDatabase(db *gorm.DB, log *slog.Logger) *TaskDatabase {
	return &TaskDatabase{
		db:  db,
		log: log,
	}
}

func (r *TaskDatabase) CreateTask(taskModel *task.Task) (*task.Task, error) {
	op := "TaskDatabase.CreateTask"
	log := r.log.With(slog.String("op", op), slog.String("title", taskModel.Title))

	if err := r.db.Create(taskModel).Error; err != nil {
		log.Error("failed to create task in DB", "error", err)
		return nil, task.ErrTaskInternal
	}

	log.Info("task created successfully in DB", slog.Uint64("taskID", uint64(taskModel.TaskID)))
	return taskModel, nil
}

func (r *TaskDatabase) GetTaskByID(taskID uint, userID uint) (*task.Task, error) {
	op := "TaskDatabase.GetTaskByID"
	log := r.log.With(slog.String("op", op), slog.Uint64("taskID", uint64(taskID)))

	var taskModel task.Task
	if err := r.db.Where("user_id = ?", userID).First(&taskModel, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("task not found by ID")
			return nil, task.ErrTaskNotFound
		}
		log.Error("failed to get task by ID from DB", "error", err)
		return nil, task.ErrTaskInternal
	}

	return &taskModel, nil
}

func (r *TaskDatabase) GetTasks(params task.GetTasksParams) ([]*task.Task, error) {
	op := "TaskDatabase.GetTasks"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(params.UserID)))

	query := r.db.Model(&task.Task{}).Where("user_id = ?", params.UserID)

	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	}
	if params.DueBefore != nil {
		query = query.Where("due_date <= ?", *params.DueBefore)
	}
	if params.DueAfter != nil {
		query = query.Where("due_date >= ?", *params.DueAfter)
	}

	query = query.Order("due_date ASC NULLS LAST, priority DESC, created_at DESC")
	if params.Limit > 0 {
		query = query.Limit(params.Limit).Offset(params.Offset)
	}

	var tasks []*task.Task
	if err := query.Find(&tasks).Error; err != nil {
		log.Error("failed to get tasks from DB", "error", err)
		return nil, task.ErrTaskInternal
	}

	return tasks, nil
}

func (r *TaskDatabase) UpdateTask(taskModel *task.Task) (*task.Task, error) {
	op := "TaskDatabase.UpdateTask"
	log := r.log.With(slog.String("op", op), slog.Uint64("taskID", uint64(taskModel.TaskID)))

	if err := r.db.Save(taskModel).Error; err != nil {
		log.Error("failed to update task in DB", "error", err)
		return nil, task.ErrTaskInternal
	}

	return taskModel, nil
}

func (r *TaskDatabase) GetTasksNearingDeadline(now time.Time, horizon time.Duration) ([]*task.Task, error) {
	op := "TaskDatabase.GetTasksNearingDeadline"
	log := r.log.With(slog.String("op", op))

	var tasks []*task.Task
	err := r.db.
		Where("completed_at IS NULL AND status <> ?", task.StatusDone).
		Where("due_date IS NOT NULL AND due_date > ? AND due_date <= ?", now, now.Add(horizon)).
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		log.Error("failed to get tasks nearing deadline from DB", "error", err)
		return nil, task.ErrTaskInternal
	}

	return tasks, nil
}

func (r *TaskDatabase) GetOpenDatedTasks(userID uint) ([]*task.Task, error) {
	op := "TaskDatabase.GetOpenDatedTasks"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var tasks []*task.Task
	err := r.db.
		Where("user_id = ? AND completed_at IS NULL AND status <> ?", userID, task.StatusDone).
		Where("due_date IS NOT NULL").
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		log.Error("failed to get open dated tasks from DB", "error", err)
		return nil, task.ErrTaskInternal
	}

	return tasks, nil
}
