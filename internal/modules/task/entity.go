package task

import (
	"time"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Task is the GORM model for the 'tasks' table.
type Task struct {
	TaskID           uint       `gorm:"primaryKey;column:task_id;autoIncrement"`
	UserID           uint       `gorm:"column:user_id;not null"`
	Title            string     `gorm:"type:varchar(255);not null;column:title"`
	Description      *string    `gorm:"type:text;column:description"`
	DueDate          *time.Time `gorm:"column:due_date"`
	Status           string     `gorm:"type:varchar(50);default:'todo';not null;column:status"`
	Priority         int        `gorm:"default:1;not null;column:priority"`
	EstimatedMinutes *int       `gorm:"column:estimated_minutes"`
	StartedAt        *time.Time `gorm:"column:started_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) IsStarted() bool {
	return t.StartedAt != nil || t.Status == StatusInProgress
}

func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil || t.Status == StatusDone
}

type TaskResponse struct {
	TaskID           uint       `json:"task_id"`
	UserID           uint       `json:"user_id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Status           string     `json:"status"`
	Priority         int        `json:"priority"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func ToTaskResponse(t *Task) *TaskResponse {
	if t == nil {
		return nil
	}
	return &TaskResponse{
		TaskID:           t.TaskID,
		UserID:           t.UserID,
		Title:            t.Title,
		Description:      t.Description,
		DueDate:          t.DueDate,
		Status:           t.Status,
		Priority:         t.Priority,
		EstimatedMinutes: t.EstimatedMinutes,
		StartedAt:        t.StartedAt,
		CompletedAt:      t.CompletedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func ToTaskResponseList(tasks []*Task) []*TaskResponse {
	if len(tasks) == 0 {
		return []*TaskResponse{}
	}
	responses := make([]*TaskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = ToTaskResponse(t)
	}
	return responses
}

type CreateTaskRequest struct {
	Title            string     `json:"title" validate:"required,min=1,max=255"`
	Description      *string    `json:"description,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Priority         *int       `json:"priority,omitempty" validate:"omitempty,gte=1,lte=4"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty" validate:"omitempty,gte=1"`
}

type UpdateTaskRequest struct {
	Title            *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description      *string    `json:"description,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Status           *string    `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	Priority         *int       `json:"priority,omitempty" validate:"omitempty,gte=1,lte=4"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty" validate:"omitempty,gte=1"`
}

type GetTasksRequest struct {
	Status    *string `validate:"omitempty,oneof=todo in_progress done"`
	DueBefore *time.Time
	DueAfter  *time.Time
	Page      int `validate:"gte=1"`
	PageSize  int `validate:"gte=1,lte=100"`
}

type GetTasksParams struct {
	UserID    uint
	Status    *string
	DueBefore *time.Time
	DueAfter  *time.Time
	Limit     int
	Offset    int
}

type UseCase interface {
	CreateTask(userID uint, req CreateTaskRequest) (*TaskResponse, error)
	GetTask(taskID uint, userID uint) (*TaskResponse, error)
	GetTasks(userID uint, req GetTasksRequest) ([]*TaskResponse, error)
	UpdateTask(taskID uint, userID uint, req UpdateTaskRequest) (*TaskResponse, error)
	CompleteTask(taskID uint, userID uint) (*TaskResponse, error)
}

type Repo interface {
	CreateTask(taskModel *Task) (*Task, error)
	GetTaskByID(taskID uint, userID uint) (*Task, error)
	GetTasks(params GetTasksParams) ([]*Task, error)
	UpdateTask(taskModel *Task) (*Task, error)

	// GetTasksNearingDeadline returns incomplete, dated tasks due between now
	// and now+horizon, for the deadline-watch sweep.
	GetTasksNearingDeadline(now time.Time, horizon time.Duration) ([]*Task, error)
	// GetOpenDatedTasks returns a user's incomplete tasks that carry a due
	// date, for automatic reminder generation.
	GetOpenDatedTasks(userID uint) ([]*Task, error)
}
