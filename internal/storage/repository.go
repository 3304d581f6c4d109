package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in model.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) (int64, error)
	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	// TasksDueBetween returns every task whose due date lies in [start, end],
	// ordered by due date ascending. Completed tasks are included.
	TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)

	NotificationsEnabled(ctx context.Context) (bool, error)
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
}
