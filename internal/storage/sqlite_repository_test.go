package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "remindd-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func mustCreate(t *testing.T, repo *SQLiteRepository, task model.Task) int64 {
	t.Helper()
	id, err := repo.CreateTask(context.Background(), task)
	if err != nil {
		t.Fatalf("create task %q: %v", task.Title, err)
	}
	return id
}

func TestTaskCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	due := parseRFC3339(t, "2026-02-09T15:00:00Z")

	id := mustCreate(t, repo, model.Task{
		Title:       "Write schema",
		Description: "Design storage layout",
		DueDate:     due,
		Priority:    model.PriorityHigh,
		CreatedAt:   created,
	})
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := repo.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != "Write schema" || got.Priority != model.PriorityHigh || !got.DueDate.Equal(due) || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected task get result: %#v", got)
	}

	got.Title = "Write schema v2"
	got.Completed = true
	rows, err := repo.UpdateTask(ctx, got)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row affected, got %d", rows)
	}

	updated, err := repo.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("get updated task: %v", err)
	}
	if !updated.Completed || updated.Title != "Write schema v2" {
		t.Fatalf("unexpected updated task: %#v", updated)
	}

	if err := repo.DeleteTask(ctx, id); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := repo.GetTask(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if err := repo.DeleteTask(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got: %v", err)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	repo := setupRepo(t)
	id := mustCreate(t, repo, model.Task{Title: "No due date"})

	got, err := repo.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Priority != model.PriorityMedium {
		t.Fatalf("expected default medium priority, got %v", got.Priority)
	}
	if got.HasDueDate() {
		t.Fatalf("expected no due date, got %v", got.DueDate)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
}

func TestCreateTaskRejectsInvalid(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.CreateTask(context.Background(), model.Task{Title: ""})
	if !errors.Is(err, model.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestUpdateMissingTask(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.UpdateTask(context.Background(), model.Task{ID: 999, Title: "ghost", Priority: model.PriorityLow})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTasksDueBetweenInclusiveAndOrdered(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	late := mustCreate(t, repo, model.Task{Title: "late", DueDate: now.Add(30 * time.Minute)})
	early := mustCreate(t, repo, model.Task{Title: "early", DueDate: now})
	mid := mustCreate(t, repo, model.Task{Title: "mid", DueDate: now.Add(10 * time.Minute), Completed: true})
	mustCreate(t, repo, model.Task{Title: "outside", DueDate: now.Add(31 * time.Minute)})
	mustCreate(t, repo, model.Task{Title: "undated"})

	got, err := repo.TasksDueBetween(ctx, now, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("tasks due between: %v", err)
	}
	want := []int64{early, mid, late}
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %#v", len(want), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, got[i].ID)
		}
	}
	if !got[1].Completed {
		t.Fatal("completed tasks must be returned; filtering is the caller's job")
	}
}

func TestTasksDueBetweenSkipsUndated(t *testing.T) {
	repo := setupRepo(t)
	mustCreate(t, repo, model.Task{Title: "undated"})

	got, err := repo.TasksDueBetween(context.Background(), time.UnixMilli(-1000), time.UnixMilli(1000))
	if err != nil {
		t.Fatalf("tasks due between: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tasks, got %#v", got)
	}
}

func TestListTasksFilters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	undated := mustCreate(t, repo, model.Task{Title: "undated"})
	soon := mustCreate(t, repo, model.Task{Title: "soon", DueDate: now.Add(time.Hour)})
	done := mustCreate(t, repo, model.Task{Title: "done", DueDate: now, Completed: true})

	open, err := repo.ListTasks(ctx, TaskListFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(open) != 2 || open[0].ID != soon || open[1].ID != undated {
		t.Fatalf("unexpected open list: %#v", open)
	}

	all, err := repo.ListTasks(ctx, TaskListFilter{IncludeCompleted: true, DueBefore: now})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(all) != 1 || all[0].ID != done {
		t.Fatalf("unexpected due-before list: %#v", all)
	}

	page, err := repo.ListTasks(ctx, TaskListFilter{IncludeCompleted: true, Offset: 2})
	if err != nil {
		t.Fatalf("list tasks with offset: %v", err)
	}
	if len(page) != 1 || page[0].ID != undated {
		t.Fatalf("unexpected paged list: %#v", page)
	}
}

func TestNotificationsPreference(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	enabled, err := repo.NotificationsEnabled(ctx)
	if err != nil {
		t.Fatalf("read preference: %v", err)
	}
	if !enabled {
		t.Fatal("notifications must default to enabled")
	}

	if err := repo.SetNotificationsEnabled(ctx, false); err != nil {
		t.Fatalf("disable notifications: %v", err)
	}
	if enabled, _ = repo.NotificationsEnabled(ctx); enabled {
		t.Fatal("expected notifications disabled")
	}

	if err := repo.SetNotificationsEnabled(ctx, true); err != nil {
		t.Fatalf("enable notifications: %v", err)
	}
	if enabled, _ = repo.NotificationsEnabled(ctx); !enabled {
		t.Fatal("expected notifications enabled")
	}
}
