package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/remindd/internal/model"
)

const taskColumns = `id, title, description, due_date, priority, completed, created_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded migrations. The daemon and the CLI share the file, so writers wait
// on the busy timeout instead of failing immediately.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) (int64, error) {
	if in.Priority == 0 {
		in.Priority = model.PriorityMedium
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, due_date, priority, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, in.DueDateMillis(), int(in.Priority), boolInt(in.Completed), in.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id int64) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask rewrites every mutable column and reports the number of rows
// affected. Zero rows is reported as ErrNotFound.
func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?, completed = ?
		WHERE id = ?`,
		in.Title, in.Description, in.DueDateMillis(), int(in.Priority), boolInt(in.Completed), in.ID,
	)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	return affected, nil
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if !filter.IncludeCompleted {
		clauses = append(clauses, "completed = 0")
	}
	if !filter.DueBefore.IsZero() {
		clauses = append(clauses, "due_date > 0 AND due_date <= ?")
		args = append(args, filter.DueBefore.UnixMilli())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	// Tasks without a due date sort last.
	query += ` ORDER BY due_date = 0, due_date ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)
	return r.queryTasks(ctx, query, args...)
}

func (r *SQLiteRepository) TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	return r.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE due_date > 0 AND due_date >= ? AND due_date <= ?
		ORDER BY due_date ASC, id ASC`,
		start.UnixMilli(), end.UnixMilli(),
	)
}

func (r *SQLiteRepository) NotificationsEnabled(ctx context.Context) (bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, prefNotificationsEnabled).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return true, fmt.Errorf("parse %s preference %q: %w", prefNotificationsEnabled, raw, err)
	}
	return enabled, nil
}

func (r *SQLiteRepository) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		prefNotificationsEnabled, strconv.FormatBool(enabled),
	)
	return err
}

func (r *SQLiteRepository) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var due, created int64
	var priority, completed int
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &due, &priority, &completed, &created); err != nil {
		return model.Task{}, err
	}
	out.DueDate = model.FromMillis(due)
	out.Priority = model.Priority(priority)
	out.Completed = completed == 1
	out.CreatedAt = model.FromMillis(created)
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
