package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/google/uuid"
)

const timestampLayout = time.RFC3339Nano

const taskColumns = `id, title, category, type, completed, completed_at, date, start_time, end_time,
	is_all_day, location, notes, logs, is_backlog, created_at, updated_at`

type Store struct {
	DB  *sql.DB
	now func() time.Time
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, now: time.Now}
}

// WithClock replaces the time source used for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Create(ctx context.Context, task model.Task) (model.Task, error) {
	now := s.now()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	model.Normalize(&task, now)
	if err := model.Validate(task); err != nil {
		return model.Task{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTask(ctx, tx, task); err != nil {
			return err
		}
		return addHistory(ctx, tx, task.ID, "created", formatCreatedDetails(task), now)
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	return getTask(ctx, s.DB, id)
}

// Update merges patch into the stored record inside one transaction and
// records a field diff in the history table.
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	var after model.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		before, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		after = model.Apply(before, patch, now)
		model.Normalize(&after, now)
		if err := model.Validate(after); err != nil {
			return err
		}
		after.ID = before.ID
		after.CreatedAt = before.CreatedAt
		after.UpdatedAt = now

		if err := updateTask(ctx, tx, after); err != nil {
			return err
		}
		return addHistory(ctx, tx, id, "updated", formatTaskDiff(before, after), now)
	})
	if err != nil {
		return model.Task{}, err
	}
	return after, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		before, err := getTask(ctx, tx, id)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := addHistory(ctx, tx, id, "deleted", formatDeletedDetails(before), s.now()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (s *Store) List(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	clauses := []string{}
	args := []any{}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Date != "" {
		clauses = append(clauses, "date = ?")
		args = append(args, filter.Date)
	}
	if filter.HasDate != nil {
		if *filter.HasDate {
			clauses = append(clauses, "date IS NOT NULL")
		} else {
			clauses = append(clauses, "date IS NULL")
		}
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) ListHistory(ctx context.Context, taskID string) ([]model.HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, task_id, event_type, details, created_at FROM history WHERE task_id = ? ORDER BY id DESC", taskID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.EventType, &entry.Details, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt, err = time.Parse(timestampLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse history timestamp: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func getTask(ctx context.Context, q queryer, id string) (model.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return task, err
}

func insertTask(ctx context.Context, q queryer, task model.Task) error {
	values, err := taskValues(task)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, values...)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func updateTask(ctx context.Context, q queryer, task model.Task) error {
	values, err := taskValues(task)
	if err != nil {
		return err
	}
	// values[0] is the id; move it to the WHERE clause.
	args := append(values[1:], values[0])
	_, err = q.ExecContext(ctx, `UPDATE tasks SET
		title = ?, category = ?, type = ?, completed = ?, completed_at = ?, date = ?, start_time = ?,
		end_time = ?, is_all_day = ?, location = ?, notes = ?, logs = ?, is_backlog = ?, created_at = ?,
		updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func taskValues(task model.Task) ([]any, error) {
	logs, err := json.Marshal(task.Logs)
	if err != nil {
		return nil, fmt.Errorf("encode logs: %w", err)
	}
	var completedAt sql.NullString
	if task.CompletedAt != nil {
		completedAt = sql.NullString{String: task.CompletedAt.UTC().Format(timestampLayout), Valid: true}
	}
	return []any{
		task.ID,
		task.Title,
		string(task.Category),
		string(task.Type),
		task.Completed,
		completedAt,
		nullString(task.Date),
		nullString(task.StartTime),
		nullString(task.EndTime),
		task.IsAllDay,
		nullString(task.Location),
		task.Notes,
		string(logs),
		task.IsBacklog,
		task.CreatedAt.UTC().Format(timestampLayout),
		task.UpdatedAt.UTC().Format(timestampLayout),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var (
		task        model.Task
		category    string
		taskType    string
		completedAt sql.NullString
		date        sql.NullString
		startTime   sql.NullString
		endTime     sql.NullString
		location    sql.NullString
		logs        string
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&task.ID, &task.Title, &category, &taskType, &task.Completed, &completedAt,
		&date, &startTime, &endTime, &task.IsAllDay, &location, &task.Notes, &logs, &task.IsBacklog,
		&createdAt, &updatedAt); err != nil {
		return model.Task{}, err
	}

	task.Category = model.Category(category)
	task.Type = model.Type(taskType)
	task.Date = stringPtr(date)
	task.StartTime = stringPtr(startTime)
	task.EndTime = stringPtr(endTime)
	task.Location = stringPtr(location)

	if completedAt.Valid {
		parsed, err := time.Parse(timestampLayout, completedAt.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse completed_at: %w", err)
		}
		task.CompletedAt = &parsed
	}
	var err error
	if task.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return model.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	if task.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return model.Task{}, fmt.Errorf("parse updated_at: %w", err)
	}

	task.Logs = []model.LogEntry{}
	if logs != "" {
		if err := json.Unmarshal([]byte(logs), &task.Logs); err != nil {
			return model.Task{}, fmt.Errorf("decode logs: %w", err)
		}
	}
	return task, nil
}

func addHistory(ctx context.Context, q queryer, taskID, eventType, details string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO history (task_id, event_type, details, created_at) VALUES (?, ?, ?, ?)",
		taskID, eventType, details, at.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	out := value.String
	return &out
}
