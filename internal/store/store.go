// Package store provides the SQLite-backed persistence layer for
// imported tasks. It assigns task identity and timestamps on create and
// keeps per-integration external keys in a side table so a task can be
// linked to several external representations at once.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tasksync/tasksync/internal/domain"
)

//go:embed schema.sql
var schema string

var (
	// ErrTaskNotFound indicates the requested task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrMissingID indicates an update was attempted without an ID.
	ErrMissingID = errors.New("task has no ID")
)

// Store wraps the database connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the
// schema. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DefaultPath returns the XDG data path for the task database.
func DefaultPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tasksync", "tasks.db"), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new task. A task arriving without an ID gets a
// generated one; a pre-set ID (a reconciler draft identity) is honored
// so the task keeps the identity the UI already displayed. Timestamps
// are assigned here.
func (s *Store) Create(task domain.Task) (domain.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.write(task, true); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Update rewrites an existing task, bumping its updated timestamp.
// Returns ErrTaskNotFound if the ID is unknown.
func (s *Store) Update(task domain.Task) (domain.Task, error) {
	if task.ID == "" {
		return domain.Task{}, ErrMissingID
	}
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = ?`, task.ID).Scan(&exists)
	if err != nil {
		return domain.Task{}, err
	}
	if exists == 0 {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
	}
	task.UpdatedAt = time.Now().UTC()
	if err := s.write(task, false); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// write inserts or replaces a task row and its source keys in one
// transaction.
func (s *Store) write(task domain.Task, insert bool) error {
	areas, err := json.Marshal(emptyIfNil(task.Areas))
	if err != nil {
		return err
	}
	tags, err := json.Marshal(emptyIfNil(task.Tags))
	if err != nil {
		return err
	}
	var sourceData sql.NullString
	if task.Source.Data != nil {
		raw, err := json.Marshal(task.Source.Data)
		if err != nil {
			return err
		}
		sourceData = sql.NullString{String: string(raw), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if insert {
		_, err = tx.Exec(`
			INSERT INTO tasks (id, title, description, category, status, priority, done,
				project, areas, tags, do_date, due_date, source_extension, source_data,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, task.Title, task.Description, task.Category, task.Status,
			task.Priority, task.Done, task.Project, string(areas), string(tags),
			task.DoDate, task.DueDate, task.Source.Extension, sourceData,
			task.CreatedAt.Format(time.RFC3339), task.UpdatedAt.Format(time.RFC3339))
	} else {
		_, err = tx.Exec(`
			UPDATE tasks SET title = ?, description = ?, category = ?, status = ?,
				priority = ?, done = ?, project = ?, areas = ?, tags = ?, do_date = ?,
				due_date = ?, source_extension = ?, source_data = ?, updated_at = ?
			WHERE id = ?
		`, task.Title, task.Description, task.Category, task.Status, task.Priority,
			task.Done, task.Project, string(areas), string(tags), task.DoDate,
			task.DueDate, task.Source.Extension, sourceData,
			task.UpdatedAt.Format(time.RFC3339), task.ID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM task_sources WHERE task_id = ?`, task.ID); err != nil {
		return err
	}
	for integration, key := range task.Source.Keys {
		_, err := tx.Exec(`
			INSERT INTO task_sources (task_id, integration, external_key) VALUES (?, ?, ?)
		`, task.ID, integration, key)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetAll returns every stored task with its source keys, ordered by
// creation time.
func (s *Store) GetAll() ([]domain.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, category, status, priority, done,
			project, areas, tags, do_date, due_date, source_extension, source_data,
			created_at, updated_at
		FROM tasks
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		keys, err := s.sourceKeys(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Source.Keys = keys
	}
	return tasks, nil
}

// GetByExternalKey returns the task linked to an integration's external
// key, or ErrTaskNotFound.
func (s *Store) GetByExternalKey(integration, key string) (domain.Task, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT task_id FROM task_sources WHERE integration = ? AND external_key = ?
	`, integration, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("%w: %s=%s", ErrTaskNotFound, integration, key)
	}
	if err != nil {
		return domain.Task{}, err
	}
	return s.get(id)
}

// Delete removes a task and its source keys. Unknown IDs are a no-op.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

func (s *Store) get(id string) (domain.Task, error) {
	row := s.db.QueryRow(`
		SELECT id, title, description, category, status, priority, done,
			project, areas, tags, do_date, due_date, source_extension, source_data,
			created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return domain.Task{}, err
	}
	keys, err := s.sourceKeys(id)
	if err != nil {
		return domain.Task{}, err
	}
	task.Source.Keys = keys
	return task, nil
}

func (s *Store) sourceKeys(taskID string) (map[string]string, error) {
	rows, err := s.db.Query(`
		SELECT integration, external_key FROM task_sources WHERE task_id = ?
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var integration, key string
		if err := rows.Scan(&integration, &key); err != nil {
			return nil, err
		}
		keys[integration] = key
	}
	return keys, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	var areas, tags, createdAt, updatedAt string
	var sourceData sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Status,
		&t.Priority, &t.Done, &t.Project, &areas, &tags, &t.DoDate, &t.DueDate,
		&t.Source.Extension, &sourceData, &createdAt, &updatedAt)
	if err != nil {
		return domain.Task{}, err
	}

	if err := json.Unmarshal([]byte(areas), &t.Areas); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: decode areas: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: decode tags: %w", t.ID, err)
	}
	if sourceData.Valid {
		var item domain.Item
		if err := json.Unmarshal([]byte(sourceData.String), &item); err != nil {
			return domain.Task{}, fmt.Errorf("task %s: decode source data: %w", t.ID, err)
		}
		t.Source.Data = &item
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: parse created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: parse updated_at: %w", t.ID, err)
	}
	return t, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
