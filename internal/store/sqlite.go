package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/platform"
)

// Database settings
const (
	DriverName    = "sqlite"
	DBFileName    = "tasks.db"
	BusyTimeoutMS = 5000
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("task store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS download_tasks (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_download_tasks_created ON download_tasks(created_at);
`

// Store persists download tasks in SQLite
type Store struct {
	db *sql.DB
}

// Open creates or opens the task database inside dataDir
func Open(dataDir string) (*Store, error) {
	if err := platform.CreateDirectoryIfNotExists(dataDir); err != nil {
		return nil, err
	}
	return OpenFile(filepath.Join(dataDir, DBFileName))
}

// OpenFile opens the database at path and creates the schema
func OpenFile(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, BusyTimeoutMS)
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open task database: %w", err)
	}
	// one writer keeps WAL checkpoints and busy retries predictable
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to task database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save inserts or replaces a task
func (s *Store) Save(task *model.DownloadTask) error {
	if s.db == nil {
		return ErrClosed
	}
	record := task.Clone()
	record.PID = 0

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}

	query := `
	INSERT INTO download_tasks (id, url, status, created_at, updated_at, payload)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at,
		payload = excluded.payload`
	_, err = s.db.Exec(query, record.ID, record.URL, string(record.Status),
		record.CreatedAt.UnixNano(), time.Now().UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes a task. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.Exec(`DELETE FROM download_tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// LoadAll returns every stored task in creation order. Rows that fail to
// decode are skipped.
func (s *Store) LoadAll() ([]*model.DownloadTask, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.Query(`SELECT id, payload FROM download_tasks ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.DownloadTask
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to read task row: %w", err)
		}
		var task model.DownloadTask
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			log.Printf("[STORE] skipping undecodable task %s: %v", id, err)
			continue
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the number of stored tasks
func (s *Store) Count() (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM download_tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}
