package workspace

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("tortuga.workspace")

// ErrSnapshotNotFound indicates the requested snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("workspace: snapshot not found")

// Library handles SQLite storage for named workspace snapshots, so a
// user can keep several saved workspaces side by side and reload any of
// them by name.
type Library struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// LibraryEntry describes one stored snapshot.
type LibraryEntry struct {
	Name      string
	CreatedAt time.Time
	Size      int
}

// OpenLibrary opens (creating if needed) the snapshot library at path.
func OpenLibrary(path string) (*Library, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name       TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		data       BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &Library{db: db, path: path}, nil
}

// Path returns the library's database path.
func (l *Library) Path() string {
	return l.path
}

// Save stores a snapshot under name, replacing any previous snapshot
// with the same name.
func (l *Library) Save(name string, snap *Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err = l.db.Exec(
		`INSERT INTO snapshots (name, created_at, data) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET created_at = excluded.created_at, data = excluded.data`,
		name, snap.SavedAt.Format(time.RFC3339), data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %q: %w", name, err)
	}

	log.Infof("saved snapshot %q (%d bytes)", name, len(data))
	return nil
}

// Load retrieves the snapshot stored under name.
func (l *Library) Load(name string) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var data []byte
	err := l.db.QueryRow(`SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %q: %w", name, err)
	}

	return Unmarshal(data)
}

// List returns all stored snapshots, most recent first.
func (l *Library) List() ([]LibraryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(`SELECT name, created_at, length(data) FROM snapshots ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var entries []LibraryEntry
	for rows.Next() {
		var e LibraryEntry
		var created string
		if err := rows.Scan(&e.Name, &created, &e.Size); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the snapshot stored under name.
func (l *Library) Delete(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSnapshotNotFound
	}

	log.Infof("deleted snapshot %q", name)
	return nil
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}
