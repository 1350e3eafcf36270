package store

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/deskshell/internal/debug"
)

type EventType int

const (
	FetchBoxes EventType = iota
	AddBox
	RemoveBox
	FetchSettings
	SaveSetting
)

// Setting keys shared with the file box window
const (
	KeyLastBox      = "last_box"
	KeyShowDotfiles = "show_dotfiles"
)

type Request struct {
	Op    EventType
	ID    string // Box ID for RemoveBox
	Name  string // Box name for AddBox
	Path  string // Box folder for AddBox
	Key   string
	Value string
}

// Box is a folder the user pinned as a file box
type Box struct {
	ID        string
	Name      string
	Path      string
	CreatedAt time.Time
}

type Response struct {
	Op       EventType
	Boxes    []Box
	Added    *Box              // Set by AddBox
	Settings map[string]string // Key-value settings
	Err      error
}

type DB struct {
	conn         *sql.DB
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewDB() *DB {
	return &DB{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// DefaultPath returns the database location: ~/.config/deskshell/deskshell.db
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deskshell", "deskshell.db")
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return err
	}

	// Schema - Boxes table. A folder is pinned at most once.
	query := `
	CREATE TABLE IF NOT EXISTS boxes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return err
	}

	// Schema - Settings table
	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(settingsQuery); err != nil {
		db.Close()
		return err
	}

	debug.Log(debug.STORE, "Opened %s", dbPath)
	d.conn = db
	return nil
}

// Start serves requests until RequestChan is closed
func (d *DB) Start() {
	for req := range d.RequestChan {
		switch req.Op {
		case FetchBoxes:
			d.handleFetch()
		case AddBox:
			d.handleAdd(req.Name, req.Path)
		case RemoveBox:
			d.handleRemove(req.ID)
		case FetchSettings:
			d.handleFetchSettings()
		case SaveSetting:
			d.handleSaveSetting(req.Key, req.Value)
		}
	}
}

func (d *DB) boxes() ([]Box, error) {
	rows, err := d.conn.Query("SELECT id, name, path, created_at FROM boxes ORDER BY created_at ASC, name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boxes []Box
	for rows.Next() {
		b, err := scanBox(rows)
		if err == nil {
			boxes = append(boxes, b)
		}
	}
	return boxes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// created_at is stored as Unix nanoseconds
func scanBox(row scanner) (Box, error) {
	var (
		b       Box
		created int64
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Path, &created); err != nil {
		return Box{}, err
	}
	b.CreatedAt = time.Unix(0, created)
	return b, nil
}

func (d *DB) handleFetch() {
	boxes, err := d.boxes()
	d.ResponseChan <- Response{Op: FetchBoxes, Boxes: boxes, Err: err}
}

func (d *DB) handleAdd(name, path string) {
	if name == "" {
		name = filepath.Base(path)
	}
	id := uuid.NewString()
	// Use INSERT OR IGNORE so pinning the same folder twice keeps the first box
	_, err := d.conn.Exec("INSERT OR IGNORE INTO boxes (id, name, path, created_at) VALUES (?, ?, ?, ?)",
		id, name, path, time.Now().UnixNano())
	if err != nil {
		log.Printf("Store Error: %v", err)
		d.ResponseChan <- Response{Op: AddBox, Err: err}
		return
	}

	added, err := scanBox(d.conn.QueryRow("SELECT id, name, path, created_at FROM boxes WHERE path = ?", path))
	if err != nil {
		log.Printf("Store Error: %v", err)
		d.ResponseChan <- Response{Op: AddBox, Err: err}
		return
	}
	debug.Log(debug.STORE, "Box %s -> %s", added.ID, added.Path)

	boxes, err := d.boxes()
	d.ResponseChan <- Response{Op: AddBox, Added: &added, Boxes: boxes, Err: err}
}

func (d *DB) handleRemove(id string) {
	_, err := d.conn.Exec("DELETE FROM boxes WHERE id = ?", id)
	if err != nil {
		log.Printf("Store Error: %v", err)
	}
	// Always trigger a fetch after modification to sync UI
	d.handleFetch()
}

func (d *DB) handleFetchSettings() {
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchSettings, Err: err}
		return
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}

	d.ResponseChan <- Response{Op: FetchSettings, Settings: settings}
}

func (d *DB) handleSaveSetting(key, value string) {
	// Use INSERT OR REPLACE to upsert the setting
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		log.Printf("Store Error saving setting: %v", err)
	}
	// Trigger a fetch to sync settings
	d.handleFetchSettings()
}

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
