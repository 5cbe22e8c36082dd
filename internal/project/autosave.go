package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// DefaultAutosaveKeep is how many autosave revisions are retained per project
// before the oldest are pruned.
const DefaultAutosaveKeep = 20

// AutosaveStore persists periodic document revisions in a local SQLite
// database so a crashed session can be recovered.
type AutosaveStore struct {
	db   *sql.DB
	mu   sync.Mutex
	keep int
}

// OpenAutosaveStore initializes the autosave database at the given path,
// creating parent directories as needed. keep bounds retained revisions;
// zero or negative selects DefaultAutosaveKeep.
func OpenAutosaveStore(path string, keep int) (*AutosaveStore, error) {
	if keep <= 0 {
		keep = DefaultAutosaveKeep
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &AutosaveStore{db: db, keep: keep}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *AutosaveStore) initialize() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS autosaves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		document TEXT NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_autosaves_project ON autosaves(project, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Put stores one revision of the document and prunes revisions beyond the
// retention bound.
func (s *AutosaveStore) Put(project string, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal autosave: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT INTO autosaves (project, document) VALUES (?, ?)`,
		project, string(data),
	); err != nil {
		return fmt.Errorf("insert autosave: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM autosaves
		WHERE project = ? AND id NOT IN (
			SELECT id FROM autosaves WHERE project = ? ORDER BY id DESC LIMIT ?
		)`, project, project, s.keep)
	if err != nil {
		return fmt.Errorf("prune autosaves: %w", err)
	}
	return nil
}

// Latest returns the most recent revision for the project, or sql.ErrNoRows
// wrapped when none exists.
func (s *AutosaveStore) Latest(project string) (*Document, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	var savedAt time.Time
	err := s.db.QueryRow(
		`SELECT document, saved_at FROM autosaves WHERE project = ? ORDER BY id DESC LIMIT 1`,
		project,
	).Scan(&raw, &savedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load autosave: %w", err)
	}

	doc, err := Parse([]byte(raw))
	if err != nil {
		return nil, time.Time{}, err
	}
	return doc, savedAt, nil
}

// Count reports retained revisions for a project.
func (s *AutosaveStore) Count(project string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM autosaves WHERE project = ?`, project).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count autosaves: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *AutosaveStore) Close() error {
	return s.db.Close()
}

// Autosaver periodically snapshots a document source into an AutosaveStore.
// The source func is called on each tick so the autosaver never holds a
// reference to live editor state.
type Autosaver struct {
	store    *AutosaveStore
	project  string
	source   func() *Document
	interval time.Duration
	log      *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewAutosaver wires an autosaver; Run must be called to start it.
func NewAutosaver(store *AutosaveStore, project string, interval time.Duration, source func() *Document, log *zap.Logger) *Autosaver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Autosaver{
		store:    store,
		project:  project,
		source:   source,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run ticks until the context is cancelled or Stop is called. Individual save
// failures are logged and do not stop the loop.
func (a *Autosaver) Run(ctx context.Context) {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case <-ticker.C:
			doc := a.source()
			if doc == nil {
				continue
			}
			if err := a.store.Put(a.project, doc); err != nil {
				a.log.Warn("autosave failed", zap.String("project", a.project), zap.Error(err))
				continue
			}
			a.log.Debug("autosaved", zap.String("project", a.project))
		}
	}
}

// Stop signals the loop to exit and waits for it to drain.
func (a *Autosaver) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	<-a.doneCh
}
