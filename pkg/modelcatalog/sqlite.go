package modelcatalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ganymede/pkg/providers"
)

// SQLiteStore persists model snapshots in a SQLite database so the
// catalog survives restarts. Snapshots hold only model metadata; no
// conversation content ever reaches this store.
//
// The store uses WAL mode for better concurrent read behavior.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) a snapshot database at the
// given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS model_snapshots (
		provider_id TEXT PRIMARY KEY,
		models TEXT NOT NULL,
		refreshed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_refreshed_at ON model_snapshots(refreshed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO model_snapshots (provider_id, models, refreshed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (provider_id) DO UPDATE SET
			models = excluded.models,
			refreshed_at = excluded.refreshed_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT models, refreshed_at
		FROM model_snapshots
		WHERE provider_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM model_snapshots
		WHERE provider_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT provider_id, models, refreshed_at
		FROM model_snapshots
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Save replaces the snapshot for a provider.
func (s *SQLiteStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snapshot.ProviderID == "" {
		return fmt.Errorf("provider id cannot be empty")
	}

	modelsJSON, err := json.Marshal(snapshot.Models)
	if err != nil {
		return fmt.Errorf("failed to marshal models: %w", err)
	}

	refreshedAt := snapshot.RefreshedAt
	if refreshedAt.IsZero() {
		refreshedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.saveStmt.ExecContext(ctx,
		snapshot.ProviderID,
		string(modelsJSON),
		refreshedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for a provider, or nil when none is stored.
func (s *SQLiteStore) Load(ctx context.Context, providerID string) (*Snapshot, error) {
	if providerID == "" {
		return nil, fmt.Errorf("provider id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		modelsJSON  string
		refreshedAt int64
	)
	err := s.loadStmt.QueryRowContext(ctx, providerID).Scan(&modelsJSON, &refreshedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var models []providers.ModelInfo
	if err := json.Unmarshal([]byte(modelsJSON), &models); err != nil {
		return nil, fmt.Errorf("failed to unmarshal models: %w", err)
	}

	return &Snapshot{
		ProviderID:  providerID,
		Models:      models,
		RefreshedAt: time.Unix(refreshedAt, 0),
	}, nil
}

// Delete removes a provider's snapshot.
func (s *SQLiteStore) Delete(ctx context.Context, providerID string) error {
	if providerID == "" {
		return fmt.Errorf("provider id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.deleteStmt.ExecContext(ctx, providerID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns all stored snapshots.
func (s *SQLiteStore) List(ctx context.Context) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var (
			providerID  string
			modelsJSON  string
			refreshedAt int64
		)
		if err := rows.Scan(&providerID, &modelsJSON, &refreshedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var models []providers.ModelInfo
		if err := json.Unmarshal([]byte(modelsJSON), &models); err != nil {
			return nil, fmt.Errorf("failed to unmarshal models: %w", err)
		}

		snapshots = append(snapshots, &Snapshot{
			ProviderID:  providerID,
			Models:      models,
			RefreshedAt: time.Unix(refreshedAt, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return snapshots, nil
}

// Close releases database resources. Idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.loadStmt != nil {
			s.loadStmt.Close()
		}
		if s.deleteStmt != nil {
			s.deleteStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}
