// Package sqlite provides a SQLite-backed introductions storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/introhub/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/introhub/internal/services/introductions/domain"
	"github.com/louisbranch/introhub/internal/services/introductions/storage"
	"github.com/louisbranch/introhub/internal/services/introductions/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists introduction-request state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	at := fromMillis(value.Int64)
	return &at
}

func marshalIdentity(identity domain.Identity) (string, error) {
	raw, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return string(raw), nil
}

func unmarshalIdentity(raw string) (domain.Identity, error) {
	var identity domain.Identity
	if raw == "" {
		return identity, nil
	}
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return domain.Identity{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return identity, nil
}

// Open opens a SQLite introductions store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutWorkspace upserts one hub workspace.
func (s *Store) PutWorkspace(ctx context.Context, workspace domain.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	workspaceID := strings.TrimSpace(workspace.ID)
	if workspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}
	ownerJSON, err := marshalIdentity(workspace.Owner)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO workspaces (id, name, owner_user_id, owner_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   owner_user_id = excluded.owner_user_id,
		   owner_json = excluded.owner_json,
		   updated_at = excluded.updated_at`,
		workspaceID,
		workspace.Name,
		workspace.Owner.UserID,
		ownerJSON,
		toMillis(workspace.CreatedAt),
		toMillis(workspace.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put workspace: %w", err)
	}
	return nil
}

// GetWorkspace returns one workspace by id.
func (s *Store) GetWorkspace(ctx context.Context, workspaceID string) (domain.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return domain.Workspace{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Workspace{}, fmt.Errorf("storage is not configured")
	}
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return domain.Workspace{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, owner_json, created_at, updated_at
		 FROM workspaces
		 WHERE id = ?`,
		workspaceID,
	)
	var workspace domain.Workspace
	var ownerJSON string
	var createdAt, updatedAt int64
	if err := row.Scan(&workspace.ID, &workspace.Name, &ownerJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Workspace{}, storage.ErrNotFound
		}
		return domain.Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	owner, err := unmarshalIdentity(ownerJSON)
	if err != nil {
		return domain.Workspace{}, err
	}
	workspace.Owner = owner
	workspace.CreatedAt = fromMillis(createdAt)
	workspace.UpdatedAt = fromMillis(updatedAt)
	return workspace, nil
}
