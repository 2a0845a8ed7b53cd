// Package catalog persists interpreted DBML databases as named snapshots in
// a SQLite file, so schemas can be listed, inspected and compared later.
package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// MemoryPath opens a private in-memory catalog.
const MemoryPath = ":memory:"

var errNotOpen = errors.New("catalog not opened")

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one saved compilation.
type Snapshot struct {
	ID         string
	Name       string
	SourcePath string
	SourceHash string
	CreatedAt  time.Time

	Tables int
	Refs   int
	Enums  int

	// Database is only populated by Get and Latest.
	Database *model.Database
}

// TableEntry is one table row of a snapshot.
type TableEntry struct {
	SnapshotID    string
	SnapshotName  string
	QualifiedName string
	Alias         string
	Columns       int
	Note          string
}

// Store is the SQLite snapshot catalog.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a closed store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWithDB wraps an existing connection. The caller runs migrations.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to the catalog at path and runs pending migrations.
// Use MemoryPath for an in-memory catalog.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	if path == MemoryPath {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping catalog: %w", err)
	}
	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// HashSource returns the hex sha256 of a DBML source text.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// ---------- Writes ----------

// Save stores db as a new snapshot named name.
func (s *Store) Save(ctx context.Context, name, sourcePath, source string, db *model.Database) (*Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	if db == nil {
		return nil, fmt.Errorf("save snapshot %q: no database", name)
	}

	payload, err := json.Marshal(db)
	if err != nil {
		return nil, fmt.Errorf("encode database: %w", err)
	}

	snap := &Snapshot{
		ID:         uuid.New().String(),
		Name:       name,
		SourcePath: sourcePath,
		SourceHash: HashSource(source),
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
		Tables:     len(db.Tables),
		Refs:       len(db.Refs),
		Enums:      len(db.Enums),
		Database:   db,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, name, source_path, source_hash, created_at, table_count, ref_count, enum_count, database)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.SourcePath, snap.SourceHash, snap.CreatedAt.UnixMilli(),
		snap.Tables, snap.Refs, snap.Enums, string(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	if len(db.Tables) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshot_tables
			(snapshot_id, position, qualified_name, alias, column_count, note)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return nil, fmt.Errorf("prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, t := range db.Tables {
			if _, err := stmt.ExecContext(ctx, snap.ID, i, t.QualifiedName(), t.Alias, len(t.Columns), t.Note); err != nil {
				return nil, fmt.Errorf("insert table %s: %w", t.QualifiedName(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return snap, nil
}

// Delete removes a snapshot and its table rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return errNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_tables WHERE snapshot_id = ?`, id); err != nil {
		return fmt.Errorf("delete tables of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ---------- Reads ----------

const snapshotColumns = `id, name, source_path, source_hash, created_at, table_count, ref_count, enum_count`

// List returns snapshots newest first. An empty name lists every snapshot.
func (s *Store) List(ctx context.Context, name string) ([]Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Get returns a snapshot with its decoded database.
func (s *Store) Get(ctx context.Context, id string) (*Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+`, database FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snap, err
}

// Latest returns the newest snapshot saved under name.
func (s *Store) Latest(ctx context.Context, name string) (*Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`, database FROM snapshots
		WHERE name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, name)
	snap, err := scanSnapshot(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return snap, err
}

// FindTable returns every snapshot table with the given qualified name,
// newest snapshot first.
func (s *Store) FindTable(ctx context.Context, qualifiedName string) ([]TableEntry, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.snapshot_id, s.name, t.qualified_name, t.alias, t.column_count, t.note
		FROM snapshot_tables t
		JOIN snapshots s ON s.id = t.snapshot_id
		WHERE t.qualified_name = ?
		ORDER BY s.created_at DESC, s.rowid DESC`, qualifiedName)
	if err != nil {
		return nil, fmt.Errorf("find table %s: %w", qualifiedName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []TableEntry
	for rows.Next() {
		var e TableEntry
		if err := rows.Scan(&e.SnapshotID, &e.SnapshotName, &e.QualifiedName, &e.Alias, &e.Columns, &e.Note); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner, withDatabase bool) (*Snapshot, error) {
	var (
		snap    Snapshot
		created int64
		payload string
	)
	dest := []any{
		&snap.ID, &snap.Name, &snap.SourcePath, &snap.SourceHash, &created,
		&snap.Tables, &snap.Refs, &snap.Enums,
	}
	if withDatabase {
		dest = append(dest, &payload)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.CreatedAt = time.UnixMilli(created).UTC()

	if withDatabase {
		var db model.Database
		if err := json.Unmarshal([]byte(payload), &db); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
		}
		snap.Database = &db
	}
	return &snap, nil
}
