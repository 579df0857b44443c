// Package store persists purchase histories and fitted model bundles.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrBundleNotFound is returned when no bundle is stored under a name.
var ErrBundleNotFound = errors.New("store: bundle not found")

// BundleStore provides SQLite-backed storage for serialized models and
// the training samples they were fitted on.
type BundleStore struct {
	db *sql.DB
}

// BundleInfo describes a stored bundle without its payload.
type BundleInfo struct {
	Name      string
	Kind      string
	Size      int
	Samples   int
	UpdatedAt time.Time
}

// OpenBundles opens or creates the bundle database at the given path.
func OpenBundles(dbPath string) (*BundleStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating model dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening model db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &BundleStore{db: db}, nil
}

// Close closes the bundle database.
func (s *BundleStore) Close() error {
	return s.db.Close()
}

// SaveBundle stores a bundle payload, replacing any previous one.
func (s *BundleStore) SaveBundle(name, kind string, payload []byte) error {
	_, err := s.db.Exec(upsertBundleSQL, name, kind, payload, now())
	if err != nil {
		return fmt.Errorf("saving bundle %s: %w", name, err)
	}
	return nil
}

// SaveBundleWithSamples stores a bundle and replaces its training samples
// in one transaction. Either both are written or neither is.
func (s *BundleStore) SaveBundleWithSamples(name, kind string, payload []byte, samples [][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	if _, err := tx.Exec(upsertBundleSQL, name, kind, payload, ts); err != nil {
		return fmt.Errorf("saving bundle %s: %w", name, err)
	}

	if _, err := tx.Exec("DELETE FROM training_samples WHERE owner = ?", name); err != nil {
		return fmt.Errorf("clearing samples for %s: %w", name, err)
	}

	stmt, err := tx.Prepare("INSERT INTO training_samples (owner, payload, created_at) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range samples {
		if _, err := stmt.Exec(name, p, ts); err != nil {
			return fmt.Errorf("saving sample for %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// LoadBundle returns the payload stored under name and when it was written.
func (s *BundleStore) LoadBundle(name string) ([]byte, time.Time, error) {
	var (
		payload []byte
		updated string
	)
	err := s.db.QueryRow("SELECT payload, updated_at FROM bundles WHERE name = ?", name).Scan(&payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrBundleNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading bundle %s: %w", name, err)
	}
	t, _ := time.Parse(time.RFC3339Nano, updated)
	return payload, t, nil
}

// LoadSamples returns the training samples of a bundle, oldest first.
func (s *BundleStore) LoadSamples(name string) ([][]byte, error) {
	rows, err := s.db.Query("SELECT payload FROM training_samples WHERE owner = ? ORDER BY seq", name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out [][]byte
	for rows.Next() {
		var p []byte
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteBundle removes a bundle and its samples. Absent bundles are not an error.
func (s *BundleStore) DeleteBundle(name string) error {
	_, err := s.db.Exec("DELETE FROM bundles WHERE name = ?", name)
	return err
}

// ListBundles returns metadata for every stored bundle, ordered by name.
func (s *BundleStore) ListBundles() ([]BundleInfo, error) {
	rows, err := s.db.Query(`SELECT b.name, b.kind, length(b.payload), b.updated_at,
		(SELECT COUNT(*) FROM training_samples t WHERE t.owner = b.name)
		FROM bundles b ORDER BY b.name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []BundleInfo
	for rows.Next() {
		var (
			bi      BundleInfo
			updated string
		)
		if err := rows.Scan(&bi.Name, &bi.Kind, &bi.Size, &updated, &bi.Samples); err != nil {
			return nil, err
		}
		bi.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, bi)
	}
	return out, rows.Err()
}

const upsertBundleSQL = `INSERT INTO bundles (name, kind, payload, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, payload = excluded.payload, updated_at = excluded.updated_at`

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
