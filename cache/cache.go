// Package cache persists compiled function chunks in a local SQLite
// database, keyed by content hash. The cache lets a VM skip recompilation
// of scripts whose chunks are already on disk.
package cache

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrChunkNotFound indicates the requested chunk isn't cached.
var ErrChunkNotFound = errors.New("chunk not found")

// Store is a SQLite-backed chunk cache.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		hash TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Put stores chunk bytes under their content hash. Re-putting the same hash
// overwrites, which is harmless: content-addressed data is identical.
func (s *Store) Put(hash [32]byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO chunks (hash, data) VALUES (?, ?)",
		hex.EncodeToString(hash[:]), data,
	)
	if err != nil {
		return fmt.Errorf("storing chunk: %w", err)
	}
	return nil
}

// Get returns the chunk bytes for hash, or ErrChunkNotFound.
func (s *Store) Get(hash [32]byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM chunks WHERE hash = ?",
		hex.EncodeToString(hash[:]),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading chunk: %w", err)
	}
	return data, nil
}

// Delete removes a cached chunk. Deleting a missing hash is not an error.
func (s *Store) Delete(hash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM chunks WHERE hash = ?", hex.EncodeToString(hash[:])); err != nil {
		return fmt.Errorf("deleting chunk: %w", err)
	}
	return nil
}

// Count returns the number of cached chunks.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Hashes returns the hex hashes of every cached chunk, sorted.
func (s *Store) Hashes() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT hash FROM chunks ORDER BY hash")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("listing chunks: %w", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
