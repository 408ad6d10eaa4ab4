// Package cache remembers which file blobs have already been scanned with
// zero findings, so a repeat `scan --staged` on an unchanged tree can skip
// re-running every rule against bytes it has already cleared.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache is a small SQLite-backed store keyed by a blob's content hash.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS clean_blobs (
			blob_hash  TEXT PRIMARY KEY,
			scanned_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

const ruleSetVersionKey = "ruleset_version"

// SyncRuleSetVersion compares version (normally a CompiledRuleSet.Fingerprint)
// against the version stamped on this cache the last time it was written to,
// and wipes every recorded clean blob if they differ. A blob marked clean
// under one rule set says nothing about whether it is clean under another,
// so a rule-set change must invalidate the cache wholesale rather than
// leaving stale entries for a caller to trust. Returns whether the cache was
// wiped.
func (c *Cache) SyncRuleSetVersion(version string) (bool, error) {
	var stored string
	err := c.db.QueryRow(`SELECT value FROM cache_meta WHERE key = ?`, ruleSetVersionKey).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("query cache version: %w", err)
	}

	if err == nil && stored == version {
		return false, nil
	}

	if _, err := c.db.Exec(`DELETE FROM clean_blobs`); err != nil {
		return false, fmt.Errorf("wipe cache: %w", err)
	}
	if _, err := c.db.Exec(
		`INSERT INTO cache_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		ruleSetVersionKey, version); err != nil {
		return false, fmt.Errorf("write cache version: %w", err)
	}
	return true, nil
}

// IsClean reports whether blobHash was previously scanned with zero
// findings.
func (c *Cache) IsClean(blobHash string) (bool, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(1) FROM clean_blobs WHERE blob_hash = ?`, blobHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query cache: %w", err)
	}
	return count > 0, nil
}

// MarkClean records that blobHash produced zero findings at scannedAtUnix.
func (c *Cache) MarkClean(blobHash string, scannedAtUnix int64) error {
	_, err := c.db.Exec(
		`INSERT INTO clean_blobs (blob_hash, scanned_at) VALUES (?, ?)
		 ON CONFLICT(blob_hash) DO UPDATE SET scanned_at = excluded.scanned_at`,
		blobHash, scannedAtUnix)
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Invalidate drops a single blob's clean marker, for callers that want to
// force one blob back into the scan set without wiping the whole cache (see
// SyncRuleSetVersion for the wholesale case, a rule-set change).
func (c *Cache) Invalidate(blobHash string) error {
	_, err := c.db.Exec(`DELETE FROM clean_blobs WHERE blob_hash = ?`, blobHash)
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
