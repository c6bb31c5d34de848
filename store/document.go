package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// expirable lets the collection filter dead entries without knowing the
// concrete record type.
type expirable interface {
	Expired(now time.Time) bool
}

// document is the on-disk layout: one JSON document per collection, rewritten
// wholesale on every mutation.
type document[T any] struct {
	LastUpdated time.Time    `json:"lastUpdated"`
	Entries     map[string]T `json:"entries"`
}

// fileCollection is a durable mapping of identifier to record backed by a
// single JSON file. Every mutation is a read-modify-write cycle: load the
// document, drop expired entries, apply the change, write the whole document
// back. A per-collection mutex serializes the cycles; handlers run on
// parallel goroutines and interleaved cycles would otherwise lose writes.
//
// Read failures (missing file, corrupt JSON) degrade to an empty collection:
// the broker fails safe to "no valid session" and forces re-authentication
// rather than crashing.
type fileCollection[T expirable] struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

func newFileCollection[T expirable](path string, log *slog.Logger) (*fileCollection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &fileCollection[T]{path: path, log: log}, nil
}

// load reads the document and filters out expired entries. Callers must hold
// the mutex.
func (c *fileCollection[T]) load(now time.Time) map[string]T {
	entries := make(map[string]T)

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("store unreadable, treating as empty", "path", c.path, "error", err)
		}
		return entries
	}

	var doc document[T]
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.log.Warn("store corrupt, treating as empty", "path", c.path, "error", err)
		return entries
	}

	for k, v := range doc.Entries {
		if v.Expired(now) {
			continue
		}
		entries[k] = v
	}
	return entries
}

// write rewrites the whole document. Callers must hold the mutex.
func (c *fileCollection[T]) write(entries map[string]T) error {
	doc := document[T]{LastUpdated: time.Now(), Entries: entries}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// mutate runs one read-modify-write cycle.
func (c *fileCollection[T]) mutate(fn func(entries map[string]T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load(time.Now())
	fn(entries)
	return c.write(entries)
}

// snapshot returns the live (non-expired) entries.
func (c *fileCollection[T]) snapshot() map[string]T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(time.Now())
}
