// Package assets layers asset directories into one cached, read-only
// filesystem that the mesh loader reads from.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

// Library searches its sources in reverse order (last added = highest
// priority) and caches file contents. It is safe for concurrent use, so
// several models can load in parallel.
type Library struct {
	mu      sync.RWMutex
	sources []fs.FS
	cache   *Cache
}

var (
	_ fs.FS         = (*Library)(nil)
	_ fs.ReadFileFS = (*Library)(nil)
)

// NewLibrary creates a library over the given sources, lowest priority
// first.
func NewLibrary(sources ...fs.FS) *Library {
	return &Library{
		sources: sources,
		cache:   NewCache(),
	}
}

// Add adds a source with the highest priority so far.
func (l *Library) Add(src fs.FS) {
	l.mu.Lock()
	l.sources = append(l.sources, src)
	l.mu.Unlock()
	l.cache.Clear()
}

// Open opens name from the highest-priority source that has it.
func (l *Library) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.sources) - 1; i >= 0; i-- {
		f, err := l.sources[i].Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ReadFile returns a copy of the contents of name, from the cache when
// possible.
func (l *Library) ReadFile(name string) ([]byte, error) {
	if data, ok := l.cache.Get(name); ok {
		return bytes.Clone(data), nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.sources) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(l.sources[i], name)
		if err == nil {
			l.cache.Set(name, bytes.Clone(data))
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
}

// Stats returns cache statistics.
func (l *Library) Stats() (hits, misses int) {
	return l.cache.Stats()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
