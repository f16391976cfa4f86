package distributor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/razyhost/razy/internal/distconfig"
)

// CacheKey identifies one cached distributor build: the domain and mount
// path it was resolved under, plus the distributor's own identifier key
// (code@tag). Two different domains mounting the same identifier at the
// same path still get independent cache entries, since module sources are
// resolved relative to each domain's sites root.
type CacheKey struct {
	Domain       string
	MountPath    string
	IdentifierID string
}

func (k CacheKey) String() string {
	return k.Domain + "|" + k.MountPath + "|" + k.IdentifierID
}

type cacheEntry struct {
	dist        *Distributor
	fingerprint string
	requests    int
}

// Cache is the worker-mode, process-wide distributor cache: a Distributor
// and its Module set are built once per CacheKey and reused across
// requests. Every revalidateEvery requests (default 100, via
// Runtime.RevalidateInterval), the entry's fingerprint is recomputed; a
// mismatch evicts and forces a rebuild on the next Get. Concurrent misses
// for the same key are deduplicated with singleflight so only one rebuild
// runs at a time.
type Cache struct {
	mu              sync.Mutex
	entries         map[string]*cacheEntry
	group           singleflight.Group
	revalidateEvery int
}

// NewCache builds an empty cache. revalidateEvery <= 0 defaults to 100,
// matching Runtime.RevalidateInterval's default.
func NewCache(revalidateEvery int) *Cache {
	if revalidateEvery <= 0 {
		revalidateEvery = 100
	}
	return &Cache{entries: map[string]*cacheEntry{}, revalidateEvery: revalidateEvery}
}

// Build constructs an initialized Distributor. Callers pass one to
// Cache.Get, which fingerprints the filesystem the Distributor was
// initialized against; the returned fsys is not used by Get.
type Build func() (dist *Distributor, fsys fs.FS, err error)

// Get returns the cached Distributor for key, building (and initializing)
// it via build on a cache miss, and revalidating the fingerprint — a
// content hash of dist.yaml plus the mod-times of every declared module
// source directory — once every revalidateEvery calls. A fingerprint
// mismatch evicts the entry and rebuilds before returning.
func (c *Cache) Get(key CacheKey, build Build) (*Distributor, error) {
	c.mu.Lock()
	entry, ok := c.entries[key.String()]
	if ok {
		entry.requests++
		if entry.requests < c.revalidateEvery {
			c.mu.Unlock()
			return entry.dist, nil
		}
	}
	c.mu.Unlock()

	if ok {
		fp, err := fingerprint(entry.dist)
		if err == nil && fp == entry.fingerprint {
			c.mu.Lock()
			entry.requests = 0
			c.mu.Unlock()
			return entry.dist, nil
		}
		c.Evict(key)
	}

	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		dist, _, buildErr := build()
		if buildErr != nil {
			return nil, buildErr
		}
		fp, fpErr := fingerprint(dist)
		if fpErr != nil {
			return nil, fpErr
		}
		c.mu.Lock()
		c.entries[key.String()] = &cacheEntry{dist: dist, fingerprint: fp}
		c.mu.Unlock()
		return dist, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Distributor), nil
}

// Evict drops the cached entry for key, if any, forcing the next Get to
// rebuild.
func (c *Cache) Evict(key CacheKey) {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
}

// Len reports the number of currently cached entries, for diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func fingerprint(dist *Distributor) (string, error) {
	fsys := dist.sourceFS
	if fsys == nil {
		return "", fmt.Errorf("distributor: cache entry has no source filesystem recorded")
	}
	h := sha256.New()
	data, err := fs.ReadFile(fsys, "dist.yaml")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	h.Write(data)

	dirs := moduleDirs(dist.Config)
	for _, dir := range dirs {
		info, statErr := fs.Stat(fsys, dir)
		if statErr != nil {
			fmt.Fprintf(h, "%s:missing", dir)
			continue
		}
		fmt.Fprintf(h, "%s:%d", dir, info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func moduleDirs(cfg distconfig.Config) []string {
	dirs := make([]string, 0, len(cfg.Modules)+len(cfg.SharedModules))
	for _, m := range cfg.Modules {
		dirs = append(dirs, m.Path)
	}
	for _, m := range cfg.SharedModules {
		dirs = append(dirs, m.Path)
	}
	return dirs
}
