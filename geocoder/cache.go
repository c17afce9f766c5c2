package geocoder

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultCacheSize is how many addresses the cache will hold
const DefaultCacheSize = 256

// Cache is a flat key/value file of geocoded addresses. A nil location
// is a valid entry and remembers that an address could not be found.
// Every Set is written to disk right away.
//
// The cache holds at most size addresses, the file included: past that
// the least recently used address is dropped from both.
type Cache struct {
	path string
	mem  gcache.Cache
	mu   sync.Mutex
}

// OpenCache loads the cache file at path; a missing file is an empty cache
func OpenCache(path string, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &Cache{
		path: path,
		mem:  gcache.New(size).LRU().Build(),
	}

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read geocode cache")
	}

	entries := map[string]*Location{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, errors.Wrapf(err, "corrupt geocode cache %s", path)
		}
	}
	for k, v := range entries {
		c.mem.Set(k, v)
	}
	return c, nil
}

// Get returns the entry for address and whether there was one
func (c *Cache) Get(address string) (*Location, bool) {
	v, err := c.mem.Get(address)
	if err != nil {
		return nil, false
	}
	loc, _ := v.(*Location)
	return loc, true
}

// Set stores an entry and syncs the file
func (c *Cache) Set(address string, loc *Location) error {
	if err := c.mem.Set(address, loc); err != nil {
		return err
	}
	return c.sync()
}

// Remove drops an entry and syncs the file
func (c *Cache) Remove(address string) error {
	if !c.mem.Remove(address) {
		return nil
	}
	return c.sync()
}

// Len is the number of cached addresses
func (c *Cache) Len() int {
	return c.mem.Len(false)
}

func (c *Cache) sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := map[string]*Location{}
	for k, v := range c.mem.GetALL(false) {
		key, ok := k.(string)
		if !ok {
			continue
		}
		loc, _ := v.(*Location)
		entries[key] = loc
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return errors.Wrap(err, "geocode cache dir")
	}
	// write then rename so a crash never leaves half a file
	tmp := c.path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "write geocode cache")
	}
	return errors.Wrap(os.Rename(tmp, c.path), "write geocode cache")
}

// Resolver answers address lookups from the cache and falls back to the
// geocoder on a miss, remembering the answer either way
type Resolver struct {
	cache    *Cache
	geocoder Geocoder
}

// NewResolver ties a cache to a geocoder
func NewResolver(cache *Cache, geocoder Geocoder) *Resolver {
	return &Resolver{cache: cache, geocoder: geocoder}
}

// Resolve looks up an address. Errors from the geocoder are not cached.
func (r *Resolver) Resolve(ctx context.Context, address string) (*Location, error) {
	if loc, ok := r.cache.Get(address); ok {
		return loc, nil
	}

	loc, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(address, loc); err != nil {
		// the answer is still good, it just won't survive a restart
		zap.S().Named("Geocoder").Warnf("cache geocode result for %q: %v", address, err)
	}
	return loc, nil
}

// Forget drops a cached address so the next Resolve asks the service again
func (r *Resolver) Forget(address string) error {
	return r.cache.Remove(address)
}
