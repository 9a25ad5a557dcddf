package nearest

import (
	"database/sql/driver"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/viant/sphere-knn/search"
)

// sharedCache holds built searchers keyed by db path, table and dataset so
// every connection of a process reuses them.
var sharedCache = struct {
	mu    sync.RWMutex
	byKey map[string]*cacheEntry
}{byKey: make(map[string]*cacheEntry)}

type cacheEntry struct {
	mu       sync.Mutex
	searcher *search.Searcher
	building bool
	cond     *sync.Cond
}

func newCacheEntry() *cacheEntry {
	e := &cacheEntry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *cacheEntry) get() *search.Searcher {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searcher
}

func (e *cacheEntry) set(s *search.Searcher) {
	e.mu.Lock()
	e.searcher = s
	e.mu.Unlock()
}

// acquire returns a cached searcher, or claims the build when none exists
// and nobody else is building. Callers that claim must call release.
func (e *cacheEntry) acquire() (*search.Searcher, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.building {
		e.cond.Wait()
	}
	if e.searcher != nil {
		return e.searcher, false
	}
	e.building = true
	return nil, true
}

func (e *cacheEntry) release() {
	e.mu.Lock()
	e.building = false
	e.cond.Broadcast()
	e.mu.Unlock()
}

func cacheKey(dbPath, tableName, dataset string) string {
	return dbPath + "|" + tableName + "|" + dataset
}

func getCacheEntry(key string) *cacheEntry {
	sharedCache.mu.RLock()
	entry := sharedCache.byKey[key]
	sharedCache.mu.RUnlock()
	if entry != nil {
		return entry
	}
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	if entry = sharedCache.byKey[key]; entry == nil {
		entry = newCacheEntry()
		sharedCache.byKey[key] = entry
	}
	return entry
}

// InvalidateCache drops cached searchers for a shadow table, limited to one
// dataset unless dataset is empty. It returns the number of entries cleared.
func InvalidateCache(shadow, dataset string) int {
	tableName := tableNameFromShadow(shadow)
	if tableName == "" {
		tableName = shadow
	}
	sharedCache.mu.RLock()
	defer sharedCache.mu.RUnlock()
	count := 0
	for k, entry := range sharedCache.byKey {
		var match bool
		if dataset == "" {
			match = strings.Contains(k, "|"+tableName+"|")
		} else {
			match = strings.HasSuffix(k, "|"+tableName+"|"+dataset)
		}
		if match {
			entry.set(nil)
			count++
		}
	}
	return count
}

var registerInvalidateOnce sync.Once

func registerInvalidate() error {
	var err error
	registerInvalidateOnce.Do(func() {
		err = sqlite.RegisterDeterministicScalarFunction("nearest_invalidate", 2, invalidateFunc)
	})
	return err
}

// invalidateFunc implements nearest_invalidate(shadow TEXT, dataset TEXT) INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return int64(0), nil
	}
	shadow, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	dataset, err := asString(args[1])
	if err != nil {
		return int64(0), nil
	}
	return int64(InvalidateCache(shadow, dataset)), nil
}
