// Package warmcache keeps the first page of each list on disk so screens can
// show something before the first fetch lands.
package warmcache

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"
	"github.com/peterbourgon/diskv/v3"

	"github.com/five82/almanac/internal/listsync"
)

const cacheSizeMax = 1 << 20

// Entry is one cached page.
type Entry struct {
	List    string           `cbor:"list"`
	Query   string           `cbor:"query"`
	SavedAt time.Time        `cbor:"saved_at"`
	Items   []map[string]any `cbor:"items"`
}

// Cache stores entries under a directory, one file per list and query.
type Cache struct {
	d      *diskv.Diskv
	dec    cbor.DecMode
	maxAge time.Duration
}

// Open returns a cache rooted at dir. Entries older than maxAge are ignored
// on Load; zero keeps them forever.
func Open(dir string, maxAge time.Duration) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder: %w", err)
	}
	return &Cache{
		d: diskv.New(diskv.Options{
			BasePath:          dir,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      cacheSizeMax,
		}),
		dec:    dec,
		maxAge: maxAge,
	}, nil
}

// Key names the slot for list under snap's filters and sort.
func Key(list string, snap listsync.QuerySnapshot) string {
	sum := md5.Sum([]byte(snap.Key()))
	return fmt.Sprintf("%s-%x", sanitize(list), sum[:8])
}

// Save stores the first page of a settled state. States that are still
// loading, failed or empty are skipped.
func (c *Cache) Save(st listsync.State) error {
	if c == nil || !st.Loaded || st.Error != nil || st.IsLoading || len(st.Items) == 0 {
		return nil
	}
	items := st.Items
	if n := st.Cursor.PageSize; n > 0 && len(items) > n {
		items = items[:n]
	}
	entry := Entry{
		List:    st.Name,
		Query:   st.Snapshot.Key(),
		SavedAt: time.Now().UTC(),
		Items:   make([]map[string]any, len(items)),
	}
	for i, it := range items {
		entry.Items[i] = plain(it)
	}
	raw, err := cbor.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.d.Write(Key(st.Name, st.Snapshot), raw); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	glog.V(2).Infof("warmcache: saved %d %s items", len(items), st.Name)
	return nil
}

// Load returns the cached page for list under snap.
func (c *Cache) Load(list string, snap listsync.QuerySnapshot) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	key := Key(list, snap)
	raw, err := c.d.Read(key)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			glog.Warningf("warmcache: read %s: %v", key, err)
		}
		return Entry{}, false
	}
	var entry Entry
	if err := c.dec.Unmarshal(raw, &entry); err != nil {
		glog.Warningf("warmcache: dropping corrupt entry %s: %v", key, err)
		_ = c.d.Erase(key)
		return Entry{}, false
	}
	if entry.Query != snap.Key() {
		return Entry{}, false
	}
	if c.maxAge > 0 && time.Since(entry.SavedAt) > c.maxAge {
		return Entry{}, false
	}
	return entry, true
}

// Warm seeds ctrl from the cache. It reports whether anything was seeded.
func (c *Cache) Warm(ctrl *listsync.Controller) bool {
	st := ctrl.State()
	entry, ok := c.Load(st.Name, st.Snapshot)
	if !ok {
		return false
	}
	items := make([]listsync.Item, len(entry.Items))
	for i, m := range entry.Items {
		items[i] = listsync.Item(m)
	}
	return ctrl.Seed(items)
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	return c.d.EraseAll()
}

// plain converts decoded JSON numbers so the entry survives a CBOR round
// trip with numeric types intact.
func plain(it listsync.Item) map[string]any {
	out := make(map[string]any, len(it))
	for k, v := range it {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = i
				continue
			}
			if f, err := n.Float64(); err == nil {
				out[k] = f
				continue
			}
			out[k] = n.String()
			continue
		}
		out[k] = v
	}
	return out
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", "/", "_", string(os.PathSeparator), "_").Replace(s)
	if s == "" {
		return "list"
	}
	return s
}

func keyToPath(key string) *diskv.PathKey {
	list, file, ok := strings.Cut(key, "-")
	if !ok {
		return &diskv.PathKey{FileName: key}
	}
	return &diskv.PathKey{Path: []string{list}, FileName: file + ".cbor"}
}

func pathToKey(pk *diskv.PathKey) string {
	file := strings.TrimSuffix(pk.FileName, ".cbor")
	if len(pk.Path) == 0 {
		return file
	}
	return strings.Join(pk.Path, "_") + "-" + file
}
