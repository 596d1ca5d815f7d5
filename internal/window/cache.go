package window

// Cache holds the most recently observed Snapshot.
//
// There is no incremental update: every change to the window set arrives as a
// full replacement. A Cache is owned by a single goroutine and is not safe for
// concurrent use.
type Cache struct {
	windows Snapshot
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{}
}

// Replace discards all prior entries and stores a copy of snapshot
func (c *Cache) Replace(snapshot Snapshot) {
	windows := make(Snapshot, len(snapshot))
	copy(windows, snapshot)
	c.windows = windows
}

// Lookup returns the window with the given id from the current snapshot.
// Window counts are in the tens, so a linear scan is fine.
func (c *Cache) Lookup(id uint64) (Record, bool) {
	for _, w := range c.windows {
		if w.ID == id {
			return w, true
		}
	}
	return Record{}, false
}

// Len returns the number of windows in the current snapshot
func (c *Cache) Len() int {
	return len(c.windows)
}
