package rapsqlite

import (
	"container/list"
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
)

// stmtCache is a per-connection LRU cache of compiled statements (C2),
// keyed on the exact SQL text. Entries never cross connections: each Conn
// owns its own stmtCache bound to its own *sql.Conn.
//
// Unlike a connection-pool-shared statement cache, a SQLite Conn only ever
// has one statement in flight (the busy flag in Conn enforces that), so
// concurrent borrowers of the same entry never happen. What a SQLite cache
// does need to guard against is eviction racing with a still-open result
// set: QueryContext returns *sql.Rows bound to the *sql.Stmt it came from,
// and closing that Stmt out from under an unread Rows breaks iteration. So
// every getOrPrepare pins its entry (refs++) until the caller releases it,
// and evictLRU skips any entry still pinned rather than closing a
// statement a caller is mid-use of.
type stmtCache struct {
	cap int
	mu  sync.Mutex
	ll  *list.List               // front = most recently used
	m   map[string]*list.Element // sql text -> element

	hits   uint64
	misses uint64
}

type stmtEntry struct {
	key  string
	stmt *sql.Stmt
	refs int
}

func newStmtCache(capacity int) *stmtCache {
	if capacity < 0 {
		capacity = 0
	}
	return &stmtCache{cap: capacity, ll: list.New(), m: make(map[string]*list.Element)}
}

// getOrPrepare returns a compiled statement for query, compiling it via
// conn if this is the first use, and pins the returned entry so it cannot
// be evicted until the caller pairs this call with release(query).
// database/sql resets bind state and cursor position on every new
// Exec/Query against the same *sql.Stmt, so no separate "reset" step is
// needed before returning it to the caller.
func (c *stmtCache) getOrPrepare(ctx context.Context, conn *sql.Conn, query string) (*sql.Stmt, bool, error) {
	if c == nil || c.cap == 0 {
		st, err := conn.PrepareContext(ctx, query)
		return st, false, err
	}
	c.mu.Lock()
	if ele, ok := c.m[query]; ok {
		c.ll.MoveToFront(ele)
		e := ele.Value.(*stmtEntry)
		e.refs++
		atomic.AddUint64(&c.hits, 1)
		c.mu.Unlock()
		return e.stmt, true, nil
	}
	c.mu.Unlock()

	// Prepare outside the lock: compilation can block on the connection,
	// and the cache must stay usable by other callers meanwhile. A
	// connection only ever has one statement in flight at a time (the
	// busy-flag in Conn enforces that), so there is no risk of a second
	// caller preparing the same text concurrently here.
	st, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[query]; ok {
		_ = st.Close()
		c.ll.MoveToFront(ele)
		e := ele.Value.(*stmtEntry)
		e.refs++
		atomic.AddUint64(&c.hits, 1)
		return e.stmt, true, nil
	}
	atomic.AddUint64(&c.misses, 1)
	ele := c.ll.PushFront(&stmtEntry{key: query, stmt: st, refs: 1})
	c.m[query] = ele
	c.evictOverCapacity()
	return st, false, nil
}

// release unpins the cache entry for query and then re-runs eviction: if
// the cache is over capacity, the least recently used unpinned entry is
// evicted at once, which can be the entry just released even while it is
// the most recently used. Callers pair
// every getOrPrepare with exactly one release once they are done reading
// from the statement (after the result set is closed, or immediately after
// Exec for statements that return no rows).
func (c *stmtCache) release(query string) {
	if c == nil || c.cap == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.m[query]
	if !ok {
		return
	}
	e := ele.Value.(*stmtEntry)
	if e.refs > 0 {
		e.refs--
	}
	c.evictOverCapacity()
}

// evictOverCapacity evicts LRU entries until the cache is back at or under
// capacity, skipping any entry still pinned by an in-flight caller. If
// every entry past capacity is pinned, the cache is left temporarily over
// capacity rather than closing a statement someone is using.
func (c *stmtCache) evictOverCapacity() {
	for c.ll.Len() > c.cap {
		if !c.evictOneLRU() {
			return
		}
	}
}

// evictOneLRU removes the least-recently-used unpinned entry, reports
// whether it found one to remove.
func (c *stmtCache) evictOneLRU() bool {
	for ele := c.ll.Back(); ele != nil; ele = ele.Prev() {
		e := ele.Value.(*stmtEntry)
		if e.refs > 0 {
			continue
		}
		c.ll.Remove(ele)
		delete(c.m, e.key)
		_ = e.stmt.Close()
		return true
	}
	return false
}

// clear finalizes every cached statement regardless of pin state. Called
// when the owning connection is drained or closed, at which point no
// caller can still be reading from any of them.
func (c *stmtCache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for e := c.ll.Front(); e != nil; e = e.Next() {
		_ = e.Value.(*stmtEntry).stmt.Close()
	}
	c.ll.Init()
	for k := range c.m {
		delete(c.m, k)
	}
}

func (c *stmtCache) stats() (hits, misses uint64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	hits = atomic.LoadUint64(&c.hits)
	misses = atomic.LoadUint64(&c.misses)
	c.mu.Lock()
	size = c.ll.Len()
	c.mu.Unlock()
	return
}
