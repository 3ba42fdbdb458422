package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/SLDem/BlogApp/internal/models"
	"github.com/SLDem/BlogApp/internal/util"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = 300 * time.Second
)

type entry struct {
	email      string
	posts      []models.Post
	insertedAt time.Time
}

// PostCache holds the most recently computed post listing per user email.
// Entries live until their age reaches the TTL or until capacity pressure
// evicts the oldest-inserted entry. All operations are atomic; the cache is
// safe for concurrent use.
type PostCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    util.Clock
	entries  map[string]*list.Element
	order    *list.List // front = oldest inserted
}

func New(capacity int, ttl time.Duration, clock util.Clock) *PostCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		entries:  map[string]*list.Element{},
		order:    list.New(),
	}
}

// Get returns the cached listing for email, or ok=false when the entry is
// missing or its age has reached the TTL. Expired entries are dropped on
// observation.
func (c *PostCache) Get(email string) ([]models.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[email]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.clock.Now().Sub(e.insertedAt) >= c.ttl {
		c.remove(el)
		return nil, false
	}
	return e.posts, true
}

// Put inserts or overwrites the listing for email. An overwrite counts as a
// fresh insertion for eviction ordering. Entries beyond capacity are evicted
// oldest-inserted first.
func (c *PostCache) Put(email string, posts []models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if el, ok := c.entries[email]; ok {
		e := el.Value.(*entry)
		e.posts = posts
		e.insertedAt = now
		c.order.MoveToBack(el)
		return
	}
	el := c.order.PushBack(&entry{email: email, posts: posts, insertedAt: now})
	c.entries[email] = el
	for c.order.Len() > c.capacity {
		c.remove(c.order.Front())
	}
}

// Invalidate removes any entry for email immediately. Callers invoke it on
// every change to that user's post set so listings never outlive a write.
func (c *PostCache) Invalidate(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[email]; ok {
		c.remove(el)
	}
}

// Len reports the current entry count.
func (c *PostCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *PostCache) remove(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.email)
}
