// Package memory provides an in-memory session.Store. Sessions are lost
// when the process restarts. Idle sessions expire after a TTL and the
// least recently used session is evicted when the store is full.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rhuss/askgate/pkg/session"
)

// entry holds a stored session and its metadata.
type entry struct {
	sess      session.Session
	expiresAt time.Time
	lruElem   *list.Element // position in LRU list
}

// Store is an in-memory session store with TTL expiry and LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
	ttl     time.Duration

	now func() time.Time
}

// Ensure Store implements session.Store at compile time.
var _ session.Store = (*Store)(nil)

// New creates a store. maxSize 0 means unlimited; ttl 0 means sessions
// never expire.
func New(maxSize int, ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the session, marks it recently used and pushes
// back its expiry, so the TTL measures idle time.
func (s *Store) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	if s.expired(e) {
		s.remove(id, e)
		return nil, session.ErrNotFound
	}

	e.expiresAt = s.expiry(s.now())
	s.lruList.MoveToFront(e.lruElem)
	cp := e.sess
	return &cp, nil
}

// Save stores a copy of sess and refreshes its expiry.
func (s *Store) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cp := *sess
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	if e, ok := s.entries[sess.ID]; ok {
		e.sess = cp
		e.expiresAt = s.expiry(now)
		s.lruList.MoveToFront(e.lruElem)
		return nil
	}

	// Evict if at capacity.
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(sess.ID)
	s.entries[sess.ID] = &entry{
		sess:      cp,
		expiresAt: s.expiry(now),
		lruElem:   elem,
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		s.remove(id, e)
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// they are touched or evicted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) expiry(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (s *Store) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *Store) remove(id string, e *entry) {
	s.lruList.Remove(e.lruElem)
	delete(s.entries, id)
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.remove(id, s.entries[id])
}
