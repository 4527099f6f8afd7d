package session

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/knnviz"
)

// Store keeps sessions in memory with LRU eviction and idle expiry.
// It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	opts      Options
	items     map[string]*list.Element
	evictList *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry struct {
	id         string
	state      *State
	lastAccess time.Time
}

// StoreStats is a snapshot of Store counters.
type StoreStats struct {
	Sessions  int
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewStore creates a Store.
func NewStore(optFns ...Option) *Store {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultOptions.Capacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		opts:      opts,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Create starts a new session and returns its id and initial state.
func (s *Store) Create() (string, State) {
	st := NewState()
	st.MaxPoints = s.opts.MaxPoints

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ent := &entry{id: id, state: st, lastAccess: s.opts.Now()}
	s.items[id] = s.evictList.PushFront(ent)

	for s.evictList.Len() > s.opts.Capacity {
		s.removeElement(s.evictList.Back())
		s.evictions.Add(1)
	}

	return id, st.Snapshot()
}

// Get returns a copy of the session state.
func (s *Store) Get(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	return ent.state.Snapshot(), nil
}

// Update runs fn on the session state under the store lock and returns a
// copy of the resulting state. fn must not retain the pointer. If fn returns
// an error, the state as left by fn is kept and the error is returned.
func (s *Store) Update(id string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	if err := fn(ent.state); err != nil {
		return ent.state.Snapshot(), err
	}
	return ent.state.Snapshot(), nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[id]
	if !ok {
		return false
	}
	s.removeElement(el)
	return true
}

// Len returns the number of live sessions, including expired ones that were
// not swept yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictList.Len()
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.opts.TTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	removed := 0
	// Least recently used sits at the back; stop at the first live entry.
	for el := s.evictList.Back(); el != nil; {
		ent := el.Value.(*entry)
		if now.Sub(ent.lastAccess) < s.opts.TTL {
			break
		}
		prev := el.Prev()
		s.removeElement(el)
		s.evictions.Add(1)
		removed++
		el = prev
	}
	return removed
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() StoreStats {
	return StoreStats{
		Sessions:  s.Len(),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}

// lookup finds a live entry and marks it as recently used.
// Caller must hold s.mu.
func (s *Store) lookup(id string) (*entry, error) {
	el, ok := s.items[id]
	if !ok {
		s.misses.Add(1)
		return nil, knnviz.ErrSessionNotFound
	}

	ent := el.Value.(*entry)
	now := s.opts.Now()
	if s.opts.TTL > 0 && now.Sub(ent.lastAccess) >= s.opts.TTL {
		s.removeElement(el)
		s.evictions.Add(1)
		s.misses.Add(1)
		return nil, knnviz.ErrSessionNotFound
	}

	s.hits.Add(1)
	ent.lastAccess = now
	s.evictList.MoveToFront(el)
	return ent, nil
}

// removeElement drops el from the list and the index.
// Caller must hold s.mu.
func (s *Store) removeElement(el *list.Element) {
	s.evictList.Remove(el)
	delete(s.items, el.Value.(*entry).id)
}
