// Package memory provides in-process repositories used when no database is
// configured and by service tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/repository"
)

type state struct {
	users      map[int64]*domain.User
	items      map[int64]*domain.Item
	nextUserID int64
	nextItemID int64
}

func newState() *state {
	return &state{
		users: make(map[int64]*domain.User),
		items: make(map[int64]*domain.Item),
	}
}

func (s *state) clone() *state {
	cp := &state{
		users:      make(map[int64]*domain.User, len(s.users)),
		items:      make(map[int64]*domain.Item, len(s.items)),
		nextUserID: s.nextUserID,
		nextItemID: s.nextItemID,
	}
	for id, u := range s.users {
		user := *u
		cp.users[id] = &user
	}
	for id, it := range s.items {
		cp.items[id] = it.Clone()
	}
	return cp
}

// Store keeps every table behind one mutex. A unit of work holds the mutex
// for its whole duration and restores a snapshot when it fails, so units of
// work are serialized and atomic. Sequence values consumed by a failed unit
// stay consumed, as with a database sequence.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Repositories() repository.Repositories {
	return s.bind(false)
}

// InTx must not be called from inside fn.
func (s *Store) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.restore(snapshot)
		}
	}()

	if err := fn(s.bind(true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// restore rolls the tables back to snapshot while keeping sequence values.
func (s *Store) restore(snapshot *state) {
	snapshot.nextUserID = s.st.nextUserID
	snapshot.nextItemID = s.st.nextItemID
	s.st = snapshot
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) bind(inTx bool) repository.Repositories {
	return repository.Repositories{
		Users: &userRepository{store: s, inTx: inTx},
		Items: &itemRepository{store: s, inTx: inTx},
	}
}

// access runs fn against the current state, taking the lock unless the
// caller is inside a unit of work that already holds it.
func (s *Store) access(inTx bool, fn func(*state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

func paginate[T any](rows []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(rows) {
		return rows[:0]
	}
	if opts.Offset > 0 {
		rows = rows[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(a, b)
}
