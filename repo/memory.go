package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
	"github.com/gofrs/uuid/v5"
)

// cell holds one record. The value pointer is swapped as a whole, so a
// reader never sees a half written user; mu serializes writers.
type cell struct {
	mu    sync.Mutex
	value atomic.Pointer[domain.User]
}

// MemoryStore is a concurrency-safe, in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	cells map[uuid.UUID]*cell
	seq   int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cells: make(map[uuid.UUID]*cell),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, fields domain.UserFields) (*domain.User, error) {
	user, err := newUser(ctx, fields)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cells[user.ID]; ok {
		return nil, fmt.Errorf("user id %s already taken", user.ID)
	}
	s.seq++
	user.Seq = s.seq
	c := &cell{}
	stored := user
	c.value.Store(&stored)
	s.cells[user.ID] = c
	return &user, nil
}

func (s *MemoryStore) List(ctx context.Context, page common.Page) ([]domain.User, int64, error) {
	s.mu.RLock()
	cells := make([]*cell, 0, len(s.cells))
	for _, c := range s.cells {
		cells = append(cells, c)
	}
	s.mu.RUnlock()

	users := make([]domain.User, 0, len(cells))
	for _, c := range cells {
		if value := c.value.Load(); value != nil {
			users = append(users, *value)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Seq < users[j].Seq
	})
	total := int64(len(users))
	if page.All() {
		return users, total, nil
	}
	if page.Offset < 0 || page.Offset >= len(users) {
		return []domain.User{}, total, nil
	}
	end := len(users)
	if page.Size < end-page.Offset {
		end = page.Offset + page.Size
	}
	return users[page.Offset:end], total, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.User, error) {
	c, err := s.cell(id)
	if err != nil {
		return nil, err
	}
	value := c.value.Load()
	if value == nil {
		return nil, &domain.NotFoundError{Resource: domain.UsersResource, ID: id}
	}
	user := *value
	return &user, nil
}

func (s *MemoryStore) Replace(ctx context.Context, id string, fields domain.UserFields) (*domain.User, error) {
	return s.Patch(ctx, id, replaceFields(fields))
}

func (s *MemoryStore) Patch(ctx context.Context, id string, mutate Mutation) (*domain.User, error) {
	c, err := s.cell(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.value.Load()
	if current == nil {
		return nil, &domain.NotFoundError{Resource: domain.UsersResource, ID: id}
	}
	next, err := applyMutation(ctx, *current, mutate)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	stored := next
	c.value.Store(&stored)
	return &next, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	uid, err := domain.ParseID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cells[uid]
	if !ok {
		return &domain.NotFoundError{Resource: domain.UsersResource, ID: id}
	}
	// Wait for an in-flight mutation of this record to finish.
	c.mu.Lock()
	c.value.Store(nil)
	c.mu.Unlock()
	delete(s.cells, uid)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) cell(id string) (*cell, error) {
	uid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	c, ok := s.cells[uid]
	s.mu.RUnlock()
	if !ok {
		return nil, &domain.NotFoundError{Resource: domain.UsersResource, ID: id}
	}
	return c, nil
}
