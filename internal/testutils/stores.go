package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mfuentes/plaza/internal/domain"
)

// MemoryUserStore is an in-memory domain.UserRepository for tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

// NewMemoryUserStore creates an empty user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*domain.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return nil, domain.ErrUserAlreadyExists
		}
	}
	s.seq++
	stored := *user
	stored.ID = fmt.Sprintf("user:%d", s.seq)
	stored.CreatedAt = time.Now().UTC()
	s.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryUserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// MemoryMessageStore is an in-memory domain.MessageStore. Messages keep
// insertion order; FailAppend makes the next Append calls fail, for testing
// the persistence-failure path.
type MemoryMessageStore struct {
	mu        sync.Mutex
	seq       int
	messages  []domain.ChatMessage
	appendErr error
}

// NewMemoryMessageStore creates an empty message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

// FailAppend makes every subsequent Append return err. Pass nil to restore
// normal behavior.
func (s *MemoryMessageStore) FailAppend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

func (s *MemoryMessageStore) Append(ctx context.Context, msg domain.ChatMessage) (*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.seq++
	msg.ID = fmt.Sprintf("message:%d", s.seq)
	msg.CreatedAt = time.Now().UTC()
	s.messages = append(s.messages, msg)
	out := msg
	return &out, nil
}

func (s *MemoryMessageStore) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.messages)
	if limit > n {
		limit = n
	}
	// Newest first, matching the persistent store's query order.
	out := make([]domain.ChatMessage, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

// Len returns the number of persisted messages.
func (s *MemoryMessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Seed appends messages directly, bypassing failure injection.
func (s *MemoryMessageStore) Seed(msgs ...domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		s.seq++
		if msg.ID == "" {
			msg.ID = fmt.Sprintf("message:%d", s.seq)
		}
		s.messages = append(s.messages, msg)
	}
}

// MemoryProductStore is an in-memory domain.ProductRepository for tests.
type MemoryProductStore struct {
	mu       sync.Mutex
	seq      int
	order    []string
	products map[string]*domain.Product
}

// NewMemoryProductStore creates an empty product store.
func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[string]*domain.Product)}
}

func (s *MemoryProductStore) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	stored := *p
	stored.ID = fmt.Sprintf("product:%d", s.seq)
	stored.CreatedAt = time.Now().UTC()
	s.products[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	out := stored
	return &out, nil
}

func (s *MemoryProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *MemoryProductStore) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.products[id])
	}
	return out, nil
}

func (s *MemoryProductStore) Update(ctx context.Context, id string, p *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	existing.Stock = p.Stock
	out := *existing
	return &out, nil
}

func (s *MemoryProductStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
