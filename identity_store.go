package auth

import (
	"context"
	"sync"
)

// MemoryIdentityStore keeps identities in insertion order. It is safe for
// concurrent use; Insert checks and assigns ids atomically.
type MemoryIdentityStore struct {
	mu         sync.RWMutex
	identities []*StoredIdentity
	byUsername map[string]int
	nextID     int
}

var _ IdentityStore = (*MemoryIdentityStore)(nil)

// NewMemoryIdentityStore returns a store holding the given identities.
// Duplicate usernames in seed keep the first occurrence.
func NewMemoryIdentityStore(seed ...StoredIdentity) *MemoryIdentityStore {
	s := &MemoryIdentityStore{
		byUsername: make(map[string]int, len(seed)),
		nextID:     1,
	}
	for _, identity := range seed {
		if _, ok := s.byUsername[identity.Name]; ok {
			continue
		}
		s.add(identity)
	}
	return s
}

func (s *MemoryIdentityStore) add(identity StoredIdentity) *StoredIdentity {
	stored := identity
	s.identities = append(s.identities, &stored)
	s.byUsername[stored.Name] = len(s.identities) - 1
	if stored.IdentityID >= s.nextID {
		s.nextID = stored.IdentityID + 1
	}
	c := stored
	return &c
}

// FindByUsername is an exact, case-sensitive lookup.
func (s *MemoryIdentityStore) FindByUsername(ctx context.Context, username string) (*StoredIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byUsername[username]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	c := *s.identities[idx]
	return &c, nil
}

// Insert stores identity under the next sequential id.
func (s *MemoryIdentityStore) Insert(ctx context.Context, identity StoredIdentity) (*StoredIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[identity.Name]; ok {
		return nil, derive(ErrUsernameTaken, nil, map[string]any{"username": identity.Name})
	}
	identity.IdentityID = s.nextID
	return s.add(identity), nil
}

// List returns copies of every identity in insertion order.
func (s *MemoryIdentityStore) List(ctx context.Context) ([]*StoredIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StoredIdentity, 0, len(s.identities))
	for _, identity := range s.identities {
		c := *identity
		out = append(out, &c)
	}
	return out, nil
}
