package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps quota counters in process memory. All operations run
// under a single mutex, which serializes commits per user. Suitable for
// tests and single-node deployments.
type MemoryStore struct {
	mu     sync.Mutex
	quotas map[uuid.UUID]*UserQuota
	roles  map[uuid.UUID]Role
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotas: make(map[uuid.UUID]*UserQuota),
		roles:  make(map[uuid.UUID]Role),
	}
}

// SetRole records the role used for a user's limit lookups. Unset users
// default to developer.
func (s *MemoryStore) SetRole(userID uuid.UUID, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = role
	if q, ok := s.quotas[userID]; ok {
		q.Role = role
	}
}

func (s *MemoryStore) getLocked(userID uuid.UUID) *UserQuota {
	q, ok := s.quotas[userID]
	if !ok {
		role, ok := s.roles[userID]
		if !ok {
			role = RoleDeveloper
		}
		q = &UserQuota{UserID: userID, Role: role}
		s.quotas[userID] = q
	}
	return q
}

// Get returns a copy of the user's quota, creating a zeroed row if absent.
func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*UserQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.getLocked(userID)
	return &cp, nil
}

// Commit rolls over stale windows and adds the usage under the store lock.
func (s *MemoryStore) Commit(_ context.Context, userID uuid.UUID, tokens int, now time.Time) (*UserQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.getLocked(userID)
	q.applyCommit(tokens, now)
	cp := *q
	return &cp, nil
}
