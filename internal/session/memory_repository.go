package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthgate/internal/upstream"
)

// InMemoryRepository stores sessions in an in-process map, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byHash map[string]Record
	hashes map[uuid.UUID]string
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byHash: make(map[string]Record),
		hashes: make(map[uuid.UUID]string),
	}
}

// Create stores a new session record.
func (r *InMemoryRepository) Create(_ context.Context, rec Record, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byHash[tokenHash] = rec
	r.hashes[rec.ID] = tokenHash
	return nil
}

// FindByTokenHash returns the session with the given token hash, or nil.
func (r *InMemoryRepository) FindByTokenHash(_ context.Context, tokenHash string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ReplaceUser swaps the stored user snapshot for a session.
func (r *InMemoryRepository) ReplaceUser(_ context.Context, id uuid.UUID, user upstream.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, ok := r.hashes[id]
	if !ok {
		return nil
	}
	rec := r.byHash[hash]
	rec.User = user
	r.byHash[hash] = rec
	return nil
}

// Delete removes a session by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, ok := r.hashes[id]
	if !ok {
		return nil
	}
	delete(r.byHash, hash)
	delete(r.hashes, id)
	return nil
}

// DeleteExpired removes every expired session and reports how many.
func (r *InMemoryRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var removed int64
	for hash, rec := range r.byHash {
		if rec.Expired(now) {
			delete(r.byHash, hash)
			delete(r.hashes, rec.ID)
			removed++
		}
	}
	return removed, nil
}
