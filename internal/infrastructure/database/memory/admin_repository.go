package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"consultant-access/internal/domain/admin"

	"github.com/google/uuid"
)

type AdminRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]admin.Admin
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{items: make(map[uuid.UUID]admin.Admin)}
}

func (r *AdminRepository) Create(_ context.Context, a *admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	for _, existing := range r.items {
		if existing.Email == a.Email {
			return admin.ErrEmailTaken
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.items[a.ID] = *a
	return nil
}

func (r *AdminRepository) GetByID(_ context.Context, id uuid.UUID) (*admin.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return nil, admin.ErrNotFound
	}
	return &a, nil
}

func (r *AdminRepository) GetByEmail(_ context.Context, email string) (*admin.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range r.items {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, admin.ErrNotFound
}
