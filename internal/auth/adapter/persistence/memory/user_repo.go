package memory

import (
	"context"
	"sync"

	"plant-shop/internal/auth/domain/model"
	"plant-shop/internal/auth/domain/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository keeps users in process memory.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email := model.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[email]; taken {
		return model.ErrUserExists
	}
	if _, taken := r.byID[user.ID]; taken {
		return model.ErrUserExists
	}

	user.Email = email
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[model.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}
