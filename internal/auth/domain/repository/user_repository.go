package repository

import (
	"context"

	"plant-shop/internal/auth/domain/model"
)

// UserRepository stores users. Emails are unique; Create returns
// model.ErrUserExists on a duplicate and lookups return model.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// FederatedProvider is an external identity provider reached by redirect.
type FederatedProvider interface {
	Kind() string
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (*model.Identity, error)
}
