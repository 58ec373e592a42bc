package bolt

import (
	"context"
	"fmt"

	"plant-shop/internal/auth/domain/model"
	"plant-shop/internal/auth/domain/repository"

	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"
)

var _ repository.UserRepository = (*UserRepository)(nil)

var (
	json         = jsoniter.ConfigCompatibleWithStandardLibrary
	usersBucket  = []byte("users")
	emailsBucket = []byte("user_emails")
)

// storedUser keeps the password hash, which model.User hides from JSON.
type storedUser struct {
	model.User
	PasswordHash string `json:"passwordHash,omitempty"`
}

// UserRepository stores users in two buckets of a shared bbolt file: users by
// id, and an email index pointing at ids.
type UserRepository struct {
	db *bolt.DB
}

// NewUserRepository creates the buckets if needed.
func NewUserRepository(db *bolt.DB) (*UserRepository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(usersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(emailsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init bolt user buckets: %w", err)
	}
	return &UserRepository{db: db}, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.Email = model.NormalizeEmail(user.Email)
	raw, err := json.Marshal(storedUser{User: *user, PasswordHash: user.PasswordHash})
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		emails := tx.Bucket(emailsBucket)
		users := tx.Bucket(usersBucket)
		if emails.Get([]byte(user.Email)) != nil || users.Get([]byte(user.ID)) != nil {
			return model.ErrUserExists
		}
		if err := users.Put([]byte(user.ID), raw); err != nil {
			return err
		}
		return emails.Put([]byte(user.Email), []byte(user.ID))
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *model.User
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = get(tx, []byte(id))
		return err
	})
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *model.User
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(emailsBucket).Get([]byte(model.NormalizeEmail(email)))
		if id == nil {
			return model.ErrUserNotFound
		}
		var err error
		user, err = get(tx, id)
		return err
	})
	return user, err
}

func get(tx *bolt.Tx, id []byte) (*model.User, error) {
	raw := tx.Bucket(usersBucket).Get(id)
	if raw == nil {
		return nil, model.ErrUserNotFound
	}
	var su storedUser
	if err := json.Unmarshal(raw, &su); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	user := su.User
	user.PasswordHash = su.PasswordHash
	return &user, nil
}
