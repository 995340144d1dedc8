package repository

import (
	"context"
	"errors"
	"fmt"

	"shopease/internal/domain"
	"shopease/internal/storage"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository defines the interface for the persisted user list.
// Users are append-only; there is no update or delete.
type UserRepository interface {
	Create(ctx context.Context, clientID string, user domain.User) error
	FindByEmail(ctx context.Context, clientID, email string) (*domain.User, error)
	List(ctx context.Context, clientID string) ([]domain.User, error)
}

type userRepository struct {
	store *storage.Store
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(store *storage.Store) UserRepository {
	return &userRepository{store: store}
}

// Create appends a user, rejecting an email that is already registered.
// The check and the append happen in one update, so two concurrent signups
// with one email cannot both succeed.
func (r *userRepository) Create(ctx context.Context, clientID string, user domain.User) error {
	err := storage.Update(ctx, r.store.For(clientID), storage.KeyUsers, []domain.User{}, func(users []domain.User) ([]domain.User, error) {
		for _, u := range users {
			if u.Email == user.Email {
				return nil, ErrUserAlreadyExists
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves the first user registered with email
func (r *userRepository) FindByEmail(ctx context.Context, clientID, email string) (*domain.User, error) {
	users, err := r.List(ctx, clientID)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == email {
			return &u, nil
		}
	}

	return nil, ErrUserNotFound
}

// List returns every registered user in signup order
func (r *userRepository) List(ctx context.Context, clientID string) ([]domain.User, error) {
	users, err := storage.GetOr(ctx, r.store.For(clientID), storage.KeyUsers, []domain.User{})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}
