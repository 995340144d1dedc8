package repository

import (
	"context"
	"fmt"

	"shopease/internal/domain"
	"shopease/internal/storage"
)

// CartRepository persists a visitor's cart as a whole
type CartRepository interface {
	Get(ctx context.Context, clientID string) (domain.Cart, error)
	Save(ctx context.Context, clientID string, cart domain.Cart) error
	Update(ctx context.Context, clientID string, fn func(domain.Cart) (domain.Cart, error)) error
	Clear(ctx context.Context, clientID string) error
}

type cartRepository struct {
	store *storage.Store
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(store *storage.Store) CartRepository {
	return &cartRepository{store: store}
}

// Get returns the stored cart, or an empty cart when none is stored
func (r *cartRepository) Get(ctx context.Context, clientID string) (domain.Cart, error) {
	cart, err := storage.GetOr(ctx, r.store.For(clientID), storage.KeyCart, domain.Cart{})
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) Save(ctx context.Context, clientID string, cart domain.Cart) error {
	if cart == nil {
		cart = domain.Cart{}
	}
	if err := r.store.For(clientID).Set(ctx, storage.KeyCart, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Update applies fn to the stored cart and saves the result. Updates for one
// visitor never interleave; an error from fn leaves the cart unchanged.
func (r *cartRepository) Update(ctx context.Context, clientID string, fn func(domain.Cart) (domain.Cart, error)) error {
	return storage.Update(ctx, r.store.For(clientID), storage.KeyCart, domain.Cart{}, func(cart domain.Cart) (domain.Cart, error) {
		next, err := fn(cart)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = domain.Cart{}
		}
		return next, nil
	})
}

// Clear deletes the cart wholesale
func (r *cartRepository) Clear(ctx context.Context, clientID string) error {
	if err := r.store.For(clientID).Remove(ctx, storage.KeyCart); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
