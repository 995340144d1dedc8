package service

import (
	"context"
	"errors"
	"fmt"

	"shopease/internal/domain"
	"shopease/internal/repository"

	"go.uber.org/zap"
)

// CartService implements the cart engine over the persisted cart
type CartService struct {
	catalog repository.CatalogRepository
	carts   repository.CartRepository
	logger  *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(catalog repository.CatalogRepository, carts repository.CartRepository, logger *zap.Logger) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   carts,
		logger:  logger,
	}
}

// Add puts qty units of productID into the cart, merging with an existing line.
// An unknown product leaves the cart untouched and returns ErrProductNotFound.
// Quantities below 1 are raised to 1.
func (s *CartService) Add(ctx context.Context, clientID string, productID, qty int) (*domain.Product, error) {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty < 1 {
		qty = 1
	}

	err = s.carts.Update(ctx, clientID, func(cart domain.Cart) (domain.Cart, error) {
		if i := cart.Find(productID); i >= 0 {
			cart[i].Quantity += qty
			return cart, nil
		}
		return append(cart, domain.CartLine{ProductID: productID, Quantity: qty}), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added to cart",
		zap.String("client_id", clientID),
		zap.Int("product_id", productID),
		zap.Int("qty", qty),
	)
	return product, nil
}

// ChangeQty sets the quantity of an existing line from raw user input,
// never storing less than 1
func (s *CartService) ChangeQty(ctx context.Context, clientID string, productID int, raw string) error {
	qty := ParseQuantity(raw)
	err := s.carts.Update(ctx, clientID, func(cart domain.Cart) (domain.Cart, error) {
		i := cart.Find(productID)
		if i < 0 {
			return nil, ErrLineNotInCart
		}
		cart[i].Quantity = qty
		return cart, nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Cart quantity changed",
		zap.String("client_id", clientID),
		zap.Int("product_id", productID),
		zap.Int("qty", qty),
	)
	return nil
}

// Remove deletes the line for productID. Removing an absent line is a no-op.
func (s *CartService) Remove(ctx context.Context, clientID string, productID int) error {
	err := s.carts.Update(ctx, clientID, func(cart domain.Cart) (domain.Cart, error) {
		kept := make(domain.Cart, 0, len(cart))
		for _, line := range cart {
			if line.ProductID != productID {
				kept = append(kept, line)
			}
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Removed from cart",
		zap.String("client_id", clientID),
		zap.Int("product_id", productID),
	)
	return nil
}

// Count returns the number of units in the cart for the cart badge
func (s *CartService) Count(ctx context.Context, clientID string) (int, error) {
	cart, err := s.carts.Get(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return cart.Count(), nil
}

// Total returns the sum of price times quantity over the cart
func (s *CartService) Total(ctx context.Context, clientID string) (int, error) {
	view, err := s.View(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return view.Total, nil
}

// View resolves the cart against the catalog. Lines whose product no longer
// exists are skipped and logged.
func (s *CartService) View(ctx context.Context, clientID string) (domain.CartView, error) {
	cart, err := s.carts.Get(ctx, clientID)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.resolve(ctx, clientID, cart)
}

// take empties the cart in one update and returns what it held. A cart with
// nothing purchasable is left alone and reported as ErrEmptyCart.
func (s *CartService) take(ctx context.Context, clientID string) (domain.Cart, domain.CartView, error) {
	var (
		taken domain.Cart
		view  domain.CartView
	)
	err := s.carts.Update(ctx, clientID, func(cart domain.Cart) (domain.Cart, error) {
		v, err := s.resolve(ctx, clientID, cart)
		if err != nil {
			return nil, err
		}
		if v.Empty() {
			return nil, ErrEmptyCart
		}
		taken, view = cart, v
		return domain.Cart{}, nil
	})
	if err != nil {
		return nil, domain.CartView{}, err
	}
	return taken, view, nil
}

// restore merges lines back into the cart, keeping anything added meanwhile
func (s *CartService) restore(ctx context.Context, clientID string, lines domain.Cart) error {
	return s.carts.Update(ctx, clientID, func(cart domain.Cart) (domain.Cart, error) {
		for _, line := range lines {
			if i := cart.Find(line.ProductID); i >= 0 {
				cart[i].Quantity += line.Quantity
				continue
			}
			cart = append(cart, line)
		}
		return cart, nil
	})
}

func (s *CartService) resolve(ctx context.Context, clientID string, cart domain.Cart) (domain.CartView, error) {
	view := domain.CartView{Items: make([]domain.CartItem, 0, len(cart)), Count: cart.Count()}
	for _, line := range cart {
		product, err := s.catalog.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				s.logger.Warn("Skipping cart line for unknown product",
					zap.String("client_id", clientID),
					zap.Int("product_id", line.ProductID),
				)
				continue
			}
			return domain.CartView{}, fmt.Errorf("failed to resolve cart line: %w", err)
		}

		subtotal := product.Price * line.Quantity
		view.Items = append(view.Items, domain.CartItem{
			Product:  *product,
			Quantity: line.Quantity,
			Subtotal: subtotal,
		})
		view.Total += subtotal
	}

	return view, nil
}
