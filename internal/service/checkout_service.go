package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shopease/internal/domain"
	"shopease/internal/storage"

	"go.uber.org/zap"
)

// OrderDateLayout formats the human-readable invoice timestamp
const OrderDateLayout = "1/2/2006, 3:04:05 PM"

// CheckoutInput carries the shipping and payment form
type CheckoutInput struct {
	Name          string
	Address       string
	PaymentMethod string
}

// CheckoutService turns the current cart into an invoice
type CheckoutService struct {
	auth   AuthService
	cart   *CartService
	store  *storage.Store
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. Order dates are shown in loc.
func NewCheckoutService(
	auth AuthService,
	cart *CartService,
	store *storage.Store,
	loc *time.Location,
	logger *zap.Logger,
) *CheckoutService {
	if loc == nil {
		loc = time.Local
	}
	return &CheckoutService{
		auth:   auth,
		cart:   cart,
		store:  store,
		now:    time.Now,
		loc:    loc,
		logger: logger,
	}
}

// PlaceOrder requires a session, non-blank shipping fields and a non-empty
// cart. On success it stores the invoice and clears the cart; on any failure
// nothing is changed. The cart is emptied in the same update that reads it,
// so an item added concurrently is either on the invoice or left in the cart.
func (s *CheckoutService) PlaceOrder(ctx context.Context, clientID string, in CheckoutInput) (*domain.Invoice, error) {
	session, err := s.auth.RequireSession(ctx, clientID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	address := strings.TrimSpace(in.Address)
	payment := strings.TrimSpace(in.PaymentMethod)
	if name == "" || address == "" || payment == "" {
		return nil, ErrMissingFields
	}

	taken, view, err := s.cart.take(ctx, clientID)
	if err != nil {
		return nil, err
	}

	placedAt := s.now()
	invoice := &domain.Invoice{
		OrderID:       fmt.Sprintf("ORD-%d", placedAt.UnixMilli()),
		PlacedAt:      placedAt.UTC(),
		OrderDate:     placedAt.In(s.loc).Format(OrderDateLayout),
		CustomerEmail: session.Email,
		BillingName:   name,
		Address:       address,
		PaymentMethod: payment,
		Lines:         make([]domain.InvoiceLine, 0, len(view.Items)),
	}
	for _, item := range view.Items {
		invoice.Lines = append(invoice.Lines, domain.InvoiceLine{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Image:     item.Product.Image,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.Price,
			Total:     item.Subtotal,
		})
		invoice.GrandTotal += item.Subtotal
	}

	if err := s.store.For(clientID).Set(ctx, storage.KeyInvoice, invoice); err != nil {
		if restoreErr := s.cart.restore(ctx, clientID, taken); restoreErr != nil {
			s.logger.Error("Failed to restore cart after checkout failure",
				zap.String("client_id", clientID),
				zap.Error(restoreErr),
			)
		}
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("client_id", clientID),
		zap.String("order_id", invoice.OrderID),
		zap.Int("lines", len(invoice.Lines)),
		zap.Int("grand_total", invoice.GrandTotal),
	)
	return invoice, nil
}

// LastInvoice returns the most recently generated invoice
func (s *CheckoutService) LastInvoice(ctx context.Context, clientID string) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	found, err := s.store.For(clientID).Get(ctx, storage.KeyInvoice, &invoice)
	if err != nil {
		return nil, err
	}
	if !found || invoice == nil {
		return nil, ErrNoInvoice
	}
	return invoice, nil
}
