package service

import (
	"context"
	"strings"
	"time"

	"shopease/internal/repository"
	"shopease/internal/storage"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type testServices struct {
	store    *storage.Store
	carts    repository.CartRepository
	cart     *CartService
	catalog  *CatalogService
	auth     AuthService
	checkout *CheckoutService
	theme    *ThemeService
	notifier *Notifier
}

func newTestServices(hashPasswords bool) *testServices {
	return newTestServicesOn(storage.NewMemoryBackend(), hashPasswords)
}

func newTestServicesOn(backend storage.Backend, hashPasswords bool) *testServices {
	logger := zap.NewNop()
	store := storage.NewStore(backend, logger)
	catalogRepo := repository.NewCatalogRepository(repository.DefaultProducts())
	carts := repository.NewCartRepository(store)

	cart := NewCartService(catalogRepo, carts, logger)
	auth := NewAuthService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		hashPasswords,
		logger,
	)

	return &testServices{
		store:    store,
		carts:    carts,
		cart:     cart,
		catalog:  NewCatalogService(catalogRepo, language.English),
		auth:     auth,
		checkout: NewCheckoutService(auth, cart, store, time.UTC, logger),
		theme:    NewThemeService(store, logger),
		notifier: NewNotifier(store, logger),
	}
}

// failingWrites rejects writes to keys with the given suffix
type failingWrites struct {
	*storage.MemoryBackend
	suffix string
}

func (f *failingWrites) Set(ctx context.Context, key string, value []byte) error {
	if strings.HasSuffix(key, f.suffix) {
		return assert.AnError
	}
	return f.MemoryBackend.Set(ctx, key, value)
}
