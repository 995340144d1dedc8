package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"shopease/internal/invoice"
	"shopease/internal/middleware"
	"shopease/internal/repository"
	"shopease/internal/service"
	"shopease/internal/storage"
	"shopease/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type testApp struct {
	server *httptest.Server
	client *http.Client
	store  *storage.Store
}

func newTestServices(store *storage.Store, logger *zap.Logger) Services {
	catalogRepo := repository.NewCatalogRepository(repository.DefaultProducts())
	carts := repository.NewCartRepository(store)
	cart := service.NewCartService(catalogRepo, carts, logger)
	auth := service.NewAuthService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		false,
		logger,
	)
	notifier := service.NewNotifier(store, logger)

	return Services{
		Catalog:    service.NewCatalogService(catalogRepo, language.English),
		Cart:       cart,
		Auth:       auth,
		Checkout:   service.NewCheckoutService(auth, cart, store, time.UTC, logger),
		Theme:      service.NewThemeService(store, logger),
		Newsletter: service.NewNewsletterService(notifier, logger),
		Notifier:   notifier,
	}
}

// newTestApp serves pages and the API behind visitor identity, with a
// cookie-keeping client that does not follow redirects
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zap.NewNop()
	store := storage.NewStore(storage.NewMemoryBackend(), logger)
	svc := newTestServices(store, logger)

	renderer, err := view.New(view.Options{StoreName: "ShopEase", Currency: "₹", LogoPath: "assets/images/shop.png"}, logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.VisitorMiddleware(middleware.VisitorConfig{
		Secret:     "test-secret",
		CookieName: "visitor",
		MaxAge:     time.Hour,
	}, logger))

	NewPageHandler(svc, Documents{
		Invoices:        invoice.NewPDFRenderer(invoice.PDFOptions{StoreName: "ShopEase"}, logger),
		InvoiceFilename: "ShopEase-Invoice.pdf",
	}, renderer, logger).RegisterRoutes(r, nil)
	NewAPIHandler(svc, logger).RegisterRoutes(r, nil)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		server: srv,
		store:  store,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testApp) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// get fetches a page and returns its status and body
func (a *testApp) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp := a.do(t, http.MethodGet, path, nil, "")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

// post submits a form and returns the response without following redirects
func (a *testApp) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	return a.do(t, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// api sends a JSON request and decodes the JSON response into out, if given
func (a *testApp) api(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	resp := a.do(t, method, path, reader, "application/json")
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func bodyOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
