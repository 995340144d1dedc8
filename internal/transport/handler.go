package transport

import (
	"net/http"
	"strings"

	"shopease/internal/invoice"
	"shopease/internal/middleware"
	"shopease/internal/service"

	"go.uber.org/zap"
)

// Services bundles what the handlers depend on
type Services struct {
	Catalog    *service.CatalogService
	Cart       *service.CartService
	Auth       service.AuthService
	Checkout   *service.CheckoutService
	Theme      *service.ThemeService
	Newsletter *service.NewsletterService
	Notifier   *service.Notifier
}

// Documents renders downloadable artifacts
type Documents struct {
	Invoices        *invoice.PDFRenderer
	InvoiceFilename string
}

func clientIDFrom(r *http.Request) string {
	id, _ := middleware.GetClientID(r.Context())
	return id
}

// safeBack returns raw when it is a local path, fallback otherwise
func safeBack(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func passthrough(next http.Handler) http.Handler { return next }

// limiterOrNoop lets callers pass a nil rate limiter
func limiterOrNoop(limiter func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if limiter == nil {
		return passthrough
	}
	return limiter
}

// pageLogger adds request identity to log lines written by handlers
func pageLogger(logger *zap.Logger, r *http.Request) *zap.Logger {
	return logger.With(zap.String("client_id", clientIDFrom(r)), zap.String("path", r.URL.Path))
}

