package transport

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shopease/internal/domain"
	"shopease/internal/invoice"
	"shopease/internal/middleware"
	"shopease/internal/repository"
	"shopease/internal/service"
	"shopease/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// User-facing messages
const (
	MsgFillAllFields    = "Fill all fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgEmailTaken       = "Email already registered"
	MsgAccountCreated   = "Account created. Please login."
	MsgInvalidCreds     = "Invalid credentials"
	MsgLoggedIn         = "Logged in"
	MsgLoginRequired    = "Please login to continue to checkout"
	MsgFillShipping     = "Please fill all fields"
	MsgEmptyCart        = "Your cart is empty"
	MsgOrderPlaced      = "Order placed successfully!"
	MsgProductNotFound  = "Product not found"
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgSomethingWrong   = "Something went wrong. Please try again."
)

type newsletterForm struct {
	Email string `form:"email" validate:"required,email"`
}

// PageHandler serves the server-rendered storefront
type PageHandler struct {
	svc      Services
	docs     Documents
	renderer *view.Renderer
	logger   *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(svc Services, docs Documents, renderer *view.Renderer, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		svc:      svc,
		docs:     docs,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the page routes. authLimiter, when set, guards the
// login and signup submissions.
func (h *PageHandler) RegisterRoutes(r chi.Router, authLimiter func(http.Handler) http.Handler) {
	limit := limiterOrNoop(authLimiter)

	r.Get("/", h.Home)
	r.Get("/products", h.Products)
	r.Get("/products/export.xlsx", h.ExportCatalog)
	r.Get("/product", h.Product)
	r.Get("/search", h.Search)

	r.Get("/cart", h.Cart)
	r.Post("/cart/add", h.AddToCart)
	r.Post("/cart/qty", h.ChangeQty)
	r.Post("/cart/remove", h.RemoveFromCart)

	r.Get("/checkout", h.Checkout)
	r.Get("/checkout/invoice.pdf", h.DownloadInvoice)
	r.With(middleware.RequireSession(h.svc.Auth, h.loginRequired, h.logger)).Post("/checkout", h.PlaceOrder)

	r.Get("/login", h.LoginPage)
	r.With(limit).Post("/login", h.Login)
	r.Get("/signup", h.SignupPage)
	r.With(limit).Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)

	r.Post("/theme/toggle", h.ToggleTheme)
	r.Post("/newsletter", h.Subscribe)
}

// layout collects the per-visitor state shown on every page. Failures
// degrade to defaults so the page still renders.
func (h *PageHandler) layout(r *http.Request, title string, content any) view.Layout {
	ctx := r.Context()
	clientID := clientIDFrom(r)
	log := pageLogger(h.logger, r)

	layout := view.Layout{
		Title:   title,
		Path:    r.URL.RequestURI(),
		Theme:   h.svc.Theme.Current(ctx, clientID),
		Content: content,
	}

	if count, err := h.svc.Cart.Count(ctx, clientID); err != nil {
		log.Warn("Failed to count cart", zap.Error(err))
	} else {
		layout.CartCount = count
	}

	if session, err := h.svc.Auth.CurrentSession(ctx, clientID); err != nil {
		log.Warn("Failed to load session", zap.Error(err))
	} else {
		layout.Session = session
	}

	if notices, err := h.svc.Notifier.Drain(ctx, clientID); err != nil {
		log.Warn("Failed to drain notices", zap.Error(err))
	} else {
		layout.Notices = notices
	}

	return layout
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, content any) {
	h.renderer.Render(w, status, page, h.layout(r, title, content))
}

func (h *PageHandler) notify(r *http.Request, kind domain.NoticeKind, message string) {
	h.svc.Notifier.Notify(r.Context(), clientIDFrom(r), kind, message)
}

// failed logs an unexpected error, tells the visitor and sends them to target
func (h *PageHandler) failed(w http.ResponseWriter, r *http.Request, err error, target string) {
	pageLogger(h.logger, r).Error("Request failed", zap.Error(err))
	h.notify(r, domain.NoticeError, MsgSomethingWrong)
	redirect(w, r, target)
}

func (h *PageHandler) loginRequired(w http.ResponseWriter, r *http.Request) {
	h.notify(r, domain.NoticeInfo, MsgLoginRequired)
	redirect(w, r, "/login")
}

// Home renders the landing page with the full catalog
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	products := h.svc.Catalog.List(r.Context(), service.ProductQuery{})
	grid := view.NewGridPage(products, "")
	grid.Back = "/"
	h.render(w, r, http.StatusOK, view.PageHome, "Home", grid)
}

// Products renders the filtered, sorted and searched grid
func (h *PageHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.ProductQuery{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Search:   q.Get("search"),
	}
	if query.Category == "" {
		query.Category = domain.CategoryAll
	}
	if query.Sort == "" {
		query.Sort = domain.SortByName
	}

	grid := view.NewGridPage(h.svc.Catalog.List(r.Context(), query), query.Search)
	grid.Categories = h.svc.Catalog.Categories(r.Context())
	grid.Category = query.Category
	grid.Sort = query.Sort
	grid.Back = r.URL.RequestURI()

	h.render(w, r, http.StatusOK, view.PageProducts, "Products", grid)
}

// Search sends a non-blank query to the product listing
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		redirect(w, r, safeBack(r.URL.Query().Get("back"), "/products"))
		return
	}
	redirect(w, r, "/products?search="+url.QueryEscape(q))
}

// Product renders the detail page for ?id=
func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	id, ok := service.ParseLeadingInt(r.URL.Query().Get("id"))
	if !ok {
		h.render(w, r, http.StatusNotFound, view.PageProduct, MsgProductNotFound, view.DetailPage{})
		return
	}

	product, err := h.svc.Catalog.Product(r.Context(), id)
	if err != nil {
		h.render(w, r, http.StatusNotFound, view.PageProduct, MsgProductNotFound, view.DetailPage{})
		return
	}

	h.render(w, r, http.StatusOK, view.PageProduct, product.Name, view.DetailPage{Product: product})
}

// Cart renders the cart page
func (h *PageHandler) Cart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Cart.View(r.Context(), clientIDFrom(r))
	if err != nil {
		pageLogger(h.logger, r).Error("Failed to load cart", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, view.PageCart, "Cart", view.CartPage{Cart: cart})
}

// AddToCart adds the posted product. Quantity defaults to 1; unknown
// products are ignored.
func (h *PageHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	back := safeBack(r.FormValue("back"), "/products")

	id, ok := service.ParseLeadingInt(r.FormValue("id"))
	if !ok {
		redirect(w, r, back)
		return
	}

	qty := 1
	if raw := r.FormValue("qty"); raw != "" {
		qty = service.ParseQuantity(raw)
	}

	product, err := h.svc.Cart.Add(r.Context(), clientIDFrom(r), id, qty)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			pageLogger(h.logger, r).Debug("Ignoring add of unknown product", zap.Int("product_id", id))
			redirect(w, r, back)
			return
		}
		h.failed(w, r, err, back)
		return
	}

	h.notify(r, domain.NoticeSuccess, product.Name+" added to cart")
	redirect(w, r, back)
}

// ChangeQty updates a line's quantity from the cart page
func (h *PageHandler) ChangeQty(w http.ResponseWriter, r *http.Request) {
	id, ok := service.ParseLeadingInt(r.FormValue("id"))
	if ok {
		err := h.svc.Cart.ChangeQty(r.Context(), clientIDFrom(r), id, r.FormValue("qty"))
		if err != nil && !errors.Is(err, service.ErrLineNotInCart) {
			h.failed(w, r, err, "/cart")
			return
		}
	}
	redirect(w, r, "/cart")
}

// RemoveFromCart deletes a line from the cart page
func (h *PageHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	if id, ok := service.ParseLeadingInt(r.FormValue("id")); ok {
		if err := h.svc.Cart.Remove(r.Context(), clientIDFrom(r), id); err != nil {
			h.failed(w, r, err, "/cart")
			return
		}
	}
	redirect(w, r, "/cart")
}

// Checkout renders the summary and shipping form, or the invoice of the
// order named by ?order=
func (h *PageHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.renderCheckout(w, r, http.StatusOK, view.CheckoutForm{})
}

func (h *PageHandler) renderCheckout(w http.ResponseWriter, r *http.Request, status int, form view.CheckoutForm) {
	ctx := r.Context()
	clientID := clientIDFrom(r)
	page := view.CheckoutPage{Form: form, Methods: view.PaymentMethods}

	if orderID := r.URL.Query().Get("order"); orderID != "" {
		inv, err := h.svc.Checkout.LastInvoice(ctx, clientID)
		switch {
		case err == nil && inv.OrderID == orderID:
			page.Invoice = inv
		case err != nil && !errors.Is(err, service.ErrNoInvoice):
			pageLogger(h.logger, r).Error("Failed to load invoice", zap.Error(err))
		}
	}

	if page.Invoice == nil {
		cart, err := h.svc.Cart.View(ctx, clientID)
		if err != nil {
			pageLogger(h.logger, r).Error("Failed to load cart", zap.Error(err))
		}
		page.Cart = cart
	}

	h.render(w, r, status, view.PageCheckout, "Checkout", page)
}

// PlaceOrder submits the checkout form. Only reachable with a session.
func (h *PageHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	form := view.CheckoutForm{
		Name:          r.FormValue("name"),
		Address:       r.FormValue("address"),
		PaymentMethod: r.FormValue("payment"),
	}

	inv, err := h.svc.Checkout.PlaceOrder(r.Context(), clientIDFrom(r), service.CheckoutInput{
		Name:          form.Name,
		Address:       form.Address,
		PaymentMethod: form.PaymentMethod,
	})
	switch {
	case err == nil:
		h.notify(r, domain.NoticeSuccess, MsgOrderPlaced)
		redirect(w, r, "/checkout?order="+url.QueryEscape(inv.OrderID))
	case errors.Is(err, service.ErrNotLoggedIn):
		h.loginRequired(w, r)
	case errors.Is(err, service.ErrMissingFields):
		h.notify(r, domain.NoticeError, MsgFillShipping)
		h.renderCheckout(w, r, http.StatusUnprocessableEntity, form)
	case errors.Is(err, service.ErrEmptyCart):
		h.notify(r, domain.NoticeError, MsgEmptyCart)
		h.renderCheckout(w, r, http.StatusUnprocessableEntity, form)
	default:
		h.failed(w, r, err, "/checkout")
	}
}

// DownloadInvoice streams the last invoice as a PDF attachment
func (h *PageHandler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Checkout.LastInvoice(r.Context(), clientIDFrom(r))
	if err != nil {
		if errors.Is(err, service.ErrNoInvoice) {
			http.Error(w, "no invoice available", http.StatusNotFound)
			return
		}
		pageLogger(h.logger, r).Error("Failed to load invoice", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.docs.Invoices.Render(&buf, *inv); err != nil {
		pageLogger(h.logger, r).Error("Failed to render invoice", zap.String("order_id", inv.OrderID), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.docs.InvoiceFilename))
	w.Write(buf.Bytes())
}

// ExportCatalog downloads the catalog as a spreadsheet
func (h *PageHandler) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	products := h.svc.Catalog.List(r.Context(), service.ProductQuery{})

	var buf bytes.Buffer
	if err := invoice.ExportCatalog(&buf, products); err != nil {
		pageLogger(h.logger, r).Error("Failed to export catalog", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", invoice.ExportContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=products.xlsx")
	w.Write(buf.Bytes())
}

func (h *PageHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageLogin, "Login", view.AuthPage{})
}

// Login checks the credentials and starts a session
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	_, err := h.svc.Auth.Login(r.Context(), clientIDFrom(r), email, r.FormValue("password"))
	switch {
	case err == nil:
		h.notify(r, domain.NoticeSuccess, MsgLoggedIn)
		redirect(w, r, "/")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.notify(r, domain.NoticeError, MsgInvalidCreds)
		h.render(w, r, http.StatusUnprocessableEntity, view.PageLogin, "Login", view.AuthPage{Email: email})
	default:
		h.failed(w, r, err, "/login")
	}
}

func (h *PageHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageSignup, "Signup", view.AuthPage{})
}

// Signup registers an account and sends the visitor to login
func (h *PageHandler) Signup(w http.ResponseWriter, r *http.Request) {
	in := service.SignupInput{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm"),
	}

	_, err := h.svc.Auth.Signup(r.Context(), clientIDFrom(r), in)
	if err == nil {
		h.notify(r, domain.NoticeSuccess, MsgAccountCreated)
		redirect(w, r, "/login")
		return
	}

	var message string
	switch {
	case errors.Is(err, service.ErrMissingFields):
		message = MsgFillAllFields
	case errors.Is(err, service.ErrPasswordMismatch):
		message = MsgPasswordMismatch
	case errors.Is(err, service.ErrEmailTaken):
		message = MsgEmailTaken
	default:
		h.failed(w, r, err, "/signup")
		return
	}

	h.notify(r, domain.NoticeError, message)
	h.render(w, r, http.StatusUnprocessableEntity, view.PageSignup, "Signup", view.AuthPage{Name: in.Name, Email: in.Email})
}

// Logout ends the session
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Auth.Logout(r.Context(), clientIDFrom(r)); err != nil {
		h.failed(w, r, err, "/")
		return
	}
	redirect(w, r, "/")
}

// ToggleTheme flips the theme and returns to the page it was toggled on
func (h *PageHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	back := safeBack(r.FormValue("back"), "/")
	if _, err := h.svc.Theme.Toggle(r.Context(), clientIDFrom(r)); err != nil {
		h.failed(w, r, err, back)
		return
	}
	redirect(w, r, back)
}

// Subscribe acknowledges a newsletter signup
func (h *PageHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	back := safeBack(r.FormValue("back"), "/")
	form := newsletterForm{Email: strings.TrimSpace(r.FormValue("email"))}

	if err := middleware.ValidateRequest(&form); err != nil {
		h.notify(r, domain.NoticeError, MsgInvalidEmail)
		redirect(w, r, back)
		return
	}

	if err := h.svc.Newsletter.Subscribe(r.Context(), clientIDFrom(r), form.Email); err != nil {
		h.failed(w, r, err, back)
		return
	}
	redirect(w, r, back)
}
