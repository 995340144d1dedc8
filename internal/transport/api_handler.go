package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"shopease/internal/domain"
	"shopease/internal/middleware"
	"shopease/internal/repository"
	"shopease/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart payload
type AddItemRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	Quantity  int `json:"qty" validate:"omitempty,gte=1"`
}

// ChangeQtyRequest carries the raw quantity; strings and numbers are both
// accepted and parsed like the cart page input
type ChangeQtyRequest struct {
	Quantity interface{} `json:"qty"`
}

// SignupRequest represents the signup payload. Blank fields are reported by
// the service so that the message matches the signup form.
type SignupRequest struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"max=254"`
	Password        string `json:"password" validate:"max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"max=128"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=128"`
}

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	Name          string `json:"name" validate:"max=200"`
	Address       string `json:"address" validate:"max=1000"`
	PaymentMethod string `json:"paymentMethod" validate:"max=100"`
}

// MessageResponse pairs a user-facing message with an optional payload
type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ProductListResponse is the catalog listing
type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// SessionResponse reports the current session; nil when logged out
type SessionResponse struct {
	Session *domain.Session `json:"session"`
}

// ThemeResponse reports the applied theme
type ThemeResponse struct {
	Theme domain.Theme `json:"theme"`
}

// UserProfile is the public part of a user
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// APIHandler serves the JSON API under /api
type APIHandler struct {
	svc    Services
	logger *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(svc Services, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		svc:    svc,
		logger: logger,
	}
}

// RegisterRoutes registers all API routes
func (h *APIHandler) RegisterRoutes(r chi.Router, authLimiter func(http.Handler) http.Handler) {
	limit := limiterOrNoop(authLimiter)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddItem)
		r.Patch("/cart/items/{id}", h.ChangeQty)
		r.Delete("/cart/items/{id}", h.RemoveItem)

		r.With(limit).Post("/signup", h.Signup)
		r.With(limit).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.GetSession)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.svc.Auth, h.loginRequired, h.logger))
			r.Post("/checkout", h.Checkout)
		})

		r.Get("/theme", h.GetTheme)
		r.Post("/theme/toggle", h.ToggleTheme)
	})
}

func (h *APIHandler) loginRequired(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithError(w, http.StatusUnauthorized, MsgLoginRequired)
}

// decode reads and validates a JSON body, answering the client on failure
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := middleware.DecodeAndValidate(r, dst); err != nil {
		h.logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *APIHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	pageLogger(h.logger, r).Error(msg, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

func (h *APIHandler) productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func (h *APIHandler) respondWithCart(w http.ResponseWriter, r *http.Request, status int) {
	cart, err := h.svc.Cart.View(r.Context(), clientIDFrom(r))
	if err != nil {
		h.internalError(w, r, "Failed to load cart", err)
		return
	}
	middleware.RespondWithJSON(w, status, cart)
}

// ListProducts handles GET /api/products?category=&sort=&search=
func (h *APIHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := h.svc.Catalog.List(r.Context(), service.ProductQuery{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Search:   q.Get("search"),
	})
	if products == nil {
		products = []domain.Product{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// GetProduct handles GET /api/products/{id}
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.svc.Catalog.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, MsgProductNotFound)
			return
		}
		h.internalError(w, r, "Failed to load product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetCart handles GET /api/cart
func (h *APIHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondWithCart(w, r, http.StatusOK)
}

// AddItem handles POST /api/cart/items
func (h *APIHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.svc.Cart.Add(r.Context(), clientIDFrom(r), req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, MsgProductNotFound)
			return
		}
		h.internalError(w, r, "Failed to add to cart", err)
		return
	}

	cart, err := h.svc.Cart.View(r.Context(), clientIDFrom(r))
	if err != nil {
		h.internalError(w, r, "Failed to load cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, MessageResponse{
		Message: product.Name + " added to cart",
		Data:    cart,
	})
}

// ChangeQty handles PATCH /api/cart/items/{id}
func (h *APIHandler) ChangeQty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req ChangeQtyRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.Cart.ChangeQty(r.Context(), clientIDFrom(r), id, quantityInput(req.Quantity)); err != nil {
		if errors.Is(err, service.ErrLineNotInCart) {
			middleware.RespondWithError(w, http.StatusNotFound, "product is not in the cart")
			return
		}
		h.internalError(w, r, "Failed to change quantity", err)
		return
	}
	h.respondWithCart(w, r, http.StatusOK)
}

// quantityInput renders a decoded JSON quantity as the cart form would send
// it. Numbers use plain decimal notation so 1000000 is not read as "1e+06".
func quantityInput(v interface{}) string {
	switch q := v.(type) {
	case nil:
		return ""
	case string:
		return q
	case float64:
		return strconv.FormatFloat(q, 'f', -1, 64)
	default:
		return fmt.Sprint(q)
	}
}

// RemoveItem handles DELETE /api/cart/items/{id}
func (h *APIHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Cart.Remove(r.Context(), clientIDFrom(r), id); err != nil {
		h.internalError(w, r, "Failed to remove from cart", err)
		return
	}
	h.respondWithCart(w, r, http.StatusOK)
}

// Signup handles POST /api/signup
func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.Auth.Signup(r.Context(), clientIDFrom(r), service.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	switch {
	case err == nil:
		middleware.RespondWithJSON(w, http.StatusCreated, MessageResponse{
			Message: MsgAccountCreated,
			Data:    UserProfile{Name: user.Name, Email: user.Email},
		})
	case errors.Is(err, service.ErrMissingFields):
		middleware.RespondWithError(w, http.StatusBadRequest, MsgFillAllFields)
	case errors.Is(err, service.ErrPasswordMismatch):
		middleware.RespondWithError(w, http.StatusBadRequest, MsgPasswordMismatch)
	case errors.Is(err, service.ErrEmailTaken):
		middleware.RespondWithError(w, http.StatusConflict, MsgEmailTaken)
	default:
		h.internalError(w, r, "Signup failed", err)
	}
}

// Login handles POST /api/login
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.svc.Auth.Login(r.Context(), clientIDFrom(r), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			middleware.RespondWithError(w, http.StatusUnauthorized, MsgInvalidCreds)
			return
		}
		h.internalError(w, r, "Login failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: MsgLoggedIn, Data: session})
}

// Logout handles POST /api/logout
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Auth.Logout(r.Context(), clientIDFrom(r)); err != nil {
		h.internalError(w, r, "Logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /api/session
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Auth.CurrentSession(r.Context(), clientIDFrom(r))
	if err != nil {
		h.internalError(w, r, "Failed to load session", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, SessionResponse{Session: session})
}

// Checkout handles POST /api/checkout
func (h *APIHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	inv, err := h.svc.Checkout.PlaceOrder(r.Context(), clientIDFrom(r), service.CheckoutInput{
		Name:          req.Name,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
	})
	switch {
	case err == nil:
		middleware.RespondWithJSON(w, http.StatusCreated, MessageResponse{Message: MsgOrderPlaced, Data: inv})
	case errors.Is(err, service.ErrNotLoggedIn):
		h.loginRequired(w, r)
	case errors.Is(err, service.ErrMissingFields):
		middleware.RespondWithError(w, http.StatusBadRequest, MsgFillShipping)
	case errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, MsgEmptyCart)
	default:
		h.internalError(w, r, "Checkout failed", err)
	}
}

// GetTheme handles GET /api/theme
func (h *APIHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, ThemeResponse{Theme: h.svc.Theme.Current(r.Context(), clientIDFrom(r))})
}

// ToggleTheme handles POST /api/theme/toggle
func (h *APIHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.svc.Theme.Toggle(r.Context(), clientIDFrom(r))
	if err != nil {
		h.internalError(w, r, "Failed to toggle theme", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ThemeResponse{Theme: theme})
}
