package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"shopease/internal/domain"
	"shopease/internal/middleware"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartMessage struct {
	Message string          `json:"message"`
	Data    domain.CartView `json:"data"`
}

func TestAPIProducts(t *testing.T) {
	app := newTestApp(t)

	var list ProductListResponse
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/products?search=LAP", "", &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Laptop", list.Products[0].Name)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/products?sort=low-high", "", &list))
	require.Equal(t, 9, list.Count)
	assert.Equal(t, "T-Shirt", list.Products[0].Name)
	assert.Equal(t, "Laptop", list.Products[8].Name)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/products?search=nothing", "", &list))
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Products)

	var product domain.Product
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/products/6", "", &product))
	assert.Equal(t, "Bluetooth Speaker", product.Name)
	assert.Equal(t, "assets/images/product8.jpg", product.Image)

	var errResp middleware.ErrorResponse
	assert.Equal(t, http.StatusNotFound, app.api(t, http.MethodGet, "/api/products/99", "", &errResp))
	assert.Equal(t, "Product not found", errResp.Error.Message)

	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodGet, "/api/products/abc", "", nil))
}

func TestAPICart(t *testing.T) {
	app := newTestApp(t)

	var added cartMessage
	require.Equal(t, http.StatusCreated, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":1,"qty":2}`, &added))
	assert.Equal(t, "T-Shirt added to cart", added.Message)
	require.Equal(t, http.StatusCreated, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":4}`, &added))

	var errResp middleware.ErrorResponse
	assert.Equal(t, http.StatusNotFound, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":99}`, &errResp))
	assert.Equal(t, "Product not found", errResp.Error.Message)

	errResp = middleware.ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":0}`, &errResp))
	assert.Equal(t, "validation failed", errResp.Error.Message)
	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":1,"color":"red"}`, nil))
	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":1,"qty":-2}`, nil))

	var cart domain.CartView
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/cart", "", &cart))
	assert.Equal(t, 16997, cart.Total)
	assert.Equal(t, 3, cart.Count)
	require.Len(t, cart.Items, 2)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodPatch, "/api/cart/items/4", `{"qty":"3"}`, &cart))
	assert.Equal(t, 499*2+15999*3, cart.Total)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodPatch, "/api/cart/items/4", `{"qty":0}`, &cart))
	assert.Equal(t, 499*2+15999, cart.Total)

	assert.Equal(t, http.StatusNotFound, app.api(t, http.MethodPatch, "/api/cart/items/5", `{"qty":2}`, nil))

	require.Equal(t, http.StatusOK, app.api(t, http.MethodDelete, "/api/cart/items/1", "", &cart))
	assert.Equal(t, 15999, cart.Total)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Product.ID)
}

func TestProperty_APIQuantityNeverBelowOne(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.api(t, http.MethodPost, "/api/cart/items", `{"productId":2}`, nil))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("any quantity input stores at least 1", prop.ForAll(
		func(raw string) bool {
			var cart domain.CartView
			body := fmt.Sprintf(`{"qty":%s}`, strconv.Quote(raw))
			if app.api(t, http.MethodPatch, "/api/cart/items/2", body, &cart) != http.StatusOK {
				return false
			}
			return len(cart.Items) == 1 && cart.Items[0].Quantity >= 1 && cart.Total == 1299*cart.Items[0].Quantity
		},
		gen.OneGenOf(
			gen.AlphaString(),
			gen.IntRange(-1000, 1000).Map(strconv.Itoa),
			gen.NumString(),
		),
	))

	properties.Property("numeric quantities are stored exactly", prop.ForAll(
		func(qty int) bool {
			var cart domain.CartView
			body := fmt.Sprintf(`{"qty":%d}`, qty)
			if app.api(t, http.MethodPatch, "/api/cart/items/2", body, &cart) != http.StatusOK {
				return false
			}
			return len(cart.Items) == 1 && cart.Items[0].Quantity == qty
		},
		gen.OneGenOf(
			gen.IntRange(1, 100),
			gen.IntRange(999_000, 1_001_000),
			gen.IntRange(1_000_000, 1<<31-1),
		),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestQuantityInput(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"12abc", "12abc"},
		{float64(1000000), "1000000"},
		{float64(2.5), "2.5"},
		{float64(-3), "-3"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quantityInput(tt.in))
	}
}

func TestAPIAuthAndCheckout(t *testing.T) {
	app := newTestApp(t)

	var errResp middleware.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, app.api(t, http.MethodPost, "/api/checkout", `{"name":"Ann","address":"x","paymentMethod":"UPI"}`, &errResp))
	assert.Equal(t, "Please login to continue to checkout", errResp.Error.Message)

	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/signup", `{"name":"Ann","email":"","password":"pw","confirmPassword":"pw"}`, &errResp))
	assert.Equal(t, "Fill all fields", errResp.Error.Message)
	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/signup", `{"name":"Ann","email":"ann@example.com","password":"pw","confirmPassword":"px"}`, &errResp))
	assert.Equal(t, "Passwords do not match", errResp.Error.Message)

	var created MessageResponse
	require.Equal(t, http.StatusCreated, app.api(t, http.MethodPost, "/api/signup", `{"name":"Ann","email":"ann@example.com","password":"pw","confirmPassword":"pw"}`, &created))
	assert.Equal(t, "Account created. Please login.", created.Message)

	assert.Equal(t, http.StatusConflict, app.api(t, http.MethodPost, "/api/signup", `{"name":"Bo","email":"ann@example.com","password":"a","confirmPassword":"a"}`, &errResp))
	assert.Equal(t, "Email already registered", errResp.Error.Message)

	assert.Equal(t, http.StatusUnauthorized, app.api(t, http.MethodPost, "/api/login", `{"email":"ann@example.com","password":"PW"}`, &errResp))
	assert.Equal(t, "Invalid credentials", errResp.Error.Message)

	var session SessionResponse
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/session", "", &session))
	assert.Nil(t, session.Session)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodPost, "/api/login", `{"email":"ann@example.com","password":"pw"}`, nil))
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/session", "", &session))
	require.NotNil(t, session.Session)
	assert.Equal(t, domain.Session{Email: "ann@example.com", Name: "Ann"}, *session.Session)

	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/checkout", `{"name":"Ann","address":"x","paymentMethod":"UPI"}`, &errResp))
	assert.Equal(t, "Your cart is empty", errResp.Error.Message)

	app.api(t, http.MethodPost, "/api/cart/items", `{"productId":1,"qty":2}`, nil)
	app.api(t, http.MethodPost, "/api/cart/items", `{"productId":4}`, nil)

	assert.Equal(t, http.StatusBadRequest, app.api(t, http.MethodPost, "/api/checkout", `{"name":"Ann","address":"","paymentMethod":"UPI"}`, &errResp))
	assert.Equal(t, "Please fill all fields", errResp.Error.Message)

	var placed struct {
		Message string         `json:"message"`
		Data    domain.Invoice `json:"data"`
	}
	require.Equal(t, http.StatusCreated, app.api(t, http.MethodPost, "/api/checkout", `{"name":"Ann Lee","address":"12 Market Road","paymentMethod":"UPI"}`, &placed))
	assert.Equal(t, "Order placed successfully!", placed.Message)
	assert.Equal(t, 16997, placed.Data.GrandTotal)
	assert.Equal(t, "ann@example.com", placed.Data.CustomerEmail)
	assert.Len(t, placed.Data.Lines, 2)

	var cart domain.CartView
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/cart", "", &cart))
	assert.True(t, cart.Empty())

	assert.Equal(t, http.StatusNoContent, app.api(t, http.MethodPost, "/api/logout", "", nil))
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/session", "", &session))
	assert.Nil(t, session.Session)
}

func TestAPITheme(t *testing.T) {
	app := newTestApp(t)

	var theme ThemeResponse
	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/theme", "", &theme))
	assert.Equal(t, domain.ThemeLight, theme.Theme)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodPost, "/api/theme/toggle", "", &theme))
	assert.Equal(t, domain.ThemeDark, theme.Theme)

	require.Equal(t, http.StatusOK, app.api(t, http.MethodGet, "/api/theme", "", &theme))
	assert.Equal(t, domain.ThemeDark, theme.Theme)
}
