package transport

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeRendersCatalogAndIssuesVisitor(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodGet, "/", nil, "")
	body := bodyOf(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
	assert.Contains(t, body, `data-theme="light"`)
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "Table Lamp")
	assert.Contains(t, body, `<span id="cartCount" class="badge">0</span>`)
}

func TestSearchRedirects(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodGet, "/search?q=%20Lap%20", nil, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products?search=Lap", resp.Header.Get("Location"))

	resp = app.do(t, http.MethodGet, "/search?q=+&back=/cart", nil, "")
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	resp = app.do(t, http.MethodGet, "/search?q=&back=//evil.example", nil, "")
	assert.Equal(t, "/products", resp.Header.Get("Location"))
}

func TestProductsPage(t *testing.T) {
	app := newTestApp(t)

	status, body := app.get(t, "/products?search=lap")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<mark>Lap</mark>top")
	assert.NotContains(t, body, "Jeans")

	_, body = app.get(t, "/products?category=home&sort=high-low")
	assert.Less(t, strings.Index(body, "Vacuum Cleaner"), strings.Index(body, "Cookware Set"))
	assert.Less(t, strings.Index(body, "Cookware Set"), strings.Index(body, "Table Lamp"))
	assert.NotContains(t, body, "Smartphone")

	_, body = app.get(t, "/products?search=zzz")
	assert.Contains(t, body, `No products found for "<b>zzz</b>"`)

	_, body = app.get(t, "/products?search=%3Cimg%3E")
	assert.Contains(t, body, `No products found for "<b>&lt;img&gt;</b>"`)
}

func TestProductDetail(t *testing.T) {
	app := newTestApp(t)

	status, body := app.get(t, "/product?id=5")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h2>Laptop</h2>")

	status, body = app.get(t, "/product?id=5abc")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h2>Laptop</h2>")

	for _, id := range []string{"", "abc", "42"} {
		status, body = app.get(t, "/product?id="+id)
		assert.Equal(t, http.StatusNotFound, status, id)
		assert.Contains(t, body, "<p>Product not found</p>", id)
	}
}

func TestAddToCartNotifiesOnce(t *testing.T) {
	app := newTestApp(t)

	resp := app.post(t, "/cart/add", url.Values{"id": {"1"}, "back": {"/products"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))

	_, body := app.get(t, "/products")
	assert.Contains(t, body, "T-Shirt added to cart")
	assert.Contains(t, body, `<span id="cartCount" class="badge">1</span>`)

	_, body = app.get(t, "/products")
	assert.NotContains(t, body, "added to cart")
}

func TestAddToCartQuantities(t *testing.T) {
	app := newTestApp(t)

	app.post(t, "/cart/add", url.Values{"id": {"4"}, "qty": {"3"}})
	app.post(t, "/cart/add", url.Values{"id": {"4"}, "qty": {"abc"}})
	app.post(t, "/cart/add", url.Values{"id": {"99"}})
	resp := app.post(t, "/cart/add", url.Values{"id": {"1"}, "back": {"https://evil.example/"}})
	assert.Equal(t, "/products", resp.Header.Get("Location"))

	_, body := app.get(t, "/cart")
	assert.Contains(t, body, `<span id="cartCount" class="badge">5</span>`)
	assert.Contains(t, body, "Total: ₹64495")
	assert.NotContains(t, body, "Product not found")
}

func TestCartEditing(t *testing.T) {
	app := newTestApp(t)

	app.post(t, "/cart/add", url.Values{"id": {"1"}})
	app.post(t, "/cart/add", url.Values{"id": {"9"}})

	for raw, want := range map[string]int{"-5": 1, "0": 1, "abc": 1, "7": 7, "3.9": 3} {
		resp := app.post(t, "/cart/qty", url.Values{"id": {"1"}, "qty": {raw}})
		assert.Equal(t, "/cart", resp.Header.Get("Location"))

		_, body := app.get(t, "/cart")
		assert.Contains(t, body, "Total: ₹"+strconv.Itoa(499*want+799), raw)
	}

	app.post(t, "/cart/qty", url.Values{"id": {"1"}, "qty": {"7"}})
	app.post(t, "/cart/qty", url.Values{"id": {"5"}, "qty": {"3"}})
	app.post(t, "/cart/remove", url.Values{"id": {"9"}})

	_, body := app.get(t, "/cart")
	assert.NotContains(t, body, "Table Lamp")
	assert.NotContains(t, body, "Laptop")
	assert.Contains(t, body, "Total: ₹3493")

	app.post(t, "/cart/remove", url.Values{"id": {"1"}})
	_, body = app.get(t, "/cart")
	assert.Contains(t, body, "Your cart is empty.")
}

func TestSignupAndLogin(t *testing.T) {
	app := newTestApp(t)

	signup := func(name, email, pw, confirm string) *http.Response {
		return app.post(t, "/signup", url.Values{"name": {name}, "email": {email}, "password": {pw}, "confirm": {confirm}})
	}

	resp := signup("", "ann@example.com", "pw", "pw")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, bodyOf(t, resp), "Fill all fields")

	resp = signup("Ann", "ann@example.com", "pw", "other")
	assert.Contains(t, bodyOf(t, resp), "Passwords do not match")

	resp = signup("Ann", "ann@example.com", "pw", "pw")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := app.get(t, "/login")
	assert.Contains(t, body, "Account created. Please login.")

	resp = signup("Ann Again", "ann@example.com", "x", "x")
	assert.Contains(t, bodyOf(t, resp), "Email already registered")

	resp = app.post(t, "/login", url.Values{"email": {"ann@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body = bodyOf(t, resp)
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, `value="ann@example.com"`)

	resp = app.post(t, "/login", url.Values{"email": {"ann@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = app.get(t, "/")
	assert.Contains(t, body, "Logged in")
	assert.Contains(t, body, "Hi, Ann")

	resp = app.post(t, "/logout", nil)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	_, body = app.get(t, "/")
	assert.NotContains(t, body, "Hi, Ann")
}

func TestCheckoutRequiresLogin(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/cart/add", url.Values{"id": {"1"}})

	status, _ := app.get(t, "/checkout")
	assert.Equal(t, http.StatusOK, status)

	resp := app.post(t, "/checkout", url.Values{"name": {"Ann"}, "address": {"1 Main St"}, "payment": {"UPI"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := app.get(t, "/login")
	assert.Contains(t, body, "Please login to continue to checkout")

	_, body = app.get(t, "/cart")
	assert.Contains(t, body, `<span id="cartCount" class="badge">1</span>`)
}

func loginAs(t *testing.T, app *testApp, name, email, password string) {
	t.Helper()
	app.post(t, "/signup", url.Values{"name": {name}, "email": {email}, "password": {password}, "confirm": {password}})
	resp := app.post(t, "/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	app := newTestApp(t)
	loginAs(t, app, "Ann", "ann@example.com", "pw")

	form := url.Values{"name": {"Ann Lee"}, "address": {"12 Market Road"}, "payment": {"UPI"}}

	resp := app.post(t, "/checkout", form)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, bodyOf(t, resp), "Your cart is empty")

	status, _ := app.get(t, "/checkout/invoice.pdf")
	assert.Equal(t, http.StatusNotFound, status)

	app.post(t, "/cart/add", url.Values{"id": {"1"}, "qty": {"2"}})
	app.post(t, "/cart/add", url.Values{"id": {"4"}})

	resp = app.post(t, "/checkout", url.Values{"name": {"Ann Lee"}, "address": {"  "}, "payment": {"UPI"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := bodyOf(t, resp)
	assert.Contains(t, body, "Please fill all fields")
	assert.Contains(t, body, `value="Ann Lee"`)
	assert.Contains(t, body, "Total: ₹16997")

	resp = app.post(t, "/checkout", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "/checkout?order=ORD-"), location)

	_, body = app.get(t, location)
	assert.Contains(t, body, "Order placed successfully!")
	assert.Contains(t, body, "Order ID: ORD-")
	assert.Contains(t, body, "Grand Total: ₹16997")
	assert.Contains(t, body, `<span id="cartCount" class="badge">0</span>`)

	_, body = app.get(t, "/checkout")
	assert.NotContains(t, body, "Order ID:")
	assert.Contains(t, body, "Your cart is empty.")

	resp = app.do(t, http.MethodGet, "/checkout/invoice.pdf", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ShopEase-Invoice.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(bodyOf(t, resp), "%PDF-"))
}

func TestThemeToggle(t *testing.T) {
	app := newTestApp(t)

	resp := app.post(t, "/theme/toggle", url.Values{"back": {"/cart"}})
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	_, body := app.get(t, "/cart")
	assert.Contains(t, body, `data-theme="dark"`)
	_, body = app.get(t, "/products")
	assert.Contains(t, body, `data-theme="dark"`)

	app.post(t, "/theme/toggle", nil)
	_, body = app.get(t, "/")
	assert.Contains(t, body, `data-theme="light"`)
}

func TestNewsletter(t *testing.T) {
	app := newTestApp(t)

	app.post(t, "/newsletter", url.Values{"email": {"a@example.com"}, "back": {"/"}})
	resp := app.post(t, "/newsletter", url.Values{"email": {"b@example.com"}, "back": {"/"}})
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := app.get(t, "/")
	assert.Equal(t, 1, strings.Count(body, "Thank you for subscribing to our newsletter!"))
	assert.Contains(t, body, `data-autohide-ms="3000"`)

	app.post(t, "/newsletter", url.Values{"email": {"not-an-email"}})
	_, body = app.get(t, "/")
	assert.Contains(t, body, "Please enter a valid email address")
}

func TestExportCatalog(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodGet, "/products/export.xlsx", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix([]byte(bodyOf(t, resp)), []byte("PK")))
}

func TestSafeBack(t *testing.T) {
	assert.Equal(t, "/cart", safeBack("/cart", "/"))
	assert.Equal(t, "/products?search=lap", safeBack("/products?search=lap", "/"))
	assert.Equal(t, "/", safeBack("", "/"))
	assert.Equal(t, "/", safeBack("https://evil.example", "/"))
	assert.Equal(t, "/", safeBack("//evil.example", "/"))
	assert.Equal(t, "/", safeBack(`/\evil.example`, "/"))
}
