package view

import (
	"html/template"
	"regexp"
	"strings"

	"shopease/internal/domain"
)

// ProductCard is one product in the grid with search matches marked
type ProductCard struct {
	Product  domain.Product
	Name     template.HTML
	Category template.HTML
}

// GridPage is the content of the home and product listing pages
type GridPage struct {
	Categories []string
	Category   string
	Sort       string
	Search     string
	Cards      []ProductCard
	Back       string
}

// Empty reports whether the query matched nothing
func (g GridPage) Empty() bool {
	return len(g.Cards) == 0
}

// NewGridPage builds the cards for products, highlighting search
func NewGridPage(products []domain.Product, search string) GridPage {
	page := GridPage{Search: strings.ToLower(strings.TrimSpace(search))}
	for _, p := range products {
		page.Cards = append(page.Cards, ProductCard{
			Product:  p,
			Name:     Highlight(p.Name, page.Search),
			Category: Highlight(p.Category, page.Search),
		})
	}
	return page
}

// Highlight escapes text and wraps every case-insensitive occurrence of term
// in <mark>. The term is matched literally.
func Highlight(text, term string) template.HTML {
	if term == "" {
		return template.HTML(template.HTMLEscapeString(text))
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		b.WriteString(template.HTMLEscapeString(text[last:m[0]]))
		b.WriteString("<mark>")
		b.WriteString(template.HTMLEscapeString(text[m[0]:m[1]]))
		b.WriteString("</mark>")
		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(text[last:]))
	return template.HTML(b.String())
}

// DetailPage shows a single product; nil Product renders "Product not found"
type DetailPage struct {
	Product *domain.Product
}

// CartPage lists the resolved cart
type CartPage struct {
	Cart domain.CartView
}

// CheckoutForm echoes the shipping form back after a failed submit
type CheckoutForm struct {
	Name          string
	Address       string
	PaymentMethod string
}

// PaymentMethods offered on the checkout form
var PaymentMethods = []string{"Cash on Delivery", "Credit/Debit Card", "UPI", "Net Banking"}

// CheckoutPage is the summary, shipping form and, after an order, the invoice
type CheckoutPage struct {
	Cart    domain.CartView
	Form    CheckoutForm
	Methods []string
	Invoice *domain.Invoice
}

// AuthPage holds the values echoed into the login and signup forms
type AuthPage struct {
	Name  string
	Email string
}
