package domain

import "time"

// InvoiceLine is one itemized row of an invoice
type InvoiceLine struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"img"`
	Quantity  int    `json:"qty"`
	UnitPrice int    `json:"unit_price"`
	Total     int    `json:"total"`
}

// Invoice is the order summary produced at checkout
type Invoice struct {
	OrderID       string        `json:"order_id"`
	PlacedAt      time.Time     `json:"placed_at"`
	OrderDate     string        `json:"order_date"`
	CustomerEmail string        `json:"customer_email"`
	BillingName   string        `json:"billing_name"`
	Address       string        `json:"address"`
	PaymentMethod string        `json:"payment_method"`
	Lines         []InvoiceLine `json:"lines"`
	GrandTotal    int           `json:"grand_total"`
}
