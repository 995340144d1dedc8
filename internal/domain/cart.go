package domain

// CartLine is a single product entry in a cart
type CartLine struct {
	ProductID int `json:"id"`
	Quantity  int `json:"qty"`
}

// Cart is the ordered list of lines persisted as a whole
type Cart []CartLine

// Find returns the index of the line for productID, or -1
func (c Cart) Find(productID int) int {
	for i, line := range c {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// Count returns the number of units across all lines
func (c Cart) Count() int {
	n := 0
	for _, line := range c {
		n += line.Quantity
	}
	return n
}

// CartItem is a cart line resolved against the catalog
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"qty"`
	Subtotal int     `json:"subtotal"`
}

// CartView is the rendered state of a cart
type CartView struct {
	Items []CartItem `json:"items"`
	Count int        `json:"count"`
	Total int        `json:"total"`
}

// Empty reports whether the cart has no resolvable lines
func (v CartView) Empty() bool {
	return len(v.Items) == 0
}
