package repository

import (
	"context"
	"errors"

	"shopease/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// CatalogRepository defines read access to the fixed product catalog
type CatalogRepository interface {
	All(ctx context.Context) []domain.Product
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	Categories(ctx context.Context) []string
}

type staticCatalog struct {
	products []domain.Product
	byID     map[int]int
}

// DefaultProducts returns the storefront's built-in catalog
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "T-Shirt", Price: 499, Category: domain.CategoryFashion, Image: "assets/images/fashion1.jpg"},
		{ID: 2, Name: "Jeans", Price: 1299, Category: domain.CategoryFashion, Image: "assets/images/fashion2.jpg"},
		{ID: 3, Name: "Jacket", Price: 2499, Category: domain.CategoryFashion, Image: "assets/images/fashion3.jpg"},
		{ID: 4, Name: "Smartphone", Price: 15999, Category: domain.CategoryElectronics, Image: "assets/images/electronics1.jpg"},
		{ID: 5, Name: "Laptop", Price: 45999, Category: domain.CategoryElectronics, Image: "assets/images/electronics2.jpg"},
		{ID: 6, Name: "Bluetooth Speaker", Price: 1799, Category: domain.CategoryElectronics, Image: "assets/images/product8.jpg"},
		{ID: 7, Name: "Cookware Set", Price: 1999, Category: domain.CategoryHome, Image: "assets/images/home1.jpg"},
		{ID: 8, Name: "Vacuum Cleaner", Price: 4499, Category: domain.CategoryHome, Image: "assets/images/home2.jpg"},
		{ID: 9, Name: "Table Lamp", Price: 799, Category: domain.CategoryHome, Image: "assets/images/home3.jpg"},
	}
}

// NewCatalogRepository creates a read-only catalog over products.
// The slice is copied; later changes by the caller are not observed.
func NewCatalogRepository(products []domain.Product) CatalogRepository {
	c := &staticCatalog{
		products: append([]domain.Product(nil), products...),
		byID:     make(map[int]int, len(products)),
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// All returns a copy of every product in catalog order
func (c *staticCatalog) All(ctx context.Context) []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

// FindByID retrieves a product by ID
func (c *staticCatalog) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := c.products[i]
	return &p, nil
}

// Categories returns the distinct categories in first-seen order
func (c *staticCatalog) Categories(ctx context.Context) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}
