package service

import (
	"context"
	"sort"
	"strings"

	"shopease/internal/domain"
	"shopease/internal/repository"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ProductQuery selects and orders products for the grid
type ProductQuery struct {
	Category string
	Sort     string
	Search   string
}

// CatalogService answers product listing and lookup queries
type CatalogService struct {
	catalog repository.CatalogRepository
	lang    language.Tag
}

// NewCatalogService creates a new CatalogService. Name ordering uses the
// collation rules of lang.
func NewCatalogService(catalog repository.CatalogRepository, lang language.Tag) *CatalogService {
	return &CatalogService{catalog: catalog, lang: lang}
}

// Categories lists the categories present in the catalog
func (s *CatalogService) Categories(ctx context.Context) []string {
	return s.catalog.Categories(ctx)
}

// Product looks up a single product
func (s *CatalogService) Product(ctx context.Context, id int) (*domain.Product, error) {
	return s.catalog.FindByID(ctx, id)
}

// List filters by category and a case-insensitive search term matched
// against name or category, then sorts. An empty category or "all" keeps
// every category; an empty sort means by name. Unknown sort modes keep
// catalog order.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) []domain.Product {
	category := q.Category
	if category == "" {
		category = domain.CategoryAll
	}
	mode := q.Sort
	if mode == "" {
		mode = domain.SortByName
	}
	term := strings.ToLower(q.Search)

	var items []domain.Product
	for _, p := range s.catalog.All(ctx) {
		if category != domain.CategoryAll && p.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		items = append(items, p)
	}

	switch mode {
	case domain.SortByPriceAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	case domain.SortByPriceDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price > items[j].Price })
	case domain.SortByName:
		col := collate.New(s.lang)
		sort.SliceStable(items, func(i, j int) bool {
			return col.CompareString(items[i].Name, items[j].Name) < 0
		})
	}

	return items
}
