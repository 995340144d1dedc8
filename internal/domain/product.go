package domain

// Product represents a product in the catalog
type Product struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Category string `json:"category"`
	Image    string `json:"img"`
}

// Category values used by the catalog
const (
	CategoryAll         = "all"
	CategoryFashion     = "fashion"
	CategoryElectronics = "electronics"
	CategoryHome        = "home"
)

// Sort modes accepted by the product grid
const (
	SortByName      = "name"
	SortByPriceAsc  = "low-high"
	SortByPriceDesc = "high-low"
)
