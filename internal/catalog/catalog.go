package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Product is a single catalog record. The catalog is the source of truth
// for names and prices; carts only reference products by id.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Sizes       []string        `json:"sizes"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Provider exposes a point-in-time catalog snapshot, refreshed at startup.
type Provider interface {
	List() []Product
	Get(id string) (Product, bool)
}

// Snapshot is an immutable in-memory catalog.
type Snapshot struct {
	products []Product
	byID     map[string]Product
}

// NewSnapshot normalizes and indexes the provided records. Records without
// an id are dropped; missing sizes default to an empty list and negative
// prices clamp to zero.
func NewSnapshot(products []Product) *Snapshot {
	clean := make([]Product, 0, len(products))
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, exists := byID[p.ID]; exists {
			continue
		}
		if p.Sizes == nil {
			p.Sizes = []string{}
		}
		if p.Price.IsNegative() {
			p.Price = decimal.Zero
		}
		clean = append(clean, p)
		byID[p.ID] = p
	}
	return &Snapshot{products: clean, byID: byID}
}

// List returns the catalog in curated order.
func (s *Snapshot) List() []Product {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get resolves a product by id.
func (s *Snapshot) Get(id string) (Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// LoadFromFile reads a JSON array of products from disk.
func LoadFromFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return NewSnapshot(products), nil
}

// Default returns the built-in demo catalog.
func Default() *Snapshot {
	return NewSnapshot([]Product{
		{
			ID:    "cb13-neo-zipper-brief",
			Name:  "CB13 Neo Zipper Brief",
			Price: decimal.NewFromFloat(34.0),
			Image: "https://www.mytropx.com/assets/images/CB13-Z13N-image.jpg",
			Tags:  []string{"brief", "neo", "cb13"},
			Sizes: []string{"S", "M", "L", "XL"},
		},
		{
			ID:    "manpak-neoprene-jock",
			Name:  "ManPak Neoprene Jock",
			Price: decimal.NewFromFloat(26.95),
			Image: "https://www.mytropx.com/assets/images/MP2053-BLK.jpg",
			Tags:  []string{"jock", "neo", "gear"},
			Sizes: []string{"S", "M", "L", "XL"},
		},
		{
			ID:    "ugs-night-brief",
			Name:  "UGS Night Brief",
			Price: decimal.NewFromFloat(22.95),
			Image: "https://www.mytropx.com/assets/images/UGS-527-NVY.jpg",
			Tags:  []string{"brief", "ugs"},
			Sizes: []string{"S", "M", "L", "XL"},
		},
		{
			ID:    "ugs-grey-jockstrap",
			Name:  "UGS Grey Jockstrap",
			Price: decimal.NewFromFloat(19.95),
			Image: "https://www.mytropx.com/assets/images/UGS-2002-GRY.jpg",
			Tags:  []string{"jock", "ugs"},
			Sizes: []string{"S", "M", "L", "XL"},
		},
		{
			ID:    "cb13-slingshot-thong",
			Name:  "CB13 Slingshot Thong",
			Price: decimal.NewFromFloat(24.0),
			Image: "https://www.mytropx.com/assets/images/CB13-SLINGSHOT-BLK.jpg",
			Tags:  []string{"thong", "cb13"},
			Sizes: []string{"S", "M", "L", "XL"},
		},
	})
}
