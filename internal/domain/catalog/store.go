// internal/domain/catalog/store.go
package catalog

// Store is a retail store a product can be bought at.
type Store struct {
	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
	Addr   string `json:"addr,omitempty"`
	Agency string `json:"agency,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Code   string `json:"code"`
}

// Label is how the store is listed in search suggestions.
func (s Store) Label() string {
	if s.Agency != "" {
		return s.Name + " (" + s.Agency + ")"
	}
	return s.Name
}

// Catalog is the initial data set: selectable product models and the store directory.
type Catalog struct {
	Products []string `json:"products"`
	Stores   []Store  `json:"stores"`
}

// StoreIndex builds a lookup keyed by store name. Later duplicates win.
func (c *Catalog) StoreIndex() map[string]Store {
	idx := make(map[string]Store, len(c.Stores))
	for _, s := range c.Stores {
		idx[s.Name] = s
	}
	return idx
}

// HasProduct reports whether model is one of the selectable products.
func (c *Catalog) HasProduct(model string) bool {
	for _, p := range c.Products {
		if p == model {
			return true
		}
	}
	return false
}
