package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is the fixed set of categories a campaign distributes. It is
// read-only once built.
type Catalog struct {
	defs   []CategoryDefinition
	byName map[string]int
}

// NewCatalog validates defs and keeps them in the given order. Names must be
// unique across the whole catalog.
func NewCatalog(defs []CategoryDefinition) (*Catalog, error) {
	c := &Catalog{
		defs:   make([]CategoryDefinition, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		// Stock and transactions are keyed by name alone.
		if i, ok := c.byName[d.Name]; ok {
			return nil, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateName, d.Name, c.defs[i].Dimension, d.Dimension)
		}
		c.byName[d.Name] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// DefaultCatalog returns the categories of the field campaign the tool was
// built for.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]CategoryDefinition{
		{Name: "العمر 20-29", Dimension: Age, TotalCapacity: 20},
		{Name: "العمر 30-40", Dimension: Age, TotalCapacity: 30},
		{Name: "الدخل 401-500 (C2)", Dimension: Income, TotalCapacity: 60},
		{Name: "الدخل 501-600 (C1)", Dimension: Income, TotalCapacity: 41},
		{Name: "الدخل 601+ (A&B)", Dimension: Income, TotalCapacity: 48},
		{Name: "نيدو", Dimension: Product, TotalCapacity: 90},
		{Name: "حليبنا", Dimension: Product, TotalCapacity: 29},
		{Name: "إنجوي", Dimension: Product, TotalCapacity: 29},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalogFile reads a JSON array of {"name","dimension","total"} objects.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var defs []CategoryDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	c, err := NewCatalog(defs)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// ListByDimension returns the definitions of d in catalog order.
func (c *Catalog) ListByDimension(d Dimension) []CategoryDefinition {
	var out []CategoryDefinition
	for _, def := range c.defs {
		if def.Dimension == d {
			out = append(out, def)
		}
	}
	return out
}

func (c *Catalog) Find(name string) (CategoryDefinition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return CategoryDefinition{}, false
	}
	return c.defs[i], true
}

// All returns every definition in catalog order.
func (c *Catalog) All() []CategoryDefinition {
	return append([]CategoryDefinition(nil), c.defs...)
}

// InDimension reports whether name is defined under d.
func (c *Catalog) InDimension(name string, d Dimension) bool {
	i, ok := c.byName[name]
	return ok && c.defs[i].Dimension == d
}

// InitialStock returns one full StockItem per definition.
func (c *Catalog) InitialStock() []StockItem {
	stock := make([]StockItem, 0, len(c.defs))
	for _, def := range c.defs {
		stock = append(stock, StockItem{
			Category:  def.Name,
			Total:     def.TotalCapacity,
			Remaining: def.TotalCapacity,
		})
	}
	return stock
}
