package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTimestampFormatAndParse(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 3, 14, 9, 26, 53, 589_793_238, time.FixedZone("AST", 3*3600)))
	if got, want := ts.String(), "2025-03-14T06:26:53.589Z"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	parsed, err := ParseTimestamp(ts.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Fatalf("round trip mismatch: %v vs %v", parsed, ts)
	}
	if parsed.Millis() != ts.Millis() {
		t.Fatalf("millis mismatch")
	}
	if !TimestampFromMillis(ts.Millis()).Equal(ts) {
		t.Fatalf("TimestampFromMillis mismatch")
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2025-13-01T00:00:00Z"} {
		if _, err := ParseTimestamp(in); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("ParseTimestamp(%q) err = %v, want ErrInvalidTimestamp", in, err)
		}
	}
}

func TestCategoryDefinitionValidate(t *testing.T) {
	cases := []struct {
		def  CategoryDefinition
		want error
	}{
		{CategoryDefinition{Name: "A", Dimension: Age, TotalCapacity: 0}, nil},
		{CategoryDefinition{Name: " ", Dimension: Age, TotalCapacity: 1}, ErrEmptyCategory},
		{CategoryDefinition{Name: "A", Dimension: "milk", TotalCapacity: 1}, ErrInvalidDimension},
		{CategoryDefinition{Name: "A", Dimension: Income, TotalCapacity: -1}, ErrNegativeCapacity},
	}
	for i, tc := range cases {
		err := tc.def.Validate()
		if tc.want == nil && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestNewCatalogRejectsDuplicateNames(t *testing.T) {
	cases := map[string][]CategoryDefinition{
		"same dimension": {
			{Name: "A", Dimension: Age, TotalCapacity: 1},
			{Name: "A", Dimension: Age, TotalCapacity: 2},
		},
		"across dimensions": {
			{Name: "A", Dimension: Age, TotalCapacity: 1},
			{Name: "A", Dimension: Product, TotalCapacity: 2},
		},
	}
	for name, defs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(defs)
			if !errors.Is(err, ErrDuplicateName) {
				t.Fatalf("expected ErrDuplicateName, got %v", err)
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	c := DefaultCatalog()

	if got := len(c.ListByDimension(Age)); got != 2 {
		t.Fatalf("age categories = %d, want 2", got)
	}
	if got := len(c.ListByDimension(Income)); got != 3 {
		t.Fatalf("income categories = %d, want 3", got)
	}
	products := c.ListByDimension(Product)
	if len(products) != 3 || products[0].Name != "نيدو" || products[0].TotalCapacity != 90 {
		t.Fatalf("unexpected products: %+v", products)
	}

	def, ok := c.Find("الدخل 501-600 (C1)")
	if !ok || def.Dimension != Income || def.TotalCapacity != 41 {
		t.Fatalf("unexpected find result: %+v %v", def, ok)
	}
	if _, ok := c.Find("missing"); ok {
		t.Fatalf("expected not found")
	}
	if !c.InDimension("حليبنا", Product) || c.InDimension("حليبنا", Age) {
		t.Fatalf("InDimension mismatch")
	}

	stock := c.InitialStock()
	if len(stock) != len(c.All()) {
		t.Fatalf("stock size %d, catalog size %d", len(stock), len(c.All()))
	}
	for _, s := range stock {
		if s.Remaining != s.Total {
			t.Fatalf("initial stock not full: %+v", s)
		}
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `[{"name":"A","dimension":"age","total":2},{"name":"P","dimension":"product","total":5}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def, ok := c.Find("P"); !ok || def.TotalCapacity != 5 || def.Dimension != Product {
		t.Fatalf("unexpected def: %+v", def)
	}

	if err := os.WriteFile(path, []byte(`[{"name":"A","dimension":"height","total":2}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalogFile(path); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}

	if _, err := LoadCatalogFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestStockItemClamp(t *testing.T) {
	s := StockItem{Category: "A", Total: 3, Remaining: 7}
	s.Clamp()
	if s.Remaining != 3 {
		t.Fatalf("upper clamp: %d", s.Remaining)
	}
	s.Remaining = -2
	s.Clamp()
	if s.Remaining != 0 || s.Consumed() != 3 {
		t.Fatalf("lower clamp: %+v", s)
	}
}

func TestStockItemClampNegativeTotal(t *testing.T) {
	s := StockItem{Category: "A", Total: -3, Remaining: 2}
	s.Clamp()
	if s.Total != 0 || s.Remaining != 0 || s.Consumed() != 0 {
		t.Fatalf("negative total: %+v", s)
	}
}
