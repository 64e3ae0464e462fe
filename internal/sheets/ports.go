package sheets

import (
	"context"
	"time"
)

// ExportRow is one line of the distribution log kept outside the device.
// Category columns are empty when the event has none for that dimension.
type ExportRow struct {
	OccurredAt time.Time
	Kind       string
	Group      string
	Age        string
	Income     string
	Product    string
	Notes      string
	Count      int
}

// Values returns the cells of the row in column order.
func (r ExportRow) Values() []any {
	return []any{
		r.OccurredAt.UTC().Format(time.RFC3339),
		r.Kind,
		r.Group,
		r.Age,
		r.Income,
		r.Product,
		r.Notes,
		r.Count,
	}
}

// Header is the first row of a fresh export sheet.
func Header() []any {
	return []any{"occurred_at", "kind", "group_time", "age", "income", "product", "notes", "count"}
}

// Ports for outbound adapters.
type (
	RowAppender interface {
		AppendRow(ctx context.Context, row ExportRow) (rowRef string, err error)
	}
)
