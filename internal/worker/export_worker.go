package worker

import (
	"context"
	"fmt"
	"log/slog"

	"surveystock/internal/amqp"
	"surveystock/internal/core"
	applog "surveystock/internal/log"
	"surveystock/internal/sheets"
)

// ExportWorker copies ledger events into the distribution sheet.
type ExportWorker struct {
	catalog  *core.Catalog
	exporter sheets.RowAppender
}

func NewExportWorker(catalog *core.Catalog, exporter sheets.RowAppender) *ExportWorker {
	return &ExportWorker{
		catalog:  catalog,
		exporter: exporter,
	}
}

// HandleEvent appends one row for the event. Returning an error requeues it.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		applog.FieldEventID, event.ID,
		applog.FieldEventType, event.Type)

	row := w.rowFor(event)
	ref, err := w.exporter.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append export row: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger event",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpExport,
		applog.FieldEventID, event.ID,
		applog.FieldEventType, event.Type,
		"sheets_ref", ref)
	return nil
}

func (w *ExportWorker) rowFor(event *amqp.LedgerEvent) sheets.ExportRow {
	row := sheets.ExportRow{
		OccurredAt: event.OccurredAt,
		Kind:       string(event.Type),
		Group:      event.Group,
		Notes:      event.Notes,
	}

	switch event.Type {
	case amqp.GroupRecorded:
		row.Count = len(event.Categories)
		row.Age = w.pick(event.Categories, core.Age)
		row.Income = w.pick(event.Categories, core.Income)
		row.Product = w.pick(event.Categories, core.Product)
	case amqp.GroupDeleted:
		row.Count = event.Removed
	}
	return row
}

// pick returns the first category that belongs to d.
func (w *ExportWorker) pick(categories []string, d core.Dimension) string {
	for _, name := range categories {
		if w.catalog.InDimension(name, d) {
			return name
		}
	}
	return ""
}
