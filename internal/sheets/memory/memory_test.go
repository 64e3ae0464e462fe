package memory

import (
	"context"
	"errors"
	"testing"

	"surveystock/internal/sheets"
)

func TestStoreAppendRow(t *testing.T) {
	s := New()
	ref, err := s.AppendRow(context.Background(), sheets.ExportRow{Kind: "ledger_reset"})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	s.FailWith(errors.New("quota"))
	if _, err := s.AppendRow(context.Background(), sheets.ExportRow{}); err == nil {
		t.Fatalf("expected injected error")
	}
	s.FailWith(nil)

	if rows := s.Rows(); len(rows) != 1 || rows[0].Kind != "ledger_reset" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
