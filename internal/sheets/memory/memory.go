package memory

import (
	"context"
	"fmt"
	"sync"

	"surveystock/internal/sheets"
)

// Store keeps exported rows in memory.
type Store struct {
	mu   sync.Mutex
	rows []sheets.ExportRow
	err  error
}

func New() *Store {
	return &Store{}
}

// FailWith makes every following AppendRow return err; nil clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, row sheets.ExportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Rows() []sheets.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ExportRow(nil), s.rows...)
}
