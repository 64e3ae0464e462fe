package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"surveystock/internal/core"
)

var errNullDocument = errors.New("unmarshal state: document is null")

// blob is the stored document. Field names are shared with existing stores.
type blob struct {
	Inventory    *[]stockRecord      `json:"inventory"`
	Transactions []transactionRecord `json:"transactions"`
	LastSync     int64               `json:"lastSync"`
}

type stockRecord struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
}

type transactionRecord struct {
	Category  string `json:"category"`
	Notes     string `json:"notes"`
	Timestamp string `json:"timestamp"`
}

// Encode serializes state; timestamps become text, LastSyncedAt epoch millis.
func Encode(state core.PersistedState) (string, error) {
	inventory := make([]stockRecord, 0, len(state.Stock))
	for _, s := range state.Stock {
		inventory = append(inventory, stockRecord{
			Category:  s.Category,
			Total:     s.Total,
			Remaining: s.Remaining,
		})
	}
	b := blob{
		Inventory:    &inventory,
		Transactions: make([]transactionRecord, 0, len(state.Transactions)),
		LastSync:     state.LastSyncedAt.Millis(),
	}
	for _, tx := range state.Transactions {
		b.Transactions = append(b.Transactions, transactionRecord{
			Category:  tx.Category,
			Notes:     tx.Notes,
			Timestamp: tx.Timestamp.String(),
		})
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored document. A blob that fails anywhere is rejected
// whole; the caller falls back to defaults. Stock stays nil when the
// document has no inventory key, so the ledger keeps its catalog stock.
func Decode(raw string) (core.PersistedState, error) {
	var b *blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return core.PersistedState{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if b == nil {
		return core.PersistedState{}, errNullDocument
	}

	state := core.PersistedState{
		LastSyncedAt: core.TimestampFromMillis(b.LastSync),
	}
	if b.Inventory != nil {
		state.Stock = make([]core.StockItem, 0, len(*b.Inventory))
		for _, s := range *b.Inventory {
			state.Stock = append(state.Stock, core.StockItem{
				Category:  s.Category,
				Total:     s.Total,
				Remaining: s.Remaining,
			})
		}
	}
	if len(b.Transactions) > 0 {
		state.Transactions = make([]core.Transaction, 0, len(b.Transactions))
	}
	for i, tx := range b.Transactions {
		ts, err := core.ParseTimestamp(tx.Timestamp)
		if err != nil {
			return core.PersistedState{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		state.Transactions = append(state.Transactions, core.Transaction{
			Category:  tx.Category,
			Notes:     tx.Notes,
			Timestamp: ts,
		})
	}
	return state, nil
}

// peekLastSync reads only lastSync from a stored document.
func peekLastSync(raw string) (core.Timestamp, error) {
	var head struct {
		LastSync int64 `json:"lastSync"`
	}
	if err := json.Unmarshal([]byte(raw), &head); err != nil {
		return core.Timestamp{}, fmt.Errorf("unmarshal lastSync: %w", err)
	}
	return core.TimestampFromMillis(head.LastSync), nil
}
