package core

import (
	"sort"
	"time"
)

// Ledger owns the stock counts and the transaction history of one campaign.
// It is not safe for concurrent use; callers serialize access.
type Ledger struct {
	catalog      *Catalog
	stock        []StockItem
	transactions []Transaction
	now          func() time.Time
}

// LedgerOption customizes a Ledger.
type LedgerOption func(*Ledger)

// WithClock replaces time.Now as the source of transaction timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger starts a ledger with full stock for every catalog entry.
func NewLedger(catalog *Catalog, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		catalog: catalog,
		stock:   catalog.InitialStock(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Catalog() *Catalog {
	return l.catalog
}

// RecordConsumption records one transaction per selected category under a
// single timestamp and takes one unit of stock for each. Stock never drops
// below zero; a category already at zero is still recorded.
func (l *Ledger) RecordConsumption(selected []string, notes string) (TransactionGroup, error) {
	if len(selected) == 0 {
		return TransactionGroup{}, ErrEmptySelection
	}

	ts := l.nextTimestamp()
	group := TransactionGroup{
		Timestamp:    ts,
		Notes:        notes,
		Transactions: make([]Transaction, 0, len(selected)),
	}
	for _, category := range selected {
		tx := Transaction{Category: category, Notes: notes, Timestamp: ts}
		l.transactions = append(l.transactions, tx)
		group.Transactions = append(group.Transactions, tx)
		l.adjust(category, -1)
	}
	return group, nil
}

// DeleteGroup removes every transaction recorded at ts and gives their units
// back, capped at each category's total. It returns how many were removed.
func (l *Ledger) DeleteGroup(ts Timestamp) int {
	kept := l.transactions[:0:0]
	removed := 0
	for _, tx := range l.transactions {
		if tx.Timestamp.Equal(ts) {
			l.adjust(tx.Category, 1)
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	if removed > 0 {
		l.transactions = kept
	}
	return removed
}

// GroupedByTime partitions transactions by timestamp, newest group first.
func (l *Ledger) GroupedByTime() []TransactionGroup {
	index := make(map[int64]int)
	var groups []TransactionGroup
	for _, tx := range l.transactions {
		key := tx.Timestamp.Millis()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, TransactionGroup{Timestamp: tx.Timestamp, Notes: tx.Notes})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Timestamp.After(groups[j].Timestamp)
	})
	return groups
}

// CategoryInGroup returns the first category of g that belongs to d.
func (l *Ledger) CategoryInGroup(g TransactionGroup, d Dimension) (string, bool) {
	for _, tx := range g.Transactions {
		if l.catalog.InDimension(tx.Category, d) {
			return tx.Category, true
		}
	}
	return "", false
}

// Reset restores full stock and forgets every transaction.
func (l *Ledger) Reset() {
	l.stock = l.catalog.InitialStock()
	l.transactions = nil
}

// ClampStock clamps every stock item.
func (l *Ledger) ClampStock() {
	for i := range l.stock {
		l.stock[i].Clamp()
	}
}

func (l *Ledger) Stock() []StockItem {
	return append([]StockItem(nil), l.stock...)
}

func (l *Ledger) Transactions() []Transaction {
	return append([]Transaction(nil), l.transactions...)
}

// Snapshot copies the ledger into a PersistedState with no LastSyncedAt.
func (l *Ledger) Snapshot() PersistedState {
	return PersistedState{
		Stock:        l.Stock(),
		Transactions: l.Transactions(),
	}
}

// Replace swaps in state wholesale and clamps the result. A nil Stock means
// the stored state carried none, so the catalog stock is used instead.
func (l *Ledger) Replace(state PersistedState) {
	if state.Stock == nil {
		l.stock = l.catalog.InitialStock()
	} else {
		l.stock = append([]StockItem{}, state.Stock...)
	}
	l.transactions = append([]Transaction(nil), state.Transactions...)
	l.ClampStock()
}

// nextTimestamp keeps recorded timestamps strictly increasing so two actions
// never share a group.
func (l *Ledger) nextTimestamp() Timestamp {
	ts := NewTimestamp(l.now())
	for _, tx := range l.transactions {
		if !ts.After(tx.Timestamp) {
			ts = NewTimestamp(tx.Timestamp.Add(time.Millisecond))
		}
	}
	return ts
}

func (l *Ledger) adjust(category string, delta int) {
	for i := range l.stock {
		if l.stock[i].Category == category {
			l.stock[i].Remaining += delta
			l.stock[i].Clamp()
			return
		}
	}
}
