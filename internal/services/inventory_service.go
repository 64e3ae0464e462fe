package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"surveystock/internal/amqp"
	"surveystock/internal/core"
	applog "surveystock/internal/log"
	"surveystock/internal/persist"
)

// EventPublisher announces committed ledger changes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// GroupView is one row of the group table.
type GroupView struct {
	Timestamp string `json:"timestamp"`
	Age       string `json:"age"`
	Income    string `json:"income"`
	Product   string `json:"product"`
	Notes     string `json:"notes"`
	Count     int    `json:"count"`
}

// StateView is a consistent read of everything the screen shows.
type StateView struct {
	Stock    []core.StockItem `json:"stock"`
	Groups   []GroupView      `json:"groups"`
	LastSync int64            `json:"lastSync"`
}

// InventoryService serializes ledger mutations and saves after each one.
type InventoryService struct {
	mu        sync.Mutex
	ledger    *core.Ledger
	store     *persist.Store
	publisher EventPublisher
	lastSync  core.Timestamp
}

// NewInventoryService wires the ledger to its store. publisher may be nil.
func NewInventoryService(ledger *core.Ledger, store *persist.Store, publisher EventPublisher) *InventoryService {
	return &InventoryService{
		ledger:    ledger,
		store:     store,
		publisher: publisher,
	}
}

func (s *InventoryService) Catalog() *core.Catalog {
	return s.ledger.Catalog()
}

// Load restores the last saved state. It reports false and keeps full stock
// when nothing usable is stored.
func (s *InventoryService) Load(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.store.Load(ctx)
	if !ok {
		slog.InfoContext(ctx, "No prior state, starting with full stock",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldOperation, applog.OpLoad)
		return false
	}

	s.ledger.Replace(state)
	s.lastSync = state.LastSyncedAt
	slog.InfoContext(ctx, "State restored",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpLoad,
		applog.FieldLastSync, s.lastSync.String(),
		applog.FieldTransactions, len(state.Transactions))
	return true
}

// RecordConsumption records the selection as one group. Notes are trimmed.
// A save failure is returned but the recorded group stays in memory.
func (s *InventoryService) RecordConsumption(ctx context.Context, selected []string, notes string) (core.TransactionGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, err := s.ledger.RecordConsumption(selected, strings.TrimSpace(notes))
	if err != nil {
		return core.TransactionGroup{}, err
	}

	fields := applog.NewFields().
		WithOperation(applog.OpRecord).
		WithGroup(group.Timestamp.String(), selected)
	slog.InfoContext(ctx, "Consumption recorded", fields.ToSlice()...)

	if err := s.commit(ctx); err != nil {
		return group, err
	}
	s.publish(ctx, amqp.NewGroupRecordedEvent(group))
	return group, nil
}

// DeleteGroup removes the group recorded at ts and returns its stock.
// Deleting an unknown group is a no-op returning 0.
func (s *InventoryService) DeleteGroup(ctx context.Context, ts core.Timestamp) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.ledger.DeleteGroup(ts)
	if removed == 0 {
		slog.DebugContext(ctx, "No group at timestamp",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldGroup, ts.String())
		return 0, nil
	}

	slog.InfoContext(ctx, "Group deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldGroup, ts.String(),
		applog.FieldRemoved, removed)

	if err := s.commit(ctx); err != nil {
		return removed, err
	}
	s.publish(ctx, amqp.NewGroupDeletedEvent(ts, removed))
	return removed, nil
}

// Reset restores full stock and clears the history.
func (s *InventoryService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset()
	slog.InfoContext(ctx, "Ledger reset", applog.FieldOperation, applog.OpReset)

	if err := s.commit(ctx); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewLedgerResetEvent())
	return nil
}

// RefreshIfNewer adopts the stored state when another writer saved it after
// our last save or load.
func (s *InventoryService) RefreshIfNewer(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.store.CheckForNewer(ctx, s.lastSync)
	if !ok {
		return false
	}

	s.ledger.Replace(state)
	s.lastSync = state.LastSyncedAt
	slog.InfoContext(ctx, "Adopted newer stored state",
		applog.FieldComponent, applog.ComponentPoller,
		applog.FieldOperation, applog.OpSync,
		applog.FieldLastSync, s.lastSync.String())
	return true
}

// State returns stock, groups newest first, and the last sync time.
func (s *InventoryService) State() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.ledger.GroupedByTime()
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, s.viewOf(g))
	}
	view := StateView{
		Stock:  s.ledger.Stock(),
		Groups: views,
	}
	if !s.lastSync.IsZero() {
		view.LastSync = s.lastSync.Millis()
	}
	return view
}

func (s *InventoryService) LastSyncedAt() core.Timestamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *InventoryService) viewOf(g core.TransactionGroup) GroupView {
	v := GroupView{
		Timestamp: g.Timestamp.String(),
		Notes:     g.Notes,
		Count:     len(g.Transactions),
	}
	v.Age, _ = s.ledger.CategoryInGroup(g, core.Age)
	v.Income, _ = s.ledger.CategoryInGroup(g, core.Income)
	v.Product, _ = s.ledger.CategoryInGroup(g, core.Product)
	return v
}

// commit must be called with mu held.
func (s *InventoryService) commit(ctx context.Context) error {
	state := s.ledger.Snapshot()
	if err := s.store.Save(ctx, &state); err != nil {
		slog.ErrorContext(ctx, "Failed to save state",
			applog.FieldOperation, applog.OpSave,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			applog.FieldError, err)
		return fmt.Errorf("save state: %w", err)
	}
	s.lastSync = state.LastSyncedAt
	return nil
}

func (s *InventoryService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldEventID, event.ID,
			applog.FieldEventType, event.Type,
			applog.FieldErrorType, applog.ErrorTypeNetwork,
			applog.FieldError, err)
	}
}
