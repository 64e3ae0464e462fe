// Package persist keeps the whole ledger as one document in a key-value
// store and tells callers when another writer has saved something newer.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"surveystock/internal/core"
	applog "surveystock/internal/log"
)

// DefaultKey is the key the ledger document is stored under.
const DefaultKey = "inventoryData"

// KeyValueStore is the durable storage the adapter writes through.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
}

type Store struct {
	kv  KeyValueStore
	key string
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(kv KeyValueStore, opts ...Option) *Store {
	s := &Store{kv: kv, key: DefaultKey, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// Save stamps state.LastSyncedAt with the current time and writes the whole
// state as a single value.
func (s *Store) Save(ctx context.Context, state *core.PersistedState) error {
	state.LastSyncedAt = core.NewTimestamp(s.now())

	raw, err := Encode(*state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	slog.DebugContext(ctx, "State saved",
		applog.FieldComponent, applog.ComponentPersist,
		applog.FieldKey, s.key,
		applog.FieldLastSync, state.LastSyncedAt.String(),
		applog.FieldTransactions, len(state.Transactions))
	return nil
}

// Load returns the stored state with stock clamped. ok is false when nothing
// usable is stored; read and parse failures are logged and treated the same.
func (s *Store) Load(ctx context.Context) (core.PersistedState, bool) {
	raw, ok := s.read(ctx)
	if !ok {
		return core.PersistedState{}, false
	}

	state, err := Decode(raw)
	if err != nil {
		slog.WarnContext(ctx, "Discarding unreadable stored state",
			applog.FieldComponent, applog.ComponentPersist,
			applog.FieldKey, s.key,
			applog.FieldErrorType, applog.ErrorTypeParse,
			applog.FieldError, err)
		return core.PersistedState{}, false
	}

	for i := range state.Stock {
		state.Stock[i].Clamp()
	}
	return state, true
}

// CheckForNewer returns the stored state when it was saved strictly after
// local. Anything else, including an unreadable store, reports false.
func (s *Store) CheckForNewer(ctx context.Context, local core.Timestamp) (core.PersistedState, bool) {
	raw, ok := s.read(ctx)
	if !ok {
		return core.PersistedState{}, false
	}

	stored, err := peekLastSync(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored state has no readable lastSync",
			applog.FieldComponent, applog.ComponentPersist,
			applog.FieldKey, s.key,
			applog.FieldError, err)
		return core.PersistedState{}, false
	}
	if !stored.After(local) {
		return core.PersistedState{}, false
	}

	return s.Load(ctx)
}

func (s *Store) read(ctx context.Context) (string, bool) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read stored state",
			applog.FieldComponent, applog.ComponentPersist,
			applog.FieldKey, s.key,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			applog.FieldError, err)
		return "", false
	}
	return raw, ok
}
