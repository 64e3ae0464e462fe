package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"surveystock/internal/core"
)

type EventType string

const (
	GroupRecorded EventType = "group_recorded"
	GroupDeleted  EventType = "group_deleted"
	LedgerReset   EventType = "ledger_reset"
)

// LedgerEvent announces one committed ledger change. Group is the group's
// timestamp in stored text form; it is empty for resets.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Group      string    `json:"group,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Removed    int       `json:"removed,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newEvent(t EventType) *LedgerEvent {
	return &LedgerEvent{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
}

// NewGroupRecordedEvent describes a freshly recorded group.
func NewGroupRecordedEvent(g core.TransactionGroup) *LedgerEvent {
	e := newEvent(GroupRecorded)
	e.Group = g.Timestamp.String()
	e.Notes = g.Notes
	for _, tx := range g.Transactions {
		e.Categories = append(e.Categories, tx.Category)
	}
	return e
}

// NewGroupDeletedEvent describes a removed group and how many transactions went with it.
func NewGroupDeletedEvent(ts core.Timestamp, removed int) *LedgerEvent {
	e := newEvent(GroupDeleted)
	e.Group = ts.String()
	e.Removed = removed
	return e
}

func NewLedgerResetEvent() *LedgerEvent {
	return newEvent(LedgerReset)
}

// ToJSON converts the message to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case GroupRecorded, GroupDeleted, LedgerReset:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", e.ID, err)
	}
	return &e, nil
}
