package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Age     Dimension = "age"
	Income  Dimension = "income"
	Product Dimension = "product"
)

// timestampLayout is the ISO-8601 form with millisecond precision and a Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type (
	Dimension string

	// Timestamp is an instant with millisecond precision, always in UTC.
	Timestamp struct {
		time.Time
	}

	CategoryDefinition struct {
		Name          string    `json:"name"`
		Dimension     Dimension `json:"dimension"`
		TotalCapacity int       `json:"total"`
	}

	StockItem struct {
		Category  string `json:"category"`
		Total     int    `json:"total"`
		Remaining int    `json:"remaining"`
	}

	Transaction struct {
		Category  string
		Notes     string
		Timestamp Timestamp
	}

	// TransactionGroup is every transaction recorded by one user action.
	TransactionGroup struct {
		Timestamp    Timestamp
		Notes        string
		Transactions []Transaction
	}

	PersistedState struct {
		Stock        []StockItem
		Transactions []Transaction
		LastSyncedAt Timestamp
	}
)

var (
	ErrEmptySelection   = &ValidationError{Field: "categories", Reason: "select at least one category"}
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrEmptyCategory    = errors.New("empty category name")
	ErrNegativeCapacity = errors.New("negative capacity")
	ErrDuplicateName    = errors.New("duplicate category name")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// ValidationError reports user input that cannot be applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Dimensions lists the dimensions in display order.
func Dimensions() []Dimension {
	return []Dimension{Age, Income, Product}
}

func (d Dimension) IsValid() bool {
	switch d {
	case Age, Income, Product:
		return true
	default:
		return false
	}
}

func (d Dimension) String() string {
	return string(d)
}

// NewTimestamp normalizes t to UTC and drops sub-millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// TimestampFromMillis builds a Timestamp from Unix epoch milliseconds.
func TimestampFromMillis(ms int64) Timestamp {
	return NewTimestamp(time.UnixMilli(ms))
}

// ParseTimestamp accepts any RFC 3339 instant and normalizes it.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, ErrInvalidTimestamp
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return NewTimestamp(t), nil
}

// String formats the timestamp the way it is stored.
func (t Timestamp) String() string {
	return t.UTC().Format(timestampLayout)
}

func (t Timestamp) Millis() int64 {
	return t.UnixMilli()
}

func (t Timestamp) Equal(o Timestamp) bool {
	return t.Time.Equal(o.Time)
}

func (t Timestamp) After(o Timestamp) bool {
	return t.Time.After(o.Time)
}

func (c CategoryDefinition) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Dimension.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDimension, c.Dimension)
	}
	if c.TotalCapacity < 0 {
		return fmt.Errorf("%w: %s has %d", ErrNegativeCapacity, c.Name, c.TotalCapacity)
	}
	return nil
}

// Clamp forces Total to be non-negative and Remaining into [0, Total].
func (s *StockItem) Clamp() {
	if s.Total < 0 {
		s.Total = 0
	}
	if s.Remaining > s.Total {
		s.Remaining = s.Total
	}
	if s.Remaining < 0 {
		s.Remaining = 0
	}
}

// Consumed returns how many units have been handed out.
func (s StockItem) Consumed() int {
	return s.Total - s.Remaining
}
