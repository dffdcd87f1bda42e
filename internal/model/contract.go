package model

import (
	"time"

	"github.com/google/uuid"
)

// Contract is the aggregate root of the ledger: the row plus its addenda and
// bills are always read and written together. Realization and RemainingValue
// are derived from the bill set and must never be persisted out of sync with it.
type Contract struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	ContractNumber string
	ContractDate   time.Time
	Description    string
	Implementer    string
	Value          float64
	Realization    float64
	RemainingValue float64
	Addenda        []Addendum
	Bills          []Bill
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Addendum is a descriptive amendment record; it never affects the
// financial fields.
type Addendum struct {
	Number string
	Date   time.Time
}
