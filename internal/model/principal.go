package model

import "github.com/google/uuid"

// Principal is the authenticated caller. UserID doubles as the owner id of
// the contract partition every ledger call is scoped to.
type Principal struct {
	UserID uuid.UUID
	Email  string
}
