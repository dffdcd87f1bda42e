package model

import (
	"time"

	"github.com/google/uuid"
)

type BillStatus string

const (
	BillStatusDownPayment      BillStatus = "DOWN_PAYMENT"
	BillStatusInstallment      BillStatus = "INSTALLMENT"
	BillStatusFinalInstallment BillStatus = "FINAL_INSTALLMENT"
)

// ValidBillStatus reports whether s is one of the closed payment-stage set.
func ValidBillStatus(s BillStatus) bool {
	switch s {
	case BillStatusDownPayment, BillStatusInstallment, BillStatusFinalInstallment:
		return true
	}
	return false
}

// Bill is a billing/disbursement event recorded against a contract. Bills
// have no lifecycle of their own: they are created, updated and deleted only
// through contract-scoped operations.
type Bill struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Amount      float64
	BillDate    time.Time
	Description string
	Status      BillStatus
	CreatedAt   time.Time
}
