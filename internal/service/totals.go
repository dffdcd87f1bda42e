package service

import "github.com/wprasetia/kontrak-ledger/internal/model"

func sumBills(bills []model.Bill) float64 {
	var total float64
	for _, bill := range bills {
		total += bill.Amount
	}
	return total
}

// applyTotals recomputes the derived financial fields from the bill set.
// RemainingValue may go negative: over-realization is recorded, not rejected.
func applyTotals(contract *model.Contract) {
	contract.Realization = sumBills(contract.Bills)
	contract.RemainingValue = contract.Value - contract.Realization
}
