package model

import "time"

// LedgerReport is the read-side snapshot handed to the export generators.
type LedgerReport struct {
	OfficeName          string
	OwnerEmail          string
	GeneratedAt         time.Time
	TotalValue          float64
	TotalRealization    float64
	TotalRemainingValue float64
	Contracts           []Contract
}

// ContractStatement is the printable view of a single contract.
type ContractStatement struct {
	OfficeName  string
	GeneratedAt time.Time
	Contract    Contract
}
