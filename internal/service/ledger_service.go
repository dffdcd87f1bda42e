package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wprasetia/kontrak-ledger/internal/model"
)

// ContractStore is the persistence boundary of the ledger. Mutate must load
// the aggregate, apply fn and write the full next state back as one atomic
// unit, serializing concurrent mutations of the same contract.
type ContractStore interface {
	Get(ctx context.Context, ownerID, contractID uuid.UUID) (*model.Contract, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Contract, error)
	Create(ctx context.Context, contract *model.Contract) error
	Mutate(ctx context.Context, ownerID, contractID uuid.UUID, fn func(*model.Contract) error) (*model.Contract, error)
	Delete(ctx context.Context, ownerID, contractID uuid.UUID) error
}

// LedgerService owns every state transition that touches realization and
// remaining value. After each successful call the stored contract satisfies
// realization == sum(bills) and remaining_value == value - realization.
type LedgerService struct {
	store ContractStore
}

func NewLedgerService(store ContractStore) *LedgerService {
	return &LedgerService{store: store}
}

type AddendumInput struct {
	Number string
	Date   time.Time
}

type AddContractInput struct {
	ContractNumber string
	ContractDate   time.Time
	Description    string
	Implementer    string
	Value          float64
	Addenda        []AddendumInput
}

// UpdateContractInput carries a partial edit: nil fields stay untouched.
// Bills and realization are never editable through this path.
type UpdateContractInput struct {
	ContractNumber *string
	ContractDate   *time.Time
	Description    *string
	Implementer    *string
	Value          *float64
	Addenda        *[]AddendumInput
}

type BillInput struct {
	Amount      float64
	BillDate    time.Time
	Description string
	Status      model.BillStatus
}

func (s *LedgerService) AddContract(ctx context.Context, ownerID uuid.UUID, input AddContractInput) (*model.Contract, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.ContractNumber) == "" {
		return nil, fmt.Errorf("%w: contract_number is required", ErrInvalidInput)
	}
	if input.ContractDate.IsZero() {
		return nil, fmt.Errorf("%w: contract_date is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Implementer) == "" {
		return nil, fmt.Errorf("%w: implementer is required", ErrInvalidInput)
	}
	if input.Value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative", ErrInvalidInput)
	}
	addenda, err := validateAddenda(input.Addenda)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contract := &model.Contract{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		ContractNumber: strings.TrimSpace(input.ContractNumber),
		ContractDate:   dateOnly(input.ContractDate),
		Description:    input.Description,
		Implementer:    input.Implementer,
		Value:          input.Value,
		Realization:    0,
		RemainingValue: input.Value,
		Addenda:        addenda,
		Bills:          []model.Bill{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Create(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// UpdateContract merges the edited fields over the current state. Bills and
// realization are untouched; only a value change moves remaining_value.
func (s *LedgerService) UpdateContract(ctx context.Context, ownerID, contractID uuid.UUID, input UpdateContractInput) (*model.Contract, error) {
	if input.ContractNumber != nil && strings.TrimSpace(*input.ContractNumber) == "" {
		return nil, fmt.Errorf("%w: contract_number must not be empty", ErrInvalidInput)
	}
	if input.ContractDate != nil && input.ContractDate.IsZero() {
		return nil, fmt.Errorf("%w: contract_date must not be empty", ErrInvalidInput)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return nil, fmt.Errorf("%w: description must not be empty", ErrInvalidInput)
	}
	if input.Implementer != nil && strings.TrimSpace(*input.Implementer) == "" {
		return nil, fmt.Errorf("%w: implementer must not be empty", ErrInvalidInput)
	}
	if input.Value != nil && *input.Value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative", ErrInvalidInput)
	}
	var addenda []model.Addendum
	if input.Addenda != nil {
		validated, err := validateAddenda(*input.Addenda)
		if err != nil {
			return nil, err
		}
		addenda = validated
	}

	contract, err := s.store.Mutate(ctx, ownerID, contractID, func(c *model.Contract) error {
		if input.ContractNumber != nil {
			c.ContractNumber = strings.TrimSpace(*input.ContractNumber)
		}
		if input.ContractDate != nil {
			c.ContractDate = dateOnly(*input.ContractDate)
		}
		if input.Description != nil {
			c.Description = *input.Description
		}
		if input.Implementer != nil {
			c.Implementer = *input.Implementer
		}
		if input.Addenda != nil {
			c.Addenda = addenda
		}
		if input.Value != nil {
			c.Value = *input.Value
			c.RemainingValue = c.Value - c.Realization
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return contract, nil
}

func (s *LedgerService) DeleteContract(ctx context.Context, ownerID, contractID uuid.UUID) error {
	if err := s.store.Delete(ctx, ownerID, contractID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *LedgerService) AddBill(ctx context.Context, ownerID, contractID uuid.UUID, input BillInput) (*model.Contract, error) {
	if err := validateBill(input); err != nil {
		return nil, err
	}

	bill := model.Bill{
		ID:          uuid.New(),
		ContractID:  contractID,
		Amount:      input.Amount,
		BillDate:    dateOnly(input.BillDate),
		Description: input.Description,
		Status:      input.Status,
		CreatedAt:   time.Now().UTC(),
	}

	contract, err := s.store.Mutate(ctx, ownerID, contractID, func(c *model.Contract) error {
		c.Bills = append(c.Bills, bill)
		applyTotals(c)
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return contract, nil
}

func (s *LedgerService) UpdateBill(ctx context.Context, ownerID, contractID, billID uuid.UUID, input BillInput) (*model.Contract, error) {
	if err := validateBill(input); err != nil {
		return nil, err
	}

	contract, err := s.store.Mutate(ctx, ownerID, contractID, func(c *model.Contract) error {
		for i := range c.Bills {
			if c.Bills[i].ID != billID {
				continue
			}
			c.Bills[i].Amount = input.Amount
			c.Bills[i].BillDate = dateOnly(input.BillDate)
			c.Bills[i].Description = input.Description
			c.Bills[i].Status = input.Status
			applyTotals(c)
			return nil
		}
		return fmt.Errorf("%w: bill %s", ErrNotFound, billID)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return contract, nil
}

func (s *LedgerService) DeleteBill(ctx context.Context, ownerID, contractID, billID uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.Mutate(ctx, ownerID, contractID, func(c *model.Contract) error {
		for i := range c.Bills {
			if c.Bills[i].ID != billID {
				continue
			}
			c.Bills = append(c.Bills[:i], c.Bills[i+1:]...)
			applyTotals(c)
			return nil
		}
		return fmt.Errorf("%w: bill %s", ErrNotFound, billID)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return contract, nil
}

func (s *LedgerService) GetContract(ctx context.Context, ownerID, contractID uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.Get(ctx, ownerID, contractID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return contract, nil
}

func (s *LedgerService) ListContracts(ctx context.Context, ownerID uuid.UUID) ([]model.Contract, error) {
	return s.store.List(ctx, ownerID)
}

// LedgerSummary aggregates the owner's whole partition for dashboards and
// report headers.
type LedgerSummary struct {
	ContractCount       int
	TotalValue          float64
	TotalRealization    float64
	TotalRemainingValue float64
}

func (s *LedgerService) Summary(ctx context.Context, ownerID uuid.UUID) (*LedgerSummary, error) {
	contracts, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summary := &LedgerSummary{ContractCount: len(contracts)}
	for _, c := range contracts {
		summary.TotalValue += c.Value
		summary.TotalRealization += c.Realization
		summary.TotalRemainingValue += c.RemainingValue
	}
	return summary, nil
}

func validateBill(input BillInput) error {
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if input.BillDate.IsZero() {
		return fmt.Errorf("%w: bill_date is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !model.ValidBillStatus(input.Status) {
		return fmt.Errorf("%w: unknown bill status %q", ErrInvalidInput, input.Status)
	}
	return nil
}

func validateAddenda(inputs []AddendumInput) ([]model.Addendum, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	addenda := make([]model.Addendum, 0, len(inputs))
	for i, a := range inputs {
		if strings.TrimSpace(a.Number) == "" {
			return nil, fmt.Errorf("%w: addendum %d is missing its number", ErrInvalidInput, i+1)
		}
		if a.Date.IsZero() {
			return nil, fmt.Errorf("%w: addendum %d is missing its date", ErrInvalidInput, i+1)
		}
		addenda = append(addenda, model.Addendum{
			Number: strings.TrimSpace(a.Number),
			Date:   dateOnly(a.Date),
		})
	}
	return addenda, nil
}

func mapStoreError(err error) error {
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	return err
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
