package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wprasetia/kontrak-ledger/internal/model"
)

// readSnapshot makes the multi-statement aggregate reads see one consistent
// snapshot: under the default READ COMMITTED isolation each statement takes
// its own, so a mutation committing between the contract-row read and the
// bills read would yield bills that disagree with the stored realization.
var readSnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type contractRow struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	ContractNumber string
	ContractDate   time.Time
	Description    string
	Implementer    string
	Value          float64
	Realization    float64
	RemainingValue float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type addendumRow struct {
	AddendumNumber string
	AddendumDate   time.Time
}

type billRow struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Amount      float64
	BillDate    time.Time
	Description string
	Status      string
	CreatedAt   time.Time
}

func (r *ContractRepository) Get(ctx context.Context, ownerID, contractID uuid.UUID) (*model.Contract, error) {
	var contract *model.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := loadAggregate(tx, ownerID, contractID, false)
		if err != nil {
			return err
		}
		contract = loaded
		return nil
	}, readSnapshot)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func (r *ContractRepository) List(ctx context.Context, ownerID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := listAggregates(tx, ownerID)
		if err != nil {
			return err
		}
		contracts = loaded
		return nil
	}, readSnapshot)
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func listAggregates(tx *gorm.DB, ownerID uuid.UUID) ([]model.Contract, error) {
	var rows []contractRow
	err := tx.Raw(`
		SELECT
			id,
			owner_id,
			contract_number,
			contract_date,
			description,
			implementer,
			value,
			realization,
			remaining_value,
			created_at,
			updated_at
		FROM contracts
		WHERE owner_id = ?
		ORDER BY contract_date DESC, created_at DESC
	`, ownerID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.Contract{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	contracts := make([]model.Contract, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		contracts[i] = rowToContract(row)
		index[row.ID] = i
	}

	var addenda []struct {
		ContractID     uuid.UUID
		AddendumNumber string
		AddendumDate   time.Time
	}
	err = tx.Raw(`
		SELECT contract_id, addendum_number, addendum_date
		FROM contract_addenda
		WHERE contract_id = ANY(?)
		ORDER BY contract_id, position
	`, ids).Scan(&addenda).Error
	if err != nil {
		return nil, err
	}
	for _, a := range addenda {
		pos := index[a.ContractID]
		contracts[pos].Addenda = append(contracts[pos].Addenda, model.Addendum{
			Number: a.AddendumNumber,
			Date:   a.AddendumDate,
		})
	}

	var bills []billRow
	err = tx.Raw(`
		SELECT id, contract_id, amount, bill_date, description, status, created_at
		FROM bills
		WHERE contract_id = ANY(?)
		ORDER BY contract_id, bill_date, created_at
	`, ids).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		pos := index[b.ContractID]
		contracts[pos].Bills = append(contracts[pos].Bills, rowToBill(b))
	}

	return contracts, nil
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`
			INSERT INTO contracts (
				id,
				owner_id,
				contract_number,
				contract_date,
				description,
				implementer,
				value,
				realization,
				remaining_value
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			contract.ID,
			contract.OwnerID,
			contract.ContractNumber,
			contract.ContractDate,
			contract.Description,
			contract.Implementer,
			contract.Value,
			contract.Realization,
			contract.RemainingValue,
		).Error
		if err != nil {
			return err
		}
		return writeChildren(tx, contract)
	})
}

// Mutate loads the aggregate under a row lock, applies fn to it and rewrites
// the whole aggregate in the same transaction. Concurrent mutations of the
// same contract serialize on the lock, so a read-modify-write never loses a
// competing writer's bills.
func (r *ContractRepository) Mutate(
	ctx context.Context,
	ownerID, contractID uuid.UUID,
	fn func(*model.Contract) error,
) (*model.Contract, error) {
	var contract *model.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := loadAggregate(tx, ownerID, contractID, true)
		if err != nil {
			return err
		}
		if err := fn(loaded); err != nil {
			return err
		}
		if err := replaceAggregate(tx, loaded); err != nil {
			return err
		}
		contract = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func (r *ContractRepository) Delete(ctx context.Context, ownerID, contractID uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM contracts WHERE id = ? AND owner_id = ?
	`, contractID, ownerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func loadAggregate(tx *gorm.DB, ownerID, contractID uuid.UUID, forUpdate bool) (*model.Contract, error) {
	query := `
		SELECT
			id,
			owner_id,
			contract_number,
			contract_date,
			description,
			implementer,
			value,
			realization,
			remaining_value,
			created_at,
			updated_at
		FROM contracts
		WHERE id = ? AND owner_id = ?
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var row contractRow
	if err := tx.Raw(query, contractID, ownerID).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	contract := rowToContract(row)

	var addenda []addendumRow
	err := tx.Raw(`
		SELECT addendum_number, addendum_date
		FROM contract_addenda
		WHERE contract_id = ?
		ORDER BY position
	`, contractID).Scan(&addenda).Error
	if err != nil {
		return nil, err
	}
	for _, a := range addenda {
		contract.Addenda = append(contract.Addenda, model.Addendum{
			Number: a.AddendumNumber,
			Date:   a.AddendumDate,
		})
	}

	var bills []billRow
	err = tx.Raw(`
		SELECT id, contract_id, amount, bill_date, description, status, created_at
		FROM bills
		WHERE contract_id = ?
		ORDER BY bill_date, created_at
	`, contractID).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		contract.Bills = append(contract.Bills, rowToBill(b))
	}

	return &contract, nil
}

// replaceAggregate overwrites the full contract state: the row is updated in
// place and all children are rewritten, so no reader can ever observe bills
// that disagree with the stored realization.
func replaceAggregate(tx *gorm.DB, contract *model.Contract) error {
	err := tx.Exec(`
		UPDATE contracts
		SET
			contract_number = ?,
			contract_date = ?,
			description = ?,
			implementer = ?,
			value = ?,
			realization = ?,
			remaining_value = ?,
			updated_at = NOW()
		WHERE id = ?
	`,
		contract.ContractNumber,
		contract.ContractDate,
		contract.Description,
		contract.Implementer,
		contract.Value,
		contract.Realization,
		contract.RemainingValue,
		contract.ID,
	).Error
	if err != nil {
		return err
	}

	if err := tx.Exec(`DELETE FROM contract_addenda WHERE contract_id = ?`, contract.ID).Error; err != nil {
		return err
	}
	if err := tx.Exec(`DELETE FROM bills WHERE contract_id = ?`, contract.ID).Error; err != nil {
		return err
	}
	return writeChildren(tx, contract)
}

func writeChildren(tx *gorm.DB, contract *model.Contract) error {
	for i, addendum := range contract.Addenda {
		err := tx.Exec(`
			INSERT INTO contract_addenda (contract_id, position, addendum_number, addendum_date)
			VALUES (?, ?, ?, ?)
		`, contract.ID, i, addendum.Number, addendum.Date).Error
		if err != nil {
			return err
		}
	}
	for _, bill := range contract.Bills {
		err := tx.Exec(`
			INSERT INTO bills (id, contract_id, amount, bill_date, description, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, bill.ID, contract.ID, bill.Amount, bill.BillDate, bill.Description, string(bill.Status), bill.CreatedAt).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func rowToContract(row contractRow) model.Contract {
	return model.Contract{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		ContractNumber: row.ContractNumber,
		ContractDate:   row.ContractDate,
		Description:    row.Description,
		Implementer:    row.Implementer,
		Value:          row.Value,
		Realization:    row.Realization,
		RemainingValue: row.RemainingValue,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func rowToBill(row billRow) model.Bill {
	return model.Bill{
		ID:          row.ID,
		ContractID:  row.ContractID,
		Amount:      row.Amount,
		BillDate:    row.BillDate,
		Description: row.Description,
		Status:      model.BillStatus(row.Status),
		CreatedAt:   row.CreatedAt,
	}
}
