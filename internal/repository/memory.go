package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wprasetia/kontrak-ledger/internal/model"
)

// MemoryStore keeps contract aggregates in process memory. It backs
// development runs without a database and the service tests. Mutations hold
// the store lock across the whole read-modify-write, giving the same
// serialization per contract that the Postgres repository gets from its row
// lock.
type MemoryStore struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*model.Contract
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contracts: make(map[uuid.UUID]*model.Contract)}
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, contractID uuid.UUID) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract, ok := s.contracts[contractID]
	if !ok || contract.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return copyContract(contract), nil
}

func (s *MemoryStore) List(ctx context.Context, ownerID uuid.UUID) ([]model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Contract, 0)
	for _, contract := range s.contracts {
		if contract.OwnerID == ownerID {
			result = append(result, *copyContract(contract))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ContractDate.Equal(result[j].ContractDate) {
			return result[i].ContractDate.After(result[j].ContractDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Create(ctx context.Context, contract *model.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contracts[contract.ID] = copyContract(contract)
	return nil
}

func (s *MemoryStore) Mutate(ctx context.Context, ownerID, contractID uuid.UUID, fn func(*model.Contract) error) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.contracts[contractID]
	if !ok || current.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}

	next := copyContract(current)
	if err := fn(next); err != nil {
		return nil, err
	}
	s.contracts[contractID] = next
	return copyContract(next), nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, contractID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract, ok := s.contracts[contractID]
	if !ok || contract.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(s.contracts, contractID)
	return nil
}

func copyContract(contract *model.Contract) *model.Contract {
	dup := *contract
	dup.Addenda = append([]model.Addendum(nil), contract.Addenda...)
	dup.Bills = append([]model.Bill(nil), contract.Bills...)
	return &dup
}
