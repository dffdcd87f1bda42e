package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wprasetia/kontrak-ledger/internal/model"
	"github.com/wprasetia/kontrak-ledger/internal/repository"
)

func newTestService() (*LedgerService, uuid.UUID) {
	return NewLedgerService(repository.NewMemoryStore()), uuid.New()
}

func validContractInput(value float64) AddContractInput {
	return AddContractInput{
		ContractNumber: "027/SPK/2024",
		ContractDate:   time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Description:    "Pengadaan perangkat jaringan",
		Implementer:    "CV Maju Jaya",
		Value:          value,
	}
}

func validBillInput(amount float64) BillInput {
	return BillInput{
		Amount:      amount,
		BillDate:    time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Description: "Pembayaran termin",
		Status:      model.BillStatusInstallment,
	}
}

func TestAddContractInitialState(t *testing.T) {
	svc, owner := newTestService()

	contract, err := svc.AddContract(context.Background(), owner, validContractInput(1_000_000))
	require.NoError(t, err)

	assert.Equal(t, float64(0), contract.Realization)
	assert.Equal(t, float64(1_000_000), contract.RemainingValue)
	assert.Empty(t, contract.Bills)

	stored, err := svc.GetContract(context.Background(), owner, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), stored.Realization)
	assert.Equal(t, float64(1_000_000), stored.RemainingValue)
}

func TestAddContractValidation(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	cases := map[string]func(*AddContractInput){
		"empty number":      func(in *AddContractInput) { in.ContractNumber = "  " },
		"zero date":         func(in *AddContractInput) { in.ContractDate = time.Time{} },
		"empty description": func(in *AddContractInput) { in.Description = "" },
		"empty implementer": func(in *AddContractInput) { in.Implementer = "" },
		"negative value":    func(in *AddContractInput) { in.Value = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validContractInput(500)
			mutate(&input)
			_, err := svc.AddContract(ctx, owner, input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestBillLifecycleScenario(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(1_000_000))
	require.NoError(t, err)

	// first bill
	updated, err := svc.AddBill(ctx, owner, contract.ID, validBillInput(300_000))
	require.NoError(t, err)
	assert.Equal(t, float64(300_000), updated.Realization)
	assert.Equal(t, float64(700_000), updated.RemainingValue)
	require.Len(t, updated.Bills, 1)
	bill1 := updated.Bills[0].ID

	// second bill exhausts the contract
	updated, err = svc.AddBill(ctx, owner, contract.ID, validBillInput(700_000))
	require.NoError(t, err)
	assert.Equal(t, float64(1_000_000), updated.Realization)
	assert.Equal(t, float64(0), updated.RemainingValue)
	require.Len(t, updated.Bills, 2)
	var bill2 uuid.UUID
	for _, b := range updated.Bills {
		if b.ID != bill1 {
			bill2 = b.ID
		}
	}

	// raising the first bill overruns the value; allowed, remaining goes negative
	updated, err = svc.UpdateBill(ctx, owner, contract.ID, bill1, validBillInput(400_000))
	require.NoError(t, err)
	assert.Equal(t, float64(1_100_000), updated.Realization)
	assert.Equal(t, float64(-100_000), updated.RemainingValue)

	updated, err = svc.DeleteBill(ctx, owner, contract.ID, bill2)
	require.NoError(t, err)
	assert.Equal(t, float64(400_000), updated.Realization)
	assert.Equal(t, float64(600_000), updated.RemainingValue)
	require.Len(t, updated.Bills, 1)
	assert.Equal(t, bill1, updated.Bills[0].ID)

	// editing the ceiling recomputes remaining against the untouched realization
	newValue := float64(2_000_000)
	updated, err = svc.UpdateContract(ctx, owner, contract.ID, UpdateContractInput{Value: &newValue})
	require.NoError(t, err)
	assert.Equal(t, float64(400_000), updated.Realization)
	assert.Equal(t, float64(1_600_000), updated.RemainingValue)
	assert.Len(t, updated.Bills, 1)
}

func TestInvariantHoldsAcrossSequence(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()
	const value = 750_000

	contract, err := svc.AddContract(ctx, owner, validContractInput(value))
	require.NoError(t, err)

	check := func(c *model.Contract) {
		t.Helper()
		var sum float64
		for _, b := range c.Bills {
			sum += b.Amount
		}
		assert.Equal(t, sum, c.Realization)
		assert.Equal(t, c.Value-sum, c.RemainingValue)
	}

	amounts := []float64{120_000, 45_500, 600_000, 10}
	var billIDs []uuid.UUID
	for _, amount := range amounts {
		updated, err := svc.AddBill(ctx, owner, contract.ID, validBillInput(amount))
		require.NoError(t, err)
		check(updated)
		billIDs = append(billIDs, updated.Bills[len(updated.Bills)-1].ID)
	}

	updated, err := svc.UpdateBill(ctx, owner, contract.ID, billIDs[1], validBillInput(99_000))
	require.NoError(t, err)
	check(updated)

	for _, id := range billIDs {
		updated, err = svc.DeleteBill(ctx, owner, contract.ID, id)
		require.NoError(t, err)
		check(updated)
	}
	assert.Equal(t, float64(0), updated.Realization)
	assert.Equal(t, float64(value), updated.RemainingValue)
}

func TestAddThenDeleteBillRestoresTotals(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(500_000))
	require.NoError(t, err)
	_, err = svc.AddBill(ctx, owner, contract.ID, validBillInput(110_000))
	require.NoError(t, err)

	before, err := svc.GetContract(ctx, owner, contract.ID)
	require.NoError(t, err)

	updated, err := svc.AddBill(ctx, owner, contract.ID, validBillInput(77_000))
	require.NoError(t, err)
	added := updated.Bills[len(updated.Bills)-1].ID

	after, err := svc.DeleteBill(ctx, owner, contract.ID, added)
	require.NoError(t, err)
	assert.Equal(t, before.Realization, after.Realization)
	assert.Equal(t, before.RemainingValue, after.RemainingValue)
	assert.Len(t, after.Bills, len(before.Bills))
}

func TestDeleteBillTwice(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(100_000))
	require.NoError(t, err)
	updated, err := svc.AddBill(ctx, owner, contract.ID, validBillInput(40_000))
	require.NoError(t, err)
	billID := updated.Bills[0].ID

	first, err := svc.DeleteBill(ctx, owner, contract.ID, billID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), first.Realization)
	assert.Equal(t, float64(100_000), first.RemainingValue)

	_, err = svc.DeleteBill(ctx, owner, contract.ID, billID)
	assert.ErrorIs(t, err, ErrNotFound)

	current, err := svc.GetContract(ctx, owner, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Realization, current.Realization)
	assert.Equal(t, first.RemainingValue, current.RemainingValue)
	assert.Empty(t, current.Bills)
}

func TestZeroValueContract(t *testing.T) {
	svc, owner := newTestService()

	contract, err := svc.AddContract(context.Background(), owner, validContractInput(0))
	require.NoError(t, err)
	assert.Equal(t, float64(0), contract.RemainingValue)
}

func TestOverRealizationAllowed(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(50_000))
	require.NoError(t, err)

	updated, err := svc.AddBill(ctx, owner, contract.ID, validBillInput(80_000))
	require.NoError(t, err)
	assert.Equal(t, float64(80_000), updated.Realization)
	assert.Equal(t, float64(-30_000), updated.RemainingValue)
}

func TestBillValidation(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(100_000))
	require.NoError(t, err)

	cases := map[string]func(*BillInput){
		"zero amount":       func(in *BillInput) { in.Amount = 0 },
		"negative amount":   func(in *BillInput) { in.Amount = -10 },
		"zero date":         func(in *BillInput) { in.BillDate = time.Time{} },
		"empty description": func(in *BillInput) { in.Description = " " },
		"unknown status":    func(in *BillInput) { in.Status = "PAID" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validBillInput(10_000)
			mutate(&input)
			_, err := svc.AddBill(ctx, owner, contract.ID, input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	// failed validation must not have touched the aggregate
	current, err := svc.GetContract(ctx, owner, contract.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Bills)
	assert.Equal(t, float64(0), current.Realization)
}

func TestUpdateContractNeverTouchesBills(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(300_000))
	require.NoError(t, err)
	_, err = svc.AddBill(ctx, owner, contract.ID, validBillInput(120_000))
	require.NoError(t, err)

	description := "Uraian diperbarui"
	implementer := "PT Sinar Abadi"
	updated, err := svc.UpdateContract(ctx, owner, contract.ID, UpdateContractInput{
		Description: &description,
		Implementer: &implementer,
	})
	require.NoError(t, err)
	assert.Equal(t, description, updated.Description)
	assert.Equal(t, implementer, updated.Implementer)
	assert.Equal(t, float64(120_000), updated.Realization)
	assert.Equal(t, float64(180_000), updated.RemainingValue)
	assert.Len(t, updated.Bills, 1)
}

func TestContractNotFound(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	missing := uuid.New()
	_, err := svc.GetContract(ctx, owner, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddBill(ctx, owner, missing, validBillInput(10))
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.DeleteContract(ctx, owner, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerPartitionIsolation(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(100_000))
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = svc.GetContract(ctx, stranger, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AddBill(ctx, stranger, contract.ID, validBillInput(10))
	assert.ErrorIs(t, err, ErrNotFound)
	err = svc.DeleteContract(ctx, stranger, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentAddBillLosesNothing(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(1_000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	amounts := []float64{100, 200}
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount float64) {
			defer wg.Done()
			_, errs[i] = svc.AddBill(ctx, owner, contract.ID, validBillInput(amount))
		}(i, amount)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	current, err := svc.GetContract(ctx, owner, contract.ID)
	require.NoError(t, err)
	assert.Len(t, current.Bills, 2)
	assert.Equal(t, float64(300), current.Realization)
	assert.Equal(t, float64(700), current.RemainingValue)
}

func TestReadersSeeConsistentAggregate(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(1_000_000))
	require.NoError(t, err)

	done := make(chan struct{})
	var writeErr error
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			if _, err := svc.AddBill(ctx, owner, contract.ID, validBillInput(1_000)); err != nil {
				writeErr = err
				return
			}
		}
	}()

	// every snapshot a reader observes must already satisfy the invariant,
	// regardless of how the reads interleave with the writer's commits
	for {
		current, err := svc.GetContract(ctx, owner, contract.ID)
		require.NoError(t, err)
		var sum float64
		for _, b := range current.Bills {
			sum += b.Amount
		}
		require.Equal(t, sum, current.Realization)
		require.Equal(t, current.Value-sum, current.RemainingValue)

		select {
		case <-done:
			require.NoError(t, writeErr)
			final, err := svc.GetContract(ctx, owner, contract.ID)
			require.NoError(t, err)
			assert.Len(t, final.Bills, 20)
			assert.Equal(t, float64(20_000), final.Realization)
			return
		default:
		}
	}
}

func TestDeleteContractCascades(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	contract, err := svc.AddContract(ctx, owner, validContractInput(100_000))
	require.NoError(t, err)
	_, err = svc.AddBill(ctx, owner, contract.ID, validBillInput(20_000))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContract(ctx, owner, contract.ID))

	_, err = svc.GetContract(ctx, owner, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	err = svc.DeleteContract(ctx, owner, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderedByContractDateDesc(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	}
	for i, date := range dates {
		input := validContractInput(1000)
		input.ContractNumber = input.ContractNumber + "-" + string(rune('A'+i))
		input.ContractDate = date
		_, err := svc.AddContract(ctx, owner, input)
		require.NoError(t, err)
	}

	contracts, err := svc.ListContracts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, contracts, 3)
	for i := 1; i < len(contracts); i++ {
		assert.False(t, contracts[i-1].ContractDate.Before(contracts[i].ContractDate))
	}
}

func TestSummaryAggregatesPartition(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	first, err := svc.AddContract(ctx, owner, validContractInput(500_000))
	require.NoError(t, err)
	second := validContractInput(200_000)
	second.ContractNumber = "028/SPK/2024"
	_, err = svc.AddContract(ctx, owner, second)
	require.NoError(t, err)
	_, err = svc.AddBill(ctx, owner, first.ID, validBillInput(100_000))
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ContractCount)
	assert.Equal(t, float64(700_000), summary.TotalValue)
	assert.Equal(t, float64(100_000), summary.TotalRealization)
	assert.Equal(t, float64(600_000), summary.TotalRemainingValue)
}

func TestAddendaAreDescriptiveOnly(t *testing.T) {
	svc, owner := newTestService()
	ctx := context.Background()

	input := validContractInput(400_000)
	input.Addenda = []AddendumInput{{
		Number: "ADD-01",
		Date:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}}
	contract, err := svc.AddContract(ctx, owner, input)
	require.NoError(t, err)
	require.Len(t, contract.Addenda, 1)
	assert.Equal(t, float64(400_000), contract.RemainingValue)

	addenda := []AddendumInput{
		{Number: "ADD-01", Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{Number: "ADD-02", Date: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	updated, err := svc.UpdateContract(ctx, owner, contract.ID, UpdateContractInput{Addenda: &addenda})
	require.NoError(t, err)
	assert.Len(t, updated.Addenda, 2)
	assert.Equal(t, float64(0), updated.Realization)
	assert.Equal(t, float64(400_000), updated.RemainingValue)

	incomplete := []AddendumInput{{Number: "", Date: time.Now()}}
	_, err = svc.UpdateContract(ctx, owner, contract.ID, UpdateContractInput{Addenda: &incomplete})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
