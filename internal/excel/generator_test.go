package excel

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wprasetia/kontrak-ledger/internal/model"
)

func sampleReport() model.LedgerReport {
	contractID := uuid.New()
	return model.LedgerReport{
		OfficeName:          "Dinas Pekerjaan Umum",
		OwnerEmail:          "bendahara@example.go.id",
		GeneratedAt:         time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		TotalValue:          1_000_000,
		TotalRealization:    300_000,
		TotalRemainingValue: 700_000,
		Contracts: []model.Contract{{
			ID:             contractID,
			ContractNumber: "027/SPK/2024",
			ContractDate:   time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
			Description:    "Pengadaan perangkat jaringan",
			Implementer:    "CV Maju Jaya",
			Value:          1_000_000,
			Realization:    300_000,
			RemainingValue: 700_000,
			Bills: []model.Bill{{
				ID:          uuid.New(),
				ContractID:  contractID,
				Amount:      300_000,
				BillDate:    time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
				Description: "Pembayaran termin pertama",
				Status:      model.BillStatusDownPayment,
			}},
		}},
	}
}

func TestGenerateWorkbook(t *testing.T) {
	generator := NewGenerator()

	content, err := generator.Generate(sampleReport())
	require.NoError(t, err)
	require.NotEmpty(t, content)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	sheets := file.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Ringkasan", sheets[0])
	assert.Equal(t, "027-SPK-2024", sheets[1])

	office, err := file.GetCellValue("Ringkasan", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Dinas Pekerjaan Umum", office)

	number, err := file.GetCellValue("Ringkasan", "A10")
	require.NoError(t, err)
	assert.Equal(t, "027/SPK/2024", number)

	status, err := file.GetCellValue("027-SPK-2024", "C10")
	require.NoError(t, err)
	assert.Equal(t, "Uang Muka (DP)", status)
}

func TestSheetNameCollisions(t *testing.T) {
	used := map[string]struct{}{}

	first := buildSheetName("027/SPK/2024", uuid.New(), used)
	used[first] = struct{}{}
	second := buildSheetName("027/SPK/2024", uuid.New(), used)

	assert.Equal(t, "027-SPK-2024", first)
	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, len(second), 31)
}

func TestSheetNameMultiByteTruncation(t *testing.T) {
	long := strings.Repeat("Ж", 40)

	used := map[string]struct{}{}
	first := buildSheetName(long, uuid.New(), used)
	assert.True(t, utf8.ValidString(first))
	assert.Equal(t, 31, utf8.RuneCountInString(first))

	used[first] = struct{}{}
	second := buildSheetName(long, uuid.New(), used)
	assert.True(t, utf8.ValidString(second))
	assert.LessOrEqual(t, utf8.RuneCountInString(second), 31)
	assert.NotEqual(t, first, second)
}

func TestSheetNameEmptyNumber(t *testing.T) {
	id := uuid.New()
	name := buildSheetName("   ", id, map[string]struct{}{})
	assert.Equal(t, id.String()[:8], name)
}
