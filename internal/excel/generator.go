package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/wprasetia/kontrak-ledger/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.LedgerReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Ringkasan"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, contract := range report.Contracts {
		sheetName := buildSheetName(contract.ContractNumber, contract.ID, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeContract(file, sheetName, contract); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.LedgerReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Instansi")
	set("B1", report.OfficeName)
	set("A2", "Pengguna")
	set("B2", report.OwnerEmail)
	set("A3", "Tanggal laporan")
	set("B3", formatDate(report.GeneratedAt))
	set("A4", "Jumlah kontrak")
	set("B4", len(report.Contracts))
	set("A5", "Total nilai")
	set("B5", report.TotalValue)
	set("A6", "Total realisasi")
	set("B6", report.TotalRealization)
	set("A7", "Total sisa nilai")
	set("B7", report.TotalRemainingValue)

	tableRow := 9
	headers := []string{
		"Nomor Kontrak",
		"Tanggal Kontrak",
		"Uraian",
		"Pelaksana",
		"Nilai",
		"Realisasi",
		"Sisa Nilai",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, contract := range report.Contracts {
		row := tableRow + 1 + i
		values := []interface{}{
			contract.ContractNumber,
			formatDate(contract.ContractDate),
			contract.Description,
			contract.Implementer,
			contract.Value,
			contract.Realization,
			contract.RemainingValue,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 28)
	_ = file.SetColWidth(sheet, "B", "B", 16)
	_ = file.SetColWidth(sheet, "C", "D", 32)
	_ = file.SetColWidth(sheet, "E", "G", 18)
	return nil
}

func (g *Generator) writeContract(file *excelize.File, sheet string, contract model.Contract) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Nomor Kontrak")
	set("B1", contract.ContractNumber)
	set("A2", "Tanggal Kontrak")
	set("B2", formatDate(contract.ContractDate))
	set("A3", "Uraian")
	set("B3", contract.Description)
	set("A4", "Pelaksana")
	set("B4", contract.Implementer)
	set("A5", "Nilai")
	set("B5", contract.Value)
	set("A6", "Realisasi")
	set("B6", contract.Realization)
	set("A7", "Sisa Nilai")
	set("B7", contract.RemainingValue)

	row := 9
	if len(contract.Addenda) > 0 {
		set(fmt.Sprintf("A%d", row), "Addendum")
		set(fmt.Sprintf("B%d", row), "Tanggal")
		row++
		for _, addendum := range contract.Addenda {
			set(fmt.Sprintf("A%d", row), addendum.Number)
			set(fmt.Sprintf("B%d", row), formatDate(addendum.Date))
			row++
		}
		row++
	}

	headers := []string{"Tanggal", "Uraian Tagihan", "Status", "Jumlah"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		set(cell, header)
	}
	row++

	for _, bill := range contract.Bills {
		values := []interface{}{
			formatDate(bill.BillDate),
			bill.Description,
			statusLabel(bill.Status),
			bill.Amount,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, value)
		}
		row++
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "C", "D", 20)
	return nil
}

func buildSheetName(contractNumber string, id uuid.UUID, used map[string]struct{}) string {
	name := sanitizeSheetName(contractNumber)
	if name == "" {
		name = id.String()[:8]
	}
	// excelize rejects sheet names over 31 chars; count runes so a multi-byte
	// boundary is never split
	name = truncateRunes(name, 31)
	if _, exists := used[name]; !exists {
		return name
	}
	suffix := id.String()[:8]
	base := truncateRunes(name, 31-len(suffix)-1)
	return base + "-" + suffix
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func sanitizeSheetName(input string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "?", "-", "*", "-", "[", "-", "]", "-", ":", "-")
	return strings.TrimSpace(replacer.Replace(input))
}

func statusLabel(status model.BillStatus) string {
	switch status {
	case model.BillStatusDownPayment:
		return "Uang Muka (DP)"
	case model.BillStatusInstallment:
		return "Termin"
	case model.BillStatusFinalInstallment:
		return "Termin Terakhir"
	default:
		return string(status)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02-01-2006")
}
