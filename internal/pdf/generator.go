package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/wprasetia/kontrak-ledger/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

func (g *Generator) Generate(statement model.ContractStatement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	contract := statement.Contract

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Laporan Kontrak dan Realisasi", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, statement.OfficeName, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Dicetak %s", formatDate(statement.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Data Kontrak", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	infoLines := []string{
		fmt.Sprintf("Nomor Kontrak: %s", contract.ContractNumber),
		fmt.Sprintf("Tanggal Kontrak: %s", formatDate(contract.ContractDate)),
		fmt.Sprintf("Uraian: %s", safeValue(contract.Description)),
		fmt.Sprintf("Pelaksana: %s", safeValue(contract.Implementer)),
	}
	for _, line := range infoLines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}

	if len(contract.Addenda) > 0 {
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Addendum", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 11)
		for _, addendum := range contract.Addenda {
			pdf.MultiCell(0, 5, fmt.Sprintf("%s (%s)", addendum.Number, formatDate(addendum.Date)), "", "L", false)
		}
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Tagihan", "", 1, "L", false, 0, "")

	headers := []string{"Tanggal", "Uraian", "Status", "Jumlah"}
	colWidths := []float64{28, 82, 40, 30}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, bill := range contract.Bills {
		row := []string{
			formatDate(bill.BillDate),
			bill.Description,
			statusLabel(bill.Status),
			formatAmount(bill.Amount),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}
	if len(contract.Bills) == 0 {
		drawTableRow(pdf, g.fontName, []string{"-", "Belum ada tagihan", "-", "-"}, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Nilai Kontrak: Rp %s", formatAmount(contract.Value)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Realisasi: Rp %s", formatAmount(contract.Realization)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Sisa Nilai: Rp %s", formatAmount(contract.RemainingValue)), "", 1, "R", false, 0, "")

	if contract.RemainingValue < 0 {
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, "Perhatian: realisasi melebihi nilai kontrak.", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
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

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02-01-2006")
}
