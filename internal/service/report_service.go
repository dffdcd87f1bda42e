package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wprasetia/kontrak-ledger/internal/config"
	"github.com/wprasetia/kontrak-ledger/internal/model"
)

type ExcelGenerator interface {
	Generate(report model.LedgerReport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(statement model.ContractStatement) ([]byte, error)
}

// ReportService renders read-only exports of the ledger. It never mutates
// state; a failed export leaves the ledger untouched.
type ReportService struct {
	ledger *LedgerService
	excel  ExcelGenerator
	pdf    PDFGenerator
	cfg    *config.Config
}

func NewReportService(ledger *LedgerService, excel ExcelGenerator, pdf PDFGenerator, cfg *config.Config) *ReportService {
	return &ReportService{
		ledger: ledger,
		excel:  excel,
		pdf:    pdf,
		cfg:    cfg,
	}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ReportService) ExportLedger(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	report, err := s.buildReport(ctx, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName("kontrak", report.GeneratedAt, "xlsx"),
		Content:  content,
	}, nil
}

func (s *ReportService) ExportLedgerCSV(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	report, err := s.buildReport(ctx, principal)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{
		"Nomor Kontrak",
		"Tanggal Kontrak",
		"Uraian",
		"Pelaksana",
		"Nilai",
		"Realisasi",
		"Sisa Nilai",
		"Jumlah Tagihan",
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, contract := range report.Contracts {
		record := []string{
			contract.ContractNumber,
			contract.ContractDate.Format("2006-01-02"),
			contract.Description,
			contract.Implementer,
			formatAmount(contract.Value),
			formatAmount(contract.Realization),
			formatAmount(contract.RemainingValue),
			strconv.Itoa(len(contract.Bills)),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: buildFileName("kontrak", report.GeneratedAt, "csv"),
		Content:  buf.Bytes(),
	}, nil
}

func (s *ReportService) ContractStatement(ctx context.Context, principal model.Principal, contractID uuid.UUID) (*ExportResult, error) {
	contract, err := s.ledger.GetContract(ctx, principal.UserID, contractID)
	if err != nil {
		return nil, err
	}

	statement := model.ContractStatement{
		OfficeName:  s.cfg.Report.OfficeName,
		GeneratedAt: time.Now().UTC(),
		Contract:    *contract,
	}
	content, err := s.pdf.Generate(statement)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(contract.ContractNumber)
	if name == "" {
		name = contract.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("kontrak-%s.pdf", name),
		Content:  content,
	}, nil
}

func (s *ReportService) buildReport(ctx context.Context, principal model.Principal) (*model.LedgerReport, error) {
	contracts, err := s.ledger.ListContracts(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	report := &model.LedgerReport{
		OfficeName:  s.cfg.Report.OfficeName,
		OwnerEmail:  principal.Email,
		GeneratedAt: time.Now().UTC(),
		Contracts:   contracts,
	}
	for _, c := range contracts {
		report.TotalValue += c.Value
		report.TotalRealization += c.Realization
		report.TotalRemainingValue += c.RemainingValue
	}
	return report, nil
}

func buildFileName(prefix string, at time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, at.Format("20060102"), ext)
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
