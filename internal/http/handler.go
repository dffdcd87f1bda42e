package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wprasetia/kontrak-ledger/internal/http/middleware"
	"github.com/wprasetia/kontrak-ledger/internal/model"
	"github.com/wprasetia/kontrak-ledger/internal/service"
)

type Handler struct {
	ledger  *service.LedgerService
	reports *service.ReportService
	log     zerolog.Logger
}

func NewHandler(ledger *service.LedgerService, reports *service.ReportService, log zerolog.Logger) *Handler {
	return &Handler{ledger: ledger, reports: reports, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/contracts", h.addContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/summary", h.summary)
	protected.GET("/contracts/export", h.exportLedger)
	protected.GET("/contracts/export/csv", h.exportLedgerCSV)
	protected.GET("/contracts/:id", h.getContract)
	protected.PATCH("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)
	protected.GET("/contracts/:id/statement", h.contractStatement)
	protected.POST("/contracts/:id/bills", h.addBill)
	protected.PUT("/contracts/:id/bills/:billId", h.updateBill)
	protected.DELETE("/contracts/:id/bills/:billId", h.deleteBill)
}

type addendumPayload struct {
	Number string `json:"number" binding:"required"`
	Date   string `json:"date" binding:"required"`
}

type addContractRequest struct {
	ContractNumber string            `json:"contract_number" binding:"required"`
	ContractDate   string            `json:"contract_date" binding:"required"`
	Description    string            `json:"description" binding:"required"`
	Implementer    string            `json:"implementer" binding:"required"`
	Value          float64           `json:"value"`
	Addenda        []addendumPayload `json:"addenda"`
}

type updateContractRequest struct {
	ContractNumber *string            `json:"contract_number"`
	ContractDate   *string            `json:"contract_date"`
	Description    *string            `json:"description"`
	Implementer    *string            `json:"implementer"`
	Value          *float64           `json:"value"`
	Addenda        *[]addendumPayload `json:"addenda"`
}

type billRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	BillDate    string  `json:"bill_date" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Status      string  `json:"status" binding:"required"`
}

type addendumResponse struct {
	Number string `json:"number"`
	Date   string `json:"date"`
}

type billResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	BillDate    string  `json:"bill_date"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
}

type contractResponse struct {
	ID             string             `json:"id"`
	ContractNumber string             `json:"contract_number"`
	ContractDate   string             `json:"contract_date"`
	Description    string             `json:"description"`
	Implementer    string             `json:"implementer"`
	Value          float64            `json:"value"`
	Realization    float64            `json:"realization"`
	RemainingValue float64            `json:"remaining_value"`
	Addenda        []addendumResponse `json:"addenda"`
	Bills          []billResponse     `json:"bills"`
}

func (h *Handler) addContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req addContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := toAddContractInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.ledger.AddContract(c.Request.Context(), principal.UserID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContractResponse(*contract))
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contracts, err := h.ledger.ListContracts(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	responses := make([]contractResponse, 0, len(contracts))
	for _, contract := range contracts {
		responses = append(responses, toContractResponse(contract))
	}
	c.JSON(http.StatusOK, gin.H{"contracts": responses})
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.ledger.GetContract(c.Request.Context(), principal.UserID, contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) updateContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := toUpdateContractInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.ledger.UpdateContract(c.Request.Context(), principal.UserID, contractID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) deleteContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	if err := h.ledger.DeleteContract(c.Request.Context(), principal.UserID, contractID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addBill(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := toBillInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.ledger.AddBill(c.Request.Context(), principal.UserID, contractID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContractResponse(*contract))
}

func (h *Handler) updateBill(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	billID, err := uuid.Parse(c.Param("billId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bill id"})
		return
	}

	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := toBillInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.ledger.UpdateBill(c.Request.Context(), principal.UserID, contractID, billID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) deleteBill(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	billID, err := uuid.Parse(c.Param("billId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bill id"})
		return
	}

	contract, err := h.ledger.DeleteBill(c.Request.Context(), principal.UserID, contractID, billID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) summary(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	summary, err := h.ledger.Summary(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contract_count":        summary.ContractCount,
		"total_value":           summary.TotalValue,
		"total_realization":     summary.TotalRealization,
		"total_remaining_value": summary.TotalRemainingValue,
	})
}

func (h *Handler) exportLedger(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.reports.ExportLedger(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) exportLedgerCSV(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.reports.ExportLedgerCSV(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "text/csv", result.Content)
}

func (h *Handler) contractStatement(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	result, err := h.reports.ContractStatement(c.Request.Context(), principal, contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toAddContractInput(req addContractRequest) (service.AddContractInput, error) {
	contractDate, err := parseDate(req.ContractDate)
	if err != nil {
		return service.AddContractInput{}, err
	}
	addenda, err := toAddendumInputs(req.Addenda)
	if err != nil {
		return service.AddContractInput{}, err
	}
	return service.AddContractInput{
		ContractNumber: req.ContractNumber,
		ContractDate:   contractDate,
		Description:    req.Description,
		Implementer:    req.Implementer,
		Value:          req.Value,
		Addenda:        addenda,
	}, nil
}

func toUpdateContractInput(req updateContractRequest) (service.UpdateContractInput, error) {
	input := service.UpdateContractInput{
		ContractNumber: req.ContractNumber,
		Description:    req.Description,
		Implementer:    req.Implementer,
		Value:          req.Value,
	}
	if req.ContractDate != nil {
		contractDate, err := parseDate(*req.ContractDate)
		if err != nil {
			return service.UpdateContractInput{}, err
		}
		input.ContractDate = &contractDate
	}
	if req.Addenda != nil {
		addenda, err := toAddendumInputs(*req.Addenda)
		if err != nil {
			return service.UpdateContractInput{}, err
		}
		input.Addenda = &addenda
	}
	return input, nil
}

func toBillInput(req billRequest) (service.BillInput, error) {
	billDate, err := parseDate(req.BillDate)
	if err != nil {
		return service.BillInput{}, err
	}
	return service.BillInput{
		Amount:      req.Amount,
		BillDate:    billDate,
		Description: req.Description,
		Status:      model.BillStatus(strings.TrimSpace(req.Status)),
	}, nil
}

func toAddendumInputs(payloads []addendumPayload) ([]service.AddendumInput, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	addenda := make([]service.AddendumInput, 0, len(payloads))
	for _, p := range payloads {
		date, err := parseDate(p.Date)
		if err != nil {
			return nil, err
		}
		addenda = append(addenda, service.AddendumInput{Number: p.Number, Date: date})
	}
	return addenda, nil
}

func toContractResponse(contract model.Contract) contractResponse {
	addenda := make([]addendumResponse, 0, len(contract.Addenda))
	for _, a := range contract.Addenda {
		addenda = append(addenda, addendumResponse{
			Number: a.Number,
			Date:   a.Date.Format("2006-01-02"),
		})
	}
	bills := make([]billResponse, 0, len(contract.Bills))
	for _, b := range contract.Bills {
		bills = append(bills, billResponse{
			ID:          b.ID.String(),
			Amount:      b.Amount,
			BillDate:    b.BillDate.Format("2006-01-02"),
			Description: b.Description,
			Status:      string(b.Status),
		})
	}
	return contractResponse{
		ID:             contract.ID.String(),
		ContractNumber: contract.ContractNumber,
		ContractDate:   contract.ContractDate.Format("2006-01-02"),
		Description:    contract.Description,
		Implementer:    contract.Implementer,
		Value:          contract.Value,
		Realization:    contract.Realization,
		RemainingValue: contract.RemainingValue,
		Addenda:        addenda,
		Bills:          bills,
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
