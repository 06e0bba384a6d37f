package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
	"github.com/byggkontor/timesheet/internal/export"
	"github.com/byggkontor/timesheet/internal/service"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService   service.ApprovalService
	settlementService service.SettlementService
	payrollService    service.PayrollService
	invoiceRepo       service.InvoiceRepository
	excelExporter     *export.ExcelExporter
	bankWriter        *export.BankFileWriter
	logger            *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	approvalService service.ApprovalService,
	settlementService service.SettlementService,
	payrollService service.PayrollService,
	invoiceRepo service.InvoiceRepository,
	excelExporter *export.ExcelExporter,
	bankWriter *export.BankFileWriter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		approvalService:   approvalService,
		settlementService: settlementService,
		payrollService:    payrollService,
		invoiceRepo:       invoiceRepo,
		excelExporter:     excelExporter,
		bankWriter:        bankWriter,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateEntryRequest is the submission-path body. Approval and billing
// fields do not exist here; a client cannot submit an approved entry.
type CreateEntryRequest struct {
	EmployeeID   int64   `json:"employee_id" binding:"required"`
	ProjectID    int64   `json:"project_id" binding:"required"`
	WorkDate     string  `json:"work_date" binding:"required"`
	StartTime    *string `json:"start_time,omitempty"` // HH:MM
	EndTime      *string `json:"end_time,omitempty"`   // HH:MM
	BreakMinutes int     `json:"break_minutes"`
	Hours        *string `json:"hours,omitempty"`
	Note         string  `json:"note"`
}

// CreateEntry handles POST /api/tenants/:tenantID/entries
func (h *Handlers) CreateEntry(c *gin.Context) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	workDate, err := time.Parse(dateLayout, req.WorkDate)
	if err != nil {
		h.badRequest(c, "work_date must be YYYY-MM-DD")
		return
	}

	svcReq := service.CreateEntryRequest{
		EmployeeID:   req.EmployeeID,
		ProjectID:    req.ProjectID,
		WorkDate:     workDate,
		BreakMinutes: req.BreakMinutes,
		Note:         req.Note,
	}

	if svcReq.StartTime, err = clockOn(workDate, req.StartTime); err != nil {
		h.badRequest(c, "start_time must be HH:MM")
		return
	}
	if svcReq.EndTime, err = clockOn(workDate, req.EndTime); err != nil {
		h.badRequest(c, "end_time must be HH:MM")
		return
	}
	if req.Hours != nil {
		hours, err := decimal.NewFromString(*req.Hours)
		if err != nil {
			h.badRequest(c, "hours must be a decimal number")
			return
		}
		svcReq.Hours = &hours
	}

	entry, err := h.approvalService.CreateEntry(c.Request.Context(), tenantID, svcReq)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: entry})
}

// ApproveOne handles POST /api/tenants/:tenantID/entries/:entryID/approve
func (h *Handlers) ApproveOne(c *gin.Context) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return
	}
	entryID, ok := h.pathID(c, "entryID")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.approvalService.ApproveOne(c.Request.Context(), tenantID, entryID, actorID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"entry_id": entryID}})
}

// ApproveAllRequest optionally restricts a bulk approval to a date range.
type ApproveAllRequest struct {
	From *string `json:"from,omitempty"`
	To   *string `json:"to,omitempty"`
}

// ApproveAll handles POST /api/tenants/:tenantID/approvals
func (h *Handlers) ApproveAll(c *gin.Context) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	// An empty body means "every pending entry for the tenant".
	var req ApproveAllRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "invalid request body")
		return
	}

	rng, err := parseRange(req.From, req.To)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	result, err := h.approvalService.ApproveAll(c.Request.Context(), tenantID, actorID, rng)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// CreateInvoice handles POST /api/tenants/:tenantID/projects/:projectID/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "projectID")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	invoice, err := h.settlementService.CreateInvoice(c.Request.Context(), tenantID, projectID, actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: invoice})
}

// Settle handles POST /api/tenants/:tenantID/projects/:projectID/invoices/:invoiceID/settle
func (h *Handlers) Settle(c *gin.Context) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "projectID")
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "invoiceID")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.settlementService.Settle(c.Request.Context(), tenantID, projectID, invoiceID, actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ExportInvoice handles GET /api/tenants/:tenantID/invoices/:invoiceID/export
func (h *Handlers) ExportInvoice(c *gin.Context) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "invoiceID")
	if !ok {
		return
	}

	invoice, err := h.invoiceRepo.GetByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	lines, err := h.invoiceRepo.ListLines(c.Request.Context(), invoiceID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	path, err := h.excelExporter.WriteInvoice(invoice, lines)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}

// PayrollRequest selects the employees, range and estimate toggles.
type PayrollRequest struct {
	EmployeeIDs     []int64  `json:"employee_ids"`
	From            string   `json:"from" binding:"required"`
	To              string   `json:"to" binding:"required"`
	Classifications []string `json:"classifications,omitempty"`

	IncludeVacationPay  bool    `json:"include_vacation_pay"`
	IncludeSickPay      bool    `json:"include_sick_pay"`
	IncludeTaxDeduction bool    `json:"include_tax_deduction"`
	IncludeUnionFee     bool    `json:"include_union_fee"`
	IncludeBonus        bool    `json:"include_bonus"`
	BonusAmount         *string `json:"bonus_amount,omitempty"`
}

func (h *Handlers) aggregate(c *gin.Context) (map[int64]*entity.PayrollPeriod, bool) {
	tenantID, ok := h.pathID(c, "tenantID")
	if !ok {
		return nil, false
	}

	var req PayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return nil, false
	}

	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		h.badRequest(c, "from must be YYYY-MM-DD")
		return nil, false
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		h.badRequest(c, "to must be YYYY-MM-DD")
		return nil, false
	}

	opts := entity.PayrollOptions{
		IncludeVacationPay:  req.IncludeVacationPay,
		IncludeSickPay:      req.IncludeSickPay,
		IncludeTaxDeduction: req.IncludeTaxDeduction,
		IncludeUnionFee:     req.IncludeUnionFee,
		IncludeBonus:        req.IncludeBonus,
	}
	for _, cl := range req.Classifications {
		classification := entity.Classification(cl)
		if !classification.IsValid() {
			h.badRequest(c, "unknown classification: "+cl)
			return nil, false
		}
		opts.Classifications = append(opts.Classifications, classification)
	}
	if req.BonusAmount != nil {
		bonus, err := decimal.NewFromString(*req.BonusAmount)
		if err != nil {
			h.badRequest(c, "bonus_amount must be a decimal number")
			return nil, false
		}
		opts.BonusAmount = bonus
	}

	periods, err := h.payrollService.Aggregate(c.Request.Context(), tenantID, req.EmployeeIDs,
		entity.DateRange{From: from, To: to}, opts)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return periods, true
}

// AggregatePayroll handles POST /api/tenants/:tenantID/payroll
func (h *Handlers) AggregatePayroll(c *gin.Context) {
	periods, ok := h.aggregate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: periods})
}

// ExportPayroll handles POST /api/tenants/:tenantID/payroll/export
func (h *Handlers) ExportPayroll(c *gin.Context) {
	periods, ok := h.aggregate(c)
	if !ok {
		return
	}

	path, err := h.excelExporter.WritePayroll(periods)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}

// ExportBankFile handles POST /api/tenants/:tenantID/payroll/bankfile
func (h *Handlers) ExportBankFile(c *gin.Context) {
	periods, ok := h.aggregate(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="payments.csv"`)
	c.Status(http.StatusOK)

	if err := h.bankWriter.Write(c.Writer, periods); err != nil {
		h.logger.Error("Failed to stream bank file", zap.Error(err))
	}
}

func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// actor reads the authenticated actor from the X-Actor-ID header. Session
// handling lives upstream; by the time a request reaches the engine the
// actor is already resolved.
func (h *Handlers) actor(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-Actor-ID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing or invalid X-Actor-ID header"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func (h *Handlers) handleError(c *gin.Context, err error) {
	var partial *engine.PartialSettlementError
	switch {
	case errors.Is(err, engine.ErrForbidden):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, engine.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.As(err, &partial):
		// The invoice ID goes back so the caller can resume the run.
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   partial.Error(),
			Data:    gin.H{"invoice_id": partial.InvoiceID},
		})
	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func clockOn(date time.Time, hhmm *string) (*time.Time, error) {
	if hhmm == nil || *hhmm == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", *hhmm)
	if err != nil {
		return nil, err
	}
	at := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	return &at, nil
}

func parseRange(from, to *string) (*entity.DateRange, error) {
	if from == nil && to == nil {
		return nil, nil
	}
	if from == nil || to == nil {
		return nil, errors.New("from and to must be supplied together")
	}
	f, err := time.Parse(dateLayout, *from)
	if err != nil {
		return nil, errors.New("from must be YYYY-MM-DD")
	}
	t, err := time.Parse(dateLayout, *to)
	if err != nil {
		return nil, errors.New("to must be YYYY-MM-DD")
	}
	return &entity.DateRange{From: f, To: t}, nil
}
