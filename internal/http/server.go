// Package http is the HTTP adapter over the engine services. It is a thin
// translation layer: tenant and actor resolution happen here, business
// rules do not.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/export"
	"github.com/byggkontor/timesheet/internal/service"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config            ServerConfig
	httpServer        *http.Server
	router            *gin.Engine
	approvalService   service.ApprovalService
	settlementService service.SettlementService
	payrollService    service.PayrollService
	invoiceRepo       service.InvoiceRepository
	excelExporter     *export.ExcelExporter
	bankWriter        *export.BankFileWriter
	logger            *zap.Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	approvalService service.ApprovalService,
	settlementService service.SettlementService,
	payrollService service.PayrollService,
	invoiceRepo service.InvoiceRepository,
	excelExporter *export.ExcelExporter,
	bankWriter *export.BankFileWriter,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:            config,
		router:            gin.New(),
		approvalService:   approvalService,
		settlementService: settlementService,
		payrollService:    payrollService,
		invoiceRepo:       invoiceRepo,
		excelExporter:     excelExporter,
		bankWriter:        bankWriter,
		logger:            logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", time.Since(start).String()),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(
		s.approvalService,
		s.settlementService,
		s.payrollService,
		s.invoiceRepo,
		s.excelExporter,
		s.bankWriter,
		s.logger,
	)

	s.router.GET("/health", handlers.HealthCheck)

	// Every route is tenant-scoped; the engine never discovers a tenant
	// from ambient context.
	tenant := s.router.Group("/api/tenants/:tenantID")
	{
		tenant.POST("/entries", handlers.CreateEntry)
		tenant.POST("/entries/:entryID/approve", handlers.ApproveOne)
		tenant.POST("/approvals", handlers.ApproveAll)
		tenant.POST("/projects/:projectID/invoices", handlers.CreateInvoice)
		tenant.POST("/projects/:projectID/invoices/:invoiceID/settle", handlers.Settle)
		tenant.GET("/invoices/:invoiceID/export", handlers.ExportInvoice)
		tenant.POST("/payroll", handlers.AggregatePayroll)
		tenant.POST("/payroll/export", handlers.ExportPayroll)
		tenant.POST("/payroll/bankfile", handlers.ExportBankFile)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
