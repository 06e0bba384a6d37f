package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/config"
	"github.com/byggkontor/timesheet/internal/export"
	httpserver "github.com/byggkontor/timesheet/internal/http"
	"github.com/byggkontor/timesheet/internal/repository"
	"github.com/byggkontor/timesheet/internal/service"
	"github.com/byggkontor/timesheet/pkg/database"
	"github.com/byggkontor/timesheet/pkg/utils"
)

func main() {
	// Local overrides; a missing .env is fine.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting timesheet settlement engine",
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create export directory", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Fail fast on a schema mismatch instead of degrading at runtime.
	if err := db.VerifySchema(); err != nil {
		logger.Fatal("Schema verification failed", zap.Error(err))
	}

	entryRepo := repository.NewTimeEntryRepository(db.DB, logger)
	employeeRepo := repository.NewEmployeeRepository(db.DB, logger)
	projectRepo := repository.NewProjectRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)

	approvalService := service.NewApprovalService(entryRepo, employeeRepo, projectRepo, logger)
	settlementService := service.NewSettlementService(
		entryRepo,
		projectRepo,
		invoiceRepo,
		employeeRepo,
		db,
		decimal.NewFromFloat(cfg.Billing.DefaultHourlyRate),
		logger,
	)
	payrollService := service.NewPayrollService(entryRepo, employeeRepo, service.PayrollRates{
		OvertimeThresholdHours: decimal.NewFromFloat(cfg.Payroll.OvertimeThresholdHours),
		VacationPayRate:        decimal.NewFromFloat(cfg.Payroll.VacationPayRate),
		SickPayRate:            decimal.NewFromFloat(cfg.Payroll.SickPayRate),
		TaxRate:                decimal.NewFromFloat(cfg.Payroll.TaxRate),
		UnionFeeRate:           decimal.NewFromFloat(cfg.Payroll.UnionFeeRate),
	}, logger)

	excelExporter := export.NewExcelExporter(cfg.Export.OutputDir, logger)
	bankWriter := export.NewBankFileWriter(logger)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		approvalService,
		settlementService,
		payrollService,
		invoiceRepo,
		excelExporter,
		bankWriter,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
