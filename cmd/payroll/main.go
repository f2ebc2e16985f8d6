package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"payroll/internal/amqp"
	"payroll/internal/cli"
	apphttp "payroll/internal/http"
	applog "payroll/internal/log"
	"payroll/internal/roster"
	"payroll/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store := cli.OpenBackend(ctx, logger, cfg)

	// events are optional; a nil publisher keeps the services broker-free
	var (
		events     services.EventPublisher
		reports    apphttp.ReportRequester
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		amqpClient = c
		events, reports = c, c
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, report export endpoint unavailable")
	}

	attendance := services.NewAttendanceService(store.Store, events)
	transactions := services.NewTransactionService(store.Store, events)
	payroll := services.NewPayrollService(store.Store, attendance, transactions, cfg.ReportConcurrency)

	employees := roster.NewManager(store.Store)
	if err := employees.Refresh(ctx); err != nil {
		// the roster stays empty until POST /api/employees/refresh succeeds
		logger.Error("Initial roster load failed", applog.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Roster:       employees,
		Attendance:   attendance,
		Transactions: transactions,
		Payroll:      payroll,
		Reports:      reports,
		Ready:        store.Ping,
		Logger:       logger,
	}, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute})

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting payroll server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
