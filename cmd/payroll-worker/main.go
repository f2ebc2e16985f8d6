package main

import (
	"context"
	"errors"
	"os"

	"payroll/internal/amqp"
	"payroll/internal/cli"
	applog "payroll/internal/log"
	"payroll/internal/scheduler"
	"payroll/internal/services"
	"payroll/internal/sheets"
	gsheet "payroll/internal/sheets/google"
	memsheet "payroll/internal/sheets/memory"
	"payroll/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting payroll-worker")

	ctx := context.Background()
	store := cli.OpenBackend(ctx, logger, cfg)

	attendance := services.NewAttendanceService(store.Store, nil)
	transactions := services.NewTransactionService(store.Store, nil)
	payroll := services.NewPayrollService(store.Store, attendance, transactions, cfg.ReportConcurrency)

	var writer sheets.ReportWriter
	if cfg.SheetsEnabled() {
		w, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetPrefix:     cfg.GoogleReportSheetPrefix,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets writer", applog.FieldError, err)
			os.Exit(1)
		}
		writer = w
		logger.Info("Google Sheets writer initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memsheet.New(cfg.GoogleReportSheetPrefix)
		logger.Info("Google Sheets disabled - reports are kept in memory only")
	}

	reportWorker := worker.NewReportWorker(payroll, writer)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		amqpClient = c
	} else {
		logger.Info("AMQP disabled - only scheduled exports will run")
	}

	var sched *scheduler.Scheduler
	if cfg.ReportCronSchedule != "" {
		sched = scheduler.NewScheduler(cfg.ReportCronSchedule, reportWorker)
		if err := sched.Start(); err != nil {
			logger.Error("Failed to start report scheduler", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Next scheduled export", "at", sched.Next())
	}

	if amqpClient == nil && sched == nil {
		logger.Error("Nothing to do: configure AMQP_URL or REPORT_CRON_SCHEDULE")
		os.Exit(1)
	}

	runCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if sched != nil {
			select {
			case <-sched.Stop().Done():
			case <-ctx.Done():
				logger.Warn("Scheduled export still running at shutdown")
			}
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

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeReportRequests(runCtx, reportWorker.HandleReportRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Report request consumption failed", applog.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped")
}
