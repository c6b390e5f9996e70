package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nurpe/rms-service-orders/internal/auth"
	"github.com/nurpe/rms-service-orders/internal/blob"
	"github.com/nurpe/rms-service-orders/internal/config"
	"github.com/nurpe/rms-service-orders/internal/db"
	"github.com/nurpe/rms-service-orders/internal/excel"
	httphandler "github.com/nurpe/rms-service-orders/internal/http"
	"github.com/nurpe/rms-service-orders/internal/http/middleware"
	"github.com/nurpe/rms-service-orders/internal/logger"
	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/notify"
	"github.com/nurpe/rms-service-orders/internal/pdf"
	"github.com/nurpe/rms-service-orders/internal/repository"
	"github.com/nurpe/rms-service-orders/internal/scheduler"
	"github.com/nurpe/rms-service-orders/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.New(database)
	renderer := pdf.NewGenerator()
	company := model.Company{
		Name:     cfg.Company.Name,
		Document: cfg.Company.Document,
		Address:  cfg.Company.Address,
		Phone:    cfg.Company.Phone,
	}

	var store service.BlobStore
	if cfg.Storage.Enabled() {
		s3Store, err := blob.NewS3Store(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init document storage")
		}
		store = s3Store
	} else {
		log.Warn().Msg("document storage disabled, budgets cannot be sent")
	}

	var sender service.MessageSender
	if cfg.Twilio.Enabled() {
		sender = notify.NewSender(cfg.Twilio, log)
	}

	invoices := service.NewInvoiceService(repo, renderer, store, company, log)
	budgets := service.NewBudgetService(repo, renderer, store, sender, company, cfg, log)

	handler := httphandler.NewHandler(httphandler.Services{
		Clients:   service.NewClientService(repo, log),
		Orders:    service.NewOrderService(repo, cfg, log),
		Tasks:     service.NewTaskService(repo, log),
		Timers:    service.NewTimerService(repo, log),
		Invoices:  invoices,
		Budgets:   budgets,
		Inventory: service.NewInventoryService(repo, log),
		Reports:   service.NewReportService(repo, excel.NewGenerator(), log),
	}, log)

	jobs, err := scheduler.New(cfg.Scheduler, budgets, invoices, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init scheduler")
	}
	jobs.Start()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting service orders api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	jobs.Stop(shutdownCtx)

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
