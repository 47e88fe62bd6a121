package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	householdhandler "wardbook/internal/household/handler"
	householdmetrics "wardbook/internal/household/metrics"
	householdservice "wardbook/internal/household/service"
	hhstore "wardbook/internal/household/store"
	householdstore "wardbook/internal/household/store/household"
	residentstore "wardbook/internal/household/store/resident"
	"wardbook/internal/jwt"
	ledgerhandler "wardbook/internal/ledger/handler"
	ledgermetrics "wardbook/internal/ledger/metrics"
	ledgerservice "wardbook/internal/ledger/service"
	ledstore "wardbook/internal/ledger/store"
	feerecordstore "wardbook/internal/ledger/store/feerecord"
	feetypestore "wardbook/internal/ledger/store/feetype"
	lifecyclehandler "wardbook/internal/lifecycle/handler"
	lifecyclemetrics "wardbook/internal/lifecycle/metrics"
	lifecycleservice "wardbook/internal/lifecycle/service"
	lcstore "wardbook/internal/lifecycle/store"
	requeststore "wardbook/internal/lifecycle/store/request"
	"wardbook/internal/notify"
	"wardbook/internal/platform/config"
	"wardbook/internal/platform/httpserver"
	"wardbook/internal/platform/logger"
	platformmetrics "wardbook/internal/platform/metrics"
	platformpostgres "wardbook/internal/platform/postgres"
	platformredis "wardbook/internal/platform/redis"
	httptransport "wardbook/internal/transport/http"
)

// main wires configuration, stores, services, and the HTTP surface. Business
// logic lives in the internal service packages; this file only assembles
// them and owns the server lifecycle.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := platformpostgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var (
		households hhstore.HouseholdStore
		residents  hhstore.ResidentStore
		feeTypes   ledstore.FeeTypeStore
		feeRecords ledstore.FeeRecordStore
		requests   lcstore.ChangeRequestStore

		householdTx householdservice.StoreTx
		ledgerTx    ledgerservice.LedgerTx
		approvalTx  lifecycleservice.ApprovalTx
	)
	if db != nil {
		households = householdstore.NewPostgres(db)
		residents = residentstore.NewPostgres(db)
		feeTypes = feetypestore.NewPostgres(db)
		feeRecords = feerecordstore.NewPostgres(db)
		requests = requeststore.NewPostgres(db)
		householdTx = householdservice.NewPostgresTx(db)
		ledgerTx = ledgerservice.NewPostgresTx(db)
		approvalTx = lifecycleservice.NewPostgresTx(db)
		log.Info("using postgres stores")
	} else {
		households = householdstore.NewInMemory()
		residents = residentstore.NewInMemory()
		feeTypes = feetypestore.NewInMemory()
		feeRecords = feerecordstore.NewInMemory()
		requests = requeststore.NewInMemory()
		householdTx = householdservice.NewMemoryTx()
		ledgerTx = ledgerservice.NewMemoryTx()
		approvalTx = lifecycleservice.NewMemoryTx()
		log.Info("using in-memory stores")
	}

	var notifier notify.Notifier
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifier = notify.NewResilient(notify.NewRedisNotifier(redisClient, ""), notify.NewLogNotifier(log), log)
		log.Info("using redis notifier")
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	platMetrics := platformmetrics.New()

	householdSvc := householdservice.New(households, residents, householdTx,
		householdservice.WithLogger(log),
		householdservice.WithMetrics(householdmetrics.New()),
	)
	ledgerSvc := ledgerservice.New(feeTypes, feeRecords, households, residents, ledgerTx,
		ledgerservice.WithLogger(log),
		ledgerservice.WithMetrics(ledgermetrics.New()),
		ledgerservice.WithNotifier(notifier),
	)
	lifecycleSvc := lifecycleservice.New(requests, households, residents, approvalTx,
		lifecycleservice.WithLogger(log),
		lifecycleservice.WithMetrics(lifecyclemetrics.New()),
	)

	jwtService := jwt.NewService(cfg.JWTSigningKey, "wardbook")

	router := httptransport.NewRouter(httptransport.Deps{
		Households:     householdhandler.New(householdSvc, log),
		Ledger:         ledgerhandler.New(ledgerSvc, log),
		Lifecycle:      lifecyclehandler.New(lifecycleSvc, log),
		TokenValidator: jwtService,
		TokenIssuer:    jwtService,
		StaffTokenHash: cfg.StaffTokenHash,
		Logger:         log,
		Metrics:        platMetrics,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting wardbook", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
