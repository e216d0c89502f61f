package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	activityStore "github.com/NanayasWorkshop/MakerManager/internal/activity/store"
	"github.com/NanayasWorkshop/MakerManager/internal/config"
	"github.com/NanayasWorkshop/MakerManager/internal/database"
	makerHttp "github.com/NanayasWorkshop/MakerManager/internal/http"
	jobHandler "github.com/NanayasWorkshop/MakerManager/internal/http/job"
	machineHandler "github.com/NanayasWorkshop/MakerManager/internal/http/machine"
	materialHandler "github.com/NanayasWorkshop/MakerManager/internal/http/material"
	scanHandler "github.com/NanayasWorkshop/MakerManager/internal/http/scan"
	sessionHandler "github.com/NanayasWorkshop/MakerManager/internal/http/session"
	timeHandler "github.com/NanayasWorkshop/MakerManager/internal/http/timetrack"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/idgen"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	jobStore "github.com/NanayasWorkshop/MakerManager/internal/job/store"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	ledgerStore "github.com/NanayasWorkshop/MakerManager/internal/ledger/store"
	"github.com/NanayasWorkshop/MakerManager/internal/logger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	machineStore "github.com/NanayasWorkshop/MakerManager/internal/machine/store"
	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
	"github.com/NanayasWorkshop/MakerManager/internal/qr"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
	scanStore "github.com/NanayasWorkshop/MakerManager/internal/scan/store"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	sessionStore "github.com/NanayasWorkshop/MakerManager/internal/session/store"
	"github.com/NanayasWorkshop/MakerManager/internal/stocktake"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
	timeStore "github.com/NanayasWorkshop/MakerManager/internal/timetrack/store"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for the given username and exit")
	fullName := flag.String("name", "", "full name embedded in an issued token")
	ttl := flag.Duration("ttl", 12*time.Hour, "lifetime of an issued token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger.New(cfg.App.Env))

	auth := identity.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer)

	if *issueFor != "" {
		token, err := auth.Issue(identity.User{Username: *issueFor, FullName: *fullName}, *ttl)
		if err != nil {
			slog.Error("failed to issue token", "error", err)
			os.Exit(1)
		}

		fmt.Println(token)

		return
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		m = metrics.New(reg)
		metricsHandler = metrics.Handler(reg)
	}

	var (
		ids              = idgen.New(db)
		jobService       = job.NewService(jobStore.New(db), ids)
		activityService  = activity.NewService(activityStore.New(db))
		timeService      = timetrack.NewService(timeStore.New(db))
		sessionService   = session.NewService(sessionStore.New(db), jobService, timeService, activityService)
		ledgerService    = ledger.NewService(ledgerStore.New(db), ids, m)
		machineService   = machine.NewService(machineStore.New(db), ids, m)
		scanService      = scan.NewService(scanStore.New(db), m)
		stocktakeService = stocktake.NewService(ledgerService)
		renderer         = qr.NewRenderer(cfg.Scan.BaseURL)
	)

	handlers := makerHttp.Handlers{
		Session:   sessionHandler.NewHandler(sessionService, timeService, ledgerService, machineService),
		Jobs:      jobHandler.NewHandler(jobService, activityService, ledgerService, timeService, renderer),
		Materials: materialHandler.NewHandler(ledgerService, sessionService, stocktakeService, renderer),
		Machines:  machineHandler.NewHandler(machineService, sessionService, renderer),
		Time:      timeHandler.NewHandler(timeService, sessionService),
		Scan:      scanHandler.NewHandler(scanService),
	}

	router := makerHttp.New(handlers, makerHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth:           auth,
		Metrics:        m,
		MetricsHandler: metricsHandler,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "port", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
