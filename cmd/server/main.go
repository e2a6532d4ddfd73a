package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/config"
	"github.com/mamadbah2/checksheet/internal/repository/mongodb"
	"github.com/mamadbah2/checksheet/internal/repository/sheets"
	"github.com/mamadbah2/checksheet/internal/scheduler"
	"github.com/mamadbah2/checksheet/internal/server/handlers"
	"github.com/mamadbah2/checksheet/internal/server/router"
	checksvc "github.com/mamadbah2/checksheet/internal/service/checks"
	"github.com/mamadbah2/checksheet/internal/service/completion"
	reportingsvc "github.com/mamadbah2/checksheet/internal/service/reporting"
	"github.com/mamadbah2/checksheet/internal/service/session"
	"github.com/mamadbah2/checksheet/pkg/clients/checksheets"
	"github.com/mamadbah2/checksheet/pkg/logger"
	"github.com/mamadbah2/checksheet/pkg/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store := checksheets.NewClient(cfg.CheckSheet)

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewSummarySheet(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to open summary spreadsheet", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, summary export disabled")
	}

	var (
		evaluations mongodb.Repository
		archive     completion.Archive
	)
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		evaluations, archive = mongoRepo, mongoRepo
	} else {
		baseLogger.Warn("mongodb not configured, evaluation archive disabled")
	}

	reportingSvc := reportingsvc.NewService(sheetsRepo, evaluations, baseLogger.Named("svc.reporting"))
	checkSvc := checksvc.NewService(store, store, cfg.Inspection.SaveDebounceWindow, baseLogger.Named("svc.checks"))
	evaluator := completion.NewEvaluator(store, archive, baseLogger.Named("svc.completion"))
	sessions := session.NewManager()
	inspectionMetrics := metrics.NewInspectionMetrics(prometheus.DefaultRegisterer)
	workflow := session.NewWorkflow(store, sessions, checkSvc, evaluator, reportingSvc, cfg.Inspection.ScanTerminator, baseLogger.Named("svc.session")).
		WithMetrics(inspectionMetrics)

	inspectionHandler := handlers.NewInspectionHandler(workflow, reportingSvc, baseLogger.Named("handlers.inspection"))
	engine := router.New(inspectionHandler, promhttp.Handler(), baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Sessions, sessions, baseLogger.Named("scheduler")).WithMetrics(inspectionMetrics)
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
