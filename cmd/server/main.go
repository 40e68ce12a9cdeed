package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/repository/mongodb"
	"github.com/tidianeba/qualichain/internal/repository/sheets"
	"github.com/tidianeba/qualichain/internal/scheduler"
	"github.com/tidianeba/qualichain/internal/server/handlers"
	"github.com/tidianeba/qualichain/internal/server/router"
	goodsreceiptsvc "github.com/tidianeba/qualichain/internal/service/goodsreceipt"
	purchaseordersvc "github.com/tidianeba/qualichain/internal/service/purchaseorder"
	qadeviationsvc "github.com/tidianeba/qualichain/internal/service/qadeviation"
	qareleasesvc "github.com/tidianeba/qualichain/internal/service/qarelease"
	qcresultsvc "github.com/tidianeba/qualichain/internal/service/qcresult"
	qcsamplesvc "github.com/tidianeba/qualichain/internal/service/qcsample"
	qctestsvc "github.com/tidianeba/qualichain/internal/service/qctest"
	reportingsvc "github.com/tidianeba/qualichain/internal/service/reporting"
	warehousesvc "github.com/tidianeba/qualichain/internal/service/warehouse"
	grnclient "github.com/tidianeba/qualichain/pkg/clients/goodsreceipt"
	poclient "github.com/tidianeba/qualichain/pkg/clients/purchaseorder"
	resultclient "github.com/tidianeba/qualichain/pkg/clients/qcresult"
	sampleclient "github.com/tidianeba/qualichain/pkg/clients/qcsample"
	testclient "github.com/tidianeba/qualichain/pkg/clients/qctest"
	whclient "github.com/tidianeba/qualichain/pkg/clients/warehouse"
	"github.com/tidianeba/qualichain/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	// One cluster connection; each mounted service gets its own logical
	// database so it stays the sole writer of its data.
	rootStore, err := mongodb.NewStore(bootCtx, cfg.Mongo.URI, cfg.Mongo.DBPrefix)
	if err != nil {
		baseLogger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		if err := rootStore.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	storeFor := func(service string) *mongodb.Store {
		return mongodb.NewStoreWithClient(rootStore.Client(), cfg.Mongo.DBName(service))
	}

	var h router.Handlers
	var releaseSvc *qareleasesvc.Service
	counters := reportingsvc.RepositoryCounters{}

	if cfg.Services.Mounts(config.ServicePurchaseOrder) {
		repo, err := mongodb.NewPurchaseOrderRepository(bootCtx, storeFor(config.ServicePurchaseOrder))
		if err != nil {
			baseLogger.Fatal("failed to init purchase order repository", zap.Error(err))
		}
		svc := purchaseordersvc.NewService(repo, baseLogger.Named("svc.purchaseorder"))
		h.PurchaseOrder = handlers.NewPurchaseOrderHandler(svc, baseLogger.Named("handlers.purchaseorder"))
	}

	if cfg.Services.Mounts(config.ServiceGoodsReceipt) {
		repo, err := mongodb.NewGoodsReceiptRepository(bootCtx, storeFor(config.ServiceGoodsReceipt))
		if err != nil {
			baseLogger.Fatal("failed to init goods receipt repository", zap.Error(err))
		}
		svc := goodsreceiptsvc.NewService(repo,
			poclient.NewClient(cfg.Peers.PurchaseOrder, cfg.Auth),
			baseLogger.Named("svc.goodsreceipt"))
		h.GoodsReceipt = handlers.NewGoodsReceiptHandler(svc, baseLogger.Named("handlers.goodsreceipt"))
		counters.Receipts = repo
	}

	if cfg.Services.Mounts(config.ServiceQCTest) {
		repo, err := mongodb.NewQCTestRepository(bootCtx, storeFor(config.ServiceQCTest))
		if err != nil {
			baseLogger.Fatal("failed to init qc test repository", zap.Error(err))
		}
		svc := qctestsvc.NewService(repo, baseLogger.Named("svc.qctest"))
		h.QCTest = handlers.NewQCTestHandler(svc, baseLogger.Named("handlers.qctest"))
	}

	if cfg.Services.Mounts(config.ServiceQCSample) {
		repo, err := mongodb.NewQCSampleRepository(bootCtx, storeFor(config.ServiceQCSample))
		if err != nil {
			baseLogger.Fatal("failed to init qc sample repository", zap.Error(err))
		}
		svc := qcsamplesvc.NewService(repo,
			grnclient.NewClient(cfg.Peers.GoodsReceipt, cfg.Auth),
			baseLogger.Named("svc.qcsample"))
		h.QCSample = handlers.NewQCSampleHandler(svc, baseLogger.Named("handlers.qcsample"))
		counters.Samples = repo
	}

	if cfg.Services.Mounts(config.ServiceQCResult) {
		repo, err := mongodb.NewQCResultRepository(bootCtx, storeFor(config.ServiceQCResult))
		if err != nil {
			baseLogger.Fatal("failed to init qc result repository", zap.Error(err))
		}
		svc := qcresultsvc.NewService(repo,
			testclient.NewClient(cfg.Peers.QCTest, cfg.Auth),
			sampleclient.NewClient(cfg.Peers.QCSample, cfg.Auth),
			baseLogger.Named("svc.qcresult"))
		h.QCResult = handlers.NewQCResultHandler(svc, baseLogger.Named("handlers.qcresult"))
		counters.Results = repo
	}

	if cfg.Services.Mounts(config.ServiceQADeviation) {
		repo, err := mongodb.NewQADeviationRepository(bootCtx, storeFor(config.ServiceQADeviation))
		if err != nil {
			baseLogger.Fatal("failed to init qa deviation repository", zap.Error(err))
		}
		svc := qadeviationsvc.NewService(repo, baseLogger.Named("svc.qadeviation"))
		h.QADeviation = handlers.NewQADeviationHandler(svc, baseLogger.Named("handlers.qadeviation"))
		counters.Deviations = repo
	}

	if cfg.Services.Mounts(config.ServiceQARelease) {
		repo, err := mongodb.NewQAReleaseRepository(bootCtx, storeFor(config.ServiceQARelease))
		if err != nil {
			baseLogger.Fatal("failed to init qa release repository", zap.Error(err))
		}
		releaseSvc = qareleasesvc.NewService(repo,
			sampleclient.NewClient(cfg.Peers.QCSample, cfg.Auth),
			resultclient.NewClient(cfg.Peers.QCResult, cfg.Auth),
			whclient.NewClient(cfg.Peers.Warehouse, cfg.Auth),
			baseLogger.Named("svc.qarelease"))
		h.QARelease = handlers.NewQAReleaseHandler(releaseSvc, baseLogger.Named("handlers.qarelease"))
		counters.Releases = repo
	}

	if cfg.Services.Mounts(config.ServiceWarehouse) {
		repo, err := mongodb.NewPutawayRepository(bootCtx, storeFor(config.ServiceWarehouse))
		if err != nil {
			baseLogger.Fatal("failed to init putaway repository", zap.Error(err))
		}
		svc := warehousesvc.NewService(repo, baseLogger.Named("svc.warehouse"))
		h.Warehouse = handlers.NewWarehouseHandler(svc, baseLogger.Named("handlers.warehouse"))
	}

	// The daily report aggregates across the service datastores, so it only
	// runs in a process that hosts all of them.
	var reportingService *reportingsvc.Service
	if counters.Receipts != nil && counters.Samples != nil && counters.Results != nil &&
		counters.Releases != nil && counters.Deviations != nil {
		reportRepo, err := mongodb.NewReportRepository(bootCtx, storeFor("reporting"))
		if err != nil {
			baseLogger.Fatal("failed to init report repository", zap.Error(err))
		}

		var sheetRepo sheets.Repository
		if cfg.Sheets.Enabled() {
			sheetRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
			if err != nil {
				baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
			}
		}

		reportingService = reportingsvc.NewService(counters, reportRepo, sheetRepo, baseLogger.Named("svc.reporting"))
	}

	engine := router.New(h, cfg.Auth, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, reportingService, releaseSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.Strings("services", cfg.Services.Enabled))
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
