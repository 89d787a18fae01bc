package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/labels-extractor/internal/async"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/export"
	"github.com/joseph-ayodele/labels-extractor/internal/ingest"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/labels-extractor/internal/repository"
	svc "github.com/joseph-ayodele/labels-extractor/internal/server"
	"github.com/joseph-ayodele/labels-extractor/internal/services/extraction"
)

func main() {
	cfg := common.LoadConfig()
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer svc.CloseDB(db)

	var runs repo.RunRepository
	var procOpts []pipeline.Option
	if db != nil {
		if err := svc.PingDB(ctx, db, logger, 5*time.Second); err != nil {
			os.Exit(1)
		}
		runs = repo.NewRunRepository(db, logger)
		procOpts = append(procOpts, pipeline.WithRunStore(runs))
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Method:    cfg.Renderer.Method,
		Pdftotext: cfg.Renderer.Pdftotext,
		Layout:    cfg.Renderer.Layout,
		MaxPages:  cfg.Renderer.MaxPages,
		Timeout:   cfg.Renderer.Timeout,
	}, logger)
	procs := pipeline.NewSet(extractor, logger, procOpts...)
	exporter := export.NewService(logger)

	// Every background job with rows is saved next to the others in EXPORT_DIR.
	saveExport := func(ctx context.Context, job async.Job, out pipeline.Outcome) {
		if len(out.Records) == 0 {
			return
		}
		path, err := exporter.Save(ctx, cfg.Export.Dir, cfg.Export.Format, job.Platform, out.Schema, out.Records, time.Now())
		if err != nil {
			logger.Error("export.save.failed", "source", job.Path, "run_id", out.RunID, "error", err)
			return
		}
		logger.Info("export.save.ok", "source", job.Path, "path", path, "rows", out.Rows(), "trace_id", job.TraceID)
	}
	queue := async.NewProcessorQueue(procs, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultHandler(saveExport),
	)
	// The watcher and the rescanner share one de-duplicating front; Submit always queues.
	inbox := ingest.NewDedupQueue(queue, logger)

	serviceOpts := []extraction.Option{extraction.WithQueue(queue)}
	if runs != nil {
		serviceOpts = append(serviceOpts, extraction.WithRuns(runs))
	}
	extractionService := extraction.NewService(procs, exporter, logger, serviceOpts...)

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	interceptors := []grpc.UnaryServerInterceptor{svc.UnaryLogging(logger)}
	if cfg.Server.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), max(cfg.Server.RateBurst, 1))
		interceptors = append(interceptors, svc.UnaryRateLimit(limiter))
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	svc.RegisterExtractionServiceServer(grpcServer, svc.NewExtractionServer(extractionService, logger))

	// Register gRPC health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(svc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
	}

	var rescanner *ingest.Rescanner
	if cfg.Watch.Enabled {
		proc, err := procs.Lookup(cfg.Watch.Platform)
		if err != nil {
			logger.Error("invalid WATCH_PLATFORM", "platform", cfg.Watch.Platform, "error", err)
			os.Exit(2)
		}
		platform := proc.Extractor().Platform()

		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Watch.Dir},
			InitialScan: true,
			SkipHidden:  true,
			Debounce:    cfg.Watch.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dir", cfg.Watch.Dir, "error", err)
			os.Exit(1)
		}
		go func() {
			n := ingest.Feed(ctx, events, inbox, platform, logger)
			logger.Info("watcher.feed.stopped", "enqueued", n)
		}()
		go func() {
			for err := range errs {
				logger.Warn("watcher.degraded", "error", err)
			}
		}()

		if cfg.Watch.Rescan != "" {
			rescanner = ingest.NewRescanner(cfg.Watch.Dir, platform, inbox, logger)
			if err := rescanner.Start(cfg.Watch.Rescan); err != nil {
				logger.Error("failed to schedule rescan", "error", err)
				os.Exit(2)
			}
		}
	}

	logger.Info("labelsd listening", "addr", cfg.Server.GRPCAddr, "watch", cfg.Watch.Enabled, "run_history", runs != nil)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("labelsd shutting down")
	healthServer.Shutdown()
	if rescanner != nil {
		rescanner.Stop()
	}
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout+5*time.Second)
	defer cancel()
	inbox.Shutdown(shutdownCtx)
}
