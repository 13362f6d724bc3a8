package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/cristobalnm/permit-intake/internal/adapters/http"
	"github.com/cristobalnm/permit-intake/internal/config"
	"github.com/cristobalnm/permit-intake/internal/core/domain"
	"github.com/cristobalnm/permit-intake/internal/core/session"
	"github.com/cristobalnm/permit-intake/internal/core/usecase"
	"github.com/cristobalnm/permit-intake/internal/export"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/queue/nats"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/recognize"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/recognize/pdftext"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/recognize/tesseract"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/repository/postgres"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/resilience"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/storage/localfs"
	"github.com/cristobalnm/permit-intake/internal/observability/metrics"
)

// API bundles everything the api binary serves: the REST surface, the
// Prometheus registry and the static file mount backing public URLs.
type API struct {
	Config  config.Config
	Handler http.Handler

	closeFn func()
}

func NewAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*API, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewPermitRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath, cfg.StoragePublicURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)
	bus, err := nats.Connect(cfg.NATSURL, nats.Options{
		RequestTimeout: cfg.NATSRequestTimeout(),
		Executor:       executor,
		Logger:         logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	sessions := session.NewStore()
	intake := usecase.NewIntakeOrchestrator(
		sessions, storage, bus, repo, logger,
		usecase.WithIntakeMetrics(httpMetrics),
	)
	queries := usecase.NewPermitQueries(repo)
	exporter := export.NewService(repo, logger)

	router := httpadapter.NewRouter(intake, queries, exporter).WithExportObserver(httpMetrics)

	root := http.NewServeMux()
	root.Handle("/metrics", httpMetrics.Handler())
	root.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.StoragePath))))
	root.Handle("/", httpMetrics.Middleware(router.Handler()))

	return &API{
		Config:  cfg,
		Handler: root,
		closeFn: func() {
			bus.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker bundles the recognition consumer: the NATS subscription, the
// extraction engine and its own metrics endpoint.
type Worker struct {
	Config  config.Config
	Metrics *metrics.WorkerMetrics

	bus     *nats.Bus
	engine  *recognize.Engine
	logger  *slog.Logger
	closeFn func()
}

func NewWorker(cfg config.Config, logger *slog.Logger) (*Worker, error) {
	storage, err := localfs.New(cfg.StoragePath, cfg.StoragePublicURL)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)
	ocr := tesseract.New(cfg.TesseractURL, tesseract.Options{
		RequestTimeout: cfg.TesseractTimeout(),
		Executor:       executor,
	})
	engine := recognize.NewEngine(storage, pdftext.New(), ocr, logger)

	bus, err := nats.Connect(cfg.NATSURL, nats.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Worker{
		Config:  cfg,
		Metrics: metrics.NewWorkerMetrics("worker"),
		bus:     bus,
		engine:  engine,
		logger:  logger,
		closeFn: func() { bus.Close() },
	}, nil
}

// Run consumes recognition jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.bus.ServeRecognition(ctx, func(jobCtx context.Context, job domain.RecognitionJob, report func(float64)) (string, error) {
		if job.Language == "" {
			job.Language = w.Config.RecognitionLanguage
		}

		w.Metrics.StartJob()
		started := time.Now()
		text, err := w.engine.Handle(jobCtx, job, report)
		w.Metrics.FinishJob(time.Since(started), err)
		return text, err
	})
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.RetryMaxAttempts
	rc.RetryInitialBackoff = time.Duration(cfg.RetryInitialBackoffMS) * time.Millisecond
	rc.RetryMaxBackoff = time.Duration(cfg.RetryMaxBackoffMS) * time.Millisecond
	rc.BreakerEnabled = cfg.BreakerEnabled
	return rc
}
