package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/config"
	"github.com/quickmailhq/leadsync/internal/infra/database"
	gdrive "github.com/quickmailhq/leadsync/internal/infra/drive"
	"github.com/quickmailhq/leadsync/internal/infra/http/handlers"
	"github.com/quickmailhq/leadsync/internal/infra/http/middleware"
	"github.com/quickmailhq/leadsync/internal/infra/mail"
	"github.com/quickmailhq/leadsync/internal/infra/parse"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
	gsheets "github.com/quickmailhq/leadsync/internal/infra/sheets"
	"github.com/quickmailhq/leadsync/internal/infra/slack"
	"github.com/quickmailhq/leadsync/internal/infra/worker"
	"github.com/quickmailhq/leadsync/internal/usecase"
)

func main() {
	godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}

	// Broker
	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitUser, cfg.RabbitPass, cfg.RabbitHost, cfg.RabbitPort)
	if err != nil {
		log.WithError(err).Fatal("rabbitmq connection failed")
	}
	defer rabbitMQ.Close()

	// Google clients
	driveSvc, err := gdrive.NewService(ctx, cfg.ServiceAccountB64)
	if err != nil {
		log.WithError(err).Fatal("drive client failed")
	}
	sheetsSvc, err := gsheets.NewService(ctx, cfg.ServiceAccountB64)
	if err != nil {
		log.WithError(err).Fatal("sheets client failed")
	}

	// Repositories
	fileRepo := database.NewFileRepository(db)
	leadRepo := database.NewLeadRepository(db)
	trackingRepo := database.NewTrackingRepository(db)
	registryRepo := database.NewRegistryRepository(db)
	configRepo := database.NewFileConfigRepository(db)

	// Adapters
	producer := queue.NewProducer(rabbitMQ.Ch)
	source := gdrive.NewSource(driveSvc, log)
	sink := gsheets.NewSink(sheetsSvc, driveSvc, cfg.OutputParentFolderID, log)
	configSource := gsheets.NewConfigSource(sheetsSvc, driveSvc, cfg.ConfigFolderID, cfg.ConfigSheetName, log)
	notifier := slack.NewWebhookNotifier(cfg.SlackWebhookURL, log)
	mailer := mail.NewMailer(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, cfg.MailOps, log)
	parser := parse.NewWorkbookParser(log)

	// UseCases
	ledger := usecase.NewLedgerService(trackingRepo, registryRepo)

	syncUC := &usecase.SyncDriveUseCase{
		Files:          fileRepo,
		Configs:        configRepo,
		Source:         source,
		ConfigSource:   configSource,
		Events:         producer,
		Notifier:       notifier,
		ParentFolderID: cfg.ParentFolderID,
		Lookback:       time.Duration(cfg.LookbackDays) * 24 * time.Hour,
		Log:            log,
	}

	processUC := &usecase.ProcessFileUseCase{
		Files:    fileRepo,
		Leads:    leadRepo,
		Configs:  configRepo,
		Ledger:   ledger,
		Source:   source,
		Parser:   parser,
		Sheets:   sink,
		Notifier: notifier,
		Mail:     mailer,
		Log:      log,
	}

	// Workers
	fileWorker := queue.NewWorker(rabbitMQ.Ch, processUC, log)
	go func() {
		if err := fileWorker.Start(ctx, queue.QueueName); err != nil && ctx.Err() == nil {
			log.WithError(err).Fatal("file worker died")
		}
	}()

	redispatch := worker.NewRedispatchWorker(fileRepo, producer, time.Duration(cfg.RedispatchSec)*time.Second, log)
	go redispatch.Start(ctx)

	scheduler := worker.NewScheduler(syncUC, log)
	if err := scheduler.Start(ctx, cfg.SyncSchedule); err != nil {
		log.WithError(err).Fatal("invalid sync schedule")
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)
	syncHandler := handlers.NewSyncHandler(syncUC, log)
	fileHandler := handlers.NewFileHandler(fileRepo, producer, log)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/sync", syncHandler.Handle)
	r.Post("/files/{fileID}/process", fileHandler.Process)
	r.Get("/healthz", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.WithField("port", cfg.Port).Info("leadsync listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server failed")
	}
}
