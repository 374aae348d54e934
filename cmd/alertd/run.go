package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/chatprovider"
	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/config"
	"github.com/jobmate/alertpipeline/internal/delivery"
	"github.com/jobmate/alertpipeline/internal/embeddings"
	"github.com/jobmate/alertpipeline/internal/enrichment"
	"github.com/jobmate/alertpipeline/internal/httpapi"
	"github.com/jobmate/alertpipeline/internal/llm"
	"github.com/jobmate/alertpipeline/internal/logger"
	"github.com/jobmate/alertpipeline/internal/metrics"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/preferencesapi"
	"github.com/jobmate/alertpipeline/internal/projector"
	"github.com/jobmate/alertpipeline/internal/rdb"
	"github.com/jobmate/alertpipeline/internal/reminder"
	"github.com/jobmate/alertpipeline/internal/scheduler"
	"github.com/jobmate/alertpipeline/internal/store"
	"github.com/jobmate/alertpipeline/internal/window"
)

const version = "1.0.0"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the alert pipeline (HTTP server, reminder daemon, scheduler)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	log, err := logger.New(v.GetBool("json"), v.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(v)
	if err != nil {
		log.Fatal("loading config", zap.Error(err))
	}

	log.Info("starting alertd", zap.String("version", version))

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connecting to postgres", zap.Error(err))
	}
	defer st.Close()

	redisClient, err := rdb.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("connecting to redis", zap.Error(err))
	}
	defer redisClient.Close()

	realClock := clock.Real{}

	genClient, err := llm.New(ctx, cfg.Model.APIKey, cfg.Model.Name)
	if err != nil {
		log.Fatal("building generative model client", zap.Error(err))
	}

	embedSvc, err := embeddings.New(ctx, cfg.Embeddings.APIKey, cfg.Embeddings.Name, cfg.Embeddings.CacheSize)
	if err != nil {
		log.Fatal("building embedding service", zap.Error(err))
	}
	defer embedSvc.Close()

	sender := chatprovider.NewSender(cfg.Chat.BaseURL, cfg.Chat.AccessToken)
	publisher := chatprovider.NewEventPublisher(redisClient, log)

	windowManager := window.New(st, sender, realClock, log, time.Duration(cfg.WindowHours)*time.Hour)
	dispatcher := delivery.New(st, sender, realClock, log, cfg.DailyCap, cfg.MinMatchScore)
	dispatcher.SetPublisher(publisher)

	dispatch := func(ctx context.Context, posting model.CanonicalPosting) error {
		outcome, err := dispatcher.DispatchPosting(ctx, posting, model.StageRealTime)
		if err != nil {
			return err
		}
		metrics.AlertsSentTotal.WithLabelValues(string(model.StageRealTime)).Add(float64(outcome.Sent))
		metrics.AlertsFailedTotal.Add(float64(outcome.Failed))
		return nil
	}

	enrichmentWorker := enrichment.New(st, genClient, embedSvc, dispatch, realClock, log, cfg.EnrichmentBatchSize, cfg.EnrichmentWorkers)

	reminderDaemon := reminder.New(windowManager, cfg.Cadences.ReminderScan, log)

	sched := scheduler.New(st, enrichmentWorker, embedSvc.Embed, realClock, log, scheduler.Cadences{
		Enrichment:            cfg.Cadences.Enrichment,
		EmbeddingBackfill:     cfg.Cadences.EmbeddingBackfill,
		StaleEmbeddingRefresh: cfg.Cadences.StaleEmbeddingRefresh,
		DuplicatePurge:        cfg.Cadences.DuplicatePurge,
		OldRecordPurge:        cfg.Cadences.OldRecordPurge,
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatal("starting scheduler", zap.Error(err))
	}
	defer sched.Stop()

	resolver := chatprovider.NewStoreResolver(func(ctx context.Context, handle string) (uuid.UUID, error) {
		u, err := st.GetOrCreateUser(ctx, handle, realClock.Now())
		if err != nil {
			return uuid.Nil, err
		}
		return u.ID, nil
	})
	webhookHandler := chatprovider.NewHandler(cfg.Chat.WebhookSecret, cfg.Chat.VerifyToken, resolver, windowManager, log)

	metricsRefresher := metrics.NewRefresher(st, time.Minute, realClock, log)

	prefProjector := projector.New(st, embedSvc, realClock, log)
	preferencesHandler := preferencesapi.NewHandler(st, prefProjector, sender, realClock, log)

	mux := http.NewServeMux()
	webhookHandler.RegisterRoutes(mux)
	preferencesHandler.RegisterRoutes(mux)
	healthHandler := httpapi.NewHandler(map[string]httpapi.DependencyChecker{
		"store": func(ctx context.Context) error { return st.Pool().Ping(ctx) },
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})
	healthHandler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go reminderDaemon.Run(ctx)
	go metricsRefresher.Run(ctx)

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	log.Info("stopped")
	return nil
}
