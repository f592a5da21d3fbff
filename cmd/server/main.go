// Command server runs the Absher assistant demo backend: login against a
// fixed template identity set, an LLM-backed chat agent, the proactive
// reminder engine and the propose/confirm renewal workflow.
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

	"absher/internal/chat/composer"
	chathandler "absher/internal/chat/handler"
	"absher/internal/chat/llm"
	chatservice "absher/internal/chat/service"
	identityhandler "absher/internal/identity/handler"
	identityservice "absher/internal/identity/service"
	"absher/internal/identity/store/session"
	"absher/internal/identity/store/template"
	"absher/internal/jwttoken"
	notifhandler "absher/internal/notification/handler"
	notifservice "absher/internal/notification/service"
	notifstore "absher/internal/notification/store"
	"absher/internal/platform/config"
	"absher/internal/platform/database"
	"absher/internal/platform/httpserver"
	"absher/internal/platform/logger"
	"absher/internal/platform/metrics"
	"absher/internal/platform/middleware"
	redisplatform "absher/internal/platform/redis"
	"absher/internal/reminder"
	reminderhandler "absher/internal/reminder/handler"
	renewalhandler "absher/internal/renewal/handler"
	renewalservice "absher/internal/renewal/service"
	"absher/internal/renewal/store/proposal"
	httptransport "absher/internal/transport/http"
	"absher/internal/voice"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(os.Stdout)
	m := metrics.New()

	templates, err := template.Load(cfg.TemplateUsersPath)
	if err != nil {
		return fmt.Errorf("load template users: %w", err)
	}
	log.Info("template users loaded", "count", templates.Count(), "path", cfg.TemplateUsersPath)

	sessions := session.NewInMemoryStore()

	// Proposal store: redis when configured, in-memory otherwise.
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var proposals renewalservice.ProposalStore
	if redisClient != nil {
		defer redisClient.Close()
		proposals = proposal.NewRedisStore(redisClient.Client)
		log.Info("proposal store: redis")
	} else {
		proposals = proposal.NewInMemoryStore()
		log.Info("proposal store: in-memory")
	}

	// Notification store: postgres when configured, in-memory otherwise.
	var notifications notifservice.Store
	if cfg.Database.URL != "" {
		if err := database.RunMigrations(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		db, err := database.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		notifications = notifstore.NewPostgresStore(db)
		log.Info("notification store: postgres")
	} else {
		notifications = notifstore.NewInMemoryStore()
		log.Info("notification store: in-memory")
	}

	notifSvc := notifservice.New(notifications, sessions, log)

	// Composer: LLM when an API key is present, deterministic templates
	// otherwise so the demo works fully offline.
	var comp composer.Composer
	var speech voice.Speech
	if cfg.OpenAI.APIKey != "" {
		client := llm.New(llm.Config{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
		})
		comp = composer.NewLLMComposer(client)
		speech = client
		log.Info("composer: llm", "model", cfg.OpenAI.Model)
	} else {
		comp = composer.NewTemplateComposer()
		log.Info("composer: template")
	}

	jwtSvc := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	renewalSvc, err := renewalservice.New(sessions, proposals,
		renewalservice.WithLogger(log),
		renewalservice.WithMetrics(m),
		renewalservice.WithThreshold(cfg.ExpiryThreshold),
		renewalservice.WithProposalTTL(cfg.ProposalTTL),
	)
	if err != nil {
		return err
	}

	scanner, err := reminder.NewScanner(sessions, notifSvc, comp,
		reminder.WithLogger(log),
		reminder.WithMetrics(m),
		reminder.WithThreshold(cfg.ExpiryThreshold),
		reminder.WithWindow(cfg.ReminderWindow),
		reminder.WithComposerTimeout(cfg.ComposerTimeout),
	)
	if err != nil {
		return err
	}
	sweeper := reminder.NewSweeper(scanner, log, m, 0)

	chatSvc, err := chatservice.New(sessions, notifSvc, renewalSvc, comp,
		chatservice.WithLogger(log),
		chatservice.WithThreshold(cfg.ExpiryThreshold),
		chatservice.WithReplyTimeout(cfg.ComposerTimeout),
	)
	if err != nil {
		return err
	}

	identitySvc, err := identityservice.New(templates, sessions, jwtSvc, notifSvc, comp,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
		identityservice.WithTokenTTL(cfg.AccessTokenTTL),
		identityservice.WithThreshold(cfg.ExpiryThreshold),
		identityservice.WithComposerTimeout(cfg.ComposerTimeout),
	)
	if err != nil {
		return err
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rl.Stop()

	router := httptransport.NewRouter(httptransport.Options{
		Logger:            log,
		Metrics:           m,
		RateLimiter:       rl,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Health: func(ctx context.Context) error {
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	}, []httptransport.Registrar{
		identityhandler.New(identitySvc, log),
		chathandler.New(chatSvc, log),
		notifhandler.New(notifSvc, log),
		renewalhandler.New(renewalSvc, log),
		reminderhandler.New(scanner, sweeper, log),
	}, voice.New(speech, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.Start(ctx, cfg.SweepInterval)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
