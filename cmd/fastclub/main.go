package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Kerhoff/fastclub/internal/api"
	"github.com/Kerhoff/fastclub/internal/config"
	"github.com/Kerhoff/fastclub/internal/metrics"
	"github.com/Kerhoff/fastclub/internal/repository/postgres"
	"github.com/Kerhoff/fastclub/internal/service"
	"github.com/Kerhoff/fastclub/internal/telegram"
	"github.com/Kerhoff/fastclub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	l.Info("Starting FastClub...")

	// Clubs without their own time zone use the configured one
	time.Local = cfg.Timezone

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Service layer
	m := metrics.New()
	svc := service.New(db.DB, l, m, service.Options{
		MonthsAhead:     cfg.MeetingHorizonMonths,
		AnnualFeeAmount: cfg.AnnualFeeAmount,
	},
		postgres.NewClubRepository(db.DB),
		postgres.NewMemberRepository(db.DB),
		postgres.NewMeetingRuleRepository(db.DB),
		postgres.NewFeeTypeRepository(db.DB),
		postgres.NewFeeRepository(db.DB),
		postgres.NewCalendarRepository(db.DB),
	)

	var wg sync.WaitGroup

	// Telegram bot
	var notify service.Notifier
	if cfg.BotEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}
		registerCommands(bot, svc, l)
		notify = bot.Notify

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	} else {
		l.Warn("TELEGRAM_TOKEN not set, running without the Telegram bot")
	}

	// Background sweep
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.StartSweep(ctx, cfg.SweepInterval, notify)
	}()

	// HTTP servers
	apiServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(svc, l, nil).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	for name, srv := range map[string]*http.Server{"API": apiServer, "Metrics": metricsServer} {
		go func() {
			l.Infof("%s server listening on %s", name, srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Errorf("%s server error: %v", name, err)
				stop()
			}
		}()
	}

	l.Info("FastClub started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Errorf("Failed to shut down server on %s: %v", srv.Addr, err)
		}
	}
	wg.Wait()

	l.Info("FastClub stopped")
}
