package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/config"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/feature/group"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/feature/player"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/health"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/logging"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/notify"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/router"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/store"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/telegram"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	healthShutdownTimeout  = 5 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":     "startup",
		"admin":     cfg.HasAdmin(),
		"directory": cfg.HasDirectory(),
		"workers":   cfg.BotWorkers,
	}).Info("configuration loaded")

	if cfg.InvalidAdminChatID != "" {
		logger.WithFields(logging.Fields{
			"event": "admin_chat_id_invalid",
			"value": cfg.InvalidAdminChatID,
		}).Warn("ADMIN_CHAT_ID is not a number, results will not be forwarded")
	}
	if !cfg.HasAdmin() {
		logger.WithField("event", "admin_missing").Warn("ADMIN_CHAT_ID is not set, results will not be forwarded")
	}

	var (
		mongoManager *store.Manager
		clientOpts   = []telegram.Option{
			telegram.WithRouter(router.New(cfg, logger)),
			telegram.WithDispatcher(notify.New(cfg, logger)),
		}
		mongoChecker health.MongoChecker
		statsSource  health.StatsSource
	)

	if cfg.HasDirectory() {
		mongoManager, err = connectDirectory(cfg, logger)
		if err != nil {
			logger.WithError(err).Error("mongo setup error")
			fmt.Fprintf(os.Stderr, "mongo setup error: %v\n", err)
			os.Exit(1)
		}

		clientOpts = append(clientOpts,
			telegram.WithPlayerRegistrar(player.NewRegistrar(mongoManager.Players(), logger)),
			telegram.WithGroupRegistrar(group.NewRegistrar(mongoManager.Groups(), logger)),
			telegram.WithPlayerFetcher(domain.NewPlayerRepository(mongoManager.Players())),
			telegram.WithGroupFetcher(domain.NewGroupRepository(mongoManager.Groups())),
		)
		mongoChecker = mongoManager
		statsSource = store.NewStatsProvider(mongoManager.Players(), mongoManager.Groups())
	} else {
		logger.WithField("event", "directory_disabled").Info("MONGO_URI is not set, player directory disabled")
	}

	tgClient, err := telegram.NewClient(cfg, logger, clientOpts...)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		tgClient.Start(ctx)
		if ctx.Err() == nil {
			return errors.New("telegram polling stopped before shutdown")
		}
		logger.WithField("event", "shutdown_signal").Info("stopping services")
		return nil
	})

	if cfg.HealthEnabled() {
		healthServer := health.NewServer(cfg.HTTPPort, mongoChecker, statsSource, logger)

		g.Go(healthServer.ListenAndServe)
		g.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
			defer cancel()
			return healthServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("service stopped with error")
	}

	if mongoManager != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		if err := mongoManager.Close(shutdownCtx); err != nil {
			logger.WithError(err).Error("mongo disconnect error")
		} else {
			logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
		}
		cancel()
	}

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func connectDirectory(cfg config.Config, logger *logrus.Entry) (*store.Manager, error) {
	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	manager, err := store.NewManager(connectCtx, cfg)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logging.Fields{
		"event":    "mongo_connect",
		"mongo_db": cfg.MongoDB,
	}).Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	defer cancelIndexes()

	if err := manager.EnsureBaseIndexes(indexCtx); err != nil {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancelClose()
		_ = manager.Close(closeCtx)
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")
	return manager, nil
}
