package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mintmarket/marketd/internal/config"
	httpinterface "github.com/mintmarket/marketd/internal/interface/http"
	"github.com/mintmarket/marketd/pkg/errors"
)

// Version is set at build time.
var Version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "marketd"
	app.Usage = "trustless digital asset marketplace daemon"
	app.Version = Version
	app.Flags = config.Flags
	app.Action = start

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func start(c *cli.Context) error {
	cfg, err := config.LoadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.Debugf("config: %s", cfg)

	ctx := context.Background()

	adminSvc := cfg.AdminService()
	if err := adminSvc.Initialize(
		ctx, cfg.FeeRateBps, cfg.Admin, cfg.SettlementCoordinator,
	); err != nil {
		if !errors.HasCode(err, errors.INVALID_STATE) {
			return fmt.Errorf("failed to initialize marketplace: %s", err)
		}
		log.Debug("marketplace already initialized, skipping bootstrap")
	}

	marketSvc, err := cfg.MarketService()
	if err != nil {
		return fmt.Errorf("failed to create market service: %s", err)
	}
	if err := marketSvc.Start(); err != nil {
		return fmt.Errorf("failed to start market service: %s", err)
	}
	escrowSvc := cfg.EscrowService()

	scheduler := cfg.SchedulerService()
	scheduler.Start()

	if cfg.HeartbeatInterval > 0 {
		interval := time.Duration(cfg.HeartbeatInterval) * time.Second
		if err := scheduler.ScheduleTaskEvery(interval, func() {
			info, err := adminSvc.GetInfo(context.Background())
			if err != nil {
				log.WithError(err).Warn("heartbeat: failed to fetch marketplace info")
				return
			}
			log.WithFields(log.Fields{
				"active_listings": info.ActiveListings,
				"active_offers":   info.ActiveOffers,
				"pending_escrows": info.PendingEscrows,
				"fee_balance":     info.FeeBalance,
			}).Info("heartbeat")
		}); err != nil {
			return fmt.Errorf("failed to schedule heartbeat task: %s", err)
		}
	}

	if cfg.ExpiredOffersInterval > 0 {
		interval := time.Duration(cfg.ExpiredOffersInterval) * time.Second
		if err := scheduler.ScheduleTaskEvery(interval, func() {
			if _, err := adminSvc.ReportExpiredOffers(context.Background()); err != nil {
				log.WithError(err).Warn("failed to report expired offers")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule expired offers task: %s", err)
		}
	}

	handler := httpinterface.NewHandler(marketSvc, escrowSvc, adminSvc)
	server := httpinterface.NewServer(fmt.Sprintf(":%d", cfg.Port), handler)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start http server: %s", err)
	}

	log.RegisterExitHandler(func() {
		if err := server.Stop(); err != nil {
			log.WithError(err).Warn("failed to stop http server")
		}
		scheduler.Stop()
		marketSvc.Stop()
		cfg.RepoManager().Close()
	})

	log.Infof("marketd version %s started", Version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt)

	<-sigChan

	log.Info("shutting down...")
	log.Exit(0)

	return nil
}
