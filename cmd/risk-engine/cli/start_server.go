package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stacklend-io/risk-engine/internal/api"
	"github.com/stacklend-io/risk-engine/internal/clients/oracleclient"
	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
	dbmodel "github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/observability/tracing"
	"github.com/stacklend-io/risk-engine/internal/queue"
	"github.com/stacklend-io/risk-engine/internal/services"
	"github.com/stacklend-io/risk-engine/internal/utils/clock"
)

const shutdownTimeout = 10 * time.Second

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the risk engine server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		log.Fatal().Err(err).Msg("error while setting up risk db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	queueManager, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}

	// The oracle section is optional; without it prices only arrive through
	// the owner API and the price update queue.
	var oracleClient oracleclient.OracleInterface
	if cfg.Oracle != nil {
		oracleClient = oracleclient.NewOracleClientWithMetrics(oracleclient.NewClient(cfg.Oracle))
	}

	service := services.NewService(cfg, dbClient, oracleClient, queueManager, clock.System())

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	if err := queueManager.SubscribePriceEvents(ctx, service.ProcessPriceUpdateEvent); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to price update events")
	}

	service.StartRiskEngine(ctx)

	apiServer := api.New(&cfg.Api, service)
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down risk engine")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to stop api server")
		}
		queueManager.Shutdown()
	}()

	return apiServer.Start()
}
