package cli

import (
	"github.com/spf13/cobra"

	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/services"
	"github.com/stacklend-io/risk-engine/internal/utils/clock"
)

// BackfillExposureCmd recomputes stored position ratios and borrower
// exposure totals from the positions themselves:
// ./risk-engine backfill-exposure --config config.yml
func BackfillExposureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill-exposure",
		Short: "Recompute position ratios and borrower exposure from stored positions",
		Args:  cobra.ExactArgs(0),
		RunE:  backfillExposure,
	}

	return cmd
}

func backfillExposure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	srv := services.NewService(cfg, dbClient, nil, nil, clock.System())

	return srv.BackfillExposure(ctx)
}
