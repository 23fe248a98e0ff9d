package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
)

func DumpReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-reports",
		Short: "Print stored monitoring reports as JSON, newest first",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpReports,
	}

	cmd.Flags().Int64("limit", 10, "Maximum number of reports to print")

	return cmd
}

func dumpReports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	limit, err := cmd.Flags().GetInt64("limit")
	if err != nil {
		return err
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	docs, err := dbClient.GetMonitoringReports(ctx, limit)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		buff, err := json.MarshalIndent(doc.Report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Report [logical time %d, generated %d]:\n%s\n", doc.LogicalTime, doc.GeneratedAt, string(buff))
	}

	return nil
}
