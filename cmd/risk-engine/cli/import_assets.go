package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/utils/clock"
	"github.com/stacklend-io/risk-engine/pkg"
)

// ImportAssetsCmd seeds collateral assets in bulk from a text file holding
// one "SYMBOL PRICE VOLATILITY" triple per line. Lines starting with '#'
// are skipped.
func ImportAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-assets [file]",
		Short: "Import collateral asset prices from a file",
		Args:  cobra.ExactArgs(1),
		RunE:  importAssets,
	}

	return cmd
}

func importAssets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	fd, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fd.Close()

	clk := clock.System()

	var imported int
	sc := bufio.NewScanner(fd)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("malformed line %q, expected SYMBOL PRICE VOLATILITY", line)
		}

		symbol := fields[0]
		if err := pkg.ValidateAssetSymbol(symbol); err != nil {
			return fmt.Errorf("invalid symbol on line %q: %w", line, err)
		}
		price, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid price on line %q: %w", line, err)
		}
		volatility, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid volatility on line %q: %w", line, err)
		}

		asset := model.NewCollateralAsset(symbol, price, volatility, clk.Now())
		if err := dbClient.SaveCollateralAsset(ctx, asset); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", symbol, err)
		}

		fmt.Printf("Imported %s price=%d volatility=%d risk-weight=%d\n",
			symbol, price, volatility, asset.RiskWeight)
		imported++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	fmt.Printf("Imported %d assets\n", imported)
	return nil
}
