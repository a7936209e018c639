package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/report"
)

func init() {
	rootCmd.AddCommand(assetsCmd)
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Prints the holdings table under account management.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		return withSession(cmd.Context(), cmd.OutOrStdout(), cfg, func(ctx context.Context, brk interfaces.BrokerageClient) error {
			reader, ok := brk.(interfaces.AssetReader)
			if !ok {
				return interfaces.ErrAssetsUnsupported
			}
			rows, err := reader.Assets(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Rows(rows))
			return nil
		})
	},
}
