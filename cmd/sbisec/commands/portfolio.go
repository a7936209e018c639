package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/portfolio"
	"sbisec-trading-bot/internal/report"
)

var (
	portfolioFormat string
	portfolioOutDir string
	portfolioRaw    bool
)

func init() {
	portfolioCmd.Flags().StringVarP(&portfolioFormat, "format", "f", string(report.FormatText), "output format: text, json or csv")
	portfolioCmd.Flags().StringVarP(&portfolioOutDir, "out", "o", "", "also save the report into this directory")
	portfolioCmd.Flags().BoolVar(&portfolioRaw, "raw", false, "print the holding cell texts instead of the allocation (browser backend)")
	rootCmd.AddCommand(portfolioCmd)
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Prints how the portfolio value is split between holdings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(portfolioFormat)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		return withSession(cmd.Context(), cmd.OutOrStdout(), cfg, func(ctx context.Context, brk interfaces.BrokerageClient) error {
			if portfolioRaw {
				return printPortfolioText(ctx, cmd.OutOrStdout(), brk)
			}

			holdings, err := brk.Holdings(ctx)
			if err != nil {
				return err
			}
			p, err := portfolio.Build(holdings, time.Now())
			if err != nil {
				return err
			}

			out, err := report.Render(p, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)

			if portfolioOutDir != "" {
				path, err := report.Save(p, format, portfolioOutDir)
				if err != nil {
					return err
				}
				logger.Info(ctx, "Report saved", "path", path)
			}
			return nil
		})
	},
}

func printPortfolioText(ctx context.Context, out io.Writer, brk interfaces.BrokerageClient) error {
	reader, ok := brk.(interfaces.PortfolioTextReader)
	if !ok {
		return interfaces.ErrPortfolioTextUnsupported
	}
	texts, err := reader.GetPortfolio(ctx)
	if errors.Is(err, interfaces.ErrPortfolioTextUnsupported) {
		return fmt.Errorf("--raw needs the browser backend: %w", err)
	}
	if err != nil {
		return err
	}
	for _, t := range texts {
		fmt.Fprintln(out, t)
	}
	return nil
}
