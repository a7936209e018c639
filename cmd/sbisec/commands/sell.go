package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/journal"
	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/types"
)

var sellOrder types.SellOrder

func init() {
	sellCmd.Flags().StringVar(&sellOrder.Code, "code", "", "security code")
	sellCmd.Flags().IntVar(&sellOrder.Quantity, "qty", 0, "number of shares")
	sellCmd.Flags().StringVar(&sellOrder.Price, "price", "", "limit price")
	_ = sellCmd.MarkFlagRequired("code")
	_ = sellCmd.MarkFlagRequired("qty")
	_ = sellCmd.MarkFlagRequired("price")
	rootCmd.AddCommand(sellCmd)
}

var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Places a spot sell limit order valid for the day.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sellOrder.Quantity <= 0 {
			return fmt.Errorf("--qty must be positive, got %d", sellOrder.Quantity)
		}
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.TradePassword == "" {
			return errors.New("trade_password is required to place orders")
		}

		jrn := journal.New(cfg.Journal.Dir)
		if n, err := jrn.CompressOlder(cfg.Journal.RetentionDays); err != nil {
			logger.Warn(ctx, "Failed to compress old journal files", "error", err.Error())
		} else if n > 0 {
			logger.Info(ctx, "Compressed old journal files", "count", n)
		}

		return withSession(ctx, cmd.OutOrStdout(), cfg, func(ctx context.Context, brk interfaces.BrokerageClient) error {
			placer, ok := brk.(interfaces.SellOrderPlacer)
			if !ok {
				return interfaces.ErrOrderUnsupported
			}

			result, err := placer.PlaceSellOrder(ctx, sellOrder)
			recordOrder(ctx, jrn, sellOrder, result, err)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(result.Message, " "))
			return nil
		})
	},
}

func recordOrder(ctx context.Context, jrn *journal.Journal, order types.SellOrder, result types.OrderResult, orderErr error) {
	entry := journal.Entry{
		Code:     order.Code,
		Side:     "SELL",
		Quantity: order.Quantity,
		Price:    order.Price,
		Status:   result.Status,
		Message:  result.Message,
	}
	if orderErr != nil {
		entry.Status = "FAILED"
		entry.Error = orderErr.Error()
	}

	logger.Order(ctx, order.Code, order.Quantity, order.Price, entry.Status, "message", strings.Join(result.Message, " "))
	if err := jrn.Append(entry); err != nil {
		logger.ErrorWithErr(ctx, "Failed to append journal entry", err, "code", order.Code)
	}
}
