package commands

import (
	"context"
	"fmt"
	"io"

	"sbisec-trading-bot/internal/broker"
	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/store"
)

// withSession logs in, runs fn and always attempts to log out afterwards,
// even when fn failed or the command was interrupted. The logout banner is
// written to out.
func withSession(ctx context.Context, out io.Writer, cfg *store.Config, fn func(ctx context.Context, brk interfaces.BrokerageClient) error) (err error) {
	brk, err := broker.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := brk.Close(); cerr != nil {
			logger.Warn(ctx, "Failed to close broker", "error", cerr.Error())
		}
	}()

	if err := brk.Login(ctx); err != nil {
		return err
	}

	defer func() {
		banner, lerr := brk.Logout(context.WithoutCancel(ctx))
		if lerr != nil {
			logger.ErrorWithErr(ctx, "Logout failed", lerr)
			if err == nil {
				err = lerr
			}
			return
		}
		fmt.Fprintln(out, banner)
	}()

	return fn(ctx, brk)
}
