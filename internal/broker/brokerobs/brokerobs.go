package brokerobs

import (
	"context"
	"fmt"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/trace"
	"sbisec-trading-bot/internal/types"
)

// observableBroker wraps a BrokerageClient with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.BrokerageClient
}

// Compile-time interface checks
var (
	_ interfaces.BrokerageClient     = (*observableBroker)(nil)
	_ interfaces.SellOrderPlacer     = (*observableBroker)(nil)
	_ interfaces.AssetReader         = (*observableBroker)(nil)
	_ interfaces.PortfolioTextReader = (*observableBroker)(nil)
)

// Wrap wraps a broker with observability middleware. Optional capabilities
// of the wrapped broker stay reachable through the wrapper.
func Wrap(broker interfaces.BrokerageClient) interfaces.BrokerageClient {
	return &observableBroker{
		broker: broker,
	}
}

// Login authenticates with observability
func (ob *observableBroker) Login(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Login")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Logging in")

	if err := ob.broker.Login(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Login failed", err)
		return fmt.Errorf("broker login failed: %w", err)
	}

	logger.InfoSkip(ctx, 1, "Logged in")
	return nil
}

// Holdings reads holdings with observability
func (ob *observableBroker) Holdings(ctx context.Context) ([]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Holdings")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching holdings")

	holdings, err := ob.broker.Holdings(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch holdings", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Holdings fetched successfully", "count", len(holdings))
	return holdings, nil
}

// Assets reads the account holdings page when the broker supports it
func (ob *observableBroker) Assets(ctx context.Context) ([][]string, error) {
	reader, ok := ob.broker.(interfaces.AssetReader)
	if !ok {
		return nil, interfaces.ErrAssetsUnsupported
	}

	ctx, span := trace.StartSpan(ctx, "broker.Assets")
	defer span.End()

	rows, err := reader.Assets(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch assets", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Assets fetched successfully", "rows", len(rows))
	return rows, nil
}

// GetPortfolio reads the portfolio cell texts when the broker supports it
func (ob *observableBroker) GetPortfolio(ctx context.Context) ([]string, error) {
	reader, ok := ob.broker.(interfaces.PortfolioTextReader)
	if !ok {
		return nil, interfaces.ErrPortfolioTextUnsupported
	}

	ctx, span := trace.StartSpan(ctx, "broker.GetPortfolio")
	defer span.End()

	texts, err := reader.GetPortfolio(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to read portfolio", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Portfolio read successfully", "elements", len(texts))
	return texts, nil
}

// PlaceSellOrder places an order with observability
func (ob *observableBroker) PlaceSellOrder(ctx context.Context, order types.SellOrder) (types.OrderResult, error) {
	placer, ok := ob.broker.(interfaces.SellOrderPlacer)
	if !ok {
		return types.OrderResult{}, interfaces.ErrOrderUnsupported
	}

	ctx, span := trace.StartSpan(ctx, "broker.PlaceSellOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing sell order",
		"code", order.Code,
		"qty", order.Quantity,
		"price", order.Price,
	)

	resp, err := placer.PlaceSellOrder(ctx, order)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"code", order.Code,
			"qty", order.Quantity,
		)
		return types.OrderResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order submitted",
		"code", order.Code,
		"status", resp.Status,
		"message", resp.Message,
	)
	return resp, nil
}

// Logout ends the session with observability
func (ob *observableBroker) Logout(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Logout")
	defer span.End()

	banner, err := ob.broker.Logout(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Logout failed", err)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Logged out", "banner", banner)
	return banner, nil
}

// Close releases the broker with observability
func (ob *observableBroker) Close() error {
	logger.DebugSkip(context.Background(), 1, "Closing broker")
	return ob.broker.Close()
}
