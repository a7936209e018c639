package interfaces

import (
	"context"
	"errors"

	"sbisec-trading-bot/internal/types"
)

// BrokerageClient is the capability shared by the HTTP session backend and
// the browser-driven backend.
type BrokerageClient interface {
	// Login authenticates against the brokerage. Every other method returns
	// an error wrapping ErrNotLoggedIn until it succeeds.
	Login(ctx context.Context) error

	// Holdings reads the holdings table of the portfolio page.
	Holdings(ctx context.Context) ([]types.Holding, error)

	// Logout ends the brokerage session and returns the logout banner.
	Logout(ctx context.Context) (string, error)

	// Close releases local resources (browser process, idle connections).
	Close() error
}

// SellOrderPlacer is implemented by backends able to replay the order form.
type SellOrderPlacer interface {
	PlaceSellOrder(ctx context.Context, order types.SellOrder) (types.OrderResult, error)
}

// AssetReader is implemented by backends that can read the holdings page
// under account management, row by row.
type AssetReader interface {
	Assets(ctx context.Context) ([][]string, error)
}

// PortfolioTextReader is implemented by the browser backend: it returns the
// text of every holding cell on the portfolio page.
type PortfolioTextReader interface {
	GetPortfolio(ctx context.Context) ([]string, error)
}

var (
	// ErrNotLoggedIn is returned by operations issued before a successful Login.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrOrderUnsupported is returned when the backend cannot place orders.
	ErrOrderUnsupported = errors.New("backend does not support placing orders")

	// ErrAssetsUnsupported is returned when the backend cannot read the
	// account holdings page.
	ErrAssetsUnsupported = errors.New("backend does not support reading assets")

	// ErrPortfolioTextUnsupported is returned when the backend cannot read
	// the portfolio cell texts.
	ErrPortfolioTextUnsupported = errors.New("backend does not support reading portfolio text")
)
