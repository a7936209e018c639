package broker

import (
	"context"
	"fmt"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/portfolio"
	"sbisec-trading-bot/internal/sbisec"
	"sbisec-trading-bot/internal/types"
)

// OrderSubmitted is the status of an order whose form POST was answered
// with a page. The page text tells whether the site accepted it.
const OrderSubmitted = "SUBMITTED"

// SessionBroker adapts the HTTP session client to BrokerageClient.
type SessionBroker struct {
	client  *sbisec.Client
	session *sbisec.Session
}

var (
	_ interfaces.BrokerageClient = (*SessionBroker)(nil)
	_ interfaces.SellOrderPlacer = (*SessionBroker)(nil)
	_ interfaces.AssetReader     = (*SessionBroker)(nil)
)

func NewSessionBroker(client *sbisec.Client) *SessionBroker {
	return &SessionBroker{client: client}
}

func (b *SessionBroker) Login(ctx context.Context) error {
	session, err := b.client.Login(ctx)
	if err != nil {
		return err
	}
	b.session = session
	return nil
}

func (b *SessionBroker) active() (*sbisec.Session, error) {
	if b.session == nil {
		return nil, interfaces.ErrNotLoggedIn
	}
	return b.session, nil
}

// Holdings reads the portfolio page.
func (b *SessionBroker) Holdings(ctx context.Context) ([]types.Holding, error) {
	session, err := b.active()
	if err != nil {
		return nil, err
	}
	doc, err := session.FetchPortfolioPage(ctx)
	if err != nil {
		return nil, err
	}
	return portfolio.ParseHoldings(doc)
}

// Assets reads the holdings page under account management.
func (b *SessionBroker) Assets(ctx context.Context) ([][]string, error) {
	session, err := b.active()
	if err != nil {
		return nil, err
	}
	doc, err := session.FetchPortfolio(ctx)
	if err != nil {
		return nil, err
	}
	return portfolio.Rows(doc, portfolio.AssetsRowsExpr)
}

func (b *SessionBroker) PlaceSellOrder(ctx context.Context, order types.SellOrder) (types.OrderResult, error) {
	session, err := b.active()
	if err != nil {
		return types.OrderResult{}, err
	}
	doc, err := session.PlaceSellOrder(ctx, order.Code, order.Quantity, order.Price)
	if err != nil {
		return types.OrderResult{}, err
	}

	result := types.OrderResult{Status: OrderSubmitted}
	message, err := sbisec.OrderMessage(doc)
	if err != nil {
		// the order went out; only the confirmation text is missing
		logger.Warn(ctx, "order result banner not found", "code", order.Code, "error", err.Error())
		return result, nil
	}
	result.Message = message
	return result, nil
}

// Logout ends the session. The broker must log in again before any other
// call.
func (b *SessionBroker) Logout(ctx context.Context) (string, error) {
	session, err := b.active()
	if err != nil {
		return "", err
	}
	b.session = nil

	doc, err := session.Logout(ctx)
	if err != nil {
		return "", err
	}
	banner, err := sbisec.LogoutBanner(doc)
	if err != nil {
		return "", fmt.Errorf("logout: %w", err)
	}
	return banner, nil
}

func (b *SessionBroker) Close() error {
	b.client.CloseIdleConnections()
	return nil
}
