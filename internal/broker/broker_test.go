package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/portfolio"
	"sbisec-trading-bot/internal/sbisec/sbisectest"
	"sbisec-trading-bot/internal/store"
	"sbisec-trading-bot/internal/types"
)

func testConfig(t *testing.T, site *sbisectest.Site) *store.Config {
	t.Helper()
	cfg, err := store.ParseConfig([]byte(`
user_name: user
password: secret
trade_password: trade-secret
request_delay_ms: 1
endpoints:
  entry_url: ` + site.EntryURL() + `
  trade_host: ` + site.URL + `
  trade_url: ` + site.TradeURL() + `
`))
	require.NoError(t, err)
	return cfg
}

func TestEndToEndAllocation(t *testing.T) {
	site := sbisectest.NewSite(t)
	brk, err := New(testConfig(t, site))
	require.NoError(t, err)
	defer brk.Close()

	ctx := context.Background()
	require.NoError(t, brk.Login(ctx))

	holdings, err := brk.Holdings(ctx)
	require.NoError(t, err)
	allocations, _, err := portfolio.Allocate(holdings)
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	assert.Equal(t, "Fund A", allocations[0].Name)
	assert.InDelta(t, 60.0, allocations[0].Percent, 1e-9)
	assert.Equal(t, "Fund B", allocations[1].Name)
	assert.InDelta(t, 40.0, allocations[1].Percent, 1e-9)

	banner, err := brk.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ログアウトしました。 またのご利用をお待ちしております。", banner)
}

func TestOperationsRequireLogin(t *testing.T) {
	site := sbisectest.NewSite(t)
	brk, err := New(testConfig(t, site))
	require.NoError(t, err)
	defer brk.Close()

	ctx := context.Background()
	_, err = brk.Holdings(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNotLoggedIn)
	_, err = brk.Logout(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNotLoggedIn)
	_, err = brk.(interfaces.SellOrderPlacer).PlaceSellOrder(ctx, types.SellOrder{Code: "6501", Quantity: 1, Price: "1"})
	assert.ErrorIs(t, err, interfaces.ErrNotLoggedIn)
	assert.Empty(t, site.Requests())
}

func TestLogoutRequiresNewLogin(t *testing.T) {
	site := sbisectest.NewSite(t)
	brk, err := New(testConfig(t, site))
	require.NoError(t, err)
	defer brk.Close()

	ctx := context.Background()
	require.NoError(t, brk.Login(ctx))
	_, err = brk.Logout(ctx)
	require.NoError(t, err)

	_, err = brk.Holdings(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNotLoggedIn)
}

func TestPlaceSellOrderThroughBroker(t *testing.T) {
	site := sbisectest.NewSite(t)
	brk, err := New(testConfig(t, site))
	require.NoError(t, err)
	defer brk.Close()

	ctx := context.Background()
	require.NoError(t, brk.Login(ctx))

	placer, ok := brk.(interfaces.SellOrderPlacer)
	require.True(t, ok)
	result, err := placer.PlaceSellOrder(ctx, types.SellOrder{Code: "6501", Quantity: 100, Price: "1234"})
	require.NoError(t, err)
	assert.Equal(t, OrderSubmitted, result.Status)
	assert.Equal(t, []string{"ご注文を受け付けました。", "注文番号", "1234"}, result.Message)

	posts := site.Posts(sbisectest.TradePath)
	require.Len(t, posts, 1)
	assert.Equal(t, "trade-secret", posts[0].Form.Get("trade_pwd"))
}

func TestAssetsThroughBroker(t *testing.T) {
	site := sbisectest.NewSite(t)
	brk, err := New(testConfig(t, site))
	require.NoError(t, err)
	defer brk.Close()

	ctx := context.Background()
	require.NoError(t, brk.Login(ctx))

	rows, err := brk.(interfaces.AssetReader).Assets(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fund A", "100", "600,000"}, rows[1])
}

func TestPortfolioTextUnsupportedOverHTTP(t *testing.T) {
	site := sbisectest.NewSite(t)
	brk, err := New(testConfig(t, site))
	require.NoError(t, err)
	defer brk.Close()

	_, err = brk.(interfaces.PortfolioTextReader).GetPortfolio(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrPortfolioTextUnsupported)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	site := sbisectest.NewSite(t)
	cfg := testConfig(t, site)
	cfg.Backend = "telnet"

	_, err := New(cfg)
	assert.Error(t, err)
}
