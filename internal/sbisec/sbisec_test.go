package sbisec

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbisec-trading-bot/internal/page"
	"sbisec-trading-bot/internal/sbisec/sbisectest"
)

func newTestClient(t *testing.T, site *sbisectest.Site) *Client {
	t.Helper()
	c, err := NewClient(Options{
		UserID:        "user",
		Password:      "secret",
		TradePassword: "trade-secret",
		UserAgent:     "test-agent",
		Timeout:       5 * time.Second,
		EntryURL:      site.EntryURL(),
		TradeHost:     site.URL,
		TradeURL:      site.TradeURL(),
	})
	require.NoError(t, err)
	return c
}

func login(t *testing.T, site *sbisectest.Site) *Session {
	t.Helper()
	s, err := newTestClient(t, site).Login(context.Background())
	require.NoError(t, err)
	return s
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{UserID: "user"})
	assert.Error(t, err)
	_, err = NewClient(Options{Password: "secret"})
	assert.Error(t, err)
}

func TestLoginPostsCredentialsThenSwitchForm(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)

	posts := site.Posts(sbisectest.EntryPath)
	require.Len(t, posts, 1)
	assert.Equal(t, url.Values{
		"JS_FLG":        {"1"},
		"BW_FLG":        {"chrome,56"},
		"_ControlID":    {"WPLETlgR001Control"},
		"_PageID":       {"WPLETlgR001Rlgn20"},
		"_DataStoreID":  {"DSWPLETlgR001Control"},
		"_ActionID":     {"login"},
		"user_id":       {"user"},
		"user_password": {"secret"},
		"ACT_login.x":   {"39"},
		"ACT_login.y":   {"26"},
	}, posts[0].Form)

	switches := site.Posts(sbisectest.SwitchPath)
	require.Len(t, switches, 1)
	assert.Equal(t, url.Values{
		"_ControlID":   {"WPLEThmR001Control"},
		"_PageID":      {"DefaultPID"},
		"_DataStoreID": {"DSWPLEThmR001Control"},
		"_ActionID":    {"DefaultAID"},
		"getFlg":       {"on"},
	}, switches[0].Form)

	assert.Equal(t, site.URL+sbisectest.SwitchPath, session.TopPage().Location())
	assert.False(t, session.LoggedOut())
}

func TestLoginRequestOrder(t *testing.T) {
	site := sbisectest.NewSite(t)
	login(t, site)

	reqs := site.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, []string{"GET /ETGate", "POST /ETGate", "POST /switch"}, []string{
		reqs[0].Method + " " + reqs[0].Path,
		reqs[1].Method + " " + reqs[1].Path,
		reqs[2].Method + " " + reqs[2].Path,
	})
}

func TestLoginStatusError(t *testing.T) {
	site := sbisectest.NewSite(t)
	site.FailWith(sbisectest.SwitchPath, http.StatusServiceUnavailable)

	_, err := newTestClient(t, site).Login(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.MethodPost, statusErr.Method)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestLoginEntryPageStatusError(t *testing.T) {
	site := sbisectest.NewSite(t)
	site.FailWith(sbisectest.EntryPath, http.StatusForbidden)

	_, err := newTestClient(t, site).Login(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.MethodGet, statusErr.Method)
	assert.Len(t, site.Posts(sbisectest.EntryPath), 0)
}

func TestLoginFields(t *testing.T) {
	form := &page.Form{Fields: map[string]string{
		"ACT_login": "",
		"JS_FLG":    "0",
		"keep":      "me",
	}}

	got := loginFields(form, "u", "p")
	assert.Equal(t, map[string]string{
		"JS_FLG":        "1",
		"BW_FLG":        "chrome,56",
		"ACT_login.x":   "39",
		"ACT_login.y":   "26",
		"user_id":       "u",
		"user_password": "p",
		"keep":          "me",
	}, got)
}

func TestResolveAction(t *testing.T) {
	base, err := url.Parse("https://www.example.com/ETGate/?a=1")
	require.NoError(t, err)
	doc := &page.Document{URL: base}

	got, err := resolveAction(doc, "https://site1.example.com/ETGate")
	require.NoError(t, err)
	assert.Equal(t, "https://site1.example.com/ETGate", got)

	got, err = resolveAction(doc, "/switch")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com/switch", got)
}

func TestNavigateByAlt(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)

	doc, err := session.NavigateByAlt(context.Background(), AltPortfolio)
	require.NoError(t, err)
	assert.Equal(t, site.URL+"/portfolio?_ControlID=WPLETpfR001Control&getFlg=on", doc.Location())
}

func TestNavigateByAltMissingLink(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)
	before := len(site.Requests())

	_, err := session.NavigateByAlt(context.Background(), "存在しない")
	var structErr *page.PageStructureError
	require.ErrorAs(t, err, &structErr)
	assert.Contains(t, structErr.Selector, "存在しない")
	assert.Len(t, site.Requests(), before, "no request for a missing link")
}

func TestNavigateByAreaTitleMatchesExactly(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)
	ctx := context.Background()

	account, err := session.NavigateByAlt(ctx, AltAccount)
	require.NoError(t, err)
	before := len(site.Requests())

	_, err = session.NavigateByAreaTitle(ctx, account, "保有")
	var structErr *page.PageStructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, page.AreaTitle("保有"), structErr.Selector)
	assert.Len(t, site.Requests(), before)

	doc, err := session.NavigateByAreaTitle(ctx, account, AreaHoldings)
	require.NoError(t, err)
	assert.Contains(t, doc.Location(), "/assets")
}

func TestFetchPortfolioFollowsAccountThenHoldings(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)

	doc, err := session.FetchPortfolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/assets", doc.URL.Path)

	reqs := site.Requests()
	require.Len(t, reqs, 5)
	assert.Equal(t, "/account", reqs[3].Path)
	assert.Equal(t, "/assets", reqs[4].Path)
}

func TestNavigationStatusError(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)
	site.FailWith("/portfolio", http.StatusInternalServerError)

	_, err := session.FetchPortfolioPage(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestPlaceSellOrder(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)

	doc, err := session.PlaceSellOrder(context.Background(), "6501", 100, "1234.5")
	require.NoError(t, err)

	posts := site.Posts(sbisectest.TradePath)
	require.Len(t, posts, 1)
	form := posts[0].Form

	assert.Equal(t, "this_day", form.Get("limit_in"))
	assert.Equal(t, "1", form.Get("trade_kbn"))
	assert.Equal(t, "6501", form.Get("stock_sec_code"))
	assert.Equal(t, "100", form.Get("input_quantity"))
	assert.Equal(t, "1234.5", form.Get("input_price"))
	assert.Equal(t, "   ", form.Get("input_market"))
	assert.Equal(t, " ", form.Get("in_sasinari_kbn"))
	assert.Equal(t, "trade-secret", form.Get("trade_pwd"))
	assert.Equal(t, "注文発注", form.Get("ACT_place"))
	assert.Equal(t, "WPLETstT001Control", form.Get("_ControlID"))
	assert.NotContains(t, form, "ACT_estimate")
	assert.NotContains(t, form, "ACT_order")
	assert.Len(t, form, 24)

	message, err := OrderMessage(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ご注文を受け付けました。", "注文番号", "1234"}, message)
}

func TestOrderFields(t *testing.T) {
	form := &page.Form{Fields: map[string]string{
		"ACT_estimate": "確認",
		"ACT_order":    "発注",
		"limit_in":     "",
		"hidden":       "h",
		"trade_kbn":    "0",
	}}

	got := orderFields(form, []string{"this_day", "2024/01/05"}, map[string]string{"trade_kbn": "1"})
	assert.Equal(t, map[string]string{
		"limit_in":  "this_day",
		"hidden":    "h",
		"trade_kbn": "1",
	}, got)
}

func TestLogoutEndsSession(t *testing.T) {
	site := sbisectest.NewSite(t)
	session := login(t, site)

	doc, err := session.Logout(context.Background())
	require.NoError(t, err)
	assert.True(t, session.LoggedOut())

	banner, err := LogoutBanner(doc)
	require.NoError(t, err)
	assert.Equal(t, "ログアウトしました。 またのご利用をお待ちしております。", banner)

	before := len(site.Requests())
	_, err = session.FetchPortfolioPage(context.Background())
	assert.ErrorIs(t, err, ErrLoggedOut)
	assert.Len(t, site.Requests(), before)
}

func TestPauseHonorsCancellation(t *testing.T) {
	c := &Client{opts: Options{Delay: time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.pause(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDelayBetweenRequests(t *testing.T) {
	site := sbisectest.NewSite(t)
	c := newTestClient(t, site)
	c.opts.Delay = 20 * time.Millisecond

	start := time.Now()
	_, err := c.Login(context.Background())
	require.NoError(t, err)
	// two POSTs, each preceded by the delay; the entry GET is not
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestCookiesPersistAcrossRequests(t *testing.T) {
	site := sbisectest.NewSite(t)
	c := newTestClient(t, site)

	u, err := url.Parse(site.URL)
	require.NoError(t, err)
	c.http.GetClient().Jar.SetCookies(u, []*http.Cookie{{Name: "JSESSIONID", Value: "abc"}})

	cookies := c.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "abc", cookies[0].Value)
}
