// Package browser drives the brokerage through a real Chrome instance, for
// sessions the plain HTTP client cannot establish.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/page"
	"sbisec-trading-bot/internal/portfolio"
	"sbisec-trading-bot/internal/types"
)

const (
	userIDField   = `input[name="user_id"]`
	passwordField = `input[name="user_password"]`
	loginButton   = `input[name="ACT_login"]`
	logoutBanner  = `div.alC`
	altLogout     = "ログアウト"
)

type Options struct {
	UserID   string
	Password string

	EntryURL     string
	PortfolioURL string
	// HoldingClass is the CSS class carried by the holding name cells on
	// the portfolio page.
	HoldingClass string

	Headless  bool
	ExecPath  string
	UserAgent string
	// Timeout bounds each browser round trip.
	Timeout time.Duration
}

// Client owns one browser process. It is not safe for concurrent use.
type Client struct {
	opts Options

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	started  bool
	loggedIn bool
}

var (
	_ interfaces.BrokerageClient     = (*Client)(nil)
	_ interfaces.PortfolioTextReader = (*Client)(nil)
)

// New prepares the browser. Chrome is started by the first operation.
func New(opts Options) (*Client, error) {
	if opts.UserID == "" || opts.Password == "" {
		return nil, errors.New("browser: user id and password are required")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	return &Client{
		opts:        opts,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// start launches Chrome and opens the tab on the long-lived tab context. The
// browser process lives as long as the context of the first Run.
func (c *Client) start() error {
	if c.started {
		return nil
	}
	if err := chromedp.Run(c.ctx); err != nil {
		return fmt.Errorf("browser: start: %w", err)
	}
	c.started = true
	return nil
}

// run executes actions on the tab, bounded by the configured timeout and by
// the caller's ctx.
func (c *Client) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := c.start(); err != nil {
		return err
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if c.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.ctx, c.opts.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Login fills the login form by field name and submits it.
func (c *Client) Login(ctx context.Context) error {
	op := logger.StartOperation(ctx, "browser.Login", "user_id", c.opts.UserID)

	err := c.run(op.Context(),
		chromedp.Navigate(c.opts.EntryURL),
		chromedp.WaitVisible(userIDField, chromedp.ByQuery),
		chromedp.SetValue(userIDField, c.opts.UserID, chromedp.ByQuery),
		chromedp.SetValue(passwordField, c.opts.Password, chromedp.ByQuery),
		chromedp.Click(loginButton, chromedp.ByQuery),
		// the landing page is the first to carry the logout link
		chromedp.WaitReady(page.AltContains(altLogout), chromedp.BySearch),
	)
	if err != nil {
		err = fmt.Errorf("browser: login: %w", err)
		op.EndWithError(err)
		return err
	}

	c.loggedIn = true
	op.End()
	return nil
}

// GetPortfolio opens the portfolio deep link and returns the text of every
// element carrying the holding class, in document order.
func (c *Client) GetPortfolio(ctx context.Context) ([]string, error) {
	doc, err := c.portfolioPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser: portfolio: %w", err)
	}

	texts := HoldingTexts(doc, c.opts.HoldingClass)
	logger.Debug(ctx, "portfolio read", "elements", len(texts))
	return texts, nil
}

// Holdings opens the portfolio deep link and parses the rendered page with
// the same parser the HTTP client uses.
func (c *Client) Holdings(ctx context.Context) ([]types.Holding, error) {
	doc, err := c.portfolioPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser: holdings: %w", err)
	}
	return portfolio.ParseHoldings(doc)
}

// portfolioPage navigates to the portfolio and snapshots the rendered DOM.
func (c *Client) portfolioPage(ctx context.Context) (*page.Document, error) {
	if !c.loggedIn {
		return nil, interfaces.ErrNotLoggedIn
	}

	var (
		markup   string
		location string
	)
	err := c.run(ctx,
		chromedp.Navigate(c.opts.PortfolioURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}

	// the DOM is already decoded, so the markup is UTF-8
	doc, err := page.Parse(strings.NewReader(markup), "text/html; charset=utf-8", nil)
	if err != nil {
		return nil, err
	}
	if u, err := url.Parse(location); err == nil && location != "" {
		doc.URL = u
	}
	return doc, nil
}

// HoldingTexts collects the trimmed text of every element with the given
// class.
func HoldingTexts(doc *page.Document, class string) []string {
	var texts []string
	doc.Selection().Find("." + class).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts
}

// Logout clicks the logout link and returns the confirmation banner.
func (c *Client) Logout(ctx context.Context) (string, error) {
	if !c.loggedIn {
		return "", interfaces.ErrNotLoggedIn
	}

	var banner string
	err := c.run(ctx,
		chromedp.Click(page.AltContains(altLogout), chromedp.BySearch),
		chromedp.WaitVisible(logoutBanner, chromedp.ByQuery),
		chromedp.Text(logoutBanner, &banner, chromedp.ByQuery),
	)
	c.loggedIn = false
	if err != nil {
		return "", fmt.Errorf("browser: logout: %w", err)
	}
	return strings.Join(strings.Fields(banner), " "), nil
}

// Close shuts the browser down.
func (c *Client) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}

