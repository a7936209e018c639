// Package sbisec drives the SBI Securities website over plain HTTP: the
// two-step login, link navigation between logged-in pages and the order form
// replay.
package sbisec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"sbisec-trading-bot/internal/page"
)

type Options struct {
	UserID        string
	Password      string
	TradePassword string

	UserAgent string
	// Delay is waited before every request that navigates or submits.
	Delay   time.Duration
	Timeout time.Duration

	// EntryURL serves the login form and receives the first login POST.
	EntryURL string
	// TradeHost is the prefix of every link followed after login.
	TradeHost string
	// TradeURL receives order submissions.
	TradeURL string

	CloudflareBypass bool
}

// Client owns the cookie session. It is the unauthenticated state: the only
// thing it can do is Login, which yields a Session.
type Client struct {
	http *resty.Client
	opts Options

	entryURL  *url.URL
	tradeHost *url.URL
	tradeURL  *url.URL
}

func NewClient(opts Options) (*Client, error) {
	if opts.UserID == "" || opts.Password == "" {
		return nil, errors.New("sbisec: user id and password are required")
	}

	entryURL, err := url.Parse(opts.EntryURL)
	if err != nil {
		return nil, fmt.Errorf("sbisec: entry url: %w", err)
	}
	tradeHost, err := url.Parse(opts.TradeHost)
	if err != nil {
		return nil, fmt.Errorf("sbisec: trade host: %w", err)
	}
	tradeURL, err := url.Parse(opts.TradeURL)
	if err != nil {
		return nil, fmt.Errorf("sbisec: trade url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("Accept", "text/html")
	httpClient.SetHeader("User-Agent", opts.UserAgent)
	// login bounces between www, site1 and site2
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	instrument(httpClient)

	return &Client{
		http:      httpClient,
		opts:      opts,
		entryURL:  entryURL,
		tradeHost: tradeHost,
		tradeURL:  tradeURL,
	}, nil
}

// Cookies returns the cookies the jar would send to u.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.http.GetClient().Jar.Cookies(u)
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.GetClient().CloseIdleConnections()
}

// pause waits the fixed inter-request delay.
func (c *Client) pause(ctx context.Context) error {
	if c.opts.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(c.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) get(ctx context.Context, target string) (*page.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("sbisec: GET %s: %w", target, err)
	}
	return c.document(res)
}

func (c *Client) post(ctx context.Context, target string, fields map[string]string) (*page.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(target)
	if err != nil {
		return nil, fmt.Errorf("sbisec: POST %s: %w", target, err)
	}
	return c.document(res)
}

func (c *Client) document(res *resty.Response) (*page.Document, error) {
	if !res.IsSuccess() {
		return nil, &StatusError{
			Method:     res.Request.Method,
			URL:        res.Request.URL,
			StatusCode: res.StatusCode(),
		}
	}

	var location *url.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		location = res.RawResponse.Request.URL
	}
	doc, err := page.ParseBytes(res.Body(), res.Header().Get("Content-Type"), location)
	if err != nil {
		return nil, fmt.Errorf("sbisec: %s %s: %w", res.Request.Method, res.Request.URL, err)
	}
	return doc, nil
}
