// Package broker builds the brokerage backend selected by configuration.
package broker

import (
	"fmt"

	"sbisec-trading-bot/internal/broker/brokerobs"
	"sbisec-trading-bot/internal/browser"
	"sbisec-trading-bot/internal/interfaces"
	"sbisec-trading-bot/internal/sbisec"
	"sbisec-trading-bot/internal/store"
)

// New returns the configured backend wrapped with logging and tracing.
func New(cfg *store.Config) (interfaces.BrokerageClient, error) {
	var (
		client interfaces.BrokerageClient
		err    error
	)
	switch cfg.Backend {
	case store.BackendHTTP, "":
		client, err = newSessionBroker(cfg)
	case store.BackendBrowser:
		client, err = newBrowser(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return brokerobs.Wrap(client), nil
}

func newSessionBroker(cfg *store.Config) (*SessionBroker, error) {
	client, err := sbisec.NewClient(sbisec.Options{
		UserID:           cfg.Login(),
		Password:         cfg.LoginPassword(),
		TradePassword:    cfg.TradePassword,
		UserAgent:        cfg.UserAgent,
		Delay:            cfg.RequestDelay(),
		Timeout:          cfg.Timeout(),
		EntryURL:         cfg.Endpoints.EntryURL,
		TradeHost:        cfg.Endpoints.TradeHost,
		TradeURL:         cfg.Endpoints.TradeURL,
		CloudflareBypass: cfg.CloudflareBypass,
	})
	if err != nil {
		return nil, err
	}
	return NewSessionBroker(client), nil
}

func newBrowser(cfg *store.Config) (*browser.Client, error) {
	return browser.New(browser.Options{
		UserID:       cfg.Login(),
		Password:     cfg.LoginPassword(),
		EntryURL:     cfg.Endpoints.EntryURL,
		PortfolioURL: cfg.Browser.PortfolioURL,
		HoldingClass: cfg.Browser.HoldingClass,
		Headless:     cfg.Headless(),
		ExecPath:     cfg.Browser.ExecPath,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout(),
	})
}
