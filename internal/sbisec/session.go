package sbisec

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/page"
)

// Link labels as they appear in the alt text of the site's image buttons.
const (
	AltAccount   = "口座管理"
	AltPortfolio = "ポートフォリオ"
	AltTrade     = "取引"
	AltLogout    = "ログアウト"

	AreaHoldings = "保有証券"
)

// Session is the authenticated state. It only exists once Login succeeded,
// so every method can assume a top page to navigate from.
type Session struct {
	client    *Client
	root      *page.Document
	loggedOut bool
}

// TopPage returns the page the login landed on. No request is made.
func (s *Session) TopPage() *page.Document {
	return s.root
}

// LoggedOut reports whether Logout has been called.
func (s *Session) LoggedOut() bool {
	return s.loggedOut
}

// NavigateByAlt follows the first link on the top page whose image alt text
// contains alt.
func (s *Session) NavigateByAlt(ctx context.Context, alt string) (*page.Document, error) {
	return s.follow(ctx, s.root, alt, (*page.Navigator).FindLinkByAltContains)
}

// NavigateByAreaTitle follows the first image-map area on from titled title.
func (s *Session) NavigateByAreaTitle(ctx context.Context, from *page.Document, title string) (*page.Document, error) {
	return s.follow(ctx, from, title, (*page.Navigator).FindAreaByTitle)
}

// FetchPortfolio opens account management and from there the holdings page.
func (s *Session) FetchPortfolio(ctx context.Context) (*page.Document, error) {
	account, err := s.NavigateByAlt(ctx, AltAccount)
	if err != nil {
		return nil, err
	}
	return s.NavigateByAreaTitle(ctx, account, AreaHoldings)
}

// FetchPortfolioPage opens the portfolio page linked from the top page.
func (s *Session) FetchPortfolioPage(ctx context.Context) (*page.Document, error) {
	return s.NavigateByAlt(ctx, AltPortfolio)
}

// Logout follows the logout link. The session is unusable afterwards even if
// the request fails, since the server side state is unknown.
func (s *Session) Logout(ctx context.Context) (*page.Document, error) {
	doc, err := s.NavigateByAlt(ctx, AltLogout)
	s.loggedOut = true
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LogoutBanner is the confirmation text shown after logging out, with runs
// of whitespace collapsed.
func LogoutBanner(doc *page.Document) (string, error) {
	text, err := doc.StringValue(`//div[@class="alC"]/.`)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// lookup finds a link on a page by its label.
type lookup func(n *page.Navigator, label string) (*url.URL, error)

func (s *Session) follow(ctx context.Context, from *page.Document, label string, find lookup) (*page.Document, error) {
	if s.loggedOut {
		return nil, ErrLoggedOut
	}

	link, err := find(page.NewNavigator(from, s.client.tradeHost), label)
	if err != nil {
		return nil, err
	}
	if err := s.client.pause(ctx); err != nil {
		return nil, err
	}

	logger.Debug(ctx, "following link", "label", label, "url", link.String())
	doc, err := s.client.get(ctx, link.String())
	if err != nil {
		return nil, fmt.Errorf("follow %s: %w", label, err)
	}
	return doc, nil
}
