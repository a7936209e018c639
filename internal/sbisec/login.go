package sbisec

import (
	"context"
	"fmt"
	"net/url"

	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/page"
)

const (
	loginFormName  = "form_login"
	switchFormName = "formSwitch"
)

// loginFields turns the login form snapshot into the first POST body: the
// image-button trigger is replaced by its click coordinates and the
// browser-identification flags the site's script would have set.
func loginFields(form *page.Form, userID, password string) map[string]string {
	form.Remove("ACT_login")
	form.Merge(map[string]string{
		"JS_FLG":        "1",
		"BW_FLG":        "chrome,56",
		"ACT_login.x":   "39",
		"ACT_login.y":   "26",
		"user_id":       userID,
		"user_password": password,
	})
	return form.Values()
}

// Login runs the handshake: GET the entry page, POST the login form, then
// POST the self-submitting switch form it answers with. The page after the
// switch becomes the session's top page.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	op := logger.StartOperation(ctx, "sbisec.Login", "user_id", c.opts.UserID)
	ctx = op.Context()

	session, err := c.login(ctx)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	op.End("top_page", session.root.Location())
	return session, nil
}

func (c *Client) login(ctx context.Context) (*Session, error) {
	entry, err := c.get(ctx, c.entryURL.String())
	if err != nil {
		return nil, fmt.Errorf("login: fetch entry page: %w", err)
	}

	form, err := page.ExtractForm(entry, loginFormName)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := c.pause(ctx); err != nil {
		return nil, err
	}
	intermediate, err := c.post(ctx, c.entryURL.String(), loginFields(form, c.opts.UserID, c.opts.Password))
	if err != nil {
		return nil, fmt.Errorf("login: submit credentials: %w", err)
	}

	switchForm, err := page.ExtractForm(intermediate, switchFormName)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if switchForm.Action == "" {
		return nil, fmt.Errorf("login: %w", &page.PageStructureError{
			Selector: "//form[@name=\"" + switchFormName + "\"]/@action",
			URL:      intermediate.Location(),
		})
	}
	target, err := resolveAction(intermediate, switchForm.Action)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := c.pause(ctx); err != nil {
		return nil, err
	}
	top, err := c.post(ctx, target, switchForm.Values())
	if err != nil {
		return nil, fmt.Errorf("login: submit switch form: %w", err)
	}

	logger.Debug(ctx, "logged in", "top_page", top.Location())
	return &Session{client: c, root: top}, nil
}

// resolveAction returns an absolute action unchanged and resolves a relative
// one against the page it came from.
func resolveAction(doc *page.Document, action string) (string, error) {
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("parse form action %q: %w", action, err)
	}
	if ref.IsAbs() || doc.URL == nil {
		return action, nil
	}
	return doc.URL.ResolveReference(ref).String(), nil
}
