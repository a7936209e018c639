// Package sbisectest serves a miniature copy of the brokerage site for tests:
// login, switch form, navigation pages, the order form and logout, all
// encoded in Shift_JIS like the real thing.
package sbisectest

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

//go:embed testdata/*.html
var fixtures embed.FS

// Paths the fake site answers on.
const (
	EntryPath  = "/ETGate"
	SwitchPath = "/switch"
	TradePath  = "/trade/ETGate"
	// LoginPath serves the login form posting straight to SwitchPath, for
	// clients that submit the form themselves.
	LoginPath = "/login"
)

var routes = map[string]string{
	"GET " + EntryPath:   "login.html",
	"POST " + EntryPath:  "switch.html",
	"POST " + SwitchPath: "top.html",
	"GET " + LoginPath:   "login_local.html",
	"GET /portfolio":     "portfolio.html",
	"GET /account":       "account.html",
	"GET /assets":        "assets.html",
	"GET /trade":         "trade.html",
	"POST " + TradePath:  "result.html",
	"GET /logout":        "logout.html",
}

// Request is one request the site received.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

type Site struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	status   map[string]int
}

// NewSite starts the site; it is shut down when the test ends.
func NewSite(t testing.TB) *Site {
	t.Helper()
	s := &Site{status: map[string]int{}}
	s.Server = httptest.NewServer(s)
	t.Cleanup(s.Close)
	return s
}

func (s *Site) EntryURL() string { return s.URL + EntryPath }
func (s *Site) TradeURL() string { return s.URL + TradePath }
func (s *Site) LoginURL() string { return s.URL + LoginPath }

// FailWith makes every request to path answer with status.
func (s *Site) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = status
}

// Requests returns every request received so far, in order.
func (s *Site) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Posts returns the POST requests received on path.
func (s *Site) Posts(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == http.MethodPost && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Form:   r.PostForm,
	})
	status := s.status[r.URL.Path]
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	name, ok := routes[r.Method+" "+r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	body, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
	_, _ = w.Write(encoded)
}

// Fixture returns the UTF-8 source of one of the site's pages.
func Fixture(t testing.TB, name string) []byte {
	t.Helper()
	b, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return b
}
