package store

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendHTTP    = "http"
	BackendBrowser = "browser"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/56.0.2924.87 Safari/537.36"

	DefaultEntryURL     = "https://www.sbisec.co.jp/ETGate"
	DefaultTradeHost    = "https://site2.sbisec.co.jp"
	DefaultTradeURL     = "https://site2.sbisec.co.jp/ETGate"
	DefaultPortfolioURL = "https://site1.sbisec.co.jp/ETGate/?_ControlID=WPLETpfR001Control" +
		"&_PageID=DefaultPID&_DataStoreID=DSWPLETpfR001Control&_ActionID=DefaultAID&getFlg=on"
	DefaultHoldingClass = "mtext"
)

type Config struct {
	// The site's own field names and the older short names are both accepted.
	UserName      string `yaml:"user_name"`
	UserID        string `yaml:"user_id"`
	Password      string `yaml:"password"`
	UserPassword  string `yaml:"user_password"`
	TradePassword string `yaml:"trade_password"`

	Backend          string `yaml:"backend"`
	UserAgent        string `yaml:"user_agent"`
	RequestDelayMS   int    `yaml:"request_delay_ms"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	Endpoints struct {
		EntryURL  string `yaml:"entry_url"`
		TradeHost string `yaml:"trade_host"`
		TradeURL  string `yaml:"trade_url"`
	} `yaml:"endpoints"`

	Browser struct {
		Headless     *bool  `yaml:"headless"`
		ExecPath     string `yaml:"exec_path"`
		PortfolioURL string `yaml:"portfolio_url"`
		HoldingClass string `yaml:"holding_class"`
	} `yaml:"browser"`

	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

// Login returns the login id, preferring user_id over user_name.
func (c *Config) Login() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.UserName
}

// LoginPassword returns the login password, preferring user_password.
func (c *Config) LoginPassword() string {
	if c.UserPassword != "" {
		return c.UserPassword
	}
	return c.Password
}

func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) Headless() bool {
	return c.Browser.Headless == nil || *c.Browser.Headless
}

func (c *Config) Validate() error {
	if c.Login() == "" {
		return errors.New("user_name (or user_id) is required")
	}
	if c.LoginPassword() == "" {
		return errors.New("password (or user_password) is required")
	}
	if c.Backend != BackendHTTP && c.Backend != BackendBrowser {
		return fmt.Errorf("invalid backend '%s': must be '%s' or '%s'", c.Backend, BackendHTTP, BackendBrowser)
	}
	if c.RequestDelayMS < 0 {
		return fmt.Errorf("request_delay_ms must not be negative, got %d", c.RequestDelayMS)
	}
	for name, raw := range map[string]string{
		"endpoints.entry_url":   c.Endpoints.EntryURL,
		"endpoints.trade_host":  c.Endpoints.TradeHost,
		"endpoints.trade_url":   c.Endpoints.TradeURL,
		"browser.portfolio_url": c.Browser.PortfolioURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute url, got '%s'", name, raw)
		}
	}
	return nil
}

// LoadConfig reads the YAML config at path. A .env file in the working
// directory is loaded first so its SBISEC_* values can override the file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_ = godotenv.Load()
	return ParseConfig(b)
}

// ParseConfig applies environment overrides and defaults to the YAML in b,
// then validates the result.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SBISEC_USER_ID"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("SBISEC_PASSWORD"); v != "" {
		c.UserPassword = v
	}
	if v := os.Getenv("SBISEC_TRADE_PASSWORD"); v != "" {
		c.TradePassword = v
	}
	if v := os.Getenv("SBISEC_BACKEND"); v != "" {
		c.Backend = v
	}
}

// defaults fills every key the file and environment left empty.
func defaults() Config {
	var d Config
	d.Backend = BackendHTTP
	d.UserAgent = DefaultUserAgent
	d.RequestDelayMS = 300
	d.TimeoutSeconds = 30
	d.Endpoints.EntryURL = DefaultEntryURL
	d.Endpoints.TradeHost = DefaultTradeHost
	d.Endpoints.TradeURL = DefaultTradeURL
	d.Browser.PortfolioURL = DefaultPortfolioURL
	d.Browser.HoldingClass = DefaultHoldingClass
	d.Journal.Dir = "logs"
	return d
}

func (c *Config) applyDefaults() error {
	return mergo.Merge(c, defaults())
}
