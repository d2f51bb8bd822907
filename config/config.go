package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/auditwalker/fixtures"
	"gopkg.in/yaml.v3"
)

// environment variables operators rely on
const (
	EnvBaseURL       = "AUDIT_BASE_URL"
	EnvMode          = "AUDIT_MODE"
	EnvCI            = "CI"
	EnvSessionCookie = "AUDIT_SESSION_COOKIE"
)

type Session struct {
	CookieName  string
	CookieValue string
}

func (s Session) Enabled() bool {
	return s.CookieName != "" && s.CookieValue != ""
}

type Browser struct {
	// RemoteURL of a running chrome, empty launches a local one
	RemoteURL string
	Bin       string
	Headful   bool
}

type Config struct {
	BaseURL            string
	Mode               string
	Viewports          []string
	Concurrency        int
	CI                 bool
	Agent              string
	Screenshots        string
	NetworkIdleTimeout time.Duration
	SettleDelay        time.Duration
	TabTimeout         time.Duration
	VisitTimeout       time.Duration
	IgnoreRobots       bool
	Addr               string
	Fixtures           map[string]string
	Session            Session
	Browser            Browser
}

func defaultConfig() *Config {
	return &Config{
		Mode:               "smoke",
		Viewports:          []string{"mobile", "desktop"},
		Concurrency:        2,
		Agent:              "foomo-auditwalker",
		Screenshots:        "screenshots",
		NetworkIdleTimeout: 8 * time.Second,
		SettleDelay:        2 * time.Second,
		TabTimeout:         3 * time.Second,
		VisitTimeout:       90 * time.Second,
		Session: Session{
			CookieName: "session",
		},
		Fixtures: map[string]string{},
	}
}

// Default config without a file
func Default() *Config {
	return defaultConfig()
}

// Load config from yaml bytes on top of the defaults
func Load(yamlBytes []byte) (conf *Config, err error) {
	conf = defaultConfig()
	errUnmarshal := yaml.Unmarshal(yamlBytes, conf)
	if errUnmarshal != nil {
		return nil, errUnmarshal
	}
	if conf.Fixtures == nil {
		conf.Fixtures = map[string]string{}
	}
	conf.BaseURL = strings.TrimSuffix(conf.BaseURL, "/")
	return conf, nil
}

// Get config from a yaml file
func Get(filename string) (conf *Config, err error) {
	yamlBytes, errRead := os.ReadFile(filename)
	if errRead != nil {
		return nil, errRead
	}
	return Load(yamlBytes)
}

// ApplyEnv environment wins over the file, lookup is usually os.LookupEnv
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v, ok := lookup(EnvMode); ok && v != "" {
		c.Mode = v
	}
	if v, ok := lookup(EnvCI); ok {
		c.CI = isTruthy(v)
	}
	if v, ok := lookup(EnvSessionCookie); ok && v != "" {
		c.Session.CookieValue = v
	}
	for _, d := range fixtures.Defaults() {
		if v, ok := lookup(d.Env); ok && v != "" {
			c.Fixtures[d.Name] = v
		}
	}
}

func (c *Config) Validate() error {
	errs := []error{}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("config: missing base url, set baseurl or "+EnvBaseURL))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("config: concurrency must be at least 1"))
	}
	if len(c.Viewports) == 0 {
		errs = append(errs, errors.New("config: no viewports"))
	}
	return errors.Join(errs...)
}

// isTruthy CI providers set CI to "true", "1" or their own name
func isTruthy(v string) bool {
	b, errParse := strconv.ParseBool(v)
	if errParse != nil {
		return v != ""
	}
	return b
}
