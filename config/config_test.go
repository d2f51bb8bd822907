package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	confComplete = `
---
baseurl: https://staging.nutri.example/
mode: full
viewports:
  - mobile
concurrency: 4
networkidletimeout: 5s
settledelay: 1s
ignorerobots: true
fixtures:
  productId: "3003"
session:
  cookiename: sb-session
...
`
	confMinimal = `
---
baseurl: https://www.nutri.example
...
`
)

func env(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	cnf, errCnf := Load([]byte(confComplete))
	require.NoError(t, errCnf)
	assert.Equal(t, "https://staging.nutri.example", cnf.BaseURL)
	assert.Equal(t, "full", cnf.Mode)
	assert.Equal(t, []string{"mobile"}, cnf.Viewports)
	assert.Equal(t, 4, cnf.Concurrency)
	assert.Equal(t, 5*time.Second, cnf.NetworkIdleTimeout)
	assert.Equal(t, time.Second, cnf.SettleDelay)
	assert.True(t, cnf.IgnoreRobots)
	assert.Equal(t, "3003", cnf.Fixtures["productId"])
	assert.Equal(t, "sb-session", cnf.Session.CookieName)

	cnf, errCnf = Load([]byte(confMinimal))
	require.NoError(t, errCnf)
	assert.Equal(t, "smoke", cnf.Mode)
	assert.Equal(t, 8*time.Second, cnf.NetworkIdleTimeout)
	assert.Equal(t, 2*time.Second, cnf.SettleDelay)
	assert.Equal(t, []string{"mobile", "desktop"}, cnf.Viewports)
	assert.NotNil(t, cnf.Fixtures)
	assert.NoError(t, cnf.Validate())
}

func TestApplyEnv(t *testing.T) {
	cnf, errCnf := Load([]byte(confMinimal))
	require.NoError(t, errCnf)
	cnf.ApplyEnv(env(map[string]string{
		EnvBaseURL:                    "http://localhost:3000/",
		EnvMode:                       "full",
		EnvCI:                         "true",
		EnvSessionCookie:              "abc",
		"AUDIT_FIXTURE_CATEGORY_SLUG": "snacks",
	}))
	assert.Equal(t, "http://localhost:3000", cnf.BaseURL)
	assert.Equal(t, "full", cnf.Mode)
	assert.True(t, cnf.CI)
	assert.True(t, cnf.Session.Enabled())
	assert.Equal(t, "snacks", cnf.Fixtures["categorySlug"])

	cnf.ApplyEnv(env(map[string]string{EnvCI: "false"}))
	assert.False(t, cnf.CI)
	cnf.ApplyEnv(env(map[string]string{EnvCI: "github"}))
	assert.True(t, cnf.CI)
}

func TestValidate(t *testing.T) {
	cnf := Default()
	cnf.Concurrency = 0
	err := cnf.Validate()
	assert.ErrorContains(t, err, "missing base url")
	assert.ErrorContains(t, err, "concurrency")
}
