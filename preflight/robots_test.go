package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foomo/auditwalker/fixtures"
	"github.com/foomo/auditwalker/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robots = `User-agent: *
Disallow: /compare
Disallow: /app/

User-agent: foomo-auditwalker
Disallow: /learn/
`

func server(t *testing.T, agents *[]string) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*agents = append(*agents, r.UserAgent())
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(robots))
	}))
	t.Cleanup(ts.Close)
	return ts
}

var routes = []vo.RouteEntry{
	{Path: "/", Label: "home"},
	{Path: "/compare?ids={compareIds}", Label: "compare"},
	{Path: "/learn/data-quality", Label: "learn-data-quality"},
	{Path: "/app/dashboard", Label: "dashboard", RequiresAuth: true},
}

func TestRobots(t *testing.T) {
	agents := []string{}
	ts := server(t, &agents)
	set := fixtures.Set{"compareIds": "2001,2002"}

	forbidden, err := Robots(context.Background(), ts.Client(), ts.URL+"/", "googlebot", routes, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"/compare?ids=2001,2002"}, forbidden)
	assert.Equal(t, []string{"googlebot"}, agents)

	forbidden, err = Robots(context.Background(), ts.Client(), ts.URL, "foomo-auditwalker", routes, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"/learn/data-quality"}, forbidden)
}

func TestRobotsUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	_, err := Robots(context.Background(), fixtures.NewClient(0), url, "", routes, fixtures.Set{})
	assert.Error(t, err)
}
