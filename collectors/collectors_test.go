package collectors

import (
	"errors"
	"sync"
	"testing"

	"github.com/foomo/auditwalker/driver/drivertest"
	"github.com/foomo/auditwalker/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(ci bool) (*drivertest.Page, *Collectors) {
	page := drivertest.NewPage()
	return page, Setup(page, DefaultAllowlist().Effective(ci), nil)
}

func TestNetwork500IsRecorded(t *testing.T) {
	page, c := setup(false)
	page.EmitResponse("https://api.nutri.example/v2/scores", 500)
	assert.Equal(t, []vo.NetworkError{{URL: "https://api.nutri.example/v2/scores", Status: 500}}, c.NetworkErrors())
	err := AssertNoErrors(c, "/product/2001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500 https://api.nutri.example/v2/scores")
}

func TestNetwork4xxAllowlist(t *testing.T) {
	page, c := setup(false)
	page.EmitResponse("https://db.nutri.example/rest/v1/favorites?select=*", 404)
	page.EmitResponse("https://db.nutri.example/rest/v1/favorites?select=*", 403)
	assert.Empty(t, c.NetworkErrors())
	assert.Equal(t, 2, c.Suppressed4xx())
	assert.NoError(t, AssertNoErrors(c, "/"))

	page.EmitResponse("https://db.nutri.example/rest/v1/favorites?select=*", 503)
	assert.Len(t, c.NetworkErrors(), 1)
	assert.Error(t, AssertNoErrors(c, "/"))
}

func TestNetworkFullAllowlistAndSuccess(t *testing.T) {
	page, c := setup(true)
	page.EmitResponse("https://www.nutri.example/favicon.ico", 500)
	page.EmitResponse("https://www.nutri.example/auth/callback?code=1", 502)
	page.EmitResponse("https://www.nutri.example/", 200)
	page.EmitResponse("https://www.nutri.example/old", 301)
	assert.Empty(t, c.NetworkErrors())
}

func TestConsoleAllowlist(t *testing.T) {
	page, c := setup(false)
	page.EmitConsole("error", "AuthSessionMissingError: Auth session missing!")
	page.EmitConsole("warning", "something deprecated")
	page.EmitConsole("error", "TypeError: cannot read properties of undefined (reading 'score')")
	assert.Equal(t, []string{"TypeError: cannot read properties of undefined (reading 'score')"}, c.ConsoleErrors())
	err := AssertNoErrors(c, "/search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading 'score'")
}

func TestConsoleLocalOnlyFailsInCI(t *testing.T) {
	page, c := setup(false)
	page.EmitConsole("error", "Missing Supabase URL")
	assert.Empty(t, c.ConsoleErrors())

	page, c = setup(true)
	page.EmitConsole("error", "Missing Supabase URL")
	assert.Equal(t, []string{"Missing Supabase URL"}, c.ConsoleErrors())
}

func TestPageErrors(t *testing.T) {
	page, c := setup(false)
	page.EmitPageError("ReferenceError: gtag is not defined")
	page.EmitPageError("chrome-extension://abc/content.js failed")
	assert.Equal(t, []string{"ReferenceError: gtag is not defined"}, c.PageErrors())
}

func TestAssertNoErrorsEnumeratesEverything(t *testing.T) {
	page, c := setup(false)
	page.EmitConsole("error", "first")
	page.EmitConsole("error", "second")
	page.EmitPageError("boom")
	page.EmitResponse("https://api.nutri.example/a", 500)
	page.EmitResponse("https://api.nutri.example/b", 404)
	err := AssertNoErrors(c, "/app/dashboard")
	var collected *CollectedError
	require.True(t, errors.As(err, &collected))
	assert.Len(t, collected.ConsoleErrors, 2)
	assert.Len(t, collected.NetworkErrors, 2)
	msg := err.Error()
	for _, s := range []string{"/app/dashboard", "first", "second", "boom", "500 https://api.nutri.example/a", "404 https://api.nutri.example/b"} {
		assert.Contains(t, msg, s)
	}
}

func TestConcurrentSignals(t *testing.T) {
	page, c := setup(false)
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); page.EmitConsole("error", "x") }()
		go func() { defer wg.Done(); page.EmitPageError("y") }()
		go func() { defer wg.Done(); page.EmitResponse("https://api/z", 500) }()
	}
	wg.Wait()
	assert.Len(t, c.ConsoleErrors(), 50)
	assert.Len(t, c.PageErrors(), 50)
	assert.Len(t, c.NetworkErrors(), 50)
}

func TestCollectorsAreIndependent(t *testing.T) {
	pageA, a := setup(false)
	_, b := setup(false)
	pageA.EmitPageError("only a")
	assert.Len(t, a.PageErrors(), 1)
	assert.Empty(t, b.PageErrors())
}
