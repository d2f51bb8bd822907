package manifest

import (
	"strings"
	"testing"

	"github.com/foomo/auditwalker/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestIsValid(t *testing.T) {
	assert.NoError(t, Validate(Routes()))
}

func TestPathsAndLabelsAreUnique(t *testing.T) {
	paths := map[string]bool{}
	labels := map[string]bool{}
	for _, r := range Routes() {
		assert.False(t, paths[r.Path], r.Path)
		assert.False(t, labels[r.Label], r.Label)
		paths[r.Path] = true
		labels[r.Label] = true
	}
}

func TestSmokeIsSubsetOfFull(t *testing.T) {
	smokeRoutes := GetRoutes(vo.TagSmoke)
	fullRoutes := GetRoutes(vo.TagFull)
	require.NotEmpty(t, smokeRoutes)
	assert.Greater(t, len(fullRoutes), len(smokeRoutes))
	inFull := map[string]bool{}
	for _, r := range fullRoutes {
		assert.True(t, r.HasTag(vo.TagFull))
		inFull[r.Label] = true
	}
	for _, r := range smokeRoutes {
		assert.True(t, r.HasTag(vo.TagSmoke))
		assert.True(t, inFull[r.Label], r.Label)
	}
}

func TestAuthRoutesUseAuthPrefix(t *testing.T) {
	for _, r := range Routes() {
		if r.RequiresAuth {
			assert.True(t, strings.HasPrefix(r.Path, vo.AuthPrefix), r.Path)
		}
	}
}

func TestLighthouseRoutes(t *testing.T) {
	lh := GetLighthouseRoutes()
	require.NotEmpty(t, lh)
	for _, r := range lh {
		assert.True(t, r.HasTag(vo.TagLighthouse))
		assert.False(t, r.RequiresAuth)
	}
}

func TestForViewport(t *testing.T) {
	for _, r := range ForViewport(Routes(), vo.ViewportDesktop) {
		assert.NotEqual(t, vo.ViewportMobileOnly, r.Viewport, r.Label)
	}
	for _, r := range ForViewport(Routes(), vo.ViewportMobile) {
		assert.NotEqual(t, vo.ViewportDesktopOnly, r.Viewport, r.Label)
	}
}

func TestRoutesReturnsCopy(t *testing.T) {
	rs := Routes()
	rs[0].Label = "changed"
	assert.Equal(t, "home", Routes()[0].Label)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("FULL")
	require.NoError(t, err)
	assert.Equal(t, vo.TagFull, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, vo.TagSmoke, m)
	_, err = ParseMode("lighthouse")
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	err := Validate([]vo.RouteEntry{
		{Path: "/a", Label: "a", Tags: []vo.Tag{vo.TagSmoke}},
		{Path: "/a", Label: "a", Tags: []vo.Tag{vo.TagFull}},
		{Path: "/settings", Label: "settings", RequiresAuth: true, Tags: []vo.Tag{vo.TagFull}},
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `duplicate path "/a"`)
	assert.Contains(t, msg, `duplicate label "a"`)
	assert.Contains(t, msg, `smoke route "a"`)
	assert.Contains(t, msg, `"/settings" is not under "/app/"`)
}
