package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foomo/auditwalker/driver/drivertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "product-detail-nutrition", Sanitize("product detail/nutrition"))
	assert.Equal(t, "compare--ids-2001-2002", Sanitize("compare?&ids=2001,2002"))
	assert.Equal(t, "already_safe-1", Sanitize("already_safe-1"))
}

func TestName(t *testing.T) {
	w := NewWriter("screenshots", "mobile", runTime)
	assert.Equal(t, "20260314-092653_mobile_product-nutrition.png", w.Name("product nutrition"))
	assert.Equal(t, filepath.Join("screenshots", "mobile"), w.Dir())
}

func TestResetRemovesStaleFiles(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, "desktop", runTime)
	require.NoError(t, os.MkdirAll(w.Dir(), 0o755))
	stale := filepath.Join(w.Dir(), "old.png")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, w.Reset())
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	info, err := os.Stat(w.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSave(t *testing.T) {
	w := NewWriter(t.TempDir(), "mobile", runTime)
	require.NoError(t, w.Reset())
	page := drivertest.NewPage()
	page.Shot = []byte("\x89PNG")

	path, err := w.Save(context.Background(), page, "home")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Dir(), "20260314-092653_mobile_home.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)
	assert.Equal(t, []string{"screenshot"}, page.CallLog())
}
