package invariants

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/foomo/auditwalker/driver/drivertest"
	"github.com/foomo/auditwalker/vo"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
	<title>Nutri</title>
	<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
	<nav data-singleton="tab-bar"><a href="/">Home</a><a href="/search">Search</a></nav>
	<main>BODY</main>
</body>
</html>`

func getDocument(t *testing.T, body string) *Document {
	doc, err := NewDocument(SnapshotData{
		HTML:          strings.Replace(pageTemplate, "BODY", body, 1),
		ViewportWidth: 390,
		ScrollWidth:   390,
		ContentWidth:  390,
	})
	require.NoError(t, err)
	return doc
}

func checks(vs []vo.Violation) []string {
	names := []string{}
	for _, v := range vs {
		names = append(names, v.Check)
	}
	return names
}

func TestCleanPagePassesGlobal(t *testing.T) {
	doc := getDocument(t, `<h1>Oat milk</h1><img src="/oat.png" alt="Oat milk carton"><label for="q">Search</label><input id="q" type="search">`)
	assert.NoError(t, CheckGlobal(doc, "/"))
}

func TestRawI18nKey(t *testing.T) {
	doc := getDocument(t, `<h1>common.nav.title</h1><p>mail me at hello@nutri.example or see nutri.example/search.results</p>`)
	err := CheckGlobal(doc, "/")
	require.Error(t, err)
	vs := Violations{}
	require.True(t, errors.As(err, &vs))
	require.Len(t, vs, 1)
	assert.Equal(t, "no-raw-i18n-keys", vs[0].Check)
	assert.Equal(t, []string{"common.nav.title"}, vs[0].Evidence)
	assert.Contains(t, err.Error(), "common.nav.title")
}

func TestRawI18nKeyShape(t *testing.T) {
	hosts := getDocument(t, `<p>Visit learn.nutri.example for more, data from world.openfoodfacts.org.</p><p>api.nutri.example:8443 and www.nutri.app</p>`)
	assert.NoError(t, checkRawI18nKeys(hosts, "/learn/data-quality"))

	doc := getDocument(t, `<p>recipe.ingredients.title</p><p>profile.allergens.label and scanner.camera.permission.</p><p>nav.home</p><p>e.g. see node.js</p>`)
	err := checkRawI18nKeys(doc, "/")
	require.Error(t, err)
	finding := &Finding{}
	require.True(t, errors.As(err, &finding))
	assert.Equal(t, []string{"recipe.ingredients.title", "profile.allergens.label", "scanner.camera.permission", "nav.home"}, finding.Evidence)
}

func TestHiddenContentIsIgnored(t *testing.T) {
	doc := getDocument(t, `<div data-ia-hidden="1"><p>common.nav.title undefined</p><button></button></div><script>var x = "NaN"</script>`)
	assert.NoError(t, CheckGlobal(doc, "/"))
}

func TestForbiddenPlaceholders(t *testing.T) {
	doc := getDocument(t, `<p>Score: NaN</p><p>Band SCORE_BAND_C</p><p>[object Object]</p>`)
	r := RunCategory(doc, "/product/2001", CategoryGlobal, "")
	require.Len(t, r.Blocking, 1)
	assert.Equal(t, []string{"NaN", "[object Object]", "SCORE_BAND_C"}, r.Blocking[0].Evidence)

	learn := getDocument(t, `<p>when a value is undefined or NaN we say so</p>`)
	assert.NoError(t, CheckGlobal(learn, "/learn/data-quality"))
	assert.Error(t, CheckGlobal(learn, "/learn"))
}

func TestEmptyInteractiveAndImages(t *testing.T) {
	doc := getDocument(t, `
		<button></button>
		<a href="/x"><img src="/icon.svg" alt="Compare"></a>
		<button aria-label="Close"></button>
		<img src="/no-alt.png">
		<img src="/decor.png" role="presentation">`)
	r := RunCategory(doc, "/", CategoryGlobal, "")
	assert.Equal(t, []string{"no-empty-interactive", "images-have-alt"}, checks(r.Blocking))
	assert.Contains(t, r.Blocking[0].Message, "1 links or buttons")
	assert.Equal(t, []string{"/no-alt.png"}, r.Blocking[1].Evidence)
}

func TestZeroHeightClickable(t *testing.T) {
	doc := getDocument(t, `<button data-ia-w="80" data-ia-h="0">Save</button>`)
	r := RunCategory(doc, "/", CategoryGlobal, "")
	assert.Equal(t, []string{"no-zero-height-clickable"}, checks(r.Blocking))
}

func TestUUIDLeak(t *testing.T) {
	doc := getDocument(t, `<p>List 550e8400-e29b-41d4-a716-446655440000</p>`)
	r := RunCategory(doc, "/app/lists", CategoryGlobal, "")
	require.Len(t, r.Blocking, 1)
	assert.Equal(t, "no-uuid-in-text", r.Blocking[0].Check)
	assert.Equal(t, []string{"550e8400-e29b-41d4-a716-446655440000"}, r.Blocking[0].Evidence)
}

func TestTabBarSingleton(t *testing.T) {
	doc, err := NewDocument(SnapshotData{HTML: strings.Replace(pageTemplate, "BODY", `<nav data-singleton="tab-bar"><a href="/">Home</a></nav>`, 1)})
	require.NoError(t, err)
	errTwo := CheckGlobal(doc, "/")
	require.Error(t, errTwo)
	assert.Contains(t, errTwo.Error(), "tab bar: found 2, expected exactly 1")

	none, err := NewDocument(SnapshotData{HTML: `<html lang="en"><head><meta name="viewport" content="width=device-width"></head><body><p>hi</p></body></html>`})
	require.NoError(t, err)
	errNone := CheckGlobal(none, "/")
	require.Error(t, errNone)
	assert.Contains(t, errNone.Error(), "tab bar: found 0, expected exactly 1")
	assert.NoError(t, CheckGlobal(none, "/auth/login"))

	assert.NoError(t, CheckGlobal(getDocument(t, ""), "/"))
}

func TestComingSoon(t *testing.T) {
	assert.Error(t, CheckGlobal(getDocument(t, `<p>Recipes are Coming Soon!</p>`), "/recipes"))
	assert.Error(t, CheckGlobal(getDocument(t, `<div data-placeholder-banner>Work in progress</div>`), "/recipes"))
	assert.NoError(t, CheckGlobal(getDocument(t, `<div data-placeholder-banner hidden>Work in progress</div>`), "/recipes"))
}

func TestDocumentBasics(t *testing.T) {
	doc, err := NewDocument(SnapshotData{HTML: `<html><head><meta name="viewport" content="width=1024"></head><body><nav data-singleton="tab-bar"><a href="/">Home</a></nav></body></html>`})
	require.NoError(t, err)
	r := RunCategory(doc, "/", CategoryGlobal, "")
	assert.Equal(t, []string{"viewport-meta", "html-lang"}, checks(r.Blocking))
}

func TestInputLabels(t *testing.T) {
	doc := getDocument(t, `
		<input type="hidden" name="csrf">
		<label>Name <input name="name"></label>
		<input aria-label="Email" type="email">
		<input class="sr-only" data-ia-w="1" data-ia-h="1">
		<select name="diet"><option>Vegan</option></select>
		<button type="submit">Go</button>`)
	r := RunCategory(doc, "/app/settings", CategoryGlobal, "")
	require.Len(t, r.Blocking, 1)
	assert.Equal(t, "inputs-labelled", r.Blocking[0].Check)
	assert.Contains(t, r.Blocking[0].Message, "1 form inputs")
	assert.Contains(t, r.Blocking[0].Evidence[0], `<select name="diet">`)
}

func TestMobile(t *testing.T) {
	doc := getDocument(t, `<button data-ia-w="30" data-ia-h="30">+</button><button data-ia-w="48" data-ia-h="48">Add</button>`)
	doc.ScrollWidth = 420
	r := RunCategory(doc, "/", CategoryMobile, "")
	assert.Equal(t, []string{"no-horizontal-overflow"}, checks(r.Blocking))
	assert.Equal(t, []string{"touch-target-size"}, checks(r.Advisory))
	assert.Contains(t, r.Advisory[0].Message, "1 touch targets")
	assert.Contains(t, r.Blocking[0].Message, "420px")

	doc.ScrollWidth = 391
	assert.NoError(t, CheckMobile(doc, "/"))
}

func TestDesktopPrimaryNavIsAdvisory(t *testing.T) {
	doc := getDocument(t, `<nav data-singleton="primary-nav" data-ia-hidden="1"><a href="/app/dashboard">Dashboard</a></nav>`)
	r := RunCategory(doc, "/app/dashboard", CategoryDesktop, "")
	assert.Empty(t, r.Blocking)
	assert.Equal(t, []string{"primary-nav-visible"}, checks(r.Advisory))
	assert.Empty(t, RunCategory(doc, "/", CategoryDesktop, "").Advisory)
	assert.NoError(t, CheckDesktop(doc, "/app/dashboard"))
}

const productBody = `
	<h1>Oat drink</h1>
	<img data-product-image="primary" src="/p.png" alt="Oat drink 1l carton">
	<div role="tablist"><button>Overview</button></div>
	<h2>Nutrition</h2>
	<section data-panel="score-explanation"><p>Contains 3 ingredients</p></section>`

func TestProductPasses(t *testing.T) {
	assert.NoError(t, CheckProduct(getDocument(t, productBody), "/product/2001"))
}

func TestProductPluralization(t *testing.T) {
	doc := getDocument(t, productBody+`<p>Contains 1 ingredients</p><p>Showing 21 results</p><p>Page 1.1 items</p>`)
	err := CheckProduct(doc, "/product/2001")
	require.Error(t, err)
	vs := Violations{}
	require.True(t, errors.As(err, &vs))
	require.Len(t, vs, 1)
	assert.Equal(t, "pluralization", vs[0].Check)
	assert.Equal(t, []string{"1 ingredients"}, vs[0].Evidence)
}

func TestProductStructure(t *testing.T) {
	doc := getDocument(t, strings.Replace(productBody, `alt="Oat drink 1l carton"`, `alt="Product image"`, 1)+
		`<div role="tablist"></div><h2>nutrition</h2><section data-panel="score-explanation"></section><section data-panel="health-warnings"></section>`)
	r := RunCategory(doc, "/product/2001", CategoryProduct, "nutrition")
	assert.Equal(t, []string{"single-tablist", "single-score-explanation", "no-duplicate-headings", "primary-image-alt"}, checks(r.Blocking))
	for _, v := range r.Blocking {
		assert.Equal(t, "nutrition", v.Tab)
	}
}

func TestRecipesAndSettings(t *testing.T) {
	recipes := getDocument(t, `<button data-recipe-filter="vegan">Vegan</button><button data-recipe-filter="quick" aria-label="Quick"></button><button data-recipe-filter="gf"></button>`)
	r := RunCategory(recipes, "/recipes", CategoryRecipes, "")
	require.Len(t, r.Blocking, 1)
	assert.Contains(t, r.Blocking[0].Evidence[0], `data-recipe-filter="gf"`)

	settings := getDocument(t, `<section data-singleton="health-profile"></section><section data-singleton="health-profile"></section>`)
	err := CheckSettings(settings, "/app/settings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health profile: found 2, expected exactly 1")
}

func TestAdminLeaks(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "anon"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	doc := getDocument(t, `<pre>`+token+`</pre><p>role: service_role</p><p>from auth.users</p>`)
	r := RunCategory(doc, "/app/admin", CategoryAdmin, "")
	assert.Equal(t, []string{"no-privileged-role", "no-jwt", "no-internal-tables"}, checks(r.Blocking))
	jwtEvidence := r.Blocking[1].Evidence[0]
	assert.Contains(t, jwtEvidence, "alg=HS256")
	assert.Contains(t, jwtEvidence, "role=anon")
	assert.NotContains(t, jwtEvidence, token)
	assert.Equal(t, []string{"auth.users"}, r.Blocking[2].Evidence)
	assert.NoError(t, CheckAdmin(getDocument(t, `<p>Users: 12</p>`), "/app/admin"))
}

func TestOptionsFor(t *testing.T) {
	product := OptionsFor(vo.RouteEntry{Path: "/product/{productId}"}, vo.ViewportMobile)
	assert.True(t, product.IsMobile)
	assert.True(t, product.IsProductPage)
	assert.True(t, OptionsFor(vo.RouteEntry{Path: "/app/product/{productId}", RequiresAuth: true}, vo.ViewportDesktop).IsProductPage)
	assert.True(t, OptionsFor(vo.RouteEntry{Path: "/scan/result/{productEan}"}, vo.ViewportMobile).IsProductPage)
	assert.False(t, OptionsFor(vo.RouteEntry{Path: "/compare?ids={compareIds}"}, vo.ViewportMobile).IsProductPage)
	assert.True(t, OptionsFor(vo.RouteEntry{Path: "/recipes/{recipeSlug}"}, vo.ViewportMobile).IsRecipesPage)
	settings := OptionsFor(vo.RouteEntry{Path: "/app/settings", RequiresAuth: true}, vo.ViewportDesktop)
	assert.True(t, settings.IsSettingsPage)
	assert.True(t, settings.RequiresAuth)
	assert.False(t, settings.IsMobile)
	assert.True(t, OptionsFor(vo.RouteEntry{Path: "/app/admin/products", RequiresAuth: true}, vo.ViewportDesktop).IsAdminPage)

	assert.Equal(t, []Category{CategoryGlobal, CategoryMobile, CategoryProduct}, Categories(product))
	assert.Equal(t, []Category{CategoryGlobal, CategoryDesktop, CategorySettings}, Categories(settings))
}

func TestRunInvariantsForRoute(t *testing.T) {
	page := drivertest.NewPage()
	page.EvalResult = SnapshotData{
		HTML:          strings.Replace(pageTemplate, "BODY", productBody+`<p>Contains 1 ingredients</p><button data-ia-w="20" data-ia-h="20">i</button>`, 1),
		ViewportWidth: 390,
		ScrollWidth:   390,
		ContentWidth:  390,
	}
	opts := OptionsFor(vo.RouteEntry{Path: "/product/{productId}"}, vo.ViewportMobile)
	r, err := RunInvariantsForRoute(context.Background(), page, "/product/2001", opts)
	require.Error(t, err)
	assert.Equal(t, []string{"pluralization"}, checks(r.Blocking))
	assert.Equal(t, []string{"touch-target-size"}, checks(r.Advisory))
	assert.Equal(t, "Nutri", r.Structure.Title)
	assert.Equal(t, []string{"eval"}, page.CallLog())

	page.EvalErr = errors.New("target closed")
	_, err = RunInvariantsForRoute(context.Background(), page, "/product/2001", opts)
	assert.EqualError(t, err, "invariants: snapshot: target closed")
}

func TestAdvisoryOnlyIsNotAnError(t *testing.T) {
	page := drivertest.NewPage()
	page.EvalResult = SnapshotData{
		HTML:          strings.Replace(pageTemplate, "BODY", `<button data-ia-w="20" data-ia-h="20">i</button>`, 1),
		ViewportWidth: 390,
	}
	r, err := RunInvariantsForRoute(context.Background(), page, "/", vo.AuditOptions{IsMobile: true})
	assert.NoError(t, err)
	assert.Len(t, r.Advisory, 1)
}
