package fixtures

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	r := NewRegistry(map[string]string{CategorySlug: "snacks"})
	v, err := r.Resolve(CategorySlug)
	require.NoError(t, err)
	assert.Equal(t, "snacks", v)

	v, err = r.Resolve(ProductID)
	require.NoError(t, err)
	assert.Equal(t, "2001", v)

	_, err = r.Resolve("nope")
	assert.Error(t, err)
}

func TestSetIsStable(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, r.Set(), r.Set())
	assert.Len(t, r.Set(), len(Defaults()))
}

func TestInject(t *testing.T) {
	s := Set{ProductID: "42", CompareIDs: "1,2"}
	p, err := s.Inject("/product/{productId}")
	require.NoError(t, err)
	assert.Equal(t, "/product/42", p)

	p, err = s.Inject("/compare?ids={compareIds}")
	require.NoError(t, err)
	assert.Equal(t, "/compare?ids=1,2", p)

	_, err = s.Inject("/recipes/{recipeSlug}")
	assert.ErrorContains(t, err, "recipeSlug")
}

func TestValidateReportsEveryBrokenFixture(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/product/2001", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/category/dairy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/recipes/overnight-oats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	r := NewRegistry(nil)
	checks := []Check{
		{Name: ProductID, Path: "/product/{productId}"},
		{Name: CategorySlug, Path: "/category/{categorySlug}"},
		{Name: RecipeSlug, Path: "/recipes/{recipeSlug}"},
	}
	err := Validate(context.Background(), NewClient(time.Second*5), ts.URL, "test", checks, r.Set())
	require.Error(t, err)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Len(t, validationErr.Failures, 2)

	msg := err.Error()
	assert.Contains(t, msg, ProductID)
	assert.Contains(t, msg, "HTTP 404")
	assert.Contains(t, msg, CategorySlug)
	assert.Contains(t, msg, "HTTP 500")
	assert.Contains(t, msg, "AUDIT_FIXTURE_PRODUCT_ID")
	assert.Contains(t, msg, SourceLocation)
	assert.NotContains(t, msg, RecipeSlug)
}

type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestValidateTransportErrors(t *testing.T) {
	r := NewRegistry(nil)
	err := Validate(context.Background(), failingDoer{}, "http://localhost:1", "", r.Checks(), r.Set())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Len(t, err.(*ValidationError).Failures, len(Defaults()))
}

func TestValidateAllGood(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "agent", r.Header.Get("User-Agent"))
	}))
	defer ts.Close()
	r := NewRegistry(nil)
	assert.NoError(t, Validate(context.Background(), ts.Client(), ts.URL+"/", "agent", r.Checks(), r.Set()))
}
