package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "reviewlist/internal/adapters/http_server"
	"reviewlist/internal/domain"
)

type stubLister struct {
	offset, limit int
	page          domain.ReviewsPage
	err           error
}

func (s *stubLister) ListReviews(ctx context.Context, offset, limit int) (domain.ReviewsPage, error) {
	s.offset, s.limit = offset, limit
	return s.page, s.err
}

func newReviewsServer(l *stubLister) http.Handler {
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: l})
	return srv.Mux()
}

func do(t *testing.T, h http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListReviews_DefaultsAndContract(t *testing.T) {
	l := &stubLister{page: domain.ReviewsPage{Items: []domain.Review{{FirstName: "Ana", Rating: 5}}, Count: 45}}
	h := newReviewsServer(l)

	rr := do(t, h, http.MethodGet, "/v1/reviews", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, l.offset)
	assert.Equal(t, 20, l.limit)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	page, err := domain.DecodePage(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 45, page.Count)
	assert.Equal(t, "Ana", page.Items[0].FirstName)
}

func TestListReviews_EmptyPageEncodesItems(t *testing.T) {
	h := newReviewsServer(&stubLister{page: domain.ReviewsPage{Count: 3}})
	rr := do(t, h, http.MethodGet, "/v1/reviews?offset=20&limit=20", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"items":[],"count":3}`, rr.Body.String())
}

func TestListReviews_ETag(t *testing.T) {
	h := newReviewsServer(&stubLister{page: domain.ReviewsPage{Count: 0}})
	first := do(t, h, http.MethodGet, "/v1/reviews", nil)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	again := do(t, h, http.MethodGet, "/v1/reviews", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, again.Code)
	assert.Equal(t, etag, again.Header().Get("ETag"))
}

func TestListReviews_BadParams(t *testing.T) {
	h := newReviewsServer(&stubLister{})
	for _, target := range []string{
		"/v1/reviews?limit=0",
		"/v1/reviews?limit=101",
		"/v1/reviews?limit=x",
		"/v1/reviews?offset=-1",
	} {
		rr := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"), target)
	}
}

func TestListReviews_RepoError(t *testing.T) {
	h := newReviewsServer(&stubLister{err: errors.New("db down")})
	rr := do(t, h, http.MethodGet, "/v1/reviews", nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var p map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "reviews unavailable", p["detail"])
}

func TestHealthz(t *testing.T) {
	rr := do(t, newReviewsServer(&stubLister{}), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}
