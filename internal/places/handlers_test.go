package places

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, upstream http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", timeout)
	c.baseURL = srv.URL
	return c
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	return NewCache(mr.Addr(), time.Minute)
}

func doSearch(handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleSearch_RejectsShortQuery(t *testing.T) {
	handler := HandleSearch(NewClient("key", time.Second), nil)

	rec := doSearch(handler, "/api/foursquare/places?query=a")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch_RejectsMissingQuery(t *testing.T) {
	handler := HandleSearch(NewClient("key", time.Second), nil)

	rec := doSearch(handler, "/api/foursquare/places")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch_RejectsNonIntegerLimit(t *testing.T) {
	handler := HandleSearch(NewClient("key", time.Second), nil)

	rec := doSearch(handler, "/api/foursquare/places?query=pizza&limit=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch_UnconfiguredKey(t *testing.T) {
	handler := HandleSearch(NewClient("", time.Second), nil)

	rec := doSearch(handler, "/api/foursquare/places?query=pizza")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleSearch_PassesThroughUpstreamBody(t *testing.T) {
	var gotLimit, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":"Pizza Place"}]}`))
	}, time.Second)

	handler := HandleSearch(client, nil)

	rec := doSearch(handler, "/api/foursquare/places?query=pizza")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"results":[{"name":"Pizza Place"}]}`, rec.Body.String())
	require.Equal(t, "pizza", gotQuery)
	require.Equal(t, "5", gotLimit)
}

func TestHandleSearch_CapsLimit(t *testing.T) {
	var gotLimit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, time.Second)

	handler := HandleSearch(client, nil)

	rec := doSearch(handler, "/api/foursquare/places?query=pizza&limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "50", gotLimit)
}

func TestHandleSearch_ServesSecondRequestFromCache(t *testing.T) {
	upstreamCalls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, time.Second)

	handler := HandleSearch(client, newTestCache(t))

	rec := doSearch(handler, "/api/foursquare/places?query=pizza")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doSearch(handler, "/api/foursquare/places?query=pizza")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, upstreamCalls)
}

func TestHandleSearch_CacheKeyIncludesLimit(t *testing.T) {
	upstreamCalls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, time.Second)

	handler := HandleSearch(client, newTestCache(t))

	doSearch(handler, "/api/foursquare/places?query=pizza&limit=5")
	doSearch(handler, "/api/foursquare/places?query=pizza&limit=10")
	require.Equal(t, 2, upstreamCalls)
}

func TestHandleSearch_UpstreamTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, 50*time.Millisecond)

	handler := HandleSearch(client, nil)

	rec := doSearch(handler, "/api/foursquare/places?query=pizza")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleSearch_UpstreamErrorIsInternal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	handler := HandleSearch(client, nil)

	rec := doSearch(handler, "/api/foursquare/places?query=pizza")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
