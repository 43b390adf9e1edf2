package adzuna

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-screener/internal/jobs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{AppID: "id", APIKey: "secret", Country: "gb", RequestsPerSecond: 1000}, nil)
	c.APIURL = srv.URL
	return c
}

func page(ids ...string) map[string]any {
	results := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		results = append(results, map[string]any{
			"title":        "Job " + id,
			"description":  "<p>Build <b>APIs</b></p>",
			"redirect_url": "https://www.adzuna.com/details/" + id,
		})
	}
	return map[string]any{"count": 100, "results": results}
}

func TestFetchPostingsPagesAndQuery(t *testing.T) {
	var paths []string
	var query url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		id := map[string]string{"/gb/search/1": "1", "/gb/search/2": "2"}[r.URL.Path]
		assert.NoError(t, json.NewEncoder(w).Encode(page(id)))
	})

	postings, err := c.FetchPostings(context.Background(), 2, 20)
	require.NoError(t, err)

	assert.Equal(t, []string{"/gb/search/1", "/gb/search/2"}, paths)
	assert.Equal(t, "id", query.Get("app_id"))
	assert.Equal(t, "secret", query.Get("app_key"))
	assert.Equal(t, "20", query.Get("results_per_page"))

	require.Len(t, postings, 2)
	assert.Equal(t, "Job 1", postings[0]["title"])
	assert.Equal(t, "Build APIs", postings[0]["description"])

	catalog, err := jobs.Load(postings, nil)
	require.NoError(t, err)
	_, err = catalog.Get("2")
	assert.NoError(t, err)
}

func TestFetchPostingsGzip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		assert.NoError(t, json.NewEncoder(gz).Encode(page("7")))
	})

	postings, err := c.FetchPostings(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "Job 7", postings[0]["title"])
}

func TestFetchPostingsStopsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(page("1"))
			return
		}
		_ = json.NewEncoder(w).Encode(page())
	})

	postings, err := c.FetchPostings(context.Background(), 5, 50)
	require.NoError(t, err)
	assert.Len(t, postings, 1)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchPostingsAbortsOnError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(page("1"))
	})

	postings, err := c.FetchPostings(context.Background(), 3, 50)
	require.Error(t, err)
	assert.Nil(t, postings)
	assert.Contains(t, err.Error(), "fetching page 2")
	assert.Contains(t, err.Error(), "401")
}

func TestFetchPostingsRejectsBadInput(t *testing.T) {
	c := New(Config{}, nil)
	_, err := c.FetchPostings(context.Background(), 0, 10)
	assert.Error(t, err)
}

func TestFetchPostingsHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchPostings(ctx, 1, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedact(t *testing.T) {
	u, err := url.Parse("https://api.adzuna.com/v1/api/jobs/us/search/1?app_id=a&app_key=secret")
	require.NoError(t, err)
	assert.NotContains(t, redact(u), "secret")
	assert.Contains(t, redact(u), "app_id=a")
}
