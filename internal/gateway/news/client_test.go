package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewatch/internal/market"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "k", Language: "en", Category: "business", MaxItems: 2, Timeout: time.Second})
}

func TestHeadlinesProjectsAndLimits(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, `"NVDA stock"`, q.Get("q"))
		assert.Equal(t, "k", q.Get("apikey"))
		assert.Equal(t, "business", q.Get("category"))
		_, _ = w.Write([]byte(`{"status":"success","results":[
			{"title":"NVDA beats","description":"record quarter","source_id":"reuters","pubDate":"2026-01-02 10:00:00"},
			{"title":"","description":"skipped"},
			{"title":"Chip stocks rally"},
			{"title":"third one"}]}`))
	})
	p, err := c.Headlines(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Get("#").Int())
	assert.Equal(t, "NVDA beats", p.Get("0.title").String())
	assert.Equal(t, "reuters", p.Get("0.source").String())
	assert.Equal(t, "Chip stocks rally", p.Get("1.title").String())
}

func TestHeadlinesErrorStatus(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","results":{"message":"quota"}}`))
	})
	_, err := c.Headlines(context.Background(), "AAPL")
	fe, ok := market.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, market.KindNews, fe.Kind)
	assert.Contains(t, fe.Error(), "quota")
}

func TestHeadlinesHTTPFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Headlines(context.Background(), "AAPL")
	fe, ok := market.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, fe.Status)
	assert.True(t, fe.Temporary())
}
