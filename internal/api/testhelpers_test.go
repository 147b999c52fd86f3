package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rosterd/rosterd/internal/auth"
	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/health"
	"github.com/rosterd/rosterd/internal/memstore"
	"github.com/rosterd/rosterd/internal/metrics"
	"github.com/rosterd/rosterd/internal/store"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memstore.Store
	codec   *auth.TokenCodec
	metrics *metrics.Metrics
	token   string
}

type serverOptions struct {
	reveal bool
	cache  ReadCache
	clock  func() time.Time
	// wrap replaces the store seen by the resource handlers.
	wrap func(*memstore.Store) store.Store
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	s := memstore.New()
	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:    "test-secret",
		Algorithm: "HS256",
		TTL:       30 * time.Minute,
	})
	require.NoError(t, err)

	m := metrics.New()
	authOpts := []auth.Option{auth.WithObserver(m)}
	if opts.clock != nil {
		authOpts = append(authOpts, auth.WithClock(opts.clock))
	}
	svc := auth.NewService(s, auth.NewHasher(4), codec, authOpts...)
	gate := auth.NewGate(codec, s, authOpts...)

	var resources store.Store = s
	if opts.wrap != nil {
		resources = opts.wrap(s)
	}

	handler := NewRouter(RouterConfig{
		Store:        resources,
		Gate:         gate,
		AuthHandlers: auth.NewHandlers(svc, opts.reveal),
		Cache:        opts.cache,
		Metrics:      m,
		Health: health.NewHandler(health.NewChecker(&health.CheckerConfig{
			Probes: []health.Probe{{Name: "store", Pinger: s}},
		})),
		CORSAllowedOrigins: []string{"*"},
	})

	return &testServer{t: t, handler: handler, store: s, codec: codec, metrics: m}
}

// login registers a@b.com and keeps its token for authorized requests.
func (ts *testServer) login() *testServer {
	ts.t.Helper()
	rec := ts.form("/auth/register/", url.Values{"username": {"a@b.com"}, "password": {"pw"}})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.form("/auth/token/", url.Values{"username": {"a@b.com"}, "password": {"pw"}})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())

	var tok auth.TokenResponse
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &tok))
	ts.token = tok.AccessToken
	return ts
}

func (ts *testServer) form(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = strings.NewReader(s)
		} else {
			data, err := json.Marshal(body)
			require.NoError(ts.t, err)
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorBody {
	t.Helper()
	return decode[apperrors.ErrorResponse](t, rec).Error
}

// mapCache is an in-process ReadCache that records deletes.
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(v, dst) == nil
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
