package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-storefront/internal/models"
)

// fakeGateway is an httptest server standing in for the remote service. It
// counts calls per path and records the last request seen on each path.
type fakeGateway struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	last     map[string]*http.Request
	bodies   map[string][]byte
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
		last:     make(map[string]*http.Request),
		bodies:   make(map[string][]byte),
	}
	g.server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		var raw json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		body = raw
	}

	g.mu.Lock()
	g.calls[r.URL.Path]++
	g.last[r.URL.Path] = r.Clone(context.Background())
	g.bodies[r.URL.Path] = body
	h, ok := g.handlers[r.URL.Path]
	g.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (g *fakeGateway) handle(path string, h http.HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[path] = h
}

func (g *fakeGateway) respondJSON(path string, status int, body any) {
	g.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (g *fakeGateway) callCount(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[path]
}

func (g *fakeGateway) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *fakeGateway) lastRequest(path string) *http.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last[path]
}

func (g *fakeGateway) lastBody(path string) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bodies[path]
}

func (g *fakeGateway) client(timeout time.Duration) *GatewayClient {
	return NewGatewayClient(GatewayConfig{BaseURL: g.server.URL + "/", Timeout: timeout})
}

func TestGatewayClientTrimsBaseURL(t *testing.T) {
	c := NewGatewayClient(GatewayConfig{BaseURL: "https://gateway.example.com///"})
	assert.Equal(t, "https://gateway.example.com", c.BaseURL())
	assert.Equal(t, defaultGatewayTimeout, c.timeout)
}

func TestGatewayClientSend(t *testing.T) {
	g := newFakeGateway(t)
	g.handle("/echo", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "shop", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "M1", r.Header.Get("x-merchant-id"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	header := http.Header{}
	header.Set("x-merchant-id", "M1")
	resp, err := g.client(time.Second).send(context.Background(), gatewayRequest{
		step:   "test.echo",
		method: http.MethodPost,
		path:   "/echo",
		body:   map[string]string{"a": "b"},
		header: header,
		user:   "shop",
		pass:   "secret",
	})
	require.NoError(t, err)
	assert.True(t, resp.ok())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct{ OK bool }
	require.NoError(t, resp.decode(&out))
	assert.True(t, out.OK)
	assert.JSONEq(t, `{"a":"b"}`, string(g.lastBody("/echo")))
}

func TestGatewayClientReturnsErrorStatusAsResponse(t *testing.T) {
	g := newFakeGateway(t)
	g.respondJSON("/boom", http.StatusInternalServerError, map[string]string{"message": "down"})

	resp, err := g.client(time.Second).send(context.Background(), gatewayRequest{step: "test.boom", method: http.MethodGet, path: "/boom"})
	require.NoError(t, err)
	assert.False(t, resp.ok())
	assert.Equal(t, "down", upstreamMessage(resp.Body))
}

func TestGatewayClientTimeout(t *testing.T) {
	g := newFakeGateway(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	g.handle("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	_, err := g.client(50*time.Millisecond).send(context.Background(), gatewayRequest{step: "test.slow", method: http.MethodGet, path: "/slow"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNetworkTimeout), err)
}

func TestGatewayClientConnectionRefused(t *testing.T) {
	g := newFakeGateway(t)
	c := g.client(time.Second)
	g.server.Close()

	_, err := c.send(context.Background(), gatewayRequest{step: "test.down", method: http.MethodGet, path: "/x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNetworkTimeout))
}

func TestUpstreamMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"a"}`, "a"},
		{`{"responseMessage":"b"}`, "b"},
		{`{"responseDescription":"c"}`, "c"},
		{`{"error":"d"}`, "d"},
		{`{"error":{"code":1}}`, ""},
		{`not json`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, upstreamMessage([]byte(tt.body)), tt.body)
	}
}
