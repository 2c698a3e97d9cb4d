package transport_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/retry"
	"github.com/fwojciec/tranquility/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// waits records backoff waits instead of sleeping.
type waits struct {
	mu sync.Mutex
	d  []time.Duration
}

func (w *waits) sleep(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.d = append(w.d, d)
	return ctx.Err()
}

func (w *waits) all() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.d...)
}

// scripted answers each request with the next status in statuses, then 200.
func scripted(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		w.Header().Set("Content-Type", "application/json")
		if n < len(statuses) && statuses[n] != http.StatusOK {
			w.WriteHeader(statuses[n])
			fmt.Fprintf(w, `{"error":{"code":%d,"message":"upstream says no"}}`, statuses[n])
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newClient(t *testing.T, w *waits, opts ...transport.Option) *transport.Client {
	t.Helper()
	p := retry.DefaultPolicy()
	p.Jitter = func(time.Duration) time.Duration { return 0 }
	base := []transport.Option{
		transport.WithPolicy(p),
		transport.WithSleep(w.sleep),
		transport.WithLogger(zaptest.NewLogger(t)),
	}
	return transport.New(append(base, opts...)...)
}

func TestClient_Send(t *testing.T) {
	t.Parallel()

	t.Run("posts JSON and returns body", func(t *testing.T) {
		t.Parallel()
		var gotBody map[string]any
		var gotType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			gotType = r.Header.Get("Content-Type")
			b, _ := io.ReadAll(r.Body)
			json.Unmarshal(b, &gotBody)
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		w := &waits{}
		raw, err := newClient(t, w).Send(context.Background(), srv.URL, map[string]string{"hello": "world"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"candidates":[]}`, string(raw))
		assert.Equal(t, "application/json", gotType)
		assert.Equal(t, "world", gotBody["hello"])
		assert.Empty(t, w.all())
	})

	t.Run("four 429s then success takes five attempts", func(t *testing.T) {
		t.Parallel()
		srv, calls := scripted(t, 429, 429, 429, 429)
		w := &waits{}

		raw, err := newClient(t, w).Send(context.Background(), srv.URL, struct{}{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(raw))
		assert.Equal(t, int32(5), calls.Load())

		got := w.all()
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, got)
		var total time.Duration
		for _, d := range got {
			total += d
		}
		assert.Equal(t, 15*time.Second, total)
	})

	t.Run("persistent 429 exhausts", func(t *testing.T) {
		t.Parallel()
		srv, calls := scripted(t, 429, 429, 429, 429, 429, 429)
		w := &waits{}

		_, err := newClient(t, w).Send(context.Background(), srv.URL, struct{}{})
		require.Error(t, err)
		assert.ErrorIs(t, err, tranquility.ErrRateLimitExhausted)
		assert.NotErrorIs(t, err, tranquility.ErrFatal)
		assert.Equal(t, int32(5), calls.Load())
		assert.Len(t, w.all(), 4)
	})

	t.Run("other status is fatal without retry", func(t *testing.T) {
		t.Parallel()
		srv, calls := scripted(t, 400)
		w := &waits{}

		_, err := newClient(t, w).Send(context.Background(), srv.URL, struct{}{})
		require.Error(t, err)
		assert.ErrorIs(t, err, tranquility.ErrFatal)
		var se *transport.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 400, se.StatusCode)
		assert.Equal(t, "upstream says no", se.Message)
		assert.Equal(t, int32(1), calls.Load())
		assert.Empty(t, w.all())
	})

	t.Run("500 is fatal", func(t *testing.T) {
		t.Parallel()
		srv, calls := scripted(t, 500)
		_, err := newClient(t, &waits{}).Send(context.Background(), srv.URL, struct{}{})
		assert.ErrorIs(t, err, tranquility.ErrFatal)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("network errors exhaust", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		w := &waits{}

		_, err := newClient(t, w, transport.WithMaxRetries(3)).Send(context.Background(), url, struct{}{})
		require.Error(t, err)
		assert.ErrorIs(t, err, tranquility.ErrNetworkExhausted)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, w.all())
	})

	t.Run("non JSON success body is fatal", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}))
		defer srv.Close()
		_, err := newClient(t, &waits{}).Send(context.Background(), srv.URL, struct{}{})
		assert.ErrorIs(t, err, tranquility.ErrFatal)
	})

	t.Run("unencodable payload is a validation error", func(t *testing.T) {
		t.Parallel()
		_, err := newClient(t, &waits{}).Send(context.Background(), "http://unused", make(chan int))
		assert.ErrorIs(t, err, tranquility.ErrValidation)
	})

	t.Run("cancel during backoff stops", func(t *testing.T) {
		t.Parallel()
		srv, calls := scripted(t, 429, 429, 429, 429, 429)
		ctx, cancel := context.WithCancel(context.Background())
		c := transport.New(
			transport.WithSleep(func(ctx context.Context, d time.Duration) error {
				cancel()
				return retry.Sleep(ctx, d)
			}),
		)

		_, err := c.Send(ctx, srv.URL, struct{}{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("api key never reaches the logged error", func(t *testing.T) {
		t.Parallel()
		srv, _ := scripted(t, 429, 429)
		_, err := newClient(t, &waits{}, transport.WithMaxRetries(2)).Send(context.Background(), srv.URL+"/v1?key=secret-key", struct{}{})
		require.Error(t, err)
		assert.False(t, strings.Contains(err.Error(), "secret-key"))
	})
}

func TestClient_RoundTripper(t *testing.T) {
	t.Parallel()

	t.Run("replays body across 429s", func(t *testing.T) {
		t.Parallel()
		var bodies []string
		var mu sync.Mutex
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(b))
			mu.Unlock()
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		w := &waits{}
		hc := &http.Client{Transport: newClient(t, w).RoundTripper(nil)}
		resp, err := hc.Post(srv.URL, "application/json", strings.NewReader(`{"n":1}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{`{"n":1}`, `{"n":1}`, `{"n":1}`}, bodies)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, w.all())
	})

	t.Run("passes other statuses through", func(t *testing.T) {
		t.Parallel()
		srv, calls := scripted(t, 403)
		hc := &http.Client{Transport: newClient(t, &waits{}).RoundTripper(nil)}
		resp, err := hc.Post(srv.URL, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("exhaustion surfaces rate limit error", func(t *testing.T) {
		t.Parallel()
		srv, _ := scripted(t, 429, 429, 429)
		hc := &http.Client{Transport: newClient(t, &waits{}, transport.WithMaxRetries(2)).RoundTripper(nil)}
		_, err := hc.Post(srv.URL, "application/json", strings.NewReader(`{}`))
		assert.ErrorIs(t, err, tranquility.ErrRateLimitExhausted)
	})
}
