package web_test

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/gmetricd/internal/fixtures"
	"github.com/atlassian/gmetricd/pkg/healthcheck"
	"github.com/atlassian/gmetricd/pkg/store"
	"github.com/atlassian/gmetricd/pkg/web"
)

func check(msg string, status healthcheck.HealthyStatus) healthcheck.HealthcheckFunc {
	return func() (string, healthcheck.HealthyStatus) {
		return msg, status
	}
}

func newServer(t *testing.T, st *store.Store, healthChecks, deepChecks []healthcheck.HealthcheckFunc) *web.HttpServer {
	hs, err := web.NewHttpServer(fixtures.NewTestLogger(t), "127.0.0.1:0", st, healthChecks, deepChecks)
	require.NoError(t, err)
	return hs
}

func get(t *testing.T, hs *web.HttpServer, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	hs.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	hs := newServer(t, store.New(),
		[]healthcheck.HealthcheckFunc{check("flushed", healthcheck.Healthy)},
		[]healthcheck.HealthcheckFunc{check("flushed", healthcheck.Healthy), check("idle", healthcheck.Unhealthy)},
	)

	rec := get(t, hs, "/healthcheck")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("content-type"))
	assert.JSONEq(t, `{"ok":["flushed"],"failed":[]}`, rec.Body.String())

	rec = get(t, hs, "/deepcheck")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":["flushed"],"failed":["idle"]}`, rec.Body.String())
}

func TestMetricsDump(t *testing.T) {
	t.Parallel()
	st := store.New()
	st.IncrementCounter("requests", 2, 0.5)
	st.RecordTimer("latency", 3)
	st.SetGauge("queue", 9)
	st.SetStat("messages", "bad_lines_seen", 1)
	hs := newServer(t, st, nil, nil)

	rec := get(t, hs, "/metrics.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"stats": {"messages.bad_lines_seen": 1},
		"timers": {"latency": [3]},
		"counters": {"requests": 4},
		"gauges": {"queue": 9}
	}`, rec.Body.String())
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	hs := newServer(t, store.New(), nil, nil)
	rec := get(t, hs, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest("POST", "/metrics.json", nil)
	rec = httptest.NewRecorder()
	hs.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHttpServerServesAndShutsDown(t *testing.T) {
	t.Parallel()
	hs := newServer(t, store.New(), []healthcheck.HealthcheckFunc{check("ok", healthcheck.Healthy)}, nil)
	require.NoError(t, hs.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chDone := make(chan struct{})
	go func() {
		defer close(chDone)
		hs.Run(ctx)
	}()

	resp, err := http.Get("http://" + hs.Addr().String() + "/healthcheck")
	require.NoError(t, err)
	body, err := ioutil.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":["ok"],"failed":[]}`, string(body))

	cancel()
	select {
	case <-chDone:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenFailure(t *testing.T) {
	t.Parallel()
	hs := newServer(t, store.New(), nil, nil)
	require.NoError(t, hs.Listen())
	defer func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		hs.Run(ctx)
	}()

	other, err := web.NewHttpServer(fixtures.NewTestLogger(t), hs.Addr().String(), store.New(), nil, nil)
	require.NoError(t, err)
	assert.Error(t, other.Listen())
}
