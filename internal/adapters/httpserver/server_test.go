package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/httpserver"
	"github.com/andrescamacho/skamkraft-go/internal/application/session"
	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/config"
)

// fakeAPI serves the agent and a one-ship fleet. Ship detail requests wait
// on the gate when one is set, which keeps a task IN_PROGRESS.
type fakeAPI struct {
	mu   sync.Mutex
	gate chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/my/agent":
		_, _ = io.WriteString(w, `{"data":{"symbol":"SKAM","headquarters":"X1-A1","credits":1000}}`)
	case r.URL.Path == "/my/ships":
		_, _ = io.WriteString(w, `{"data":[{"symbol":"SKAM-1","nav":{"systemSymbol":"X1","waypointSymbol":"X1-A1","status":"DOCKED"},
			"frame":{"symbol":"FRAME_MINER"},"cargo":{"capacity":30,"units":0}}],"meta":{"total":1,"page":1,"limit":20}}`)
	default:
		f.mu.Lock()
		gate := f.gate
		f.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"not found","code":404}}`)
	}
}

type harness struct {
	api     *fakeAPI
	session *session.Session
	server  *httpserver.Server
	http    *httptest.Server
}

func newHarness(t *testing.T, registry *prometheus.Registry) *harness {
	t.Helper()

	fake := &fakeAPI{}
	upstream := httptest.NewServer(fake)
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.API.BaseURL = upstream.URL
	cfg.API.RateLimit.Requests = 50
	cfg.API.Retry.MaxRetries = 0

	sess, err := session.New(cfg, session.Deps{
		Clock: shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	_, err = sess.Login(context.Background(), "secret-token", false)
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Config{
		Session:     sess,
		Registry:    registry,
		EventBuffer: 8,
	})
	front := httptest.NewServer(srv.Handler())
	t.Cleanup(front.Close)

	return &harness{api: fake, session: sess, server: srv, http: front}
}

func (h *harness) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, h.http.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var health httpserver.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus int
		wantBody   string
	}{
		{name: "not_ready", ready: false, wantStatus: http.StatusServiceUnavailable, wantBody: "not_ready"},
		{name: "ready", ready: true, wantStatus: http.StatusOK, wantBody: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.server.SetReady(tt.ready)

			resp, body := h.do(t, http.MethodGet, "/ready", "")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var health httpserver.HealthResponse
			require.NoError(t, json.Unmarshal(body, &health))
			assert.Equal(t, tt.wantBody, health.Status)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("served_from_registry", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "skamkraft_test_total", Help: "test"})
		registry.MustRegister(counter)
		counter.Inc()
		h := newHarness(t, registry)

		resp, body := h.do(t, http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "skamkraft_test_total 1")
	})

	t.Run("absent_without_registry", func(t *testing.T) {
		h := newHarness(t, nil)

		resp, _ := h.do(t, http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStatusEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, http.MethodGet, "/status", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status session.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.Agent)
	assert.Equal(t, "SKAM", status.Agent.Symbol)
	assert.Equal(t, 1, status.Fleet.TotalShips)
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed_json", body: `{"type":`},
		{name: "unknown_type", body: `{"type":"DANCE","shipSymbol":"SKAM-1","waypoint":"X1-B2"}`},
		{name: "missing_waypoint", body: `{"type":"NAVIGATE","shipSymbol":"SKAM-1"}`},
		{name: "missing_ship", body: `{"type":"MINE","waypoint":"X1-AST"}`},
		{name: "delivery_without_contract", body: `{"type":"CONTRACT_DELIVERY","shipSymbol":"SKAM-1","waypoint":"X1-B2","tradeSymbol":"IRON_ORE","units":5}`},
		{name: "negative_units", body: `{"type":"MINE","shipSymbol":"SKAM-1","waypoint":"X1-AST","targetUnits":-1}`},
	}

	h := newHarness(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := h.do(t, http.MethodPost, "/tasks", tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
		})
	}
	assert.Empty(t, h.session.Fleet().PendingTasks())
}

func TestCreateTask_QueuesAndCanBeFetched(t *testing.T) {
	// Arrange
	h := newHarness(t, nil)

	// Act
	resp, body := h.do(t, http.MethodPost, "/tasks", `{"type":"NAVIGATE","shipSymbol":"SKAM-1","waypoint":"X1-B2","priority":7}`)

	// Assert
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var task domainFleet.Task
	require.NoError(t, json.Unmarshal(body, &task))
	assert.True(t, strings.HasPrefix(task.ID, "nav-"))
	assert.Equal(t, 7, task.Priority)
	assert.Equal(t, "X1-B2", task.Params.Waypoint)

	resp, _ = h.do(t, http.MethodGet, "/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelTask(t *testing.T) {
	// Arrange
	h := newHarness(t, nil)
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	h.api.mu.Lock()
	h.api.gate = gate
	h.api.mu.Unlock()

	coordinator := h.session.Fleet()
	running, err := coordinator.CreateNavigationTask("SKAM-1", "X1-B2", 0)
	require.NoError(t, err)
	pending, err := coordinator.CreateMiningTask("SKAM-1", "X1-AST", 0, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		active, ok := coordinator.ActiveTask()
		return ok && active.ID == running.ID
	}, 5*time.Second, 5*time.Millisecond)

	// Act
	unknown, _ := h.do(t, http.MethodDelete, "/tasks/nav-missing", "")
	inProgress, _ := h.do(t, http.MethodDelete, "/tasks/"+running.ID, "")
	cancelled, _ := h.do(t, http.MethodDelete, "/tasks/"+pending.ID, "")

	// Assert
	assert.Equal(t, http.StatusNotFound, unknown.StatusCode)
	assert.Equal(t, http.StatusConflict, inProgress.StatusCode)
	assert.Equal(t, http.StatusNoContent, cancelled.StatusCode)

	task, ok := coordinator.Task(pending.ID)
	require.True(t, ok)
	assert.Equal(t, domainFleet.TaskStatusCancelled, task.Status)
	release()
}

func TestListTasks(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.session.Fleet().CreateNavigationTask("SKAM-1", "X1-B2", 0)
	require.NoError(t, err)
	require.NoError(t, h.session.Fleet().WaitIdle(context.Background()))

	resp, body := h.do(t, http.MethodGet, "/tasks?limit=5", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks httpserver.TasksResponse
	require.NoError(t, json.Unmarshal(body, &tasks))
	assert.Nil(t, tasks.Active)
	require.Len(t, tasks.History, 1)
	assert.Equal(t, domainFleet.TaskStatusFailed, tasks.History[0].Status)

	resp, _ = h.do(t, http.MethodGet, "/tasks?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutesEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, http.MethodGet, "/routes?max=3&minMargin=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var routes httpserver.RoutesResponse
	require.NoError(t, json.Unmarshal(body, &routes))
	assert.Empty(t, routes.Routes)
	assert.Zero(t, routes.MarketsScanned)

	resp, _ = h.do(t, http.MethodGet, "/routes?max=lots", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventsStream(t *testing.T) {
	// Arrange
	h := newHarness(t, nil)
	conn := h.dial(t)

	// Act
	task, err := h.session.Fleet().CreateNavigationTask("SKAM-1", "X1-B2", 0)
	require.NoError(t, err)

	// Assert
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev domainFleet.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, domainFleet.EventTaskQueued, ev.Type)
	require.NotNil(t, ev.Task)
	assert.Equal(t, task.ID, ev.Task.ID)
}

func TestShutdown_ClosesEventStreams(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.server.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
			return
		}
	}
}

func TestCreateTask_LogsWithRequestID(t *testing.T) {
	// Arrange
	h := newHarness(t, nil)
	core, logs := observer.New(zap.InfoLevel)
	srv := httpserver.New(httpserver.Config{Session: h.session, Logger: zap.New(core)})
	front := httptest.NewServer(srv.Handler())
	defer front.Close()

	req, err := http.NewRequest(http.MethodPost, front.URL+"/tasks",
		strings.NewReader(`{"type":"NAVIGATE","shipSymbol":"SKAM-1","waypoint":"X1-B2"}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")

	// Act
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	entries := logs.FilterMessage("task-created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "http", entries[0].LoggerName)
}
