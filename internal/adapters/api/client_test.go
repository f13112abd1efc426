package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/domain/player"
)

// memoryTokens is a TokenProvider backed by a variable
type memoryTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memoryTokens) Token(context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *memoryTokens) set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// fakeServer counts requests per "METHOD path" and serves canned replies
type fakeServer struct {
	mu       sync.Mutex
	calls    map[string]int
	bodies   map[string]string
	auth     map[string]string
	handlers map[string]http.HandlerFunc
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		calls:    make(map[string]int),
		bodies:   make(map[string]string),
		auth:     make(map[string]string),
		handlers: make(map[string]http.HandlerFunc),
	}
}

func (f *fakeServer) handle(route string, fn http.HandlerFunc) {
	f.handlers[route] = fn
}

func (f *fakeServer) reply(route string, status int, body string) {
	f.handle(route, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls[route]++
	f.bodies[route] = string(body)
	f.auth[route] = r.Header.Get("Authorization")
	handler, ok := f.handlers[route]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (f *fakeServer) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeServer) lastBody(route string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[route]
}

func (f *fakeServer) lastAuth(route string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[route]
}

func newTestClient(t *testing.T, fake *fakeServer, tokens api.TokenProvider) (*api.SpaceTradersClient, *cache.Service) {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	clock := newMockClock()
	limiter := api.NewRateLimiter(2, clock, nil, nil)
	retrier := api.NewRetrier(noJitterConfig(3), clock, nil, nil)
	cacheSvc := cache.NewService(cache.Config{}, clock, nil, nil)
	client := api.NewSpaceTradersClient(api.ClientConfig{BaseURL: server.URL, PageSize: 2}, limiter, retrier, cacheSvc, tokens, nil, nil)
	return client, cacheSvc
}

const agentBody = `{"data":{"accountId":"acc-1","symbol":"NOVA","headquarters":"X1-AB12-A1","credits":175000,"startingFaction":"COSMIC","shipCount":2}}`

func TestClient_RegisterThenCachedAgentAndInvalidationOnSell(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("POST /register", http.StatusCreated, `{"data":{"token":"tok-123","agent":{"symbol":"NOVA","credits":175000}}}`)
	fake.reply("GET /my/agent", http.StatusOK, agentBody)
	fake.reply("POST /my/ships/NOVA-1/sell", http.StatusCreated,
		`{"data":{"agent":{"symbol":"NOVA","credits":176000},"cargo":{"capacity":40,"units":0},"transaction":{"shipSymbol":"NOVA-1","tradeSymbol":"IRON_ORE","type":"SELL","units":10,"pricePerUnit":100,"totalPrice":1000}}}`)
	tokens := &memoryTokens{}
	client, _ := newTestClient(t, fake, tokens)
	ctx := context.Background()

	// Act
	reg, err := client.Register(ctx, player.RegisterRequest{Symbol: "NOVA", Faction: "COSMIC"})
	require.NoError(t, err)
	tokens.set(reg.Token)

	first, err := client.GetAgent(ctx)
	require.NoError(t, err)
	second, err := client.GetAgent(ctx)
	require.NoError(t, err)

	_, err = client.SellCargo(ctx, "NOVA-1", "IRON_ORE", 10)
	require.NoError(t, err)
	_, err = client.GetAgent(ctx)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "tok-123", reg.Token)
	assert.Equal(t, "NOVA", first.Symbol)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, fake.count("GET /my/agent"), "sale must invalidate the cached agent")
	assert.Equal(t, "Bearer tok-123", fake.lastAuth("GET /my/agent"))
	assert.Empty(t, fake.lastAuth("POST /register"))
	assert.Contains(t, fake.lastBody("POST /my/ships/NOVA-1/sell"), `"symbol":"IRON_ORE"`)
}

func TestClient_FetchShipBypassesCachedSnapshot(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	var mu sync.Mutex
	remaining := 4
	fake.handle("GET /my/ships/NOVA-1", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"data":{"symbol":"NOVA-1","cooldown":{"shipSymbol":"NOVA-1","remainingSeconds":%d}}}`, remaining)
	})
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})
	ctx := context.Background()

	_, err := client.GetShip(ctx, "NOVA-1")
	require.NoError(t, err)
	mu.Lock()
	remaining = 0
	mu.Unlock()

	// Act
	cached, err := client.GetShip(ctx, "NOVA-1")
	require.NoError(t, err)
	fresh, err := client.FetchShip(ctx, "NOVA-1")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 4, cached.Cooldown.RemainingSeconds)
	assert.Equal(t, 0, fresh.Cooldown.RemainingSeconds)
	assert.Equal(t, 2, fake.count("GET /my/ships/NOVA-1"))
}

func TestClient_AuthRequiredWithoutNetworkCall(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("GET /my/agent", http.StatusOK, agentBody)
	client, _ := newTestClient(t, fake, &memoryTokens{})

	// Act
	_, err := client.GetAgent(context.Background())

	// Assert
	assert.True(t, errors.Is(err, api.ErrAuthRequired))
	assert.Equal(t, 0, fake.count("GET /my/agent"))
}

func TestClient_NormalizesErrorEnvelope(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("POST /my/ships/NOVA-1/extract", http.StatusConflict,
		`{"error":{"message":"Ship is on cooldown","code":4000,"data":{"cooldown":{"remainingSeconds":42}}}}`)
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})

	// Act
	_, err := client.ExtractResources(context.Background(), "NOVA-1", nil)

	// Assert
	require.Error(t, err)
	apiErr, ok := api.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, api.CodeCooldownConflict, apiErr.Code)
	assert.Equal(t, "Ship is on cooldown", apiErr.Message)
	assert.Contains(t, string(apiErr.Data), "remainingSeconds")
	assert.Equal(t, 1, fake.count("POST /my/ships/NOVA-1/extract"), "business errors are not retried")
}

func TestClient_RetriesTransientStatusInsideOneCall(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	attempts := 0
	fake.handle("GET /my/ships/NOVA-1", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"symbol":"NOVA-1"}}`)
	})
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})

	// Act
	ship, err := client.GetShip(context.Background(), "NOVA-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "NOVA-1", ship.Symbol)
	assert.Equal(t, 3, fake.count("GET /my/ships/NOVA-1"))
	assert.Equal(t, int64(1), client.Stats().RateLimiter.TotalRequests)
}

func TestClient_PostWithoutBodySendsEmptyObject(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("POST /my/ships/NOVA-1/orbit", http.StatusOK, `{"data":{"nav":{"status":"IN_ORBIT"}}}`)
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})

	// Act
	result, err := client.OrbitShip(context.Background(), "NOVA-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "{}", fake.lastBody("POST /my/ships/NOVA-1/orbit"))
	assert.EqualValues(t, "IN_ORBIT", result.Nav.Status)
}

func TestClient_NavigateInvalidatesShipEntries(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("GET /my/ships/NOVA-1", http.StatusOK, `{"data":{"symbol":"NOVA-1"}}`)
	fake.reply("GET /my/ships/NOVA-2", http.StatusOK, `{"data":{"symbol":"NOVA-2"}}`)
	fake.reply("POST /my/ships/NOVA-1/navigate", http.StatusOK, `{"data":{"nav":{"status":"IN_TRANSIT"},"fuel":{"current":80,"capacity":100}}}`)
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})
	ctx := context.Background()

	_, _ = client.GetShip(ctx, "NOVA-1")
	_, _ = client.GetShip(ctx, "NOVA-2")

	// Act
	_, err := client.NavigateShip(ctx, "NOVA-1", "X1-AB12-B2")
	require.NoError(t, err)
	_, _ = client.GetShip(ctx, "NOVA-1")
	_, _ = client.GetShip(ctx, "NOVA-2")

	// Assert
	assert.Equal(t, 2, fake.count("GET /my/ships/NOVA-1"))
	assert.Equal(t, 1, fake.count("GET /my/ships/NOVA-2"))
	assert.Contains(t, fake.lastBody("POST /my/ships/NOVA-1/navigate"), `"waypointSymbol":"X1-AB12-B2"`)
}

func TestClient_FailedMutationStillInvalidates(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("GET /my/agent", http.StatusOK, agentBody)
	fake.reply("POST /my/ships/NOVA-1/purchase", http.StatusBadRequest, `{"error":{"message":"insufficient funds","code":4600}}`)
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})
	ctx := context.Background()
	_, _ = client.GetAgent(ctx)

	// Act
	_, err := client.PurchaseCargo(ctx, "NOVA-1", "FUEL", 5)
	_, _ = client.GetAgent(ctx)

	// Assert
	assert.True(t, api.HasCode(err, 4600))
	assert.Equal(t, 2, fake.count("GET /my/agent"))
}

func TestClient_GetAllShipsConcatenatesPages(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.handle("GET /my/ships", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = io.WriteString(w, `{"data":[{"symbol":"S-1"},{"symbol":"S-2"}],"meta":{"total":3,"page":1,"limit":2}}`)
		default:
			_, _ = io.WriteString(w, `{"data":[{"symbol":"S-3"}],"meta":{"total":3,"page":2,"limit":2}}`)
		}
	})
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})

	// Act
	ships, err := client.GetAllShips(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, ships, 3)
	assert.Equal(t, "S-3", ships[2].Symbol)
	assert.Equal(t, 2, fake.count("GET /my/ships"))
}

func TestClient_GetAllShipsStopsOnEmptyPage(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.handle("GET /my/ships", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = io.WriteString(w, `{"data":[{"symbol":"S-1"},{"symbol":"S-2"}],"meta":{"total":50,"page":1,"limit":2}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[],"meta":{"total":50,"page":2,"limit":2}}`)
	})
	client, _ := newTestClient(t, fake, &memoryTokens{token: "tok"})

	// Act
	ships, err := client.GetAllShips(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Len(t, ships, 2)
	assert.Equal(t, 2, fake.count("GET /my/ships"))
}

func TestClient_StatusNeedsNoToken(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	fake.reply("GET /", http.StatusOK, `{"status":"SpaceTraders is currently online","version":"v2.3.0","resetDate":"2025-01-05"}`)
	client, _ := newTestClient(t, fake, nil)

	// Act
	status, err := client.GetStatus(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(status.Status, "SpaceTraders"))
}

func TestClient_InvalidRegistrationNeverHitsNetwork(t *testing.T) {
	// Arrange
	fake := newFakeServer()
	client, _ := newTestClient(t, fake, nil)

	// Act
	_, err := client.Register(context.Background(), player.RegisterRequest{Symbol: "AB", Faction: "COSMIC"})

	// Assert
	assert.Error(t, err)
	assert.Equal(t, 0, fake.count("POST /register"))
}
