package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/adapters/persistence"
	"github.com/andrescamacho/skamkraft-go/internal/application/auth"
	"github.com/andrescamacho/skamkraft-go/internal/application/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/application/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/application/trading"
	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/domain/player"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	domainTrading "github.com/andrescamacho/skamkraft-go/internal/domain/trading"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/config"
)

// ErrInvalidToken is returned by Login when the API rejects the token
var ErrInvalidToken = errors.New("token rejected by the API")

// Recorders carries the metric sinks of each component. Nil fields are no-ops.
type Recorders struct {
	API     api.MetricsRecorder
	Cache   cache.Recorder
	Fleet   fleet.Recorder
	Trading trading.Recorder
}

// Deps are the process-level resources a session is built on
type Deps struct {
	// Durable backs the remembered token and the statistics ledger.
	// Nil keeps everything in memory.
	Durable    persistence.KeyValueStore
	Clock      shared.Clock
	Logger     *zap.Logger
	HTTPClient *http.Client
	Recorders  Recorders
}

// Status is a point-in-time view of every component
type Status struct {
	Authenticated bool                `json:"authenticated"`
	Agent         *player.Agent       `json:"agent,omitempty"`
	Client        api.ClientStats     `json:"client"`
	Fleet         domainFleet.Status  `json:"fleet"`
	Trading       domainTrading.Stats `json:"trading"`
	Breaker       string              `json:"circuitBreaker,omitempty"`
}

// Session owns one instance of each client component for the lifetime of a
// login. It replaces process-wide singletons: everything that shares the
// limiter, cache or token gets it from here.
type Session struct {
	cfg    *config.Config
	clock  shared.Clock
	logger *zap.Logger

	cache   *cache.Service
	limiter *api.RateLimiter
	retrier *api.Retrier
	breaker *api.CircuitBreaker
	tokens  *auth.TokenManager
	client  *api.SpaceTradersClient
	fleet   *fleet.Coordinator
	bot     *trading.Bot
	ledger  *ledger.Tracker

	mu    sync.Mutex
	agent *player.Agent

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New wires the components from cfg and starts the cache sweep.
// Close must be called to stop it.
func New(cfg *config.Config, deps Deps) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Clock == nil {
		deps.Clock = shared.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Durable == nil {
		deps.Durable = persistence.NewMemoryStore()
	}

	retryCfg := api.RetryConfig{
		MaxRetries:        cfg.API.Retry.MaxRetries,
		BaseDelay:         cfg.API.Retry.BaseDelay,
		MaxDelay:          cfg.API.Retry.MaxDelay,
		RetryableStatuses: cfg.API.Retry.RetryableStatuses,
		RetryableKinds:    cfg.API.Retry.RetryableKinds,
		JitterFraction:    cfg.API.Retry.Jitter,
	}
	if err := retryCfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to configure retries: %w", err)
	}

	ttls, err := cacheTTLs(cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}

	s := &Session{cfg: cfg, clock: deps.Clock, logger: deps.Logger}
	rec := deps.Recorders

	s.cache = cache.NewService(cache.Config{TTLs: ttls, CleanupInterval: cfg.Cache.CleanupInterval}, deps.Clock, rec.Cache, deps.Logger)
	s.limiter = api.NewRateLimiter(cfg.API.RateLimit.Requests, deps.Clock, rec.API, deps.Logger)
	s.retrier = api.NewRetrier(retryCfg, deps.Clock, rec.API, deps.Logger)
	if cfg.API.Retry.PaceRetriesEnabled() {
		s.retrier.SetBeforeRetry(s.limiter.Pace)
	}

	s.tokens = auth.NewTokenManager(persistence.NewMemoryStore(), deps.Durable, deps.Logger)
	s.client = api.NewSpaceTradersClient(
		api.ClientConfig{
			BaseURL:  cfg.API.BaseURL,
			Timeout:  cfg.API.Timeout,
			PageSize: cfg.API.Pagination.PageSize,
		},
		s.limiter, s.retrier, s.cache, s.tokens, rec.API, deps.Logger,
	)
	if deps.HTTPClient != nil {
		s.client.SetHTTPClient(deps.HTTPClient)
	}
	if cb := cfg.API.CircuitBreaker; cb.Enabled {
		s.breaker = api.NewCircuitBreaker(cb.MaxFailures, cb.Timeout, retryCfg.IsRetryable, deps.Clock)
		s.client.SetCircuitBreaker(s.breaker)
	}

	s.ledger = ledger.NewTracker(deps.Durable, deps.Clock, deps.Logger)
	if err := s.ledger.Load(context.Background()); err != nil {
		deps.Logger.Warn("statistics-load-failed", zap.Error(err))
	}

	s.fleet = fleet.NewCoordinator(s.client, fleet.Config{
		ArrivalMargin:      cfg.Fleet.ArrivalMargin,
		CooldownMargin:     cfg.Fleet.CooldownMargin,
		CooldownRetryDelay: cfg.Fleet.CooldownRetryDelay,
		HistorySize:        cfg.Fleet.HistorySize,
	}, deps.Clock, rec.Fleet, deps.Logger)
	s.fleet.SetTransactionRecorder(s.ledger)

	s.bot = trading.NewBot(s.client, trading.Config{
		ArrivalMargin: cfg.Fleet.ArrivalMargin,
		PageSize:      cfg.API.Pagination.PageSize,
		HistorySize:   cfg.Trading.HistorySize,
	}, deps.Clock, rec.Trading, deps.Logger)
	s.bot.SetTransactionRecorder(s.ledger)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cache.Start(ctx)
	}()

	return s, nil
}

func cacheTTLs(raw map[string]time.Duration) (map[cache.Category]time.Duration, error) {
	ttls := cache.DefaultTTLs()
	for name, ttl := range raw {
		category := cache.Category(strings.ToLower(name))
		if _, ok := ttls[category]; !ok {
			return nil, fmt.Errorf("unknown cache category %q", name)
		}
		ttls[category] = ttl
	}
	return ttls, nil
}

func (s *Session) Config() *config.Config          { return s.cfg }
func (s *Session) Client() *api.SpaceTradersClient { return s.client }
func (s *Session) Cache() *cache.Service           { return s.cache }
func (s *Session) Limiter() *api.RateLimiter       { return s.limiter }
func (s *Session) Tokens() *auth.TokenManager      { return s.tokens }
func (s *Session) Fleet() *fleet.Coordinator       { return s.fleet }
func (s *Session) Trading() *trading.Bot           { return s.bot }
func (s *Session) Ledger() *ledger.Tracker         { return s.ledger }

// CircuitBreaker is nil unless api.circuit_breaker.enabled is set
func (s *Session) CircuitBreaker() *api.CircuitBreaker { return s.breaker }

// Agent returns the agent loaded by the last Initialize
func (s *Session) Agent() (*player.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent, s.agent != nil
}

// Login stores token and checks it against the API before initializing.
// A rejected token is cleared again.
func (s *Session) Login(ctx context.Context, token string, remember bool) (*player.Agent, error) {
	if err := s.tokens.SetToken(ctx, token, remember); err != nil {
		return nil, err
	}

	valid, err := s.tokens.Validate(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !valid {
		s.tokens.ClearToken(ctx)
		return nil, ErrInvalidToken
	}

	return s.Initialize(ctx)
}

// Register creates a new agent and logs in with the returned token
func (s *Session) Register(ctx context.Context, req player.RegisterRequest, remember bool) (*player.Registration, error) {
	reg, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.SetToken(ctx, reg.Token, remember); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if _, err := s.Initialize(ctx); err != nil {
		return reg, err
	}
	return reg, nil
}

// Initialize loads the agent, records the starting credits on first run and
// syncs the fleet. A token left by an older client is migrated first.
func (s *Session) Initialize(ctx context.Context) (*player.Agent, error) {
	if migrated, err := s.tokens.MigrateLegacy(ctx); err != nil {
		s.logger.Warn("legacy-token-migration-failed", zap.Error(err))
	} else if migrated {
		s.logger.Info("legacy-token-migrated")
	}

	if !s.tokens.IsAuthenticated(ctx) {
		return nil, api.ErrAuthRequired
	}

	agent, err := s.client.FetchAgent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.SetStartCredits(ctx, agent.Credits); err != nil {
		s.logger.Warn("start-credits-save-failed", zap.Error(err))
	}

	status, err := s.fleet.SyncFleet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sync fleet: %w", err)
	}

	s.mu.Lock()
	s.agent = agent
	s.mu.Unlock()

	s.logger.Info("session-initialized",
		zap.String("agent", agent.Symbol),
		zap.Int64("credits", agent.Credits),
		zap.Int("ships", status.TotalShips),
	)
	return agent, nil
}

// Logout tears everything down in order: trading, queued requests, fleet,
// cache, token, statistics. It returns once all of it is done.
func (s *Session) Logout(ctx context.Context) error {
	s.bot.StopAutoTrading()
	s.bot.Reset()
	rejected := s.limiter.ClearQueue()
	s.fleet.Reset()
	s.cache.Clear()
	s.tokens.ClearToken(ctx)

	s.mu.Lock()
	s.agent = nil
	s.mu.Unlock()

	if err := s.ledger.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset statistics: %w", err)
	}

	s.logger.Info("session-logged-out", zap.Int("rejected_requests", rejected))
	return nil
}

// Status reports the client, limiter, cache, fleet and trading state
func (s *Session) Status(ctx context.Context) Status {
	status := Status{
		Authenticated: s.tokens.IsAuthenticated(ctx),
		Client:        s.client.Stats(),
		Fleet:         s.fleet.Status(),
		Trading:       s.bot.Stats(),
	}
	if agent, ok := s.Agent(); ok {
		status.Agent = agent
	}
	if s.breaker != nil {
		status.Breaker = s.breaker.State().String()
	}
	return status
}

// Close stops auto-trading, the fleet worker and the cache sweep
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.bot.StopAutoTrading()
		s.fleet.Close()
		s.cancel()
		s.wg.Wait()
	})
}
