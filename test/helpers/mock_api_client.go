package helpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/domain/contract"
	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
)

// MockAPIClient is an in-memory SpaceTraders universe driven by a MockClock.
// Transit and cooldowns resolve as the clock advances, so handlers that
// sleep on the same clock observe arrivals and expired cooldowns.
type MockAPIClient struct {
	mu    sync.Mutex
	clock *shared.MockClock

	ships     map[string]*navigation.Ship
	arrivals  map[string]time.Time
	cooldowns map[string]time.Time
	waypoints map[string]system.Waypoint
	markets   map[string]market.Market
	credits   int64

	// TravelTime is the duration of every navigation
	TravelTime time.Duration

	// ExtractYield and ExtractGood describe each successful extraction
	ExtractYield int
	ExtractGood  string

	// ExtractCooldown is applied after each extraction
	ExtractCooldown time.Duration

	// extractErrors are returned by the next extractions, in order
	extractErrors []error

	errors map[string]error
	hooks  map[string]func(ship string)
	calls  []string

	inFlight    map[string]int
	maxInFlight map[string]int
}

// NewMockAPIClient creates an empty universe on clock
func NewMockAPIClient(clock *shared.MockClock) *MockAPIClient {
	return &MockAPIClient{
		clock:           clock,
		ships:           make(map[string]*navigation.Ship),
		arrivals:        make(map[string]time.Time),
		cooldowns:       make(map[string]time.Time),
		waypoints:       make(map[string]system.Waypoint),
		markets:         make(map[string]market.Market),
		errors:          make(map[string]error),
		hooks:           make(map[string]func(string)),
		inFlight:        make(map[string]int),
		maxInFlight:     make(map[string]int),
		credits:         100000,
		TravelTime:      30 * time.Second,
		ExtractYield:    5,
		ExtractGood:     "IRON_ORE",
		ExtractCooldown: 70 * time.Second,
	}
}

// AddShip registers a ship snapshot
func (m *MockAPIClient) AddShip(ship navigation.Ship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := ship
	m.ships[ship.Symbol] = &s
}

// AddWaypoint registers a waypoint
func (m *MockAPIClient) AddWaypoint(wp system.Waypoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waypoints[wp.Symbol] = wp
}

// AddMarket registers a marketplace waypoint and its trade goods
func (m *MockAPIClient) AddMarket(wp system.Waypoint, goods ...market.TradeGood) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !wp.HasTrait(system.TraitMarketplace) {
		wp.Traits = append(wp.Traits, system.Trait{Symbol: system.TraitMarketplace})
	}
	m.waypoints[wp.Symbol] = wp
	m.markets[wp.Symbol] = market.Market{Symbol: wp.Symbol, TradeGoods: goods}
}

// SetError makes every call of method fail with err; nil clears it
func (m *MockAPIClient) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// SetHook runs fn at the start of every call of method, outside the lock.
// Tests use it to hold a call until they release it.
func (m *MockAPIClient) SetHook(method string, fn func(ship string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.hooks, method)
		return
	}
	m.hooks[method] = fn
}

// QueueExtractErrors scripts failures for the next extractions
func (m *MockAPIClient) QueueExtractErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractErrors = append(m.extractErrors, errs...)
}

// CooldownConflict builds the API error returned on code 4000
func CooldownConflict() error {
	return &api.APIError{Status: 409, Code: api.CodeCooldownConflict, Message: "Ship action is still on cooldown"}
}

// Calls returns "Method SHIP" entries in call order
func (m *MockAPIClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount counts calls of one method
func (m *MockAPIClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	prefix := method + " "
	for _, c := range m.calls {
		if c == method || len(c) > len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// MaxConcurrent returns the highest number of overlapping calls seen for a ship
func (m *MockAPIClient) MaxConcurrent(shipSymbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight[shipSymbol]
}

// Credits returns the agent balance
func (m *MockAPIClient) Credits() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credits
}

// enter records a call and returns a release func and the scripted error
func (m *MockAPIClient) enter(method, ship string) (func(), error) {
	m.mu.Lock()
	m.calls = append(m.calls, method+" "+ship)
	m.inFlight[ship]++
	if m.inFlight[ship] > m.maxInFlight[ship] {
		m.maxInFlight[ship] = m.inFlight[ship]
	}
	err := m.errors[method]
	hook := m.hooks[method]
	m.mu.Unlock()

	if hook != nil {
		hook(ship)
	}

	return func() {
		m.mu.Lock()
		m.inFlight[ship]--
		m.mu.Unlock()
	}, err
}

// resolveLocked applies arrivals and cooldown expiry up to now
func (m *MockAPIClient) resolveLocked(ship *navigation.Ship) {
	now := m.clock.Now()
	if arrival, ok := m.arrivals[ship.Symbol]; ok && !now.Before(arrival) {
		ship.Nav.Status = navigation.NavStatusInOrbit
		ship.Nav.WaypointSymbol = ship.Nav.Route.Destination.Symbol
		delete(m.arrivals, ship.Symbol)
	}
	ship.Cooldown.ShipSymbol = ship.Symbol
	ship.Cooldown.RemainingSeconds = 0
	if expiry, ok := m.cooldowns[ship.Symbol]; ok {
		if remaining := expiry.Sub(now); remaining > 0 {
			ship.Cooldown.RemainingSeconds = int((remaining + time.Second - 1) / time.Second)
		} else {
			delete(m.cooldowns, ship.Symbol)
		}
	}
}

func (m *MockAPIClient) shipLocked(symbol string) (*navigation.Ship, error) {
	ship, ok := m.ships[symbol]
	if !ok {
		return nil, &api.APIError{Status: 404, Code: 404, Message: fmt.Sprintf("ship %s not found", symbol)}
	}
	m.resolveLocked(ship)
	return ship, nil
}

func (m *MockAPIClient) GetAllShips(ctx context.Context) ([]navigation.Ship, error) {
	done, err := m.enter("GetAllShips", "")
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]navigation.Ship, 0, len(m.ships))
	for _, ship := range m.ships {
		m.resolveLocked(ship)
		out = append(out, cloneShip(ship))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *MockAPIClient) GetShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error) {
	return m.getShip("GetShip", shipSymbol)
}

func (m *MockAPIClient) FetchShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error) {
	return m.getShip("FetchShip", shipSymbol)
}

func (m *MockAPIClient) getShip(method, shipSymbol string) (*navigation.Ship, error) {
	done, err := m.enter(method, shipSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ship, err := m.shipLocked(shipSymbol)
	if err != nil {
		return nil, err
	}
	copied := cloneShip(ship)
	return &copied, nil
}

func (m *MockAPIClient) OrbitShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error) {
	return m.setStatus("OrbitShip", shipSymbol, navigation.NavStatusInOrbit)
}

func (m *MockAPIClient) DockShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error) {
	return m.setStatus("DockShip", shipSymbol, navigation.NavStatusDocked)
}

func (m *MockAPIClient) setStatus(method, shipSymbol string, status navigation.NavStatus) (*navigation.NavResult, error) {
	done, err := m.enter(method, shipSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ship, err := m.shipLocked(shipSymbol)
	if err != nil {
		return nil, err
	}
	if ship.InTransit() {
		return nil, &api.APIError{Status: 400, Code: 4214, Message: "ship is in transit"}
	}
	ship.Nav.Status = status
	return &navigation.NavResult{Nav: ship.Nav}, nil
}

func (m *MockAPIClient) NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*navigation.NavigateResult, error) {
	done, err := m.enter("NavigateShip", shipSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ship, err := m.shipLocked(shipSymbol)
	if err != nil {
		return nil, err
	}
	if !ship.InOrbit() {
		return nil, &api.APIError{Status: 400, Code: 4236, Message: "ship is not in orbit"}
	}

	origin := m.waypoints[ship.Nav.WaypointSymbol]
	dest := m.waypoints[waypointSymbol]
	now := m.clock.Now()
	arrival := now.Add(m.TravelTime)

	ship.Nav.Status = navigation.NavStatusInTransit
	ship.Nav.Route = navigation.ShipRoute{
		Origin:        navigation.RouteEndpoint{Symbol: ship.Nav.WaypointSymbol, X: origin.X, Y: origin.Y},
		Destination:   navigation.RouteEndpoint{Symbol: waypointSymbol, X: dest.X, Y: dest.Y},
		DepartureTime: now.Format(time.RFC3339),
		Arrival:       arrival.Format(time.RFC3339),
	}
	ship.Nav.WaypointSymbol = waypointSymbol
	m.arrivals[shipSymbol] = arrival

	return &navigation.NavigateResult{Nav: ship.Nav, Fuel: ship.Fuel}, nil
}

func (m *MockAPIClient) ExtractResources(ctx context.Context, shipSymbol string, survey *navigation.Survey) (*navigation.ExtractionResult, error) {
	done, err := m.enter("ExtractResources", shipSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.extractErrors) > 0 {
		next := m.extractErrors[0]
		m.extractErrors = m.extractErrors[1:]
		return nil, next
	}

	ship, err := m.shipLocked(shipSymbol)
	if err != nil {
		return nil, err
	}
	if ship.Cooldown.RemainingSeconds > 0 {
		return nil, CooldownConflict()
	}

	units := m.ExtractYield
	if free := ship.CargoSpace(); units > free {
		units = free
	}
	addCargo(ship, m.ExtractGood, units)
	m.cooldowns[shipSymbol] = m.clock.Now().Add(m.ExtractCooldown)
	m.resolveLocked(ship)

	result := &navigation.ExtractionResult{Cooldown: ship.Cooldown, Cargo: cloneShip(ship).Cargo}
	result.Extraction.ShipSymbol = shipSymbol
	result.Extraction.Yield = navigation.ExtractionYield{Symbol: m.ExtractGood, Units: units}
	return result, nil
}

func (m *MockAPIClient) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*contract.DeliverResult, error) {
	done, err := m.enter("DeliverContract", shipSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ship, err := m.shipLocked(shipSymbol)
	if err != nil {
		return nil, err
	}
	if ship.CargoUnitsOf(tradeSymbol) < units {
		return nil, &api.APIError{Status: 400, Code: 4218, Message: "insufficient cargo"}
	}
	addCargo(ship, tradeSymbol, -units)

	result := &contract.DeliverResult{}
	result.Contract.ID = contractID
	result.Cargo.Capacity = ship.Cargo.Capacity
	result.Cargo.Units = ship.Cargo.Units
	return result, nil
}

func (m *MockAPIClient) GetWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*system.Waypoint, error) {
	done, err := m.enter("GetWaypoint", waypointSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	wp, ok := m.waypoints[waypointSymbol]
	if !ok {
		return nil, &api.APIError{Status: 404, Code: 404, Message: "waypoint not found"}
	}
	return &wp, nil
}

func (m *MockAPIClient) ListWaypoints(ctx context.Context, systemSymbol string, query api.WaypointQuery) (*api.Page[system.Waypoint], error) {
	done, err := m.enter("ListWaypoints", systemSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matching []system.Waypoint
	for _, wp := range m.waypoints {
		if wp.SystemSymbol != systemSymbol {
			continue
		}
		keep := true
		for _, trait := range query.Traits {
			if !wp.HasTrait(trait) {
				keep = false
			}
		}
		if keep {
			matching = append(matching, wp)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].Symbol < matching[j].Symbol })

	page, limit := query.Page, query.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > len(matching) {
		start = len(matching)
	}
	end := start + limit
	if end > len(matching) {
		end = len(matching)
	}

	return &api.Page[system.Waypoint]{
		Items: matching[start:end],
		Meta:  api.Meta{Total: len(matching), Page: page, Limit: limit},
	}, nil
}

func (m *MockAPIClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*market.Market, error) {
	done, err := m.enter("GetMarket", waypointSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markets[waypointSymbol]
	if !ok {
		return nil, &api.APIError{Status: 404, Code: 404, Message: "market not found"}
	}
	mk.TradeGoods = append([]market.TradeGood(nil), mk.TradeGoods...)
	return &mk, nil
}

func (m *MockAPIClient) PurchaseCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*market.TradeResult, error) {
	return m.trade("PurchaseCargo", shipSymbol, tradeSymbol, units, true)
}

func (m *MockAPIClient) SellCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*market.TradeResult, error) {
	return m.trade("SellCargo", shipSymbol, tradeSymbol, units, false)
}

func (m *MockAPIClient) trade(method, shipSymbol, tradeSymbol string, units int, buying bool) (*market.TradeResult, error) {
	done, err := m.enter(method, shipSymbol)
	defer done()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ship, err := m.shipLocked(shipSymbol)
	if err != nil {
		return nil, err
	}
	if !ship.IsDocked() {
		return nil, &api.APIError{Status: 400, Code: 4244, Message: "ship is not docked"}
	}

	mk, ok := m.markets[ship.Nav.WaypointSymbol]
	if !ok {
		return nil, &api.APIError{Status: 404, Code: 404, Message: "no market at waypoint"}
	}
	good, ok := mk.Good(tradeSymbol)
	if !ok {
		return nil, &api.APIError{Status: 400, Code: 4601, Message: "good not traded here"}
	}

	price := good.SellPrice
	txType := "SELL"
	if buying {
		if units > ship.CargoSpace() {
			return nil, &api.APIError{Status: 400, Code: 4228, Message: "insufficient cargo space"}
		}
		price = good.PurchasePrice
		txType = "PURCHASE"
		addCargo(ship, tradeSymbol, units)
		m.credits -= int64(price * units)
	} else {
		if ship.CargoUnitsOf(tradeSymbol) < units {
			return nil, &api.APIError{Status: 400, Code: 4219, Message: "insufficient cargo units"}
		}
		addCargo(ship, tradeSymbol, -units)
		m.credits += int64(price * units)
	}

	result := &market.TradeResult{
		Transaction: market.Transaction{
			WaypointSymbol: ship.Nav.WaypointSymbol,
			ShipSymbol:     shipSymbol,
			TradeSymbol:    tradeSymbol,
			Type:           txType,
			Units:          units,
			PricePerUnit:   price,
			TotalPrice:     price * units,
			Timestamp:      m.clock.Now().Format(time.RFC3339),
		},
	}
	result.Agent.Credits = m.credits
	result.Cargo.Capacity = ship.Cargo.Capacity
	result.Cargo.Units = ship.Cargo.Units
	return result, nil
}

func addCargo(ship *navigation.Ship, symbol string, units int) {
	for i := range ship.Cargo.Inventory {
		if ship.Cargo.Inventory[i].Symbol == symbol {
			ship.Cargo.Inventory[i].Units += units
			ship.Cargo.Units += units
			if ship.Cargo.Inventory[i].Units <= 0 {
				ship.Cargo.Inventory = append(ship.Cargo.Inventory[:i], ship.Cargo.Inventory[i+1:]...)
			}
			return
		}
	}
	if units > 0 {
		ship.Cargo.Inventory = append(ship.Cargo.Inventory, navigation.CargoItem{Symbol: symbol, Name: symbol, Units: units})
		ship.Cargo.Units += units
	}
}

func cloneShip(ship *navigation.Ship) navigation.Ship {
	out := *ship
	out.Cargo.Inventory = append([]navigation.CargoItem(nil), ship.Cargo.Inventory...)
	out.Mounts = append([]navigation.ShipMount(nil), ship.Mounts...)
	out.Modules = append([]navigation.ShipComponent(nil), ship.Modules...)
	return out
}
