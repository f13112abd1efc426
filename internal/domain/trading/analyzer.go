package trading

import (
	"sort"
)

// FindBestTradeRoutes evaluates every ordered pair of distinct snapshots and
// every good priced at both, keeping routes with a positive profit.
//
// Routes are ordered by score (profit per unit times the smaller trade
// volume), highest first. Equal scores fall back to buy waypoint, sell
// waypoint and good so the order is stable across runs. At most maxRoutes
// are returned; maxRoutes <= 0 returns them all.
//
// This is a single-hop greedy heuristic: fuel and travel time are ignored.
func FindBestTradeRoutes(snapshots []MarketSnapshot, maxRoutes int) []TradeRoute {
	var routes []TradeRoute

	for _, buy := range snapshots {
		for _, sell := range snapshots {
			if buy.Waypoint == sell.Waypoint {
				continue
			}
			for _, buyGood := range buy.Market.TradeGoods {
				sellGood, ok := sell.Market.Good(buyGood.Symbol)
				if !ok {
					continue
				}
				route, err := NewTradeRoute(buy.Waypoint, buyGood, sell.Waypoint, sellGood)
				if err != nil {
					continue
				}
				routes = append(routes, route)
			}
		}
	}

	sort.Slice(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.BuyWaypoint != b.BuyWaypoint {
			return a.BuyWaypoint < b.BuyWaypoint
		}
		if a.SellWaypoint != b.SellWaypoint {
			return a.SellWaypoint < b.SellWaypoint
		}
		return a.Good < b.Good
	})

	if maxRoutes > 0 && len(routes) > maxRoutes {
		routes = routes[:maxRoutes]
	}
	return routes
}

// FilterByMargin keeps routes whose margin reaches minMargin, preserving order
func FilterByMargin(routes []TradeRoute, minMargin float64) []TradeRoute {
	out := make([]TradeRoute, 0, len(routes))
	for _, r := range routes {
		if r.MeetsMargin(minMargin) {
			out = append(out, r)
		}
	}
	return out
}
