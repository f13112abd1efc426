package fleet

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
)

// ShipRole is the job a managed ship is used for
type ShipRole string

const (
	RoleMiner    ShipRole = "MINER"
	RoleTrader   ShipRole = "TRADER"
	RoleExplorer ShipRole = "EXPLORER"
	RoleHauler   ShipRole = "HAULER"
	RoleCombat   ShipRole = "COMBAT"
	RoleSurveyor ShipRole = "SURVEYOR"
	RoleIdle     ShipRole = "IDLE"
)

// haulerCapacity is the cargo capacity above which a ship counts as a hauler
const haulerCapacity = 100

// AllRoles lists every role in detection order
func AllRoles() []ShipRole {
	return []ShipRole{RoleMiner, RoleSurveyor, RoleExplorer, RoleCombat, RoleHauler, RoleTrader, RoleIdle}
}

// ParseShipRole parses a string into a ShipRole
func ParseShipRole(s string) (ShipRole, error) {
	role := ShipRole(strings.ToUpper(s))
	for _, known := range AllRoles() {
		if role == known {
			return role, nil
		}
	}
	return "", fmt.Errorf("invalid ship role: %s", s)
}

// DetectRole infers a role from mounts, frame and cargo capacity.
// The first matching rule wins.
func DetectRole(ship *navigation.Ship) ShipRole {
	frame := ship.Frame.Symbol

	switch {
	case ship.HasMount("MINING", "LASER") || strings.Contains(frame, "MINER"):
		return RoleMiner
	case ship.HasMount("SURVEYOR"):
		return RoleSurveyor
	case strings.Contains(frame, "EXPLORER") || strings.Contains(frame, "PROBE") || ship.HasMount("SENSOR"):
		return RoleExplorer
	case ship.HasMount("TURRET", "MISSILE"):
		return RoleCombat
	case strings.Contains(frame, "HAULER") || strings.Contains(frame, "FREIGHTER") || ship.Cargo.Capacity > haulerCapacity:
		return RoleHauler
	case ship.Cargo.Capacity > 0:
		return RoleTrader
	default:
		return RoleIdle
	}
}
