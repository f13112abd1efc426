package fleet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
)

func shipWith(frame string, capacity int, mounts ...string) *navigation.Ship {
	ship := &navigation.Ship{
		Symbol: "NOVA-1",
		Frame:  navigation.ShipComponent{Symbol: frame},
		Cargo:  navigation.ShipCargo{Capacity: capacity},
	}
	for _, m := range mounts {
		ship.Mounts = append(ship.Mounts, navigation.ShipMount{Symbol: m})
	}
	return ship
}

func TestDetectRole(t *testing.T) {
	tests := []struct {
		name string
		ship *navigation.Ship
		want fleet.ShipRole
	}{
		{"mining laser", shipWith("FRAME_FRIGATE", 40, "MOUNT_MINING_LASER_I"), fleet.RoleMiner},
		{"miner frame", shipWith("FRAME_MINER", 30), fleet.RoleMiner},
		{"miner beats surveyor", shipWith("FRAME_FRIGATE", 40, "MOUNT_SURVEYOR_I", "MOUNT_MINING_LASER_II"), fleet.RoleMiner},
		{"surveyor", shipWith("FRAME_FRIGATE", 40, "MOUNT_SURVEYOR_I"), fleet.RoleSurveyor},
		{"probe frame", shipWith("FRAME_PROBE", 0), fleet.RoleExplorer},
		{"sensor mount", shipWith("FRAME_FRIGATE", 40, "MOUNT_SENSOR_ARRAY_I"), fleet.RoleExplorer},
		{"turret", shipWith("FRAME_FRIGATE", 40, "MOUNT_TURRET_I"), fleet.RoleCombat},
		{"missile", shipWith("FRAME_FRIGATE", 40, "MOUNT_MISSILE_LAUNCHER_I"), fleet.RoleCombat},
		{"hauler frame", shipWith("FRAME_LIGHT_FREIGHTER", 80), fleet.RoleHauler},
		{"large hold", shipWith("FRAME_FRIGATE", 120), fleet.RoleHauler},
		{"small hold", shipWith("FRAME_FRIGATE", 40), fleet.RoleTrader},
		{"nothing", shipWith("FRAME_DRONE", 0), fleet.RoleIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fleet.DetectRole(tt.ship))
		})
	}
}

func TestParseShipRole(t *testing.T) {
	role, err := fleet.ParseShipRole("hauler")
	assert.NoError(t, err)
	assert.Equal(t, fleet.RoleHauler, role)

	_, err = fleet.ParseShipRole("PIRATE")
	assert.Error(t, err)
}
