package application

import (
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
)

// Owner is the order process notified about placement outcomes. Both calls
// must return without blocking.
type Owner interface {
	OrderPlaced(p orderdom.Placement)
	OrderWasted(p orderdom.Placement, reason orderdom.DropReason)
}

// Rand picks the eviction victim. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// OccupancyObserver is told the occupancy of every shelf after each mutation.
type OccupancyObserver interface {
	ObserveOccupancy(zone orderdom.Zone, occupied, capacity int)
}

type Capacities struct {
	Hot      int
	Cold     int
	Frozen   int
	Overflow int
}

func (c Capacities) For(zone orderdom.Zone) int {
	switch zone {
	case orderdom.ZoneHot:
		return c.Hot
	case orderdom.ZoneCold:
		return c.Cold
	case orderdom.ZoneFrozen:
		return c.Frozen
	case orderdom.ZoneOverflow:
		return c.Overflow
	}
	return 0
}
