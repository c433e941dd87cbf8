package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownTemperature = errors.New("unknown temperature")

type Temperature string

const (
	TempHot    Temperature = "hot"
	TempCold   Temperature = "cold"
	TempFrozen Temperature = "frozen"
)

// Order is immutable once admitted. ShelfLife is in seconds.
type Order struct {
	ID        string
	Name      string
	Temp      Temperature
	ShelfLife int
	DecayRate float64
}

// PreferredZone maps the order temperature onto the shelf zone that stores it.
func (o Order) PreferredZone() (Zone, error) {
	switch o.Temp {
	case TempHot:
		return ZoneHot, nil
	case TempCold:
		return ZoneCold, nil
	case TempFrozen:
		return ZoneFrozen, nil
	default:
		return "", fmt.Errorf("%w %q for order %s", ErrUnknownTemperature, o.Temp, o.ID)
	}
}

type CookedOrder struct {
	Order
	ReadySince time.Time
}

func Cook(o Order, now time.Time) CookedOrder {
	return CookedOrder{Order: o, ReadySince: now}
}

type DropReason string

const (
	ReasonExpired  DropReason = "expired"
	ReasonEvicted  DropReason = "evicted"
	ReasonRejected DropReason = "rejected"
	ReasonStale    DropReason = "stale_on_placement"
)
