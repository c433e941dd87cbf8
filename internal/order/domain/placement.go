package domain

import "time"

// Placement is a snapshot of a cooked order sitting on a shelf. Holders other
// than the shelf manager must treat it as informational; the manager may
// relocate the order afterwards.
type Placement struct {
	Order           CookedOrder
	Zone            Zone
	TotalExpiration time.Duration
}

func NewPlacement(c CookedOrder, z Zone) Placement {
	return Placement{
		Order:           c,
		Zone:            z,
		TotalExpiration: TimeToWaste(float64(c.ShelfLife), c.DecayRate, z.DecayModifier()),
	}
}

func (p Placement) ID() string { return p.Order.ID }

func (p Placement) Age(now time.Time) time.Duration {
	return now.Sub(p.Order.ReadySince)
}

func (p Placement) Value(now time.Time) float64 {
	return Value(float64(p.Order.ShelfLife), p.Order.DecayRate, p.Age(now).Seconds(), p.Zone.DecayModifier())
}

func (p Placement) Wasted(now time.Time) bool {
	return Wasted(p.Value(now))
}

// Remaining is the time left before the order goes to waste. It can be negative.
func (p Placement) Remaining(now time.Time) time.Duration {
	return p.TotalExpiration - p.Age(now)
}
