package application

import (
	"fmt"
	"sort"

	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
	shelfdom "github.com/dmehra2102/Kitchen-Unit/internal/shelf/domain"
)

// temperatureZones are the non-overflow zones in tie-break order.
var temperatureZones = []orderdom.Zone{orderdom.ZoneHot, orderdom.ZoneCold, orderdom.ZoneFrozen}

// place runs the placement tiers: preferred shelf, then overflow, then
// overflow after making room by relocation or, failing that, eviction.
func (m *Manager) place(c orderdom.CookedOrder, owner Owner) error {
	log := m.log.With("order_id", c.ID)

	zone, err := c.PreferredZone()
	if err != nil {
		log.Warn("order rejected", "err", err)
		owner.OrderWasted(orderdom.Placement{Order: c}, orderdom.ReasonRejected)
		m.publish(kitchendom.Event{Type: kitchendom.EventOrderWasted, OrderID: c.ID, Reason: orderdom.ReasonRejected})
		return nil
	}
	if loc, ok := m.locations[c.ID]; ok {
		log.Warn("order is already on a shelf, placement ignored", "zone", loc.shelf.Zone())
		return nil
	}

	preferred := m.shelves[zone]
	overflow := m.shelves[orderdom.ZoneOverflow]

	switch {
	case !preferred.Full():
		return m.shelve(preferred, c, owner)
	case !overflow.Full():
		log.Info("preferred shelf is full, using overflow", "zone", zone)
		return m.shelve(overflow, c, owner)
	}

	log.Info("preferred and overflow shelves are full, making room", "zone", zone)
	if err := m.makeRoom(); err != nil {
		return err
	}
	return m.shelve(overflow, c, owner)
}

func (m *Manager) shelve(s *shelfdom.Shelf, c orderdom.CookedOrder, owner Owner) error {
	placed, err := m.put(s, c, owner)
	if err != nil || !placed {
		return err
	}
	m.publish(kitchendom.Event{Type: kitchendom.EventOrderShelved, OrderID: c.ID, Zone: s.Zone()})
	return nil
}

// makeRoom frees one overflow slot, preferring to move an occupant into its
// own zone over wasting it.
func (m *Manager) makeRoom() error {
	overflow := m.shelves[orderdom.ZoneOverflow]

	if candidate, ok := m.relocationCandidate(); ok {
		loc, _ := m.detach(candidate.ID())
		zone, _ := candidate.Order.PreferredZone()
		target := m.shelves[zone]

		m.log.Info("moving order out of overflow", "order_id", candidate.ID(), "zone", zone)
		placed, err := m.put(target, candidate.Order, loc.owner)
		if err != nil {
			return err
		}
		if placed {
			m.publish(kitchendom.Event{
				Type:    kitchendom.EventOrderMoved,
				OrderID: candidate.ID(),
				From:    orderdom.ZoneOverflow,
				Zone:    zone,
			})
		}
		return nil
	}

	occupants := overflow.Placements()
	if len(occupants) == 0 {
		return fmt.Errorf("%w: overflow shelf reported full with no occupants", ErrInvariantViolation)
	}
	victim := occupants[m.rand.Intn(len(occupants))]
	loc, _ := m.detach(victim.ID())

	m.log.Info("no shelf can take an overflow order, evicting", "order_id", victim.ID())
	loc.owner.OrderWasted(loc.placement, orderdom.ReasonEvicted)
	m.publish(kitchendom.Event{
		Type:    kitchendom.EventOrderWasted,
		OrderID: victim.ID(),
		Zone:    orderdom.ZoneOverflow,
		Reason:  orderdom.ReasonEvicted,
	})
	return nil
}

// relocationCandidate scans shelves with room, most available first, and
// returns the overflow occupant closest to waste whose zone matches.
func (m *Manager) relocationCandidate() (orderdom.Placement, bool) {
	var open []*shelfdom.Shelf
	for _, z := range temperatureZones {
		if s := m.shelves[z]; s.Available() > 0 {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return orderdom.Placement{}, false
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].Available() > open[j].Available() })

	now := m.clock.Now()
	occupants := m.shelves[orderdom.ZoneOverflow].Placements()
	sort.SliceStable(occupants, func(i, j int) bool {
		return occupants[i].Remaining(now) < occupants[j].Remaining(now)
	})

	for _, s := range open {
		for _, p := range occupants {
			if zone, err := p.Order.PreferredZone(); err == nil && zone == s.Zone() {
				return p, true
			}
		}
	}
	return orderdom.Placement{}, false
}
