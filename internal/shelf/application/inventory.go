package application

import orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"

type ShelfState struct {
	Zone     orderdom.Zone `json:"zone"`
	Capacity int           `json:"capacity"`
	Orders   []string      `json:"orders"`
}

// Inventory is a point-in-time copy of every shelf, in zone order.
type Inventory struct {
	Shelves []ShelfState `json:"shelves"`
}

func (inv Inventory) Shelf(zone orderdom.Zone) ShelfState {
	for _, s := range inv.Shelves {
		if s.Zone == zone {
			return s
		}
	}
	return ShelfState{Zone: zone}
}

func (inv Inventory) Count(zone orderdom.Zone) int {
	return len(inv.Shelf(zone).Orders)
}

// Locate returns the zone currently holding id.
func (inv Inventory) Locate(id string) (orderdom.Zone, bool) {
	for _, s := range inv.Shelves {
		for _, o := range s.Orders {
			if o == id {
				return s.Zone, true
			}
		}
	}
	return "", false
}

func (inv Inventory) Total() int {
	n := 0
	for _, s := range inv.Shelves {
		n += len(s.Orders)
	}
	return n
}
