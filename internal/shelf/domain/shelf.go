package domain

import (
	"errors"
	"fmt"
	"sort"

	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
)

var ErrShelfFull = errors.New("shelf is full")

// Shelf is bounded storage for a single zone. It applies no placement policy
// and is not safe for concurrent use; the shelf manager is its only user.
type Shelf struct {
	zone       orderdom.Zone
	capacity   int
	placements map[string]orderdom.Placement
}

func New(zone orderdom.Zone, capacity int) *Shelf {
	return &Shelf{
		zone:       zone,
		capacity:   capacity,
		placements: make(map[string]orderdom.Placement, capacity),
	}
}

func (s *Shelf) Zone() orderdom.Zone { return s.zone }
func (s *Shelf) Capacity() int       { return s.capacity }
func (s *Shelf) Len() int            { return len(s.placements) }
func (s *Shelf) Available() int      { return s.capacity - len(s.placements) }
func (s *Shelf) Full() bool          { return len(s.placements) >= s.capacity }

func (s *Shelf) Put(p orderdom.Placement) error {
	if s.Full() {
		return fmt.Errorf("%w: %s shelf (capacity %d) rejected order %s", ErrShelfFull, s.zone, s.capacity, p.ID())
	}
	s.placements[p.ID()] = p
	return nil
}

func (s *Shelf) Take(id string) (orderdom.Placement, bool) {
	p, ok := s.placements[id]
	if ok {
		delete(s.placements, id)
	}
	return p, ok
}

// Placements returns the occupants sorted by order id.
func (s *Shelf) Placements() []orderdom.Placement {
	out := make([]orderdom.Placement, 0, len(s.placements))
	for _, p := range s.placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
