package domain

import (
	"errors"
	"fmt"

	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
)

var ErrMalformedRecord = errors.New("malformed order record")

// Record is an order as it arrives from upstream.
type Record struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Temp      string  `json:"temp"`
	ShelfLife int     `json:"shelfLife"`
	DecayRate float64 `json:"decayRate"`
}

// Validate checks structural fields only. The temperature is left to the
// kitchen so an unknown one becomes a per-order rejection.
func (r Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id", ErrMalformedRecord)
	case r.ShelfLife <= 0:
		return fmt.Errorf("%w: order %s has shelfLife %d", ErrMalformedRecord, r.ID, r.ShelfLife)
	case r.DecayRate <= 0:
		return fmt.Errorf("%w: order %s has decayRate %v", ErrMalformedRecord, r.ID, r.DecayRate)
	}
	return nil
}

func (r Record) Order() orderdom.Order {
	return orderdom.Order{
		ID:        r.ID,
		Name:      r.Name,
		Temp:      orderdom.Temperature(r.Temp),
		ShelfLife: r.ShelfLife,
		DecayRate: r.DecayRate,
	}
}
