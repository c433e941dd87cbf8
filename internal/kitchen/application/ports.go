package application

import (
	"context"

	orderapp "github.com/dmehra2102/Kitchen-Unit/internal/order/application"
	shelfapp "github.com/dmehra2102/Kitchen-Unit/internal/shelf/application"
)

// ShelfManager is the shelf process the unit supervises.
type ShelfManager interface {
	orderapp.ShelfManager
	Run(ctx context.Context) error
	Inventory(ctx context.Context) (shelfapp.Inventory, error)
}

// Rand draws courier arrival delays. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}
