package application

import (
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
	shelfapp "github.com/dmehra2102/Kitchen-Unit/internal/shelf/application"
)

type ShelfManager interface {
	Place(c orderdom.CookedOrder, owner shelfapp.Owner) bool
	Remove(id string) bool
}

// Courier is the paired courier process.
type Courier interface {
	OrderAvailable() bool
	Cancel() bool
}

// Kitchen receives the single terminal report of every order.
type Kitchen interface {
	OrderDelivered(id string)
	OrderDropped(id string, reason orderdom.DropReason)
}
