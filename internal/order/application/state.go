package application

type State int

const (
	StateCooking State = iota
	StateAwaitingPlacement
	StateShelved
	StatePickupRequested
	StateDelivered
	StateWasted
)

func (s State) String() string {
	switch s {
	case StateCooking:
		return "cooking"
	case StateAwaitingPlacement:
		return "awaiting_placement"
	case StateShelved:
		return "shelved"
	case StatePickupRequested:
		return "pickup_requested"
	case StateDelivered:
		return "delivered"
	case StateWasted:
		return "wasted"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s == StateDelivered || s == StateWasted
}
