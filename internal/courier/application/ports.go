package application

// Order is the paired order process. Both calls report false when the order
// process has already terminated.
type Order interface {
	RequestPickup() bool
	ConfirmDelivery() bool
}

type Rand interface {
	Intn(n int) int
}
