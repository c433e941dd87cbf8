package application

import (
	"fmt"
	"time"
)

// ArrivalRange bounds the courier arrival delay, in whole seconds, inclusive.
type ArrivalRange struct {
	Min int
	Max int
}

func (r ArrivalRange) Validate() error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("invalid courier arrival range [%d, %d]", r.Min, r.Max)
	}
	return nil
}

// Draw picks a delay uniformly from the range.
func (r ArrivalRange) Draw(rnd Rand) time.Duration {
	return time.Duration(r.Min+rnd.Intn(r.Max-r.Min+1)) * time.Second
}
