package domain

import (
	"math"
	"time"
)

// Value is the normalized order value after ageSeconds on a shelf with the given modifier.
func Value(shelfLife, decayRate, ageSeconds, modifier float64) float64 {
	return (shelfLife - decayRate*ageSeconds*modifier) / shelfLife
}

func Wasted(value float64) bool {
	return value <= 0
}

// TimeToWaste is the age at which the value reaches zero, truncated to whole milliseconds.
func TimeToWaste(shelfLife, decayRate, modifier float64) time.Duration {
	ms := math.Floor(shelfLife / decayRate / modifier * 1000)
	return time.Duration(ms) * time.Millisecond
}
