package domain

type Zone string

const (
	ZoneHot      Zone = "hot"
	ZoneCold     Zone = "cold"
	ZoneFrozen   Zone = "frozen"
	ZoneOverflow Zone = "overflow"
)

// Zones lists every shelf zone in reporting order.
var Zones = []Zone{ZoneHot, ZoneCold, ZoneFrozen, ZoneOverflow}

// DecayModifier is the value decay multiplier for orders stored in z.
func (z Zone) DecayModifier() float64 {
	if z == ZoneOverflow {
		return 2
	}
	return 1
}
