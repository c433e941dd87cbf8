package domain

// Report carries the kitchen counters. The final report is emitted once,
// when ingestion has finished and no order is in flight.
type Report struct {
	Received  int `json:"received"`
	Delivered int `json:"delivered"`
	Dropped   int `json:"dropped"`
}

func (r Report) InFlight() int {
	return r.Received - r.Delivered - r.Dropped
}
