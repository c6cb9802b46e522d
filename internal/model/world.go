package model

// Vec2 addresses a single tile on the simulated grid.
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TileDelta is one per-tile change inside a simulation tick. Metric fields
// are pointers so that a tick can carry partial updates; an absent metric
// means "unchanged".
type TileDelta struct {
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Economy   *float64 `json:"economy,omitempty"`
	Traffic   *float64 `json:"traffic,omitempty"`
	Pollution *float64 `json:"pollution,omitempty"`
}

// TrafficValue returns the traffic metric or 0 when the delta does not
// touch traffic.
func (d TileDelta) TrafficValue() float64 {
	if d.Traffic == nil {
		return 0
	}
	return *d.Traffic
}

// Event types derived by the orchestrator from raw tick data.
const (
	EventTrafficSpike = "traffic_spike"
	EventFlood        = "flood"
	EventPowerOutage  = "power_outage"
	EventCustom       = "custom"
)
