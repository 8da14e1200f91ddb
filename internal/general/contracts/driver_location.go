package contracts

import "time"

// DriverLocationMessage is broadcast by the driver runtime whenever the
// published position changes by operator override.
// Exchange: ExchangeLocationFanout (fanout, no routing key).
type DriverLocationMessage struct {
	DriverID   string    `json:"driver_id"`
	Location   GeoPoint  `json:"location"`
	Online     bool      `json:"online"`
	TripStatus string    `json:"trip_status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}

// DriverStateEvent is pushed to the driver over the WebSocket stream and
// echoes the backend's view of the driver: online flag plus last stored
// position. A zero Lat/Lng pair means "no position stored yet".
type DriverStateEvent struct {
	Type   string  `json:"type"` // WSTypeDriverLocation
	Online bool    `json:"online"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// AuthFrame is the first frame a client sends after the WebSocket upgrade.
type AuthFrame struct {
	Type  string `json:"type"` // WSTypeAuth
	Token string `json:"token"`
}
