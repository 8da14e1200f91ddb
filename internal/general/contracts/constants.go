package contracts

// Exchanges
const (
	ExchangeLocationFanout = "location_fanout"
	ExchangeBookingTopic   = "booking_topic"
)

// Queues
const (
	QueueBookingSnapshots = "booking_snapshots"
)

// Routing patterns
const (
	RouteBookingSnapshotPrefix = "booking.snapshot." // {driver_id}
)

// WebSocket frame types
const (
	WSTypeAuth           = "auth"
	WSTypeDriverLocation = "driver_location"
	WSTypeStatusUpdate   = "status_update"
)
