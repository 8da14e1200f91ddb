package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"driverhub/internal/general/contracts"
)

func declareTopology(ch *amqp.Channel) error {
	// 1. Exchanges
	exchanges := []struct {
		name string
		kind string
	}{
		{contracts.ExchangeBookingTopic, "topic"},
		{contracts.ExchangeLocationFanout, "fanout"},
	}

	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	// 2. Queues
	if _, err := ch.QueueDeclare(contracts.QueueBookingSnapshots, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", contracts.QueueBookingSnapshots, err)
	}

	// 3. Bindings
	if err := ch.QueueBind(contracts.QueueBookingSnapshots, contracts.RouteBookingSnapshotPrefix+"*", contracts.ExchangeBookingTopic, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", contracts.QueueBookingSnapshots, contracts.ExchangeBookingTopic, err)
	}

	return nil
}
