package kafka

const (
	// TopicTicketOrders carries accepted purchase intents from the
	// admission gate to the fulfillment consumer.
	TopicTicketOrders = "ticket.orders"

	// TopicEventUpdates carries notification batches (event edits and
	// waitlist releases) to the notification consumer.
	TopicEventUpdates = "event.updates"
)
