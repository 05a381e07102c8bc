package ports

// Broadcaster publishes named events to out-of-scope real-time subscribers.
// Publish is fire-and-forget: it never blocks and never reports delivery.
type Broadcaster interface {
	Publish(event string, payload any)
}
