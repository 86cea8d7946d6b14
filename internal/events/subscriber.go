package events

// Message is one event as received from the bus.
type Message struct {
	Topic string
	Data  []byte // JSON payload, one of the event types above
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages whose topic matches pattern ("*" for one
	// segment, ">" for the rest). The returned cancel func unsubscribes and
	// closes the channel; it is safe to call more than once.
	Subscribe(pattern string) (<-chan Message, func(), error)
	Close() error
}
