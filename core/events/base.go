package events

import "time"

// Kind is the wire discriminator of an event.
type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base is embedded by every event.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return newBaseAt(kind, time.Now())
}

func newBaseAt(kind Kind, timestamp time.Time) Base {
	return Base{kind: kind, timestamp: timestamp}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
