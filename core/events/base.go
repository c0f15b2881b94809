package events

import "time"

type Base struct {
	timestamp time.Time
}

func NewBase() Base {
	return Base{timestamp: time.Now()}
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

type RebaseOption func(*Base)

func WithBase(base Base) RebaseOption {
	return func(o *Base) {
		*o = base
	}
}

// WithTimestamp pins the event to an explicit moment instead of the
// construction time. Reconciliation windows are measured against this value.
func WithTimestamp(timestamp time.Time) RebaseOption {
	return func(o *Base) {
		o.timestamp = timestamp
	}
}
