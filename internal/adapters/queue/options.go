package queue

// Option applies a configuration option to a queue.
type Option func(*settings)

type settings struct {
	capacity int
}

// WithCapacity sets the maximum number of queued items.
func WithCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
