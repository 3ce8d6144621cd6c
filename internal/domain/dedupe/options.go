package dedupe

const defaultCapacity = 64

type options struct {
	capacity int
}

// Option applies a configuration option to NewKeySet.
type Option func(*options)

// WithCapacity presizes the key set.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}
