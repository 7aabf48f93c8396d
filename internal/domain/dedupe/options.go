package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxKeys bounds the number of remembered keys. Values <= 0 keep every key.
func WithMaxKeys(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxKeys = n
	}
}
