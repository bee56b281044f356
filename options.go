package channels

// Options configure a single call to Instrument / InstrumentUnbounded /
// InstrumentOneshot. They mirror the configuration recognized by the
// original crate's instrument! macro: label, capacity, and log.
type Options struct {
	label       string
	hasLabel    bool
	source      string
	hasSource   bool
	capacity    uint64
	hasCapacity bool
	logFunc     any // func(T) string, type-asserted by the instrument call site
}

// Option mutates Options. Constructed via WithLabel, WithSource,
// WithCapacity, and WithLog.
type Option func(*Options)

// WithLabel sets a stable, user-chosen label for the channel, used verbatim
// in place of the source-derived label.
func WithLabel(label string) Option {
	return func(o *Options) {
		o.label = label
		o.hasLabel = true
	}
}

// WithSource overrides the creation-site string (normally captured
// automatically via runtime.Caller; see captureSource's doc comment) with an
// explicit "file:line"-shaped value. This is the Go substitute for the
// original crate's compile-time instrument! macro, which always supplies
// source explicitly — the macro/ergonomic capture layer itself is out of
// scope for this module (see SPEC_FULL.md), so WithSource is how a caller
// regains full control when the automatic capture isn't appropriate (for
// example, when instrumentation is itself wrapped by a helper function,
// which would otherwise make every channel's source point at that helper).
func WithSource(source string) Option {
	return func(o *Options) {
		o.source = source
		o.hasSource = true
	}
}

// WithCapacity supplies the channel's capacity explicitly. Native Go
// buffered channels expose their capacity via cap(), so bounded channels
// built with NewBounded never need this; it exists for parity with the
// original crate, where std::sync::mpsc and futures::channel::mpsc bounded
// channels don't expose capacity after construction and the macro's
// capacity = N argument is mandatory for them.
func WithCapacity(capacity uint64) Option {
	return func(o *Options) {
		o.capacity = capacity
		o.hasCapacity = true
	}
}

// WithLog enables message-content logging: render is called for every sent
// message and the result is stored (capped at the per-channel log limit) in
// the channel's sent-message log, retrievable via GET /logs/{id}. Without
// WithLog, logged entries carry no message text, only a timestamp and
// sequence index.
func WithLog[T any](render func(T) string) Option {
	return func(o *Options) {
		o.logFunc = render
	}
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
