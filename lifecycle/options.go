package lifecycle

import "github.com/jonwraymond/lifeops/observe"

type options struct {
	config  Config
	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics
}

// Option configures a Manager or Builder.
type Option func(*options)

// WithConfig sets the phase timeouts.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer used for start and stop spans.
func WithTracer(t observe.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) options {
	o := options{
		config: DefaultConfig(),
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = observe.NoopTracer()
	}
	return o
}
