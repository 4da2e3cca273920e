package app

import (
	"log/slog"
	"math/rand"
	"time"
)

// Option configures the services in this package.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	recorder        Recorder
	rnd             *rand.Rand
	now             func() time.Time
	resetOnRegister bool
}

func newOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithRand fixes the random source, mostly for tests.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) { o.rnd = rnd }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithResetOnRegister makes Register zero the counters of a returning user.
func WithResetOnRegister(reset bool) Option {
	return func(o *options) { o.resetOnRegister = reset }
}
