package auth

import (
	"time"

	"github.com/rosterd/rosterd/internal/logger"
)

type options struct {
	clock    func() time.Time
	observer Observer
	log      *logger.Logger
}

// Option configures a Gate or a Service.
type Option func(*options)

// WithClock replaces time.Now. Tests use it to pin token issue and expiry.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    time.Now,
		observer: NopObserver{},
		log:      logger.Default().WithComponent("auth"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
