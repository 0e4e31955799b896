package meeting

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures a Tracker or a Dispatcher; each ignores the settings
// that do not apply to it.
type Option func(*options)

type options struct {
	maxNotes       int
	maxActionItems int
	logger         zerolog.Logger
	now            func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		maxNotes:       defaultMaxNotes,
		maxActionItems: defaultMaxActionItems,
		logger:         log.Logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func WithMaxNotes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxNotes = n
		}
	}
}

func WithMaxActionItems(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxActionItems = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
