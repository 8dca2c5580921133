package searchindex

import "time"

// Option configures the indexing engine.
type Option func(*Options)

// Options holds all configuration for the indexing engine.
type Options struct {
	// Timezone anchors partial dates (bare years, months, days) that
	// carry no offset of their own.
	Timezone *time.Location

	// MaxStringLength bounds the stored value of string index entries.
	// Zero means no bound.
	MaxStringLength int

	// Metrics is the metrics sink. Shared sinks let callers aggregate
	// across engines.
	Metrics *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Timezone:        time.UTC,
		MaxStringLength: 0,
		Metrics:         NewMetrics(),
	}
}

// WithTimezone sets the timezone used to anchor partial dates.
// A nil location falls back to UTC.
func WithTimezone(loc *time.Location) Option {
	return func(o *Options) {
		if loc != nil {
			o.Timezone = loc
		}
	}
}

// WithMaxStringLength bounds stored string index values.
// Values longer than n runes are truncated. Zero disables the bound.
func WithMaxStringLength(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxStringLength = n
		}
	}
}

// WithMetrics sets a shared metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		if m != nil {
			o.Metrics = m
		}
	}
}
