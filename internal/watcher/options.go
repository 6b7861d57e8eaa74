package watcher

import "time"

// DefaultSettleDelay is used when Options.SettleDelay is zero.
const DefaultSettleDelay = 250 * time.Millisecond

// Options configures the file watcher behavior.
type Options struct {
	// SettleDelay is how long size and mtime must stay unchanged before a
	// change is reported. Editors and exporters often write in several steps.
	SettleDelay time.Duration
}

func (o *Options) setDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
}
