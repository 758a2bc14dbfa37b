package pipeline

import "sync/atomic"

// Interrupt is the cooperative cancellation token. Producers and lazy
// consumers check it between elements; once triggered, in-flight iteration
// stops and whatever was already produced is returned as a successful,
// truncated result.
type Interrupt struct {
	flag atomic.Bool
}

func NewInterrupt() *Interrupt {
	return &Interrupt{}
}

func (i *Interrupt) Trigger() {
	i.flag.Store(true)
}

// Triggered is nil-safe so callers without a token can pass nil.
func (i *Interrupt) Triggered() bool {
	return i != nil && i.flag.Load()
}
