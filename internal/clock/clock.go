// Package clock provides the time source injected into handlers.
package clock

import "time"

// Func returns the current instant. Handlers receive one at construction so
// tests can substitute a deterministic source.
type Func func() time.Time

// System reads the host clock in the process-local zone.
func System() time.Time {
	return time.Now()
}

// Fixed returns a Func that always reports t.
func Fixed(t time.Time) Func {
	return func() time.Time { return t }
}
