// Package diag is the export core's diagnostic channel.
//
// It follows a croak/logit/respond-style idiom, writing to an injected
// io.Writer rather than reaching for a logging framework: see
// DESIGN.md for why that's the grounded choice here rather than a gap.
package diag

import (
	"fmt"
	"io"
)

// Channel is a two-tier diagnostic sink: soft-data anomalies are
// Announced and execution continues; a
// fatal-resource condition is returned as the error Fatalf builds.
type Channel struct {
	w io.Writer
}

// New returns a Channel that writes to w. A nil w discards everything.
func New(w io.Writer) *Channel {
	return &Channel{w: w}
}

// Announce reports a soft-data anomaly (duplicate node binding, odd-depth
// version, orphan branch, non-monotone dates, ...) and returns; the
// caller proceeds with its best-effort binding.
func (c *Channel) Announce(format string, args ...interface{}) {
	if c == nil || c.w == nil {
		return
	}
	fmt.Fprintf(c.w, format+"\n", args...)
}

// FatalError distinguishes a fatal-resource condition (temp-dir
// creation failure, serial overflow, allocation failure, ...) from an
// ordinary error so callers can tell the two taxonomies apart.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string { return e.Message }

// Fatalf builds a FatalError. The export core never calls os.Exit
// itself; propagation is the caller's responsibility, so it returns
// this error type from its exported entry points instead.
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{Message: fmt.Sprintf(format, args...)}
}
