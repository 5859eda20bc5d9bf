// Package sidgen provides the fresh-name counter used by the ANF
// translator (internal/stir), the reuse analysis (internal/reuse) and
// C7 (internal/lower) to mint unique variable and token names. Unlike the
// teacher's content-hashed stable-id scheme, names here only need to be
// unique within one compilation unit, not stable across edits — so each
// pass creates its own monotonically increasing Counter, per spec.md §5
// "Shared-resource policy": a counter starts (or is reset) at the start of
// a compilation unit to keep output reproducible across runs.
package sidgen

import "fmt"

// Counter mints fresh names. It is not safe for concurrent use — the
// pipeline is single-threaded per spec.md §5.
type Counter struct {
	next int
}

// NewCounter returns a Counter starting from 1, matching the teacher's
// convention of never emitting a zero-valued fresh id.
func NewCounter() *Counter {
	return &Counter{next: 1}
}

// Reset returns the counter to its initial state. Callers must invoke this
// before lowering a new compilation unit so that output is reproducible.
func (c *Counter) Reset() {
	c.next = 1
}

// Fresh mints a new name with the given prefix, e.g. Fresh("fresh") ->
// "fresh1", "fresh2", ...
func (c *Counter) Fresh(prefix string) string {
	n := c.next
	c.next++
	return fmt.Sprintf("%s%d", prefix, n)
}

// FreshVar is shorthand for Fresh("fresh") used by the ANF translator for
// every intermediate binding it introduces.
func (c *Counter) FreshVar() string {
	return c.Fresh("fresh")
}

// FreshToken is shorthand for Fresh("reuse") used by the reuse analysis to
// name the reset/reuse token variable it threads through a branch.
func (c *Counter) FreshToken() string {
	return c.Fresh("reuse")
}
