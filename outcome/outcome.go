// Package outcome defines the tagged sum a step handler returns, per the
// design note in spec.md §9: "A tagged sum for step outcomes (Success{msg},
// Skipped{msg}, RetryLater, Fatal{err}) keeps C5 cleanly separated from
// handlers." RetryLater never escapes a handler — it is entirely consumed
// by the bounded poll loops in package cloud (spec §4.5 step 5d is
// internal to the waiter) — so only Success, Skipped and the error return
// value reach the executor.
package outcome

// Kind distinguishes how a step's action concluded.
type Kind int

const (
	Success Kind = iota
	Skipped
)

// Outcome is returned alongside an error by every step Action. A non-nil
// error always means the step failed (spec §4.5 step 5f) regardless of
// Kind; Kind only matters when err == nil.
type Outcome struct {
	Kind   Kind
	Detail string
}

// Ok builds a Success outcome with a human-readable detail line.
func Ok(detail string) Outcome { return Outcome{Kind: Success, Detail: detail} }

// SkippedBecause builds a Skipped outcome (spec §4.5 step 5e).
func SkippedBecause(reason string) Outcome { return Outcome{Kind: Skipped, Detail: reason} }
