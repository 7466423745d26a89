package dsprep

// Per-stage processing reports.

import "log"

// Skip records an input element that a stage dropped.
type Skip struct {
	Ref    string // The file, row or label the skip refers to.
	Reason string
}

// Report accumulates the accepted and skipped element counts for one stage.
// Stages never fail on individual rows; they record the drop here and log it.
type Report struct {
	Accepted int
	Skipped  []Skip
}

// skip logs a dropped element and records it in the report.
func (r *Report) skip(ref, reason string) {
	log.Printf("Skipping %s: %s", ref, reason)
	r.Skipped = append(r.Skipped, Skip{Ref: ref, Reason: reason})
}

func (r *Report) accept() {
	r.Accepted++
}
