package region

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJunction is returned for a junction number the transcript doesn't have.
	ErrUnknownJunction = errors.New("unknown junction")

	// ErrNoJunctions is returned for internal designs on single exon transcripts.
	ErrNoJunctions = errors.New("transcript has a single exon and no exon-exon junctions")
)

// InsufficientSequenceError is returned when a region is too short to hold
// a primer, or a flank is longer than the fetched margin under the strict
// flank policy.
type InsufficientSequenceError struct {
	Region string
	Need   int
	Have   int
}

func (e *InsufficientSequenceError) Error() string {
	return fmt.Sprintf("insufficient sequence for %s: need %d bp, have %d bp", e.Region, e.Need, e.Have)
}

// OutOfRangeError is a caller region that doesn't fit in its template.
type OutOfRangeError struct {
	Region string
	Start  int
	End    int
	Len    int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s [%d, %d) doesn't fit in the %d bp template", e.Region, e.Start, e.End, e.Len)
}

// FlankClampedWarning records a WGA flank shortened to the fetched margin.
type FlankClampedWarning struct {
	Region    string `json:"region"`
	Requested int    `json:"requested"`
	Used      int    `json:"used"`
}

func (w *FlankClampedWarning) Error() string {
	return fmt.Sprintf("%s clamped from %d bp to the %d bp available", w.Region, w.Requested, w.Used)
}
