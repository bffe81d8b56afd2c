// Package region turns a design mode into the windows primers are searched in.
package region

import (
	"fmt"
	"strings"
)

// Mode is a design strategy. It's implemented only by WGA, Internal,
// FromSequence, Manual, Targeted and Single.
type Mode interface {
	// Name of the mode, used in results and logs
	Name() string

	mode()
}

// WGA amplifies the whole gene: forward primers upstream of the transcript,
// reverse primers downstream of it.
type WGA struct {
	// FlankLength is the bp of flank searched on each side of the gene body
	FlankLength int `json:"flankLength"`
}

// Internal designs qRT-PCR pairs with a primer across an exon-exon junction.
type Internal struct {
	// Junction is the 1-based junction number ("Exon 2|3" is 2). 0 means
	// every junction of the transcript.
	Junction int `json:"junction,omitempty"`
}

// FromSequence designs a pair from two caller supplied regions, forward
// primers from one and reverse primers from the other.
type FromSequence struct {
	Forward LiteralRegion `json:"forward"`
	Reverse LiteralRegion `json:"reverse"`
}

// Manual reports metrics for two caller supplied oligos without searching.
type Manual struct {
	Forward string `json:"forward"`
	Reverse string `json:"reverse"`
}

// Targeted designs a pair on a caller template whose product contains the
// target [TargetStart, TargetEnd).
type Targeted struct {
	Template    string `json:"template"`
	TargetStart int    `json:"targetStart"`
	TargetEnd   int    `json:"targetEnd"`
}

// Single designs one primer, a LEFT or a RIGHT, inside part of a caller
// template.
type Single struct {
	Template string `json:"template"`
	Side     Side   `json:"side"`

	// IncludeStart and IncludeLen are the part of Template the primer must
	// lie in
	IncludeStart int `json:"includeStart"`
	IncludeLen   int `json:"includeLen"`
}

// Side of a single primer.
type Side string

const (
	// Left primers read along the template.
	Left Side = "left"

	// Right primers read along its reverse complement.
	Right Side = "right"
)

// ParseSide reads "left" or "right".
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(s))); side {
	case Left, Right:
		return side, nil
	}
	return "", fmt.Errorf("unknown side %q, want left or right", s)
}

// LiteralRegion is a caller supplied sequence.
type LiteralRegion struct {
	Name string `json:"name,omitempty"`

	// Seq as the caller has it
	Seq string `json:"seq"`

	// Reverse is true if Seq is given on the bottom strand. It's reverse
	// complemented before searching.
	Reverse bool `json:"reverse,omitempty"`

	// Start places the region in a coordinate space shared with the other
	// region. Product lengths are only reported when both regions are placed.
	Start *int `json:"start,omitempty"`
}

func (WGA) Name() string          { return "wga" }
func (Internal) Name() string     { return "internal" }
func (FromSequence) Name() string { return "sequence" }
func (Manual) Name() string       { return "manual" }
func (Targeted) Name() string     { return "target" }
func (Single) Name() string       { return "single" }

func (WGA) mode()          {}
func (Internal) mode()     {}
func (FromSequence) mode() {}
func (Manual) mode()       {}
func (Targeted) mode()     {}
func (Single) mode()       {}

// NeedsGene reports whether the mode designs against an annotated gene.
func NeedsGene(m Mode) bool {
	switch m.(type) {
	case WGA, Internal:
		return true
	}
	return false
}

// FlankPolicy decides what happens when a WGA flank is longer than the
// sequence fetched beyond the gene body.
type FlankPolicy string

const (
	// Strict fails with an InsufficientSequenceError.
	Strict FlankPolicy = "strict"

	// Clamp shortens the flank to the available margin and warns.
	Clamp FlankPolicy = "clamp"
)

// ParseFlankPolicy reads "strict" or "clamp". Empty is Strict.
func ParseFlankPolicy(s string) (FlankPolicy, error) {
	switch p := FlankPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", Strict:
		return Strict, nil
	case Clamp:
		return Clamp, nil
	}
	return "", fmt.Errorf("unknown flank policy %q, want strict or clamp", s)
}
