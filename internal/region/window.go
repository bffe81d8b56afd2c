package region

import (
	"github.com/KowalskiBio/Primerool/internal/gene"
)

// Role of a window in a design.
type Role string

const (
	Forward Role = "forward-search"
	Reverse Role = "reverse-search"
	Whole   Role = "whole-region"
)

// Space is the coordinate space a window's interval is in.
type Space string

const (
	Genomic Space = "genomic"
	Spliced Space = "spliced"
	Literal Space = "literal"
)

// Window is a stretch of template primers are searched in.
type Window struct {
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
	Space Space  `json:"space"`

	// Interval in Space coordinates
	Interval gene.Interval `json:"interval"`

	// Orientation of Seq relative to Space. Minus means Seq is the reverse
	// complement of the interval (minus strand genes in genomic space).
	Orientation gene.Strand `json:"orientation"`

	// Seq is the template, 5' to 3' in the direction primers are designed
	Seq string `json:"-"`

	// Fixed windows are a single oligo, there's nothing to choose
	Fixed bool `json:"fixed,omitempty"`
}

// Position maps an offset in Seq to a coordinate in the window's space.
func (w Window) Position(o int) int {
	if w.Orientation == gene.Minus {
		return w.Interval.End() - 1 - o
	}
	return w.Interval.Start() + o
}

// Target is one unit of work for the candidate generator: a bound pair of
// windows (WGA, FromSequence, Manual) or a single window searched whole
// (Internal, Targeted, Single).
type Target struct {
	Name    string   `json:"name"`
	Windows []Window `json:"windows"`

	// Template is the wider context the engine searches in for Internal
	// targets. Primers are picked anywhere in it, one across Junction.
	Template *Window `json:"template,omitempty"`

	// Junction the target was built around, Internal only
	Junction *gene.Junction `json:"junction,omitempty"`

	// Amplified is the stretch of the window every product must contain,
	// Targeted only
	Amplified *gene.Interval `json:"amplified,omitempty"`

	// Included is the stretch of the window a single primer must lie in,
	// Single only
	Included *gene.Interval `json:"included,omitempty"`

	// Placed is true when all windows share a coordinate space so that a
	// product length can be computed
	Placed bool `json:"placed"`
}

// Window returns the target's window with a role.
func (t Target) Window(r Role) (Window, bool) {
	for _, w := range t.Windows {
		if w.Role == r {
			return w, true
		}
	}
	return Window{}, false
}

// Selection is the output of Select.
type Selection struct {
	Mode     string                 `json:"mode"`
	Targets  []Target               `json:"targets"`
	Warnings []*FlankClampedWarning `json:"warnings,omitempty"`
}
