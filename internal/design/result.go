package design

import (
	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/region"
)

// Verdict of the quality checks on a pair.
type Verdict string

const (
	Pass Verdict = "pass"
	Warn Verdict = "warn"
	Fail Verdict = "fail"
)

// order is the verdict's rank, lower first
func (v Verdict) order() int {
	switch v {
	case Pass:
		return 0
	case Warn:
		return 1
	}
	return 2
}

// Candidate is a single primer in its window's coordinate space.
type Candidate struct {
	Seq   string       `json:"seq"`
	Space region.Space `json:"space"`

	// Position of the 5' end
	Position int         `json:"position"`
	Length   int         `json:"length"`
	Strand   gene.Strand `json:"strand"`

	Tm float64 `json:"tm"`

	// GC fraction, 0-1
	GC float64 `json:"gc"`

	EndStability float64 `json:"endStability"`
	SelfAny      float64 `json:"selfAny"`
	SelfEnd      float64 `json:"selfEnd"`
	Hairpin      float64 `json:"hairpin"`
	Penalty      float64 `json:"penalty"`

	// Order the engine generated the candidate in
	Order int `json:"order"`

	// Blocks are the genomic extents of a spliced candidate, one per exon
	Blocks []gene.GenomicInterval `json:"blocks,omitempty"`
}

// Footprint is the interval the primer covers in its space.
func (c Candidate) Footprint() gene.Interval {
	start := c.Position
	if c.Strand == gene.Minus {
		start = c.Position - c.Length + 1
	}
	iv, _ := gene.NewInterval(start, start+max(c.Length, 1))
	return iv
}

// Span is an interval tagged with its coordinate space.
type Span struct {
	Space    region.Space  `json:"space"`
	Interval gene.Interval `json:"interval"`
}

// PairResult is a forward and reverse primer with its QC and ranking.
type PairResult struct {
	// Target is the name of the region.Target the pair came from
	Target string `json:"target"`

	Forward Candidate `json:"forward"`
	Reverse Candidate `json:"reverse"`

	// ProductLength is 0 when the primers aren't in a shared space
	ProductLength int   `json:"productLength,omitempty"`
	Product       *Span `json:"product,omitempty"`

	// GenomicProduct is the product's genomic extent, gene designs only
	GenomicProduct *gene.GenomicInterval `json:"genomicProduct,omitempty"`

	// Junction crossed, Internal designs only
	Junction *gene.Junction `json:"junction,omitempty"`

	// Heterodimer melting temp, C
	Heterodimer float64 `json:"heterodimer"`

	Score   float64  `json:"score"`
	Verdict Verdict  `json:"verdict"`
	Reasons []string `json:"reasons,omitempty"`

	// Hits are the off-target specificity hits, when searched
	Hits []blast.Hit `json:"hits,omitempty"`

	// Order the pair was generated in
	Order int `json:"order"`

	// misordered primers face away from each other
	misordered bool
}

// Explain is the engine's account of why it found few or no primers.
type Explain struct {
	Target string `json:"target"`
	Side   string `json:"side"`
	Text   string `json:"text"`
}

// Warning is a request level note that didn't stop the design.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a design.
type Result struct {
	RequestID string `json:"requestId"`
	Mode      string `json:"mode"`

	// Gene designed against, WGA and Internal only
	Gene *gene.Meta `json:"gene,omitempty"`

	Targets []region.Target `json:"targets"`

	// Pairs, best first
	Pairs []PairResult `json:"pairs"`

	// Primers, best first, Single designs only
	Primers []Candidate `json:"primers,omitempty"`

	// Considered is the number of pairs, or single primers, generated before
	// filtering
	Considered int `json:"considered"`

	Warnings []Warning `json:"warnings,omitempty"`

	// FlankClamps are the WGA flanks shortened to the fetched margin
	FlankClamps []*region.FlankClampedWarning `json:"flankClamps,omitempty"`

	Explain []Explain `json:"explain,omitempty"`
}

// NoCandidates reports whether the design found nothing to return.
func (r *Result) NoCandidates() bool { return len(r.Pairs) == 0 && len(r.Primers) == 0 }
