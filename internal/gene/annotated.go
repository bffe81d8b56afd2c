// Package gene is the annotated sequence model: a transcript's exon
// structure and nucleotide sequence in both genomic and spliced coordinates,
// plus the mapping between the two.
package gene

import (
	"fmt"
	"strings"
)

// Strand of a transcript on the reference.
type Strand int8

const (
	// Plus is the reference strand.
	Plus Strand = 1

	// Minus is the reverse complement of the reference.
	Minus Strand = -1
)

func (s Strand) String() string {
	if s == Minus {
		return "-"
	}
	return "+"
}

// MarshalJSON writes the strand as "+" or "-".
func (s Strand) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON reads a strand written as a string or as Ensembl's 1 or -1.
func (s *Strand) UnmarshalJSON(b []byte) error {
	v, err := ParseStrand(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStrand reads "+", "-", "1" or "-1".
func ParseStrand(s string) (Strand, error) {
	switch strings.TrimSpace(s) {
	case "+", "1", "+1":
		return Plus, nil
	case "-", "-1":
		return Minus, nil
	}
	return 0, fmt.Errorf("unknown strand %q", s)
}

// Feature says which part of the transcript an exon covers.
type Feature int

const (
	// NonCoding exons belong to a transcript without a CDS.
	NonCoding Feature = iota
	UTR5
	CDS
	UTR3
	// Mixed exons contain both UTR and coding sequence.
	Mixed
)

func (f Feature) String() string {
	switch f {
	case UTR5:
		return "5'UTR"
	case CDS:
		return "CDS"
	case UTR3:
		return "3'UTR"
	case Mixed:
		return "mixed"
	}
	return "non-coding"
}

// MarshalJSON writes the feature name.
func (f Feature) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// ExonRecord is one exon of the transcript.
type ExonRecord struct {
	// Index in transcript (5' to 3') order, 0-based
	Index int `json:"index"`

	// Genomic extent of the exon
	Genomic GenomicInterval `json:"genomic"`

	// Feature is the UTR/CDS class of the exon
	Feature Feature `json:"feature"`
}

// Meta is the descriptive part of an AnnotatedSequence.
type Meta struct {
	Species      string `json:"species"`
	GeneID       string `json:"geneId"`
	Symbol       string `json:"symbol"`
	TranscriptID string `json:"transcriptId"`
	Chrom        string `json:"chrom"`
	Strand       Strand `json:"strand"`

	// CDS is the genomic extent of the coding sequence. Zero for
	// non-coding transcripts.
	CDS GenomicInterval `json:"cds"`
}

// Query is what a Provider needs to build an AnnotatedSequence.
type Query struct {
	// Species, eg "homo_sapiens"
	Species string `json:"species"`

	// Gene symbol or stable id
	Gene string `json:"gene"`

	// Transcript id. Empty means the provider picks the canonical one.
	Transcript string `json:"transcript,omitempty"`

	// Margin is the number of bp fetched on each side of the gene body.
	Margin int `json:"margin"`
}

// Key identifies the query for caching.
func (q Query) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", strings.ToLower(q.Species), strings.ToUpper(q.Gene), q.Transcript, q.Margin)
}

// AnnotatedSequence is a transcript with its genomic sequence (including the
// fetched flanks) and its spliced sequence. It is read-only once built.
type AnnotatedSequence struct {
	meta Meta

	// span of reference coordinates covered by genomic
	span GenomicInterval

	// genomic sequence, reference + strand
	genomic string

	// exons in transcript order
	exons []ExonRecord

	// spliced sequence in transcript orientation
	spliced string

	// cum[i] is the spliced offset of the first base of exon i,
	// cum[len(exons)] is the spliced length
	cum []int

	// exon indexes sorted by ascending genomic start
	byStart []int
}

// New builds an AnnotatedSequence.
//
// exons must be in transcript order: ascending for Plus, descending for Minus,
// non-overlapping and inside span. genomic must cover span exactly.
func New(meta Meta, span GenomicInterval, genomic string, exons []GenomicInterval) (*AnnotatedSequence, error) {
	if meta.Strand != Plus && meta.Strand != Minus {
		return nil, fmt.Errorf("transcript %s has no strand", meta.TranscriptID)
	}
	if len(genomic) != span.Len() {
		return nil, fmt.Errorf("genomic sequence is %d bp but its span %s is %d bp", len(genomic), span, span.Len())
	}
	if len(exons) == 0 {
		return nil, fmt.Errorf("transcript %s has no exons", meta.TranscriptID)
	}

	for i, e := range exons {
		if e.Start() < span.Start() || e.End() > span.End() {
			return nil, fmt.Errorf("exon %d %s is outside the fetched span %s", i+1, e, span)
		}
		if i == 0 {
			continue
		}
		prev := exons[i-1]
		if meta.Strand == Plus && prev.End() > e.Start() || meta.Strand == Minus && e.End() > prev.Start() {
			return nil, fmt.Errorf("exons %d and %d overlap or are not in transcript order", i, i+1)
		}
	}

	a := &AnnotatedSequence{
		meta:    meta,
		span:    span,
		genomic: strings.ToUpper(genomic),
		exons:   make([]ExonRecord, len(exons)),
	}
	for i, e := range exons {
		a.exons[i] = ExonRecord{Index: i, Genomic: e, Feature: classify(e, meta.CDS, meta.Strand)}
	}
	a.splice()

	return a, nil
}

// splice derives the spliced sequence and the exon offset tables.
func (a *AnnotatedSequence) splice() {
	var b strings.Builder
	a.cum = make([]int, len(a.exons)+1)
	for i, e := range a.exons {
		a.cum[i] = b.Len()
		b.WriteString(orient(a.slice(e.Genomic), a.meta.Strand))
	}
	a.cum[len(a.exons)] = b.Len()
	a.spliced = b.String()

	a.byStart = make([]int, len(a.exons))
	for i := range a.exons {
		if a.meta.Strand == Plus {
			a.byStart[i] = i
		} else {
			a.byStart[i] = len(a.exons) - 1 - i
		}
	}
}

// classify an exon against the CDS extent.
func classify(exon, cds GenomicInterval, strand Strand) Feature {
	if cds.IsZero() {
		return NonCoding
	}
	if exon.Start() >= cds.Start() && exon.End() <= cds.End() {
		return CDS
	}
	if exon.Overlaps(cds) {
		return Mixed
	}

	before := exon.End() <= cds.Start()
	if strand == Minus {
		before = !before
	}
	if before {
		return UTR5
	}
	return UTR3
}

// Meta returns the transcript's descriptive fields.
func (a *AnnotatedSequence) Meta() Meta { return a.meta }

// Strand of the transcript.
func (a *AnnotatedSequence) Strand() Strand { return a.meta.Strand }

// Symbol of the gene.
func (a *AnnotatedSequence) Symbol() string { return a.meta.Symbol }

// Span of reference coordinates covered by the genomic sequence.
func (a *AnnotatedSequence) Span() GenomicInterval { return a.span }

// Genomic returns the full genomic sequence (reference + strand).
func (a *AnnotatedSequence) Genomic() string { return a.genomic }

// Spliced returns the spliced sequence in transcript orientation.
func (a *AnnotatedSequence) Spliced() string { return a.spliced }

// SplicedLen is the length of the spliced sequence.
func (a *AnnotatedSequence) SplicedLen() int { return len(a.spliced) }

// Exons returns a copy of the exon records in transcript order.
func (a *AnnotatedSequence) Exons() []ExonRecord {
	out := make([]ExonRecord, len(a.exons))
	copy(out, a.exons)
	return out
}

// ExonCount is the number of exons.
func (a *AnnotatedSequence) ExonCount() int { return len(a.exons) }

// Body is the genomic extent of the transcript, first to last exon.
func (a *AnnotatedSequence) Body() GenomicInterval {
	start, end := a.exons[0].Genomic.Start(), a.exons[0].Genomic.End()
	for _, e := range a.exons[1:] {
		if e.Genomic.Start() < start {
			start = e.Genomic.Start()
		}
		if e.Genomic.End() > end {
			end = e.Genomic.End()
		}
	}
	return mustGenomic(start, end)
}

// UpstreamMargin is the number of fetched bp 5' of the transcription start.
func (a *AnnotatedSequence) UpstreamMargin() int {
	if a.meta.Strand == Minus {
		return a.span.End() - a.Body().End()
	}
	return a.Body().Start() - a.span.Start()
}

// DownstreamMargin is the number of fetched bp 3' of the transcription end.
func (a *AnnotatedSequence) DownstreamMargin() int {
	if a.meta.Strand == Minus {
		return a.Body().Start() - a.span.Start()
	}
	return a.span.End() - a.Body().End()
}

// Slice returns the reference sequence of a genomic interval.
func (a *AnnotatedSequence) Slice(iv GenomicInterval) (string, error) {
	if iv.Start() < a.span.Start() || iv.End() > a.span.End() {
		return "", fmt.Errorf("interval %s is outside the fetched span %s", iv, a.span)
	}
	return a.slice(iv), nil
}

// Oriented returns the sequence of a genomic interval as read in the
// transcript's direction (reverse complemented for Minus strand transcripts).
func (a *AnnotatedSequence) Oriented(iv GenomicInterval) (string, error) {
	s, err := a.Slice(iv)
	if err != nil {
		return "", err
	}
	return orient(s, a.meta.Strand), nil
}

// SplicedSlice returns the spliced sequence of a spliced interval.
func (a *AnnotatedSequence) SplicedSlice(iv SplicedInterval) (string, error) {
	if iv.Start() < 0 || iv.End() > len(a.spliced) {
		return "", fmt.Errorf("interval %s is outside the spliced sequence [0, %d)", iv, len(a.spliced))
	}
	return a.spliced[iv.Start():iv.End()], nil
}

func (a *AnnotatedSequence) slice(iv GenomicInterval) string {
	return a.genomic[iv.Start()-a.span.Start() : iv.End()-a.span.Start()]
}
