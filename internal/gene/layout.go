package gene

import "fmt"

// Layout is an annotated sequence split for display. Sequences read in the
// transcript's direction and offsets are 0-based and end exclusive.
type Layout struct {
	Meta Meta `json:"meta"`

	// Upstream and Downstream are the fetched flanks 5' and 3' of the gene
	Upstream   string `json:"upstream"`
	Gene       string `json:"gene"`
	Downstream string `json:"downstream"`

	// Spliced is the exons joined
	Spliced string `json:"spliced"`

	Junctions []Junction      `json:"junctions"`
	Exons     []ExonPlacement `json:"exons"`

	// CDS is nil for non-coding transcripts
	CDS *Placement `json:"cds,omitempty"`
}

// Placement is where a feature sits in Layout.Gene (introns included) and in
// Layout.Spliced.
type Placement struct {
	Gene    Interval        `json:"gene"`
	Spliced SplicedInterval `json:"spliced"`
}

// ExonPlacement is an exon's Placement with its class.
type ExonPlacement struct {
	Index   int     `json:"index"`
	Feature Feature `json:"feature"`
	Placement
}

// Layout splits the sequence into its flanks, gene body and spliced
// transcript, and places the exons and the CDS in both.
func (a *AnnotatedSequence) Layout() (*Layout, error) {
	body := a.Body()
	seq, err := a.Oriented(body)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Meta:       a.meta,
		Upstream:   a.flank(a.UpstreamMargin(), true),
		Gene:       seq,
		Downstream: a.flank(a.DownstreamMargin(), false),
		Spliced:    a.spliced,
		Junctions:  a.Junctions(),
	}
	if l.Junctions == nil {
		l.Junctions = []Junction{}
	}

	for i, e := range a.exons {
		spliced, _ := NewSplicedInterval(a.ExonOffset(i), a.ExonOffset(i)+e.Genomic.Len())
		l.Exons = append(l.Exons, ExonPlacement{
			Index:     e.Index,
			Feature:   e.Feature,
			Placement: Placement{Gene: a.inBody(e.Genomic), Spliced: spliced},
		})
	}

	if cds := a.meta.CDS; !cds.IsZero() {
		first, last := cds.Start(), cds.End()-1
		if a.meta.Strand == Minus {
			first, last = last, first
		}
		start, err := a.GenomicToSpliced(first)
		if err != nil {
			return nil, fmt.Errorf("CDS start: %w", err)
		}
		end, err := a.GenomicToSpliced(last)
		if err != nil {
			return nil, fmt.Errorf("CDS end: %w", err)
		}
		spliced, err := NewSplicedInterval(start, end+1)
		if err != nil {
			return nil, err
		}
		l.CDS = &Placement{Gene: a.inBody(cds), Spliced: spliced}
	}
	return l, nil
}

// flank is n bp of fetched sequence beyond the body, 5' of it when up.
func (a *AnnotatedSequence) flank(n int, up bool) string {
	if n <= 0 {
		return ""
	}
	body := a.Body()
	left := up == (a.meta.Strand == Plus)
	iv := mustGenomic(body.End(), body.End()+n)
	if left {
		iv = mustGenomic(body.Start()-n, body.Start())
	}
	return orient(a.slice(iv), a.meta.Strand)
}

// inBody is a genomic interval as an offset range of the oriented body.
func (a *AnnotatedSequence) inBody(iv GenomicInterval) Interval {
	body := a.Body()
	if a.meta.Strand == Minus {
		return Interval{start: body.End() - iv.End(), end: body.End() - iv.Start()}
	}
	return Interval{start: iv.Start() - body.Start(), end: iv.End() - body.Start()}
}
