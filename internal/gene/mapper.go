package gene

import (
	"fmt"
	"sort"
)

// Junction is an exon-exon boundary in spliced coordinates.
type Junction struct {
	// Index of the exon 5' of the junction, 0-based in transcript order
	Index int `json:"index"`

	// Offset is the spliced position of the first base of exon Index+1
	Offset int `json:"offset"`

	// Label, eg "Exon 1|2"
	Label string `json:"label"`
}

// GenomicToSpliced maps a genomic position to its spliced offset. Positions
// in introns or in the flanks fail with an *OutsideExonError.
func (a *AnnotatedSequence) GenomicToSpliced(p int) (int, error) {
	n := len(a.byStart)
	k := sort.Search(n, func(k int) bool { return a.exons[a.byStart[k]].Genomic.End() > p })
	if k == n || !a.exons[a.byStart[k]].Genomic.Contains(p) {
		return 0, &OutsideExonError{Pos: p}
	}

	i := a.byStart[k]
	e := a.exons[i].Genomic
	if a.meta.Strand == Minus {
		return a.cum[i] + e.End() - 1 - p, nil
	}
	return a.cum[i] + p - e.Start(), nil
}

// SplicedToGenomic maps a spliced offset to its genomic position and the
// index of the exon it falls in. Every offset in [0, SplicedLen()) maps.
func (a *AnnotatedSequence) SplicedToGenomic(s int) (pos int, exon int, err error) {
	if s < 0 || s >= len(a.spliced) {
		return 0, 0, fmt.Errorf("spliced offset %d is outside [0, %d)", s, len(a.spliced))
	}

	i := a.exonAt(s)
	e := a.exons[i].Genomic
	d := s - a.cum[i]
	if a.meta.Strand == Minus {
		return e.End() - 1 - d, i, nil
	}
	return e.Start() + d, i, nil
}

// exonAt is the index of the exon holding spliced offset s.
func (a *AnnotatedSequence) exonAt(s int) int {
	return sort.Search(len(a.exons), func(i int) bool { return a.cum[i+1] > s })
}

// SplicedBlocks maps a spliced interval onto the genomic blocks it covers,
// one per exon touched, in transcript order.
func (a *AnnotatedSequence) SplicedBlocks(iv SplicedInterval) ([]GenomicInterval, error) {
	if iv.Start() < 0 || iv.End() > len(a.spliced) {
		return nil, fmt.Errorf("interval %s is outside the spliced sequence [0, %d)", iv, len(a.spliced))
	}

	var blocks []GenomicInterval
	for i := a.exonAt(iv.Start()); i < len(a.exons) && a.cum[i] < iv.End(); i++ {
		lo := max(iv.Start(), a.cum[i]) - a.cum[i]
		hi := min(iv.End(), a.cum[i+1]) - a.cum[i]
		e := a.exons[i].Genomic
		if a.meta.Strand == Minus {
			blocks = append(blocks, mustGenomic(e.End()-hi, e.End()-lo))
		} else {
			blocks = append(blocks, mustGenomic(e.Start()+lo, e.Start()+hi))
		}
	}
	return blocks, nil
}

// GenomicSpan is the smallest genomic interval enclosing a spliced interval,
// introns included.
func (a *AnnotatedSequence) GenomicSpan(iv SplicedInterval) (GenomicInterval, error) {
	blocks, err := a.SplicedBlocks(iv)
	if err != nil {
		return GenomicInterval{}, err
	}

	start, end := blocks[0].Start(), blocks[0].End()
	for _, b := range blocks[1:] {
		start = min(start, b.Start())
		end = max(end, b.End())
	}
	return mustGenomic(start, end), nil
}

// Junctions lists the exon-exon boundaries of the transcript.
func (a *AnnotatedSequence) Junctions() []Junction {
	var js []Junction
	for i := 0; i+1 < len(a.exons); i++ {
		js = append(js, Junction{
			Index:  i,
			Offset: a.cum[i+1],
			Label:  fmt.Sprintf("Exon %d|%d", i+1, i+2),
		})
	}
	return js
}

// ExonOffset is the spliced offset of the first base of exon i.
func (a *AnnotatedSequence) ExonOffset(i int) int { return a.cum[i] }
