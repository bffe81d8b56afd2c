// Package genetest builds synthetic annotated sequences for tests.
package genetest

import (
	"math/rand"

	"github.com/KowalskiBio/Primerool/internal/gene"
)

// Build lays out a transcript with the given exon and intron lengths (in
// transcript order) and margin bp of flank on each side. The genomic
// sequence is pseudo-random but the same for the same seed.
func Build(strand gene.Strand, margin int, exons, introns []int, seed int64) *gene.AnnotatedSequence {
	body := 0
	for _, l := range exons {
		body += l
	}
	for _, l := range introns {
		body += l
	}
	total := body + 2*margin

	// lay out exons left to right in transcript order, then mirror for Minus
	var ivs []gene.GenomicInterval
	pos := margin
	for i, l := range exons {
		start, end := pos, pos+l
		if strand == gene.Minus {
			start, end = total-pos-l, total-pos
		}
		iv, err := gene.NewGenomicInterval(start, end)
		if err != nil {
			panic(err)
		}
		ivs = append(ivs, iv)

		pos += l
		if i < len(introns) {
			pos += introns[i]
		}
	}

	span, err := gene.NewGenomicInterval(0, total)
	if err != nil {
		panic(err)
	}

	a, err := gene.New(gene.Meta{
		Species:      "homo_sapiens",
		GeneID:       "ENSG00000000001",
		Symbol:       "TEST1",
		TranscriptID: "ENST00000000001",
		Chrom:        "1",
		Strand:       strand,
	}, span, Sequence(total, seed), ivs)
	if err != nil {
		panic(err)
	}
	return a
}

// ThreeExon is a transcript with exons of 100, 150 and 80 bp separated by
// introns of 500 and 700 bp.
func ThreeExon(strand gene.Strand, margin int) *gene.AnnotatedSequence {
	return Build(strand, margin, []int{100, 150, 80}, []int{500, 700}, 1)
}

// Sequence returns a pseudo-random DNA sequence of length n.
func Sequence(n int, seed int64) string {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}
