package gene_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/gene/genetest"
)

func Test_roundTrip(t *testing.T) {
	for _, strand := range []gene.Strand{gene.Plus, gene.Minus} {
		t.Run(strand.String(), func(t *testing.T) {
			a := genetest.Build(strand, 300, []int{100, 150, 80, 42, 7}, []int{500, 700, 30, 1}, 3)

			for _, e := range a.Exons() {
				for p := e.Genomic.Start(); p < e.Genomic.End(); p++ {
					s, err := a.GenomicToSpliced(p)
					if err != nil {
						t.Fatalf("GenomicToSpliced(%d) error = %v", p, err)
					}
					got, exon, err := a.SplicedToGenomic(s)
					if err != nil {
						t.Fatalf("SplicedToGenomic(%d) error = %v", s, err)
					}
					if got != p || exon != e.Index {
						t.Fatalf("round trip of %d = (%d, exon %d), want (%d, exon %d)", p, got, exon, p, e.Index)
					}
				}
			}
		})
	}
}

func Test_splicedLength(t *testing.T) {
	tests := []struct {
		name    string
		strand  gene.Strand
		exons   []int
		introns []int
	}{
		{"single exon", gene.Plus, []int{250}, nil},
		{"three exon plus", gene.Plus, []int{100, 150, 80}, []int{500, 700}},
		{"three exon minus", gene.Minus, []int{100, 150, 80}, []int{500, 700}},
		{"many small exons", gene.Minus, []int{1, 2, 3, 4, 5, 6}, []int{10, 10, 10, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := genetest.Build(tt.strand, 50, tt.exons, tt.introns, 7)

			sum := 0
			for _, e := range a.Exons() {
				sum += e.Genomic.Len()
			}
			if a.SplicedLen() != sum || len(a.Spliced()) != sum {
				t.Errorf("spliced length = %d, want %d", a.SplicedLen(), sum)
			}
		})
	}
}

func Test_splicedSequence(t *testing.T) {
	for _, strand := range []gene.Strand{gene.Plus, gene.Minus} {
		t.Run(strand.String(), func(t *testing.T) {
			a := genetest.ThreeExon(strand, 100)

			want := ""
			for _, e := range a.Exons() {
				s, err := a.Oriented(e.Genomic)
				if err != nil {
					t.Fatal(err)
				}
				want += s
			}
			if a.Spliced() != want {
				t.Errorf("Spliced() is not the oriented exons in transcript order")
			}

			// every spliced base is the oriented genomic base it maps to
			for s := 0; s < a.SplicedLen(); s++ {
				p, _, _ := a.SplicedToGenomic(s)
				b := a.Genomic()[p-a.Span().Start()]
				if strand == gene.Minus {
					b = gene.ReverseComplement(string(b))[0]
				}
				if a.Spliced()[s] != b {
					t.Fatalf("spliced[%d] = %c, genomic[%d] oriented = %c", s, a.Spliced()[s], p, b)
				}
			}
		})
	}
}

func Test_GenomicToSpliced_outsideExon(t *testing.T) {
	a := genetest.ThreeExon(gene.Plus, 100)
	exons := a.Exons()

	tests := []struct {
		name string
		pos  int
	}{
		{"upstream flank", 0},
		{"just before exon 1", exons[0].Genomic.Start() - 1},
		{"first intron base", exons[0].Genomic.End()},
		{"last intron base", exons[1].Genomic.Start() - 1},
		{"downstream flank", a.Span().End() - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.GenomicToSpliced(tt.pos)
			var outside *gene.OutsideExonError
			if !errors.As(err, &outside) || outside.Pos != tt.pos {
				t.Errorf("GenomicToSpliced(%d) error = %v, want OutsideExonError", tt.pos, err)
			}
		})
	}
}

func Test_SplicedToGenomic_bounds(t *testing.T) {
	a := genetest.ThreeExon(gene.Minus, 100)
	for _, s := range []int{-1, a.SplicedLen()} {
		if _, _, err := a.SplicedToGenomic(s); err == nil {
			t.Errorf("SplicedToGenomic(%d) expected error", s)
		}
	}
}

func Test_Junctions(t *testing.T) {
	a := genetest.ThreeExon(gene.Minus, 100)

	want := []gene.Junction{
		{Index: 0, Offset: 100, Label: "Exon 1|2"},
		{Index: 1, Offset: 250, Label: "Exon 2|3"},
	}
	if got := a.Junctions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Junctions() = %v, want %v", got, want)
	}

	single := genetest.Build(gene.Plus, 10, []int{90}, nil, 1)
	if got := single.Junctions(); len(got) != 0 {
		t.Errorf("single exon Junctions() = %v, want none", got)
	}
}

func Test_SplicedBlocks(t *testing.T) {
	mustSpliced := func(s, e int) gene.SplicedInterval {
		iv, err := gene.NewSplicedInterval(s, e)
		if err != nil {
			t.Fatal(err)
		}
		return iv
	}
	mustGenomic := func(s, e int) gene.GenomicInterval {
		iv, err := gene.NewGenomicInterval(s, e)
		if err != nil {
			t.Fatal(err)
		}
		return iv
	}

	// plus: exon1 [100, 200), exon2 [700, 850), exon3 [1550, 1630)
	plus := genetest.ThreeExon(gene.Plus, 100)
	// minus: exon1 [1530, 1630), exon2 [880, 1030), exon3 [100, 180)
	minus := genetest.ThreeExon(gene.Minus, 100)

	tests := []struct {
		name string
		a    *gene.AnnotatedSequence
		iv   gene.SplicedInterval
		want []gene.GenomicInterval
	}{
		{
			"plus inside exon 1",
			plus,
			mustSpliced(10, 30),
			[]gene.GenomicInterval{mustGenomic(110, 130)},
		},
		{
			"plus across junction 1|2",
			plus,
			mustSpliced(90, 110),
			[]gene.GenomicInterval{mustGenomic(190, 200), mustGenomic(700, 710)},
		},
		{
			"plus across all exons",
			plus,
			mustSpliced(0, 330),
			[]gene.GenomicInterval{mustGenomic(100, 200), mustGenomic(700, 850), mustGenomic(1550, 1630)},
		},
		{
			"minus across junction 1|2",
			minus,
			mustSpliced(90, 110),
			[]gene.GenomicInterval{mustGenomic(1530, 1540), mustGenomic(1020, 1030)},
		},
		{
			"minus inside exon 3",
			minus,
			mustSpliced(250, 260),
			[]gene.GenomicInterval{mustGenomic(170, 180)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.SplicedBlocks(tt.iv)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplicedBlocks(%s) = %v, want %v", tt.iv, got, tt.want)
			}
		})
	}
}

func Test_GenomicSpan(t *testing.T) {
	minus := genetest.ThreeExon(gene.Minus, 100)
	iv, _ := gene.NewSplicedInterval(90, 110)

	got, err := minus.GenomicSpan(iv)
	if err != nil {
		t.Fatal(err)
	}
	if got.Start() != 1020 || got.End() != 1540 {
		t.Errorf("GenomicSpan(%s) = %s, want [1020, 1540)", iv, got)
	}
}
