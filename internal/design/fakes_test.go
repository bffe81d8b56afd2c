package design

import (
	"context"
	"strings"
	"sync"

	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/primer3"
)

// fakeProvider returns a fixed sequence and counts its calls.
type fakeProvider struct {
	a     *gene.AnnotatedSequence
	err   error
	calls int
}

func (f *fakeProvider) Fetch(ctx context.Context, q gene.Query) (*gene.AnnotatedSequence, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.a, nil
}

// fakeScorer picks primers at fixed template offsets. LEFT primers get Tms
// of 60, 62 and 64 C, RIGHT primers the same, and every primer is 50% GC.
type fakeScorer struct {
	mu     sync.Mutex
	tasks  []primer3.Task
	checks []string

	err   error
	het   float64
	empty bool
}

var fakeTms = []float64{60, 62, 64}

func (f *fakeScorer) Pick(ctx context.Context, t primer3.Task) (*primer3.Result, error) {
	f.mu.Lock()
	f.tasks = append(f.tasks, t)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	res := &primer3.Result{Explain: map[string]string{}}
	if f.empty {
		res.Explain["left"] = "considered 120, GC content failed 80, low tm 40, ok 0"
		return res, nil
	}

	size := t.Constraints.OptSize
	first, last := 0, len(t.Template)-1
	if t.IncludedLen > 0 {
		first, last = t.IncludedStart, t.IncludedStart+t.IncludedLen-1
	}
	switch {
	case len(t.Junctions) > 0:
		// the boundary is right of the listed base
		j := t.Junctions[0] + 1
		// one LEFT across the junction, one wholly 5' of it
		res.Left = []primer3.Oligo{
			fakeOligo(t.Template, j-10, size, false, 62),
			fakeOligo(t.Template, max(j-60, 0), size, false, 62),
		}
		res.Right = []primer3.Oligo{fakeOligo(t.Template, min(j+100, last), size, true, 62)}
		res.Pairs = []primer3.Pair{{Left: 0, Right: 0, ComplAny: 5}, {Left: 1, Right: 0, ComplAny: 5}}
	case t.TargetLen > 0:
		// one pair 40 bp out from each side of the target
		res.Left = []primer3.Oligo{fakeOligo(t.Template, max(t.TargetStart-40-size, 0), size, false, 62)}
		res.Right = []primer3.Oligo{fakeOligo(t.Template, min(t.TargetStart+t.TargetLen+40+size, last), size, true, 62)}
		res.Pairs = []primer3.Pair{{Left: 0, Right: 0, ComplAny: 5}}
	case t.PickLeft:
		for i, tm := range fakeTms {
			res.Left = append(res.Left, fakeOligo(t.Template, first+10*i, size, false, tm))
		}
	case t.PickRight:
		for i, tm := range fakeTms {
			res.Right = append(res.Right, fakeOligo(t.Template, last-10*i, size, true, tm))
		}
	}
	return res, nil
}

// fakeOligo is the primer with its 5' end at template offset start
func fakeOligo(template string, start, size int, right bool, tm float64) primer3.Oligo {
	seq := template[start : start+size]
	if right {
		seq = gene.ReverseComplement(template[start-size+1 : start+1])
	}
	return primer3.Oligo{Seq: seq, Start: start, Length: size, Tm: tm, GC: 50}
}

func (f *fakeScorer) Check(ctx context.Context, seq string) (*primer3.Oligo, error) {
	f.mu.Lock()
	f.checks = append(f.checks, seq)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	gc := float64(strings.Count(seq, "G")+strings.Count(seq, "C")) / float64(len(seq)) * 100
	return &primer3.Oligo{Seq: seq, Length: len(seq), Tm: 60, GC: gc}, nil
}

func (f *fakeScorer) Heterodimer(ctx context.Context, a, b string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.het, nil
}

// fakeSearcher returns fixed hits for every query.
type fakeSearcher struct {
	hits    []blast.Hit
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]blast.Hit, error) {
	f.queries = append(f.queries, query)
	return f.hits, f.err
}
