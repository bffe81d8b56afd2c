package design

import (
	"math"
	"sort"

	"github.com/KowalskiBio/Primerool/config"
)

// ranker scores pairs, lower is better
type ranker struct {
	weights  config.RankConfig
	targetTm float64
	targetGC float64

	// productTarget is 0 when product length isn't scored
	productTarget int
}

// score is the weighted deviation of a pair from the targets.
func (r ranker) score(p PairResult) float64 {
	tm := math.Abs(p.Forward.Tm-r.targetTm) + math.Abs(p.Reverse.Tm-r.targetTm)
	gc := math.Abs(100*p.Forward.GC-r.targetGC) + math.Abs(100*p.Reverse.GC-r.targetGC)

	score := r.weights.TmWeight*tm + r.weights.GCWeight*gc
	if r.productTarget > 0 && p.ProductLength > 0 {
		score += r.weights.ProductWeight * math.Abs(float64(p.ProductLength-r.productTarget))
	}
	return score
}

// rank orders pairs by verdict, score, Tm balance and generation order.
func rank(pairs []PairResult) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Verdict != b.Verdict {
			return a.Verdict.order() < b.Verdict.order()
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if ba, bb := balance(a), balance(b); ba != bb {
			return ba < bb
		}
		return a.Order < b.Order
	})
}

// balance is the Tm difference of a pair's primers
func balance(p PairResult) float64 {
	return math.Abs(p.Forward.Tm - p.Reverse.Tm)
}

// top drops failures unless they're asked for, and keeps the first n.
func top(pairs []PairResult, n int, failures bool) []PairResult {
	kept := make([]PairResult, 0, min(n, len(pairs)))
	for _, p := range pairs {
		if len(kept) == n {
			break
		}
		if p.Verdict == Fail && !failures {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
