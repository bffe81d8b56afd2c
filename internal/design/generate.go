package design

import (
	"context"
	"fmt"
	"sort"

	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/primer3"
	"github.com/KowalskiBio/Primerool/internal/region"
)

// generator turns the targets of one request into candidate pairs.
type generator struct {
	scorer      Scorer
	gene        *gene.AnnotatedSequence
	constraints primer3.Constraints
	req         Request
	overlap     int

	// counters for generation order
	candidates int
	pairs      int

	// junction pairs dropped for not crossing their junction
	uncrossed int

	// primers of Single targets, which have no pairs
	primers []Candidate

	explain []Explain
}

// target runs the engine for one target.
func (g *generator) target(ctx context.Context, t region.Target) ([]PairResult, error) {
	switch {
	case t.Included != nil:
		return nil, g.single(ctx, t)
	case t.Amplified != nil:
		return g.around(ctx, t)
	case t.Template != nil:
		return g.junction(ctx, t)
	case len(t.Windows) == 2 && t.Windows[0].Fixed:
		return g.fixed(ctx, t)
	default:
		return g.bound(ctx, t)
	}
}

// bound picks forward primers in one window and reverse primers in the
// other, then pairs every forward with every reverse.
func (g *generator) bound(ctx context.Context, t region.Target) ([]PairResult, error) {
	fwd, ok := t.Window(region.Forward)
	if !ok {
		return nil, fmt.Errorf("target %s has no forward window", t.Name)
	}
	rev, ok := t.Window(region.Reverse)
	if !ok {
		return nil, fmt.Errorf("target %s has no reverse window", t.Name)
	}

	left, err := g.scorer.Pick(ctx, primer3.Task{
		ID:          t.Name + "-forward",
		Template:    fwd.Seq,
		PickLeft:    true,
		Constraints: g.constraints,
	})
	if err != nil {
		return nil, err
	}
	g.explainFrom(t.Name, left)

	right, err := g.scorer.Pick(ctx, primer3.Task{
		ID:          t.Name + "-reverse",
		Template:    rev.Seq,
		PickRight:   true,
		Constraints: g.constraints,
	})
	if err != nil {
		return nil, err
	}
	g.explainFrom(t.Name, right)

	lefts := g.candidatesOf(left.Left, fwd, false)
	rights := g.candidatesOf(right.Right, rev, true)

	var pairs []PairResult
	for _, l := range lefts {
		for _, r := range rights {
			het, err := g.scorer.Heterodimer(ctx, l.Seq, r.Seq)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, g.pair(t, l, r, het))
		}
	}
	return pairs, nil
}

// junction picks pairs in the spliced context of a junction and keeps those
// with a primer across it.
func (g *generator) junction(ctx context.Context, t region.Target) ([]PairResult, error) {
	tmpl := *t.Template
	j := t.Junction.Offset

	res, err := g.scorer.Pick(ctx, primer3.Task{
		ID:              t.Name,
		Template:        tmpl.Seq,
		PickLeft:        true,
		PickRight:       true,
		ProductMin:      g.req.ProductMin,
		ProductMax:      g.req.ProductMax,
		Junctions:       []int{j - tmpl.Interval.Start() - 1},
		JunctionOverlap: g.overlap,
		Constraints:     g.constraints,
	})
	if err != nil {
		return nil, err
	}
	g.explainFrom(t.Name, res)

	lefts := g.candidatesOf(res.Left, tmpl, false)
	rights := g.candidatesOf(res.Right, tmpl, true)

	var pairs []PairResult
	for _, p := range res.Pairs {
		if p.Left >= len(lefts) || p.Right >= len(rights) {
			continue
		}
		l, r := lefts[p.Left], rights[p.Right]
		if !crosses(l, j) && !crosses(r, j) {
			g.uncrossed++
			continue
		}
		pairs = append(pairs, g.pair(t, l, r, p.ComplAny))
	}
	return pairs, nil
}

// around picks pairs anywhere in a template whose products contain the
// target's amplified region.
func (g *generator) around(ctx context.Context, t region.Target) ([]PairResult, error) {
	tmpl := *t.Template
	amp := *t.Amplified

	res, err := g.scorer.Pick(ctx, primer3.Task{
		ID:          t.Name,
		Template:    tmpl.Seq,
		TargetStart: amp.Start() - tmpl.Interval.Start(),
		TargetLen:   amp.Len(),
		PickLeft:    true,
		PickRight:   true,
		ProductMin:  g.req.ProductMin,
		ProductMax:  g.req.ProductMax,
		Constraints: g.constraints,
	})
	if err != nil {
		return nil, err
	}
	g.explainFrom(t.Name, res)

	lefts := g.candidatesOf(res.Left, tmpl, false)
	rights := g.candidatesOf(res.Right, tmpl, true)

	var pairs []PairResult
	for _, p := range res.Pairs {
		if p.Left >= len(lefts) || p.Right >= len(rights) {
			continue
		}
		pairs = append(pairs, g.pair(t, lefts[p.Left], rights[p.Right], p.ComplAny))
	}
	return pairs, nil
}

// single picks one primer, LEFT for a forward window and RIGHT for a
// reverse one, inside the target's included region.
func (g *generator) single(ctx context.Context, t region.Target) error {
	w := t.Windows[0]
	inc := *t.Included
	right := w.Role == region.Reverse

	res, err := g.scorer.Pick(ctx, primer3.Task{
		ID:            t.Name,
		Template:      w.Seq,
		IncludedStart: inc.Start() - w.Interval.Start(),
		IncludedLen:   inc.Len(),
		PickLeft:      !right,
		PickRight:     right,
		Constraints:   g.constraints,
	})
	if err != nil {
		return err
	}
	g.explainFrom(t.Name, res)

	oligos := res.Left
	if right {
		oligos = res.Right
	}
	g.primers = append(g.primers, g.candidatesOf(oligos, w, right)...)
	return nil
}

// fixed scores two caller oligos as a pair.
func (g *generator) fixed(ctx context.Context, t region.Target) ([]PairResult, error) {
	fwd, _ := t.Window(region.Forward)
	rev, _ := t.Window(region.Reverse)

	var cands []Candidate
	for i, w := range []region.Window{fwd, rev} {
		o, err := g.scorer.Check(ctx, w.Seq)
		if err != nil {
			return nil, err
		}
		// the oligo is the whole window, read 5' to 3'
		o.Start, o.Length = 0, len(w.Seq)
		c := g.candidate(*o, w, false)
		if i == 1 {
			c.Strand = gene.Minus
			c.Position = w.Interval.End() - 1
		}
		cands = append(cands, c)
	}

	het, err := g.scorer.Heterodimer(ctx, fwd.Seq, rev.Seq)
	if err != nil {
		return nil, err
	}
	return []PairResult{g.pair(t, cands[0], cands[1], het)}, nil
}

// candidatesOf converts the engine's oligos into candidates of a window.
func (g *generator) candidatesOf(oligos []primer3.Oligo, w region.Window, right bool) []Candidate {
	cands := make([]Candidate, 0, len(oligos))
	for _, o := range oligos {
		cands = append(cands, g.candidate(o, w, right))
	}
	return cands
}

// candidate maps an oligo at a template offset into the window's space.
// LEFT primers read along the template, RIGHT primers against it.
func (g *generator) candidate(o primer3.Oligo, w region.Window, right bool) Candidate {
	strand := w.Orientation
	if right {
		strand = -strand
	}

	c := Candidate{
		Seq:          o.Seq,
		Space:        w.Space,
		Position:     w.Position(o.Start),
		Length:       o.Length,
		Strand:       strand,
		Tm:           o.Tm,
		GC:           o.GC / 100,
		EndStability: o.EndStability,
		SelfAny:      o.SelfAny,
		SelfEnd:      o.SelfEnd,
		Hairpin:      o.Hairpin,
		Penalty:      o.Penalty,
		Order:        g.candidates,
	}
	g.candidates++

	if w.Space == region.Spliced && g.gene != nil {
		fp := c.Footprint()
		if iv, err := gene.NewSplicedInterval(fp.Start(), fp.End()); err == nil {
			c.Blocks, _ = g.gene.SplicedBlocks(iv)
		}
	}
	return c
}

// pair joins two candidates and works out their product.
func (g *generator) pair(t region.Target, l, r Candidate, het float64) PairResult {
	p := PairResult{
		Target:      t.Name,
		Forward:     l,
		Reverse:     r,
		Junction:    t.Junction,
		Heterodimer: het,
		Order:       g.pairs,
	}
	g.pairs++

	if !t.Placed || l.Space != r.Space {
		return p
	}

	// the forward primer's 5' end must lead the reverse primer's along the
	// forward primer's strand
	if l.Strand == gene.Minus && l.Position < r.Position || l.Strand != gene.Minus && l.Position > r.Position {
		p.misordered = true
		return p
	}

	lf, rf := l.Footprint(), r.Footprint()
	product, err := gene.NewInterval(min(lf.Start(), rf.Start()), max(lf.End(), rf.End()))
	if err != nil {
		return p
	}
	p.Product = &Span{Space: l.Space, Interval: product}
	p.ProductLength = product.Len()

	switch {
	case g.gene == nil:
	case l.Space == region.Genomic:
		iv, _ := gene.NewGenomicInterval(product.Start(), product.End())
		p.GenomicProduct = &iv
	case l.Space == region.Spliced:
		if iv, err := gene.NewSplicedInterval(product.Start(), product.End()); err == nil {
			if span, err := g.gene.GenomicSpan(iv); err == nil {
				p.GenomicProduct = &span
			}
		}
	}
	return p
}

// explainFrom keeps the engine's explanation of a search
func (g *generator) explainFrom(target string, res *primer3.Result) {
	sides := make([]string, 0, len(res.Explain))
	for side := range res.Explain {
		sides = append(sides, side)
	}
	sort.Strings(sides)
	for _, side := range sides {
		g.explain = append(g.explain, Explain{Target: target, Side: side, Text: res.Explain[side]})
	}
}

// crosses reports whether a spliced candidate spans the boundary before
// offset j, with a base on each side.
func crosses(c Candidate, j int) bool {
	fp := c.Footprint()
	return fp.Start() < j && j < fp.End()
}
