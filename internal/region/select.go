package region

import (
	"fmt"

	"github.com/KowalskiBio/Primerool/internal/gene"
)

// MinUsableLength is the floor on the shortest region a primer is searched in.
const MinUsableLength = 15

// Params are the settings the selector needs from a design request.
type Params struct {
	// MinPrimerLen and MaxPrimerLen are the primer size bounds
	MinPrimerLen int
	MaxPrimerLen int

	// FlankPolicy applies when a WGA flank is longer than the fetched margin
	FlankPolicy FlankPolicy

	// LeftPad and RightPad size the spliced context around a junction
	LeftPad  int
	RightPad int
}

// minLen is the shortest region that can hold a primer.
func (p Params) minLen() int {
	return max(p.MinPrimerLen, MinUsableLength)
}

// Select builds the search windows for a mode. a may be nil for the literal
// modes (FromSequence, Manual, Targeted, Single).
func Select(a *gene.AnnotatedSequence, m Mode, p Params) (*Selection, error) {
	if NeedsGene(m) && a == nil {
		return nil, fmt.Errorf("%s design needs an annotated gene", m.Name())
	}

	switch m := m.(type) {
	case WGA:
		return selectWGA(a, m, p)
	case Internal:
		return selectInternal(a, m, p)
	case FromSequence:
		return selectFromSequence(m, p)
	case Manual:
		return selectManual(m)
	case Targeted:
		return selectTargeted(m, p)
	case Single:
		return selectSingle(m, p)
	}
	return nil, fmt.Errorf("unknown design mode %T", m)
}

// selectWGA places the forward window upstream of the transcription start and
// the reverse window downstream of the transcription end, following strand.
func selectWGA(a *gene.AnnotatedSequence, m WGA, p Params) (*Selection, error) {
	sel := &Selection{Mode: m.Name()}

	up, err := flank("upstream flank", m.FlankLength, a.UpstreamMargin(), p, sel)
	if err != nil {
		return nil, err
	}
	down, err := flank("downstream flank", m.FlankLength, a.DownstreamMargin(), p, sel)
	if err != nil {
		return nil, err
	}

	body := a.Body()
	var fwd, rev gene.GenomicInterval
	if a.Strand() == gene.Minus {
		fwd, _ = gene.NewGenomicInterval(body.End(), body.End()+up)
		rev, _ = gene.NewGenomicInterval(body.Start()-down, body.Start())
	} else {
		fwd, _ = gene.NewGenomicInterval(body.Start()-up, body.Start())
		rev, _ = gene.NewGenomicInterval(body.End(), body.End()+down)
	}

	fwdWin, err := genomicWindow(a, Forward, "upstream", fwd)
	if err != nil {
		return nil, err
	}
	revWin, err := genomicWindow(a, Reverse, "downstream", rev)
	if err != nil {
		return nil, err
	}

	sel.Targets = []Target{{
		Name:    a.Symbol(),
		Windows: []Window{fwdWin, revWin},
		Placed:  true,
	}}
	return sel, nil
}

// flank applies the flank policy to one side of the gene.
func flank(name string, requested, margin int, p Params, sel *Selection) (int, error) {
	if requested < p.minLen() {
		return 0, &InsufficientSequenceError{Region: name, Need: p.minLen(), Have: requested}
	}
	if requested <= margin {
		return requested, nil
	}
	if p.FlankPolicy != Clamp || margin < p.minLen() {
		return 0, &InsufficientSequenceError{Region: name, Need: requested, Have: margin}
	}

	sel.Warnings = append(sel.Warnings, &FlankClampedWarning{Region: name, Requested: requested, Used: margin})
	return margin, nil
}

func genomicWindow(a *gene.AnnotatedSequence, r Role, name string, iv gene.GenomicInterval) (Window, error) {
	seq, err := a.Oriented(iv)
	if err != nil {
		return Window{}, err
	}
	return Window{
		Name:        name,
		Role:        r,
		Space:       Genomic,
		Interval:    iv.Interval,
		Orientation: a.Strand(),
		Seq:         seq,
	}, nil
}

// selectInternal builds one spliced window per exon-exon junction, centered
// on the junction and wide enough for a primer to cross it.
func selectInternal(a *gene.AnnotatedSequence, m Internal, p Params) (*Selection, error) {
	junctions := a.Junctions()
	if len(junctions) == 0 {
		return nil, ErrNoJunctions
	}
	if m.Junction < 0 || m.Junction > len(junctions) {
		return nil, fmt.Errorf("%w: %d, transcript %s has junctions 1-%d", ErrUnknownJunction, m.Junction, a.Meta().TranscriptID, len(junctions))
	}
	if m.Junction > 0 {
		junctions = junctions[m.Junction-1 : m.Junction]
	}

	sel := &Selection{Mode: m.Name()}
	n := a.SplicedLen()
	for _, j := range junctions {
		win, err := splicedWindow(a, Whole, j.Label, max(j.Offset-p.MaxPrimerLen, 0), min(j.Offset+p.MaxPrimerLen, n))
		if err != nil {
			return nil, err
		}
		if win.Interval.Len() < p.minLen() {
			return nil, &InsufficientSequenceError{Region: j.Label, Need: p.minLen(), Have: win.Interval.Len()}
		}

		ctx, err := splicedWindow(a, Whole, j.Label+" context", max(j.Offset-p.LeftPad, 0), min(j.Offset+p.RightPad, n))
		if err != nil {
			return nil, err
		}

		j := j
		sel.Targets = append(sel.Targets, Target{
			Name:     j.Label,
			Windows:  []Window{win},
			Template: &ctx,
			Junction: &j,
			Placed:   true,
		})
	}
	return sel, nil
}

func splicedWindow(a *gene.AnnotatedSequence, r Role, name string, start, end int) (Window, error) {
	iv, err := gene.NewSplicedInterval(start, end)
	if err != nil {
		return Window{}, err
	}
	seq, err := a.SplicedSlice(iv)
	if err != nil {
		return Window{}, err
	}
	return Window{
		Name:        name,
		Role:        r,
		Space:       Spliced,
		Interval:    iv.Interval,
		Orientation: gene.Plus,
		Seq:         seq,
	}, nil
}

// selectFromSequence wraps the two caller regions as a bound pair of windows.
func selectFromSequence(m FromSequence, p Params) (*Selection, error) {
	fwd, err := literalWindow(m.Forward, Forward, "forward region", p)
	if err != nil {
		return nil, err
	}
	rev, err := literalWindow(m.Reverse, Reverse, "reverse region", p)
	if err != nil {
		return nil, err
	}

	return &Selection{
		Mode: m.Name(),
		Targets: []Target{{
			Name:    "sequence",
			Windows: []Window{fwd, rev},
			Placed:  m.Forward.Start != nil && m.Reverse.Start != nil,
		}},
	}, nil
}

func literalWindow(l LiteralRegion, r Role, name string, p Params) (Window, error) {
	seq, err := gene.Normalize(l.Seq)
	if err != nil {
		return Window{}, fmt.Errorf("%s: %w", name, err)
	}
	if len(seq) < p.minLen() {
		return Window{}, &InsufficientSequenceError{Region: name, Need: p.minLen(), Have: len(seq)}
	}
	if l.Reverse {
		seq = gene.ReverseComplement(seq)
	}

	start := 0
	if l.Start != nil {
		start = *l.Start
	}
	iv, err := gene.NewInterval(start, start+len(seq))
	if err != nil {
		return Window{}, err
	}

	if l.Name != "" {
		name = l.Name
	}
	return Window{
		Name:        name,
		Role:        r,
		Space:       Literal,
		Interval:    iv,
		Orientation: gene.Plus,
		Seq:         seq,
	}, nil
}

// selectManual wraps two oligos as zero-choice windows.
func selectManual(m Manual) (*Selection, error) {
	var windows []Window
	for _, o := range []struct {
		role Role
		name string
		seq  string
	}{
		{Forward, "forward oligo", m.Forward},
		{Reverse, "reverse oligo", m.Reverse},
	} {
		seq, err := gene.Normalize(o.seq)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}
		if len(seq) == 0 {
			return nil, &InsufficientSequenceError{Region: o.name, Need: 1, Have: 0}
		}
		iv, _ := gene.NewInterval(0, len(seq))
		windows = append(windows, Window{
			Name:        o.name,
			Role:        o.role,
			Space:       Literal,
			Interval:    iv,
			Orientation: gene.Plus,
			Seq:         seq,
			Fixed:       true,
		})
	}

	return &Selection{
		Mode:    m.Name(),
		Targets: []Target{{Name: "manual", Windows: windows}},
	}, nil
}

// selectTargeted searches a whole template for pairs around a target.
func selectTargeted(m Targeted, p Params) (*Selection, error) {
	w, err := literalWindow(LiteralRegion{Seq: m.Template}, Whole, "template", p)
	if err != nil {
		return nil, err
	}
	n := w.Interval.Len()
	if m.TargetStart < 0 || m.TargetEnd <= m.TargetStart || m.TargetEnd > n {
		return nil, &OutOfRangeError{Region: "target", Start: m.TargetStart, End: m.TargetEnd, Len: n}
	}

	target, _ := gene.NewInterval(m.TargetStart, m.TargetEnd)
	return &Selection{
		Mode: m.Name(),
		Targets: []Target{{
			Name:      "target",
			Windows:   []Window{w},
			Template:  &w,
			Amplified: &target,
			Placed:    true,
		}},
	}, nil
}

// selectSingle searches part of a template for one primer.
func selectSingle(m Single, p Params) (*Selection, error) {
	w, err := literalWindow(LiteralRegion{Seq: m.Template}, Whole, "template", p)
	if err != nil {
		return nil, err
	}
	n := w.Interval.Len()
	end := m.IncludeStart + m.IncludeLen
	if m.IncludeStart < 0 || m.IncludeLen <= 0 || end > n {
		return nil, &OutOfRangeError{Region: "include region", Start: m.IncludeStart, End: end, Len: n}
	}
	if m.IncludeLen < p.minLen() {
		return nil, &InsufficientSequenceError{Region: "include region", Need: p.minLen(), Have: m.IncludeLen}
	}

	w.Role = Forward
	if m.Side == Right {
		w.Role = Reverse
	}
	included, _ := gene.NewInterval(m.IncludeStart, end)
	return &Selection{
		Mode: m.Name(),
		Targets: []Target{{
			Name:     string(m.Side),
			Windows:  []Window{w},
			Included: &included,
			Placed:   true,
		}},
	}, nil
}

