// Package design orchestrates a primer design: it selects the regions to
// search for a mode, asks the engine for candidates, applies quality checks
// and ranks the pairs.
package design

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/primer3"
	"github.com/KowalskiBio/Primerool/internal/region"
)

// Provider builds annotated sequences, eg the Ensembl client or the store
// in front of it.
type Provider interface {
	Fetch(ctx context.Context, q gene.Query) (*gene.AnnotatedSequence, error)
}

// Scorer is the thermodynamic engine.
type Scorer interface {
	Pick(ctx context.Context, t primer3.Task) (*primer3.Result, error)
	Check(ctx context.Context, seq string) (*primer3.Oligo, error)
	Heterodimer(ctx context.Context, a, b string) (float64, error)
}

// Searcher finds the sequences similar to a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]blast.Hit, error)
}

// Designer runs designs. It holds no per-request state and is safe for
// concurrent use.
type Designer struct {
	conf     *config.Config
	provider Provider
	scorer   Scorer
	searcher Searcher
	log      zerolog.Logger
}

// New creates a Designer. searcher may be nil to skip specificity checks.
func New(conf *config.Config, provider Provider, scorer Scorer, searcher Searcher, log zerolog.Logger) *Designer {
	return &Designer{
		conf:     conf,
		provider: provider,
		scorer:   scorer,
		searcher: searcher,
		log:      log.With().Str("component", "designer").Logger(),
	}
}

// Design runs a request end to end. An empty result (NoCandidates) isn't an
// error. Collaborator failures are returned as a *StageError.
func (d *Designer) Design(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	req = req.withDefaults(d.conf)
	if err := req.validate(d.conf); err != nil {
		return nil, err
	}

	res := &Result{RequestID: uuid.NewString(), Mode: req.Mode.Name()}
	log := d.log.With().Str("request", res.RequestID).Str("mode", res.Mode).Logger()

	var a *gene.AnnotatedSequence
	if region.NeedsGene(req.Mode) {
		if d.provider == nil {
			return nil, &StageError{Stage: StageFetch, Err: errors.New("no sequence provider configured")}
		}
		stageStart := time.Now()
		var err error
		if a, err = d.provider.Fetch(ctx, *req.Gene); err != nil {
			return nil, &StageError{Stage: StageFetch, Err: err}
		}
		meta := a.Meta()
		res.Gene = &meta
		log.Debug().Str("gene", meta.Symbol).Dur("took", time.Since(stageStart)).Msg("fetched")
	}

	sel, err := region.Select(a, req.Mode, region.Params{
		MinPrimerLen: req.MinPrimerLen,
		MaxPrimerLen: req.MaxPrimerLen,
		FlankPolicy:  req.FlankPolicy,
		LeftPad:      d.conf.Internal.LeftPad,
		RightPad:     d.conf.Internal.RightPad,
	})
	if err != nil {
		return nil, &StageError{Stage: StageSelect, Err: err}
	}
	res.Targets = sel.Targets
	for _, w := range sel.Warnings {
		res.FlankClamps = append(res.FlankClamps, w)
		res.Warnings = append(res.Warnings, Warning{Code: "flank-clamped", Message: w.Error()})
	}

	stageStart := time.Now()
	gen := &generator{
		scorer:      d.scorer,
		gene:        a,
		constraints: req.constraints(d.conf),
		req:         req,
		overlap:     d.conf.Internal.JunctionOverlap,
	}
	var pairs []PairResult
	for _, t := range sel.Targets {
		ps, err := gen.target(ctx, t)
		if err != nil {
			return nil, &StageError{Stage: StageGenerate, Err: err}
		}
		pairs = append(pairs, ps...)
	}
	res.Explain = gen.explain
	res.Considered = len(pairs) + len(gen.primers)
	log.Debug().
		Int("targets", len(sel.Targets)).
		Int("pairs", len(pairs)).
		Int("uncrossed", gen.uncrossed).
		Dur("took", time.Since(stageStart)).
		Msg("generated")

	checks := qc{conf: d.conf.QC, productMin: req.ProductMin, productMax: req.ProductMax}
	rk := d.ranker(req, a)
	for i := range pairs {
		checks.check(&pairs[i])
		pairs[i].Score = rk.score(pairs[i])
	}
	rank(pairs)

	if d.searcher != nil && a != nil {
		if err := d.confirm(ctx, a, pairs, res); err != nil {
			return nil, err
		}
		rank(pairs)
	}

	res.Pairs = top(pairs, req.MaxResults, req.IncludeFailures)
	if len(gen.primers) > 0 {
		res.Primers = gen.primers[:min(len(gen.primers), req.MaxResults)]
	}
	log.Info().
		Int("considered", res.Considered).
		Int("returned", len(res.Pairs)+len(res.Primers)).
		Dur("took", time.Since(start)).
		Msg("design complete")
	return res, nil
}

// ranker scores products against the middle of the product range, or for
// WGA without a range against the gene body, the shortest possible product.
// Literal designs without a target aren't scored on product length.
func (d *Designer) ranker(req Request, a *gene.AnnotatedSequence) ranker {
	r := ranker{weights: d.conf.Rank, targetTm: req.TargetTm, targetGC: req.TargetGC}
	switch req.Mode.(type) {
	case region.WGA, region.Internal, region.Targeted:
		if req.ProductMax > 0 {
			r.productTarget = (req.ProductMin + req.ProductMax) / 2
		} else if a != nil {
			r.productTarget = a.Body().Len()
		}
	}
	return r
}

// confirm searches the amplicons of the best pairs, in preliminary rank
// order, for off-target hits. An unavailable searcher degrades to a note.
func (d *Designer) confirm(ctx context.Context, a *gene.AnnotatedSequence, pairs []PairResult, res *Result) error {
	start := time.Now()
	searched := 0
	for i := range pairs {
		p := &pairs[i]
		if searched == d.conf.Specificity.MaxQueries {
			break
		}
		if p.Verdict == Fail {
			continue
		}
		amplicon, ok := d.amplicon(a, p)
		if !ok {
			continue
		}

		searched++
		hits, err := d.searcher.Search(ctx, amplicon)
		var unavailable *blast.SearchUnavailableError
		switch {
		case errors.As(err, &unavailable):
			d.log.Warn().Err(err).Msg("specificity search unavailable")
			res.Warnings = append(res.Warnings, Warning{Code: ReasonSpecificityUnknown, Message: err.Error()})
			for j := i; j < len(pairs); j++ {
				if pairs[j].Verdict != Fail {
					pairs[j].Reasons = append(pairs[j].Reasons, ReasonSpecificityUnknown)
				}
			}
			return nil
		case err != nil:
			return &StageError{Stage: StageSpecificity, Err: err}
		}
		specificity(p, hits, a.Symbol(), d.conf.Specificity.MinIdentity)
	}

	d.log.Debug().Int("searched", searched).Dur("took", time.Since(start)).Msg("specificity confirmed")
	return nil
}

// amplicon is the product sequence of a pair in transcript orientation,
// for products the searcher accepts.
func (d *Designer) amplicon(a *gene.AnnotatedSequence, p *PairResult) (string, bool) {
	if p.Product == nil {
		return "", false
	}
	iv := p.Product.Interval
	if iv.Len() < blast.MinQueryLen || iv.Len() > blast.MaxQueryLen {
		return "", false
	}

	var (
		seq string
		err error
	)
	switch p.Product.Space {
	case region.Genomic:
		g, _ := gene.NewGenomicInterval(iv.Start(), iv.End())
		seq, err = a.Oriented(g)
	case region.Spliced:
		s, _ := gene.NewSplicedInterval(iv.Start(), iv.End())
		seq, err = a.SplicedSlice(s)
	default:
		return "", false
	}
	if err != nil {
		d.log.Warn().Err(err).Str("product", iv.String()).Msg("failed to read amplicon")
		return "", false
	}
	return seq, true
}
