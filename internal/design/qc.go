package design

import (
	"fmt"
	"strings"

	"github.com/KowalskiBio/Primerool/config"
	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/gene"
)

// Reason codes recorded on pairs. Per primer codes are prefixed with
// "forward-" or "reverse-".
const (
	ReasonHairpin            = "hairpin"
	ReasonSelfDimer          = "self-dimer"
	ReasonSelfComplementary  = "self-complementary"
	ReasonHeterodimer        = "heterodimer"
	ReasonCrossComplementary = "cross-complementary"
	ReasonProductSize        = "product-size"
	ReasonPrimerOrder        = "primer-order"
	ReasonOffTarget          = "off-target"
	ReasonSpecificityUnknown = "specificity-unknown"
)

// qc applies the hard thermodynamic and sequence checks.
type qc struct {
	conf       config.QCConfig
	productMin int
	productMax int
}

// check records the hard failures of a pair and sets its verdict.
func (q qc) check(p *PairResult) {
	p.Reasons = append(p.Reasons, q.primer("forward", p.Forward)...)
	p.Reasons = append(p.Reasons, q.primer("reverse", p.Reverse)...)

	if p.Heterodimer > q.conf.MaxHeterodimerTm {
		p.Reasons = append(p.Reasons, ReasonHeterodimer)
	}
	if complementaryRun(p.Forward.Seq, p.Reverse.Seq) >= q.conf.MaxComplementarity {
		p.Reasons = append(p.Reasons, ReasonCrossComplementary)
	}

	if p.misordered {
		p.Reasons = append(p.Reasons, ReasonPrimerOrder)
	}
	if p.ProductLength > 0 && q.productMax > 0 && (p.ProductLength < q.productMin || p.ProductLength > q.productMax) {
		p.Reasons = append(p.Reasons, ReasonProductSize)
	}

	p.Verdict = verdict(p.Reasons)
}

// primer returns the failures of a single primer
func (q qc) primer(prefix string, c Candidate) []string {
	var reasons []string
	if c.Hairpin > q.conf.MaxHairpinTm {
		reasons = append(reasons, prefix+"-"+ReasonHairpin)
	}
	if max(c.SelfAny, c.SelfEnd) > q.conf.MaxSelfDimerTm {
		reasons = append(reasons, prefix+"-"+ReasonSelfDimer)
	}

	// a palindrome pairs with itself end to end
	if run := complementaryRun(c.Seq, c.Seq); run >= q.conf.MaxComplementarity || run > 0 && run == len(c.Seq) {
		reasons = append(reasons, prefix+"-"+ReasonSelfComplementary)
	}
	return reasons
}

// specificity counts the hits at or above minIdentity on genes other than
// the target and records them. More than one is a warning.
func specificity(p *PairResult, hits []blast.Hit, symbol string, minIdentity float64) {
	var off []blast.Hit
	for _, h := range hits {
		if h.Identity < minIdentity || h.GeneSymbol == "" || strings.EqualFold(h.GeneSymbol, symbol) {
			continue
		}
		off = append(off, h)
	}

	p.Hits = off
	if len(off) > 1 {
		p.Reasons = append(p.Reasons, fmt.Sprintf("%s:%d", ReasonOffTarget, len(off)))
	}
	p.Verdict = verdict(p.Reasons)
}

// verdict is fail on any hard failure, warn on off-target hits alone,
// otherwise pass.
func verdict(reasons []string) Verdict {
	v := Pass
	for _, r := range reasons {
		switch {
		case strings.HasPrefix(r, ReasonOffTarget):
			v = Warn
		case r == ReasonSpecificityUnknown:
		default:
			return Fail
		}
	}
	return v
}

// complementaryRun is the longest stretch of a that pairs antiparallel with
// b: the longest common substring of a and b's reverse complement. N never
// pairs.
func complementaryRun(a, b string) int {
	a = strings.ToUpper(a)
	rc := gene.ReverseComplement(b)

	best := 0
	prev := make([]int, len(rc)+1)
	cur := make([]int, len(rc)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(rc); j++ {
			if a[i-1] == rc[j-1] && a[i-1] != 'N' {
				cur[j] = prev[j-1] + 1
				best = max(best, cur[j])
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
