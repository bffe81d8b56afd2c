package design

import (
	"fmt"
	"strings"

	"github.com/KowalskiBio/Primerool/config"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/primer3"
	"github.com/KowalskiBio/Primerool/internal/region"
)

// maxPrimerLen is the longest oligo the engine can score
const maxPrimerLen = 36

// Request is one design. Zero valued settings take the configured defaults.
type Request struct {
	// Gene to design against, WGA and Internal only
	Gene *gene.Query `json:"gene,omitempty"`

	// Mode is the design strategy
	Mode region.Mode `json:"-"`

	MinPrimerLen int `json:"minPrimerLen,omitempty"`
	MaxPrimerLen int `json:"maxPrimerLen,omitempty"`

	// TargetTm, C
	TargetTm float64 `json:"targetTm,omitempty"`

	// TargetGC, percent
	TargetGC float64 `json:"targetGc,omitempty"`

	// ProductMin and ProductMax bound the product length. Zero is unbounded
	// except in Internal and Targeted designs, which use their configured
	// range.
	ProductMin int `json:"productMin,omitempty"`
	ProductMax int `json:"productMax,omitempty"`

	// MaxResults is the number of pairs returned
	MaxResults int `json:"maxResults,omitempty"`

	// IncludeFailures returns pairs that failed QC, ranked last
	IncludeFailures bool `json:"includeFailures,omitempty"`

	// FlankPolicy for WGA flanks longer than the fetched margin
	FlankPolicy region.FlankPolicy `json:"flankPolicy,omitempty"`
}

// withDefaults fills unset fields from the configuration.
func (r Request) withDefaults(conf *config.Config) Request {
	if r.Gene != nil {
		q := *r.Gene
		if q.Species == "" {
			q.Species = conf.Ensembl.Species
		}
		if q.Margin == 0 {
			q.Margin = conf.WGA.Margin
		}
		r.Gene = &q
	}

	switch m := r.Mode.(type) {
	case region.WGA:
		if m.FlankLength == 0 {
			m.FlankLength = conf.WGA.FlankLength
		}
		r.Mode = m
	case region.Internal:
		if r.ProductMin == 0 && r.ProductMax == 0 {
			r.ProductMin, r.ProductMax = conf.Internal.ProductMin, conf.Internal.ProductMax
		}
	case region.Targeted:
		if r.ProductMin == 0 && r.ProductMax == 0 {
			r.ProductMin, r.ProductMax = conf.Target.ProductMin, conf.Target.ProductMax
		}
	}

	if r.MinPrimerLen == 0 {
		r.MinPrimerLen = conf.Primer.MinSize
	}
	if r.MaxPrimerLen == 0 {
		r.MaxPrimerLen = conf.Primer.MaxSize
	}
	if r.TargetTm == 0 {
		r.TargetTm = conf.Primer.OptTm
	}
	if r.TargetGC == 0 {
		r.TargetGC = (conf.Primer.MinGC + conf.Primer.MaxGC) / 2
	}
	if r.MaxResults == 0 {
		r.MaxResults = conf.Rank.MaxResults
	}
	if r.FlankPolicy == "" {
		r.FlankPolicy = region.FlankPolicy(conf.WGA.FlankPolicy)
	}
	return r
}

// validate checks a defaulted request.
func (r Request) validate(conf *config.Config) error {
	if r.Mode == nil {
		return &ConfigurationError{Field: "mode", Reason: "no design mode given"}
	}
	if region.NeedsGene(r.Mode) && (r.Gene == nil || strings.TrimSpace(r.Gene.Gene) == "") {
		return &ConfigurationError{Field: "gene", Reason: fmt.Sprintf("%s design needs a gene", r.Mode.Name())}
	}
	if r.Gene != nil && r.Gene.Margin < 0 {
		return &ConfigurationError{Field: "margin", Reason: "must not be negative"}
	}

	switch {
	case r.MinPrimerLen < 1:
		return &ConfigurationError{Field: "minPrimerLen", Reason: "must be positive"}
	case r.MinPrimerLen > r.MaxPrimerLen:
		return &ConfigurationError{Field: "primerLen", Reason: fmt.Sprintf("min %d is greater than max %d", r.MinPrimerLen, r.MaxPrimerLen)}
	case r.MaxPrimerLen > maxPrimerLen:
		return &ConfigurationError{Field: "maxPrimerLen", Reason: fmt.Sprintf("%d is longer than the %d bp limit", r.MaxPrimerLen, maxPrimerLen)}
	case r.TargetTm <= 0 || r.TargetTm >= 100:
		return &ConfigurationError{Field: "targetTm", Reason: fmt.Sprintf("%.1f is outside (0, 100) C", r.TargetTm)}
	case r.TargetGC <= 0 || r.TargetGC > 100:
		return &ConfigurationError{Field: "targetGc", Reason: fmt.Sprintf("%.1f is outside (0, 100]%%", r.TargetGC)}
	case r.ProductMin < 0 || r.ProductMax < 0:
		return &ConfigurationError{Field: "productLen", Reason: "must not be negative"}
	case r.ProductMax > 0 && r.ProductMin > r.ProductMax:
		return &ConfigurationError{Field: "productLen", Reason: fmt.Sprintf("min %d is greater than max %d", r.ProductMin, r.ProductMax)}
	case r.MaxResults < 1:
		return &ConfigurationError{Field: "maxResults", Reason: "must be positive"}
	}

	if _, err := region.ParseFlankPolicy(string(r.FlankPolicy)); err != nil {
		return &ConfigurationError{Field: "flankPolicy", Reason: err.Error()}
	}

	switch m := r.Mode.(type) {
	case region.WGA:
		if m.FlankLength < conf.WGA.MinFlank || m.FlankLength > conf.WGA.MaxFlank {
			return &ConfigurationError{
				Field:  "flankLength",
				Reason: fmt.Sprintf("%d is outside %d-%d bp", m.FlankLength, conf.WGA.MinFlank, conf.WGA.MaxFlank),
			}
		}
	case region.Internal:
		if m.Junction < 0 {
			return &ConfigurationError{Field: "junction", Reason: "must not be negative"}
		}
	case region.FromSequence:
		if strings.TrimSpace(m.Forward.Seq) == "" || strings.TrimSpace(m.Reverse.Seq) == "" {
			return &ConfigurationError{Field: "sequence", Reason: "both a forward and a reverse region are needed"}
		}
		if _, err := normalize("forwardRegion", m.Forward.Seq); err != nil {
			return err
		}
		if _, err := normalize("reverseRegion", m.Reverse.Seq); err != nil {
			return err
		}
	case region.Manual:
		for i, seq := range []string{m.Forward, m.Reverse} {
			field := [...]string{"forward", "reverse"}[i]
			clean, err := normalize(field, seq)
			if err != nil {
				return err
			}
			if clean == "" {
				return &ConfigurationError{Field: field, Reason: "no primer given"}
			}
			if len(clean) > maxPrimerLen {
				return &ConfigurationError{Field: field, Reason: fmt.Sprintf("%d bp primer is longer than the %d bp limit", len(clean), maxPrimerLen)}
			}
		}
	case region.Targeted:
		template, err := normalize("template", m.Template)
		if err != nil {
			return err
		}
		if m.TargetStart < 0 || m.TargetEnd <= m.TargetStart || m.TargetEnd > len(template) {
			return &ConfigurationError{
				Field:  "target",
				Reason: fmt.Sprintf("[%d, %d) is not a region of the %d bp template", m.TargetStart, m.TargetEnd, len(template)),
			}
		}
	case region.Single:
		if m.Side != region.Left && m.Side != region.Right {
			return &ConfigurationError{Field: "side", Reason: fmt.Sprintf("%q is not left or right", m.Side)}
		}
		template, err := normalize("template", m.Template)
		if err != nil {
			return err
		}
		if m.IncludeStart < 0 || m.IncludeLen <= 0 || m.IncludeStart+m.IncludeLen > len(template) {
			return &ConfigurationError{
				Field:  "includeRegion",
				Reason: fmt.Sprintf("%d,%d is not a region of the %d bp template", m.IncludeStart, m.IncludeLen, len(template)),
			}
		}
	}
	return nil
}

// normalize reads a caller sequence, naming the field it came from when it
// holds anything but nucleotides.
func normalize(field, seq string) (string, error) {
	clean, err := gene.Normalize(seq)
	if err != nil {
		return "", &ConfigurationError{Field: field, Reason: err.Error()}
	}
	return clean, nil
}

// constraints are the engine limits for the request's mode. WGA flanks
// are genomic and get the relaxed Tm and GC bounds.
func (r Request) constraints(conf *config.Config) primer3.Constraints {
	c := primer3.Constraints{
		MinSize:   r.MinPrimerLen,
		OptSize:   min(max(conf.Primer.OptSize, r.MinPrimerLen), r.MaxPrimerLen),
		MaxSize:   r.MaxPrimerLen,
		MinTm:     min(conf.Primer.MinTm, r.TargetTm),
		OptTm:     r.TargetTm,
		MaxTm:     max(conf.Primer.MaxTm, r.TargetTm),
		MinGC:     conf.Primer.MinGC,
		MaxGC:     conf.Primer.MaxGC,
		NumReturn: conf.Primer.NumReturn,
		MaxPolyX:  conf.Primer.MaxPolyX,
	}
	if _, ok := r.Mode.(region.WGA); ok {
		c.MinTm = min(conf.WGA.MinTm, r.TargetTm)
		c.MaxTm = max(conf.WGA.MaxTm, r.TargetTm)
		c.MinGC, c.MaxGC = conf.WGA.MinGC, conf.WGA.MaxGC
	}
	return c
}
