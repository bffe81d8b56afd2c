package server

import (
	"fmt"
	"strings"

	"github.com/KowalskiBio/Primerool/internal/design"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/region"
)

// designRequest is the body of POST /design. Which fields are read depends
// on Mode.
type designRequest struct {
	Mode string `json:"mode"`

	// wga and internal
	Gene        string `json:"gene"`
	Species     string `json:"species"`
	Transcript  string `json:"transcript"`
	Margin      int    `json:"margin"`
	FlankLength int    `json:"flankLength"`
	FlankPolicy string `json:"flankPolicy"`
	Junction    int    `json:"junction"`

	// sequence
	ForwardRegion *region.LiteralRegion `json:"forwardRegion"`
	ReverseRegion *region.LiteralRegion `json:"reverseRegion"`

	// manual
	Forward string `json:"forward"`
	Reverse string `json:"reverse"`

	// target and single
	Template     string `json:"template"`
	TargetStart  int    `json:"targetStart"`
	TargetEnd    int    `json:"targetEnd"`
	Side         string `json:"side"`
	IncludeStart int    `json:"includeStart"`
	IncludeLen   int    `json:"includeLen"`

	MinPrimerLen    int     `json:"minPrimerLen"`
	MaxPrimerLen    int     `json:"maxPrimerLen"`
	TargetTm        float64 `json:"targetTm"`
	TargetGC        float64 `json:"targetGc"`
	ProductMin      int     `json:"productMin"`
	ProductMax      int     `json:"productMax"`
	MaxResults      int     `json:"maxResults"`
	IncludeFailures bool    `json:"includeFailures"`
}

// analyzeRequest is the body of POST /analyze.
type analyzeRequest struct {
	Forward string `json:"forward"`
	Reverse string `json:"reverse"`
}

// blastRequest is the body of POST /blast, a sequence or an accession.
type blastRequest struct {
	Sequence string `json:"sequence"`
}

// toDesign converts the wire request to a design request.
func (r designRequest) toDesign() (design.Request, error) {
	req := design.Request{
		MinPrimerLen:    r.MinPrimerLen,
		MaxPrimerLen:    r.MaxPrimerLen,
		TargetTm:        r.TargetTm,
		TargetGC:        r.TargetGC,
		ProductMin:      r.ProductMin,
		ProductMax:      r.ProductMax,
		MaxResults:      r.MaxResults,
		IncludeFailures: r.IncludeFailures,
		FlankPolicy:     region.FlankPolicy(r.FlankPolicy),
	}

	switch strings.ToLower(strings.TrimSpace(r.Mode)) {
	case "wga":
		req.Mode = region.WGA{FlankLength: r.FlankLength}
		req.Gene = r.query()
	case "internal":
		req.Mode = region.Internal{Junction: r.Junction}
		req.Gene = r.query()
	case "sequence":
		if r.ForwardRegion == nil || r.ReverseRegion == nil {
			return req, &design.ConfigurationError{Field: "sequence", Reason: "forwardRegion and reverseRegion are required"}
		}
		req.Mode = region.FromSequence{Forward: *r.ForwardRegion, Reverse: *r.ReverseRegion}
	case "manual":
		req.Mode = region.Manual{Forward: r.Forward, Reverse: r.Reverse}
	case "target":
		req.Mode = region.Targeted{Template: r.Template, TargetStart: r.TargetStart, TargetEnd: r.TargetEnd}
	case "single":
		side, err := region.ParseSide(r.Side)
		if err != nil {
			return req, &design.ConfigurationError{Field: "side", Reason: err.Error()}
		}
		req.Mode = region.Single{Template: r.Template, Side: side, IncludeStart: r.IncludeStart, IncludeLen: r.IncludeLen}
	default:
		return req, &design.ConfigurationError{
			Field:  "mode",
			Reason: fmt.Sprintf("unknown mode %q, want wga, internal, sequence, manual, target or single", r.Mode),
		}
	}
	return req, nil
}

func (r designRequest) query() *gene.Query {
	if r.Gene == "" {
		return nil
	}
	return &gene.Query{
		Species:    r.Species,
		Gene:       r.Gene,
		Transcript: r.Transcript,
		Margin:     r.Margin,
	}
}
