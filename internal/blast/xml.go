package blast

import (
	"encoding/xml"
	"fmt"
)

// blastOutput is the subset of BLAST XML (-outfmt 5, FORMAT_TYPE=XML) read
type blastOutput struct {
	XMLName  xml.Name `xml:"BlastOutput"`
	QueryLen int      `xml:"BlastOutput_query-len"`
	Hits     []xmlHit `xml:"BlastOutput_iterations>Iteration>Iteration_hits>Hit"`
}

type xmlHit struct {
	Def       string   `xml:"Hit_def"`
	Accession string   `xml:"Hit_accession"`
	Hsps      []xmlHsp `xml:"Hit_hsps>Hsp"`
}

type xmlHsp struct {
	BitScore  float64 `xml:"Hsp_bit-score"`
	Evalue    float64 `xml:"Hsp_evalue"`
	QueryFrom int     `xml:"Hsp_query-from"`
	QueryTo   int     `xml:"Hsp_query-to"`
	HitFrom   int     `xml:"Hsp_hit-from"`
	HitTo     int     `xml:"Hsp_hit-to"`
	Identity  int     `xml:"Hsp_identity"`
	AlignLen  int     `xml:"Hsp_align-len"`
}

// parseXML reads BLAST XML into hits, one per subject with its first HSP
func parseXML(data []byte) ([]Hit, error) {
	var out blastOutput
	if err := xml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse BLAST XML: %w", err)
	}

	var hits []Hit
	for _, xh := range out.Hits {
		if len(xh.Hsps) == 0 {
			continue
		}
		hsp := xh.Hsps[0]

		h := Hit{
			Accession: xh.Accession,
			Title:     xh.Def,
			AlignLen:  hsp.AlignLen,
			EValue:    hsp.Evalue,
			BitScore:  hsp.BitScore,
		}
		if hsp.AlignLen > 0 {
			h.Identity = 100 * float64(hsp.Identity) / float64(hsp.AlignLen)
		}
		// convert 1-based, inclusive, possibly reversed extents to 0-based half-open
		h.QueryStart, h.QueryEnd = extent(hsp.QueryFrom, hsp.QueryTo)
		h.HitStart, h.HitEnd = extent(hsp.HitFrom, hsp.HitTo)
		describe(&h)

		hits = append(hits, h)
	}
	return hits, nil
}

// extent turns a 1-based inclusive BLAST range into 0-based half-open.
// Direction isn't guaranteed on the subject.
func extent(from, to int) (int, int) {
	if from > to {
		from, to = to, from
	}
	return from - 1, to
}
