package ensembl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/KowalskiBio/Primerool/internal/gene"
)

// flag decodes Ensembl's is_canonical, which is 1 or absent but has been a
// boolean in some releases.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "1", "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

// record is the subset of a /lookup response used here. Genes, transcripts,
// exons and translations share its shape.
type record struct {
	ObjectType  string   `json:"object_type"`
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Biotype     string   `json:"biotype"`
	Chrom       string   `json:"seq_region_name"`
	Strand      int      `json:"strand"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Canonical   flag     `json:"is_canonical"`
	Parent      string   `json:"Parent"`
	Transcripts []record `json:"Transcript"`
	Exons       []record `json:"Exon"`
	Translation *record  `json:"Translation"`
}

// Transcript is a summary of one transcript of a gene.
type Transcript struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Biotype   string      `json:"biotype"`
	Strand    gene.Strand `json:"strand"`
	Exons     int         `json:"exons"`
	Canonical bool        `json:"canonical"`
}

// Gene is a gene and its transcripts as listed by SearchGene.
type Gene struct {
	ID          string       `json:"id"`
	Symbol      string       `json:"symbol"`
	Species     string       `json:"species"`
	Chrom       string       `json:"chrom"`
	Strand      gene.Strand  `json:"strand"`
	Start       int          `json:"start"`
	End         int          `json:"end"`
	Transcripts []Transcript `json:"transcripts"`
}

// SearchGene looks up a gene by symbol or stable id and lists its
// transcripts, canonical first.
func (c *Client) SearchGene(ctx context.Context, species, symbol string) (*Gene, error) {
	species = c.speciesOr(species)

	g, err := c.lookupGene(ctx, species, symbol)
	if err != nil {
		return nil, c.wrap(species, symbol, err)
	}

	out := &Gene{
		ID:      g.ID,
		Symbol:  g.DisplayName,
		Species: species,
		Chrom:   g.Chrom,
		Strand:  gene.Strand(g.Strand),
		Start:   g.Start - 1,
		End:     g.End,
	}
	for _, t := range g.Transcripts {
		out.Transcripts = append(out.Transcripts, Transcript{
			ID:        t.ID,
			Name:      t.DisplayName,
			Biotype:   t.Biotype,
			Strand:    gene.Strand(t.Strand),
			Exons:     len(t.Exons),
			Canonical: bool(t.Canonical),
		})
	}
	sort.SliceStable(out.Transcripts, func(i, j int) bool {
		return out.Transcripts[i].Canonical && !out.Transcripts[j].Canonical
	})
	return out, nil
}

// Fetch builds the annotated sequence of a gene's transcript with q.Margin
// bp of flank on each side of the transcript body. Without a transcript in
// the query the canonical one is used, else the first protein coding one.
func (c *Client) Fetch(ctx context.Context, q gene.Query) (*gene.AnnotatedSequence, error) {
	species := c.speciesOr(q.Species)

	a, err := c.fetch(ctx, species, q)
	if err != nil {
		return nil, c.wrap(species, q.Gene, err)
	}
	c.log.Debug().
		Str("gene", a.Symbol()).
		Str("transcript", a.Meta().TranscriptID).
		Int("exons", a.ExonCount()).
		Int("bp", a.Span().Len()).
		Msg("fetched transcript")
	return a, nil
}

func (c *Client) fetch(ctx context.Context, species string, q gene.Query) (*gene.AnnotatedSequence, error) {
	transcript := q.Transcript
	var g *record
	if transcript == "" {
		var err error
		if g, err = c.lookupGene(ctx, species, q.Gene); err != nil {
			return nil, err
		}
		t := pickTranscript(g.Transcripts)
		if t == nil {
			return nil, fmt.Errorf("gene %s has no transcripts: %w", q.Gene, errNotFound)
		}
		transcript = t.ID
	}

	var t record
	if err := c.get(ctx, "/lookup/id/"+url.PathEscape(transcript), url.Values{"expand": {"1"}}, &t); err != nil {
		return nil, err
	}
	if t.ObjectType != "" && t.ObjectType != "Transcript" {
		return nil, fmt.Errorf("%s is a %s, not a transcript: %w", transcript, t.ObjectType, errNotFound)
	}

	meta := gene.Meta{
		Species:      species,
		GeneID:       t.Parent,
		Symbol:       q.Gene,
		TranscriptID: t.ID,
		Chrom:        t.Chrom,
		Strand:       gene.Strand(t.Strand),
	}
	if g != nil {
		meta.GeneID, meta.Symbol = g.ID, g.DisplayName
	}
	if t.Translation != nil {
		cds, err := gene.NewGenomicInterval(t.Translation.Start-1, t.Translation.End)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation of %s: %w", t.ID, err)
		}
		meta.CDS = cds
	}

	exons, err := transcriptExons(t)
	if err != nil {
		return nil, err
	}

	// 0-based half-open region around the transcript body
	start := max(t.Start-1-q.Margin, 0)
	end := t.End + q.Margin

	var region struct {
		Seq string `json:"seq"`
	}
	endpoint := fmt.Sprintf("/sequence/region/%s/%s:%d..%d:1", species, t.Chrom, start+1, end)
	if err := c.get(ctx, endpoint, nil, &region); err != nil {
		return nil, err
	}
	seq := gene.Mask(region.Seq)

	// regions past the end of a chromosome come back short
	span, err := gene.NewGenomicInterval(start, start+len(seq))
	if err != nil {
		return nil, fmt.Errorf("empty sequence for %s:%d-%d", t.Chrom, start, end)
	}

	return gene.New(meta, span, seq, exons)
}

// lookupGene resolves a symbol, or an Ensembl gene id, with its transcripts
func (c *Client) lookupGene(ctx context.Context, species, symbol string) (*record, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("no gene given: %w", errNotFound)
	}

	var g record
	params := url.Values{"expand": {"1"}}
	endpoint := fmt.Sprintf("/lookup/symbol/%s/%s", species, url.PathEscape(strings.ToUpper(symbol)))
	if strings.HasPrefix(strings.ToUpper(symbol), "ENS") {
		endpoint = "/lookup/id/" + url.PathEscape(symbol)
	}
	if err := c.get(ctx, endpoint, params, &g); err != nil {
		return nil, err
	}
	if g.ObjectType != "Gene" {
		return nil, fmt.Errorf("%s is not a gene: %w", symbol, errNotFound)
	}
	return &g, nil
}

// pickTranscript returns the canonical transcript, else the first protein
// coding one, else the first
func pickTranscript(ts []record) *record {
	if len(ts) == 0 {
		return nil
	}
	for i := range ts {
		if ts[i].Canonical {
			return &ts[i]
		}
	}
	for i := range ts {
		if ts[i].Biotype == "protein_coding" {
			return &ts[i]
		}
	}
	return &ts[0]
}

// transcriptExons converts 1-based inclusive exons into 0-based intervals in
// transcript order: ascending on +, descending on -
func transcriptExons(t record) ([]gene.GenomicInterval, error) {
	exons := make([]gene.GenomicInterval, 0, len(t.Exons))
	for _, e := range t.Exons {
		iv, err := gene.NewGenomicInterval(e.Start-1, e.End)
		if err != nil {
			return nil, fmt.Errorf("failed to read exon %s of %s: %w", e.ID, t.ID, err)
		}
		exons = append(exons, iv)
	}

	sort.Slice(exons, func(i, j int) bool {
		if t.Strand < 0 {
			return exons[i].Start() > exons[j].Start()
		}
		return exons[i].Start() < exons[j].Start()
	})
	return exons, nil
}

func (c *Client) speciesOr(species string) string {
	if species == "" {
		return c.species
	}
	return strings.ToLower(species)
}

// wrap converts errors into the gene package's provider errors
func (c *Client) wrap(species, id string, err error) error {
	switch {
	case errors.Is(err, errNotFound):
		return &gene.GeneNotFoundError{Species: species, ID: id}
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &gene.ProviderUnavailableError{Provider: "ensembl", Err: err}
	}
}
