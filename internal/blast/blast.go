// Package blast identifies sequences by identity search, either through
// NCBI's BLAST URL API or a local blastn installation.
package blast

import (
	"fmt"
	"regexp"
	"strings"
)

// bounds on the length of a sequence query, bp
const (
	MinQueryLen = 20
	MaxQueryLen = 50000
)

// Hit is one subject sequence matched by a search.
type Hit struct {
	Organism   string `json:"organism"`
	GeneSymbol string `json:"geneSymbol,omitempty"`
	Accession  string `json:"accession"`
	Title      string `json:"title"`

	// Identity is the percent identity of the best HSP
	Identity float64 `json:"identity"`
	AlignLen int     `json:"alignLen"`
	EValue   float64 `json:"evalue"`
	BitScore float64 `json:"bitScore"`

	// 0-based, half-open extents of the best HSP on the query and subject
	QueryStart int `json:"queryStart"`
	QueryEnd   int `json:"queryEnd"`
	HitStart   int `json:"hitStart"`
	HitEnd     int `json:"hitEnd"`
}

// SearchUnavailableError is returned when a search can't be completed:
// the service or executable failed, or the search timed out.
type SearchUnavailableError struct {
	Searcher string
	Err      error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("%s search unavailable: %v", e.Searcher, e.Err)
}

func (e *SearchUnavailableError) Unwrap() error { return e.Err }

var (
	// "Homo sapiens tumor protein p53 (TP53), transcript variant 1, mRNA"
	symbolRegex = regexp.MustCompile(`\(([\w\-\.]+)\)`)

	// NM_000546.6, AL359314.14, NR_132312
	accessionRegex = regexp.MustCompile(`^[A-Za-z]{1,4}_?[0-9]{5,}(\.[0-9]+)?$`)
)

// describe fills a hit's organism and gene symbol from its title. The
// organism is the title's first two words.
func describe(h *Hit) {
	words := strings.Fields(h.Title)
	switch {
	case len(words) >= 2:
		h.Organism = words[0] + " " + words[1]
	case len(words) == 1:
		h.Organism = words[0]
	default:
		h.Organism = "Unknown"
	}

	if m := symbolRegex.FindStringSubmatch(h.Title); m != nil {
		h.GeneSymbol = m[1]
	}
}

// IsAccession reports whether a query looks like a nucleotide accession
// rather than a sequence.
func IsAccession(query string) bool {
	return accessionRegex.MatchString(strings.TrimSpace(query))
}

// speciesCodes maps NCBI organism names to Ensembl species
var speciesCodes = map[string]string{
	"homo sapiens":             "homo_sapiens",
	"mus musculus":             "mus_musculus",
	"rattus norvegicus":        "rattus_norvegicus",
	"danio rerio":              "danio_rerio",
	"gallus gallus":            "gallus_gallus",
	"drosophila melanogaster":  "drosophila_melanogaster",
	"caenorhabditis elegans":   "caenorhabditis_elegans",
	"xenopus tropicalis":       "xenopus_tropicalis",
	"sus scrofa":               "sus_scrofa",
	"bos taurus":               "bos_taurus",
	"ovis aries":               "ovis_aries",
	"canis lupus familiaris":   "canis_lupus_familiaris",
	"felis catus":              "felis_catus",
	"macaca mulatta":           "macaca_mulatta",
	"pan troglodytes":          "pan_troglodytes",
	"oryctolagus cuniculus":    "oryctolagus_cuniculus",
	"saccharomyces cerevisiae": "saccharomyces_cerevisiae",
}

// EnsemblSpecies converts an NCBI organism name to an Ensembl species code.
// Unknown organisms are lowercased with underscores for spaces.
func EnsemblSpecies(organism string) string {
	key := strings.ToLower(strings.TrimSpace(organism))
	if code, ok := speciesCodes[key]; ok {
		return code
	}
	return strings.ReplaceAll(key, " ", "_")
}
