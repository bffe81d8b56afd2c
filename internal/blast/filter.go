package blast

import (
	"sort"
)

// filter orders hits by bit score, best first, and keeps only the best hit
// per accession. Hits with equal scores keep the order the search gave them.
func filter(hits []Hit) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].BitScore > hits[j].BitScore
	})

	seen := make(map[string]bool)
	var properHits []Hit
	for _, h := range hits {
		if h.Accession != "" && seen[h.Accession] {
			continue
		}
		seen[h.Accession] = true
		properHits = append(properHits, h)
	}
	return properHits
}
