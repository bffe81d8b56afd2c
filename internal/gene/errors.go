package gene

import "fmt"

// OutsideExonError is returned when a genomic point falls in an intron or
// in the flanks, so it has no spliced coordinate.
type OutsideExonError struct {
	Pos int
}

func (e *OutsideExonError) Error() string {
	return fmt.Sprintf("genomic position %d is not inside an exon", e.Pos)
}

// GeneNotFoundError is returned by a Provider when the gene or transcript
// is unknown.
type GeneNotFoundError struct {
	Species string
	ID      string
}

func (e *GeneNotFoundError) Error() string {
	return fmt.Sprintf("gene %s not found (species: %s)", e.ID, e.Species)
}

// ProviderUnavailableError is returned by a Provider when the annotation
// source can't be reached or returns something unusable.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
