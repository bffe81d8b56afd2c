package gene

import "fmt"

// Interval is a half-open, 0-based [start, end) range. Its fields are
// unexported so a constructed Interval can't be edited afterwards.
type Interval struct {
	start int
	end   int
}

// NewInterval returns an Interval or an error if start >= end.
func NewInterval(start, end int) (Interval, error) {
	if start >= end {
		return Interval{}, fmt.Errorf("invalid interval [%d, %d): start must be less than end", start, end)
	}
	return Interval{start: start, end: end}, nil
}

// Start of the interval (inclusive).
func (i Interval) Start() int { return i.start }

// End of the interval (exclusive).
func (i Interval) End() int { return i.end }

// Len is the number of positions in the interval.
func (i Interval) Len() int { return i.end - i.start }

// Contains reports whether p is inside the interval.
func (i Interval) Contains(p int) bool { return p >= i.start && p < i.end }

// IsZero reports whether the interval was never constructed.
func (i Interval) IsZero() bool { return i.start == 0 && i.end == 0 }

func (i Interval) String() string { return fmt.Sprintf("[%d, %d)", i.start, i.end) }

// overlaps is shared by the typed intervals so that only values in the same
// coordinate space can be compared.
func (i Interval) overlaps(o Interval) bool { return i.start < o.end && o.start < i.end }

// GenomicInterval is an Interval in reference (+ strand) genomic coordinates.
type GenomicInterval struct{ Interval }

// NewGenomicInterval returns a GenomicInterval or an error if start >= end.
func NewGenomicInterval(start, end int) (GenomicInterval, error) {
	iv, err := NewInterval(start, end)
	return GenomicInterval{iv}, err
}

// Overlaps reports whether two genomic intervals share a position.
func (g GenomicInterval) Overlaps(o GenomicInterval) bool { return g.overlaps(o.Interval) }

// SplicedInterval is an Interval in spliced (exons concatenated) coordinates.
type SplicedInterval struct{ Interval }

// NewSplicedInterval returns a SplicedInterval or an error if start >= end.
func NewSplicedInterval(start, end int) (SplicedInterval, error) {
	iv, err := NewInterval(start, end)
	return SplicedInterval{iv}, err
}

// Overlaps reports whether two spliced intervals share a position.
func (s SplicedInterval) Overlaps(o SplicedInterval) bool { return s.overlaps(o.Interval) }

// mustGenomic is for intervals whose bounds have already been checked.
func mustGenomic(start, end int) GenomicInterval {
	return GenomicInterval{Interval{start: start, end: end}}
}

// MarshalJSON writes the interval as {"start": s, "end": e}.
func (i Interval) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"start":%d,"end":%d}`, i.start, i.end)), nil
}
