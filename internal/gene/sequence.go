package gene

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bebop/poly/transform"
)

// InvalidBaseError is a character that isn't a nucleotide in a user supplied sequence.
type InvalidBaseError struct {
	Pos  int // 0-based, in the normalized sequence
	Base rune
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("invalid base %q at position %d, only A, C, G, T and N are supported", e.Base, e.Pos)
}

// Normalize reads a raw or FASTA formatted nucleotide string. Header (>) and
// comment (;) lines, whitespace and line numbers are dropped and bases are
// uppercased. Anything else that isn't A, C, G, T or N is an *InvalidBaseError:
// dropping IUPAC codes would shift every later base.
func Normalize(seq string) (string, error) {
	var b strings.Builder
	b.Grow(len(seq))
	for _, line := range strings.Split(seq, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, ">") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		for _, r := range line {
			if unicode.IsSpace(r) || unicode.IsDigit(r) {
				continue
			}
			switch u := unicode.ToUpper(r); u {
			case 'A', 'C', 'G', 'T', 'N':
				b.WriteRune(u)
			default:
				return "", &InvalidBaseError{Pos: b.Len(), Base: r}
			}
		}
	}
	return b.String(), nil
}

// Mask uppercases a reference sequence and replaces every base that isn't
// A, C, G or T with N, keeping its length so coordinates still line up.
func Mask(seq string) string {
	return strings.Map(func(r rune) rune {
		switch u := unicode.ToUpper(r); u {
		case 'A', 'C', 'G', 'T':
			return u
		}
		return 'N'
	}, seq)
}

// ReverseComplement of an uppercase DNA sequence.
func ReverseComplement(seq string) string {
	return transform.ReverseComplement(strings.ToUpper(seq))
}

// orient returns seq as read on the given strand.
func orient(seq string, strand Strand) string {
	if strand == Minus {
		return ReverseComplement(seq)
	}
	return seq
}
