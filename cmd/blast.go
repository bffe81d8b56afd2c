package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/gene"
)

// blastCmd identifies a sequence with the specificity searcher
var blastCmd = &cobra.Command{
	Use:                        "blast [sequence or accession]",
	Short:                      "Identify the gene and species of a sequence",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runBlast,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool blast NM_000546.6 --searcher ncbi",
	Aliases:                    []string{"identify"},
	Long: `
Search a sequence (20 to 50000 bp) or an accession with the configured
specificity searcher and list the best hits. The top hit's gene and species
can be fed back to 'design'.`,
}

func init() {
	blastCmd.Flags().Bool("json", false, "write the hits as JSON")

	RootCmd.AddCommand(blastCmd)
}

func runBlast(cmd *cobra.Command, args []string) error {
	query, err := blastQuery(args[0])
	if err != nil {
		return err
	}

	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	if a.searcher == nil {
		return errors.New("no specificity searcher configured, set --searcher to ncbi or blastn")
	}

	hits, err := a.searcher.Search(cmd.Context(), query)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON("", hits)
	}
	if len(hits) == 0 {
		fmt.Println("no hits")
		return nil
	}

	top := hits[0]
	fmt.Printf("best hit: %s %s (ensembl species %s)\n", top.GeneSymbol, top.Organism, blast.EnsemblSpecies(top.Organism))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "accession\tgene\torganism\tidentity\tlength\tevalue")
	for _, h := range hits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d\t%.2g\n", h.Accession, h.GeneSymbol, h.Organism, h.Identity, h.AlignLen, h.EValue)
	}
	return w.Flush()
}

// blastQuery passes accessions through and normalizes sequences, checking their length
func blastQuery(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if blast.IsAccession(arg) {
		return arg, nil
	}
	seq, err := gene.Normalize(arg)
	if err != nil {
		return "", err
	}
	if len(seq) < blast.MinQueryLen || len(seq) > blast.MaxQueryLen {
		return "", fmt.Errorf("sequence is %d bp, must be %d to %d bp", len(seq), blast.MinQueryLen, blast.MaxQueryLen)
	}
	return seq, nil
}
