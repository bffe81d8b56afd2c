package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// geneCmd lists the transcripts of a gene
var geneCmd = &cobra.Command{
	Use:                        "gene [symbol]",
	Short:                      "List the transcripts of a gene",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runGene,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool gene BRCA1 --species homo_sapiens",
	Aliases:                    []string{"genes", "transcripts"},
	Long: `
Look up a gene by symbol or Ensembl id and list its transcripts, canonical
first. Any of the transcript ids can be passed to 'design --transcript'.`,
}

// geneSequenceCmd writes the layout of a transcript's sequence
var geneSequenceCmd = &cobra.Command{
	Use:                        "sequence [symbol]",
	Short:                      "Write a transcript's sequences and features",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runGeneSequence,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool gene sequence ACTB --margin 500 -o actb.json",
	Long: `
Write the upstream flank, gene body, downstream flank and spliced sequence of
a transcript, all in its orientation, as JSON. Exons and the CDS are placed
in both the gene body and the spliced sequence, with the exon-exon junctions
numbered as in 'design internal --junction'.`,
}

func init() {
	geneCmd.Flags().Bool("json", false, "write the gene as JSON")

	geneSequenceCmd.Flags().StringP("transcript", "t", "", "Ensembl transcript id, canonical if empty")
	geneSequenceCmd.Flags().Int("margin", 0, "bp of flank fetched on each side of the gene (default wga.margin)")
	geneSequenceCmd.Flags().StringP("out", "o", "", "output file name, stdout if empty")

	geneCmd.AddCommand(geneSequenceCmd)
	RootCmd.AddCommand(geneCmd)
}

func runGene(cmd *cobra.Command, args []string) error {
	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}

	g, err := a.genes.SearchGene(cmd.Context(), "", args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON("", g)
	}

	fmt.Printf("%s %s (%s) %s:%d-%d %s\n", g.Symbol, g.ID, g.Species, g.Chrom, g.Start+1, g.End, g.Strand)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "transcript\tname\tbiotype\texons\tcanonical")
	for _, t := range g.Transcripts {
		canonical := ""
		if t.Canonical {
			canonical = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Name, t.Biotype, t.Exons, canonical)
	}
	return w.Flush()
}

func runGeneSequence(cmd *cobra.Command, args []string) error {
	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}

	q := *geneQuery(cmd, args[0])
	q.Species = a.conf.Ensembl.Species
	if q.Margin == 0 {
		q.Margin = a.conf.WGA.Margin
	}
	if q.Margin < 0 {
		return fmt.Errorf("invalid margin %d", q.Margin)
	}

	seq, err := a.provider.Fetch(cmd.Context(), q)
	if err != nil {
		return err
	}
	layout, err := seq.Layout()
	if err != nil {
		return err
	}
	a.log.Debug().
		Str("transcript", layout.Meta.TranscriptID).
		Int("gene", len(layout.Gene)).
		Int("spliced", len(layout.Spliced)).
		Int("junctions", len(layout.Junctions)).
		Msg("laid out")

	out, _ := cmd.Flags().GetString("out")
	return writeJSON(out, layout)
}

