package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KowalskiBio/Primerool/internal/design"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/region"
)

var errNoCandidates = errors.New("no primer pairs found, see the explain section of the result")

// designCmd is the parent of the design strategies
var designCmd = &cobra.Command{
	Use:                        "design",
	Short:                      "Design primer pairs",
	SuggestionsMinimumDistance: 2,
	Long: `
Design primer pairs for a gene or for literal sequences. Pairs are checked
for secondary structure, dimers and product size, and ranked by their
distance from the target Tm, GC and product length.

Results are written as JSON.`,
}

// wgaCmd designs pairs that amplify a whole gene
var wgaCmd = &cobra.Command{
	Use:                        "wga [gene]",
	Short:                      "Amplify a whole gene from primers in its flanks",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runDesign,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool design wga TP53 --flank 800",
	Long: `
Design whole gene amplification pairs: forward primers in the flank upstream
of the transcript and reverse primers in the flank downstream of it, in the
transcript's orientation. Flank primers use relaxed Tm and GC bounds.`,
}

// internalCmd designs qRT-PCR pairs across exon-exon junctions
var internalCmd = &cobra.Command{
	Use:                        "internal [gene]",
	Short:                      "Design qRT-PCR pairs across an exon-exon junction",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runDesign,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool design internal ACTB --junction 2",
	Long: `
Design pairs on the spliced transcript with one primer spanning an exon-exon
junction, so that genomic DNA isn't amplified. Without --junction every
junction of the transcript is tried.`,
}

// sequenceCmd designs a pair from two literal regions
var sequenceCmd = &cobra.Command{
	Use:                        "sequence [forward region] [reverse region]",
	Short:                      "Design a pair from two sequence regions",
	Args:                       cobra.ExactArgs(2),
	RunE:                       runDesign,
	SuggestionsMinimumDistance: 2,
	Long: `
Pick a forward primer in the first region and a reverse primer in the second.
Both regions are read on the top strand unless --reverse-complemented says
the reverse region is given as its bottom strand. The product length is only
reported when both regions are placed with --forward-start and --reverse-start.`,
}

// manualCmd reports the metrics of two given primers
var manualCmd = &cobra.Command{
	Use:                        "manual [forward primer] [reverse primer]",
	Short:                      "Check a given primer pair",
	Args:                       cobra.ExactArgs(2),
	RunE:                       runDesign,
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"analyze", "check"},
	Long: `
Report Tm, GC, hairpin and self dimer of two primers and the heterodimer of
the pair. Failing checks are reported rather than filtered.`,
}

// targetCmd designs pairs around a target in a template
var targetCmd = &cobra.Command{
	Use:                        "target [template]",
	Short:                      "Design pairs whose product contains a target region",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runDesign,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool design target ACGT... --target-start 280 --target-end 320",
	Long: `
Pick pairs anywhere in a template such that every product contains the
target, [--target-start, --target-end) as 0-based template offsets. Products
are 100 to 1000 bp unless --product-min and --product-max say otherwise.
The template may be raw or FASTA.`,
}

// singleCmd designs one primer inside part of a template
var singleCmd = &cobra.Command{
	Use:                        "single [template]",
	Short:                      "Design one primer inside part of a template",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runDesign,
	SuggestionsMinimumDistance: 2,
	Example:                    "  primerool design single ACGT... --side right --include-start 400 --include-len 120",
	Long: `
Pick a single primer, a left primer reading along the template or a right
primer reading along its reverse complement, that lies wholly inside
--include-len bp of the template from --include-start.`,
}

// set flags
func init() {
	flags := designCmd.PersistentFlags()
	flags.StringP("out", "o", "", "output file name, stdout if empty")
	flags.Int("min-len", 0, "shortest primer, bp (default primer.min-size)")
	flags.Int("max-len", 0, "longest primer, bp (default primer.max-size)")
	flags.Float64("tm", 0, "target Tm, C (default primer.opt-tm)")
	flags.Float64("gc", 0, "target GC, percent (default mid primer GC range)")
	flags.Int("product-min", 0, "shortest product, bp")
	flags.Int("product-max", 0, "longest product, bp")
	flags.IntP("results", "n", 0, "number of pairs returned (default rank.max-results)")
	flags.Bool("failures", false, "include pairs that failed quality checks")

	for _, c := range []*cobra.Command{wgaCmd, internalCmd} {
		c.Flags().StringP("transcript", "t", "", "Ensembl transcript id, canonical if empty")
		c.Flags().Int("margin", 0, "bp fetched on each side of the gene (default wga.margin)")
	}
	wgaCmd.Flags().IntP("flank", "f", 0, "bp of flank searched on each side of the gene (default wga.flank-length)")
	wgaCmd.Flags().String("flank-policy", "", "strict or clamp, for flanks longer than the fetched margin")
	internalCmd.Flags().IntP("junction", "j", 0, "1-based junction number, 0 for every junction")

	sequenceCmd.Flags().Int("forward-start", -1, "position of the forward region in a shared coordinate space")
	sequenceCmd.Flags().Int("reverse-start", -1, "position of the reverse region in a shared coordinate space")
	sequenceCmd.Flags().Bool("reverse-complemented", false, "the reverse region is given as its bottom strand")

	targetCmd.Flags().Int("target-start", 0, "0-based template offset of the target's first base")
	targetCmd.Flags().Int("target-end", 0, "0-based template offset just past the target's last base")

	singleCmd.Flags().String("side", "left", "left or right primer")
	singleCmd.Flags().Int("include-start", 0, "0-based template offset the primer may start at")
	singleCmd.Flags().Int("include-len", 0, "bp of template from --include-start the primer must lie in")

	designCmd.AddCommand(wgaCmd, internalCmd, sequenceCmd, manualCmd, targetCmd, singleCmd)
	RootCmd.AddCommand(designCmd)
}

// runDesign designs the request of a design subcommand and writes its result
func runDesign(cmd *cobra.Command, args []string) error {
	req, err := designRequest(cmd, args)
	if err != nil {
		return err
	}

	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}

	res, err := a.designer.Design(cmd.Context(), req)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if err := writeJSON(out, res); err != nil {
		return err
	}
	if res.NoCandidates() {
		return errNoCandidates
	}
	return nil
}

// designRequest reads a design request from a subcommand's args and flags
func designRequest(cmd *cobra.Command, args []string) (design.Request, error) {
	flags := cmd.Flags()
	req := design.Request{}
	req.MinPrimerLen, _ = flags.GetInt("min-len")
	req.MaxPrimerLen, _ = flags.GetInt("max-len")
	req.TargetTm, _ = flags.GetFloat64("tm")
	req.TargetGC, _ = flags.GetFloat64("gc")
	req.ProductMin, _ = flags.GetInt("product-min")
	req.ProductMax, _ = flags.GetInt("product-max")
	req.MaxResults, _ = flags.GetInt("results")
	req.IncludeFailures, _ = flags.GetBool("failures")

	switch cmd.Name() {
	case "wga":
		flank, _ := flags.GetInt("flank")
		policy, _ := flags.GetString("flank-policy")
		req.Mode = region.WGA{FlankLength: flank}
		req.FlankPolicy = region.FlankPolicy(policy)
		req.Gene = geneQuery(cmd, args[0])
	case "internal":
		junction, _ := flags.GetInt("junction")
		req.Mode = region.Internal{Junction: junction}
		req.Gene = geneQuery(cmd, args[0])
	case "sequence":
		fwd := region.LiteralRegion{Name: "forward", Seq: args[0]}
		rev := region.LiteralRegion{Name: "reverse", Seq: args[1]}
		rev.Reverse, _ = flags.GetBool("reverse-complemented")
		if start, _ := flags.GetInt("forward-start"); start >= 0 {
			fwd.Start = &start
		}
		if start, _ := flags.GetInt("reverse-start"); start >= 0 {
			rev.Start = &start
		}
		req.Mode = region.FromSequence{Forward: fwd, Reverse: rev}
	case "manual":
		req.Mode = region.Manual{Forward: args[0], Reverse: args[1]}
		req.IncludeFailures = true
	case "target":
		m := region.Targeted{Template: args[0]}
		m.TargetStart, _ = flags.GetInt("target-start")
		m.TargetEnd, _ = flags.GetInt("target-end")
		req.Mode = m
	case "single":
		side, _ := flags.GetString("side")
		m := region.Single{Template: args[0]}
		var err error
		if m.Side, err = region.ParseSide(side); err != nil {
			return req, err
		}
		m.IncludeStart, _ = flags.GetInt("include-start")
		m.IncludeLen, _ = flags.GetInt("include-len")
		req.Mode = m
	default:
		return req, fmt.Errorf("unknown design command %q", cmd.Name())
	}
	return req, nil
}

// geneQuery is the gene and transcript flags of a gene design. The species
// comes from the --species setting.
func geneQuery(cmd *cobra.Command, symbol string) *gene.Query {
	transcript, _ := cmd.Flags().GetString("transcript")
	margin, _ := cmd.Flags().GetInt("margin")
	return &gene.Query{Gene: symbol, Transcript: transcript, Margin: margin}
}

// writeJSON writes v, indented, to the file at path or stdout
func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	b = append(b, '\n')

	if path == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
