package blast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
)

// outfmt is tabular with comment lines; stitle is last since it holds spaces
const outfmt = "7 sacc pident length evalue bitscore qstart qend sstart send stitle"

// Blastn searches a local BLAST database with the blastn executable.
type Blastn struct {
	blastn     string
	blastdbcmd string
	db         string
	hitList    int
	timeout    time.Duration
	log        zerolog.Logger
}

// NewBlastn creates a local searcher. blastdbcmd is expected next to blastn.
func NewBlastn(conf *config.Config, log zerolog.Logger) *Blastn {
	blastdbcmd := "blastdbcmd"
	if dir := filepath.Dir(conf.Specificity.BlastnPath); dir != "." {
		blastdbcmd = filepath.Join(dir, "blastdbcmd")
	}

	return &Blastn{
		blastn:     conf.Specificity.BlastnPath,
		blastdbcmd: blastdbcmd,
		db:         conf.Specificity.BlastDB,
		hitList:    conf.Specificity.HitList,
		timeout:    conf.Specificity.Timeout,
		log:        log.With().Str("component", "blastn").Logger(),
	}
}

// Search BLASTs a sequence, or the database entry of an accession, against
// the local database.
func (b *Blastn) Search(ctx context.Context, query string) ([]Hit, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	hits, err := b.search(ctx, query)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("no result within %s: %w", b.timeout, ctx.Err())
		}
		return nil, &SearchUnavailableError{Searcher: "blastn", Err: err}
	}
	return hits, nil
}

func (b *Blastn) search(ctx context.Context, query string) ([]Hit, error) {
	if b.db == "" {
		return nil, errors.New("no BLAST database configured")
	}

	seq := query
	if IsAccession(query) {
		entry, err := b.entry(ctx, strings.TrimSpace(query))
		if err != nil {
			return nil, err
		}
		seq = entry
	}

	dir, err := os.MkdirTemp("", "primerool-blast-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create BLAST dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "query.fa")
	out := filepath.Join(dir, "query.out")
	if err := os.WriteFile(in, []byte(fmt.Sprintf(">query\n%s\n", seq)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write BLAST input file: %w", err)
	}

	// https://www.ncbi.nlm.nih.gov/books/NBK279682/
	blastCmd := exec.CommandContext(
		ctx,
		b.blastn,
		"-task", "blastn",
		"-db", b.db,
		"-query", in,
		"-out", out,
		"-outfmt", outfmt,
		"-max_target_seqs", strconv.Itoa(b.hitList),
	)
	if output, err := blastCmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to execute blastn: %w: %s", err, string(output))
	}

	file, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read blastn output: %w", err)
	}
	return filter(parseTabular(string(file))), nil
}

// entry returns the sequence of an accession in the database
func (b *Blastn) entry(ctx context.Context, accession string) (string, error) {
	var stderr bytes.Buffer
	queryCmd := exec.CommandContext(
		ctx,
		b.blastdbcmd,
		"-db", b.db,
		"-dbtype", "nucl",
		"-entry", accession,
		// %s means sequence data (without defline)
		"-outfmt", "%s",
	)
	queryCmd.Stderr = &stderr

	out, err := queryCmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to execute blastdbcmd for entry %s: %w: %s", accession, err, stderr.String())
	}
	return strings.TrimSpace(string(out)), nil
}

// parseTabular reads outfmt 7 output into hits
func parseTabular(file string) []Hit {
	var hits []Hit
	for _, line := range strings.Split(file, "\n") {
		// comment lines start with a #
		if strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 10 {
			continue
		}

		pident, _ := strconv.ParseFloat(cols[1], 64)
		length, _ := strconv.Atoi(cols[2])
		evalue, _ := strconv.ParseFloat(cols[3], 64)
		bitscore, _ := strconv.ParseFloat(strings.TrimSpace(cols[4]), 64)
		qstart, _ := strconv.Atoi(cols[5])
		qend, _ := strconv.Atoi(cols[6])
		sstart, _ := strconv.Atoi(cols[7])
		send, _ := strconv.Atoi(cols[8])

		h := Hit{
			Accession: cols[0],
			Title:     strings.TrimSpace(cols[9]),
			Identity:  pident,
			AlignLen:  length,
			EValue:    evalue,
			BitScore:  bitscore,
		}
		h.QueryStart, h.QueryEnd = extent(qstart, qend)
		h.HitStart, h.HitEnd = extent(sstart, send)
		describe(&h)

		hits = append(hits, h)
	}
	return hits
}
