// Package primer3 drives the primer3_core and ntthal executables: picking
// primers in a template, checking a single oligo, and melting dimers.
package primer3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
)

// Constraints are the primer3 size, Tm and GC limits of one search.
type Constraints struct {
	MinSize int
	OptSize int
	MaxSize int

	MinTm float64
	OptTm float64
	MaxTm float64

	// GC percent
	MinGC float64
	MaxGC float64

	NumReturn int
	MaxPolyX  int
}

// Task is one primer3 search.
type Task struct {
	// ID is written as SEQUENCE_ID
	ID string

	// Template is searched 5' to 3'. LEFT primers match it, RIGHT primers
	// match its reverse complement.
	Template string

	// IncludedStart and IncludedLen restrict the search to part of the
	// template. A zero IncludedLen searches all of it.
	IncludedStart int
	IncludedLen   int

	PickLeft  bool
	PickRight bool

	// TargetStart and TargetLen mark a stretch of template every product
	// must contain. A zero TargetLen sets no target.
	TargetStart int
	TargetLen   int

	// ProductMin and ProductMax bound the product when both sides are picked
	ProductMin int
	ProductMax int

	// Junctions a LEFT or RIGHT primer must cross, at least JunctionOverlap
	// bp on each side. Each is the template offset of the last base before
	// the junction: primer3 puts junction x between bases x and x+1.
	Junctions       []int
	JunctionOverlap int

	Constraints Constraints
}

// Oligo is a primer primer3 picked or checked.
type Oligo struct {
	Seq string `json:"seq"`

	// Start is the template offset of the 5' end. primer3 reports a RIGHT
	// primer by its 5' end too, which is its highest template offset.
	Start  int `json:"start"`
	Length int `json:"length"`

	Tm float64 `json:"tm"`

	// GC percent
	GC float64 `json:"gc"`

	// thermodynamic self-complementarity and hairpin melting temps, C
	SelfAny float64 `json:"selfAny"`
	SelfEnd float64 `json:"selfEnd"`
	Hairpin float64 `json:"hairpin"`

	// EndStability is the dG of the 3' pentamer, kcal/mol
	EndStability float64 `json:"endStability"`

	Penalty float64 `json:"penalty"`
}

// Pair is a LEFT/RIGHT pairing picked together.
type Pair struct {
	// indexes into Result.Left and Result.Right
	Left  int
	Right int

	ComplAny    float64
	ComplEnd    float64
	ProductSize int
	Penalty     float64
}

// Result is the parsed output of one primer3 run.
type Result struct {
	Left  []Oligo
	Right []Oligo
	Pairs []Pair

	// Explain is primer3's account of rejected candidates, per side
	Explain map[string]string

	// Warnings from PRIMER_WARNING
	Warnings []string
}

// Runner executes primer3 and ntthal.
type Runner struct {
	primer3Path string
	ntthalPath  string
	configDir   string
	thermo      config.ThermoConfig
	timeout     time.Duration
	log         zerolog.Logger
}

// New creates a Runner from the engine and thermo settings.
func New(conf *config.Config, log zerolog.Logger) *Runner {
	return &Runner{
		primer3Path: conf.Engine.Primer3Path,
		ntthalPath:  conf.Engine.NtthalPath,
		configDir:   conf.Engine.ConfigDir,
		thermo:      conf.Thermo,
		timeout:     conf.Engine.Timeout,
		log:         log.With().Str("component", "primer3").Logger(),
	}
}

// Pick runs a generic primer3 search.
func (r *Runner) Pick(ctx context.Context, t Task) (*Result, error) {
	if len(t.Template) < t.Constraints.MinSize {
		return &Result{Explain: map[string]string{"template": fmt.Sprintf("template of %d bp is shorter than the minimum primer", len(t.Template))}}, nil
	}

	out, err := r.run(ctx, t.ID, r.pickSettings(t))
	if err != nil {
		return nil, err
	}
	return parse(out)
}

// Check computes primer3's metrics for a single oligo without a template.
func (r *Runner) Check(ctx context.Context, seq string) (*Oligo, error) {
	seq = strings.ToUpper(seq)
	if len(seq) > maxOligo {
		return nil, &EngineError{Op: "check", Err: fmt.Errorf("oligo of %d bp is longer than primer3's limit of %d", len(seq), maxOligo)}
	}

	out, err := r.run(ctx, "check", r.checkSettings(seq))
	if err != nil {
		return nil, err
	}
	res, err := parse(out)
	if err != nil {
		return nil, err
	}
	if len(res.Left) == 0 {
		return nil, &EngineError{Op: "check", Err: fmt.Errorf("primer3 returned no metrics for %s: %s", seq, res.Explain["left"])}
	}
	return &res.Left[0], nil
}

// run writes settings to a Boulder-IO file and executes primer3_core on it,
// returning the raw output.
func (r *Runner) run(ctx context.Context, id string, settings map[string]string) (string, error) {
	in, err := os.CreateTemp("", "primer3-in-*")
	if err != nil {
		return "", &EngineError{Op: "pick", Err: fmt.Errorf("failed to create primer3 input file: %w", err)}
	}
	defer os.Remove(in.Name())

	out, err := os.CreateTemp("", "primer3-out-*")
	if err != nil {
		in.Close()
		return "", &EngineError{Op: "pick", Err: fmt.Errorf("failed to create primer3 output file: %w", err)}
	}
	out.Close()
	defer os.Remove(out.Name())

	_, err = in.Write(boulder(settings))
	in.Close()
	if err != nil {
		return "", &EngineError{Op: "pick", Err: fmt.Errorf("failed to write primer3 input file: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	p3Cmd := exec.CommandContext(
		ctx,
		r.primer3Path,
		in.Name(),
		"-output", out.Name(),
		"-strict_tags",
	)
	output, err := p3Cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &EngineTimeoutError{Op: "primer3", Timeout: r.timeout}
	}
	if err != nil {
		return "", &EngineError{Op: "primer3", Err: err, Output: string(output)}
	}

	result, err := os.ReadFile(out.Name())
	if err != nil {
		return "", &EngineError{Op: "primer3", Err: fmt.Errorf("failed to read primer3 output: %w", err)}
	}

	r.log.Debug().Str("id", id).Dur("took", time.Since(start)).Msg("primer3 finished")
	return string(result), nil
}
