package primer3

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ntthal aligns at most 60 bp per oligo
const maxNtthal = 60

// Heterodimer returns the melting temperature of the most stable duplex
// between two oligos, 0 if they don't form one.
func (r *Runner) Heterodimer(ctx context.Context, a, b string) (float64, error) {
	if len(a) > maxNtthal || len(b) > maxNtthal {
		return 0, &EngineError{Op: "ntthal", Err: fmt.Errorf("oligos of %d and %d bp exceed ntthal's %d bp limit", len(a), len(b), maxNtthal)}
	}
	return r.ntthal(ctx, "ANY", strings.ToUpper(a), strings.ToUpper(b))
}

// ntthal runs a temperature-only ntthal alignment. see ntthal (no parameters)
// help, within the primer3 distribution
func (r *Runner) ntthal(ctx context.Context, mode, s1, s2 string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"-a", mode,
		"-r", // temperature only
		"-mv", ftoa(r.thermo.Monovalent),
		"-dv", ftoa(r.thermo.Divalent),
		"-n", ftoa(r.thermo.DNTP),
		"-d", ftoa(r.thermo.DNA),
		"-t", ftoa(r.thermo.Temp),
		"-s1", s1,
	}
	if s2 != "" {
		args = append(args, "-s2", s2)
	}
	if r.configDir != "" {
		args = append(args, "-path", r.configDir)
	}

	ntthalOut, err := exec.CommandContext(ctx, r.ntthalPath, args...).CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 0, &EngineTimeoutError{Op: "ntthal", Timeout: r.timeout}
	}
	if err != nil {
		return 0, &EngineError{Op: "ntthal", Err: err, Output: string(ntthalOut)}
	}

	return parseNtthal(string(ntthalOut))
}

// parseNtthal reads the temperature ntthal prints with -r
func parseNtthal(out string) (float64, error) {
	out = strings.TrimSpace(out)
	if out == "" || strings.Contains(out, "No secondary structure") {
		return 0, nil
	}

	temp, err := strconv.ParseFloat(strings.Fields(out)[0], 64)
	if err != nil {
		return 0, &EngineError{Op: "ntthal", Err: fmt.Errorf("failed to parse ntthal output: %w", err), Output: out}
	}
	return temp, nil
}
