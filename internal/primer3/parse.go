package primer3

import (
	"fmt"
	"strconv"
	"strings"
)

// parse reads primer3's Boulder-IO output into a Result. A run that found
// nothing is an empty Result, not an error.
func parse(file string) (*Result, error) {
	// read in results into map, they're all 1:1
	results := make(map[string]string)
	for _, line := range strings.Split(file, "\n") {
		if key, val, ok := strings.Cut(line, "="); ok && key != "" {
			results[strings.TrimSpace(key)] = strings.TrimSpace(val)
		}
	}

	if p3Error := results["PRIMER_ERROR"]; p3Error != "" {
		return nil, &EngineError{Op: "primer3", Err: fmt.Errorf("%s", p3Error)}
	}

	res := &Result{Explain: map[string]string{}}
	if w := results["PRIMER_WARNING"]; w != "" {
		res.Warnings = strings.Split(w, ";")
	}
	for _, side := range []string{"LEFT", "RIGHT", "PAIR"} {
		if e := results["PRIMER_"+side+"_EXPLAIN"]; e != "" {
			res.Explain[strings.ToLower(side)] = e
		}
	}

	var err error
	if res.Left, err = parseOligos(results, "LEFT"); err != nil {
		return nil, err
	}
	if res.Right, err = parseOligos(results, "RIGHT"); err != nil {
		return nil, err
	}

	nPairs := atoi(results["PRIMER_PAIR_NUM_RETURNED"])
	for i := 0; i < nPairs && i < len(res.Left) && i < len(res.Right); i++ {
		key := func(field string) string { return fmt.Sprintf("PRIMER_PAIR_%d_%s", i, field) }
		res.Pairs = append(res.Pairs, Pair{
			Left:        i,
			Right:       i,
			ComplAny:    atof(results[key("COMPL_ANY_TH")]),
			ComplEnd:    atof(results[key("COMPL_END_TH")]),
			ProductSize: atoi(results[key("PRODUCT_SIZE")]),
			Penalty:     atof(results[key("PENALTY")]),
		})
	}

	return res, nil
}

// parseOligos reads every primer of one side, "LEFT" or "RIGHT"
func parseOligos(results map[string]string, side string) ([]Oligo, error) {
	n := atoi(results[fmt.Sprintf("PRIMER_%s_NUM_RETURNED", side)])

	var oligos []Oligo
	for i := 0; i < n; i++ {
		key := func(field string) string { return fmt.Sprintf("PRIMER_%s_%d_%s", side, i, field) }

		// PRIMER_LEFT_0=start,length
		pos := results[fmt.Sprintf("PRIMER_%s_%d", side, i)]
		startStr, lengthStr, ok := strings.Cut(pos, ",")
		if !ok {
			return nil, &EngineError{Op: "primer3", Err: fmt.Errorf("failed to parse position %q of %s primer %d", pos, side, i)}
		}
		start, err := strconv.Atoi(strings.TrimSpace(startStr))
		if err != nil {
			return nil, &EngineError{Op: "primer3", Err: fmt.Errorf("failed to parse position %q of %s primer %d: %w", pos, side, i, err)}
		}
		length, err := strconv.Atoi(strings.TrimSpace(lengthStr))
		if err != nil {
			return nil, &EngineError{Op: "primer3", Err: fmt.Errorf("failed to parse length %q of %s primer %d: %w", pos, side, i, err)}
		}

		oligos = append(oligos, Oligo{
			Seq:          results[key("SEQUENCE")],
			Start:        start,
			Length:       length,
			Tm:           atof(results[key("TM")]),
			GC:           atof(results[key("GC_PERCENT")]),
			SelfAny:      atof(results[key("SELF_ANY_TH")]),
			SelfEnd:      atof(results[key("SELF_END_TH")]),
			Hairpin:      atof(results[key("HAIRPIN_TH")]),
			EndStability: atof(results[key("END_STABILITY")]),
			Penalty:      atof(results[key("PENALTY")]),
		})
	}
	return oligos, nil
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
