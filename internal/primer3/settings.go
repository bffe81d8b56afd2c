package primer3

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxOligo is primer3's upper limit on primer length
const maxOligo = 36

// pickSettings returns the primer3 settings for a generic search.
// see the primer3 manual for each tag
func (r *Runner) pickSettings(t Task) map[string]string {
	c := t.Constraints
	settings := r.thermoSettings()
	for k, v := range map[string]string{
		"SEQUENCE_ID":                t.ID,
		"SEQUENCE_TEMPLATE":          strings.ToUpper(t.Template),
		"PRIMER_TASK":                "generic",
		"PRIMER_PICK_LEFT_PRIMER":    flag(t.PickLeft),
		"PRIMER_PICK_RIGHT_PRIMER":   flag(t.PickRight),
		"PRIMER_PICK_INTERNAL_OLIGO": "0",
		"PRIMER_EXPLAIN_FLAG":        "1",
		"PRIMER_MIN_SIZE":            strconv.Itoa(c.MinSize),
		"PRIMER_OPT_SIZE":            strconv.Itoa(c.OptSize),
		"PRIMER_MAX_SIZE":            strconv.Itoa(c.MaxSize),
		"PRIMER_MIN_TM":              ftoa(c.MinTm),
		"PRIMER_OPT_TM":              ftoa(c.OptTm),
		"PRIMER_MAX_TM":              ftoa(c.MaxTm),
		"PRIMER_MIN_GC":              ftoa(c.MinGC),
		"PRIMER_MAX_GC":              ftoa(c.MaxGC),
		"PRIMER_NUM_RETURN":          strconv.Itoa(c.NumReturn),
		"PRIMER_MAX_POLY_X":          strconv.Itoa(c.MaxPolyX),
	} {
		settings[k] = v
	}

	if t.IncludedLen > 0 {
		settings["SEQUENCE_INCLUDED_REGION"] = fmt.Sprintf("%d,%d", t.IncludedStart, t.IncludedLen)
	}
	if t.TargetLen > 0 {
		settings["SEQUENCE_TARGET"] = fmt.Sprintf("%d,%d", t.TargetStart, t.TargetLen)
	}

	// a single side search still needs a product range that fits the template
	productMin, productMax := t.ProductMin, t.ProductMax
	if !t.PickLeft || !t.PickRight || productMax == 0 {
		productMin, productMax = c.MinSize, max(len(t.Template), c.MinSize)
	}
	settings["PRIMER_PRODUCT_SIZE_RANGE"] = fmt.Sprintf("%d-%d", productMin, productMax)

	if len(t.Junctions) > 0 {
		var js []string
		for _, j := range t.Junctions {
			js = append(js, strconv.Itoa(j))
		}
		settings["SEQUENCE_OVERLAP_JUNCTION_LIST"] = strings.Join(js, " ")
		settings["PRIMER_MIN_3_PRIME_OVERLAP_OF_JUNCTION"] = strconv.Itoa(t.JunctionOverlap)
		settings["PRIMER_MIN_5_PRIME_OVERLAP_OF_JUNCTION"] = strconv.Itoa(t.JunctionOverlap)
	}

	return settings
}

// checkSettings returns the settings for reporting a single oligo's metrics.
// Every limit is opened up so the oligo is never rejected.
func (r *Runner) checkSettings(seq string) map[string]string {
	settings := r.thermoSettings()
	for k, v := range map[string]string{
		"SEQUENCE_ID":                "check",
		"SEQUENCE_PRIMER":            seq,
		"PRIMER_TASK":                "check_primers",
		"PRIMER_PICK_LEFT_PRIMER":    "1",
		"PRIMER_PICK_RIGHT_PRIMER":   "0",
		"PRIMER_PICK_INTERNAL_OLIGO": "0",
		"PRIMER_PICK_ANYWAY":         "1",
		"PRIMER_EXPLAIN_FLAG":        "1",
		"PRIMER_MIN_SIZE":            strconv.Itoa(len(seq)),
		"PRIMER_OPT_SIZE":            strconv.Itoa(len(seq)),
		"PRIMER_MAX_SIZE":            strconv.Itoa(maxOligo),
		"PRIMER_MIN_TM":              "0",
		"PRIMER_MAX_TM":              "100",
		"PRIMER_MIN_GC":              "0",
		"PRIMER_MAX_GC":              "100",
		"PRIMER_MAX_POLY_X":          "100",
	} {
		settings[k] = v
	}
	return settings
}

// thermoSettings are the reaction conditions shared by every run
func (r *Runner) thermoSettings() map[string]string {
	settings := map[string]string{
		"PRIMER_SALT_MONOVALENT":               ftoa(r.thermo.Monovalent),
		"PRIMER_SALT_DIVALENT":                 ftoa(r.thermo.Divalent),
		"PRIMER_DNTP_CONC":                     ftoa(r.thermo.DNTP),
		"PRIMER_DNA_CONC":                      ftoa(r.thermo.DNA),
		"PRIMER_THERMODYNAMIC_OLIGO_ALIGNMENT": "1",
	}
	if r.configDir != "" {
		settings["PRIMER_THERMODYNAMIC_PARAMETERS_PATH"] = r.configDir
	}
	return settings
}

// boulder writes settings as a Boulder-IO record, sorted by tag.
func boulder(settings map[string]string) []byte {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var file bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&file, "%s=%s\n", k, settings[k])
	}
	file.WriteString("=\n") // required at the record's end
	return file.Bytes()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
