package primer3

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
)

const pairOutput = `SEQUENCE_ID=test
SEQUENCE_TEMPLATE=ACGT
PRIMER_LEFT_EXPLAIN=considered 1203, GC content failed 120, ok 1083
PRIMER_RIGHT_EXPLAIN=considered 1190, ok 1190
PRIMER_PAIR_EXPLAIN=considered 10, ok 2
PRIMER_LEFT_NUM_RETURNED=2
PRIMER_RIGHT_NUM_RETURNED=2
PRIMER_PAIR_NUM_RETURNED=2
PRIMER_PAIR_0_PENALTY=0.2
PRIMER_LEFT_0_PENALTY=0.1
PRIMER_LEFT_0_SEQUENCE=AGCTTGCATGCCTGCAGGTC
PRIMER_LEFT_0=12,20
PRIMER_LEFT_0_TM=62.1
PRIMER_LEFT_0_GC_PERCENT=60.0
PRIMER_LEFT_0_SELF_ANY_TH=10.5
PRIMER_LEFT_0_SELF_END_TH=0.0
PRIMER_LEFT_0_HAIRPIN_TH=35.2
PRIMER_LEFT_0_END_STABILITY=4.1
PRIMER_RIGHT_0_PENALTY=0.1
PRIMER_RIGHT_0_SEQUENCE=GGATCCTCTAGAGTCGACCT
PRIMER_RIGHT_0=140,20
PRIMER_RIGHT_0_TM=61.9
PRIMER_RIGHT_0_GC_PERCENT=55.0
PRIMER_RIGHT_0_SELF_ANY_TH=0.0
PRIMER_RIGHT_0_SELF_END_TH=0.0
PRIMER_RIGHT_0_HAIRPIN_TH=0.0
PRIMER_RIGHT_0_END_STABILITY=3.9
PRIMER_PAIR_0_COMPL_ANY_TH=12.5
PRIMER_PAIR_0_COMPL_END_TH=3.0
PRIMER_PAIR_0_PRODUCT_SIZE=129
PRIMER_PAIR_1_PENALTY=0.9
PRIMER_LEFT_1_SEQUENCE=GCTTGCATGCCTGCAGGTCG
PRIMER_LEFT_1=13,20
PRIMER_LEFT_1_TM=63.0
PRIMER_RIGHT_1_SEQUENCE=GATCCTCTAGAGTCGACCTG
PRIMER_RIGHT_1=139,20
PRIMER_RIGHT_1_TM=61.0
PRIMER_PAIR_1_PRODUCT_SIZE=127
=
`

func Test_parse(t *testing.T) {
	got, err := parse(pairOutput)
	if err != nil {
		t.Fatal(err)
	}

	wantLeft0 := Oligo{
		Seq:          "AGCTTGCATGCCTGCAGGTC",
		Start:        12,
		Length:       20,
		Tm:           62.1,
		GC:           60,
		SelfAny:      10.5,
		Hairpin:      35.2,
		EndStability: 4.1,
		Penalty:      0.1,
	}
	if !reflect.DeepEqual(got.Left[0], wantLeft0) {
		t.Errorf("parse() left 0 = %+v, want %+v", got.Left[0], wantLeft0)
	}
	if len(got.Left) != 2 || len(got.Right) != 2 {
		t.Fatalf("parse() = %d left, %d right", len(got.Left), len(got.Right))
	}
	if got.Right[1].Start != 139 || got.Right[1].Seq != "GATCCTCTAGAGTCGACCTG" {
		t.Errorf("parse() right 1 = %+v", got.Right[1])
	}

	wantPairs := []Pair{
		{Left: 0, Right: 0, ComplAny: 12.5, ComplEnd: 3, ProductSize: 129, Penalty: 0.2},
		{Left: 1, Right: 1, ProductSize: 127, Penalty: 0.9},
	}
	if !reflect.DeepEqual(got.Pairs, wantPairs) {
		t.Errorf("parse() pairs = %+v, want %+v", got.Pairs, wantPairs)
	}
	if got.Explain["left"] != "considered 1203, GC content failed 120, ok 1083" {
		t.Errorf("parse() explain = %v", got.Explain)
	}
}

func Test_parse_empty(t *testing.T) {
	got, err := parse("PRIMER_LEFT_EXPLAIN=considered 50, low tm 50, ok 0\nPRIMER_LEFT_NUM_RETURNED=0\n=\n")
	if err != nil {
		t.Fatalf("parse() of no primers should not fail: %v", err)
	}
	if len(got.Left) != 0 || got.Explain["left"] == "" {
		t.Errorf("parse() = %+v", got)
	}
}

func Test_parse_errors(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"primer3 error", "PRIMER_ERROR=SEQUENCE_INCLUDED_REGION illegal value\n=\n"},
		{"bad position", "PRIMER_LEFT_NUM_RETURNED=1\nPRIMER_LEFT_0=twelve\n=\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var engineErr *EngineError
			if _, err := parse(tt.out); !errors.As(err, &engineErr) {
				t.Errorf("parse() error = %v, want EngineError", err)
			}
		})
	}
}

func Test_pickSettings(t *testing.T) {
	r := New(config.New(), zerolog.Nop())

	settings := r.pickSettings(Task{
		ID:              "Exon 1|2",
		Template:        "acgtacgtacgtacgtacgtacgtacgtacgt",
		IncludedStart:   2,
		IncludedLen:     20,
		TargetStart:     10,
		TargetLen:       4,
		PickLeft:        true,
		PickRight:       true,
		ProductMin:      80,
		ProductMax:      220,
		Junctions:       []int{13},
		JunctionOverlap: 6,
		Constraints:     Constraints{MinSize: 18, OptSize: 20, MaxSize: 25, MinTm: 57, OptTm: 62, MaxTm: 67, MinGC: 40, MaxGC: 60, NumReturn: 5, MaxPolyX: 5},
	})

	want := map[string]string{
		"SEQUENCE_TEMPLATE":                      "ACGTACGTACGTACGTACGTACGTACGTACGT",
		"SEQUENCE_INCLUDED_REGION":               "2,20",
		"PRIMER_PRODUCT_SIZE_RANGE":              "80-220",
		"SEQUENCE_TARGET":                        "10,4",
		"SEQUENCE_OVERLAP_JUNCTION_LIST":         "13",
		"PRIMER_MIN_3_PRIME_OVERLAP_OF_JUNCTION": "6",
		"PRIMER_OPT_TM":                          "62",
		"PRIMER_SALT_DIVALENT":                   "1.5",
		"PRIMER_PICK_RIGHT_PRIMER":               "1",
		"PRIMER_TASK":                            "generic",
	}
	for k, v := range want {
		if settings[k] != v {
			t.Errorf("settings[%s] = %q, want %q", k, settings[k], v)
		}
	}

	single := r.pickSettings(Task{Template: strings.Repeat("A", 500), PickLeft: true, Constraints: Constraints{MinSize: 18}})
	if single["PRIMER_PRODUCT_SIZE_RANGE"] != "18-500" {
		t.Errorf("single side product range = %s", single["PRIMER_PRODUCT_SIZE_RANGE"])
	}
	for _, tag := range []string{"SEQUENCE_TARGET", "SEQUENCE_INCLUDED_REGION", "SEQUENCE_OVERLAP_JUNCTION_LIST"} {
		if v, ok := single[tag]; ok {
			t.Errorf("unset %s written as %q", tag, v)
		}
	}
}

func Test_boulder(t *testing.T) {
	got := string(boulder(map[string]string{"B": "2", "A": "1"}))
	if got != "A=1\nB=2\n=\n" {
		t.Errorf("boulder() = %q", got)
	}
}

func Test_parseNtthal(t *testing.T) {
	tests := []struct {
		out     string
		want    float64
		wantErr bool
	}{
		{"42.517311\n", 42.517311, false},
		{"", 0, false},
		{"No secondary structure could be calculated\n", 0, false},
		{"garbage", 0, true},
	}
	for _, tt := range tests {
		got, err := parseNtthal(tt.out)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseNtthal(%q) = %v, %v", tt.out, got, err)
		}
	}
}

// fakeExecutable writes a shell script standing in for primer3_core or ntthal
func fakeExecutable(t *testing.T, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRunner(primer3Path, ntthalPath string, timeout time.Duration) *Runner {
	conf := config.New()
	conf.Engine.Primer3Path = primer3Path
	conf.Engine.NtthalPath = ntthalPath
	conf.Engine.Timeout = timeout
	return New(conf, zerolog.Nop())
}

func TestRunner_Pick(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(fixture, []byte(pairOutput), 0o644); err != nil {
		t.Fatal(err)
	}
	captured := filepath.Join(dir, "in.txt")

	// primer3_core <in> -output <out> -strict_tags
	p3 := fakeExecutable(t, "primer3_core", `cp "$1" `+captured+`; cat `+fixture+` > "$3"`)
	r := testRunner(p3, "", 5*time.Second)

	res, err := r.Pick(context.Background(), Task{
		ID:          "t",
		Template:    strings.Repeat("ACGT", 50),
		PickLeft:    true,
		PickRight:   true,
		ProductMin:  100,
		ProductMax:  150,
		Constraints: Constraints{MinSize: 18, OptSize: 20, MaxSize: 25, NumReturn: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pairs) != 2 {
		t.Errorf("Pick() pairs = %d, want 2", len(res.Pairs))
	}

	in, err := os.ReadFile(captured)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(in), "PRIMER_PRODUCT_SIZE_RANGE=100-150\n") || !strings.HasSuffix(string(in), "=\n") {
		t.Errorf("primer3 input = %s", in)
	}
}

func TestRunner_Pick_failures(t *testing.T) {
	task := Task{Template: strings.Repeat("ACGT", 50), PickLeft: true, Constraints: Constraints{MinSize: 18}}

	t.Run("exit status", func(t *testing.T) {
		r := testRunner(fakeExecutable(t, "primer3_core", "echo bad settings >&2; exit 1"), "", 5*time.Second)
		var engineErr *EngineError
		_, err := r.Pick(context.Background(), task)
		if !errors.As(err, &engineErr) || !strings.Contains(err.Error(), "bad settings") {
			t.Errorf("Pick() error = %v, want EngineError with output", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		r := testRunner(fakeExecutable(t, "primer3_core", "exec sleep 5"), "", 50*time.Millisecond)
		var timeoutErr *EngineTimeoutError
		if _, err := r.Pick(context.Background(), task); !errors.As(err, &timeoutErr) {
			t.Errorf("Pick() error = %v, want EngineTimeoutError", err)
		}
	})

	t.Run("short template", func(t *testing.T) {
		r := testRunner("/does/not/exist", "", time.Second)
		res, err := r.Pick(context.Background(), Task{Template: "ACGT", PickLeft: true, Constraints: Constraints{MinSize: 18}})
		if err != nil || len(res.Left) != 0 {
			t.Errorf("Pick() on a short template = %+v, %v, want empty result", res, err)
		}
	})
}

func TestRunner_Check(t *testing.T) {
	out := "PRIMER_LEFT_NUM_RETURNED=1\nPRIMER_LEFT_0=0,18\nPRIMER_LEFT_0_SEQUENCE=ACGTACGTACGTACGTAC\nPRIMER_LEFT_0_TM=51.2\n=\n"
	r := testRunner(fakeExecutable(t, "primer3_core", `printf '`+out+`' > "$3"`), "", 5*time.Second)

	got, err := r.Check(context.Background(), "acgtacgtacgtacgtac")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tm != 51.2 || got.Length != 18 {
		t.Errorf("Check() = %+v", got)
	}

	if _, err := r.Check(context.Background(), strings.Repeat("A", 40)); err == nil {
		t.Error("Check() of a 40 bp oligo should fail")
	}
}

func TestRunner_Heterodimer(t *testing.T) {
	r := testRunner("", fakeExecutable(t, "ntthal", `echo 23.5`), 5*time.Second)

	got, err := r.Heterodimer(context.Background(), "ACGTACGTACGTACGTAC", "GTACGTACGTACGTACGT")
	if err != nil {
		t.Fatal(err)
	}
	if got != 23.5 {
		t.Errorf("Heterodimer() = %v, want 23.5", got)
	}

	if _, err := r.Heterodimer(context.Background(), strings.Repeat("A", 61), "ACGT"); err == nil {
		t.Error("Heterodimer() over 60 bp should fail")
	}
}
