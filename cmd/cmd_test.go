package cmd

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/region"
)

func Test_designRequest(t *testing.T) {
	fwdStart, revStart := 0, 400

	type args struct {
		cmd   *cobra.Command
		flags []string
		args  []string
	}
	tests := []struct {
		name     string
		args     args
		mode     region.Mode
		gene     *gene.Query
		failures bool
	}{
		{
			"wga",
			args{wgaCmd, []string{"--flank", "800", "--flank-policy", "clamp", "-t", "ENST0001"}, []string{"TP53"}},
			region.WGA{FlankLength: 800},
			&gene.Query{Gene: "TP53", Transcript: "ENST0001"},
			false,
		},
		{
			"internal",
			args{internalCmd, []string{"-j", "3", "--margin", "100"}, []string{"ACTB"}},
			region.Internal{Junction: 3},
			&gene.Query{Gene: "ACTB", Margin: 100},
			false,
		},
		{
			"sequence",
			args{sequenceCmd, []string{"--forward-start", "0", "--reverse-start", "400", "--reverse-complemented"}, []string{"ACGTACGT", "TTGGCCAA"}},
			region.FromSequence{
				Forward: region.LiteralRegion{Name: "forward", Seq: "ACGTACGT", Start: &fwdStart},
				Reverse: region.LiteralRegion{Name: "reverse", Seq: "TTGGCCAA", Reverse: true, Start: &revStart},
			},
			nil,
			false,
		},
		{
			"manual",
			args{manualCmd, nil, []string{"AGCTGACCTGAAGCTGTCCA", "TTCAGGCTCTGGTTGTCAGG"}},
			region.Manual{Forward: "AGCTGACCTGAAGCTGTCCA", Reverse: "TTCAGGCTCTGGTTGTCAGG"},
			nil,
			true,
		},
		{
			"target",
			args{targetCmd, []string{"--target-start", "280", "--target-end", "320"}, []string{"ACGTACGT"}},
			region.Targeted{Template: "ACGTACGT", TargetStart: 280, TargetEnd: 320},
			nil,
			false,
		},
		{
			"single",
			args{singleCmd, []string{"--side", "RIGHT", "--include-start", "400", "--include-len", "120"}, []string{"ACGTACGT"}},
			region.Single{Template: "ACGTACGT", Side: region.Right, IncludeStart: 400, IncludeLen: 120},
			nil,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.args.cmd.ParseFlags(tt.args.flags); err != nil {
				t.Fatal(err)
			}
			req, err := designRequest(tt.args.cmd, tt.args.args)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(req.Mode, tt.mode) {
				t.Errorf("mode = %#v, want %#v", req.Mode, tt.mode)
			}
			if !reflect.DeepEqual(req.Gene, tt.gene) {
				t.Errorf("gene = %+v, want %+v", req.Gene, tt.gene)
			}
			if req.IncludeFailures != tt.failures {
				t.Errorf("includeFailures = %v, want %v", req.IncludeFailures, tt.failures)
			}
		})
	}
}

func Test_designRequest_shared(t *testing.T) {
	if err := wgaCmd.ParseFlags([]string{"--tm", "60.5", "--gc", "45", "-n", "2", "--product-max", "9000", "--failures"}); err != nil {
		t.Fatal(err)
	}
	req, err := designRequest(wgaCmd, []string{"BRCA1"})
	if err != nil {
		t.Fatal(err)
	}
	if req.TargetTm != 60.5 || req.TargetGC != 45 || req.MaxResults != 2 || req.ProductMax != 9000 || !req.IncludeFailures {
		t.Errorf("request = %+v", req)
	}
	if req.FlankPolicy != region.Clamp && req.FlankPolicy != "" {
		t.Errorf("flankPolicy = %q", req.FlankPolicy)
	}
}

func Test_designRequest_badSide(t *testing.T) {
	if err := singleCmd.ParseFlags([]string{"--side", "middle"}); err != nil {
		t.Fatal(err)
	}
	if _, err := designRequest(singleCmd, []string{"ACGT"}); err == nil {
		t.Error("designRequest() with an unknown side should fail")
	}
}

func Test_blastQuery(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{"accession", " NM_000546.6 ", "NM_000546.6", false},
		{"sequence", "acgtacgtac gtacgtacgt\nACGT", "ACGTACGTACGTACGTACGTACGT", false},
		{"too short", "ACGTACGT", "", true},
		{"too long", strings.Repeat("A", 50001), "", true},
		{"fasta", ">NM_001101.5 ACTB mRNA\nACGTACGTACGTACGTACGTAC", "ACGTACGTACGTACGTACGTAC", false},
		{"iupac", "ACGTRYACGTACGTACGTACGTAC", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := blastQuery(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("blastQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("blastQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_filePrepender(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"docs/primerool.md", "title: primerool\nnav_order: 0\nhas_children: true\npermalink: /"},
		{"docs/primerool_design.md", "title: design\nparent: primerool\nnav_order: 0\nhas_children: true"},
		{"docs/primerool_design_wga.md", "title: wga\nparent: design\ngrand_parent: primerool\nnav_order: 0"},
		{"docs/primerool_gene.md", "title: gene\nparent: primerool\nnav_order: 1\nhas_children: true"},
		{"docs/primerool_gene_sequence.md", "title: sequence\nparent: gene\ngrand_parent: primerool"},
	}
	for _, tt := range tests {
		if got := filePrepender(tt.file); !strings.Contains(got, tt.want) {
			t.Errorf("filePrepender(%s) = %q, want it to contain %q", tt.file, got, tt.want)
		}
	}

	if got := filePrepender("docs/unknown.md"); got != "" {
		t.Errorf("filePrepender(unknown) = %q", got)
	}
	if got := linkHandler("primerool.md"); got != "/" {
		t.Errorf("linkHandler(root) = %q", got)
	}
	if got := linkHandler("primerool_design_wga.md"); got != "primerool_design_wga" {
		t.Errorf("linkHandler(wga) = %q", got)
	}
}
