package blast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
)

const xmlOutput = `<?xml version="1.0"?>
<BlastOutput>
  <BlastOutput_program>blastn</BlastOutput_program>
  <BlastOutput_query-len>120</BlastOutput_query-len>
  <BlastOutput_iterations>
    <Iteration>
      <Iteration_hits>
        <Hit>
          <Hit_num>1</Hit_num>
          <Hit_def>Homo sapiens tumor protein p53 (TP53), transcript variant 1, mRNA</Hit_def>
          <Hit_accession>NM_000546</Hit_accession>
          <Hit_hsps>
            <Hsp>
              <Hsp_bit-score>222.5</Hsp_bit-score>
              <Hsp_evalue>1e-55</Hsp_evalue>
              <Hsp_query-from>1</Hsp_query-from>
              <Hsp_query-to>120</Hsp_query-to>
              <Hsp_hit-from>300</Hsp_hit-from>
              <Hsp_hit-to>181</Hsp_hit-to>
              <Hsp_identity>120</Hsp_identity>
              <Hsp_align-len>120</Hsp_align-len>
            </Hsp>
          </Hit_hsps>
        </Hit>
        <Hit>
          <Hit_num>2</Hit_num>
          <Hit_def>Homo sapiens major histocompatibility complex, class II, DQ beta 1 (HLA-DQB1) gene</Hit_def>
          <Hit_accession>AL359314</Hit_accession>
          <Hit_hsps>
            <Hsp>
              <Hsp_bit-score>60</Hsp_bit-score>
              <Hsp_evalue>0.001</Hsp_evalue>
              <Hsp_query-from>10</Hsp_query-from>
              <Hsp_query-to>49</Hsp_query-to>
              <Hsp_hit-from>5</Hsp_hit-from>
              <Hsp_hit-to>44</Hsp_hit-to>
              <Hsp_identity>36</Hsp_identity>
              <Hsp_align-len>40</Hsp_align-len>
            </Hsp>
          </Hit_hsps>
        </Hit>
        <Hit>
          <Hit_num>3</Hit_num>
          <Hit_def>no hsps</Hit_def>
          <Hit_accession>X00001</Hit_accession>
        </Hit>
      </Iteration_hits>
    </Iteration>
  </BlastOutput_iterations>
</BlastOutput>`

var wantHits = []Hit{
	{
		Organism:   "Homo sapiens",
		GeneSymbol: "TP53",
		Accession:  "NM_000546",
		Title:      "Homo sapiens tumor protein p53 (TP53), transcript variant 1, mRNA",
		Identity:   100,
		AlignLen:   120,
		EValue:     1e-55,
		BitScore:   222.5,
		QueryStart: 0,
		QueryEnd:   120,
		HitStart:   180,
		HitEnd:     300,
	},
	{
		Organism:   "Homo sapiens",
		GeneSymbol: "HLA-DQB1",
		Accession:  "AL359314",
		Title:      "Homo sapiens major histocompatibility complex, class II, DQ beta 1 (HLA-DQB1) gene",
		Identity:   90,
		AlignLen:   40,
		EValue:     0.001,
		BitScore:   60,
		QueryStart: 9,
		QueryEnd:   49,
		HitStart:   4,
		HitEnd:     44,
	},
}

func Test_parseXML(t *testing.T) {
	got, err := parseXML([]byte(xmlOutput))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, wantHits) {
		t.Errorf("parseXML() = %+v, want %+v", got, wantHits)
	}

	if _, err := parseXML([]byte("<BlastOutput><unclosed>")); err == nil {
		t.Error("parseXML() of bad XML should fail")
	}
}

func Test_parseTabular(t *testing.T) {
	out := "# BLASTN 2.12.0+\n# Query: query\n# 1 hits found\n" +
		"NM_000546\t100.000\t120\t1e-55\t222.5\t1\t120\t300\t181\tHomo sapiens tumor protein p53 (TP53), transcript variant 1, mRNA\n"

	got := parseTabular(out)
	if !reflect.DeepEqual(got, wantHits[:1]) {
		t.Errorf("parseTabular() = %+v, want %+v", got, wantHits[:1])
	}
}

func Test_filter(t *testing.T) {
	hits := []Hit{
		{Accession: "A", BitScore: 10},
		{Accession: "B", BitScore: 50},
		{Accession: "A", BitScore: 40},
		{Accession: "C", BitScore: 50},
	}
	var got []string
	for _, h := range filter(hits) {
		got = append(got, h.Accession)
	}
	if want := []string{"B", "C", "A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("filter() = %v, want %v", got, want)
	}
}

func Test_describe(t *testing.T) {
	tests := []struct {
		title    string
		organism string
		symbol   string
	}{
		{"Mus musculus actin, beta (Actb), mRNA", "Mus musculus", "Actb"},
		{"Borrelia hermsii strain DAH chromosome", "Borrelia hermsii", ""},
		{"synthetic", "synthetic", ""},
		{"", "Unknown", ""},
	}
	for _, tt := range tests {
		h := Hit{Title: tt.title}
		describe(&h)
		if h.Organism != tt.organism || h.GeneSymbol != tt.symbol {
			t.Errorf("describe(%q) = %q, %q", tt.title, h.Organism, h.GeneSymbol)
		}
	}
}

func TestIsAccession(t *testing.T) {
	tests := map[string]bool{
		"NM_000546.6":           true,
		"AL359314.14":           true,
		"NR_132312":             true,
		"ACGTACGTACGTACGTACGTA": false,
		"TP53":                  false,
	}
	for in, want := range tests {
		if got := IsAccession(in); got != want {
			t.Errorf("IsAccession(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnsemblSpecies(t *testing.T) {
	if got := EnsemblSpecies("Homo sapiens"); got != "homo_sapiens" {
		t.Errorf("EnsemblSpecies() = %s", got)
	}
	if got := EnsemblSpecies("Borrelia hermsii"); got != "borrelia_hermsii" {
		t.Errorf("EnsemblSpecies() = %s", got)
	}
}

func testNCBI(url string, timeout time.Duration) *NCBI {
	conf := config.New()
	conf.Specificity.NCBIURL = url
	conf.Specificity.PollInterval = time.Millisecond
	conf.Specificity.Timeout = timeout
	return NewNCBI(conf, zerolog.Nop())
}

func TestNCBI_Search(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			if err := r.ParseForm(); err != nil || r.Form.Get("CMD") != "Put" || r.Form.Get("QUERY") != "NM_000546.6" {
				http.Error(w, "bad put", http.StatusBadRequest)
				return
			}
			w.Write([]byte("    RID = R1D2\n    RTOE = 12\n"))
		case r.URL.Query().Get("FORMAT_OBJECT") == "SearchInfo":
			if atomic.AddInt32(&polls, 1) < 3 {
				w.Write([]byte("Status=WAITING"))
				return
			}
			w.Write([]byte("Status=READY"))
		case r.URL.Query().Get("FORMAT_TYPE") == "XML" && r.URL.Query().Get("RID") == "R1D2":
			w.Write([]byte(xmlOutput))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	got, err := testNCBI(srv.URL, 5*time.Second).Search(context.Background(), "NM_000546.6")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, wantHits) {
		t.Errorf("Search() = %+v, want %+v", got, wantHits)
	}
	if polls := atomic.LoadInt32(&polls); polls != 3 {
		t.Errorf("polled %d times, want 3", polls)
	}
}

func TestNCBI_Search_unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
	}{
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) { http.Error(w, "down", http.StatusServiceUnavailable) },
			time.Second,
		},
		{
			"no rid",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("nothing here")) },
			time.Second,
		},
		{
			"search failed",
			func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					w.Write([]byte("RID = X"))
					return
				}
				w.Write([]byte("Status=FAILED"))
			},
			time.Second,
		},
		{
			"timeout",
			func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					w.Write([]byte("RID = X"))
					return
				}
				w.Write([]byte("Status=WAITING"))
			},
			50 * time.Millisecond,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var unavailable *SearchUnavailableError
			if _, err := testNCBI(srv.URL, tt.timeout).Search(context.Background(), "ACGT"); !errors.As(err, &unavailable) {
				t.Errorf("Search() error = %v, want SearchUnavailableError", err)
			}
		})
	}
}

func TestBlastn_Search(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.tsv")
	tsv := "# BLASTN\nNM_000546\t100.000\t120\t1e-55\t222.5\t1\t120\t300\t181\tHomo sapiens tumor protein p53 (TP53), transcript variant 1, mRNA\n"
	if err := os.WriteFile(fixture, []byte(tsv), 0o644); err != nil {
		t.Fatal(err)
	}

	// blastn -task blastn -db DB -query IN -out OUT ...; $8 is OUT
	script := "#!/bin/sh\ncp " + fixture + " \"$8\"\n"
	blastn := filepath.Join(dir, "blastn")
	if err := os.WriteFile(blastn, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	// blastdbcmd prints the entry's sequence
	if err := os.WriteFile(filepath.Join(dir, "blastdbcmd"), []byte("#!/bin/sh\necho ACGTACGTACGTACGTACGTACGT\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	conf := config.New()
	conf.Specificity.BlastnPath = blastn
	conf.Specificity.BlastDB = filepath.Join(dir, "db")
	b := NewBlastn(conf, zerolog.Nop())

	for _, query := range []string{"ACGTACGTACGTACGTACGTACGTAAAT", "NM_000546.6"} {
		got, err := b.Search(context.Background(), query)
		if err != nil {
			t.Fatalf("Search(%s) error = %v", query, err)
		}
		if !reflect.DeepEqual(got, wantHits[:1]) {
			t.Errorf("Search(%s) = %+v", query, got)
		}
	}

	conf.Specificity.BlastDB = ""
	var unavailable *SearchUnavailableError
	if _, err := NewBlastn(conf, zerolog.Nop()).Search(context.Background(), "ACGT"); !errors.As(err, &unavailable) {
		t.Errorf("Search() without a db error = %v, want SearchUnavailableError", err)
	}
}
