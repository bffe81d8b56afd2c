package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestNew(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"primer min size", c.Primer.MinSize, 18},
		{"primer opt tm", c.Primer.OptTm, 62.0},
		{"primer max gc", c.Primer.MaxGC, 60.0},
		{"thermo divalent", c.Thermo.Divalent, 1.5},
		{"wga flank policy", c.WGA.FlankPolicy, "strict"},
		{"wga relaxed min gc", c.WGA.MinGC, 20.0},
		{"internal right pad", c.Internal.RightPad, 400},
		{"internal product max", c.Internal.ProductMax, 220},
		{"target product range", [2]int{c.Target.ProductMin, c.Target.ProductMax}, [2]int{100, 1000}},
		{"engine timeout", c.Engine.Timeout, 30 * time.Second},
		{"ensembl rate limit", c.Ensembl.RateLimit, 14.0},
		{"rank max results", c.Rank.MaxResults, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "primerool.yaml")
	yaml := `
primer:
  opt-tm: 60
wga:
  flank-policy: clamp
engine:
  timeout: 5s
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PRIMEROOL_RANK_MAX_RESULTS", "9")
	t.Setenv("PRIMEROOL_QC_MAX_HAIRPIN_TM", "40.5")

	c, err := Load(viper.New(), file)
	if err != nil {
		t.Fatal(err)
	}

	if c.Primer.OptTm != 60 {
		t.Errorf("primer.opt-tm = %v, want 60 from file", c.Primer.OptTm)
	}
	if c.Primer.MinTm != 57 {
		t.Errorf("primer.min-tm = %v, want default 57", c.Primer.MinTm)
	}
	if c.WGA.FlankPolicy != "clamp" {
		t.Errorf("wga.flank-policy = %v, want clamp", c.WGA.FlankPolicy)
	}
	if c.Engine.Timeout != 5*time.Second {
		t.Errorf("engine.timeout = %v, want 5s", c.Engine.Timeout)
	}
	if c.Rank.MaxResults != 9 {
		t.Errorf("rank.max-results = %v, want 9 from env", c.Rank.MaxResults)
	}
	if c.QC.MaxHairpinTm != 40.5 {
		t.Errorf("qc.max-hairpin-tm = %v, want 40.5 from env", c.QC.MaxHairpinTm)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"ncbi searcher", func(c *Config) { c.Specificity.Searcher = "ncbi" }, false},
		{"unknown searcher", func(c *Config) { c.Specificity.Searcher = "diamond" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"zero engine timeout", func(c *Config) { c.Engine.Timeout = 0 }, true},
		{"flank bounds reversed", func(c *Config) { c.WGA.MinFlank = 3000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.edit(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
