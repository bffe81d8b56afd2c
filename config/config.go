// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the environment variable of every setting,
// eg PRIMEROOL_ENGINE_TIMEOUT for engine.timeout.
const EnvPrefix = "PRIMEROOL"

// PrimerConfig is the primer3 size, Tm and GC constraints
type PrimerConfig struct {
	MinSize int `mapstructure:"min-size"`
	OptSize int `mapstructure:"opt-size"`
	MaxSize int `mapstructure:"max-size"`

	MinTm float64 `mapstructure:"min-tm"`
	OptTm float64 `mapstructure:"opt-tm"`
	MaxTm float64 `mapstructure:"max-tm"`

	// GC percent bounds
	MinGC float64 `mapstructure:"min-gc"`
	MaxGC float64 `mapstructure:"max-gc"`

	// the number of primers (or pairs) primer3 returns per search
	NumReturn int `mapstructure:"num-return"`

	// the longest mononucleotide run allowed
	MaxPolyX int `mapstructure:"max-poly-x"`
}

// ThermoConfig is the reaction chemistry used for all thermodynamic calcs
type ThermoConfig struct {
	// monovalent cation concentration, mM
	Monovalent float64 `mapstructure:"mv-conc"`

	// divalent cation concentration, mM
	Divalent float64 `mapstructure:"dv-conc"`

	// dNTP concentration, mM
	DNTP float64 `mapstructure:"dntp-conc"`

	// oligo concentration, nM
	DNA float64 `mapstructure:"dna-conc"`

	// annealing temperature that structure stabilities are computed at, C
	Temp float64 `mapstructure:"temp"`
}

// QCConfig holds the hard quality-control thresholds
type QCConfig struct {
	// reject primers whose hairpin melts above this, C
	MaxHairpinTm float64 `mapstructure:"max-hairpin-tm"`

	// reject primers whose self-dimer melts above this, C
	MaxSelfDimerTm float64 `mapstructure:"max-self-dimer-tm"`

	// reject pairs whose heterodimer melts above this, C
	MaxHeterodimerTm float64 `mapstructure:"max-heterodimer-tm"`

	// reject primers or pairs with an antiparallel complementary run this long
	MaxComplementarity int `mapstructure:"max-complementarity"`
}

// RankConfig weights the composite score. Lower scores rank first
type RankConfig struct {
	TmWeight      float64 `mapstructure:"tm-weight"`
	GCWeight      float64 `mapstructure:"gc-weight"`
	ProductWeight float64 `mapstructure:"product-weight"`

	// the number of pairs returned
	MaxResults int `mapstructure:"max-results"`
}

// WGAConfig is for whole gene amplification designs
type WGAConfig struct {
	// default flank length, and its bounds
	FlankLength int `mapstructure:"flank-length"`
	MinFlank    int `mapstructure:"min-flank"`
	MaxFlank    int `mapstructure:"max-flank"`

	// "strict" or "clamp"
	FlankPolicy string `mapstructure:"flank-policy"`

	// relaxed Tm and GC bounds for genomic flanks
	MinTm float64 `mapstructure:"min-tm"`
	MaxTm float64 `mapstructure:"max-tm"`
	MinGC float64 `mapstructure:"min-gc"`
	MaxGC float64 `mapstructure:"max-gc"`

	// bp fetched beyond the gene body on each side
	Margin int `mapstructure:"margin"`
}

// InternalConfig is for exon-junction (qRT-PCR) designs
type InternalConfig struct {
	// spliced bp searched 5' and 3' of the junction
	LeftPad  int `mapstructure:"left-pad"`
	RightPad int `mapstructure:"right-pad"`

	// the product size range
	ProductMin int `mapstructure:"product-min"`
	ProductMax int `mapstructure:"product-max"`

	// minimum bp of a junction-crossing primer on each side of the junction
	JunctionOverlap int `mapstructure:"junction-overlap"`
}

// TargetConfig is for pairs designed around a target in a caller template
type TargetConfig struct {
	// the product size range
	ProductMin int `mapstructure:"product-min"`
	ProductMax int `mapstructure:"product-max"`
}

// EngineConfig is the primer3 installation
type EngineConfig struct {
	// path to primer3_core
	Primer3Path string `mapstructure:"primer3-path"`

	// path to ntthal
	NtthalPath string `mapstructure:"ntthal-path"`

	// primer3 thermodynamic parameters folder (with trailing separator)
	ConfigDir string `mapstructure:"config-dir"`

	// how long a single engine call may run
	Timeout time.Duration `mapstructure:"timeout"`
}

// SpecificityConfig is the off-target search
type SpecificityConfig struct {
	// "", "ncbi" or "blastn"
	Searcher string `mapstructure:"searcher"`

	// hits at or above this identity percent count
	MinIdentity float64 `mapstructure:"min-identity"`

	// the number of pairs searched per request, in preliminary rank order
	MaxQueries int `mapstructure:"max-queries"`

	Timeout time.Duration `mapstructure:"timeout"`

	// NCBI URL API
	NCBIURL      string        `mapstructure:"ncbi-url"`
	Database     string        `mapstructure:"database"`
	Program      string        `mapstructure:"program"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	HitList      int           `mapstructure:"hit-list"`

	// local blastn
	BlastnPath string `mapstructure:"blastn-path"`
	BlastDB    string `mapstructure:"blast-db"`
}

// EnsemblConfig is the Ensembl REST provider
type EnsemblConfig struct {
	URL       string        `mapstructure:"url"`
	Species   string        `mapstructure:"species"`
	RateLimit float64       `mapstructure:"rate-limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
}

// CacheConfig is the in-process sequence store
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// the most sequences kept, 0 is unbounded
	Size int `mapstructure:"size"`
}

// ServerConfig is the HTTP service
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

// LogConfig is for the zerolog logger
type LogConfig struct {
	// debug, info, warn or error
	Level string `mapstructure:"level"`

	// "json" or "console"
	Format string `mapstructure:"format"`
}

// Config is the root-level settings struct and is a mix
// of settings available in primerool.yaml, the environment and those
// available from the command line
type Config struct {
	Primer      PrimerConfig      `mapstructure:"primer"`
	Thermo      ThermoConfig      `mapstructure:"thermo"`
	QC          QCConfig          `mapstructure:"qc"`
	Rank        RankConfig        `mapstructure:"rank"`
	WGA         WGAConfig         `mapstructure:"wga"`
	Internal    InternalConfig    `mapstructure:"internal"`
	Target      TargetConfig      `mapstructure:"target"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Specificity SpecificityConfig `mapstructure:"specificity"`
	Ensembl     EnsemblConfig     `mapstructure:"ensembl"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

// defaults is every setting's default, by viper key
var defaults = map[string]interface{}{
	"primer.min-size":   18,
	"primer.opt-size":   20,
	"primer.max-size":   25,
	"primer.min-tm":     57.0,
	"primer.opt-tm":     62.0,
	"primer.max-tm":     67.0,
	"primer.min-gc":     40.0,
	"primer.max-gc":     60.0,
	"primer.num-return": 5,
	"primer.max-poly-x": 5,

	"thermo.mv-conc":   50.0,
	"thermo.dv-conc":   1.5,
	"thermo.dntp-conc": 0.2,
	"thermo.dna-conc":  50.0,
	"thermo.temp":      37.0,

	"qc.max-hairpin-tm":      47.0,
	"qc.max-self-dimer-tm":   47.0,
	"qc.max-heterodimer-tm":  47.0,
	"qc.max-complementarity": 8,

	"rank.tm-weight":      1.0,
	"rank.gc-weight":      0.1,
	"rank.product-weight": 0.01,
	"rank.max-results":    5,

	"wga.flank-length": 500,
	"wga.min-flank":    200,
	"wga.max-flank":    2000,
	"wga.flank-policy": "strict",
	"wga.min-tm":       52.0,
	"wga.max-tm":       68.0,
	"wga.min-gc":       20.0,
	"wga.max-gc":       80.0,
	"wga.margin":       2000,

	"internal.left-pad":         250,
	"internal.right-pad":        400,
	"internal.product-min":      80,
	"internal.product-max":      220,
	"internal.junction-overlap": 6,

	"target.product-min": 100,
	"target.product-max": 1000,

	"engine.primer3-path": "primer3_core",
	"engine.ntthal-path":  "ntthal",
	"engine.config-dir":   "",
	"engine.timeout":      30 * time.Second,

	"specificity.searcher":      "",
	"specificity.min-identity":  90.0,
	"specificity.max-queries":   3,
	"specificity.timeout":       3 * time.Minute,
	"specificity.ncbi-url":      "https://blast.ncbi.nlm.nih.gov/Blast.cgi",
	"specificity.database":      "core_nt",
	"specificity.program":       "blastn",
	"specificity.poll-interval": 10 * time.Second,
	"specificity.hit-list":      10,
	"specificity.blastn-path":   "blastn",
	"specificity.blast-db":      "",

	"ensembl.url":        "https://rest.ensembl.org",
	"ensembl.species":    "homo_sapiens",
	"ensembl.rate-limit": 14.0,
	"ensembl.timeout":    30 * time.Second,
	"ensembl.retries":    3,

	"cache.enabled": true,
	"cache.size":    256,

	"server.addr":             ":8080",
	"server.request-timeout":  5 * time.Minute,
	"server.shutdown-timeout": 10 * time.Second,

	"log.level":  "info",
	"log.format": "console",
}

// SetDefaults applies the default of every setting to v
func SetDefaults(v *viper.Viper) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

// New returns a Config of defaults only
func New() *Config {
	v := viper.New()
	SetDefaults(v)

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		panic(fmt.Sprintf("failed to decode default settings: %v", err))
	}
	return c
}

// Load reads settings into v (defaults, then an optional primerool.yaml,
// then PRIMEROOL_* environment variables, then any flags already bound to v)
// and unmarshals them. An explicit configFile must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("primerool")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".primerool"))
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks settings that can't be fixed per request
func (c *Config) Validate() error {
	switch c.Specificity.Searcher {
	case "", "ncbi", "blastn":
	default:
		return fmt.Errorf("unknown specificity searcher %q, want ncbi or blastn", c.Specificity.Searcher)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q, want json or console", c.Log.Format)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine timeout must be positive, got %s", c.Engine.Timeout)
	}
	if c.WGA.MinFlank > c.WGA.MaxFlank {
		return fmt.Errorf("wga min-flank %d is greater than max-flank %d", c.WGA.MinFlank, c.WGA.MaxFlank)
	}
	return nil
}
