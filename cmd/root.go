// Package cmd is for command line interactions with the primerool application
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KowalskiBio/Primerool/config"
	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/design"
	"github.com/KowalskiBio/Primerool/internal/ensembl"
	"github.com/KowalskiBio/Primerool/internal/logger"
	"github.com/KowalskiBio/Primerool/internal/primer3"
	"github.com/KowalskiBio/Primerool/internal/store"
)

// Version of the application
const Version = "0.1.0"

var configFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "primerool",
	Short: `Design PCR primers against Ensembl genes or literal sequences.
Whole gene amplification, junction spanning qRT-PCR and manual checks`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./primerool.yaml or ~/.primerool/primerool.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	RootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	RootCmd.PersistentFlags().String("species", "homo_sapiens", "Ensembl species")
	RootCmd.PersistentFlags().String("searcher", "", "specificity searcher: ncbi, blastn or empty for none")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", RootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("ensembl.species", RootCmd.PersistentFlags().Lookup("species"))
	viper.BindPFlag("specificity.searcher", RootCmd.PersistentFlags().Lookup("searcher"))
}

// app is the wired application a command runs against.
type app struct {
	conf     *config.Config
	log      zerolog.Logger
	genes    *ensembl.Client
	provider design.Provider
	searcher design.Searcher
	designer *design.Designer
}

// setup loads settings and wires the designer with its collaborators. Logs
// go to w so they never mix with results on stdout.
func setup(w io.Writer) (*app, error) {
	conf, err := config.Load(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(conf.Log.Level, conf.Log.Format, w)
	if err != nil {
		return nil, err
	}

	genes := ensembl.New(conf, log)
	var provider design.Provider = genes
	if conf.Cache.Enabled {
		provider = store.New(genes, conf.Cache.Size, log)
	}

	var searcher design.Searcher
	switch conf.Specificity.Searcher {
	case "ncbi":
		searcher = blast.NewNCBI(conf, log)
	case "blastn":
		searcher = blast.NewBlastn(conf, log)
	}

	return &app{
		conf:     conf,
		log:      log,
		genes:    genes,
		provider: provider,
		searcher: searcher,
		designer: design.New(conf, provider, primer3.New(conf, log), searcher, log),
	}, nil
}
