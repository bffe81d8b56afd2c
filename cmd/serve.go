package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KowalskiBio/Primerool/internal/server"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:                        "serve",
	Short:                      "Serve the design API over HTTP",
	Args:                       cobra.NoArgs,
	RunE:                       runServe,
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"server"},
	Long: `
Serve the design API:

  POST /design                   design primers (mode wga, internal, sequence,
                                 manual, target or single)
  POST /analyze                  check a forward and reverse primer
  POST /blast                    identify a sequence or accession
  GET  /genes/:symbol            list a gene's transcripts
  GET  /genes/:symbol/sequence   a transcript's flanks, gene, spliced sequence
                                 and features
  GET  /health                   liveness`,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", ":8080", "address to listen on")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}

	srv := server.New(a.conf, a.designer, a.genes, a.provider, a.searcher, Version, a.log)

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(a.conf.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return err
	}

	a.log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), a.conf.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("server stopped")
	return nil
}
