// Package server is the HTTP API over the designer, the gene lookup and the
// specificity searcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
	"github.com/KowalskiBio/Primerool/internal/blast"
	"github.com/KowalskiBio/Primerool/internal/design"
	"github.com/KowalskiBio/Primerool/internal/ensembl"
	"github.com/KowalskiBio/Primerool/internal/gene"
	"github.com/KowalskiBio/Primerool/internal/primer3"
	"github.com/KowalskiBio/Primerool/internal/region"
)

// Designer runs designs.
type Designer interface {
	Design(ctx context.Context, req design.Request) (*design.Result, error)
}

// GeneSearcher lists the transcripts of a gene.
type GeneSearcher interface {
	SearchGene(ctx context.Context, species, symbol string) (*ensembl.Gene, error)
}

// Server routes requests to its collaborators. genes, sequences and
// searcher may be nil, and their routes then answer 503.
type Server struct {
	echo      *echo.Echo
	designer  Designer
	genes     GeneSearcher
	sequences design.Provider
	searcher  design.Searcher
	version   string
	log       zerolog.Logger

	// defaults of the sequence route's query
	species string
	margin  int
}

// New creates a Server with its routes and middleware.
func New(conf *config.Config, designer Designer, genes GeneSearcher, sequences design.Provider, searcher design.Searcher, version string, log zerolog.Logger) *Server {
	s := &Server{
		echo:      echo.New(),
		designer:  designer,
		genes:     genes,
		sequences: sequences,
		searcher:  searcher,
		version:   version,
		log:       log.With().Str("component", "server").Logger(),
		species:   conf.Ensembl.Species,
		margin:    conf.WGA.Margin,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	// outermost first: a panic is recovered inside Logger and still logged
	e.Use(RequestID())
	e.Use(Logger(s.log))
	e.Use(Recovery(s.log))
	e.Use(RequestTimeout(conf.Server.RequestTimeout))

	e.GET("/health", s.health)
	e.POST("/design", s.design)
	e.POST("/analyze", s.analyze)
	e.POST("/blast", s.blast)
	e.GET("/genes/:symbol", s.gene)
	e.GET("/genes/:symbol/sequence", s.sequence)

	return s
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("server starting")
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for those in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     s.version,
		"specificity": s.searcher != nil,
	})
}

func (s *Server) design(c echo.Context) error {
	var body designRequest
	if err := c.Bind(&body); err != nil {
		return err
	}
	req, err := body.toDesign()
	if err != nil {
		return err
	}
	return s.run(c, req)
}

// analyze reports every metric for two oligos, failures included.
func (s *Server) analyze(c echo.Context) error {
	var body analyzeRequest
	if err := c.Bind(&body); err != nil {
		return err
	}
	return s.run(c, design.Request{
		Mode:            region.Manual{Forward: body.Forward, Reverse: body.Reverse},
		IncludeFailures: true,
	})
}

func (s *Server) run(c echo.Context, req design.Request) error {
	res, err := s.designer.Design(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if res.NoCandidates() {
		return c.JSON(http.StatusNotFound, res)
	}
	return c.JSON(http.StatusOK, res)
}

// blastResponse is a search's hits with the best hit's gene and species.
type blastResponse struct {
	Query   string      `json:"query"`
	Gene    string      `json:"gene,omitempty"`
	Species string      `json:"species,omitempty"`
	Hits    []blast.Hit `json:"hits"`
}

func (s *Server) blast(c echo.Context) error {
	if s.searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no specificity searcher configured")
	}
	var body blastRequest
	if err := c.Bind(&body); err != nil {
		return err
	}

	query := strings.TrimSpace(body.Sequence)
	if !blast.IsAccession(query) {
		var err error
		if query, err = gene.Normalize(query); err != nil {
			return &design.ConfigurationError{Field: "sequence", Reason: err.Error()}
		}
		if len(query) < blast.MinQueryLen || len(query) > blast.MaxQueryLen {
			return &design.ConfigurationError{
				Field:  "sequence",
				Reason: "must be an accession or 20 to 50000 bp",
			}
		}
	}

	hits, err := s.searcher.Search(c.Request().Context(), query)
	if err != nil {
		return err
	}
	res := blastResponse{Query: query, Hits: hits}
	if res.Hits == nil {
		res.Hits = []blast.Hit{}
	}
	if len(hits) > 0 {
		res.Gene = hits[0].GeneSymbol
		res.Species = blast.EnsemblSpecies(hits[0].Organism)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) gene(c echo.Context) error {
	if s.genes == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no gene provider configured")
	}
	g, err := s.genes.SearchGene(c.Request().Context(), c.QueryParam("species"), c.Param("symbol"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

// sequence lays out a transcript: its flanks, gene body and spliced
// sequence with the exons, junctions and CDS placed in each.
func (s *Server) sequence(c echo.Context) error {
	if s.sequences == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no gene provider configured")
	}

	q := gene.Query{
		Species:    c.QueryParam("species"),
		Gene:       c.Param("symbol"),
		Transcript: c.QueryParam("transcript"),
		Margin:     s.margin,
	}
	if q.Species == "" {
		q.Species = s.species
	}
	if err := echo.QueryParamsBinder(c).Int("margin", &q.Margin).BindError(); err != nil || q.Margin < 0 {
		return &design.ConfigurationError{Field: "margin", Reason: fmt.Sprintf("%q is not a bp count", c.QueryParam("margin"))}
	}

	a, err := s.sequences.Fetch(c.Request().Context(), q)
	if err != nil {
		return err
	}
	layout, err := a.Layout()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, layout)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	Stage     string `json:"stage,omitempty"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := statusOf(err)
	body.RequestID = requestID(c)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", body.RequestID).Int("status", status).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to write error response")
	}
}

// statusOf maps an error to its HTTP status and response body.
func statusOf(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}

	var stageErr *design.StageError
	if errors.As(err, &stageErr) {
		body.Stage = string(stageErr.Stage)
	}

	var (
		httpErr      *echo.HTTPError
		confErr      *design.ConfigurationError
		insufficient *region.InsufficientSequenceError
		outOfRange   *region.OutOfRangeError
		invalid      *gene.InvalidBaseError
		outside      *gene.OutsideExonError
		notFound     *gene.GeneNotFoundError
		timeout      *primer3.EngineTimeoutError
		engine       *primer3.EngineError
		provider     *gene.ProviderUnavailableError
		search       *blast.SearchUnavailableError
	)
	switch {
	case errors.As(err, &httpErr):
		if msg, ok := httpErr.Message.(string); ok {
			body.Error = msg
		}
		return httpErr.Code, body
	case errors.As(err, &confErr):
		body.Field = confErr.Field
		return http.StatusBadRequest, body
	case errors.As(err, &insufficient),
		errors.As(err, &outOfRange),
		errors.As(err, &invalid),
		errors.As(err, &outside),
		errors.Is(err, region.ErrUnknownJunction),
		errors.Is(err, region.ErrNoJunctions):
		return http.StatusBadRequest, body
	case errors.As(err, &notFound):
		return http.StatusNotFound, body
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	case errors.As(err, &engine), errors.As(err, &provider), errors.As(err, &search):
		return http.StatusBadGateway, body
	}
	return http.StatusInternalServerError, body
}
