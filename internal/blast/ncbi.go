package blast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KowalskiBio/Primerool/config"
)

var (
	ridRegex  = regexp.MustCompile(`RID = (\S+)`)
	rtoeRegex = regexp.MustCompile(`RTOE = (\d+)`)
)

// NCBI searches through the BLAST URL API: Put, poll SearchInfo, Get XML.
type NCBI struct {
	url      string
	database string
	program  string
	hitList  int
	poll     time.Duration
	timeout  time.Duration
	client   *http.Client
	log      zerolog.Logger
}

// NewNCBI creates an NCBI searcher from the specificity settings.
func NewNCBI(conf *config.Config, log zerolog.Logger) *NCBI {
	return &NCBI{
		url:      conf.Specificity.NCBIURL,
		database: conf.Specificity.Database,
		program:  conf.Specificity.Program,
		hitList:  conf.Specificity.HitList,
		poll:     conf.Specificity.PollInterval,
		timeout:  conf.Specificity.Timeout,
		client:   &http.Client{Timeout: time.Minute},
		log:      log.With().Str("component", "ncbi-blast").Logger(),
	}
}

// Search submits a sequence or accession and waits for its hits, best first.
func (n *NCBI) Search(ctx context.Context, query string) ([]Hit, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	hits, err := n.search(ctx, query)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("no result within %s: %w", n.timeout, ctx.Err())
		}
		return nil, &SearchUnavailableError{Searcher: "ncbi", Err: err}
	}
	return hits, nil
}

func (n *NCBI) search(ctx context.Context, query string) ([]Hit, error) {
	rid, rtoe, err := n.submit(ctx, query)
	if err != nil {
		return nil, err
	}
	n.log.Debug().Str("rid", rid).Int("rtoe", rtoe).Msg("blast submitted")

	if err := n.wait(ctx, rid); err != nil {
		return nil, err
	}

	body, err := n.get(ctx, url.Values{"CMD": {"Get"}, "FORMAT_TYPE": {"XML"}, "RID": {rid}})
	if err != nil {
		return nil, err
	}
	hits, err := parseXML(body)
	if err != nil {
		return nil, err
	}
	return filter(hits), nil
}

// submit Puts the search and returns its request id and estimated seconds
func (n *NCBI) submit(ctx context.Context, query string) (string, int, error) {
	form := url.Values{
		"CMD":          {"Put"},
		"PROGRAM":      {n.program},
		"DATABASE":     {n.database},
		"QUERY":        {query},
		"HITLIST_SIZE": {strconv.Itoa(n.hitList)},
		"FORMAT_TYPE":  {"XML"},
		"MEGABLAST":    {"on"},
		"tool":         {"primerool"},
	}

	// POST to support long sequences
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := n.do(req)
	if err != nil {
		return "", 0, err
	}

	rid := ridRegex.FindSubmatch(body)
	if rid == nil {
		return "", 0, errors.New("failed to parse RID from NCBI BLAST response")
	}
	rtoe := 30
	if m := rtoeRegex.FindSubmatch(body); m != nil {
		rtoe, _ = strconv.Atoi(string(m[1]))
	}
	return string(rid[1]), rtoe, nil
}

// wait polls SearchInfo until the search is ready
func (n *NCBI) wait(ctx context.Context, rid string) error {
	ticker := time.NewTicker(n.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		body, err := n.get(ctx, url.Values{"CMD": {"Get"}, "FORMAT_OBJECT": {"SearchInfo"}, "RID": {rid}})
		if err != nil {
			return err
		}

		switch status := string(body); {
		case strings.Contains(status, "Status=READY"):
			return nil
		case strings.Contains(status, "Status=FAILED"):
			return fmt.Errorf("NCBI BLAST search %s failed", rid)
		case strings.Contains(status, "Status=UNKNOWN"):
			return fmt.Errorf("NCBI BLAST RID %s unknown or expired", rid)
		}
	}
}

func (n *NCBI) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return n.do(req)
}

func (n *NCBI) do(req *http.Request) ([]byte, error) {
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read NCBI BLAST response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NCBI BLAST returned %s", resp.Status)
	}
	return body, nil
}
