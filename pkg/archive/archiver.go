package archive

import (
	"context"
	"net/http"
	"path/filepath"

	"wparchive/pkg/config"
	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
	"wparchive/pkg/wordpress"
)

// Archiver drives every operation against one WordPress site: reachability
// checks, full data dumps, and route analysis. The archive lands in a
// directory named after the domain.
type Archiver struct {
	domain  string
	baseURL string
	client  *wordpress.Client
	known   *wordpress.KnownRoutes
	cfg     *config.Config
	log     logger.Logger
}

// New validates the domain and assembles an archiver. No network traffic
// happens until one of the session methods runs.
func New(domain string, cfg *config.Config, log logger.Logger) (*Archiver, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	normalized, err := ValidateDomain(domain)
	if err != nil {
		return nil, err
	}

	scheme := "https"
	if !cfg.HTTP.ForceHTTPS {
		scheme = "http"
	}

	client := wordpress.NewClient(wordpress.ClientOptions{
		Timeout:   cfg.HTTP.Timeout,
		VerifyTLS: cfg.HTTP.VerifyTLS,
		UserAgent: cfg.HTTP.UserAgent,
	}, log)

	known, err := loadKnownRoutes(cfg.Dump.KnownRoutes)
	if err != nil {
		return nil, err
	}

	return &Archiver{
		domain:  normalized,
		baseURL: scheme + "://" + normalized,
		client:  client,
		known:   known,
		cfg:     cfg,
		log:     log,
	}, nil
}

func loadKnownRoutes(path string) (*wordpress.KnownRoutes, error) {
	if path != "" {
		return wordpress.LoadKnownRoutes(path)
	}
	return wordpress.DefaultKnownRoutes()
}

// Domain returns the normalized domain the archiver targets.
func (a *Archiver) Domain() string {
	return a.domain
}

// ArchiveDir is where this site's archive lives: a directory named after
// the domain under the configured output directory.
func (a *Archiver) ArchiveDir() string {
	return filepath.Join(a.cfg.Output, a.domain)
}

// RootURL returns the REST discovery document URL.
func (a *Archiver) RootURL() string {
	return a.baseURL + "/wp-json/"
}

// fetchRoot retrieves and parses the discovery document, returning the raw
// body alongside so dump sessions can persist it verbatim.
func (a *Archiver) fetchRoot(ctx context.Context) (*wordpress.RootDocument, []byte, error) {
	url := a.RootURL()

	resp, err := a.client.Get(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, errs.NewAPI(url, resp.StatusCode, "REST API root is not reachable")
	}

	root, err := wordpress.ParseRoot(resp.Body)
	if err != nil {
		return nil, nil, errs.NewParsing(url, err.Error())
	}

	return root, resp.Body, nil
}

// PingResult reports what a reachability check found.
type PingResult struct {
	URL    string
	Routes int
	Names  []string
}

// Ping confirms the site exposes a parseable REST API root.
func (a *Archiver) Ping(ctx context.Context) (*PingResult, error) {
	root, _, err := a.fetchRoot(ctx)
	if err != nil {
		return nil, err
	}

	return &PingResult{
		URL:    a.RootURL(),
		Routes: len(root.Order),
		Names:  root.Order,
	}, nil
}
