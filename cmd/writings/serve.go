package main

import (
	"github.com/FocuswithJustin/writings/internal/api"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/FocuswithJustin/writings/internal/update"
)

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Host string `help:"Listen host (overrides configuration)"`
	Port int    `short:"P" help:"Listen port (overrides configuration)"`

	NoUpdates bool `name:"no-updates" help:"Disable snapshot update jobs"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	corp, err := g.corpus(ctx, cfg)
	if err != nil {
		return err
	}
	if err := corp.Verify(); err != nil {
		logging.Warn("snapshots differ from expected counts", "error", err.Error())
	}
	eng, closeIndex, err := engine(ctx, cfg, corp)
	if err != nil {
		return err
	}
	defer closeIndex()

	var opts []api.Option
	if !c.NoUpdates {
		opts = append(opts, api.WithFetcher(update.NewHTTPFetcher(nil, "")))
	}
	srv, err := api.New(api.FromConfig(cfg), corp, eng, opts...)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.ListenAndServe(ctx)
}
