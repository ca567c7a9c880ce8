// Command writings extracts, verifies, searches and serves the paragraphs of
// the Bahá’í works held as HTML snapshots.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/writings/core/cache"
	"github.com/FocuswithJustin/writings/core/corpus"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/index"
	"github.com/FocuswithJustin/writings/core/search"
	"github.com/FocuswithJustin/writings/core/visitors"
	"github.com/FocuswithJustin/writings/internal/config"
	"github.com/FocuswithJustin/writings/internal/logging"
)

const version = "0.1.0"

// Output and work list, replaced in tests.
var (
	stdout    io.Writer = os.Stdout
	loadWorks           = visitors.Works
)

// Globals holds the flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML configuration file" type:"path"`
	EnvFile   string `name:"env-file" help:"Optional .env file loaded before the environment is read" default:".env" type:"path"`
	Snapshots string `name:"snapshots" short:"s" help:"Snapshot directory (overrides configuration)" type:"path"`
	Verbose   bool   `short:"v" help:"Log debug output"`

	loaded *corpus.Cache `kong:"-"`
}

// CLI defines the command-line interface for writings.
var CLI struct {
	Globals

	Parse   ParseCmd   `cmd:"" help:"Extract one snapshot and print its records as JSON"`
	Verify  VerifyCmd  `cmd:"" help:"Check every work against its expected record count"`
	Update  UpdateCmd  `cmd:"" help:"Fetch snapshots, compare and write the ones that changed"`
	Serve   ServeCmd   `cmd:"" help:"Start the REST API server"`
	Search  SearchCmd  `cmd:"" help:"Search the corpus by keyword"`
	Roman   RomanGroup `cmd:"" help:"Convert between integers and Roman numerals"`
	Ref     RefCmd     `cmd:"" help:"Resolve a reference such as gleanings.XI.3"`
	Export  ExportCmd  `cmd:"" help:"Export the corpus as JSON, XLSX or XML"`
	Index   IndexCmd   `cmd:"" help:"Build the full-text index database"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// load reads the configuration and sets up logging.
func (g *Globals) load() (*config.Config, error) {
	if g.EnvFile != "" {
		if err := config.LoadDotEnv(g.EnvFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Snapshots != "" {
		cfg.Corpus.SnapshotDir = g.Snapshots
	}
	if g.Verbose {
		cfg.Log.Level = "debug"
	}
	cfg.InitLogging()
	return cfg, nil
}

// corpus loads every work from the configured snapshot directory. The parse
// runs once per process; later calls share the result.
func (g *Globals) corpus(ctx context.Context, cfg *config.Config) (*corpus.Corpus, error) {
	if g.loaded == nil {
		src := corpus.DirSource{Dir: cfg.Corpus.SnapshotDir}
		g.loaded = corpus.NewCache(src, loadWorks(), corpus.WithRecordCache(cache.NewDefaultRecordCache()))
	}
	return g.loaded.Get(ctx)
}

// engine builds a search engine, using the full-text index when the
// configured database exists. The returned function releases the index.
func engine(ctx context.Context, cfg *config.Config, c *corpus.Corpus) (*search.Engine, func(), error) {
	opts := []search.Option{
		search.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		search.WithCache(cfg.Search.CacheTTL, cfg.Search.CacheSize),
	}
	closeIndex := func() {}
	if path := cfg.Corpus.IndexPath; path != "" {
		if _, err := os.Stat(path); err == nil {
			store, err := index.OpenReadOnly(ctx, path)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, search.WithIndex(store))
			closeIndex = func() { store.Close() }
		} else {
			logging.Warn("index not found, searching without it", "path", path)
		}
	}
	return search.New(c, opts...), closeIndex, nil
}

func lookupWork(name string) (visitors.Work, error) {
	for _, w := range loadWorks() {
		if w.Name == name || w.Slug == name {
			return w, nil
		}
	}
	return visitors.Work{}, errors.NewNotFound("work", name)
}

func selectWorks(names []string) ([]visitors.Work, error) {
	if len(names) == 0 {
		return loadWorks(), nil
	}
	works := make([]visitors.Work, 0, len(names))
	for _, name := range names {
		w, err := lookupWork(name)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "writings version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("writings"),
		kong.Description("Extract and serve paragraphs of the Bahá’í writings"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
