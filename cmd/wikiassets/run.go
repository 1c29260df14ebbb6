package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/eznix86/mediawiki-assetsource/assetsource"
	"github.com/eznix86/mediawiki-assetsource/config"
	"github.com/eznix86/mediawiki-assetsource/internal/importer"
	"github.com/eznix86/mediawiki-assetsource/internal/logging"
	"github.com/eznix86/mediawiki-assetsource/internal/telemetry"
	"github.com/eznix86/mediawiki-assetsource/storage/sqlite"
)

// app holds what every subcommand needs.
type app struct {
	args   args
	cfg    *config.Config
	logger *zap.Logger
	store  *sqlite.Store
	out    *printer
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "wikiassets"}, &a)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	switch err := p.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelpForSubcommand(stdout, p.SubcommandNames()...)
		return 0
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, a.Version())
		return 0
	case err != nil:
		p.WriteUsageForSubcommand(stderr, p.SubcommandNames()...)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if p.Subcommand() == nil {
		p.WriteHelp(stderr)
		return 2
	}

	application, err := newApp(ctx, a, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer application.close()

	shutdown, err := telemetry.Setup(ctx, "wikiassets", version)
	if err != nil {
		application.logger.Warn("Tracing disabled", zap.Error(err))
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	if err := application.dispatch(ctx); err != nil {
		application.logger.Debug("Command failed", zap.Error(err))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(_ context.Context, a args, stdout io.Writer) (*app, error) {
	cfg, err := config.Load(a.configPath())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, a.Verbose)
	if err != nil {
		return nil, err
	}
	return &app{
		args:   a,
		cfg:    cfg,
		logger: logger,
		out:    newPrinter(stdout, a.JSON || !isTerminal(stdout)),
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Closing store failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) dispatch(ctx context.Context) error {
	switch {
	case a.args.Sources != nil:
		return a.sources()
	case a.args.List != nil:
		return a.list(ctx, "", a.args.List.Offset, a.args.List.Limit)
	case a.args.Search != nil:
		return a.list(ctx, a.args.Search.Term, a.args.Search.Offset, a.args.Search.Limit)
	case a.args.Show != nil:
		return a.show(ctx, a.args.Show.Identifier)
	case a.args.Count != nil:
		return a.count(ctx, a.args.Count.Term)
	case a.args.Import != nil:
		return a.importAssets(ctx, a.args.Import)
	}
	return fmt.Errorf("no command given")
}

// openStore opens the SQLite store on first use. It backs both the query
// result cache and the imported asset records.
func (a *app) openStore() (*sqlite.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if dir := filepath.Dir(a.cfg.CacheDatabase); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	store, err := sqlite.Open(a.cfg.CacheDatabase)
	if err != nil {
		return nil, err
	}
	store.QueryResultTTL = a.cfg.QueryCacheTTL
	a.store = store
	return store, nil
}

func (a *app) assetSource() (*assetsource.AssetSource, error) {
	id, err := a.cfg.ResolveSource(a.args.Source)
	if err != nil {
		return nil, err
	}
	options, err := a.cfg.Options(id)
	if err != nil {
		return nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return assetsource.New(id, options,
		assetsource.WithLogger(logging.NewAdapter(a.logger)),
		assetsource.WithCache(store),
		assetsource.WithImportedAssets(store),
	)
}

func (a *app) sources() error {
	rows := make([]sourceView, 0, len(a.cfg.AssetSources))
	for _, id := range a.cfg.SourceIdentifiers() {
		options, err := a.cfg.Options(id)
		if err != nil {
			return err
		}
		src, err := assetsource.New(id, options)
		if err != nil {
			return err
		}
		opts := src.Options()
		rows = append(rows, sourceView{
			Identifier: id,
			Label:      src.Label(),
			Variant:    opts.Variant,
			Domain:     opts.Domain,
			Strategy:   opts.SearchStrategy,
			Default:    id == a.cfg.DefaultSource,
		})
	}
	return a.out.sources(rows)
}

func (a *app) list(ctx context.Context, term string, offset, limit int) error {
	src, err := a.assetSource()
	if err != nil {
		return err
	}
	q := src.AssetProxyRepository().Query()
	q.SetOffset(offset)
	q.SetLimit(limit)
	q.SetSearchTerm(term)

	result, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	views := make([]assetView, 0, result.Len())
	for _, proxy := range result.All() {
		views = append(views, newAssetView(proxy, false))
	}
	return a.out.assets(views, offset, result.Count())
}

func (a *app) show(ctx context.Context, identifier string) error {
	src, err := a.assetSource()
	if err != nil {
		return err
	}
	proxy, err := src.AssetProxyRepository().GetAssetProxy(ctx, identifier)
	if err != nil {
		return err
	}
	return a.out.asset(newAssetView(proxy, true))
}

func (a *app) count(ctx context.Context, term string) error {
	src, err := a.assetSource()
	if err != nil {
		return err
	}
	var n int
	if term == "" {
		n, err = src.AssetProxyRepository().CountAll(ctx)
	} else {
		q := src.AssetProxyRepository().Query()
		q.SetSearchTerm(term)
		n, err = q.Count(ctx)
	}
	if err != nil {
		return err
	}
	return a.out.count(src.Identifier(), term, n)
}

func (a *app) importAssets(ctx context.Context, cmd *importCmd) error {
	src, err := a.assetSource()
	if err != nil {
		return err
	}
	dir := cmd.Directory
	if dir == "" {
		dir = a.cfg.ImportDirectory
	}
	im := importer.New(dir, a.store, logging.NewAdapter(a.logger))

	var (
		views  []importView
		failed int
	)
	for _, id := range cmd.Identifiers {
		result, err := im.Import(ctx, src, id)
		if err != nil {
			failed++
			views = append(views, importView{Identifier: id, Error: err.Error()})
			continue
		}
		views = append(views, importView{
			Identifier:      id,
			LocalIdentifier: result.Asset.LocalAssetIdentifier,
			Path:            result.Path,
			Bytes:           result.Bytes,
			MediaType:       result.MediaType,
		})
	}
	if err := a.out.imports(views); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(cmd.Identifiers))
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
