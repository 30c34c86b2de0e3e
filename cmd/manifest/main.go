// Command manifest writes the CSV manifest of a selection without the
// interactive browser: either a request file saved from the browser or
// whole groups named on the command line.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"filegrip/internal/catalog"
	"filegrip/internal/config"
	"filegrip/internal/details"
	"filegrip/internal/discovery"
	"filegrip/internal/domain"
	"filegrip/internal/manifest"
	"filegrip/internal/pager"
	"filegrip/internal/selection"
)

type options struct {
	dir       string
	request   string
	out       string
	groups    string
	hierarchy string
	page      bool
	noScan    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "dir", ".", "Directory holding .filegrip.toml")
	flag.StringVar(&opts.request, "request", "", "Request file written by the browser")
	flag.StringVar(&opts.out, "out", "-", "Output file, - for stdout")
	flag.StringVar(&opts.groups, "group", "", "Comma separated group keys to export whole, e.g. /src/go")
	flag.StringVar(&opts.hierarchy, "group-by", "", "Comma separated annotation names overriding the config")
	flag.BoolVar(&opts.page, "page", false, "Show the manifest in the pager instead of writing it")
	flag.BoolVar(&opts.noScan, "no-scan", false, "Use the catalog database as is")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "manifest: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	absDir, err := filepath.Abs(opts.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.dir, err)
	}

	cfg, err := config.NewConfigService(absDir).Load()
	if err != nil {
		return err
	}
	if opts.hierarchy != "" {
		cfg.Catalog.Hierarchy = splitList(opts.hierarchy)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			defer logFile.Close()
			log.SetOutput(logFile)
		}
	}

	cat, err := catalog.Open(cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		return err
	}
	defer cat.Close()
	cat.SetHierarchy(cfg.Catalog.Hierarchy)
	sortMode, err := catalog.ParseSortMode(cfg.Catalog.Sort)
	if err != nil {
		return err
	}
	cat.SetSort(sortMode)

	if !opts.noScan {
		roots := make([]string, 0, len(cfg.Scan.Roots))
		for _, root := range cfg.Scan.Roots {
			if !filepath.IsAbs(root) {
				root = filepath.Join(absDir, root)
			}
			roots = append(roots, root)
		}
		files, err := discovery.NewScanner(nil, cfg.Scan.MaxDepth).Scan(ctx, roots)
		if err != nil {
			return err
		}
		if err := catalog.Fill(ctx, cat, files); err != nil {
			return err
		}
	}

	sel, err := buildSelection(ctx, cat, opts)
	if err != nil {
		return err
	}
	if sel.IsEmpty() {
		return fmt.Errorf("nothing selected")
	}

	exporter := manifest.NewExporter(details.NewFetcher(cat, cfg.Selection.FetchBatchSize, cfg.Selection.FetchConcurrency))

	if opts.page {
		var buf bytes.Buffer
		if _, err := exporter.Export(ctx, sel, &buf); err != nil {
			return err
		}
		return pager.Page(&buf)
	}

	var w io.Writer = os.Stdout
	if opts.out != "-" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	rows, err := exporter.Export(ctx, sel, w)
	if err != nil {
		return err
	}
	log.Printf("Wrote %d rows to %s", rows, opts.out)
	return nil
}

func buildSelection(ctx context.Context, cat catalog.Catalog, opts options) (selection.Selection, error) {
	if opts.request != "" {
		f, err := os.Open(opts.request)
		if err != nil {
			return selection.New(), err
		}
		defer f.Close()
		req, err := manifest.ReadRequest(f)
		if err != nil {
			return selection.New(), err
		}
		return req.Resolve(ctx, cat)
	}

	var keys []domain.GroupKey
	for _, key := range splitList(opts.groups) {
		keys = append(keys, domain.GroupKey(key))
	}
	return manifest.SelectGroups(ctx, cat, keys...)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
