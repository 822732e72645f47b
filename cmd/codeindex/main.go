// Command codeindex is the CLI entry point, grounded on the teacher's
// cmd/lci/main.go for its urfave/cli/v2 App/Command layout and
// loadConfigWithOverrides pattern, generalized to the four operations
// this module's spec exposes at the command line: index, search,
// find-symbols, and serve (the MCP stdio server).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codeindex/internal/api"
	"github.com/standardbeagle/codeindex/internal/config"
	"github.com/standardbeagle/codeindex/internal/debug"
	"github.com/standardbeagle/codeindex/internal/mcp"
	"github.com/standardbeagle/codeindex/internal/pipeline"
	"github.com/standardbeagle/codeindex/internal/store"
	"github.com/standardbeagle/codeindex/internal/watcher"
)

const appVersion = "0.1.0"

// loadConfigWithOverrides loads the project's KDL config and applies the
// global --root/--include/--exclude flag overrides, matching the
// teacher's loadConfigWithOverrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", absRoot, err)
	}

	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Index.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Index.Exclude = append(cfg.Index.Exclude, excludes...)
	}
	cfg.Project.Root = absRoot

	return cfg, nil
}

// buildService wires a Store, cache Manager, and Pipeline into a shared
// api.Service, exactly as SPEC_FULL.md §6 requires the CLI and MCP server
// to share one implementation each.
func buildService(cfg *config.Config) *api.Service {
	st := store.New(int64(cfg.Index.MemoryLimitMB) * 1024 * 1024)
	cacheMgr := api.CacheManagerOrNil("")
	pl := pipeline.New(cfg, st, cacheMgr)
	return api.New(st, pl)
}

func main() {
	app := &cli.App{
		Name:    "codeindex",
		Usage:   "multi-language source-code symbol index and query service",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "project root directory to index",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "glob patterns stored as the config's include list (the directory walk does not filter on them)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "exclude files matching glob patterns",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "write debug log output to a temp file",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				if path, err := debug.ToFile(os.TempDir()); err == nil {
					fmt.Fprintf(os.Stderr, "debug log: %s\n", path)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "index the project root (cache-backed)",
				Action: indexCommand,
			},
			{
				Name:   "search",
				Usage:  "full-text search the project root",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10},
					&cli.IntFlag{Name: "max-results", Usage: "alias for --limit; takes priority when both are set"},
					&cli.IntFlag{Name: "context-lines", Value: 2},
				},
				Action: searchCommand,
			},
			{
				Name:   "find-symbols",
				Usage:  "fuzzy symbol search",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type"},
					&cli.IntFlag{Name: "limit", Value: 10},
				},
				Action: findSymbolsCommand,
			},
			{
				Name:   "serve",
				Usage:  "run the MCP server over stdio",
				Action: serveCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	svc := buildService(cfg)

	result, err := svc.IndexCode(cfg.Project.Root)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: codeindex search <query>", 1)
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	svc := buildService(cfg)
	if _, err := svc.IndexCode(cfg.Project.Root); err != nil {
		return err
	}

	result, err := svc.CodeSearch(c.Args().First(), c.Int("limit"), c.Int("max-results"), c.Int("context-lines"))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func findSymbolsCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: codeindex find-symbols <query>", 1)
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	svc := buildService(cfg)
	if _, err := svc.IndexCode(cfg.Project.Root); err != nil {
		return err
	}

	result, err := svc.FindSymbols(c.Args().First(), c.String("type"), c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	debug.SetStdioMode(true)

	svc := buildService(cfg)
	if _, err := svc.IndexCode(cfg.Project.Root); err != nil {
		debug.Logf("serve: initial index failed: %v", err)
	}

	if cfg.Watch.Enabled {
		w, err := watcher.New(
			cfg.Project.Root,
			time.Duration(cfg.Watch.DebounceMs)*time.Millisecond,
			api.IsSourcePath,
			func(path string) error { _, err := svc.Pipeline.UpdateFile(path); return err },
			func(path string) { svc.Pipeline.RemoveFile(path) },
		)
		if err != nil {
			debug.Logf("serve: watcher disabled: %v", err)
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	server := mcp.New(svc)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.Start(ctx)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
