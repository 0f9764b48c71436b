// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/capsearch"
	"github.com/poiesic/capsearch/config"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/ingestion"
	"github.com/poiesic/capsearch/resources"
	"github.com/poiesic/capsearch/search"
	"github.com/poiesic/capsearch/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "capsearch",
		Usage: "Soft-cosine search over video captions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"CAPSEARCH_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"CAPSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				EnvVars: []string{"CAPSEARCH_DB"},
			},
			&cli.StringFlag{
				Name:    "embeddings",
				Usage:   "Embedding cache file or directory of chunks",
				EnvVars: []string{"CAPSEARCH_EMBEDDINGS"},
			},
			&cli.StringFlag{
				Name:    "vectors",
				Usage:   "word2vec text vectors (optionally gzipped) used when the cache is missing",
				EnvVars: []string{"CAPSEARCH_VECTORS"},
			},
			&cli.StringFlag{
				Name:    "vocabulary",
				Usage:   "Word list to embed through the embedding service when no vectors are given",
				EnvVars: []string{"CAPSEARCH_VOCABULARY"},
			},
			&cli.StringFlag{
				Name:    "stopwords",
				Usage:   "Stopword list, one word per line (default: built-in English list)",
				EnvVars: []string{"CAPSEARCH_STOPWORDS"},
			},
			&cli.StringFlag{
				Name:    "tokenizer",
				Usage:   "Tokenizer used for new indexes (simple, lemma)",
				EnvVars: []string{"CAPSEARCH_TOKENIZER"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"CAPSEARCH_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"CAPSEARCH_EMBEDDING_MODEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Build the index for a video from a caption JSON file",
				Action:    buildCommand,
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "video",
						Aliases:  []string{"v"},
						Usage:    "Video identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "captions",
						Usage:    `Caption JSON file ({"captions": [...]}), "-" for stdin`,
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Replace an existing index",
					},
					&cli.Float64Flag{
						Name:  "merge",
						Usage: "Merge captions into windows of at least this many seconds (0 disables)",
						Value: -1,
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Rank the caption lines of a video against a query",
				Action:    queryCommand,
				ArgsUsage: "QUERY...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "video",
						Aliases:  []string{"v"},
						Usage:    "Video identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results, 0 for all (default from config)",
						Value:   -1,
					},
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Minimum score a result must exceed, negative to rank every caption (default from config)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address (default from config)",
						EnvVars: []string{"CAPSEARCH_ADDR"},
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored indexes",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete stored indexes",
				ArgsUsage: "VIDEO...",
				Action:    deleteCommand,
			},
			{
				Name:   "warm",
				Usage:  "Load the embedding table, building and caching it if needed",
				Action: warmCommand,
			},
			{
				Name:      "split",
				Usage:     "Split a large resource file into numbered chunks",
				ArgsUsage: "FILE DIR",
				Action:    splitCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "chunk-size",
						Usage: "Chunk size in bytes",
						Value: resources.DefaultChunkSize,
					},
				},
			},
			{
				Name:      "join",
				Usage:     "Join numbered chunks back into one file",
				ArgsUsage: "DIR FILE",
				Action:    joinCommand,
			},
		},
	}
}

// loadConfig reads the configuration file and applies global flag overrides.
func loadConfig(c *cli.Context) (*capsearch.Config, *config.File, error) {
	f, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"db", &f.Database.Path},
		{"embeddings", &f.Resources.Embeddings},
		{"vectors", &f.Resources.Vectors},
		{"vocabulary", &f.Resources.Vocabulary},
		{"stopwords", &f.Resources.Stopwords},
		{"tokenizer", &f.Index.Tokenizer},
		{"embedding-host", &f.Embedding.Host},
		{"embedding-model", &f.Embedding.Model},
	}
	for _, o := range overrides {
		if c.IsSet(o.flag) {
			*o.target = c.String(o.flag)
		}
	}

	cfg, err := capsearch.ConfigFromFile(f)
	if err != nil {
		return nil, nil, err
	}
	return cfg, f, nil
}

func openService(c *cli.Context) (*capsearch.Service, *config.File, error) {
	cfg, f, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	svc, err := capsearch.Open(c.Context, cfg, capsearch.WithProgress(c.App.ErrWriter))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open capsearch: %w", err)
	}
	return svc, f, nil
}

func buildCommand(c *cli.Context) error {
	data, err := readInput(c.App.Reader, c.String("captions"))
	if err != nil {
		return fmt.Errorf("failed to read captions: %w", err)
	}
	captions, err := core.ParseCaptions(data)
	if err != nil {
		return err
	}

	svc, f, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := &ingestion.BuildOptions{
		Rebuild:      c.Bool("rebuild"),
		MergeSeconds: f.Index.MergeSeconds,
	}
	if merge := c.Float64("merge"); merge >= 0 {
		opts.MergeSeconds = merge
	}

	report, err := svc.Build(c.Context, c.String("video"), captions, opts)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if report.Reused {
		fmt.Fprintf(w, "Index for %s already exists (%d documents); use --rebuild to replace it\n", report.Key, report.Documents)
		return nil
	}
	fmt.Fprintf(w, "Built index for %s\n", report.Key)
	fmt.Fprintf(w, "  Documents: %d\n", report.Documents)
	fmt.Fprintf(w, "  Terms: %d\n", report.Terms)
	fmt.Fprintf(w, "  Similarity entries: %d\n", report.NonZero)
	fmt.Fprintf(w, "  Duration: %v\n", report.Elapsed.Round(time.Millisecond))
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query text is required")
	}

	svc, f, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	params := search.Params{Threshold: f.Search.Threshold, Limit: f.Search.Limit}
	if n := c.Int("limit"); n >= 0 {
		params.Limit = n
	}
	if c.IsSet("threshold") {
		params.Threshold = c.Float64("threshold")
	}

	results, err := svc.Query(c.Context, c.String("video"), query, &params)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tTIME\tLINE\tTEXT")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%d\t%s\n", i+1, r.Score, formatSeconds(r.Start), r.DocumentIndex, r.Text)
	}
	return tw.Flush()
}

func serveCommand(c *cli.Context) error {
	svc, f, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, err := server.New(svc,
		server.WithParams(search.Params{Threshold: f.Search.Threshold, Limit: f.Search.Limit}),
		server.WithMergeSeconds(f.Index.MergeSeconds),
	)
	if err != nil {
		return err
	}

	addr := f.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr, f.Server.ReadTimeout, f.Server.WriteTimeout, f.Server.ShutdownTimeout)
}

func listCommand(c *cli.Context) error {
	svc, _, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	infos, err := svc.List(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(infos) == 0 {
		fmt.Fprintln(w, "No indexes")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VIDEO\tDOCUMENTS\tTERMS\tTOKENIZER\tBUILT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			info.Key, info.Documents, info.Terms, info.Tokenizer, info.BuiltAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one video identifier is required")
	}

	svc, _, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, key := range c.Args().Slice() {
		if err := svc.Delete(c.Context, key); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Deleted %s\n", key)
	}
	return nil
}

func warmCommand(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	loader, err := capsearch.NewResourceLoader(cfg,
		capsearch.WithProgress(c.App.ErrWriter),
		capsearch.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer loader.Close()

	start := time.Now()
	res, err := loader.Load(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Embedding table ready\n")
	fmt.Fprintf(w, "  Terms: %d\n", res.Table.Len())
	fmt.Fprintf(w, "  Dimension: %d\n", res.Table.Dim())
	fmt.Fprintf(w, "  Stopwords: %d\n", len(res.Stopwords))
	fmt.Fprintf(w, "  Duration: %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func splitCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: split FILE DIR")
	}
	n, err := resources.Split(c.Args().Get(0), c.Args().Get(1), c.Int64("chunk-size"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d chunks to %s\n", n, c.Args().Get(1))
	return nil
}

func joinCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: join DIR FILE")
	}
	n, err := resources.JoinFile(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d bytes to %s\n", n, c.Args().Get(1))
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func formatSeconds(s float64) string {
	d := time.Duration(s * float64(time.Second))
	return fmt.Sprintf("%02d:%02d.%d", int(d.Minutes()), int(d.Seconds())%60, (d.Milliseconds()%1000)/100)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
