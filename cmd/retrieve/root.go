package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/logger"
)

type rootOptions struct {
	configPath     string
	csvPath        string
	limit          int
	order          string
	top            int
	stemScoreQuery bool
	debug          bool
}

const rootLongDesc = `Boolean retrieval over a news article corpus with TF-IDF similarity scores.

Every document containing all query terms is returned, in corpus order by
default, each annotated with the cosine similarity between the query and the
document text.

Example:
  retrieve query "stock market"
  retrieve query "election results" --order score --top 5
  retrieve prompt --csv dataset/data.csv --limit 500
  retrieve reload --reason "nightly import"
  retrieve seed --csv dataset/data.csv`

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "retrieve",
		Short:         "Search the article corpus",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if opts.debug {
				level = "debug"
			}
			logger.SetupWriter(cmd.ErrOrStderr(), level, "text")
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file")
	flags.StringVar(&opts.csvPath, "csv", "", "read the corpus from this CSV file instead of the configured source")
	flags.IntVar(&opts.limit, "limit", 0, "number of corpus rows to load (default from config)")
	flags.StringVar(&opts.order, "order", "", "result order: position or score (default from config)")
	flags.IntVar(&opts.top, "top", 0, "maximum results to print, 0 for all candidates")
	flags.BoolVar(&opts.stemScoreQuery, "stem-score-query", false, "score with the stemmed query instead of the raw text")
	flags.BoolVar(&opts.debug, "debug", false, "log at debug level to stderr")

	cmd.AddCommand(
		newQueryCmd(opts),
		newPromptCmd(opts),
		newReloadCmd(opts),
		newSeedCmd(opts),
	)
	return cmd
}

// loadConfig reads the config file and applies command-line overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.csvPath != "" {
		cfg.Corpus.Source = config.SourceCSV
		cfg.Corpus.Path = o.csvPath
	}
	if cmd.Flags().Changed("limit") {
		cfg.Corpus.Limit = o.limit
	}
	if o.order != "" {
		cfg.Search.DefaultOrder = o.order
	}
	if cmd.Flags().Changed("stem-score-query") {
		cfg.Search.StemScoreQuery = o.stemScoreQuery
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searcher is the loaded corpus plus the options every query runs with.
type searcher struct {
	exec *executor.Executor
	opts executor.Options
}

func (o *rootOptions) openSearcher(ctx context.Context, cmd *cobra.Command) (*searcher, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	order, err := executor.ParseOrder(cfg.Search.DefaultOrder)
	if err != nil {
		return nil, err
	}
	src, closeSource, err := source.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	engine := indexer.NewEngine(src, tokenizer.English{}, cfg.Corpus)
	if _, err := engine.Reload(ctx); err != nil {
		return nil, fmt.Errorf("loading corpus from %s: %w", src.Name(), err)
	}
	return &searcher{
		exec: executor.New(engine, engine.Normalizer(), cfg.Search, o.debug),
		opts: executor.Options{Order: order, Limit: o.top},
	}, nil
}

func (s *searcher) search(ctx context.Context, query string) (*executor.SearchResult, error) {
	return s.exec.Execute(ctx, query, s.opts)
}
