package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/postgres"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Copy the CSV corpus into the Postgres articles table",
		Long: `Replace the configured Postgres table with the rows of the CSV corpus.

The CSV path comes from --csv or corpus.path; --limit bounds the number of
rows copied, 0 copies every row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			path := cfg.Corpus.Path
			if opts.csvPath != "" {
				path = opts.csvPath
			}
			limit := 0
			if cmd.Flags().Changed("limit") {
				limit = opts.limit
			}
			records, err := (&source.CSVSource{Path: path}).Records(ctx, limit)
			if err != nil {
				return err
			}

			client, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := publisher.NewSeeder(client, cfg.Corpus.Table).Seed(ctx, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				headerStyle.Render(fmt.Sprintf("seeded %d articles", n)),
				dimStyle.Render(fmt.Sprintf("from %s into %s", path, cfg.Corpus.Table)),
			)
			return nil
		},
	}
}
