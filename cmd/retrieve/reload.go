package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
)

func newReloadCmd(opts *rootOptions) *cobra.Command {
	var reason, requestedBy string
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask running search services to rebuild their corpus snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Kafka.Enabled {
				return fmt.Errorf("kafka is disabled in the config; reload the service with POST /api/v1/corpus/reload instead")
			}
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CorpusReload)
			defer producer.Close()

			reloadCmd, err := publisher.New(producer).RequestReload(cmd.Context(), reason, requestedBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				headerStyle.Render("reload requested"),
				dimStyle.Render(fmt.Sprintf("topic %s at %s", cfg.Kafka.Topics.CorpusReload, reloadCmd.RequestedAt.Format(time.RFC3339))),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual", "free-text reason logged by the searchers")
	cmd.Flags().StringVar(&requestedBy, "by", os.Getenv("USER"), "who requested the reload")
	return cmd
}
