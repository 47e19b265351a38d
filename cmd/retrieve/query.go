package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>...",
		Short: "Run one query and print the matching documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSearcher(ctx, cmd)
			if err != nil {
				return err
			}
			res, err := s.search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}
