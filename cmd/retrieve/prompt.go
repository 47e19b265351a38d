package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
)

func newPromptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Read queries from stdin until EOF or exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := opts.openSearcher(ctx, cmd)
			if err != nil {
				return err
			}
			return promptLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), s.search)
		},
	}
}

type searchFunc func(ctx context.Context, query string) (*executor.SearchResult, error)

// promptLoop answers one query per line. Query errors are printed and the
// loop continues.
func promptLoop(ctx context.Context, in io.Reader, out io.Writer, search searchFunc) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, dimStyle.Render("query> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := search(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		renderResult(out, res)
	}
}
