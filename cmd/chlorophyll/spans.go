package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbdoderlein/chlorophyll/internal/spanfmt"
)

func (a *app) spansCmd() *cobra.Command {
	var chunk int
	cmd := &cobra.Command{
		Use:   "spans FILE",
		Short: "Print the span definitions for a file",
		Long: `Print the span definitions edwood accepts on a window's spans file.

Offsets count runes. The output is split into writes of at most
--chunk bytes, separated by blank lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := a.cfg.LoadTheme()
			if err != nil {
				return err
			}
			e, err := a.highlight(cmd.Context(), args[0], th)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			text := e.Text()
			region := spanfmt.FromAnnotations(text, 0, len(text), e.Annotations(0, len(text)))
			for i, c := range spanfmt.Encode(region, chunk) {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				fmt.Fprint(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&chunk, "chunk", spanfmt.DefaultChunk, "maximum bytes per write")
	return cmd
}
