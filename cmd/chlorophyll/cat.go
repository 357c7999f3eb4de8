package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jbdoderlein/chlorophyll"
)

// highlighted is one file's text with its annotations.
type highlighted struct {
	text string
	anns []chlorophyll.Annotation
}

func (a *app) catCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "cat FILE...",
		Short: "Print files with syntax highlighting",
		Long: `Print files with syntax highlighting.

Files are highlighted in parallel and printed in order.

Examples:
  chlorophyll cat main.go
  chlorophyll cat --theme monokai --color always script.py | less -R`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRenderer(cmd.OutOrStdout(), color)
			if err != nil {
				return err
			}
			th, err := a.cfg.LoadTheme()
			if err != nil {
				return err
			}

			files := make([]highlighted, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				g.Go(func() error {
					e, err := a.highlight(ctx, path, th)
					if err != nil {
						return err
					}
					defer func() { _ = e.Close() }()
					text := e.Text()
					files[i] = highlighted{text: text, anns: e.Annotations(0, len(text))}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, f := range files {
				if err := render(cmd.OutOrStdout(), r, f.text, f.anns, th.Default()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "auto", "when to color output: auto, always or never")
	return cmd
}
