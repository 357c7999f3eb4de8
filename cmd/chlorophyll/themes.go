package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

func (a *app) themesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List the built-in themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := a.cfg.Theme.Preset
			if a.cfg.Theme.File != "" {
				current = ""
			}
			for _, name := range theme.Presets() {
				mark := " "
				if name == current {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, name)
			}
			return nil
		},
	}

	var color string
	show := &cobra.Command{
		Use:   "show [NAME]",
		Short: "Show the style of every token kind in a theme",
		Long: `Show the style of every token kind in a theme.

Without NAME the configured theme is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				th  *theme.Theme
				err error
			)
			if len(args) == 1 {
				th, err = theme.Preset(args[0])
			} else {
				th, err = a.cfg.LoadTheme()
			}
			if err != nil {
				return err
			}
			r, err := newRenderer(cmd.OutOrStdout(), color)
			if err != nil {
				return err
			}

			// Each kind name is rendered in its own style, one per line.
			var (
				b    strings.Builder
				anns []chlorophyll.Annotation
			)
			fmt.Fprintf(&b, "%-12s %s\n", "default", th.Default())
			for _, k := range lex.Kinds() {
				s := th.Resolve(k)
				start := b.Len()
				b.WriteString(k.String())
				anns = append(anns, chlorophyll.Annotation{
					Span:  chlorophyll.Span{Start: start, End: b.Len()},
					Kind:  k,
					Style: s,
				})
				fmt.Fprintf(&b, "%s %s\n", strings.Repeat(" ", max(12-len(k.String()), 0)), s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme %s\n", th.Name())
			return render(cmd.OutOrStdout(), r, b.String(), anns, theme.Style{})
		},
	}
	show.Flags().StringVar(&color, "color", "auto", "when to color output: auto, always or never")
	cmd.AddCommand(show)
	return cmd
}

func (a *app) grammarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grammars [FILE...]",
		Short: "List the built-in grammars, or the grammar picked for each file",
		Long: `List the built-in grammars, or the grammar picked for each file.

Besides the built-in grammars, any lexer chroma knows can be named with
--grammar or in the grammars table of the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range lex.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			for _, path := range args {
				g, err := a.grammarFor(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, g.Name())
			}
			return nil
		},
	}
}
