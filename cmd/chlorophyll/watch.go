package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/internal/spanfmt"
	"github.com/jbdoderlein/chlorophyll/internal/textdiff"
	"github.com/jbdoderlein/chlorophyll/internal/watcher"
	"github.com/jbdoderlein/chlorophyll/theme"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Follow a file and print the spans each change repaints",
		Long: `Follow a file and print the spans each change repaints.

Every time the file is written, the difference to the previous contents
is fed to the engine as edits. Each change set the engine paints is
printed as a "# seq N" header followed by span definitions covering the
bytes it changed. A configured theme file is watched too and reloaded
when it changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) watch(ctx context.Context, out io.Writer, path string) error {
	th, err := a.cfg.LoadTheme()
	if err != nil {
		return err
	}
	g, err := a.grammarFor(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-named file
	if err != nil {
		return err
	}

	var e *chlorophyll.Engine
	e = a.newEngine(g, th, func(d chlorophyll.Delta) {
		if err := writeDelta(out, e, d); err != nil {
			log.ErrorErr(log.CatWatch, "writing delta failed", err)
		}
	})
	defer func() { _ = e.Close() }()
	if err := e.SetText(string(data)); err != nil {
		return err
	}

	file, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	paths := []string{file}
	var themeFile string
	if a.cfg.Theme.File != "" {
		if themeFile, err = filepath.Abs(a.cfg.Theme.File); err != nil {
			return err
		}
		paths = append(paths, themeFile)
	}

	w, err := watcher.New(watcher.DefaultConfig(paths...))
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-changes:
			if !ok {
				return nil
			}
			for _, p := range batch {
				switch p {
				case file:
					if err := syncFile(e, file); err != nil {
						log.Warn(log.CatWatch, "file not synced", "path", file, "error", err)
					}
				case themeFile:
					reloadTheme(e, themeFile)
				}
			}
		}
	}
}

// syncFile feeds the difference between the engine's text and the file
// on disk to the engine as edits.
func syncFile(e *chlorophyll.Engine, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: watched file
	if err != nil {
		return err
	}
	edits := textdiff.Edits(e.Text(), string(data))
	for _, ed := range edits {
		if err := e.NotifyEdit(chlorophyll.Span{Start: ed.Start, End: ed.End}, ed.Text); err != nil {
			return err
		}
	}
	log.Debug(log.CatWatch, "file synced", "path", path, "edits", len(edits))
	return nil
}

func reloadTheme(e *chlorophyll.Engine, path string) {
	th, err := theme.Load(path)
	if err != nil {
		// Keep painting with the old theme until the file is fixed.
		log.Warn(log.CatTheme, "theme not reloaded", "path", path, "error", err)
		return
	}
	_ = e.SetTheme(th)
}

// writeDelta prints the spans a host must rewrite to apply d. It runs
// inside the paint callback, so e reflects exactly the text d describes.
func writeDelta(w io.Writer, e *chlorophyll.Engine, d chlorophyll.Delta) error {
	header := fmt.Sprintf("# seq %d", d.Seq)
	if d.Reset {
		header += " reset"
	}
	text := e.Text()
	start, end, ok := spanfmt.DeltaRange(d, len(text))
	if !ok {
		_, err := fmt.Fprintln(w, header)
		return err
	}
	region := spanfmt.FromAnnotations(text, start, end, e.Annotations(start, end))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, c := range spanfmt.Encode(region, 0) {
		if _, err := io.WriteString(w, c); err != nil {
			return err
		}
	}
	return nil
}
