// Edcolor syntax-colors source files in edwood using the spans file.
//
// Usage: set up fileHooks in exec.go to map extensions to "edcolor".
// Edcolor is invoked automatically when a matching file is opened.
//
// Edcolor reads the window tag to determine the filename, picks a
// grammar for it, mirrors the window body into a highlighting engine
// and writes span definitions to the window's spans file. Edwood renders
// the styled text through its rich.Frame engine.
//
// Every insert and delete in the body is reported to the engine, which
// re-lexes only the lines the edit can have affected and repaints only
// the spans whose style changed. Selecting two or more characters
// highlights the other occurrences of the selection. Edcolor exits when
// the window is closed or when no grammar handles the file.
//
// The $winid environment variable (set automatically by edwood for
// B2 commands) identifies the target window.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"9fans.net/go/acme"
	"9fans.net/go/plan9"
	"9fans.net/go/plan9/client"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/internal/config"
	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/internal/spanfmt"
	"github.com/jbdoderlein/chlorophyll/internal/textdiff"
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// highlightBg is the background of occurrences of the selection.
var highlightBg = color.RGBA{R: 0xf0, G: 0xf4, B: 0xff, A: 0xff}

const version = "edcolor v0.2.0"

var (
	verbose    = flag.Bool("v", false, "print version and log to stderr")
	configFile = flag.String("config", "", "config file (default: ~/.config/chlorophyll/config.yaml)")
	themeName  = flag.String("theme", "edwood", "theme preset; empty uses the configured theme")
)

func main() {
	flag.Parse()
	if *verbose {
		fmt.Println(version)
		log.SetOutput(os.Stderr)
	}

	path := *configFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal(err)
	}
	if cfg.Log.File != "" && !*verbose {
		closeLog, err := log.Init(cfg.Log.File)
		if err != nil {
			fatal(err)
		}
		defer closeLog()
	}
	level, _ := log.ParseLevel(cfg.Log.Level)
	log.SetMinLevel(level)

	th, err := loadTheme(cfg, *themeName)
	if err != nil {
		fatal(err)
	}

	id, err := getWinID()
	if err != nil {
		fatal(err)
	}

	win, err := acme.Open(id, nil)
	if err != nil {
		fatal(fmt.Errorf("open window: %w", err))
	}

	// Read the tag to determine the filename and grammar.
	g := grammarForWindow(win, cfg)
	if g == nil {
		// No grammar for this file type: exit silently.
		return
	}

	// Force the event file open now (EventChan opens it lazily).
	// This sets filemenu=false in edwood. We then re-enable it
	// with "menu" so Undo/Redo/Put stay in the tag.
	win.OpenEvent()
	win.Ctl("menu")

	// 9P filesystem for spans writing (needs manual chunking
	// to stay within message size limits).
	fsys, err := client.MountService("acme")
	if err != nil {
		fatal(fmt.Errorf("mount acme: %w", err))
	}

	w := &window{win: win, files: win, fsys: fsys, id: id}
	w.engine = chlorophyll.New(
		chlorophyll.WithGrammar(g),
		chlorophyll.WithTheme(th),
		chlorophyll.WithPaint(w.paint),
		chlorophyll.WithDebounce(cfg.Debounce),
		chlorophyll.WithMaxBacktrack(cfg.MaxBacktrack),
	)
	defer w.engine.Close()

	if err := w.resync(); err != nil {
		fatal(err)
	}
	w.eventLoop(win.EventChan())
}

func loadTheme(cfg config.Config, name string) (*theme.Theme, error) {
	if name != "" {
		return theme.Preset(name)
	}
	return cfg.LoadTheme()
}

// grammarForWindow reads the window tag and returns the grammar for the
// file, or nil if none handles it.
func grammarForWindow(win *acme.Win, cfg config.Config) lex.Grammar {
	tag, err := win.ReadAll("tag")
	if err != nil {
		return nil
	}
	// The tag starts with the filename, followed by a space and
	// the rest of the tag line.
	name := string(tag)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		name = name[:i]
	}
	return grammarFor(name, cfg.Grammars)
}

func grammarFor(name string, overrides map[string]string) lex.Grammar {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if gname, ok := overrides[ext]; ok {
		if g, ok := lex.ByName(gname); ok {
			return g
		}
		log.Warn(log.CatAcme, "unknown grammar in config", "ext", ext, "grammar", gname)
	}
	g := lex.ForFilename(name)
	if g == lex.Plain {
		return nil
	}
	return g
}

// fileReader reads a file of an acme window; *acme.Win is one.
type fileReader interface {
	ReadAll(file string) ([]byte, error)
}

// window mirrors one acme window into the engine and paints it.
type window struct {
	win    *acme.Win
	files  fileReader
	fsys   *client.Fsys
	id     int
	engine *chlorophyll.Engine

	mu         sync.Mutex
	highlights [][2]int // rune ranges of selection matches
}

// resync replaces the engine's text with the window body.
func (w *window) resync() error {
	body, err := w.files.ReadAll("body")
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return w.engine.SetText(string(body))
}

// catchUp brings the engine's text in line with the body by diffing.
// It is used when an event does not carry the inserted text.
func (w *window) catchUp() {
	body, err := w.files.ReadAll("body")
	if err != nil {
		log.ErrorErr(log.CatAcme, "read body failed", err)
		return
	}
	for _, ed := range textdiff.Edits(w.engine.Text(), string(body)) {
		if err := w.engine.NotifyEdit(chlorophyll.Span{Start: ed.Start, End: ed.End}, ed.Text); err != nil {
			w.rejected(err)
			return
		}
	}
}

// eventLoop reports edits to the engine and tracks the selection.
// It exits when the window is closed (event channel closed).
func (w *window) eventLoop(events <-chan *acme.Event) {
	var (
		selTimer  <-chan time.Time
		lastSel   string
		lastSelQ0 int
		lastSelQ1 int
	)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			switch e.C2 {
			case 'I', 'D':
				// Body edit. Drop the match highlights and tell the engine.
				lastSel = ""
				w.setHighlights(nil)
				w.edit(e)
			case 'S':
				// Body selection changed.
				text := w.engine.Text()
				sel, ok := runeSlice(text, e.Q0, e.Q1)
				if !ok {
					break
				}
				if len([]rune(sel)) >= 2 {
					if sel != lastSel || e.Q0 != lastSelQ0 || e.Q1 != lastSelQ1 {
						lastSel, lastSelQ0, lastSelQ1 = sel, e.Q0, e.Q1
						w.setHighlights(findMatches(text, sel, e.Q0, e.Q1))
						selTimer = time.After(100 * time.Millisecond)
					}
				} else if lastSel != "" {
					// Selection cleared or too short: remove highlights.
					lastSel = ""
					w.setHighlights(nil)
					selTimer = time.After(100 * time.Millisecond)
				}
			case 'x', 'X', 'l', 'L':
				w.win.WriteEvent(e)
			}
		case <-selTimer:
			selTimer = nil
			w.repaintAll()
		}
	}
}

// edit reports a body insert or delete to the engine.
func (w *window) edit(e *acme.Event) {
	old, text, ok := editOf(w.engine.Text(), e)
	if !ok {
		log.Debug(log.CatAcme, "event without usable text, diffing body", "q0", e.Q0, "q1", e.Q1, "nr", e.Nr)
		w.catchUp()
		return
	}
	if err := w.engine.NotifyEdit(old, text); err != nil {
		w.rejected(err)
	}
}

// rejected starts over from the window body after the engine refused
// an edit.
func (w *window) rejected(err error) {
	log.ErrorErr(log.CatAcme, "edit rejected, resyncing", err)
	if err := w.resync(); err != nil {
		log.ErrorErr(log.CatAcme, "resync failed", err)
	}
}

// editOf converts an insert or delete event, in runes, to the bytes of
// text it replaced and the replacement. It fails when the event does
// not carry the whole inserted text or lies outside text.
func editOf(text string, e *acme.Event) (chlorophyll.Span, string, bool) {
	start, ok := byteOffset(text, e.Q0)
	if !ok {
		return chlorophyll.Span{}, "", false
	}
	switch e.C2 {
	case 'I':
		ins := string(e.Text)
		if len([]rune(ins)) != e.Q1-e.Q0 {
			return chlorophyll.Span{}, "", false
		}
		return chlorophyll.Span{Start: start, End: start}, ins, true
	case 'D':
		end, ok := byteOffset(text, e.Q1)
		if !ok || end < start {
			return chlorophyll.Span{}, "", false
		}
		return chlorophyll.Span{Start: start, End: end}, "", true
	}
	return chlorophyll.Span{}, "", false
}

// byteOffset converts the rune offset q in text to a byte offset.
func byteOffset(text string, q int) (int, bool) {
	if q < 0 {
		return 0, false
	}
	n := 0
	for i := range text {
		if n == q {
			return i, true
		}
		n++
	}
	if n == q {
		return len(text), true
	}
	return 0, false
}

func runeSlice(text string, q0, q1 int) (string, bool) {
	b0, ok0 := byteOffset(text, q0)
	b1, ok1 := byteOffset(text, q1)
	if !ok0 || !ok1 || b0 > b1 {
		return "", false
	}
	return text[b0:b1], true
}

func (w *window) setHighlights(h [][2]int) {
	w.mu.Lock()
	w.highlights = h
	w.mu.Unlock()
}

// paint writes the spans a change set touched. It runs on the engine's
// scheduler, which holds edits off until it returns.
func (w *window) paint(d chlorophyll.Delta) {
	text := w.engine.Text()
	start, end, ok := spanfmt.DeltaRange(d, len(text))
	if !ok {
		return
	}
	w.write(text, start, end)
}

func (w *window) repaintAll() {
	text := w.engine.Text()
	w.write(text, 0, len(text))
}

func (w *window) write(text string, start, end int) {
	region := spanfmt.FromAnnotations(text, start, end, w.engine.Annotations(start, end))
	w.mu.Lock()
	region = applyHighlights(region, w.highlights)
	w.mu.Unlock()
	if len(region.Runs) == 0 {
		return
	}
	if err := writeSpans(w.fsys, w.id, region); err != nil {
		log.ErrorErr(log.CatAcme, "writing spans failed", err, "window", w.id)
	}
}

// findMatches finds all rune-offset occurrences of sel in body,
// excluding the selection itself at [selQ0, selQ1).
func findMatches(body, sel string, selQ0, selQ1 int) [][2]int {
	runes := []rune(body)
	selRunes := []rune(sel)
	selLen := len(selRunes)
	var matches [][2]int

	for i := 0; i <= len(runes)-selLen; i++ {
		match := true
		for j := 0; j < selLen; j++ {
			if runes[i+j] != selRunes[j] {
				match = false
				break
			}
		}
		if match {
			mq0, mq1 := i, i+selLen
			if mq0 == selQ0 && mq1 == selQ1 {
				continue // skip the selection itself
			}
			matches = append(matches, [2]int{mq0, mq1})
		}
	}
	return matches
}

// applyHighlights paints the highlight background over the runs of r
// that the rune ranges in highlights cover, splitting runs as needed.
// The highlights must be sorted by offset.
func applyHighlights(r spanfmt.Region, highlights [][2]int) spanfmt.Region {
	if len(highlights) == 0 {
		return r
	}

	out := spanfmt.Region{Start: r.Start}
	hi := 0 // index into highlights
	sStart := r.Start

	for _, run := range r.Runs {
		sEnd := sStart + run.Len

		// Advance past highlights that end before this run.
		for hi < len(highlights) && highlights[hi][1] <= sStart {
			hi++
		}

		cursor := sStart
		for h := hi; h < len(highlights) && highlights[h][0] < sEnd; h++ {
			// Clamp to run boundaries.
			hStart := max(highlights[h][0], sStart)
			hEnd := min(highlights[h][1], sEnd)

			// Segment before highlight.
			if hStart > cursor {
				out.Runs = append(out.Runs, spanfmt.Run{Len: hStart - cursor, Style: run.Style, Hidden: run.Hidden})
			}
			// Highlighted segment.
			lit := run.Style
			lit.Bg = highlightBg
			out.Runs = append(out.Runs, spanfmt.Run{Len: hEnd - hStart, Style: lit, Hidden: run.Hidden})
			cursor = hEnd
		}
		// Remaining segment after last highlight in this run.
		if cursor < sEnd {
			out.Runs = append(out.Runs, spanfmt.Run{Len: sEnd - cursor, Style: run.Style, Hidden: run.Hidden})
		}
		sStart = sEnd
	}
	return out
}

func getWinID() (int, error) {
	s := os.Getenv("winid")
	if s == "" {
		return 0, fmt.Errorf("$winid not set")
	}
	return strconv.Atoi(s)
}

// writeSpans writes the region to the window's spans file, chunked to
// stay within 9P message size limits.
func writeSpans(fsys *client.Fsys, id int, r spanfmt.Region) error {
	fid, err := fsys.Open(fmt.Sprintf("%d/spans", id), plan9.OWRITE)
	if err != nil {
		return fmt.Errorf("open spans: %w", err)
	}
	defer fid.Close()

	for _, chunk := range spanfmt.Encode(r, spanfmt.DefaultChunk) {
		if _, err := fid.Write([]byte(chunk)); err != nil {
			return fmt.Errorf("write spans: %w", err)
		}
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "edcolor: %v\n", err)
	os.Exit(1)
}
