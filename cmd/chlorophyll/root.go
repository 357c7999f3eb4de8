package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/internal/config"
	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/internal/tracing"
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	grammar  string
	cfg      config.Config
	tracer   *tracing.Provider
	closeLog func()
}

// execute runs the command line args with output going to the
// standard streams.
func execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{v: viper.New()}
	defer a.teardown()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chlorophyll",
		Short: "Incremental syntax highlighting",
		Long: `chlorophyll highlights source files with an incremental engine.

It prints highlighted files, emits span definitions for acme-style
editors, and follows files as they change, re-highlighting only what
each change affected.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ~/.config/chlorophyll/config.yaml)")
	pf.StringVarP(&a.grammar, "grammar", "g", "",
		"grammar to use instead of detecting one from the file name")
	pf.StringP("theme", "t", "", "theme preset (see 'chlorophyll themes')")
	pf.String("theme-file", "", "theme file, overriding the preset")
	pf.Duration("debounce", 0, "quiet period after an edit before re-highlighting")
	pf.Int("max-backtrack", 0, "lines to step back looking for a known lexer state (0: no limit)")
	pf.String("log-file", "", "append a log to this file")
	pf.String("log-level", "", "minimum log level: debug, info, warn or error")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"theme.preset":  "theme",
		"theme.file":    "theme-file",
		"debounce":      "debounce",
		"max_backtrack": "max-backtrack",
		"log.file":      "log-file",
		"log.level":     "log-level",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.catCmd(),
		a.spansCmd(),
		a.watchCmd(),
		a.themesCmd(),
		a.grammarsCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads the configuration and starts logging and tracing. Flags
// win over the environment, which wins over the config file.
func (a *app) setup() error {
	config.SetDefaults(a.v)
	// CHLOROPHYLL_THEME_PRESET overrides theme.preset, and so on.
	a.v.SetEnvPrefix("chlorophyll")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	if path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
			// Only an explicitly named config file has to exist.
			if !missing || a.cfgFile != "" {
				return fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg, err := config.Decode(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Log.File != "" {
		closeLog, err := log.Init(cfg.Log.File)
		if err != nil {
			return err
		}
		a.closeLog = closeLog
		level, _ := log.ParseLevel(cfg.Log.Level)
		log.SetMinLevel(level)
	}

	a.tracer, err = tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	log.Debug(log.CatConfig, "configuration loaded",
		"file", a.v.ConfigFileUsed(),
		"theme", cfg.Theme.Preset,
		"debounce", cfg.Debounce)
	return nil
}

func (a *app) teardown() {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracer.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatConfig, "tracing shutdown failed", err)
		}
		cancel()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}

// grammarFor picks the grammar for path: the --grammar flag, then the
// configured extension table, then detection by file name.
func (a *app) grammarFor(path string) (lex.Grammar, error) {
	name := a.grammar
	if name == "" {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		name = a.cfg.Grammars[ext]
	}
	if name == "" {
		return lex.ForFilename(path), nil
	}
	g, ok := lex.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown grammar %q (see 'chlorophyll grammars')", name)
	}
	return g, nil
}

func (a *app) newEngine(g lex.Grammar, th *theme.Theme, paint func(chlorophyll.Delta)) *chlorophyll.Engine {
	opts := []chlorophyll.Option{
		chlorophyll.WithGrammar(g),
		chlorophyll.WithTheme(th),
		chlorophyll.WithDebounce(a.cfg.Debounce),
		chlorophyll.WithMaxBacktrack(a.cfg.MaxBacktrack),
		chlorophyll.WithTracer(a.tracer.Tracer()),
	}
	if paint != nil {
		opts = append(opts, chlorophyll.WithPaint(paint))
	}
	if a.cfg.LexCache.Enabled {
		opts = append(opts, chlorophyll.WithLexCache(a.cfg.LexCache.TTL))
	}
	return chlorophyll.New(opts...)
}

// highlight loads path into a new engine and waits for the first pass.
// The caller closes the engine.
func (a *app) highlight(ctx context.Context, path string, th *theme.Theme) (*chlorophyll.Engine, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-named file
	if err != nil {
		return nil, err
	}
	g, err := a.grammarFor(path)
	if err != nil {
		return nil, err
	}
	e := a.newEngine(g, th, nil)
	if err := e.SetText(string(data)); err != nil {
		_ = e.Close()
		return nil, err
	}
	if err := e.Flush(ctx); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("highlighting %s: %w", path, err)
	}
	return e, nil
}
