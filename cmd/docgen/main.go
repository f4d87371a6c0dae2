// Command docgen converts tabular and record-oriented data files into text
// documents through a template. Settings stack from a config file, DOCGEN_*
// environment variables, and flags, with flags winning.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-docgen/pkg/binding"
	"github.com/goliatone/go-docgen/pkg/config"
	"github.com/goliatone/go-docgen/pkg/output"
	"github.com/goliatone/go-docgen/pkg/pipeline"
	"github.com/goliatone/go-docgen/pkg/render"
	"github.com/goliatone/go-docgen/pkg/render/pongo"
	"github.com/goliatone/go-docgen/pkg/schema"
	"github.com/goliatone/go-docgen/pkg/source"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliFlags struct {
	configFile string
	envFile    string
	inputs     []string
	template   string
	outputPath string
	schemaPath string
	mode       string
	engine     string
	strict     bool
	force      bool
	deleteOut  bool
	skip       string
	preHook    string
	postHook   string
	vars       []string
	delimiter  string
	sheet      string
	sheetIndex int
	headerRow  int
	headerCol  int
	workers    int
	verbosity  int
	assumeYes  bool
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:           "docgen",
		Short:         "Render data records through a template into files",
		Long:          "docgen reads CSV, TSV, XLSX, YAML, or JSON records, optionally validates\nthem against a schema, and renders each record (or the whole batch) through\na template into destination files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configFile, "config", "c", "", "config file (YAML)")
	f.StringVar(&flags.envFile, "env-file", "", "load environment variables from file before resolving config")
	f.StringArrayVarP(&flags.inputs, "input", "i", nil, "input data file (repeatable)")
	f.StringVarP(&flags.template, "template", "t", "", "template file")
	f.StringVarP(&flags.outputPath, "output", "o", "", "destination path template")
	f.StringVarP(&flags.schemaPath, "schema", "s", "", "schema file (YAML)")
	f.StringVarP(&flags.mode, "mode", "m", "", "render mode: per-record or batch")
	f.StringVar(&flags.engine, "engine", "", "template engine name")
	f.BoolVar(&flags.strict, "strict", false, "abort when any record fails validation")
	f.BoolVarP(&flags.force, "force", "f", false, "overwrite existing destination files")
	f.BoolVar(&flags.deleteOut, "delete", false, "delete each file after its post hook ran")
	f.StringVar(&flags.skip, "skip", "", "template expression; truthy result skips the record")
	f.StringVar(&flags.preHook, "pre-hook", "", "command to run before each file is written")
	f.StringVar(&flags.postHook, "post-hook", "", "command to run after each file is written")
	f.StringArrayVar(&flags.vars, "var", nil, "extra template variable as key=value (repeatable)")
	f.StringVar(&flags.delimiter, "delimiter", "", "field delimiter for delimited formats")
	f.StringVar(&flags.sheet, "sheet", "", "sheet or table name for multi-sheet sources")
	f.IntVar(&flags.sheetIndex, "sheet-index", 0, "sheet position for multi-sheet sources")
	f.IntVar(&flags.headerRow, "header-row", 0, "rows to skip before the header")
	f.IntVar(&flags.headerCol, "header-col", 0, "columns to skip before the header")
	f.IntVar(&flags.workers, "workers", 0, "render this many records concurrently")
	f.CountVarP(&flags.verbosity, "verbose", "v", "increase log detail (repeatable)")
	f.BoolVarP(&flags.assumeYes, "yes", "y", false, "answer prompts with yes")

	return cmd
}

func run(cmd *cobra.Command, flags *cliFlags) error {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil {
			return fmt.Errorf("env file: %w", err)
		}
	}

	logger := newLogger(flags.verbosity)

	cfg, warnings, err := config.Layered(flags.configFile, overrides(cmd, flags))
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w, "file", flags.configFile)
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	pipe := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithRegistry(newRegistry()),
	)

	report, err := pipe.Run(cmd.Context(), req)
	if err != nil && errors.Is(err, output.ErrExists) && !req.Force {
		overwrite := flags.assumeYes
		if !overwrite && stdinIsTerminal() {
			prompt := &survey.Confirm{Message: "Destination file exists. Overwrite?"}
			if askErr := survey.AskOne(prompt, &overwrite); askErr != nil {
				return err
			}
		}
		if overwrite {
			req.Force = true
			report, err = pipe.Run(cmd.Context(), req)
		}
	}

	printSummary(cmd, report)
	return err
}

// overrides builds the highest config layer from flags the user actually
// passed, so unset flags never mask env or file values.
func overrides(cmd *cobra.Command, flags *cliFlags) *config.Config {
	cfg := &config.Config{
		Inputs:   flags.inputs,
		Template: flags.template,
		Output:   flags.outputPath,
		Schema:   flags.schemaPath,
		Mode:     flags.mode,
		Engine:   flags.engine,
		Skip:     flags.skip,
		PreHook:  flags.preHook,
		PostHook: flags.postHook,

		Delimiter: flags.delimiter,
		Sheet:     flags.sheet,
	}
	set := cmd.Flags().Changed
	if set("strict") {
		cfg.Strict = &flags.strict
	}
	if set("force") {
		cfg.Force = &flags.force
	}
	if set("delete") {
		cfg.Delete = &flags.deleteOut
	}
	if set("workers") {
		cfg.Workers = &flags.workers
	}
	if set("sheet-index") {
		cfg.SheetIndex = &flags.sheetIndex
	}
	if set("header-row") {
		cfg.HeaderRow = &flags.headerRow
	}
	if set("header-col") {
		cfg.HeaderColumn = &flags.headerCol
	}
	if len(flags.vars) > 0 {
		cfg.Vars = make(map[string]any, len(flags.vars))
		for _, pair := range flags.vars {
			key, value, _ := strings.Cut(pair, "=")
			cfg.Vars[key] = value
		}
	}
	return cfg
}

func buildRequest(cfg *config.Config) (pipeline.Request, error) {
	var req pipeline.Request

	if len(cfg.Inputs) == 0 {
		return req, errors.New("no input files (use --input)")
	}
	if cfg.Template == "" {
		return req, errors.New("no template (use --template)")
	}
	if cfg.Output == "" {
		return req, errors.New("no output path template (use --output)")
	}

	for _, path := range cfg.Inputs {
		req.Sources = append(req.Sources, source.FromFile(path))
	}
	req.Template = cfg.Template
	req.Output = cfg.Output
	req.Engine = cfg.Engine
	req.Skip = cfg.Skip
	req.PreHook = cfg.PreHook
	req.PostHook = cfg.PostHook
	req.Vars = cfg.Vars

	if cfg.Mode != "" {
		mode, err := binding.ParseMode(cfg.Mode)
		if err != nil {
			return req, err
		}
		req.Mode = mode
	}
	if cfg.Schema != "" {
		s, err := schema.LoadFile(cfg.Schema)
		if err != nil {
			return req, err
		}
		req.Schema = s
	}
	if cfg.Strict != nil {
		req.Strict = *cfg.Strict
	}
	if cfg.Force != nil {
		req.Force = *cfg.Force
	}
	if cfg.Delete != nil {
		req.Delete = *cfg.Delete
	}
	if cfg.Workers != nil {
		req.Workers = *cfg.Workers
	}

	if cfg.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(cfg.Delimiter)
		if size != len(cfg.Delimiter) || r == utf8.RuneError {
			return req, fmt.Errorf("delimiter must be a single character, got %q", cfg.Delimiter)
		}
		req.ReadOptions.Delimiter = r
	}
	req.ReadOptions.Sheet = cfg.Sheet
	if cfg.SheetIndex != nil {
		req.ReadOptions.SheetIndex = *cfg.SheetIndex
	}
	if cfg.HeaderRow != nil {
		req.ReadOptions.HeaderRow = *cfg.HeaderRow
	}
	if cfg.HeaderColumn != nil {
		req.ReadOptions.HeaderColumn = *cfg.HeaderColumn
	}

	return req, nil
}

func newRegistry() *render.Registry {
	registry := render.NewRegistry()
	engine, err := pongo.New()
	if err == nil {
		registry.MustRegister(engine)
	}
	return registry
}

func newLogger(verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func printSummary(cmd *cobra.Command, report *pipeline.Report) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	switch report.State {
	case pipeline.StateDone:
		fmt.Fprintf(out, "done: %d loaded, %d written", report.Loaded, report.Written)
		if report.Invalid > 0 {
			fmt.Fprintf(out, ", %d invalid", report.Invalid)
		}
		if report.Skipped > 0 {
			fmt.Fprintf(out, ", %d skipped", report.Skipped)
		}
		fmt.Fprintln(out)
	case pipeline.StateAborted:
		fmt.Fprintf(cmd.ErrOrStderr(), "aborted: %s\n", report.AbortReason)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "record %d (%s):\n", failure.Position+1, failure.Source)
		for _, v := range failure.Violations {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", v)
		}
	}
}
