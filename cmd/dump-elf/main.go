package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ducdatdau/dump-elf/internal/batch"
	"github.com/ducdatdau/dump-elf/internal/bytesource"
	"github.com/ducdatdau/dump-elf/internal/elfparse"
	"github.com/ducdatdau/dump-elf/internal/report"
	"github.com/ducdatdau/dump-elf/internal/utils"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// exitError carries the process exit code alongside the message
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: exitUsage, err: err} }
func failureError(err error) error { return &exitError{code: exitFailed, err: err} }

// exitCode maps an Execute error to a process exit code. Errors raised by
// cobra itself (unknown flags, wrong argument counts) are usage errors.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// options holds the flags shared by every dump command
type options struct {
	format     string
	configFile string
	verbose    bool
	source     string
	failFast   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "dump-elf",
		Short: "Dump ELF identification, header and program headers",
		Long: `dump-elf decodes the fixed-layout structures at the start of ELF files:
the 16-byte identification block, the ELF header for 32 and 64-bit files in
either byte order, and the program header table of 64-bit files.

Several files can be given at once; each is parsed independently and
reported in order. Output is human-readable text or JSON.

Exit codes:
  0 - All files parsed
  1 - One or more files failed to parse
  2 - Invalid arguments or configuration error`,
		Version:       utils.CurrentBuild().String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format (text, json)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&opts.source, "source", "file", "How files are read (file, mmap, memory)")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first file that fails to parse")

	cmd.AddCommand(newDumpCmd(opts, "inspect", "Show the ELF header and program headers", true, true))
	cmd.AddCommand(newDumpCmd(opts, "header", "Show the identification block and ELF header", true, false))
	cmd.AddCommand(newDumpCmd(opts, "segments", "Show the program header table", false, true))
	cmd.AddCommand(newVersionCmd(opts))

	return cmd
}

func newDumpCmd(opts *options, name, short string, showHeader, showSegments bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <file>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, opts, args, showHeader, showSegments)
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := utils.LoadConfig(opts.configFile, opts.overrides(cmd))
			if err != nil {
				return usageError(fmt.Errorf("failed to load configuration: %w", err))
			}

			build := utils.CurrentBuild()
			out := cmd.OutOrStdout()

			if config.Output.Format == string(report.FormatJSON) {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(build)
			}

			fmt.Fprintf(out, "dump-elf version %s\n", build.Version)
			fmt.Fprintf(out, "Commit: %s\n", build.Commit)
			fmt.Fprintf(out, "Built: %s\n", build.Date)
			return nil
		},
	}
}

// overrides turns explicitly set flags into config overrides so flags win
// over the config file and the environment
func (o *options) overrides(cmd *cobra.Command) map[string]interface{} {
	flags := cmd.Flags()
	values := make(map[string]interface{})

	if flags.Changed("format") {
		values[utils.KeyOutputFormat] = o.format
	}
	if flags.Changed("source") {
		values[utils.KeySourceMode] = o.source
	}
	if flags.Changed("fail-fast") {
		values[utils.KeyFailFast] = o.failFast
	}
	if o.verbose {
		values[utils.KeyLogLevel] = string(utils.LogLevelDebug)
	}

	return values
}

// runDump parses every path and renders the reports
func runDump(cmd *cobra.Command, opts *options, paths []string, showHeader, showSegments bool) error {
	config, err := utils.LoadConfig(opts.configFile, opts.overrides(cmd))
	if err != nil {
		return usageError(fmt.Errorf("failed to load configuration: %w", err))
	}

	mode, err := bytesource.ParseMode(config.Source.Mode)
	if err != nil {
		return usageError(err)
	}

	renderer, err := report.NewRenderer(config.Output.Format)
	if err != nil {
		return usageError(err)
	}

	loggerConfig := config.LoggerConfig()
	loggerConfig.Output = cmd.ErrOrStderr()
	logger := utils.NewLogger(loggerConfig)

	logger.WithComponent("dump-elf").Debugf("Parsing %d file(s) with source mode %s", len(paths), mode)

	runner := batch.NewRunner(
		elfparse.NewParser(logger),
		batch.WithSourceMode(mode),
		batch.WithFailFast(config.Batch.FailFast),
		batch.WithLogger(logger),
	)
	summary := runner.Run(paths)

	reports := make([]report.Report, 0, len(summary.Results))
	for _, result := range summary.Results {
		reports = append(reports, report.Report{
			Path:         result.Path,
			File:         result.File,
			Err:          result.Err,
			ShowHeader:   showHeader,
			ShowSegments: showSegments,
		})
	}

	if err := renderer.Render(cmd.OutOrStdout(), reports); err != nil {
		return failureError(fmt.Errorf("failed to write output: %w", err))
	}

	if !summary.OK() {
		return failureError(fmt.Errorf("%d of %d file(s) failed to parse, %d skipped",
			summary.Failed, summary.Total, summary.Skipped))
	}

	return nil
}
