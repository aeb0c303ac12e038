package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/zerv/internal/buildinfo"
	"github.com/roach88/zerv/internal/config"
	"github.com/roach88/zerv/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogLevel   string
	ConfigPath string

	// Config is loaded before any subcommand runs. Nil means defaults.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the zerv CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "zerv",
		Short: "zerv - dynamic versions from a universal format",
		Long: `Compute, convert, and bump versions through the Zerv format.

A version is read from repository data, stdin, or nothing at all, shaped by
a schema, adjusted by overrides and bumps, and rendered as SemVer, PEP 440,
a Zerv document, or a custom template.`,
		Version:       buildinfo.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup()
		},
	}
	cmd.SetVersionTemplate(buildinfo.Full() + "\n")

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultFilename+")")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewFlowCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// setup loads the config file and applies the log level. --verbose
// implies debug; --log-level beats the config file.
func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("failed to load config: %v", err))
	}
	o.Config = cfg

	name := cfg.LogLevel
	if o.LogLevel != "" {
		name = o.LogLevel
	}
	if o.Verbose {
		name = "debug"
	}
	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid log level %q", name))
	}
	logger.SetLevel(level)
	return nil
}

// config returns the loaded config, or defaults when the command runs
// without the root (as in tests).
func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}

// formatter builds an OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
		TraceID:   newTraceID(),
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
