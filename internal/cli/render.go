package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/vcs"
	"github.com/roach88/zerv/internal/zerv"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions

	InputFormat    string
	OutputFormat   string
	OutputTemplate string
	OutputPrefix   string
}

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	Input       string `json:"input"`
	InputFormat string `json:"input_format"`
	Version     string `json:"version"`
	Format      string `json:"format"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <version|->",
		Short: "Convert a version string between formats",
		Long: `Parse a version string and render it in another format.

No schema, override, or bump is applied: the version is parsed, then
rendered as SemVer, PEP 440, a Zerv document, or a template. Pass - to
read the version (or a Zerv document) from stdin.

Examples:
  zerv render 1.2.3a1 --output-format semver      # 1.2.3-alpha.1
  zerv render 2.0.0 --output-prefix v             # v2.0.0
  zerv render 1.2.3 --output-template "{{.major}}.{{.minor}}"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.InputFormat, "input-format", vcs.FormatAuto, "input format (auto|semver|pep440|zerv)")
	f.StringVar(&opts.OutputFormat, "output-format", "", "output format (semver|pep440|zerv)")
	f.StringVar(&opts.OutputTemplate, "output-template", "", "render the version with a template")
	f.StringVar(&opts.OutputPrefix, "output-prefix", "", "prefix added to the output")
	return cmd
}

func runRender(opts *RenderOptions, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	req := pipeline.Request{
		Source:         pipeline.SourceNone,
		OutputFormat:   opts.OutputFormat,
		OutputTemplate: opts.OutputTemplate,
		OutputPrefix:   opts.OutputPrefix,
	}
	if err := req.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err)
	}

	if input == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		input = string(data)
	}
	input = strings.TrimSpace(input)

	z, matched, err := parseRenderInput(input, opts.InputFormat)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeInvalidVersion, err)
	}
	formatter.VerboseLog("parsed %q as %s", input, matched)

	out, format, err := pipeline.Render(z, req)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodePipeline, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RenderResult{
			Input:       input,
			InputFormat: matched,
			Version:     out,
			Format:      format,
		})
	}
	fmt.Fprintln(formatter.Writer, out)
	return nil
}

// parseRenderInput parses a version string, or a Zerv document when the
// format is zerv.
func parseRenderInput(input, format string) (*zerv.Zerv, string, error) {
	if !strings.EqualFold(format, pipeline.FormatZerv) {
		return vcs.ParseVersion(input, format)
	}
	doc, err := ir.Decode(strings.NewReader(input))
	if err != nil {
		return nil, "", err
	}
	z, err := doc.ToZerv()
	if err != nil {
		return nil, "", err
	}
	return z, pipeline.FormatZerv, nil
}
