package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/zerv/internal/compiler"
	"github.com/roach88/zerv/internal/presets"
	"github.com/roach88/zerv/internal/zerv"
)

// ValidationResult holds schema validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Schema string                     `json:"schema,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewSchemaCommand creates the schema command and its subcommands.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and check version schemas",
		Long: `Inspect and check version schemas.

A schema is either schema text such as

  (core: [var("major"), var("minor"), var("patch")], extra_core: [], build: [])

or a CUE document (files ending in .cue) with the same keys.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSchemaValidateCommand(rootOpts))
	cmd.AddCommand(newSchemaFormatCommand(rootOpts))
	cmd.AddCommand(newSchemaPresetsCommand(rootOpts))
	return cmd
}

func newSchemaValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a schema file",
		Long: `Validate a schema file without computing a version.

Reports syntax errors with line and column, and placement errors such as
a secondary field in core or major, minor, patch out of order.

Exit codes:
  0 - Schema valid
  1 - Schema invalid
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaValidate(rootOpts, args[0], cmd)
		},
	}
}

func newSchemaFormatCommand(rootOpts *RootOptions) *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "format <file|->",
		Short: "Print a schema in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			schema, errs, err := loadSchema(args[0], cmd.InOrStdin())
			if err != nil {
				return readFailure(formatter, err)
			}
			if len(errs) > 0 {
				return outputValidationErrors(formatter, errs)
			}

			text := strings.TrimRight(compiler.FormatSchema(schema), "\n")
			if inline {
				text = compiler.FormatSchemaInline(schema)
			}
			if formatter.Format == "json" {
				return formatter.Success(ValidationResult{Valid: true, Schema: text})
			}
			fmt.Fprintln(formatter.Writer, text)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "print on a single line")
	return cmd
}

func newSchemaPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "presets",
		Short:         "List schema presets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			names := presets.Names()
			if formatter.Format == "json" {
				return formatter.Success(map[string][]string{"presets": names})
			}
			for _, name := range names {
				fmt.Fprintln(formatter.Writer, name)
			}
			return nil
		},
	}
}

func runSchemaValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, errs, err := loadSchema(path, cmd.InOrStdin())
	if err != nil {
		return readFailure(formatter, err)
	}
	formatter.VerboseLog("Validated schema %s", path)

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter)
}

// loadSchema reads and compiles a schema. The error return is for read
// failures; compile failures come back as validation errors.
func loadSchema(path string, in io.Reader) (*zerv.Schema, []compiler.ValidationError, error) {
	var (
		data []byte
		err  error
	)
	name := path
	if path == "-" {
		name = "stdin"
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, nil, err
	}

	schema, err := compiler.CompileSource(name, string(data))
	if err != nil {
		return nil, []compiler.ValidationError{toValidationError(err)}, nil
	}
	return schema, nil, nil
}

// toValidationError converts any schema compile error to the common
// validation error shape.
func toValidationError(err error) compiler.ValidationError {
	var ve compiler.ValidationError
	if errors.As(err, &ve) {
		return ve
	}

	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return compiler.ValidationError{
			Field:   ce.Field,
			Message: ce.Message,
			Code:    mapCompileErrorToCode(ce.Field),
			Line:    lineOf(ce.Pos),
			Column:  columnOf(ce.Pos),
		}
	}

	var se *zerv.SchemaError
	if errors.As(err, &se) {
		field := se.Section
		if field == "" {
			field = "schema"
		}
		if se.Section != "" && se.Index >= 0 {
			field = fmt.Sprintf("%s[%d]", se.Section, se.Index)
		}
		return compiler.ValidationError{Field: field, Message: se.Message, Code: se.Code}
	}

	return compiler.ValidationError{Field: "schema", Message: err.Error(), Code: compiler.ErrSyntax}
}

// mapCompileErrorToCode maps a CUE compile error field to a validation
// error code.
func mapCompileErrorToCode(field string) string {
	switch {
	case strings.HasSuffix(field, ".var"):
		return compiler.ErrUnknownField
	case strings.HasPrefix(field, "precedence_order"):
		return compiler.ErrUnknownPrecedence
	case strings.HasSuffix(field, ".int"):
		return compiler.ErrInvalidInteger
	default:
		return compiler.ErrSyntax
	}
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

func columnOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Column()
	}
	return 0
}

// readFailure reports an unreadable schema source.
func readFailure(formatter *OutputFormatter, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Schema valid")
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
			TraceID: formatter.TraceID,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d:%d\n", err.Line, err.Column)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
