package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB          string
	Limit       int
	Fingerprint string
}

// HistoryEntry is one recorded version in command output.
type HistoryEntry struct {
	Seq         int64        `json:"seq"`
	ID          string       `json:"id"`
	Output      string       `json:"output"`
	Format      string       `json:"format"`
	Fingerprint string       `json:"fingerprint"`
	CreatedAt   string       `json:"created_at"`
	Document    *ir.Document `json:"document,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List versions recorded with --record",
		Long: `List versions recorded by "zerv version --record", newest first.

Examples:
  zerv history --db .zerv/history.db
  zerv history --limit 5 --format json
  zerv history --fingerprint 3f2a...
  zerv history show latest`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "history database (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to list (0 for all)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only versions with this document fingerprint")

	cmd.AddCommand(newHistoryShowCommand(opts))
	return cmd
}

func newHistoryShowCommand(opts *HistoryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id|latest>",
		Short:         "Show one recorded version with its document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	}
}

func (o *HistoryOptions) open(ctx context.Context) (*store.Store, error) {
	path := o.DB
	if path == "" {
		path = o.config().HistoryDB
	}
	if path == "" {
		return nil, errors.New("no history database: pass --db or set history_db in the config file")
	}
	return store.Open(ctx, path)
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	st, err := opts.open(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}
	defer st.Close()

	var records []store.Record
	if opts.Fingerprint != "" {
		records, err = st.ByFingerprint(ctx, opts.Fingerprint)
	} else {
		records, err = st.List(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, toHistoryEntry(rec, false))
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"versions": entries})
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No versions recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %-8s %s  %s\n", e.Seq, e.CreatedAt, e.Format, e.ID, e.Output)
	}
	return nil
}

func runHistoryShow(opts *HistoryOptions, ref string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	st, err := opts.open(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}
	defer st.Close()

	var rec store.Record
	if ref == "latest" {
		rec, err = st.Latest(ctx)
	} else {
		id, parseErr := uuid.Parse(ref)
		if parseErr != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Errorf("invalid id %q: %w", ref, parseErr))
		}
		rec, err = st.Get(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}

	entry := toHistoryEntry(rec, true)
	if formatter.Format == "json" {
		return formatter.Success(entry)
	}

	fmt.Fprintf(formatter.Writer, "Version:     %s\n", entry.Output)
	fmt.Fprintf(formatter.Writer, "Format:      %s\n", entry.Format)
	fmt.Fprintf(formatter.Writer, "ID:          %s\n", entry.ID)
	fmt.Fprintf(formatter.Writer, "Recorded:    %s\n", entry.CreatedAt)
	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n", entry.Fingerprint)

	data, err := ir.Encode(rec.Document, ir.EncodingYAML)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err)
	}
	fmt.Fprintf(formatter.Writer, "\n%s", data)
	return nil
}

func toHistoryEntry(rec store.Record, withDocument bool) HistoryEntry {
	e := HistoryEntry{
		Seq:         rec.Seq,
		ID:          rec.ID.String(),
		Output:      rec.Output,
		Format:      rec.Format,
		Fingerprint: rec.Fingerprint,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withDocument {
		doc := rec.Document
		e.Document = &doc
	}
	return e
}
