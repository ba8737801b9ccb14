package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/solvig/tidemark/internal/app"
	"github.com/solvig/tidemark/internal/export"
	"github.com/solvig/tidemark/internal/journal"
	"github.com/spf13/cobra"
)

// identityStyle renders the kind/id/version heading of an entry.
var identityStyle = lipgloss.NewStyle().Bold(true)

// metaStyle renders timestamps and attribution beneath a heading.
var metaStyle = lipgloss.NewStyle().Faint(true)

// newRecordCmd records a creation or update for one entity.
func newRecordCmd(opts *rootOptions) *cobra.Command {
	var (
		kindName     string
		entityID     int64
		userID       int64
		sets         []string
		notes        string
		causeName    string
		causeContext string
		activityID   int64
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a snapshot of an entity as a new journal version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, true, func(ctx context.Context, rt *cliRuntime) error {
				kind, err := journal.ParseKind(kindName)
				if err != nil {
					return err
				}
				data, err := parseSnapshot(kind, sets)
				if err != nil {
					return err
				}
				cause, err := parseCause(causeName, causeContext)
				if err != nil {
					return err
				}

				event, recorded, err := rt.service.RecordUpdate(ctx, app.UpdateInput{
					Kind:          kind,
					JournalableID: entityID,
					UserID:        userID,
					Data:          data,
					Notes:         notes,
					ActivityID:    activityID,
					Cause:         cause,
				})
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if !recorded {
					_, _ = fmt.Fprintln(stdout, "no changes to record")
					return nil
				}
				if event.Diff == nil {
					_, _ = fmt.Fprintf(stdout, "recorded %s/%d v%d (creation)\n", event.Entry.Kind, event.Entry.JournalableID, event.Entry.Version)
					return nil
				}
				_, _ = fmt.Fprintf(stdout, "recorded %s/%d v%d (%d changes)\n", event.Entry.Kind, event.Entry.JournalableID, event.Entry.Version, event.Diff.Len())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "journalable kind (see `tidemark kinds`)")
	cmd.Flags().Int64Var(&entityID, "id", 0, "journalable entity id")
	cmd.Flags().Int64Var(&userID, "user", 0, "id of the user the change is attributed to")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value snapshot assignment (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes for this version")
	cmd.Flags().StringVar(&causeName, "cause", "", "cause type (see `tidemark kinds`)")
	cmd.Flags().StringVar(&causeContext, "cause-context", "", "free-form cause context")
	cmd.Flags().Int64Var(&activityID, "activity", 0, "related activity id")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// newHistoryCmd lists every recorded version of one entity.
func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		kindName string
		entityID int64
		format   string
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded versions of an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, false, func(ctx context.Context, rt *cliRuntime) error {
				kind, err := journal.ParseKind(kindName)
				if err != nil {
					return err
				}
				entries, err := rt.service.History(ctx, kind, entityID)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no history for %s/%d\n", kind, entityID)
					return nil
				}

				rows, err := export.BuildRows(entries, func(entry journal.Entry) (journal.Snapshot, error) {
					_, data, err := rt.service.Entry(ctx, entry.ID)
					return data, err
				})
				if err != nil {
					return err
				}
				return writeRows(cmd, rows, format, outPath)
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "journalable kind")
	cmd.Flags().Int64Var(&entityID, "id", 0, "journalable entity id")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, csv, or xlsx")
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// newShowCmd prints one entry and its snapshot fields.
func newShowCmd(opts *rootOptions) *cobra.Command {
	var (
		kindName string
		entityID int64
		ver      int32
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one recorded version of an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, false, func(ctx context.Context, rt *cliRuntime) error {
				kind, err := journal.ParseKind(kindName)
				if err != nil {
					return err
				}

				version := journal.Version(ver)
				if version == 0 {
					entries, err := rt.service.History(ctx, kind, entityID)
					if err != nil {
						return err
					}
					if len(entries) == 0 {
						return fmt.Errorf("no history for %s/%d", kind, entityID)
					}
					version = entries[len(entries)-1].Version
				}

				entry, err := rt.service.EntryAt(ctx, kind, entityID, version)
				if err != nil {
					return err
				}
				_, data, err := rt.service.Entry(ctx, entry.ID)
				if err != nil {
					return err
				}
				renderEntry(cmd.OutOrStdout(), entry, data)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "journalable kind")
	cmd.Flags().Int64Var(&entityID, "id", 0, "journalable entity id")
	cmd.Flags().Int32Var(&ver, "version", 0, "version to show (0 means latest)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// newDiffCmd prints the changes between two recorded versions.
func newDiffCmd(opts *rootOptions) *cobra.Command {
	var (
		kindName string
		entityID int64
		from     int32
		to       int32
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the changes between two recorded versions of an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, false, func(ctx context.Context, rt *cliRuntime) error {
				kind, err := journal.ParseKind(kindName)
				if err != nil {
					return err
				}
				diff, err := rt.service.DiffBetween(ctx, kind, entityID, journal.Version(from), journal.Version(to))
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if diff.Empty() {
					_, _ = fmt.Fprintf(stdout, "no differences between v%d and v%d\n", from, to)
					return nil
				}
				for _, line := range diff.DisplayLines() {
					_, _ = fmt.Fprintln(stdout, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "journalable kind")
	cmd.Flags().Int64Var(&entityID, "id", 0, "journalable entity id")
	cmd.Flags().Int32Var(&from, "from", 0, "version to diff from")
	cmd.Flags().Int32Var(&to, "to", 0, "version to diff to")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// newPurgeCmd deletes an entity's entire history.
func newPurgeCmd(opts *rootOptions) *cobra.Command {
	var (
		kindName string
		entityID int64
	)
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every recorded version of an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, true, func(ctx context.Context, rt *cliRuntime) error {
				kind, err := journal.ParseKind(kindName)
				if err != nil {
					return err
				}
				deleted, err := rt.service.DeleteHistory(ctx, kind, entityID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries for %s/%d\n", deleted, kind, entityID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "journalable kind")
	cmd.Flags().Int64Var(&entityID, "id", 0, "journalable entity id")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// newExportCmd writes the whole journal to json, csv, or xlsx.
func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, false, func(ctx context.Context, rt *cliRuntime) error {
				archive, err := rt.service.ExportArchive(ctx)
				if err != nil {
					return err
				}

				if format == "json" {
					encoded, err := json.MarshalIndent(archive, "", "  ")
					if err != nil {
						return fmt.Errorf("encode archive json: %w", err)
					}
					encoded = append(encoded, '\n')
					w, closeOut, err := openOutput(cmd, outPath)
					if err != nil {
						return err
					}
					if _, err := w.Write(encoded); err != nil {
						_ = closeOut()
						return fmt.Errorf("write archive json: %w", err)
					}
					return closeOut()
				}

				entries := make([]journal.Entry, 0, len(archive.Entries))
				snapshots := make(map[int64]journal.Snapshot, len(archive.Entries))
				for _, archived := range archive.Entries {
					entries = append(entries, archived.Entry)
					snapshots[archived.Entry.ID] = archived.Data
				}
				rows, err := export.BuildRows(entries, func(entry journal.Entry) (journal.Snapshot, error) {
					data, ok := snapshots[entry.ID]
					if !ok {
						return journal.Snapshot{}, fmt.Errorf("missing snapshot for entry %d", entry.ID)
					}
					return data, nil
				})
				if err != nil {
					return err
				}
				return writeRows(cmd, rows, format, outPath)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, csv, or xlsx")
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCmd merges an archive JSON file into the journal.
func newImportCmd(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge an archive JSON file into the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, opts, true, func(ctx context.Context, rt *cliRuntime) error {
				content, err := os.ReadFile(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				var archive app.Archive
				if err := json.Unmarshal(content, &archive); err != nil {
					return fmt.Errorf("decode archive json: %w", err)
				}
				if err := rt.service.ImportArchive(ctx, archive); err != nil {
					return fmt.Errorf("import archive: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, journal now holds %d\n", len(archive.Entries), rt.store.Len())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input archive JSON file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// newKindsCmd lists the valid journalable kinds and cause types.
func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List valid journalable kinds and cause types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(stdout, "kinds:")
			for _, kind := range journal.Kinds() {
				_, _ = fmt.Fprintf(stdout, "  %s\n", kind)
			}
			_, _ = fmt.Fprintln(stdout, "cause types:")
			for _, causeType := range journal.CauseTypes() {
				_, _ = fmt.Fprintf(stdout, "  %s\n", causeType)
			}
			return nil
		},
	}
}

// newPathsCmd prints the resolved config and archive locations.
func newPathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config and archive paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := resolveLocations(cmd, opts)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(stdout, "app: %s\n", loc.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", loc.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", loc.configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", loc.dataDir)
			_, _ = fmt.Fprintf(stdout, "archive: %s\n", loc.archivePath)
			return nil
		},
	}
}

// writeRows renders export rows in the requested format to --out.
func writeRows(cmd *cobra.Command, rows []export.Row, format, outPath string) error {
	w, closeOut, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}

	switch strings.TrimSpace(strings.ToLower(format)) {
	case "text":
		renderHistoryText(w, rows)
	case "json":
		err = writeHistoryJSON(w, rows)
	case "csv":
		err = export.WriteCSV(w, rows)
	case "xlsx":
		err = export.WriteXLSX(w, rows)
	default:
		_ = closeOut()
		return fmt.Errorf("unknown format: %q", format)
	}
	if err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

// historyRecord is the JSON shape of one rendered history row.
type historyRecord struct {
	Entry   journal.Entry    `json:"entry"`
	Data    journal.Snapshot `json:"data"`
	Changes []string         `json:"changes,omitempty"`
}

// writeHistoryJSON encodes rows as a JSON array.
func writeHistoryJSON(w io.Writer, rows []export.Row) error {
	records := make([]historyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, historyRecord{
			Entry:   row.Entry,
			Data:    row.Data,
			Changes: row.Diff.DisplayLines(),
		})
	}
	encoded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history json: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("write history json: %w", err)
	}
	return nil
}

// renderHistoryText writes the styled text form of history rows.
func renderHistoryText(w io.Writer, rows []export.Row) {
	for i, row := range rows {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		identity := fmt.Sprintf("%s/%d v%d", row.Entry.Kind, row.Entry.JournalableID, row.Entry.Version)
		_, _ = fmt.Fprintln(w, identityStyle.Render(identity))

		meta := fmt.Sprintf("%s user %d cause %s", row.Entry.CreatedAt.UTC().Format(time.RFC3339), row.Entry.UserID, row.Entry.Cause.Type)
		if row.Entry.Cause.HasContext() {
			meta += fmt.Sprintf(" (%s)", row.Entry.Cause.Context)
		}
		_, _ = fmt.Fprintln(w, "  "+metaStyle.Render(meta))

		if row.Entry.HasNotes() {
			_, _ = fmt.Fprintln(w, "  notes: "+row.Entry.Notes)
		}
		if row.Entry.Version.IsInitial() {
			_, _ = fmt.Fprintln(w, "  created")
			continue
		}
		for _, line := range row.Diff.DisplayLines() {
			_, _ = fmt.Fprintln(w, "  "+line)
		}
	}
}

// renderEntry writes one entry heading plus its snapshot fields.
func renderEntry(w io.Writer, entry journal.Entry, data journal.Snapshot) {
	identity := fmt.Sprintf("%s/%d v%d", entry.Kind, entry.JournalableID, entry.Version)
	_, _ = fmt.Fprintln(w, identityStyle.Render(identity))
	_, _ = fmt.Fprintf(w, "user: %d\n", entry.UserID)
	_, _ = fmt.Fprintf(w, "created_at: %s\n", entry.CreatedAt.UTC().Format(time.RFC3339))

	cause := string(entry.Cause.Type)
	if entry.Cause.HasContext() {
		cause += fmt.Sprintf(" (%s)", entry.Cause.Context)
	}
	_, _ = fmt.Fprintf(w, "cause: %s\n", cause)

	if entry.HasNotes() {
		_, _ = fmt.Fprintf(w, "notes: %s\n", entry.Notes)
	}
	if entry.ActivityID != 0 {
		_, _ = fmt.Fprintf(w, "activity: %d\n", entry.ActivityID)
	}

	_, _ = fmt.Fprintln(w, "fields:")
	for _, field := range data.Fields() {
		value, _ := data.Get(field)
		_, _ = fmt.Fprintf(w, "  %s = %s\n", field, value.String())
	}
}

// openOutput resolves --out into a writer, with "-" meaning stdout.
func openOutput(cmd *cobra.Command, outPath string) (io.Writer, func() error, error) {
	outPath = strings.TrimSpace(outPath)
	if outPath == "" || outPath == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// parseSnapshot assembles a snapshot from repeated field=value assignments.
func parseSnapshot(kind journal.Kind, sets []string) (journal.Snapshot, error) {
	data := journal.NewSnapshot(kind)
	for _, raw := range sets {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return journal.Snapshot{}, fmt.Errorf("invalid --set %q, want field=value", raw)
		}
		data.Set(journal.Field(name), parseFieldValue(value))
	}
	return data, nil
}

// parseFieldValue maps a CLI literal onto a typed snapshot value. Unquoted
// literals resolve in order: null, bool, int, float, string.
func parseFieldValue(raw string) journal.Value {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "null":
		return journal.NullValue()
	case "true":
		return journal.BoolValue(true)
	case "false":
		return journal.BoolValue(false)
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return journal.IntValue(n)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return journal.FloatValue(f)
	}
	return journal.StringValue(trimmed)
}

// parseCause resolves the --cause/--cause-context flag pair. Both empty
// means no explicit cause, which the entry builder defaults to user_action.
func parseCause(causeName, causeContext string) (journal.Cause, error) {
	causeName = strings.TrimSpace(causeName)
	causeContext = strings.TrimSpace(causeContext)
	if causeName == "" && causeContext == "" {
		return journal.Cause{}, nil
	}
	causeType := journal.CauseUserAction
	if causeName != "" {
		parsed, err := journal.ParseCauseType(causeName)
		if err != nil {
			return journal.Cause{}, err
		}
		causeType = parsed
	}
	return journal.NewCause(causeType, causeContext), nil
}
