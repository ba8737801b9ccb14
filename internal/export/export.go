// Package export renders recorded journal histories as CSV and XLSX
// documents for use outside the service.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solvig/tidemark/internal/journal"
)

// sheetName defines a package constant value.
const sheetName = "History"

// Row pairs one journal entry with its snapshot and the diff against the
// previous recorded version. Creation rows carry an empty diff.
type Row struct {
	Entry journal.Entry
	Data  journal.Snapshot
	Diff  journal.Diff
}

// BuildRows assembles export rows from entries, resolving each snapshot
// through snapshotOf and diffing consecutive versions per entity. Entries
// are ordered by kind, journalable id and version.
func BuildRows(entries []journal.Entry, snapshotOf func(journal.Entry) (journal.Snapshot, error)) ([]Row, error) {
	ordered := append([]journal.Entry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Kind != ordered[j].Kind {
			return ordered[i].Kind < ordered[j].Kind
		}
		if ordered[i].JournalableID != ordered[j].JournalableID {
			return ordered[i].JournalableID < ordered[j].JournalableID
		}
		return ordered[i].Version < ordered[j].Version
	})

	rows := make([]Row, 0, len(ordered))
	var (
		prevKind journal.Kind
		prevID   int64
		prevData journal.Snapshot
		havePrev bool
	)
	for _, entry := range ordered {
		data, err := snapshotOf(entry)
		if err != nil {
			return nil, fmt.Errorf("resolve snapshot for %s/%d v%d: %w", entry.Kind, entry.JournalableID, entry.Version, err)
		}

		row := Row{Entry: entry, Data: data}
		if havePrev && entry.Kind == prevKind && entry.JournalableID == prevID {
			row.Diff = journal.ComputeDiff(prevData, data)
		}
		rows = append(rows, row)

		prevKind, prevID, prevData, havePrev = entry.Kind, entry.JournalableID, data, true
	}
	return rows, nil
}

// Headers returns the export column names shared by every writer.
func Headers() []string {
	return []string{
		"kind",
		"journalable_id",
		"version",
		"user_id",
		"created_at",
		"cause_type",
		"cause_context",
		"notes",
		"changes",
	}
}

// WriteCSV streams rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	buffered := bufio.NewWriterSize(w, 1<<20)
	csvWriter := csv.NewWriter(buffered)

	if err := csvWriter.Write(Headers()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := csvWriter.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flush buffered rows: %w", err)
	}
	return nil
}

// WriteXLSX writes rows as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for col, header := range Headers() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rows {
		for col, value := range cellValues(row) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func csvRecord(row Row) []string {
	return []string{
		string(row.Entry.Kind),
		strconv.FormatInt(row.Entry.JournalableID, 10),
		strconv.Itoa(int(row.Entry.Version)),
		strconv.FormatInt(row.Entry.UserID, 10),
		row.Entry.CreatedAt.UTC().Format(time.RFC3339),
		string(row.Entry.Cause.Type),
		row.Entry.Cause.Context,
		row.Entry.Notes,
		strings.Join(row.Diff.DisplayLines(), "; "),
	}
}

func cellValues(row Row) []any {
	return []any{
		string(row.Entry.Kind),
		row.Entry.JournalableID,
		int(row.Entry.Version),
		row.Entry.UserID,
		row.Entry.CreatedAt.UTC().Format(time.RFC3339),
		string(row.Entry.Cause.Type),
		row.Entry.Cause.Context,
		row.Entry.Notes,
		strings.Join(row.Diff.DisplayLines(), "; "),
	}
}
