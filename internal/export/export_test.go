package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solvig/tidemark/internal/journal"
)

func buildTestRows(t *testing.T) []Row {
	t.Helper()
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	v1 := journal.NewEntry(journal.KindTask, 42, 1, 7, now)
	v1.DataID = 1
	v1.Notes = "created from import"
	v2 := journal.NewEntry(journal.KindTask, 42, 2, 8, now.Add(time.Hour))
	v2.DataID = 2
	v2.Cause = journal.NewCause(journal.CauseWorkflow, "status automation")
	project := journal.NewEntry(journal.KindProject, 3, 1, 7, now)
	project.DataID = 3

	snapshots := map[int64]journal.Snapshot{
		1: journal.TaskSnapshot().Subject("Fix parser").StatusID(1).Build(),
		2: journal.TaskSnapshot().Subject("Fix parser").StatusID(2).Build(),
		3: journal.ProjectSnapshot().Name("Atlas").Build(),
	}

	rows, err := BuildRows([]journal.Entry{v2, project, v1}, func(entry journal.Entry) (journal.Snapshot, error) {
		data, ok := snapshots[entry.DataID]
		if !ok {
			return journal.Snapshot{}, errors.New("missing snapshot")
		}
		return data, nil
	})
	if err != nil {
		t.Fatalf("BuildRows() error = %v", err)
	}
	return rows
}

func TestBuildRows(t *testing.T) {
	rows := buildTestRows(t)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Entry.Kind != journal.KindProject {
		t.Fatalf("unexpected first row %#v", rows[0].Entry)
	}
	if !rows[0].Diff.Empty() || !rows[1].Diff.Empty() {
		t.Fatalf("expected empty diffs on creation rows")
	}
	if rows[2].Entry.Version != 2 || rows[2].Diff.Len() != 1 {
		t.Fatalf("unexpected update row %#v diff %#v", rows[2].Entry, rows[2].Diff)
	}
	if rows[2].Diff.Changes[0].Property != journal.FieldStatusID {
		t.Fatalf("unexpected diff property %q", rows[2].Diff.Changes[0].Property)
	}
}

func TestBuildRowsPropagatesSnapshotError(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	entry := journal.NewEntry(journal.KindTask, 42, 1, 7, now)

	expected := errors.New("boom")
	_, err := BuildRows([]journal.Entry{entry}, func(journal.Entry) (journal.Snapshot, error) {
		return journal.Snapshot{}, expected
	})
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestWriteCSV(t *testing.T) {
	rows := buildTestRows(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d records", len(records))
	}
	if records[0][0] != "kind" || records[0][8] != "changes" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][0] != "project" || records[1][1] != "3" {
		t.Fatalf("unexpected first row %v", records[1])
	}
	if records[2][7] != "created from import" {
		t.Fatalf("unexpected notes cell %q", records[2][7])
	}
	if records[3][2] != "2" || !strings.Contains(records[3][8], "status_id: 1 → 2") {
		t.Fatalf("unexpected update row %v", records[3])
	}
	if records[3][5] != "workflow" || records[3][6] != "status automation" {
		t.Fatalf("unexpected cause cells %v", records[3])
	}
	if records[3][4] != "2026-02-21T13:00:00Z" {
		t.Fatalf("unexpected created_at cell %q", records[3][4])
	}
}

func TestWriteXLSX(t *testing.T) {
	rows := buildTestRows(t)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() {
		_ = f.Close()
	}()

	got, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(got))
	}
	if got[0][0] != "kind" || got[0][2] != "version" {
		t.Fatalf("unexpected header %v", got[0])
	}
	if got[1][0] != "project" {
		t.Fatalf("unexpected first row %v", got[1])
	}
	if got[3][0] != "task" || got[3][1] != "42" || got[3][2] != "2" {
		t.Fatalf("unexpected update row %v", got[3])
	}
	if !strings.Contains(got[3][8], "status_id: 1 → 2") {
		t.Fatalf("unexpected changes cell %q", got[3][8])
	}
}
