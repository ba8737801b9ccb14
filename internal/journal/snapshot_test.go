package journal

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSnapshotSetGet(t *testing.T) {
	s := NewSnapshot(KindTask)
	s.Set(FieldSubject, StringValue("Fix crash"))
	s.Set(FieldStatusID, IntValue(1))

	v, ok := s.Get(FieldSubject)
	if !ok {
		t.Fatal("expected subject to be present")
	}
	if got, _ := v.AsString(); got != "Fix crash" {
		t.Fatalf("unexpected subject %q", got)
	}
	if _, ok := s.Get(FieldPriorityID); ok {
		t.Fatal("priority_id should be absent")
	}

	s.Set(FieldSubject, StringValue("Fix crash harder"))
	if got, _ := s.GetString(FieldSubject); got != "Fix crash harder" {
		t.Fatalf("Set should overwrite, got %q", got)
	}
}

func TestSnapshotTypedGettersDistinguishAbsentFromMismatch(t *testing.T) {
	s := NewSnapshot(KindTask)
	s.Set(FieldStatusID, IntValue(3))

	if _, err := s.GetInt(FieldPriorityID); !errors.Is(err, ErrFieldAbsent) {
		t.Fatalf("expected ErrFieldAbsent, got %v", err)
	}
	if _, err := s.GetString(FieldStatusID); !errors.Is(err, ErrValueType) {
		t.Fatalf("expected ErrValueType, got %v", err)
	}
	n, err := s.GetInt(FieldStatusID)
	if err != nil {
		t.Fatalf("GetInt() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("unexpected status id %d", n)
	}
}

func TestSnapshotFieldsSorted(t *testing.T) {
	s := NewSnapshot(KindTask)
	s.Set(FieldSubject, StringValue("x"))
	s.Set(FieldAssignedToID, IntValue(1))
	s.Set(FieldDoneRatio, IntValue(50))

	fields := s.Fields()
	want := []Field{FieldAssignedToID, FieldDoneRatio, FieldSubject}
	if len(fields) != len(want) {
		t.Fatalf("unexpected field count %d", len(fields))
	}
	for i, f := range want {
		if fields[i] != f {
			t.Fatalf("fields[%d] = %q, want %q", i, fields[i], f)
		}
	}
}

func TestSnapshotCloneIndependence(t *testing.T) {
	s := NewSnapshot(KindProject)
	s.Set(FieldName, StringValue("Atlas"))
	c := s.Clone()
	c.Set(FieldName, StringValue("Gondwana"))

	if got, _ := s.GetString(FieldName); got != "Atlas" {
		t.Fatalf("clone mutation leaked into original: %q", got)
	}
	if !s.Equal(s.Clone()) {
		t.Fatal("clone should equal its source")
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	s := TaskSnapshot().
		Subject("Fix crash").
		StatusID(1).
		EstimatedHours(2.5).
		Unassigned().
		Build()

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Kind() != KindTask {
		t.Fatalf("unexpected kind %q", decoded.Kind())
	}
	if !s.Equal(decoded) {
		t.Fatal("round trip changed the snapshot")
	}
}

func TestSnapshotJSONWireShape(t *testing.T) {
	raw := `{"_type":"task","subject":"Hello","status_id":2,"assigned_to_id":null}`
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Kind() != KindTask {
		t.Fatalf("unexpected kind %q", s.Kind())
	}
	if s.Len() != 3 {
		t.Fatalf("unexpected field count %d", s.Len())
	}
	v, ok := s.Get(FieldAssignedToID)
	if !ok || !v.IsNull() {
		t.Fatalf("assigned_to_id should be present and null, got %v, %v", v, ok)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var check map[string]any
	if err := json.Unmarshal(data, &check); err != nil {
		t.Fatalf("Unmarshal(check) error = %v", err)
	}
	if check["_type"] != "task" {
		t.Fatalf("marshaled snapshot must carry the _type tag, got %v", check["_type"])
	}
}

func TestTaskSnapshotBuilderFields(t *testing.T) {
	s := TaskSnapshot().
		Subject("Write docs").
		Description("user guide").
		StatusID(1).
		TypeID(2).
		PriorityID(3).
		AssignedToID(7).
		DoneRatio(40).
		EstimatedHours(8).
		Build()

	if s.Kind() != KindTask {
		t.Fatalf("unexpected kind %q", s.Kind())
	}
	if s.Len() != 8 {
		t.Fatalf("unexpected field count %d", s.Len())
	}
	if n, err := s.GetInt(FieldAssignedToID); err != nil || n != 7 {
		t.Fatalf("GetInt(assigned_to_id) = %d, %v", n, err)
	}
	if f, err := s.GetFloat(FieldEstimatedHours); err != nil || f != 8 {
		t.Fatalf("GetFloat(estimated_hours) = %v, %v", f, err)
	}
}

func TestProjectSnapshotBuilderFields(t *testing.T) {
	s := ProjectSnapshot().
		Name("Atlas").
		Identifier("atlas").
		Public(true).
		StatusID(1).
		Build()

	if s.Kind() != KindProject {
		t.Fatalf("unexpected kind %q", s.Kind())
	}
	public, err := s.GetBool(FieldPublic)
	if err != nil {
		t.Fatalf("GetBool() error = %v", err)
	}
	if !public {
		t.Fatal("expected public to be true")
	}
}
