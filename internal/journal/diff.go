package journal

import (
	"fmt"
	"slices"
)

// ChangeType classifies one field-level difference between two snapshots.
type ChangeType string

// ChangeType values.
const (
	ChangeTypeChanged ChangeType = "changed"
	ChangeTypeAdded   ChangeType = "added"
	ChangeTypeRemoved ChangeType = "removed"
)

// Detail describes one property difference. Old is null for additions and
// New is null for removals.
type Detail struct {
	Property Field      `json:"property"`
	Change   ChangeType `json:"change_type"`
	Old      Value      `json:"old_value"`
	New      Value      `json:"new_value"`
}

// NewChanged builds a detail for a property whose value changed.
func NewChanged(property Field, oldValue, newValue Value) Detail {
	return Detail{Property: property, Change: ChangeTypeChanged, Old: oldValue, New: newValue}
}

// NewAdded builds a detail for a property present only in the new snapshot.
func NewAdded(property Field, newValue Value) Detail {
	return Detail{Property: property, Change: ChangeTypeAdded, New: newValue}
}

// NewRemoved builds a detail for a property present only in the old snapshot.
func NewRemoved(property Field, oldValue Value) Detail {
	return Detail{Property: property, Change: ChangeTypeRemoved, Old: oldValue}
}

// String renders the detail for display: changes as "field: old → new",
// additions as "field set to new", removals as "field removed (was old)".
// Null values on either side render as the literal "(empty)".
func (d Detail) String() string {
	switch d.Change {
	case ChangeTypeChanged:
		return fmt.Sprintf("%s: %s → %s", d.Property, displayValue(d.Old), displayValue(d.New))
	case ChangeTypeAdded:
		return fmt.Sprintf("%s set to %s", d.Property, displayValue(d.New))
	case ChangeTypeRemoved:
		return fmt.Sprintf("%s removed (was %s)", d.Property, displayValue(d.Old))
	default:
		return string(d.Property)
	}
}

// displayValue renders a value for diff display.
func displayValue(v Value) string {
	if v.IsNull() {
		return "(empty)"
	}
	return v.String()
}

// Diff is the ordered set of field-level differences between two snapshots.
// It may legitimately be empty.
type Diff struct {
	Changes []Detail `json:"changes"`
}

// Add appends one detail.
func (d *Diff) Add(detail Detail) {
	d.Changes = append(d.Changes, detail)
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Changes) == 0
}

// Len returns the number of changes.
func (d Diff) Len() int {
	return len(d.Changes)
}

// DisplayLines returns one formatted line per change, in diff order.
func (d Diff) DisplayLines() []string {
	lines := make([]string, len(d.Changes))
	for i, detail := range d.Changes {
		lines[i] = detail.String()
	}
	return lines
}

// ComputeDiff computes the field-level differences between two snapshots.
// Fields present in both with unequal values emit a change, fields only in
// the new snapshot emit an addition, fields only in the old snapshot emit a
// removal, and equal fields emit nothing. Output order is strictly
// lexicographic by property name so diffs and their rendering are
// reproducible.
func ComputeDiff(oldData, newData Snapshot) Diff {
	names := oldData.Fields()
	for _, f := range newData.Fields() {
		if _, ok := oldData.Get(f); !ok {
			names = append(names, f)
		}
	}
	slices.Sort(names)

	var diff Diff
	for _, f := range names {
		oldValue, inOld := oldData.Get(f)
		newValue, inNew := newData.Get(f)
		switch {
		case inOld && inNew:
			if !oldValue.Equal(newValue) {
				diff.Add(NewChanged(f, oldValue, newValue))
			}
		case inNew:
			diff.Add(NewAdded(f, newValue))
		default:
			diff.Add(NewRemoved(f, oldValue))
		}
	}
	return diff
}
