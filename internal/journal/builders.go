package journal

// Task snapshot fields.
const (
	FieldSubject        Field = "subject"
	FieldDescription    Field = "description"
	FieldStatusID       Field = "status_id"
	FieldTypeID         Field = "type_id"
	FieldPriorityID     Field = "priority_id"
	FieldAssignedToID   Field = "assigned_to_id"
	FieldDoneRatio      Field = "done_ratio"
	FieldEstimatedHours Field = "estimated_hours"
)

// Project snapshot fields. FieldDescription and FieldStatusID are shared
// with task snapshots.
const (
	FieldName       Field = "name"
	FieldIdentifier Field = "identifier"
	FieldPublic     Field = "public"
)

// TaskSnapshotBuilder assembles a task snapshot through named, typed
// setters, keeping field names consistent across versions of one task.
type TaskSnapshotBuilder struct {
	data Snapshot
}

// TaskSnapshot starts building a task snapshot.
func TaskSnapshot() *TaskSnapshotBuilder {
	return &TaskSnapshotBuilder{data: NewSnapshot(KindTask)}
}

// Subject sets the task subject.
func (b *TaskSnapshotBuilder) Subject(subject string) *TaskSnapshotBuilder {
	b.data.Set(FieldSubject, StringValue(subject))
	return b
}

// Description sets the task description.
func (b *TaskSnapshotBuilder) Description(description string) *TaskSnapshotBuilder {
	b.data.Set(FieldDescription, StringValue(description))
	return b
}

// StatusID sets the workflow status reference.
func (b *TaskSnapshotBuilder) StatusID(id int64) *TaskSnapshotBuilder {
	b.data.Set(FieldStatusID, IntValue(id))
	return b
}

// TypeID sets the task type reference.
func (b *TaskSnapshotBuilder) TypeID(id int64) *TaskSnapshotBuilder {
	b.data.Set(FieldTypeID, IntValue(id))
	return b
}

// PriorityID sets the priority reference.
func (b *TaskSnapshotBuilder) PriorityID(id int64) *TaskSnapshotBuilder {
	b.data.Set(FieldPriorityID, IntValue(id))
	return b
}

// AssignedToID sets the assignee reference.
func (b *TaskSnapshotBuilder) AssignedToID(id int64) *TaskSnapshotBuilder {
	b.data.Set(FieldAssignedToID, IntValue(id))
	return b
}

// Unassigned records an explicit null assignee, distinct from leaving the
// field out of the snapshot entirely.
func (b *TaskSnapshotBuilder) Unassigned() *TaskSnapshotBuilder {
	b.data.Set(FieldAssignedToID, NullValue())
	return b
}

// DoneRatio sets the completion percentage.
func (b *TaskSnapshotBuilder) DoneRatio(ratio int) *TaskSnapshotBuilder {
	b.data.Set(FieldDoneRatio, IntValue(int64(ratio)))
	return b
}

// EstimatedHours sets the effort estimate.
func (b *TaskSnapshotBuilder) EstimatedHours(hours float64) *TaskSnapshotBuilder {
	b.data.Set(FieldEstimatedHours, FloatValue(hours))
	return b
}

// NoEstimate records an explicit null estimate.
func (b *TaskSnapshotBuilder) NoEstimate() *TaskSnapshotBuilder {
	b.data.Set(FieldEstimatedHours, NullValue())
	return b
}

// Build finalizes the snapshot.
func (b *TaskSnapshotBuilder) Build() Snapshot {
	return b.data
}

// ProjectSnapshotBuilder assembles a project snapshot.
type ProjectSnapshotBuilder struct {
	data Snapshot
}

// ProjectSnapshot starts building a project snapshot.
func ProjectSnapshot() *ProjectSnapshotBuilder {
	return &ProjectSnapshotBuilder{data: NewSnapshot(KindProject)}
}

// Name sets the project name.
func (b *ProjectSnapshotBuilder) Name(name string) *ProjectSnapshotBuilder {
	b.data.Set(FieldName, StringValue(name))
	return b
}

// Description sets the project description.
func (b *ProjectSnapshotBuilder) Description(description string) *ProjectSnapshotBuilder {
	b.data.Set(FieldDescription, StringValue(description))
	return b
}

// Identifier sets the project's URL-safe identifier.
func (b *ProjectSnapshotBuilder) Identifier(identifier string) *ProjectSnapshotBuilder {
	b.data.Set(FieldIdentifier, StringValue(identifier))
	return b
}

// Public sets whether the project is publicly visible.
func (b *ProjectSnapshotBuilder) Public(public bool) *ProjectSnapshotBuilder {
	b.data.Set(FieldPublic, BoolValue(public))
	return b
}

// StatusID sets the project status reference.
func (b *ProjectSnapshotBuilder) StatusID(id int64) *ProjectSnapshotBuilder {
	b.data.Set(FieldStatusID, IntValue(id))
	return b
}

// Build finalizes the snapshot.
func (b *ProjectSnapshotBuilder) Build() Snapshot {
	return b.data
}
