package journal

// Version is the position of one journal entry in its entity's history.
// For a fixed (kind, journalable id) the accepted versions form the gapless
// sequence 1, 2, 3, ... with version 1 denoting creation. The type itself
// performs no uniqueness enforcement; that contract belongs to the store
// assigning versions under its own serialization.
type Version int32

// InitialVersion is the version of the entry recorded at entity creation.
const InitialVersion Version = 1

// Next returns the version following v. It never decreases or skips.
func (v Version) Next() Version {
	return v + 1
}

// IsInitial reports whether v denotes the creation entry.
func (v Version) IsInitial() bool {
	return v == InitialVersion
}
