package journal

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies the category of domain entity a journal belongs to.
// Each value doubles as the stable wire name used at storage boundaries.
type Kind string

// Kind values.
const (
	KindTask      Kind = "task"
	KindProject   Kind = "project"
	KindUser      Kind = "user"
	KindWikiPage  Kind = "wiki_page"
	KindMeeting   Kind = "meeting"
	KindBudget    Kind = "budget"
	KindDocument  Kind = "document"
	KindTimeEntry Kind = "time_entry"
	KindNews      Kind = "news"
	KindMessage   Kind = "message"
)

// validKinds stores all supported journalable kinds in wire-name order.
var validKinds = []Kind{
	KindBudget,
	KindDocument,
	KindMeeting,
	KindMessage,
	KindNews,
	KindProject,
	KindTask,
	KindTimeEntry,
	KindUser,
	KindWikiPage,
}

// NormalizeKind canonicalizes kind values for storage/lookup.
func NormalizeKind(k Kind) Kind {
	return Kind(strings.TrimSpace(strings.ToLower(string(k))))
}

// IsValidKind reports whether a value names a supported journalable kind.
func IsValidKind(k Kind) bool {
	return slices.Contains(validKinds, NormalizeKind(k))
}

// ParseKind resolves a wire name to its Kind. The legacy spelling "wiki"
// resolves to KindWikiPage.
func ParseKind(s string) (Kind, error) {
	k := NormalizeKind(Kind(s))
	if k == "wiki" {
		k = KindWikiPage
	}
	if !IsValidKind(k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Kinds returns all supported kinds sorted by wire name.
func Kinds() []Kind {
	return slices.Clone(validKinds)
}
