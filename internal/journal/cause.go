package journal

import (
	"fmt"
	"slices"
	"strings"
)

// CauseType classifies what triggered a recorded change.
type CauseType string

// CauseType values.
const (
	CauseUserAction   CauseType = "user_action"
	CauseSystemChange CauseType = "system_change"
	CauseWorkflow     CauseType = "workflow"
	CauseImport       CauseType = "import"
	CauseAPI          CauseType = "api"
	CauseBulkUpdate   CauseType = "bulk_update"
)

// validCauseTypes stores all supported cause classifications.
var validCauseTypes = []CauseType{
	CauseAPI,
	CauseBulkUpdate,
	CauseImport,
	CauseSystemChange,
	CauseUserAction,
	CauseWorkflow,
}

// Cause records why a journal entry exists: a classification plus optional
// free-form context such as a job id or import source. Purely descriptive.
type Cause struct {
	Type    CauseType `json:"cause_type"`
	Context string    `json:"context,omitempty"`
}

// NewCause builds a normalized cause. An empty type defaults to user_action.
func NewCause(t CauseType, context string) Cause {
	t = NormalizeCauseType(t)
	if t == "" {
		t = CauseUserAction
	}
	return Cause{Type: t, Context: strings.TrimSpace(context)}
}

// Normalize returns c with its type canonicalized and defaulted.
func (c Cause) Normalize() Cause {
	return NewCause(c.Type, c.Context)
}

// HasContext reports whether the cause carries non-blank context.
func (c Cause) HasContext() bool {
	return strings.TrimSpace(c.Context) != ""
}

// NormalizeCauseType canonicalizes cause type values.
func NormalizeCauseType(t CauseType) CauseType {
	return CauseType(strings.TrimSpace(strings.ToLower(string(t))))
}

// IsValidCauseType reports whether a value names a supported cause type.
func IsValidCauseType(t CauseType) bool {
	return slices.Contains(validCauseTypes, NormalizeCauseType(t))
}

// ParseCauseType resolves a wire name to its CauseType.
func ParseCauseType(s string) (CauseType, error) {
	t := NormalizeCauseType(CauseType(s))
	if !IsValidCauseType(t) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCauseType, s)
	}
	return t, nil
}

// CauseTypes returns all supported cause types sorted by wire name.
func CauseTypes() []CauseType {
	return slices.Clone(validCauseTypes)
}
