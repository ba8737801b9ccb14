package journal

import "errors"

var (
	ErrUnknownKind      = errors.New("unknown journalable kind")
	ErrUnknownCauseType = errors.New("unknown cause type")
	ErrFieldAbsent      = errors.New("field absent")
	ErrValueType        = errors.New("value type mismatch")
)
