package journal

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("  Task ")
	if err != nil {
		t.Fatalf("ParseKind() error = %v", err)
	}
	if k != KindTask {
		t.Fatalf("expected task, got %q", k)
	}
	if _, err := ParseKind("transmission"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKindWikiAlias(t *testing.T) {
	k, err := ParseKind("wiki")
	if err != nil {
		t.Fatalf("ParseKind() error = %v", err)
	}
	if k != KindWikiPage {
		t.Fatalf("expected wiki_page, got %q", k)
	}
}

func TestKindWireNamesTotalAndInjective(t *testing.T) {
	seen := map[Kind]struct{}{}
	for _, k := range Kinds() {
		if !IsValidKind(k) {
			t.Fatalf("kind %q not valid", k)
		}
		parsed, err := ParseKind(string(k))
		if err != nil {
			t.Fatalf("ParseKind(%q) error = %v", k, err)
		}
		if parsed != k {
			t.Fatalf("round trip changed %q to %q", k, parsed)
		}
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate wire name %q", k)
		}
		seen[k] = struct{}{}
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 kinds, got %d", len(seen))
	}
}

func TestParseCauseType(t *testing.T) {
	ct, err := ParseCauseType(" API ")
	if err != nil {
		t.Fatalf("ParseCauseType() error = %v", err)
	}
	if ct != CauseAPI {
		t.Fatalf("expected api, got %q", ct)
	}
	if _, err := ParseCauseType("gremlins"); !errors.Is(err, ErrUnknownCauseType) {
		t.Fatalf("expected ErrUnknownCauseType, got %v", err)
	}
}

func TestNewCauseDefaults(t *testing.T) {
	c := NewCause("", "  job-42 ")
	if c.Type != CauseUserAction {
		t.Fatalf("expected default user_action, got %q", c.Type)
	}
	if c.Context != "job-42" {
		t.Fatalf("unexpected context %q", c.Context)
	}
	if !c.HasContext() {
		t.Fatal("expected HasContext to be true")
	}
	var zero Cause
	if zero.Normalize().Type != CauseUserAction {
		t.Fatalf("zero cause should normalize to user_action, got %q", zero.Normalize().Type)
	}
}
