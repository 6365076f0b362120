package group

import (
	"strings"
	"testing"
)

func TestNewGroupID(t *testing.T) {
	t.Parallel()

	id := NewGroupID("  project x ")
	if !strings.HasPrefix(id, "project_x_") {
		t.Fatalf("id = %q, want prefix %q", id, "project_x_")
	}
	suffix := strings.TrimPrefix(id, "project_x_")
	if len(suffix) != 32 {
		t.Fatalf("suffix length = %d, want 32", len(suffix))
	}
	if strings.Contains(suffix, "-") {
		t.Fatalf("suffix %q should contain no dashes", suffix)
	}

	if NewGroupID("project x") == NewGroupID("project x") {
		t.Fatal("ids for the same name should differ")
	}
}
