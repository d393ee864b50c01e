package sqlxrepos

import (
	"strings"
	"testing"

	"github.com/unigate/unigate/core"
)

func TestOrderBy_mapsKnownFieldsOnly(t *testing.T) {
	columns := map[string]string{
		"status":     "a.status",
		"created_at": "a.created_at",
	}

	got := orderBy([]core.DBOrdering{
		{Field: "status", Ascending: true},
		{Field: "created_at"},
	}, columns, "a.created_at DESC")
	if want := " ORDER BY a.status ASC, a.created_at DESC"; got != want {
		t.Errorf("orderBy() = %q, want %q", got, want)
	}
}

func TestOrderBy_dropsUnmappedFields(t *testing.T) {
	columns := map[string]string{"created_at": "a.created_at"}

	// ORDER BY accepts arbitrary expressions, so an unmapped field must never
	// reach the statement text, not even quoted.
	hostile := []core.DBOrdering{
		{Field: `(SELECT CASE WHEN (SELECT count(*) FROM profile WHERE tenant='other')>0 THEN 1 ELSE 2 END)`, Ascending: true},
		{Field: "created_at; DROP TABLE application"},
		{Field: "unknown_column"},
	}

	got := orderBy(hostile, columns, "a.created_at DESC")
	if want := " ORDER BY a.created_at DESC"; got != want {
		t.Errorf("orderBy() = %q, want the default %q", got, want)
	}
	for _, frag := range []string{"SELECT", "DROP", ";", "unknown_column"} {
		if strings.Contains(got, frag) {
			t.Errorf("orderBy() leaked %q into the clause: %q", frag, got)
		}
	}

	// a recognized field still sorts alongside dropped ones
	got = orderBy(append(hostile, core.DBOrdering{Field: "created_at", Ascending: true}), columns, "a.created_at DESC")
	if want := " ORDER BY a.created_at ASC"; got != want {
		t.Errorf("orderBy() = %q, want %q", got, want)
	}
}
