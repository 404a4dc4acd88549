package arrayfield

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAdd_ClonesFirstRowShape(t *testing.T) {
	rows := []Row{
		{"name": "Ann", "phone": "555"},
		{"name": "Bob", "phone": "777"},
	}

	got := Add(rows)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	want := Row{"name": "", "phone": ""}
	if diff := cmp.Diff(want, got[2]); diff != "" {
		t.Fatalf("new row mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 2 {
		t.Fatalf("expected input slice untouched")
	}
}

func TestAdd_EmptyIsNoop(t *testing.T) {
	if got := Add(nil); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestRemove(t *testing.T) {
	rows := []Row{{"k": "a"}, {"k": "b"}, {"k": "c"}}

	cases := []struct {
		name  string
		index int
		want  []string
	}{
		{"first row kept", 0, []string{"a", "b", "c"}},
		{"negative", -1, []string{"a", "b", "c"}},
		{"out of range", 3, []string{"a", "b", "c"}},
		{"middle", 1, []string{"a", "c"}},
		{"last", 2, []string{"a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Remove(rows, tc.index)
			var keys []string
			for _, row := range got {
				keys = append(keys, row["k"].(string))
			}
			if diff := cmp.Diff(tc.want, keys); diff != "" {
				t.Fatalf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRows(t *testing.T) {
	rows, ok := Rows([]any{map[string]any{"a": "1"}})
	if !ok || len(rows) != 1 {
		t.Fatalf("expected generic list to coerce, got %v %v", rows, ok)
	}
	if _, ok := Rows([]any{"scalar"}); ok {
		t.Fatalf("expected scalar list to be rejected")
	}
	if _, ok := Rows("nope"); ok {
		t.Fatalf("expected string to be rejected")
	}
}

func TestInputName(t *testing.T) {
	name := InputName("contacts", 2, "phone")
	if name != "contacts[2].phone" {
		t.Fatalf("unexpected name %q", name)
	}
	id, idx, key, ok := ParseInputName(name)
	if !ok || id != "contacts" || idx != 2 || key != "phone" {
		t.Fatalf("unexpected parse %q %d %q %v", id, idx, key, ok)
	}
	for _, bad := range []string{"contacts", "[0].x", "contacts[x].y", "contacts[0].", "contacts[-1].a"} {
		if _, _, _, ok := ParseInputName(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestKeysSorted(t *testing.T) {
	if diff := cmp.Diff([]string{"a", "b", "c"}, Keys(Row{"c": 1, "a": 1, "b": 1})); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}
