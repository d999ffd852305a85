package format

import (
	"bytes"
	"strings"
	"testing"

	"todolists/internal/model"
)

func TestWriteListsText_OrdersLikeThePages(t *testing.T) {
	t.Parallel()

	lists := []model.List{
		{ID: "a", Name: "Done", Todos: []model.Todo{{ID: "t1", Name: "Ship", Completed: true}}},
		{ID: "b", Name: "Groceries", Todos: []model.Todo{
			{ID: "t2", Name: "Milk", Completed: true},
			{ID: "t3", Name: "Eggs"},
		}},
	}

	var b bytes.Buffer
	if err := WriteListsText(&b, lists); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := b.String()

	if strings.Index(out, "Groceries") > strings.Index(out, "Done") {
		t.Fatalf("expected incomplete list first:\n%s", out)
	}
	if strings.Index(out, "Eggs") > strings.Index(out, "Milk") {
		t.Fatalf("expected incomplete todo first:\n%s", out)
	}
	if !strings.Contains(out, "1. ") || !strings.Contains(out, "0. ") {
		t.Fatalf("expected url positions in output:\n%s", out)
	}
	if !strings.Contains(out, "1/2") {
		t.Fatalf("expected remaining/total count:\n%s", out)
	}
}

func TestWriteListsText_Empty(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	if err := WriteListsText(&b, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(b.String(), "no lists") {
		t.Fatalf("unexpected output: %q", b.String())
	}
}
