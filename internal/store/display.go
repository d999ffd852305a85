package store

import (
	"slices"

	"todolists/internal/model"
)

// IndexedTodo pairs a todo with its position in the unsorted list. Mutating
// routes address todos by that position, not by display order.
type IndexedTodo struct {
	Todo  model.Todo
	Index int
}

type IndexedList struct {
	List  model.List
	Index int
}

// IsListComplete reports whether l has at least one todo and all of them are done.
func IsListComplete(l model.List) bool {
	return len(l.Todos) > 0 && CountIncomplete(l) == 0
}

func CountIncomplete(l model.List) int {
	n := 0
	for _, t := range l.Todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

func CountTotal(l model.List) int {
	return len(l.Todos)
}

// incompleteFirst orders false before true.
func incompleteFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// SortedTodos returns the todos of l with incomplete ones first. Relative order
// inside each group is the insertion order.
func SortedTodos(l model.List) []IndexedTodo {
	out := make([]IndexedTodo, len(l.Todos))
	for i, t := range l.Todos {
		out[i] = IndexedTodo{Todo: t, Index: i}
	}
	slices.SortStableFunc(out, func(a, b IndexedTodo) int {
		return incompleteFirst(a.Todo.Completed, b.Todo.Completed)
	})
	return out
}

// SortedLists returns lists with incomplete lists before complete ones.
func SortedLists(lists []model.List) []IndexedList {
	out := make([]IndexedList, len(lists))
	for i, l := range lists {
		out[i] = IndexedList{List: l, Index: i}
	}
	slices.SortStableFunc(out, func(a, b IndexedList) int {
		return incompleteFirst(IsListComplete(a.List), IsListComplete(b.List))
	})
	return out
}
