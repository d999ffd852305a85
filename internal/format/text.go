package format

import (
	"fmt"
	"io"
	"strings"

	"todolists/internal/model"
	"todolists/internal/store"

	"github.com/charmbracelet/lipgloss"
)

var (
	listTitleStyle = lipgloss.NewStyle().Bold(true)
	listDoneStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	countStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	checkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	doneTodoStyle  = lipgloss.NewStyle().Faint(true)
)

// WriteListsText renders lists the way the lists page orders them: incomplete
// lists first, and within each list incomplete todos first. Positions printed
// are the ones used in URLs.
func WriteListsText(w io.Writer, lists []model.List) error {
	if len(lists) == 0 {
		_, err := fmt.Fprintln(w, countStyle.Render("(no lists)"))
		return err
	}

	var b strings.Builder
	for n, il := range store.SortedLists(lists) {
		if n > 0 {
			b.WriteString("\n")
		}
		title := listTitleStyle
		if store.IsListComplete(il.List) {
			title = listDoneStyle
		}
		fmt.Fprintf(&b, "%d. %s %s\n",
			il.Index,
			title.Render(il.List.Name),
			countStyle.Render(fmt.Sprintf("%d/%d", store.CountIncomplete(il.List), store.CountTotal(il.List))),
		)
		for _, it := range store.SortedTodos(il.List) {
			box := "[ ]"
			name := it.Todo.Name
			if it.Todo.Completed {
				box = checkStyle.Render("[x]")
				name = doneTodoStyle.Render(name)
			}
			fmt.Fprintf(&b, "   %d %s %s\n", it.Index, box, name)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
