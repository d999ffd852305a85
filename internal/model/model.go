package model

type Todo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type List struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Todos []Todo `json:"todos"`
}

// FindTodo returns the todo at index, or false when index is out of range.
func (l *List) FindTodo(index int) (*Todo, bool) {
	if l == nil || index < 0 || index >= len(l.Todos) {
		return nil, false
	}
	return &l.Todos[index], true
}
