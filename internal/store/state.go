package store

import (
	"slices"

	"todolists/internal/model"
)

// State is the ordered collection of lists owned by one browser session.
//
// Lists and todos are addressed by position. Deleting an entry shifts every later
// entry down by one, so callers must not hold on to an index across a deletion.
type State struct {
	Lists []model.List `json:"lists"`
}

func (s *State) GetList(index int) (*model.List, error) {
	if s == nil || index < 0 || index >= len(s.Lists) {
		return nil, errListNotFound(index)
	}
	return &s.Lists[index], nil
}

func (s *State) GetTodo(listIndex, todoIndex int) (*model.List, *model.Todo, error) {
	l, err := s.GetList(listIndex)
	if err != nil {
		return nil, nil, err
	}
	t, ok := l.FindTodo(todoIndex)
	if !ok {
		return l, nil, errTodoNotFound(todoIndex)
	}
	return l, t, nil
}

func (s *State) CreateList(name string) (model.List, error) {
	if err := ValidateListName(name, s.Lists); err != nil {
		return model.List{}, err
	}
	l := model.List{ID: newID(), Name: name, Todos: []model.Todo{}}
	s.Lists = append(s.Lists, l)
	return l, nil
}

// RenameList overwrites the list name. Renaming to the current name is a no-op
// and reports changed=false.
func (s *State) RenameList(index int, name string) (changed bool, err error) {
	l, err := s.GetList(index)
	if err != nil {
		return false, err
	}
	if l.Name == name {
		return false, nil
	}
	others := make([]model.List, 0, len(s.Lists)-1)
	others = append(others, s.Lists[:index]...)
	others = append(others, s.Lists[index+1:]...)
	if err := ValidateListName(name, others); err != nil {
		return false, err
	}
	l.Name = name
	return true, nil
}

func (s *State) DeleteList(index int) (model.List, error) {
	l, err := s.GetList(index)
	if err != nil {
		return model.List{}, err
	}
	removed := *l
	s.Lists = slices.Delete(s.Lists, index, index+1)
	return removed, nil
}

func (s *State) AddTodo(listIndex int, text string) (model.Todo, error) {
	l, err := s.GetList(listIndex)
	if err != nil {
		return model.Todo{}, err
	}
	if err := ValidateTodoText(text); err != nil {
		return model.Todo{}, err
	}
	t := model.Todo{ID: newID(), Name: text}
	l.Todos = append(l.Todos, t)
	return t, nil
}

func (s *State) DeleteTodo(listIndex, todoIndex int) (model.Todo, error) {
	l, t, err := s.GetTodo(listIndex, todoIndex)
	if err != nil {
		return model.Todo{}, err
	}
	removed := *t
	l.Todos = slices.Delete(l.Todos, todoIndex, todoIndex+1)
	return removed, nil
}

func (s *State) ToggleTodo(listIndex, todoIndex int, completed bool) (model.Todo, error) {
	_, t, err := s.GetTodo(listIndex, todoIndex)
	if err != nil {
		return model.Todo{}, err
	}
	t.Completed = completed
	return *t, nil
}

func (s *State) CompleteAllTodos(listIndex int) error {
	l, err := s.GetList(listIndex)
	if err != nil {
		return err
	}
	for i := range l.Todos {
		l.Todos[i].Completed = true
	}
	return nil
}
