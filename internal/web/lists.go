package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todolists/internal/model"
	"todolists/internal/session"
	"todolists/internal/store"
)

type listRowVM struct {
	Index     int
	ID        string
	Name      string
	Complete  bool
	Remaining int
	Total     int
}

func listRow(l model.List, index int) listRowVM {
	return listRowVM{
		Index:     index,
		ID:        l.ID,
		Name:      l.Name,
		Complete:  store.IsListComplete(l),
		Remaining: store.CountIncomplete(l),
		Total:     store.CountTotal(l),
	}
}

type listsVM struct {
	baseVM
	Lists []listRowVM
}

type newListVM struct {
	baseVM
	Name string
}

type editListVM struct {
	baseVM
	Index       int
	ID          string
	CurrentName string
	Name        string
}

type todoRowVM struct {
	Index     int
	ID        string
	Name      string
	Completed bool
}

type listVM struct {
	baseVM
	listRowVM
	Todos    []todoRowVM
	TodoText string
}

func newListPageVM(l model.List, index int, todoText string) *listVM {
	vm := &listVM{listRowVM: listRow(l, index), TodoText: todoText}
	for _, it := range store.SortedTodos(l) {
		vm.Todos = append(vm.Todos, todoRowVM{
			Index:     it.Index,
			ID:        it.Todo.ID,
			Name:      it.Todo.Name,
			Completed: it.Todo.Completed,
		})
	}
	return vm
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/lists", http.StatusSeeOther)
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	vm := &listsVM{}
	for _, it := range store.SortedLists(sess.Lists) {
		vm.Lists = append(vm.Lists, listRow(it.List, it.Index))
	}
	s.render(w, r, sess, "lists.html", vm)
}

func (s *Server) handleListNew(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.render(w, r, sess, "new_list.html", &newListVM{})
}

func (s *Server) handleListCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.PostFormValue("list_name"))

	if _, err := sess.CreateList(name); err != nil {
		if !s.flashValidation(w, sess, err) {
			return
		}
		s.render(w, r, sess, "new_list.html", &newListVM{Name: name})
		return
	}
	sess.Success = fmt.Sprintf("The list \"%s\" was added successfully.", name)
	s.redirect(w, r, sess, "/lists")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r, "id")
	if !ok {
		s.listNotFound(w, r, sess)
		return
	}
	l, err := sess.GetList(index)
	if err != nil {
		s.listNotFound(w, r, sess)
		return
	}
	s.render(w, r, sess, "list.html", newListPageVM(*l, index, ""))
}

func (s *Server) handleListEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r, "id")
	if !ok {
		s.listNotFound(w, r, sess)
		return
	}
	l, err := sess.GetList(index)
	if err != nil {
		s.listNotFound(w, r, sess)
		return
	}
	s.render(w, r, sess, "edit_list.html", &editListVM{Index: index, ID: l.ID, CurrentName: l.Name, Name: l.Name})
}

func (s *Server) handleListUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r, "id")
	if !ok {
		s.listNotFound(w, r, sess)
		return
	}
	l, err := sess.GetList(index)
	if err != nil || staleUID(r, "list_uid", l.ID) {
		s.listNotFound(w, r, sess)
		return
	}
	current := l.Name
	name := strings.TrimSpace(r.PostFormValue("list_name"))

	changed, err := sess.RenameList(index, name)
	if err != nil {
		if !s.flashValidation(w, sess, err) {
			return
		}
		s.render(w, r, sess, "edit_list.html", &editListVM{Index: index, ID: l.ID, CurrentName: current, Name: name})
		return
	}
	if changed {
		sess.Success = "The list was edited successfully."
	}
	s.redirect(w, r, sess, listPath(index))
}

func (s *Server) handleListDestroy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r, "id")
	if !ok {
		s.listNotFound(w, r, sess)
		return
	}
	l, err := sess.GetList(index)
	if err != nil || staleUID(r, "list_uid", l.ID) {
		s.listNotFound(w, r, sess)
		return
	}
	removed, err := sess.DeleteList(index)
	if err != nil {
		s.listNotFound(w, r, sess)
		return
	}
	sess.Success = fmt.Sprintf("The list \"%s\" has been deleted.", removed.Name)
	s.redirect(w, r, sess, "/lists")
}

func (s *Server) handleListComplete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r, "list_id")
	if !ok {
		s.listNotFound(w, r, sess)
		return
	}
	l, err := sess.GetList(index)
	if err != nil || staleUID(r, "list_uid", l.ID) {
		s.listNotFound(w, r, sess)
		return
	}
	if err := sess.CompleteAllTodos(index); err != nil {
		s.listNotFound(w, r, sess)
		return
	}
	sess.Success = "All todos completed!"
	s.redirect(w, r, sess, listPath(index))
}

// flashValidation stores a validation failure as the session error. Any other
// error is answered with a 500 and reported as false.
func (s *Server) flashValidation(w http.ResponseWriter, sess *session.Session, err error) bool {
	var verr store.ValidationError
	if !errors.As(err, &verr) {
		s.internalError(w, err)
		return false
	}
	sess.Error = verr.Message
	return true
}
