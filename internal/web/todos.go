package web

import (
	"fmt"
	"net/http"
	"strings"

	"todolists/internal/session"
)

func (s *Server) handleTodoCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	listIndex, ok := pathIndex(r, "list_id")
	if !ok {
		s.listNotFound(w, r, sess)
		return
	}
	l, err := sess.GetList(listIndex)
	if err != nil || staleUID(r, "list_uid", l.ID) {
		s.listNotFound(w, r, sess)
		return
	}
	text := strings.TrimSpace(r.PostFormValue("todo"))

	if _, err := sess.AddTodo(listIndex, text); err != nil {
		if !s.flashValidation(w, sess, err) {
			return
		}
		s.render(w, r, sess, "list.html", newListPageVM(*l, listIndex, text))
		return
	}
	sess.Success = fmt.Sprintf("\"%s\" added to the list.", text)
	s.redirect(w, r, sess, listPath(listIndex))
}

// todoTarget resolves the list and todo positions of a todo route. When it
// reports false a redirect has already been written.
func (s *Server) todoTarget(w http.ResponseWriter, r *http.Request, sess *session.Session) (listIndex, todoIndex int, ok bool) {
	listIndex, ok = pathIndex(r, "list_id")
	if !ok {
		s.listNotFound(w, r, sess)
		return 0, 0, false
	}
	l, err := sess.GetList(listIndex)
	if err != nil || staleUID(r, "list_uid", l.ID) {
		s.listNotFound(w, r, sess)
		return 0, 0, false
	}
	todoIndex, ok = pathIndex(r, "todo_id")
	if !ok {
		s.todoNotFound(w, r, sess, listIndex)
		return 0, 0, false
	}
	t, found := l.FindTodo(todoIndex)
	if !found || staleUID(r, "todo_uid", t.ID) {
		s.todoNotFound(w, r, sess, listIndex)
		return 0, 0, false
	}
	return listIndex, todoIndex, true
}

func (s *Server) handleTodoDestroy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	listIndex, todoIndex, ok := s.todoTarget(w, r, sess)
	if !ok {
		return
	}
	removed, err := sess.DeleteTodo(listIndex, todoIndex)
	if err != nil {
		s.todoNotFound(w, r, sess, listIndex)
		return
	}
	sess.Success = fmt.Sprintf("The todo \"%s\" has been deleted.", removed.Name)
	s.redirect(w, r, sess, listPath(listIndex))
}

func (s *Server) handleTodoToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	listIndex, todoIndex, ok := s.todoTarget(w, r, sess)
	if !ok {
		return
	}
	completed := strings.TrimSpace(r.PostFormValue("completed")) == "true"
	t, err := sess.ToggleTodo(listIndex, todoIndex, completed)
	if err != nil {
		s.todoNotFound(w, r, sess, listIndex)
		return
	}
	state := "complete"
	if !completed {
		state = "not complete"
	}
	sess.Success = fmt.Sprintf("The todo \"%s\" has been marked %s.", t.Name, state)
	s.redirect(w, r, sess, listPath(listIndex))
}
