package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"todolists/internal/session"

	"github.com/charmbracelet/log"
	"github.com/gorilla/csrf"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

const csrfFieldName = "authenticity_token"

type ServerConfig struct {
	Sessions session.Backend
	Logger   *log.Logger

	// CSRF enables gorilla/csrf form protection. CSRFKey must be 32 bytes.
	CSRF    bool
	CSRFKey []byte

	// Secure marks cookies Secure and expects TLS in front of the server.
	Secure bool

	Compress bool

	// Markdown renders list and todo names as inline markdown.
	Markdown bool
}

type Server struct {
	cfg      ServerConfig
	tmpl     *template.Template
	sessions session.Backend
	logger   *log.Logger
	md       *markdownRenderer
	compress func(http.Handler) http.Handler
}

type baseVM struct {
	Error     string
	Success   string
	CSRFField template.HTML
}

func (b *baseVM) setBase(v baseVM) { *b = v }

type pageVM interface {
	setBase(baseVM)
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("web: session backend is nil")
	}
	if cfg.CSRF && len(cfg.CSRFKey) != 32 {
		return nil, errors.New("web: csrf key must be 32 bytes")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	srv := &Server{
		cfg:      cfg,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		md:       newMarkdownRenderer(cfg.Markdown),
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"md":        srv.md.inline,
		"mdNoLinks": srv.md.inlineNoLinks,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	srv.tmpl = tmpl

	if cfg.Compress {
		compress, err := newCompressor()
		if err != nil {
			return nil, err
		}
		srv.compress = compress
	}
	return srv, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /lists", s.handleLists)
	mux.HandleFunc("GET /lists/new", s.handleListNew)
	mux.HandleFunc("POST /lists", s.handleListCreate)
	mux.HandleFunc("GET /lists/{id}", s.handleList)
	mux.HandleFunc("GET /lists/{id}/edit", s.handleListEdit)
	mux.HandleFunc("POST /lists/{id}", s.handleListUpdate)
	mux.HandleFunc("POST /lists/{id}/destroy", s.handleListDestroy)
	mux.HandleFunc("POST /lists/{list_id}/todos", s.handleTodoCreate)
	mux.HandleFunc("POST /lists/{list_id}/todos/{todo_id}/destroy", s.handleTodoDestroy)
	mux.HandleFunc("POST /lists/{list_id}/todos/{todo_id}", s.handleTodoToggle)
	mux.HandleFunc("POST /lists/{list_id}/complete", s.handleListComplete)

	var h http.Handler = mux
	if s.cfg.CSRF {
		protect := csrf.Protect(s.cfg.CSRFKey,
			csrf.FieldName(csrfFieldName),
			csrf.Path("/"),
			csrf.Secure(s.cfg.Secure),
			csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
		)
		h = plaintextWhenInsecure(s.cfg.Secure, protect(h))
	}
	if s.compress != nil {
		h = s.compress(h)
	}
	return s.logRequests(h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn("csrf check failed", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "forbidden", http.StatusForbidden)
}

// loadSession returns the request's session. A cookie that fails verification
// is replaced by an empty session.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Load(r.Context(), r)
	if errors.Is(err, session.ErrInvalid) {
		s.logger.Warn("discarding session", "err", err)
		return session.New(), true
	}
	if err != nil {
		s.internalError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// render consumes the session's flash messages into the page, saves the session
// and writes the template.
func (s *Server) render(w http.ResponseWriter, r *http.Request, sess *session.Session, name string, vm pageVM) {
	errMsg, success := sess.Flash()
	vm.setBase(baseVM{
		Error:     errMsg,
		Success:   success,
		CSRFField: csrf.TemplateField(r),
	})
	html, err := s.renderTemplate(name, vm)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, to string) {
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.internalError(w, err)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("internal error", "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

const (
	msgListNotFound = "The specified list was not found."
	msgTodoNotFound = "The specified todo was not found."
)

func (s *Server) listNotFound(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Error = msgListNotFound
	s.redirect(w, r, sess, "/lists")
}

func (s *Server) todoNotFound(w http.ResponseWriter, r *http.Request, sess *session.Session, listIndex int) {
	sess.Error = msgTodoNotFound
	s.redirect(w, r, sess, listPath(listIndex))
}

// pathIndex parses a non-negative position from the named path segment.
func pathIndex(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.PathValue(name)))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// staleUID reports whether the form names a different entity than the one now
// at the addressed position. Forms without the field are not checked.
func staleUID(r *http.Request, field, id string) bool {
	v := strings.TrimSpace(r.PostFormValue(field))
	return v != "" && v != id
}

func listPath(index int) string {
	return "/lists/" + strconv.Itoa(index)
}
