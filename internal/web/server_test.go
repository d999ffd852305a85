package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"todolists/internal/session"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("web-test-secret-web-test-secret!")

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T, configure func(*ServerConfig)) *testClient {
	t.Helper()

	backend, err := session.NewCookieBackend(testSecret, session.CookieOptions{})
	require.NoError(t, err)

	cfg := ServerConfig{Sessions: backend, Markdown: true}
	if configure != nil {
		configure(&cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: ts.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(b)
}

func (c *testClient) get(path string) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func requireRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, to, resp.Header.Get("Location"))
}

func TestServer_RootRedirectsToLists(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	resp, _ := c.get("/")
	requireRedirect(t, resp, "/lists")

	resp, body := c.get("/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok\n", body)
}

func TestServer_GroceriesFlow(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)

	resp, _ := c.post("/lists", url.Values{"list_name": {"  Groceries  "}})
	requireRedirect(t, resp, "/lists")

	_, body := c.get("/lists")
	require.Contains(t, body, `The list &#34;Groceries&#34; was added successfully.`)
	require.Contains(t, body, `href="/lists/0"`)
	require.Contains(t, body, "0 / 0")

	resp, _ = c.post("/lists/0/todos", url.Values{"todo": {"Milk"}})
	requireRedirect(t, resp, "/lists/0")
	resp, _ = c.post("/lists/0/todos", url.Values{"todo": {"Eggs"}})
	requireRedirect(t, resp, "/lists/0")

	resp, _ = c.post("/lists/0/todos/0", url.Values{"completed": {"true"}})
	requireRedirect(t, resp, "/lists/0")

	_, body = c.get("/lists/0")
	require.Contains(t, body, `The todo &#34;Milk&#34; has been marked complete.`)
	require.Contains(t, body, "1 / 2")
	// Incomplete todos render first.
	require.Less(t, strings.Index(body, "<h3>Eggs</h3>"), strings.Index(body, "<h3>Milk</h3>"))
	require.NotContains(t, body, `<section id="todos" class="complete">`)

	resp, _ = c.post("/lists/0/todos/1", url.Values{"completed": {"true"}})
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.Contains(t, body, `<section id="todos" class="complete">`)

	resp, _ = c.post("/lists/0/todos/1", url.Values{"completed": {"false"}})
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.Contains(t, body, `The todo &#34;Eggs&#34; has been marked not complete.`)

	resp, _ = c.post("/lists/0/complete", nil)
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.Contains(t, body, "All todos completed!")
	require.Contains(t, body, "0 / 2")

	resp, _ = c.post("/lists/0/todos/0/destroy", nil)
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.Contains(t, body, `The todo &#34;Milk&#34; has been deleted.`)
	require.Contains(t, body, "0 / 1")

	resp, _ = c.post("/lists/0/destroy", nil)
	requireRedirect(t, resp, "/lists")
	_, body = c.get("/lists")
	require.Contains(t, body, `The list &#34;Groceries&#34; has been deleted.`)
	require.Contains(t, body, "No lists yet.")
}

func TestServer_CreateListValidationRerendersForm(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)

	resp, body := c.post("/lists", url.Values{"list_name": {"   "}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Between 1 and 100 characters")
	require.Contains(t, body, `action="/lists"`)

	resp, _ = c.post("/lists", url.Values{"list_name": {"Groceries"}})
	requireRedirect(t, resp, "/lists")

	resp, body = c.post("/lists", url.Values{"list_name": {"Groceries"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Must be unique name.")
	require.Contains(t, body, `value="Groceries"`)

	// The error was shown by the re-render and must not leak onto the next page.
	_, body = c.get("/lists")
	require.NotContains(t, body, "Must be unique name.")
}

func TestServer_AddTodoValidationPreservesInput(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	c.post("/lists", url.Values{"list_name": {"Work"}})

	long := strings.Repeat("x", 101)
	resp, body := c.post("/lists/0/todos", url.Values{"todo": {long}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Between 1 and 100 characters")
	require.Contains(t, body, `value="`+long+`"`)
	require.Contains(t, body, "0 / 0")
}

func TestServer_RenameList(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	c.post("/lists", url.Values{"list_name": {"Work"}})
	c.post("/lists", url.Values{"list_name": {"Home"}})

	resp, body := c.get("/lists/0/edit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `value="Work"`)

	resp, _ = c.post("/lists/0", url.Values{"list_name": {"Work"}})
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.NotContains(t, body, "edited successfully")

	resp, body = c.post("/lists/0", url.Values{"list_name": {"Home"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Must be unique name.")
	require.Contains(t, body, "Editing 'Work'")

	resp, _ = c.post("/lists/0", url.Values{"list_name": {"Office"}})
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.Contains(t, body, "The list was edited successfully.")
	require.Contains(t, body, "Office")
}

func TestServer_OutOfRangeIndicesRedirect(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)

	for _, path := range []string{"/lists/0", "/lists/7", "/lists/abc", "/lists/-1", "/lists/3/edit"} {
		resp, _ := c.get(path)
		requireRedirect(t, resp, "/lists")
	}
	_, body := c.get("/lists")
	require.Contains(t, body, "The specified list was not found.")
	_, body = c.get("/lists")
	require.NotContains(t, body, "The specified list was not found.")

	c.post("/lists", url.Values{"list_name": {"L"}})
	resp, _ := c.post("/lists/0/todos/4/destroy", nil)
	requireRedirect(t, resp, "/lists/0")
	_, body = c.get("/lists/0")
	require.Contains(t, body, "The specified todo was not found.")

	resp, _ = c.post("/lists/9/complete", nil)
	requireRedirect(t, resp, "/lists")
}

func TestServer_StaleUIDDoesNotMutate(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	c.post("/lists", url.Values{"list_name": {"First"}})
	c.post("/lists", url.Values{"list_name": {"Second"}})

	resp, _ := c.post("/lists/1/destroy", url.Values{"list_uid": {"not-the-second-list"}})
	requireRedirect(t, resp, "/lists")

	_, body := c.get("/lists")
	require.Contains(t, body, "The specified list was not found.")
	require.Contains(t, body, "Second")
}

func TestServer_TamperedCookieStartsFreshSession(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	req, err := http.NewRequest(http.MethodGet, c.base+"/lists", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "bogus.value"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MarkdownNamesAreSanitized(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	c.post("/lists", url.Values{"list_name": {"**Big** <script>alert(1)</script>"}})
	c.post("/lists", url.Values{"list_name": {"- plain"}})

	_, body := c.get("/lists")
	require.Contains(t, body, "<strong>Big</strong>")
	require.NotContains(t, body, "<script>alert(1)</script>")
	require.Contains(t, body, "- plain")
}

func TestServer_NamesRenderAsTyped(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	c.post("/lists", url.Values{"list_name": {"see https://example.com"}})
	c.post("/lists/0/todos", url.Values{"todo": {"Fix <div> layout"}})
	c.post("/lists/0/todos", url.Values{"todo": {"rename __init__"}})

	_, body := c.get("/lists/0")
	require.Contains(t, body, "<h3>Fix &lt;div&gt; layout</h3>")
	require.Contains(t, body, "<h3>rename __init__</h3>")

	_, body = c.get("/lists")
	require.Equal(t, 1, strings.Count(body, `<a href="/lists/0"`))
	require.NotContains(t, body, `href="https://example.com"`)
}

func TestServer_CSRFRejectsMissingToken(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(cfg *ServerConfig) {
		cfg.CSRF = true
		cfg.CSRFKey = []byte("0123456789abcdef0123456789abcdef")
	})

	resp, body := c.get("/lists/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `name="authenticity_token"`)

	resp, _ = c.post("/lists", url.Values{"list_name": {"Groceries"}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNewServer_RequiresBackendAndKey(t *testing.T) {
	t.Parallel()

	_, err := NewServer(ServerConfig{})
	require.Error(t, err)

	backend, err := session.NewCookieBackend(testSecret, session.CookieOptions{})
	require.NoError(t, err)
	_, err = NewServer(ServerConfig{Sessions: backend, CSRF: true, CSRFKey: []byte("short")})
	require.Error(t, err)
}

func TestServer_FlashIsShownOnce(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)

	resp, _ := c.post("/lists", url.Values{"list_name": {"Work"}})
	requireRedirect(t, resp, "/lists")

	_, body := c.get("/lists")
	require.Contains(t, body, `The list &#34;Work&#34; was added successfully.`)

	_, body = c.get("/lists")
	require.NotContains(t, body, "was added successfully")
	require.Contains(t, body, `href="/lists/0"`)
}

func TestNewServer_TemplateSetHasOnlyUsedHelpers(t *testing.T) {
	t.Parallel()

	backend, err := session.NewCookieBackend(testSecret, session.CookieOptions{})
	require.NoError(t, err)
	srv, err := NewServer(ServerConfig{Sessions: backend})
	require.NoError(t, err)

	require.Nil(t, srv.tmpl.Lookup("header_actions"))
	for _, name := range []string{"header", "footer", "lists.html", "list.html", "new_list.html", "edit_list.html"} {
		require.NotNil(t, srv.tmpl.Lookup(name), name)
	}
}
