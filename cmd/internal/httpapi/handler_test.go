package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/internal/auth/account"
	"tasktrack/cmd/internal/auth/gate"
	"tasktrack/cmd/internal/task"
	"tasktrack/cmd/security/password"
	"tasktrack/cmd/security/token"
)

func newTestServer(t *testing.T, tasks Tasks) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tcfg := token.DefaultConfig()
	tcfg.Secret = "0123456789abcdef0123456789abcdef"
	tokens, err := token.NewManager(tcfg)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	pcfg := password.DefaultConfig()
	pcfg.BcryptCost = bcrypt.MinCost

	accounts, err := account.New(identity.NewMemoryStore(), pcfg, tokens, account.WithLogger(log))
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	if tasks == nil {
		tasks = task.NewService(task.NewMemoryStore())
	}

	g := gate.New(tokens, gate.WithLogger(log), gate.WithReject(RejectUnauthenticated))
	h, err := NewHandler(log, Config{MaxBodyBytes: 4096}, accounts, tasks, g, gate.UserFrom)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	out, err := io.ReadAll(res.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return res.StatusCode, out
}

func (c *client) login(username, pw string) {
	c.t.Helper()

	code, body := c.do(http.MethodPost, "/login", map[string]string{"username": username, "password": pw})
	if code != http.StatusOK {
		c.t.Fatalf("login %s: status %d body %s", username, code, body)
	}
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" || resp.ExpiresAt.IsZero() {
		c.t.Fatalf("login response missing token: %s", body)
	}
	c.token = resp.Token
}

func (c *client) signup(username, pw string) {
	c.t.Helper()

	code, body := c.do(http.MethodPost, "/signup", map[string]string{"username": username, "password": pw})
	if code != http.StatusCreated {
		c.t.Fatalf("signup %s: status %d body %s", username, code, body)
	}
}

func (c *client) listTasks() []taskResponse {
	c.t.Helper()

	code, body := c.do(http.MethodGet, "/tasks", nil)
	if code != http.StatusOK {
		c.t.Fatalf("list: status %d body %s", code, body)
	}
	var out []taskResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.t.Fatalf("decode list: %v (%s)", err, body)
	}
	return out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, body)
	}
	return resp.Error.Code
}

func TestAliceScenario(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	alice := &client{t: t, base: srv.URL}
	bob := &client{t: t, base: srv.URL}

	alice.signup("alice", "pw123")

	code, body := alice.do(http.MethodPost, "/signup", map[string]string{"username": "alice", "password": "other"})
	if code != http.StatusBadRequest || errorCode(t, body) != "username_taken" {
		t.Fatalf("duplicate signup: %d %s", code, body)
	}

	code, body = alice.do(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "wrong"})
	if code != http.StatusBadRequest || errorCode(t, body) != "invalid_credentials" {
		t.Fatalf("bad login: %d %s", code, body)
	}

	alice.login("alice", "pw123")

	code, body = alice.do(http.MethodPost, "/tasks", map[string]string{"description": "Buy milk", "dueDate": "2024-05-01"})
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, body)
	}
	var created createTaskResponse
	if err := json.Unmarshal(body, &created); err != nil || created.ID <= 0 {
		t.Fatalf("create response: %s (%v)", body, err)
	}

	got := alice.listTasks()
	want := []taskResponse{{ID: created.ID, Description: "Buy milk", Status: "pending", DueDate: "2024-05-01"}}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("list = %+v, want %+v", got, want)
	}

	bob.signup("bob", "hunter2")
	bob.login("bob", "hunter2")

	if tasks := bob.listTasks(); len(tasks) != 0 {
		t.Fatalf("bob sees tasks: %+v", tasks)
	}
	path := "/tasks/" + jsonNumber(created.ID)
	if code, body := bob.do(http.MethodPut, path, map[string]string{"status": "completed"}); code != http.StatusNotFound {
		t.Fatalf("bob update: %d %s", code, body)
	}
	if code, body := bob.do(http.MethodDelete, path, nil); code != http.StatusNotFound {
		t.Fatalf("bob delete: %d %s", code, body)
	}

	code, body = alice.do(http.MethodPut, path, map[string]string{"status": "done"})
	if code != http.StatusBadRequest || errorCode(t, body) != "invalid_input" {
		t.Fatalf("invalid status: %d %s", code, body)
	}
	if got := alice.listTasks(); got[0].Status != "pending" || got[0].DueDate != "2024-05-01" {
		t.Fatalf("rejected update changed the task: %+v", got[0])
	}

	if code, body := alice.do(http.MethodPut, path, map[string]string{"status": "completed"}); code != http.StatusOK {
		t.Fatalf("update: %d %s", code, body)
	}
	got = alice.listTasks()
	if got[0].Status != "completed" || got[0].DueDate != noDueDate {
		t.Fatalf("after update: %+v", got[0])
	}

	if code, body := alice.do(http.MethodDelete, path, nil); code != http.StatusOK {
		t.Fatalf("delete: %d %s", code, body)
	}
	if code, _ := alice.do(http.MethodDelete, path, nil); code != http.StatusNotFound {
		t.Fatalf("second delete: %d", code)
	}
	if got := alice.listTasks(); len(got) != 0 {
		t.Fatalf("expected no tasks, got %+v", got)
	}
}

func TestTaskRoutes_RequireToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	cases := []struct {
		method, path, token string
	}{
		{method: http.MethodGet, path: "/tasks"},
		{method: http.MethodPost, path: "/tasks"},
		{method: http.MethodPut, path: "/tasks/1"},
		{method: http.MethodDelete, path: "/tasks/1"},
		{method: http.MethodGet, path: "/tasks", token: "forged.token.value"},
	}
	for _, tc := range cases {
		c := &client{t: t, base: srv.URL, token: tc.token}
		code, body := c.do(tc.method, tc.path, nil)
		if code != http.StatusUnauthorized || errorCode(t, body) != "unauthorized" {
			t.Fatalf("%s %s: %d %s", tc.method, tc.path, code, body)
		}
	}
}

func TestCreateTask_DueDateHandling(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	c := &client{t: t, base: srv.URL}
	c.signup("alice", "pw123")
	c.login("alice", "pw123")

	if code, body := c.do(http.MethodPost, "/tasks", map[string]string{"description": "Walk dog"}); code != http.StatusCreated {
		t.Fatalf("create without due date: %d %s", code, body)
	}
	if code, body := c.do(http.MethodPost, "/tasks", map[string]string{"description": "Pay rent", "due_date": "2024-06-01"}); code != http.StatusCreated {
		t.Fatalf("create with alias: %d %s", code, body)
	}
	if code, body := c.do(http.MethodPost, "/tasks", map[string]string{"description": "x", "dueDate": "next week"}); code != http.StatusBadRequest {
		t.Fatalf("bad due date: %d %s", code, body)
	}
	if code, body := c.do(http.MethodPost, "/tasks", map[string]string{"description": "   "}); code != http.StatusBadRequest {
		t.Fatalf("blank description: %d %s", code, body)
	}

	got := c.listTasks()
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %+v", got)
	}
	if got[0].DueDate != noDueDate || got[1].DueDate != "2024-06-01" {
		t.Fatalf("unexpected due dates: %+v", got)
	}
	if got[0].ID >= got[1].ID {
		t.Fatalf("expected id order: %+v", got)
	}
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	cases := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/signup", body: `{"username":`, wantCode: 400, wantErr: "invalid_json"},
		{name: "trailing data", method: http.MethodPost, path: "/login", body: `{"username":"a","password":"b"} {}`, wantCode: 400, wantErr: "invalid_json"},
		{name: "missing password", method: http.MethodPost, path: "/signup", body: map[string]string{"username": "a"}, wantCode: 400, wantErr: "invalid_input"},
		{name: "missing username on login", method: http.MethodPost, path: "/login", body: map[string]string{"password": "b"}, wantCode: 400, wantErr: "invalid_input"},
		{name: "oversized body", method: http.MethodPost, path: "/signup", body: `{"username":"` + strings.Repeat("a", 5000) + `","password":"b"}`, wantCode: 400, wantErr: "body_too_large"},
		{name: "unknown user login", method: http.MethodPost, path: "/login", body: map[string]string{"username": "ghost", "password": "b"}, wantCode: 400, wantErr: "invalid_credentials"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &client{t: t, base: srv.URL}
			code, body := c.do(tc.method, tc.path, tc.body)
			if code != tc.wantCode || errorCode(t, body) != tc.wantErr {
				t.Fatalf("got %d %s", code, body)
			}
		})
	}
}

func TestUnknownFieldsAreIgnored(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	c := &client{t: t, base: srv.URL}

	if code, body := c.do(http.MethodPost, "/signup", `{"username":"alice","password":"pw123","admin":true}`); code != http.StatusCreated {
		t.Fatalf("signup with extra field: %d %s", code, body)
	}
	c.login("alice", "pw123")

	if code, body := c.do(http.MethodPost, "/tasks", `{"description":"buy milk","status":"completed"}`); code != http.StatusCreated {
		t.Fatalf("create with extra field: %d %s", code, body)
	}
	if code, body := c.do(http.MethodPut, "/tasks/1", `{"status":"completed","description":"x"}`); code != http.StatusOK {
		t.Fatalf("update with extra field: %d %s", code, body)
	}

	got := c.listTasks()
	if len(got) != 1 || got[0].Description != "buy milk" || got[0].Status != "completed" {
		t.Fatalf("extra fields must not change the task: %+v", got)
	}
}

func TestDescriptionStoredVerbatim(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	c := &client{t: t, base: srv.URL}
	c.signup("alice", "pw123")
	c.login("alice", "pw123")

	if code, body := c.do(http.MethodPost, "/tasks", map[string]string{"description": "  padded  "}); code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, body)
	}
	if got := c.listTasks(); len(got) != 1 || got[0].Description != "  padded  " {
		t.Fatalf("description changed: %+v", got)
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	c := &client{t: t, base: srv.URL}

	if code, body := c.do(http.MethodGet, "/me", nil); code != http.StatusUnauthorized || errorCode(t, body) != "unauthorized" {
		t.Fatalf("me without token: %d %s", code, body)
	}

	c.signup("alice", "pw123")
	c.login("alice", "pw123")

	code, body := c.do(http.MethodGet, "/me", nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d %s", code, body)
	}
	var me profileResponse
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("decode me: %v (%s)", err, body)
	}
	if me.ID <= 0 || me.Username != "alice" || me.CreatedAt.IsZero() {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if strings.Contains(string(body), "$2a$") {
		t.Fatalf("profile leaked the password digest: %s", body)
	}
}

func TestTaskRoutes_NonNumericID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	c := &client{t: t, base: srv.URL}
	c.signup("alice", "pw123")
	c.login("alice", "pw123")

	if code, body := c.do(http.MethodPut, "/tasks/abc", map[string]string{"status": "completed"}); code != http.StatusNotFound {
		t.Fatalf("PUT /tasks/abc: %d %s", code, body)
	}
	if code, body := c.do(http.MethodDelete, "/tasks/-1", nil); code != http.StatusNotFound {
		t.Fatalf("DELETE /tasks/-1: %d %s", code, body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	c := &client{t: t, base: srv.URL}
	if code, _ := c.do(http.MethodGet, "/signup", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /signup: %d", code)
	}
}

type brokenTasks struct{ Tasks }

func (brokenTasks) List(context.Context, identity.UserID) ([]task.Task, error) {
	return nil, apperr.Storage("task.List", errors.New("pq: relation \"tasks\" does not exist"))
}

func TestStorageFailure_DoesNotLeakCause(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, brokenTasks{})
	c := &client{t: t, base: srv.URL}
	c.signup("alice", "pw123")
	c.login("alice", "pw123")

	code, body := c.do(http.MethodGet, "/tasks", nil)
	if code != http.StatusInternalServerError || errorCode(t, body) != "server_error" {
		t.Fatalf("got %d %s", code, body)
	}
	if strings.Contains(string(body), "relation") {
		t.Fatalf("driver error leaked: %s", body)
	}
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(nil, Config{}, nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil dependencies")
	}
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
