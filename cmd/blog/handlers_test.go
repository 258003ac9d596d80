package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zzguang83325/morm"
	"github.com/zzguang83325/morm/drivers/sqlite"
)

func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()
	ctx := context.Background()
	db, err := morm.Open(ctx, &morm.Config{
		Driver:         morm.DriverType(sqlite.DriverName()),
		Database:       filepath.Join(t.TempDir(), "blog.db"),
		MaxSize:        2,
		StrictRowCount: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := createTables(ctx, db); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	cache := morm.NewLocalCache(0)
	t.Cleanup(func() {
		cache.Close()
		db.Close()
	})
	s := &server{db: db.WithCache(cache, 0), cache: cache}
	return s, s.routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var got map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, got
}

const testPasswd = "7c4a8d09ca3762af61e59520943dc26494f8941b"

func TestRegisterUser(t *testing.T) {
	_, h := newTestServer(t)

	code, user := doJSON(t, h, http.MethodPost, "/api/users",
		`{"name":"Test","email":"Test@Example.com","passwd":"`+testPasswd+`"}`)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if user["email"] != "test@example.com" || user["passwd"] != "******" {
		t.Errorf("unexpected user %v", user)
	}
	if id, _ := user["id"].(string); len(id) != 50 {
		t.Errorf("expected 50-char id, got %q", id)
	}

	_, dup := doJSON(t, h, http.MethodPost, "/api/users",
		`{"name":"Other","email":"test@example.com","passwd":"`+testPasswd+`"}`)
	if dup["error"] != "register:failed" {
		t.Errorf("expected duplicate email error, got %v", dup)
	}

	_, bad := doJSON(t, h, http.MethodPost, "/api/users", `{"name":"x","email":"nope","passwd":"`+testPasswd+`"}`)
	if bad["error"] != "value:invalid" || bad["data"] != "email" {
		t.Errorf("expected invalid email, got %v", bad)
	}

	_, list := doJSON(t, h, http.MethodGet, "/api/users?page=1", "")
	users, _ := list["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %v", list)
	}
	page := list["page"].(map[string]interface{})
	if page["item_count"] != float64(1) || page["page_index"] != float64(1) {
		t.Errorf("unexpected page %v", page)
	}
}

func TestBlogLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	code, blog := doJSON(t, h, http.MethodPost, "/api/blogs",
		`{"name":"Hello","summary":"first post","content":"body","user_name":"alice"}`)
	if code != http.StatusOK {
		t.Fatalf("create status %d", code)
	}
	id := blog["id"].(string)

	_, got := doJSON(t, h, http.MethodGet, "/api/blogs/"+id, "")
	if got["name"] != "Hello" || got["user_name"] != "alice" {
		t.Errorf("unexpected blog %v", got)
	}

	_, got = doJSON(t, h, http.MethodPut, "/api/blogs/"+id, `{"name":"Hello again"}`)
	if got["name"] != "Hello again" || got["summary"] != "first post" {
		t.Errorf("unexpected updated blog %v", got)
	}
	_, got = doJSON(t, h, http.MethodGet, "/api/blogs/"+id, "")
	if got["name"] != "Hello again" {
		t.Errorf("update not visible through find: %v", got)
	}

	_, c := doJSON(t, h, http.MethodPost, "/api/blogs/"+id+"/comments", `{"content":"nice"}`)
	if c["blog_id"] != id {
		t.Errorf("unexpected comment %v", c)
	}
	_, comments := doJSON(t, h, http.MethodGet, "/api/blogs/"+id+"/comments", "")
	if list, _ := comments["comments"].([]interface{}); len(list) != 1 {
		t.Errorf("expected 1 comment, got %v", comments)
	}

	_, list := doJSON(t, h, http.MethodGet, "/api/blogs", "")
	if blogs, _ := list["blogs"].([]interface{}); len(blogs) != 1 {
		t.Errorf("expected 1 blog, got %v", list)
	}

	_, deleted := doJSON(t, h, http.MethodDelete, "/api/blogs/"+id, "")
	if deleted["id"] != id {
		t.Errorf("unexpected delete result %v", deleted)
	}
	_, missing := doJSON(t, h, http.MethodGet, "/api/blogs/"+id, "")
	if missing["error"] != "value:notfound" {
		t.Errorf("expected not found after delete, got %v", missing)
	}
}

func TestCreateBlogValidation(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader(`{"name":"x","summary":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "Missing argument: content" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}

	_, got := doJSON(t, h, http.MethodPost, "/api/blogs", `{"name":" ","summary":"y","content":"z"}`)
	if got["error"] != "value:invalid" || got["data"] != "name" {
		t.Errorf("expected empty name error, got %v", got)
	}
}

func TestPoolEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	_, status := doJSON(t, h, http.MethodGet, "/debug/pool", "")
	pool, _ := status["pool"].(map[string]interface{})
	if pool["max_open_connections"] != float64(2) {
		t.Errorf("unexpected pool status %v", status)
	}
	if cache, _ := status["cache"].(map[string]interface{}); cache["type"] != "LocalCache" {
		t.Errorf("unexpected cache status %v", status)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "morm_pool_max_open_connections{") {
		t.Errorf("unexpected metrics %q", rec.Body.String())
	}
}
