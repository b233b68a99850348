// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// The CMS is an httptest server; tests that need Valkey are skipped when it
// is unavailable.
package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"schoolsite/internal/catalog"
	"schoolsite/internal/content"
	"schoolsite/internal/middleware"
	"schoolsite/internal/normalize"
	"schoolsite/internal/notify"
	"schoolsite/internal/render"
	"schoolsite/internal/session"
)

// testNow is the fixed clock of handler tests.
var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

const testVisitor = "visitor-1"

var cmsRecords = map[string]string{
	"/api/events": `{"data":[
		{"id":1,"title":"Science Fair","date":"2026-10-20","time":"10:00","location":"Gym","description":"Student projects on display.","category":"Academic","featured":true},
		{"id":2,"attributes":{"title":"Football Final","date":"2026-11-02","location":"Main Field","category":"Sports"}},
		{"id":3,"title":"Art Night","date":"2026-09-01","category":"Cultural"}
	]}`,
	"/api/events/1": `{"data":{"id":1,"title":"Science Fair","date":"2026-10-20","location":"Gym","description":"Student projects on display.","category":"Academic","featured":true}}`,
	"/api/news": `{"data":[
		{"id":10,"title":"New Library Opens","content":"<p>The library is open.</p>","author":"Ms. Reed","publishDate":"2026-10-10T09:00:00.000Z","category":"announcements","viewCount":5},
		{"id":11,"attributes":{"title":"Chess Champions","content":"Our team won the regional final.","publishDate":"2026-09-01T09:00:00.000Z","category":"achievements"}}
	]}`,
	"/api/galleries": `{"data":[
		{"id":20,"title":"Sports Day","images":[{"url":"/uploads/a.jpg"},{"url":"/uploads/b.jpg","alternativeText":"Relay"}]},
		{"id":21,"title":"Empty Album","images":[]}
	]}`,
}

// fakeCMS serves cmsRecords. Paths listed in failing answer 500.
type fakeCMS struct {
	srv *httptest.Server

	mu      sync.Mutex
	failing map[string]bool
	hits    map[string]int
}

func newFakeCMS(t *testing.T) *fakeCMS {
	t.Helper()
	f := &fakeCMS{failing: make(map[string]bool), hits: make(map[string]int)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCMS) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	failing := f.failing[r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failing:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"status":500,"message":"Internal Server Error"}}`))
	case r.URL.Path == "/api/auth/local":
		f.login(w, r)
	case r.URL.Path == "/api/news/42":
		if r.Header.Get("Authorization") != "Bearer member-token" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"data":null,"error":{"status":404,"message":"Not Found"}}`))
			return
		}
		w.Write([]byte(`{"data":{"id":42,"title":"Members Newsletter","content":"For families only.","category":"announcements"}}`))
	default:
		body, ok := cmsRecords[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"data":null,"error":{"status":404,"message":"Not Found"}}`))
			return
		}
		w.Write([]byte(body))
	}
}

func (f *fakeCMS) login(w http.ResponseWriter, r *http.Request) {
	var buf strings.Builder
	_, _ = io.Copy(&buf, r.Body)
	if !strings.Contains(buf.String(), `"password":"secret"`) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"status":400,"message":"Invalid identifier or password"}}`))
		return
	}
	w.Write([]byte(`{"jwt":"member-token","user":{"id":7,"username":"parent","email":"parent@school.test"}}`))
}

func (f *fakeCMS) fail(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[path] = true
}

func (f *fakeCMS) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	CMS      *fakeCMS
	Client   *content.Client
	Catalog  *catalog.Catalog
	Notifier *notify.Center
	Renderer *render.Renderer
	Public   *Public
	Auth     *Auth
}

// newTestEnv wires the handlers against a fake CMS without Valkey: the
// page cache and session store are disabled.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cms := newFakeCMS(t)
	notifier := notify.NewCenter(5 * time.Second)
	client := content.New(content.Config{
		BaseURL:  cms.srv.URL + "/api",
		Timeout:  2 * time.Second,
		Notifier: notifier,
	})
	cat := catalog.New(client, normalize.New(cms.srv.URL))

	renderer, err := render.New("Test School")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	public := NewPublic(renderer, cat, client, notifier, nil, nil, 9)
	public.now = func() time.Time { return testNow }

	return &testEnv{
		CMS:      cms,
		Client:   client,
		Catalog:  cat,
		Notifier: notifier,
		Renderer: renderer,
		Public:   public,
		Auth:     NewAuth(renderer, nil, client, notifier),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// newRequest builds a request carrying the test visitor id.
func newRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req.WithContext(notify.WithVisitor(req.Context(), testVisitor))
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
