package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"schoolsite/internal/session"
)

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Auth.LoginPage(rec, newRequest(http.MethodGet, "/login?next=/news/42", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `value="/news/42"`) {
		t.Error("login form should carry the next path")
	}
}

func TestLoginSubmitRejected(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantText   string
	}{
		{
			name:       "missing fields",
			form:       url.Values{"identifier": {"parent@school.test"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantText:   "Email and password are required.",
		},
		{
			name:       "wrong password",
			form:       url.Values{"identifier": {"parent@school.test"}, "password": {"nope"}},
			wantStatus: http.StatusUnauthorized,
			wantText:   "Invalid email or password.",
		},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Auth.LoginSubmit(rec, newRequest(http.MethodPost, "/login", tt.form.Encode()))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.wantText) {
				t.Errorf("body should contain %q", tt.wantText)
			}
			if !strings.Contains(body, `value="parent@school.test"`) {
				t.Error("identifier should be kept")
			}
		})
	}
}

func TestLoginSubmitCMSDown(t *testing.T) {
	env := newTestEnv(t)
	env.CMS.fail("/api/auth/local")

	form := url.Values{"identifier": {"parent@school.test"}, "password": {"secret"}}
	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest(http.MethodPost, "/login", form.Encode()))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)
	sessions := session.NewStore(testValkeyClient(t), false)
	env.Auth.sessions = sessions

	form := url.Values{"identifier": {"parent@school.test"}, "password": {"secret"}, "next": {"/news"}}
	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest(http.MethodPost, "/login", form.Encode()))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/news" {
		t.Fatalf("got %d to %q, want redirect to /news", rec.Code, rec.Header().Get("Location"))
	}

	follow := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		follow.AddCookie(c)
	}
	data, err := sessions.Get(context.Background(), follow)
	if err != nil || data == nil {
		t.Fatalf("session lookup: %v, %v", data, err)
	}
	if data.Token != "member-token" || data.Username != "parent" || !data.LoggedIn() {
		t.Errorf("session = %+v", data)
	}

	out := httptest.NewRecorder()
	env.Auth.Logout(out, follow.WithContext(ctxWithSession(follow.Context(), data)))
	if out.Code != http.StatusSeeOther || out.Header().Get("Location") != "/" {
		t.Errorf("logout: got %d to %q", out.Code, out.Header().Get("Location"))
	}
	if data, _ := sessions.Get(context.Background(), follow); data != nil {
		t.Error("session should be gone after logout")
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                    "/",
		"/news/12":            "/news/12",
		"https://evil.test/":  "/",
		"//evil.test":         "/",
		"/\\evil.test":        "/",
		"news":                "/",
		"/events?category=Sp": "/events?category=Sp",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
