package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/ErlanBelekov/shortly/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
)

type fakeAuthUsecase struct {
	signup func(ctx context.Context, username, password string) (string, error)
	login  func(ctx context.Context, username, password string) (string, error)
	logout func(ctx context.Context, rawToken string) error
}

func (f *fakeAuthUsecase) Signup(ctx context.Context, username, password string) (string, error) {
	return f.signup(ctx, username, password)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, username, password string) (string, error) {
	return f.login(ctx, username, password)
}

func (f *fakeAuthUsecase) Logout(ctx context.Context, rawToken string) error {
	return f.logout(ctx, rawToken)
}

func newAuthEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, false, discardLogger())

	r := gin.New()
	r.SetHTMLTemplate(handler.Templates())
	r.GET("/login", handler.Page("login.html"))
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r
}

func postForm(path, username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func tokenCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == handler.TokenCookie {
			return c
		}
	}
	return nil
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

// ---- Signup ----

func TestSignup_Success_SetsCookieAndRedirectsHome(t *testing.T) {
	var gotUser, gotPass string
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, username, password string) (string, error) {
			gotUser, gotPass = username, password
			return "raw-token", nil
		},
	}

	w := httptest.NewRecorder()
	newAuthEngine(uc).ServeHTTP(w, postForm("/signup", "alice", "pw"))

	assertRedirect(t, w, "/")
	if gotUser != "alice" || gotPass != "pw" {
		t.Errorf("usecase got (%q, %q)", gotUser, gotPass)
	}
	c := tokenCookie(w)
	if c == nil || c.Value != "raw-token" {
		t.Fatalf("token cookie = %+v", c)
	}
	if !c.HttpOnly || c.Path != "/" || c.MaxAge != 0 {
		t.Errorf("cookie attrs = %+v, want HttpOnly session cookie on /", c)
	}
}

func TestSignup_Rejected_BackToSignupWithoutCookie(t *testing.T) {
	for _, err := range []error{domain.ErrUsernameTaken, domain.ErrInvalidCredentialsInput} {
		uc := &fakeAuthUsecase{
			signup: func(_ context.Context, _, _ string) (string, error) { return "", err },
		}

		w := httptest.NewRecorder()
		newAuthEngine(uc).ServeHTTP(w, postForm("/signup", "alice", "pw"))

		assertRedirect(t, w, "/signup")
		if tokenCookie(w) != nil {
			t.Errorf("%v: cookie set on rejected signup", err)
		}
	}
}

func TestSignup_StoreError_Returns500WithoutCookie(t *testing.T) {
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, _, _ string) (string, error) { return "", errors.New("db down") },
	}

	w := httptest.NewRecorder()
	newAuthEngine(uc).ServeHTTP(w, postForm("/signup", "alice", "pw"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if tokenCookie(w) != nil {
		t.Error("cookie set on failed signup")
	}
}

// ---- Login ----

func TestLogin_Outcomes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "/"},
		{"unknown user", domain.ErrUserNotFound, "/signup"},
		{"wrong password", domain.ErrInvalidCredentials, "/login"},
		{"empty input", domain.ErrInvalidCredentialsInput, "/login"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &fakeAuthUsecase{
				login: func(_ context.Context, _, _ string) (string, error) {
					if tc.err != nil {
						return "", tc.err
					}
					return "raw-token", nil
				},
			}

			w := httptest.NewRecorder()
			newAuthEngine(uc).ServeHTTP(w, postForm("/login", "alice", "pw"))

			assertRedirect(t, w, tc.want)
			if got := tokenCookie(w) != nil; got != (tc.err == nil) {
				t.Errorf("cookie set = %v, want %v", got, tc.err == nil)
			}
		})
	}
}

func TestLogin_StoreError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (string, error) { return "", errors.New("db down") },
	}

	w := httptest.NewRecorder()
	newAuthEngine(uc).ServeHTTP(w, postForm("/login", "alice", "pw"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---- Logout ----

func TestLogout_RevokesCookieTokenAndClearsIt(t *testing.T) {
	var revoked string
	uc := &fakeAuthUsecase{
		logout: func(_ context.Context, raw string) error {
			revoked = raw
			return nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: handler.TokenCookie, Value: "raw-token"})
	newAuthEngine(uc).ServeHTTP(w, req)

	assertRedirect(t, w, "/login")
	if revoked != "raw-token" {
		t.Errorf("revoked %q, want raw-token", revoked)
	}
	c := tokenCookie(w)
	if c == nil || c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want cleared", c)
	}
}

func TestLogout_WithoutCookie_StillRedirects(t *testing.T) {
	var revoked = "unset"
	uc := &fakeAuthUsecase{
		logout: func(_ context.Context, raw string) error {
			revoked = raw
			return nil
		},
	}

	w := httptest.NewRecorder()
	newAuthEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assertRedirect(t, w, "/login")
	if revoked != "" {
		t.Errorf("revoked %q, want empty token", revoked)
	}
}

// ---- Pages ----

func TestPage_RendersLoginForm(t *testing.T) {
	w := httptest.NewRecorder()
	newAuthEngine(&fakeAuthUsecase{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `action="/login"`) {
		t.Errorf("login form missing from body: %s", w.Body.String())
	}
}
