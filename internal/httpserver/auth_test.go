package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	customersvc "aura-taste/internal/service/customer"
)

func serve(env *testEnv, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestSignupHandler_Created(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env, http.MethodPost, "/auth/signup", `{"email":"user@example.com","password":"Abcdefg1"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"user@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSignupHandler_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	env.customers.signErr = customersvc.ErrInvalidSignup

	rec := serve(env, http.MethodPost, "/auth/signup", `{"email":"nope","password":"x"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTokenHandler_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.customers.loginErr = customersvc.ErrInvalidCredentials

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader("grant_type=password&username=ana%40example.com&password=badpass"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTokenHandler_MergesGuestCart(t *testing.T) {
	env := newTestEnv(t)
	guest := map[string]string{sessionHeader: "sess-guest"}
	if rec := serve(env, http.MethodPost, "/cart/lines", `{"productId":"fries","quantity":2}`, guest); rec.Code != http.StatusCreated {
		t.Fatalf("add line: %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader("grant_type=password&username=ana%40example.com&password=Abcdefg1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(sessionHeader, "sess-guest")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"access_token":"access"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = serve(env, http.MethodGet, "/cart", "", map[string]string{"Authorization": "Bearer tok-ana"})
	if !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Fatalf("expected merged cart, got %s", rec.Body.String())
	}
	rec = serve(env, http.MethodGet, "/cart", "", guest)
	if !strings.Contains(rec.Body.String(), `"count":0`) {
		t.Fatalf("expected emptied guest cart, got %s", rec.Body.String())
	}
}

func TestTokenHandler_UnsupportedGrant(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader("grant_type=client_credentials&username=a&password=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMeHandler_UnauthorizedWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env, http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(env, http.MethodGet, "/me", "", map[string]string{sessionHeader: "sess-guest"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a guest, got %d", rec.Code)
	}
}

func TestMeHandler_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer tok-ana"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"ana@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestLogoutHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env, http.MethodPost, "/auth/logout", "", map[string]string{"Authorization": "Bearer tok-ana"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(env.customers.loggedOut) != 1 || env.customers.loggedOut[0] != "tok-ana" {
		t.Fatalf("unexpected logouts %v", env.customers.loggedOut)
	}

	rec = serve(env, http.MethodPost, "/auth/logout", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionHandler_Issues(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env, http.MethodPost, "/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"token":"sess-new"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
