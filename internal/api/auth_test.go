package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"hotdesk/internal/config"
)

func authedConfig(permissions ...string) config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "key-1", Extra: "extra-1", Name: "reporting", Permissions: permissions},
			},
		},
	}
}

func wrapOK(cfg config.APIConfig) http.Handler {
	auth := NewAuth(cfg)
	return auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doAuthed(t *testing.T, handler http.Handler, path, key, extra string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if extra != "" {
		req.Header.Set("x-api-extra", extra)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthMissingHeaders(t *testing.T) {
	handler := wrapOK(authedConfig())

	rec := doAuthed(t, handler, "/api/v1/requests/1", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthInvalidKey(t *testing.T) {
	handler := wrapOK(authedConfig())

	rec := doAuthed(t, handler, "/api/v1/requests/1", "wrong", "extra-1")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthInvalidExtra(t *testing.T) {
	handler := wrapOK(authedConfig())

	rec := doAuthed(t, handler, "/api/v1/requests/1", "key-1", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthValidKey(t *testing.T) {
	handler := wrapOK(authedConfig())

	rec := doAuthed(t, handler, "/api/v1/requests/1", "key-1", "extra-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthPermissionDenied(t *testing.T) {
	handler := wrapOK(authedConfig("read:reports"))

	rec := doAuthed(t, handler, "/api/v1/requests/1", "key-1", "extra-1")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = doAuthed(t, handler, "/api/v1/reports/responders", "key-1", "extra-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for permitted path, got %d", rec.Code)
	}
}

func TestAuthEmptyPermissionsAllowAll(t *testing.T) {
	handler := wrapOK(authedConfig())

	rec := doAuthed(t, handler, "/api/v1/reports/responders", "key-1", "extra-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimitPerKey(t *testing.T) {
	cfg := authedConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	handler := wrapOK(cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := doAuthed(t, handler, "/api/v1/requests/1", "key-1", "extra-1")
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests within burst, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request limited, got %v", codes)
	}
}

func TestRequiredPermission(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodPost, "/api/v1/requests", "write:requests"},
		{http.MethodPost, "/api/v1/requests/5/decide", "write:requests"},
		{http.MethodGet, "/api/v1/requests/5", "read:requests"},
		{http.MethodGet, "/api/v1/users/100/requests", "read:requests"},
		{http.MethodGet, "/api/v1/reports/responders", "read:reports"},
		{http.MethodGet, "/healthz", ""},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := requiredPermission(req); got != tc.want {
			t.Fatalf("%s %s: expected %q, got %q", tc.method, tc.path, tc.want, got)
		}
	}
}
