package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  AuthConfig
		want bool
	}{
		{name: "empty", cfg: AuthConfig{}, want: false},
		{name: "bearer", cfg: AuthConfig{BearerToken: "tok"}, want: true},
		{name: "basic", cfg: AuthConfig{BasicUser: "u", BasicPass: "p"}, want: true},
		{name: "basic user only", cfg: AuthConfig{BasicUser: "u"}, want: false},
	}
	for _, tt := range tests {
		if got := tt.cfg.IsConfigured(); got != tt.want {
			t.Errorf("%s: IsConfigured() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	cfg := AuthConfig{
		BearerToken: "secret-token",
		BasicUser:   "admin",
		BasicPass:   "hunter2",
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := authMiddleware(cfg)(ok)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{
			name:   "no credentials",
			setup:  func(*http.Request) {},
			status: http.StatusUnauthorized,
		},
		{
			name:   "valid bearer",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") },
			status: http.StatusOK,
		},
		{
			name:   "wrong bearer",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "bearer token as raw header",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "secret-token") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "valid basic",
			setup:  func(r *http.Request) { r.SetBasicAuth("admin", "hunter2") },
			status: http.StatusOK,
		},
		{
			name:   "wrong basic password",
			setup:  func(r *http.Request) { r.SetBasicAuth("admin", "wrong") },
			status: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestAuthAppliesToAPIButNotHealth(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, &stubProvider{})
	g.config.Auth = AuthConfig{BearerToken: "tok"}
	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want public 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("/v1/models status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/models", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authorized /v1/models status = %d", resp.StatusCode)
	}
}
