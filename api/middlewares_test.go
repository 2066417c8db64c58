package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGateRejectsMissingOrMalformedHeader(t *testing.T) {
	app := newTestApplication()
	h := composeRoutes(app)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Token abcdef"},
		{"scheme only", "Bearer"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/todo", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestGateRejectsExpiredToken(t *testing.T) {
	app := newTestApplication()
	h := composeRoutes(app)
	registerAndLogin(t, h, "alice", "pw1")
	u, err := app.storage.getUserByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}

	expiredCfg := app.config.jwt
	expiredCfg.expiresInMinutes = -1
	token, err := issueToken(expiredCfg, u)
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, h, http.MethodGet, "/todo", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGateRejectsForeignToken(t *testing.T) {
	app := newTestApplication()
	h := composeRoutes(app)
	registerAndLogin(t, h, "alice", "pw1")
	u, err := app.storage.getUserByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(cfg *jwtConfig)
	}{
		{"different secret", func(cfg *jwtConfig) { cfg.secret = []byte("some-other-secret") }},
		{"different issuer", func(cfg *jwtConfig) { cfg.issuer = "someone-else" }},
		{"different audience", func(cfg *jwtConfig) { cfg.audience = "other-clients" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := app.config.jwt
			tc.mutate(&cfg)
			token, err := issueToken(cfg, u)
			if err != nil {
				t.Fatal(err)
			}
			rec := doRequest(t, h, http.MethodGet, "/todo", token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestGateAdmitsValidToken(t *testing.T) {
	app := newTestApplication()
	h := composeRoutes(app)
	token := registerAndLogin(t, h, "alice", "pw1")

	rec := doRequest(t, h, http.MethodGet, "/todo", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
}
