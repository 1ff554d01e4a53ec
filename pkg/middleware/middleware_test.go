package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/slate/pkg/middleware"
)

func TestChainOrder(t *testing.T) {
	var order []string
	var mw middleware.Chain

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if diff := cmp.Diff([]string{"first", "second", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://localhost:3000"},
		AllowCredentials: true,
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	wildcard := &middleware.CORSConfig{Enabled: true, Origins: []string{"*"}}
	if err := wildcard.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	tests := []struct {
		name        string
		cfg         *middleware.CORSConfig
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantMaxAge  string
		wantCreds   string
		wantReached bool
	}{
		{"disabled", &middleware.CORSConfig{}, "GET", "http://localhost:3000", false, http.StatusOK, "", "", "", true},
		{"allowed origin", cfg, "GET", "http://localhost:3000", false, http.StatusOK, "http://localhost:3000", "", "true", true},
		{"disallowed origin", cfg, "GET", "http://evil.example", false, http.StatusOK, "", "", "", true},
		{"preflight", cfg, "OPTIONS", "http://localhost:3000", true, http.StatusNoContent, "http://localhost:3000", "3600", "true", false},
		{"preflight disallowed", cfg, "OPTIONS", "http://evil.example", true, http.StatusNoContent, "", "", "", false},
		{"plain options reaches handler", cfg, "OPTIONS", "http://localhost:3000", false, http.StatusOK, "http://localhost:3000", "", "true", true},
		{"wildcard echoes origin", wildcard, "GET", "http://any.example", false, http.StatusOK, "http://any.example", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := middleware.CORS(tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/scripts", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if reached != tt.wantReached {
				t.Errorf("handler reached: got %v, want %v", reached, tt.wantReached)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin: got %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != tt.wantMaxAge {
				t.Errorf("max-age: got %q, want %q", got, tt.wantMaxAge)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("allow-credentials: got %q, want %q", got, tt.wantCreds)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("done"))
	}))

	t.Run("generates request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/scripts", nil))

		id := rec.Header().Get(middleware.RequestIDHeader)
		if id == "" {
			t.Fatal("missing request id header")
		}
		out := buf.String()
		for _, want := range []string{"status=201", "bytes=4", "request_id=" + id, "uri=/api/scripts"} {
			if !strings.Contains(out, want) {
				t.Errorf("log output missing %q: %s", want, out)
			}
		}
	})

	t.Run("reuses incoming request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
			t.Errorf("request id: got %q, want abc-123", got)
		}
	})
}

func TestRecover(t *testing.T) {
	handler := middleware.Recover(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestCORSConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.example, ,http://b.example")
	t.Setenv("TEST_CORS_MAX_AGE", "60")

	cfg := middleware.CORSConfig{}
	err := cfg.Finalize(&middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
		MaxAge:  "TEST_CORS_MAX_AGE",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled: got false")
	}
	if diff := cmp.Diff([]string{"http://a.example", "http://b.example"}, cfg.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.MaxAge != 60 {
		t.Errorf("max_age: got %d, want 60", cfg.MaxAge)
	}
	if len(cfg.AllowedHeaders) != 3 {
		t.Errorf("allowed headers: got %v", cfg.AllowedHeaders)
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{Origins: []string{"http://a.example"}, MaxAge: 3600}
	base.Merge(&middleware.CORSConfig{Enabled: true, MaxAge: 60})

	if !base.Enabled || base.MaxAge != 60 {
		t.Errorf("merge: got %+v", base)
	}
	if len(base.Origins) != 1 {
		t.Errorf("nil origins overwrote base: %v", base.Origins)
	}
}
