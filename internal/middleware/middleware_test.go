package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eppdetect/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware("secret", okHandler)

	tests := []struct {
		name   string
		path   string
		cookie string
		status int
	}{
		{"public health", "/api/health", "", http.StatusOK},
		{"public camera", "/api/camera?id=gate", "", http.StatusOK},
		{"api without cookie", "/api/last", "", http.StatusUnauthorized},
		{"page without cookie", "/gallery", "", http.StatusSeeOther},
		{"old cookie value", "/api/last", "true", http.StatusUnauthorized},
		{"valid cookie", "/api/last", AuthToken("secret"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_DisabledWithoutPassword(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthMiddleware("", okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/last", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:3000"}, okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/detect/image", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Expected allowed origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("Expected no allow-origin for unknown origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestLoggingMiddleware_KeepsStatus(t *testing.T) {
	h := LoggingMiddleware(logger.Nop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rec.Code)
	}
}
