package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(t *testing.T, origins []string, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(corsMiddleware(origins...))
	router.OPTIONS("/items", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodOptions, "/items", http.NoBody)
	request.Header.Set("Origin", origin)
	request.Header.Set("Access-Control-Request-Method", http.MethodPut)
	request.Header.Set("Access-Control-Request-Headers", "Authorization, X-Request-ID")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestCORSMiddlewareAllowsRequestHeaders(t *testing.T) {
	recorder := preflight(t, nil, "https://app.example.com")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}

	allowHeaders := strings.ToLower(recorder.Header().Get("Access-Control-Allow-Headers"))
	for _, header := range []string{"authorization", "x-request-id"} {
		if !strings.Contains(allowHeaders, header) {
			t.Fatalf("expected Access-Control-Allow-Headers to include %s, got %q", header, allowHeaders)
		}
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected any origin to be allowed, got %q", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("credentials must not be allowed for every origin")
	}
}

func TestCORSMiddlewareRestrictsConfiguredOrigins(t *testing.T) {
	allowed := preflight(t, []string{"https://stock.example.com"}, "https://stock.example.com")
	if allowed.Header().Get("Access-Control-Allow-Origin") != "https://stock.example.com" {
		t.Fatalf("expected configured origin to be allowed, got %q", allowed.Header().Get("Access-Control-Allow-Origin"))
	}
	if allowed.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials for a configured origin")
	}

	denied := preflight(t, []string{"https://stock.example.com"}, "https://elsewhere.example.com")
	if denied.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin to be rejected, got %d", denied.Code)
	}
}
