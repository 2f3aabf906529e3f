package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newAuthorizingHandler(t *testing.T, clock func() time.Time, logger *zap.Logger) (*httpHandler, *auth.TokenIssuer) {
	t.Helper()
	tokens, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("authorize-secret"),
		TokenTTL:      time.Minute,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	gate, err := auth.NewGate(auth.GateConfig{Tokens: tokens, Clock: clock})
	if err != nil {
		t.Fatalf("failed to create gate: %v", err)
	}
	return &httpHandler{gate: gate, logger: logger}, tokens
}

func authorize(handler *httpHandler, header string) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/items", http.NoBody)
	if header != "" {
		request.Header.Set("Authorization", header)
	}
	ctx.Request = request
	handler.authorizeRequest(ctx)
	return recorder, ctx
}

func TestAuthorizeRequestLogsExpiredTokenAtInfoLevel(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	core, logs := observer.New(zapcore.DebugLevel)
	handler, tokens := newAuthorizingHandler(t, clock, zap.New(core))

	token, _, err := tokens.Issue(auth.User{ID: 7, Name: "Ada", AuthLevel: 1})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	now = now.Add(time.Hour)

	recorder, _ := authorize(handler, "Bearer "+token)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.InfoLevel {
		t.Fatalf("expected info level for expired token, got %s", entry.Level)
	}
	if entry.Message != "token validation failed" {
		t.Fatalf("unexpected log message: %q", entry.Message)
	}
	hasExpired := false
	for _, field := range entry.Context {
		if field.Type == zapcore.ErrorType && errors.Is(field.Interface.(error), auth.ErrExpiredToken) {
			hasExpired = true
			break
		}
	}
	if !hasExpired {
		t.Fatalf("expected expired token error context, got %v", entry.Context)
	}
}

func TestAuthorizeRequestLogsUnexpectedTokenErrorAtWarnLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler, _ := newAuthorizingHandler(t, time.Now, zap.New(core))

	recorder, _ := authorize(handler, "Bearer invalid-token")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for invalid token, got %s", entries[0].Level)
	}
}

func TestAuthorizeRequestRejectsMissingBearer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler, _ := newAuthorizingHandler(t, time.Now, zap.New(core))

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		recorder, _ := authorize(handler, header)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, recorder.Code)
		}
	}
	if logs.Len() != 0 {
		t.Fatalf("missing tokens should not be logged, got %d entries", logs.Len())
	}
}

func TestAuthorizeRequestStoresResumedGate(t *testing.T) {
	handler, tokens := newAuthorizingHandler(t, time.Now, zap.NewNop())
	token, _, err := tokens.Issue(auth.User{ID: 9, Name: "Guest", AuthLevel: 2})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	recorder, ctx := authorize(handler, "Bearer "+token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected request to pass, got %d", recorder.Code)
	}
	gate := requestGate(ctx)
	if gate == nil {
		t.Fatalf("expected gate in context")
	}
	user, ok := gate.SignedInUser()
	if !ok || user.ID != 9 || user.Name != "Guest" {
		t.Fatalf("unexpected resumed user %#v", user)
	}
	if err := gate.RequireWrite(); !errors.Is(err, auth.ErrInsufficientLevel) {
		t.Fatalf("expected level 2 to be read-only, got %v", err)
	}
	if _, ok := handler.gate.SignedInUser(); ok {
		t.Fatalf("shared gate must stay signed out")
	}
}
