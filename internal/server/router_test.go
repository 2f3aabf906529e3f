package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/emberline/stockroom/internal/database"
	"github.com/emberline/stockroom/internal/inventory"
	"github.com/emberline/stockroom/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testEnvironment struct {
	handler  http.Handler
	gate     *auth.Gate
	store    *inventory.Store
	users    *users.Service
	presence *auth.PresenceDispatcher
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "server.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	userService, err := users.NewService(users.ServiceConfig{Database: db, HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("failed to create user service: %v", err)
	}
	ctx := context.Background()
	if _, err := userService.CreateUser(ctx, "Ada", "lovelace", 1); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	if _, err := userService.CreateUser(ctx, "Guest", "visitor", 2); err != nil {
		t.Fatalf("failed to create guest: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{SigningSecret: []byte("server-secret"), TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	gate, err := auth.NewGate(auth.GateConfig{Credentials: userService, Accounts: userService, Tokens: tokens})
	if err != nil {
		t.Fatalf("failed to create gate: %v", err)
	}
	store, err := inventory.NewStore(inventory.StoreConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	presence := auth.NewPresenceDispatcher()

	handler, err := NewHTTPHandler(Dependencies{
		Gate:              gate,
		Inventory:         store,
		Users:             userService,
		Presence:          presence,
		HeartbeatInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return &testEnvironment{handler: handler, gate: gate, store: store, users: userService, presence: presence}
}

func (e *testEnvironment) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, request)
	return recorder
}

func (e *testEnvironment) login(t *testing.T, name, password string) string {
	t.Helper()
	recorder := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"name": name, "password": password})
	if recorder.Code != http.StatusOK {
		t.Fatalf("login %s: unexpected status %d: %s", name, recorder.Code, recorder.Body.String())
	}
	var response loginResponsePayload
	decode(t, recorder, &response)
	if response.TokenType != "Bearer" || response.ExpiresIn <= 0 {
		t.Fatalf("unexpected login response %#v", response)
	}
	return response.AccessToken
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode %q: %v", recorder.Body.String(), err)
	}
}

func validItemBody(description string) map[string]any {
	return map[string]any{
		"description":    description,
		"category":       0,
		"classification": 2,
		"hidden":         0,
		"stock_on_hand":  5,
		"unit_cost":      12.5,
	}
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	env := newTestEnvironment(t)
	recorder := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"name": "Ada", "password": "nope"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	var body map[string]string
	decode(t, recorder, &body)
	if body["message"] != "Invalid credentials." {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnvironment(t)
	for _, path := range []string{"/items", "/shows", "/upcoming", "/users"} {
		if recorder := env.do(t, http.MethodGet, path, "", nil); recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, recorder.Code)
		}
	}
	if recorder := env.do(t, http.MethodGet, "/items", "not-a-token", nil); recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", recorder.Code)
	}
}

func TestCreateListAndUpdateItems(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.login(t, "ada", "lovelace")

	created := env.do(t, http.MethodPost, "/items", token, validItemBody("Comet Cake"))
	if created.Code != http.StatusCreated {
		t.Fatalf("create: unexpected status %d: %s", created.Code, created.Body.String())
	}
	var createdBody struct {
		ID int64 `json:"id"`
	}
	decode(t, created, &createdBody)
	if second := env.do(t, http.MethodPost, "/items", token, validItemBody("Mine")); second.Code != http.StatusCreated {
		t.Fatalf("create second: unexpected status %d", second.Code)
	}

	listed := env.do(t, http.MethodGet, "/items?width=1000", token, nil)
	if listed.Code != http.StatusOK {
		t.Fatalf("list: unexpected status %d", listed.Code)
	}
	var list listResponsePayload
	decode(t, listed, &list)
	if list.Total != 2 || len(list.Rows) != 2 || len(list.Columns) != 11 {
		t.Fatalf("unexpected list %#v", list)
	}
	if list.Rows[0].Cells[0] != "000001" || list.Rows[0].Cells[3] != "Fireworks" || list.Rows[0].Cells[5] != "£12.50" {
		t.Fatalf("unexpected cells %q", list.Rows[0].Cells)
	}
	if description := list.Widths[columnsDescriptionIndex]; description <= 235 {
		t.Fatalf("expected the description column to expand, got %d", description)
	}

	filtered := env.do(t, http.MethodGet, "/items?q=mine", token, nil)
	decode(t, filtered, &list)
	if len(list.Rows) != 1 || list.Rows[0].Cells[2] != "Mine" {
		t.Fatalf("unexpected filtered rows %#v", list.Rows)
	}

	faceted := env.do(t, http.MethodGet, "/items?category=1", token, nil)
	decode(t, faceted, &list)
	if len(list.Rows) != 0 {
		t.Fatalf("expected no rows in category 1, got %#v", list.Rows)
	}

	path := "/items/" + strconv.FormatInt(createdBody.ID, 10)
	updated := env.do(t, http.MethodPut, path, token, map[string]any{"description": "Comet Cake XL", "sku": 999})
	if updated.Code != http.StatusOK {
		t.Fatalf("update: unexpected status %d: %s", updated.Code, updated.Body.String())
	}
	fetched := env.do(t, http.MethodGet, path, token, nil)
	var record map[string]any
	decode(t, fetched, &record)
	if record["description"] != "Comet Cake XL" || record["sku"] != float64(createdBody.ID) {
		t.Fatalf("unexpected record after update %#v", record)
	}

	if missing := env.do(t, http.MethodPut, "/items/404", token, map[string]any{"notes": "x"}); missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown sku, got %d", missing.Code)
	}
}

const columnsDescriptionIndex = 2

func TestCommitErrorsMapToStatusCodes(t *testing.T) {
	env := newTestEnvironment(t)
	admin := env.login(t, "Ada", "lovelace")
	guest := env.login(t, "Guest", "visitor")

	blank := validItemBody("   ")
	recorder := env.do(t, http.MethodPost, "/items", admin, blank)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation, got %d", recorder.Code)
	}
	var validation map[string]any
	decode(t, recorder, &validation)
	if validation["error"] != "validation_failed" || validation["field"] != "description" {
		t.Fatalf("unexpected validation body %#v", validation)
	}
	if summary, _ := validation["summary"].(string); !strings.HasPrefix(summary, "description ") {
		t.Fatalf("expected summary to start with the description failure, got %q", summary)
	}

	blankCategory := validItemBody("Comet")
	blankCategory["category"] = len(database.DefaultCategories) - 1
	decode(t, env.do(t, http.MethodPost, "/items", admin, blankCategory), &validation)
	if validation["field"] != "category" {
		t.Fatalf("expected blank category to fail, got %#v", validation)
	}

	if recorder := env.do(t, http.MethodPost, "/items", guest, validItemBody("Comet")); recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a read-only level, got %d", recorder.Code)
	}

	unknown := validItemBody("Comet")
	unknown["colour"] = "red"
	if recorder := env.do(t, http.MethodPost, "/items", admin, unknown); recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown field, got %d", recorder.Code)
	}

	wrongType := validItemBody("Comet")
	wrongType["stock_on_hand"] = "lots"
	if recorder := env.do(t, http.MethodPost, "/items", admin, wrongType); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a mistyped value, got %d", recorder.Code)
	}

	all, err := env.store.AllItems(context.Background())
	if err != nil || len(all) != 0 {
		t.Fatalf("nothing should have been stored, got %d items (%v)", len(all), err)
	}
}

func TestTokenFollowsAccountChanges(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()
	mallory, err := env.users.CreateUser(ctx, "Mallory", "trusted", 1)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token := env.login(t, "Mallory", "trusted")
	if recorder := env.do(t, http.MethodPost, "/items", token, validItemBody("Comet")); recorder.Code != http.StatusCreated {
		t.Fatalf("expected writer to commit, got %d", recorder.Code)
	}

	if err := env.users.ChangeAuthLevel(ctx, mallory.ID, 2); err != nil {
		t.Fatalf("failed to demote user: %v", err)
	}
	if recorder := env.do(t, http.MethodPost, "/items", token, validItemBody("Mine")); recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion, got %d", recorder.Code)
	}

	if err := env.users.DeleteUser(ctx, mallory.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}
	if recorder := env.do(t, http.MethodPost, "/items", token, validItemBody("Mine")); recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deletion, got %d", recorder.Code)
	}
	if recorder := env.do(t, http.MethodGet, "/items", token, nil); recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected reads to be refused after deletion, got %d", recorder.Code)
	}
}

func TestLogoutPublishesSignOut(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.login(t, "Guest", "visitor")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, cleanup := env.presence.Subscribe(ctx)
	defer cleanup()

	if recorder := env.do(t, http.MethodPost, "/auth/logout", token, nil); recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	select {
	case event := <-stream:
		if event.Kind != auth.PresenceSignedOut || event.User.Name != "Guest" {
			t.Fatalf("unexpected presence event %#v", event)
		}
	case <-ctx.Done():
		t.Fatalf("expected a sign-out event")
	}

	if recorder := env.do(t, http.MethodPost, "/auth/logout", "", nil); recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", recorder.Code)
	}
}

func TestInvalidFilterReturnsBadRequest(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.login(t, "Ada", "lovelace")
	recorder := env.do(t, http.MethodGet, "/items?q=%5B", token, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	var body map[string]string
	decode(t, recorder, &body)
	if body["error"] != "invalid_filter" {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestShowsAndUpcoming(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.login(t, "Ada", "lovelace")

	for _, show := range []map[string]any{
		{"show_title": "Bonfire Night", "show_description": "Village green", "supervisor": "Sam", "date_time": "2026-11-05T19:00:00Z", "complete": false},
		{"show_title": "Harvest Fair", "supervisor": "Sam", "date_time": "2026-09-20T18:00:00Z", "complete": true},
	} {
		if recorder := env.do(t, http.MethodPost, "/shows", token, show); recorder.Code != http.StatusCreated {
			t.Fatalf("create show: unexpected status %d: %s", recorder.Code, recorder.Body.String())
		}
	}

	var list listResponsePayload
	decode(t, env.do(t, http.MethodGet, "/shows", token, nil), &list)
	if len(list.Rows) != 1 || list.Rows[0].Cells[1] != "Bonfire Night" {
		t.Fatalf("closed shows should be hidden, got %#v", list.Rows)
	}
	decode(t, env.do(t, http.MethodGet, "/shows?show_closed=true", token, nil), &list)
	if len(list.Rows) != 2 {
		t.Fatalf("expected every show, got %#v", list.Rows)
	}

	var upcoming struct {
		Entries []inventory.UpcomingEntry `json:"entries"`
		Text    string                    `json:"text"`
	}
	decode(t, env.do(t, http.MethodGet, "/upcoming", token, nil), &upcoming)
	if len(upcoming.Entries) != 1 || upcoming.Entries[0].When != "Thu Nov  5 19:00:00 2026" {
		t.Fatalf("unexpected upcoming entries %#v", upcoming.Entries)
	}
}

func TestListUsersRequiresAdmin(t *testing.T) {
	env := newTestEnvironment(t)
	if recorder := env.do(t, http.MethodGet, "/users", env.login(t, "Guest", "visitor"), nil); recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a guest, got %d", recorder.Code)
	}
	recorder := env.do(t, http.MethodGet, "/users", env.login(t, "Ada", "lovelace"), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", recorder.Code)
	}
	var body struct {
		Users []auth.User `json:"users"`
	}
	decode(t, recorder, &body)
	if len(body.Users) != 2 || body.Users[0].Name != "Ada" {
		t.Fatalf("unexpected users %#v", body.Users)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnvironment(t)
	request := httptest.NewRequest(http.MethodGet, "/items", http.NoBody)
	request.Header.Set(requestIDHeader, "req-42")
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	if recorder.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", recorder.Header().Get(requestIDHeader))
	}
}

func TestNewHTTPHandlerRequiresDependencies(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); err == nil {
		t.Fatalf("expected error without dependencies")
	}
}
