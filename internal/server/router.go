package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/emberline/stockroom/internal/editing"
	"github.com/emberline/stockroom/internal/records"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gateContextKey      = "stockroom_gate"
	requestIDContextKey = "stockroom_request_id"
	requestIDHeader     = "X-Request-ID"
)

var (
	errMissingGate          = errors.New("auth gate dependency required")
	errMissingInventory     = errors.New("inventory dependency required")
	errMissingUsers         = errors.New("user directory dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// Inventory is the persistence the HTTP host reads and commits through.
type Inventory interface {
	AllItems(ctx context.Context) ([]*records.Record, error)
	Item(ctx context.Context, sku int64) (*records.Record, error)
	Shows(ctx context.Context, includeComplete bool) ([]*records.Record, error)
	Show(ctx context.Context, id int64) (*records.Record, error)
	Categories(ctx context.Context) ([]string, error)
	Classifications(ctx context.Context) ([]string, error)
	ItemPersister() editing.Persister
	ShowPersister() editing.Persister
}

// UserDirectory lists accounts for administrators.
type UserDirectory interface {
	Users(ctx context.Context) ([]auth.User, error)
}

type Dependencies struct {
	Gate           *auth.Gate
	Inventory      Inventory
	Users          UserDirectory
	Presence       *auth.PresenceDispatcher
	AllowedOrigins []string
	Logger         *zap.Logger
	// HeartbeatInterval spaces keep-alive events on the presence stream.
	HeartbeatInterval time.Duration
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Gate == nil {
		return nil, errMissingGate
	}
	if deps.Inventory == nil {
		return nil, errMissingInventory
	}
	if deps.Users == nil {
		return nil, errMissingUsers
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware(deps.AllowedOrigins...))

	handler := &httpHandler{
		gate:      deps.Gate,
		inventory: deps.Inventory,
		users:     deps.Users,
		presence:  deps.Presence,
		logger:    logger,
		heartbeat: heartbeat,
	}

	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/auth/logout", handler.handleLogout)
	protected.GET("/items", handler.handleListItems)
	protected.GET("/items/:id", handler.handleGetRecord(handler.itemKind()))
	protected.POST("/items", handler.handleCommit(handler.itemKind(), false))
	protected.PUT("/items/:id", handler.handleCommit(handler.itemKind(), true))
	protected.GET("/shows", handler.handleListShows)
	protected.GET("/shows/:id", handler.handleGetRecord(handler.showKind()))
	protected.POST("/shows", handler.handleCommit(handler.showKind(), false))
	protected.PUT("/shows/:id", handler.handleCommit(handler.showKind(), true))
	protected.GET("/upcoming", handler.handleUpcoming)
	protected.GET("/users", handler.handleListUsers)
	if deps.Presence != nil {
		protected.GET("/presence/stream", handler.handlePresenceStream)
	}

	return router, nil
}

// corsMiddleware allows any origin when none are configured. Credentialed
// requests are only allowed for an explicit origin list.
func corsMiddleware(origins ...string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

type httpHandler struct {
	gate      *auth.Gate
	inventory Inventory
	users     UserDirectory
	presence  *auth.PresenceDispatcher
	logger    *zap.Logger
	heartbeat time.Duration
}

type loginRequestPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, token, expiresAt, err := h.gate.Authenticate(c.Request.Context(), request.Name, request.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": auth.InvalidCredentialsMessage})
		return
	}
	if err != nil {
		h.requestLogger(c).Error("failed to authenticate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}
	if h.presence != nil {
		h.presence.Publish(auth.PresenceEvent{Kind: auth.PresenceSignedIn, User: user, Timestamp: time.Now().UTC()})
	}

	c.JSON(http.StatusOK, loginResponsePayload{
		AccessToken: token,
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		TokenType:   "Bearer",
	})
}

// handleLogout announces the sign-out. Tokens are stateless, so the client
// is expected to discard its copy.
func (h *httpHandler) handleLogout(c *gin.Context) {
	if user, ok := requestGate(c).SignedInUser(); ok && h.presence != nil {
		h.presence.Publish(auth.PresenceEvent{Kind: auth.PresenceSignedOut, User: user, Timestamp: time.Now().UTC()})
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	gate := requestGate(c)
	if err := gate.RequireAdmin(); err != nil {
		h.respondAuthorization(c, err)
		return
	}
	listed, err := h.users.Users(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "users_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": listed})
}

// authorizeRequest resumes the caller's session from a bearer token. The
// access_token query parameter serves clients that cannot set headers.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token := ""
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	} else if header == "" {
		token = strings.TrimSpace(c.Query("access_token"))
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	gate, err := h.gate.Resume(c.Request.Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, auth.ErrAccountRevoked):
		h.requestLogger(c).Info("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	case errors.Is(err, auth.ErrInvalidToken):
		h.requestLogger(c).Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	default:
		h.requestLogger(c).Error("failed to resume session", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session_failed"})
		return
	}
	c.Set(gateContextKey, gate)
	c.Next()
}

func requestGate(c *gin.Context) *auth.Gate {
	value, ok := c.Get(gateContextKey)
	if !ok {
		return nil
	}
	gate, _ := value.(*auth.Gate)
	return gate
}

func (h *httpHandler) requestLogger(c *gin.Context) *zap.Logger {
	if requestID := c.GetString(requestIDContextKey); requestID != "" {
		return h.logger.With(zap.String("request_id", requestID))
	}
	return h.logger
}

func (h *httpHandler) respondAuthorization(c *gin.Context, err error) {
	var authErr *auth.AuthorizationError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "reason": authErr.Reason.Error()})
		return
	}
	h.requestLogger(c).Error("authorization check failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization_failed"})
}
