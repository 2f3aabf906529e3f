// Package auth holds the Session/Auth Gate: who is signed in, at which
// auth level, and whether they may write. Lower levels are more privileged;
// level 0 is reserved for the system account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultWriteLevel = 1
	defaultAdminLevel = 1
)

// User is a signed-in principal.
type User struct {
	ID        int64  `json:"user_id"`
	Name      string `json:"name"`
	AuthLevel int    `json:"auth_level"`
}

// CredentialValidator checks a name and secret against stored accounts.
type CredentialValidator interface {
	ValidateUser(ctx context.Context, name, secret string) (User, bool, error)
}

// AccountLookup resolves an account's stored state by id. Missing
// accounts report false without an error.
type AccountLookup interface {
	LookupUser(ctx context.Context, id int64) (User, bool, error)
}

// GateConfig describes the dependencies of a Gate.
type GateConfig struct {
	Credentials CredentialValidator
	// Accounts, when set, makes Resume use the stored name and level
	// instead of the ones captured in the token.
	Accounts AccountLookup
	Tokens   *TokenIssuer
	Presence    *PresenceDispatcher
	// WriteLevel is the highest level allowed to commit edits.
	WriteLevel int
	// AdminLevel is the highest level allowed to manage users.
	AdminLevel int
	Logger     *zap.Logger
	Clock      func() time.Time
}

type session struct {
	user      User
	token     string
	expiresAt time.Time
}

// Gate tracks the signed-in session. Reads are wait-free; it is passed
// explicitly to every component that needs it.
type Gate struct {
	credentials CredentialValidator
	accounts    AccountLookup
	tokens      *TokenIssuer
	presence    *PresenceDispatcher
	writeLevel  int
	adminLevel  int
	logger      *zap.Logger
	clock       func() time.Time

	current atomic.Pointer[session]
}

// NewGate validates the configuration and returns a signed-out gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("auth: token issuer required")
	}
	writeLevel := cfg.WriteLevel
	if writeLevel <= 0 {
		writeLevel = defaultWriteLevel
	}
	adminLevel := cfg.AdminLevel
	if adminLevel <= 0 {
		adminLevel = defaultAdminLevel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Gate{
		credentials: cfg.Credentials,
		accounts:    cfg.Accounts,
		tokens:      cfg.Tokens,
		presence:    cfg.Presence,
		writeLevel:  writeLevel,
		adminLevel:  adminLevel,
		logger:      logger,
		clock:       clock,
	}, nil
}

// SignIn validates the credentials and starts a session. It returns the
// session token so remote hosts can resume the session later.
func (g *Gate) SignIn(ctx context.Context, name, secret string) (string, error) {
	user, token, expiresAt, err := g.Authenticate(ctx, name, secret)
	if err != nil {
		return "", err
	}
	g.current.Store(&session{user: user, token: token, expiresAt: expiresAt})
	g.logger.Info("signed in", zap.Int64("user_id", user.ID), zap.Int("auth_level", user.AuthLevel))
	g.publish(PresenceSignedIn, user)
	return token, nil
}

// Authenticate validates the credentials and issues a token without
// changing the gate's session. Hosts serving many users call this and
// Resume per request.
func (g *Gate) Authenticate(ctx context.Context, name, secret string) (User, string, time.Time, error) {
	if g.credentials == nil {
		return User{}, "", time.Time{}, errors.New("auth: credential validator required")
	}
	user, ok, err := g.credentials.ValidateUser(ctx, name, secret)
	if err != nil {
		g.logger.Error("sign in failed", zap.String("name", name), zap.Error(err))
		return User{}, "", time.Time{}, fmt.Errorf("auth: validate user: %w", err)
	}
	if !ok {
		g.logger.Info("sign in rejected", zap.String("name", name))
		return User{}, "", time.Time{}, ErrInvalidCredentials
	}
	token, expiresAt, err := g.tokens.Issue(user)
	if err != nil {
		return User{}, "", time.Time{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return user, token, expiresAt, nil
}

// Resume returns a gate signed in with an existing token. The receiver is
// left untouched. With an AccountLookup configured, a deleted account fails
// with ErrAccountRevoked and a changed level takes effect immediately.
func (g *Gate) Resume(ctx context.Context, token string) (*Gate, error) {
	claims, err := g.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := claims.User()
	if err != nil {
		return nil, err
	}
	if g.accounts != nil {
		current, ok, err := g.accounts.LookupUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("auth: look up account: %w", err)
		}
		if !ok {
			return nil, ErrAccountRevoked
		}
		user = current
	}
	resumed := &Gate{
		credentials: g.credentials,
		accounts:    g.accounts,
		tokens:      g.tokens,
		writeLevel:  g.writeLevel,
		adminLevel:  g.adminLevel,
		logger:      g.logger,
		clock:       g.clock,
	}
	resumed.current.Store(&session{user: user, token: token, expiresAt: claims.ExpiresAt.Time})
	return resumed, nil
}

// SignOut ends the session, if any.
func (g *Gate) SignOut() {
	previous := g.current.Swap(nil)
	if previous == nil {
		return
	}
	g.logger.Info("signed out", zap.Int64("user_id", previous.user.ID))
	g.publish(PresenceSignedOut, previous.user)
}

// SignedInUser returns the current user. An expired session reads as
// signed out.
func (g *Gate) SignedInUser() (User, bool) {
	current := g.current.Load()
	if current == nil || !g.clock().Before(current.expiresAt) {
		return User{}, false
	}
	return current.user, true
}

// Token returns the current session token.
func (g *Gate) Token() (string, bool) {
	if _, ok := g.SignedInUser(); !ok {
		return "", false
	}
	return g.current.Load().token, true
}

// AuthLevel returns the signed-in user's level.
func (g *Gate) AuthLevel() (int, error) {
	user, ok := g.SignedInUser()
	if !ok {
		return 0, &AuthorizationError{Reason: ErrNotSignedIn}
	}
	return user.AuthLevel, nil
}

// RequireLevel fails unless a user at level max or lower is signed in.
func (g *Gate) RequireLevel(max int) error {
	level, err := g.AuthLevel()
	if err != nil {
		return err
	}
	if level > max {
		return &AuthorizationError{Reason: ErrInsufficientLevel, Level: level, Required: max}
	}
	return nil
}

// RequireWrite fails unless the signed-in user may commit edits.
func (g *Gate) RequireWrite() error { return g.RequireLevel(g.writeLevel) }

// RequireAdmin fails unless the signed-in user may manage users.
func (g *Gate) RequireAdmin() error { return g.RequireLevel(g.adminLevel) }

func (g *Gate) publish(kind string, user User) {
	if g.presence == nil {
		return
	}
	g.presence.Publish(PresenceEvent{Kind: kind, User: user, Timestamp: g.clock().UTC()})
}
