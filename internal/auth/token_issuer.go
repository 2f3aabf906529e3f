package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultTokenTTL = 30 * time.Minute
	defaultIssuer   = "stockroom"
)

var (
	ErrMissingSigningSecret = errors.New("auth: signing secret must be provided")
	ErrInvalidToken         = errors.New("auth: invalid session token")
	ErrExpiredToken         = errors.New("auth: session token expired")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	Name      string `json:"name"`
	AuthLevel int    `json:"auth_level"`
	jwt.RegisteredClaims
}

// User returns the principal the claims describe.
func (c SessionClaims) User() (User, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, errMissingSubjectClaim)
	}
	return User{ID: id, Name: c.Name, AuthLevel: c.AuthLevel}, nil
}

// TokenIssuerConfig configures the session token issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer signs and validates HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		secret: append([]byte(nil), cfg.SigningSecret...),
		issuer: issuer,
		ttl:    ttl,
		clock:  clock,
	}, nil
}

// Issue produces a signed token for the user and its expiry time.
func (i *TokenIssuer) Issue(user User) (string, time.Time, error) {
	tokenID, err := uuid.NewV7()
	if err != nil {
		return "", time.Time{}, err
	}
	now := i.clock().UTC()
	expiresAt := now.Add(i.ttl)

	claims := SessionClaims{
		Name:      user.Name,
		AuthLevel: user.AuthLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks the signature, issuer and expiry of a token.
func (i *TokenIssuer) Validate(tokenString string) (SessionClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return SessionClaims{}, ErrInvalidToken
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.secret, nil
		},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrExpiredToken
		}
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, errMissingSubjectClaim)
	}
	return *claims, nil
}
