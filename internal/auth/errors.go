package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSignedIn indicates an operation that needs a signed-in user.
	ErrNotSignedIn = errors.New("auth: not signed in")
	// ErrInsufficientLevel indicates a signed-in user without the privilege.
	ErrInsufficientLevel = errors.New("auth: insufficient auth level")
	// ErrInvalidCredentials is returned by SignIn for an unknown name or a
	// wrong secret.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountRevoked is returned by Resume when the token's account no
	// longer exists.
	ErrAccountRevoked = errors.New("auth: account no longer exists")
)

// InvalidCredentialsMessage is what hosts show for ErrInvalidCredentials.
const InvalidCredentialsMessage = "Invalid credentials."

// AuthorizationError blocks an operation the current principal may not
// perform. Reason is ErrNotSignedIn or ErrInsufficientLevel.
type AuthorizationError struct {
	Reason   error
	Level    int
	Required int
}

func (e *AuthorizationError) Error() string {
	if errors.Is(e.Reason, ErrInsufficientLevel) {
		return fmt.Sprintf("%v: level %d, need %d or lower", e.Reason, e.Level, e.Required)
	}
	return e.Reason.Error()
}

func (e *AuthorizationError) Unwrap() error { return e.Reason }
