// ABOUTME: Delegated-credential store interface and token expiry rules.
// ABOUTME: Tokens are per (user, connection, provider class); expiry honors both the stored time and a JWT exp claim.

package authstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store errors.
var (
	ErrNoToken      = errors.New("no delegated token for user, connection, and provider class")
	ErrTokenExpired = errors.New("delegated token expired")
)

// Token is one delegated credential for a user at one connection of a
// provider class. Two connections of the same class (say two gmail
// endpoints) hold separate credentials.
type Token struct {
	UserID        int64
	ConnectionID  string
	ProviderClass string
	AccessToken   string
	TokenType     string
	ExpiresAt     time.Time
	UpdatedAt     time.Time
}

// Store persists delegated credentials.
type Store interface {
	// Put upserts the token for (token.UserID, token.ConnectionID,
	// token.ProviderClass).
	Put(ctx context.Context, token *Token) error

	// Get returns the stored token or ErrNoToken.
	Get(ctx context.Context, userID int64, connectionID, providerClass string) (*Token, error)

	// Delete removes the token if present.
	Delete(ctx context.Context, userID int64, connectionID, providerClass string) error

	Close() error
}

// Expired reports whether the token is past its effective expiry at
// now. The effective expiry is the earlier of the stored ExpiresAt and
// the exp claim when the access token is JWT-shaped; a zero ExpiresAt
// with no claim means the token does not expire.
func (t *Token) Expired(now time.Time) bool {
	expiry := t.ExpiresAt
	if claim, ok := jwtExpiry(t.AccessToken); ok {
		if expiry.IsZero() || claim.Before(expiry) {
			expiry = claim
		}
	}
	if expiry.IsZero() {
		return false
	}
	return now.After(expiry)
}

// Authorization renders the header value, defaulting the scheme to
// Bearer when the provider did not name one.
func (t *Token) Authorization() string {
	scheme := t.TokenType
	if scheme == "" {
		scheme = "Bearer"
	}
	return scheme + " " + t.AccessToken
}

// jwtExpiry extracts the exp claim from a JWT-shaped access token
// without verifying the signature; validity is the issuer's business,
// this only avoids sending a token already known to be dead.
func jwtExpiry(accessToken string) (time.Time, bool) {
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
