// Package auth resolves the player identity of an incoming connection. The
// identity is trusted for the lifetime of the connection.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Identity is a stable player identity plus a display name.
type Identity struct {
	ID   string
	Name string
}

// Authenticator extracts an identity from an upgrade request.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// Claims is the token payload. The subject is the player identity.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 tokens issued by the account service.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticator creates a verifier for tokens signed with secret.
func NewJWTAuthenticator(secret []byte) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret}
}

// Authenticate reads the token from the Authorization header or, for
// browsers that cannot set headers on a WebSocket upgrade, the token query
// parameter.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	token, err := tokenFromRequest(r)
	if err != nil {
		return Identity{}, err
	}
	return a.Verify(token)
}

// Verify validates a token and returns its identity.
func (a *JWTAuthenticator) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return Identity{ID: claims.Subject, Name: name}, nil
}

func tokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			return "", fmt.Errorf("%w: invalid authorization header format", ErrUnauthenticated)
		}
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("%w: missing token", ErrUnauthenticated)
}

// IssueToken signs a token for id that expires after ttl. It exists for
// local testing; production tokens come from the account service.
func IssueToken(secret []byte, id Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := &Claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return s, nil
}

// DevAuthenticator trusts the player and name query parameters. It is
// meant for local play only.
type DevAuthenticator struct{}

// Authenticate implements Authenticator.
func (DevAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	q := r.URL.Query()
	id := q.Get("player")
	if id == "" {
		return Identity{}, fmt.Errorf("%w: missing player parameter", ErrUnauthenticated)
	}
	name := q.Get("name")
	if name == "" {
		name = id
	}
	return Identity{ID: id, Name: name}, nil
}
