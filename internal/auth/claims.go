package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles understood by the row-level policies of the expenses table
const (
	RoleAnon          = "anon"
	RoleAuthenticated = "authenticated"
)

var (
	// ErrMissingToken is returned when no bearer token was forwarded
	ErrMissingToken = errors.New("authorization header is required")

	// ErrMalformedHeader is returned when the header is not "Bearer <token>"
	ErrMalformedHeader = errors.New("invalid authorization header format, expected: Bearer <token>")

	// ErrInvalidToken is returned when the token cannot be parsed or verified
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims issued by the auth service in front of the store
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// EffectiveRole returns the database role the token maps to
func (c *Claims) EffectiveRole() string {
	if c.Role == RoleAuthenticated || (c.Role == "" && c.Subject != "") {
		return RoleAuthenticated
	}
	return RoleAnon
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value
func BearerToken(authorization string) (string, error) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return "", ErrMissingToken
	}

	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedHeader
	}

	return parts[1], nil
}

// Verifier parses bearer tokens, verifying the HS256 signature when a secret is configured
type Verifier struct {
	secret []byte
}

// NewVerifier creates a new token verifier. An empty secret disables signature checks.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verifies reports whether signatures are checked
func (v *Verifier) Verifies() bool {
	return len(v.secret) > 0
}

// Parse extracts and validates the claims carried by an Authorization header value
func (v *Verifier) Parse(authorization string) (*Claims, error) {
	tokenString, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	if !v.Verifies() {
		return parseUnverified(tokenString)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SubjectFromAuthorization returns the sub claim of the forwarded token without verifying it.
// It returns "" when the header carries no readable token.
func SubjectFromAuthorization(authorization string) string {
	tokenString, err := BearerToken(authorization)
	if err != nil {
		return ""
	}
	claims, err := parseUnverified(tokenString)
	if err != nil {
		return ""
	}
	return claims.Subject
}

func parseUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
