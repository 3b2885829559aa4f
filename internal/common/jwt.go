package common

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for any missing, malformed or expired
// credential. Callers must not admit a connection when they see it.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims represents the data stored in a JWT token.
type Claims struct {
	UserID uint64 `json:"user_id"`
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

// TokenResolver resolves a bearer credential to an authenticated user id.
// Issuing credentials (register/login) is the job of the user service, not
// this process; we only verify.
type TokenResolver interface {
	Resolve(credential string) (uint64, error)
}

type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(credential string) (uint64, error) {
	if credential == "" {
		return 0, ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return r.secret, nil
	})
	if err != nil {
		return 0, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrUnauthenticated
	}
	return claims.UserID, nil
}

// GenerateToken mints a token the resolver accepts. Used by tooling and
// tests; production tokens come from the user service with the same secret.
func (r *JWTResolver) GenerateToken(userID uint64, handle string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "echochat",
			Subject:   "user-auth",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(r.secret)
}
