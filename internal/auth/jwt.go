// Package auth holds the authentication building blocks of the flipit API:
// password hashing, bearer token schemes, and the middleware that turns an
// Authorization header into a user ID on the request context.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client POSTs /api/register or /api/login with a username and password
// 2. The auth service verifies the password and asks the TokenScheme for a token
// 3. The client sends "Authorization: Bearer <token>" on every /api/sets call
// 4. RequireBearer resolves the token to a user ID and stores it in the
//    request context, or answers 403 "Authentication required"
//
// This file is the optional JWT scheme (AUTH_TOKEN_SCHEME=jwt).
//
// WHY JWT?
// JWT (JSON Web Token) is stateless: the server doesn't need to store session
// data. All the information needed (userID, expiry) is inside the signed token.
// The signature ensures nobody can tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Unlike a pure stateless setup, Resolve also checks that the subject is
// still a registered user, so a token for an unknown ID never authenticates.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer is stamped into every token and required on validation.
const issuer = "flipit"

// MinSecretLength is the shortest JWT secret NewTokenService accepts.
const MinSecretLength = 16

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations: keep it safe, rotate it
// periodically in production.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	users  UserDirectory
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
//
// A ttl of 0 issues tokens without an expiry, matching the lifetime of the
// user-ID scheme. users is consulted on every Resolve.
func NewTokenService(secret string, ttl time.Duration, users UserDirectory) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl < 0 {
		return nil, errors.New("auth: JWT ttl must not be negative")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, users: users}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// We use "sub" (Subject) to store the internal user ID.
// This is the standard JWT claim for identifying who the token belongs to.
type claims struct {
	jwt.RegisteredClaims
}

// Issue implements TokenScheme using the configured ttl.
func (s *TokenService) Issue(userID string) (string, error) {
	if s.ttl == 0 {
		return s.sign(userID, nil)
	}
	return s.GenerateWithDuration(userID, s.ttl)
}

// Resolve implements TokenScheme. The token must validate and its subject
// must still be a registered user.
func (s *TokenService) Resolve(token string) (string, bool) {
	userID, err := s.Validate(token)
	if err != nil {
		return "", false
	}
	if s.users == nil || !s.users.UserExists(userID) {
		return "", false
	}
	return userID, true
}

// GenerateWithDuration creates a token that expires after d.
// A negative d produces an already expired token, which the tests rely on.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple: good for single-server deployments
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	exp := jwt.NewNumericDate(time.Now().Add(d))
	return s.sign(userID, exp)
}

func (s *TokenService) sign(userID string, exp *jwt.NumericDate) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: exp,
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the userID (stored in the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future, when present)
//   - Issuer matches "flipit" (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
//
// When the service has a ttl, tokens without an "exp" claim are rejected.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
	}
	if s.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		opts...,
	)
	if err != nil {
		// Translate jwt library errors into cleaner messages
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
