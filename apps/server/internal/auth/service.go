package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 30 * 24 * time.Hour

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidPlayerID = errors.New("invalid player id")
)

var playerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{0,63}$`)

// Service maps a bearer token to a player id. Accounts live outside the
// table server; this side only verifies identity.
type Service interface {
	ResolveSession(token string) (playerID string, ok bool)
	Close() error
}

// JWTService verifies HS256 tokens whose subject is the player id.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret, issuer string) (*JWTService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("empty jwt secret")
	}
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}, nil
}

// IssueToken signs a token for playerID. Used by tooling and tests; the
// production issuer is the account service.
func (s *JWTService) IssueToken(playerID string) (string, error) {
	if !playerIDPattern.MatchString(playerID) {
		return "", ErrInvalidPlayerID
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) ResolveSession(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", false
	}
	if !playerIDPattern.MatchString(claims.Subject) {
		return "", false
	}
	return claims.Subject, true
}

func (s *JWTService) Close() error { return nil }

// DevService trusts the token as the player id. Local play only.
type DevService struct{}

func (DevService) ResolveSession(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if !playerIDPattern.MatchString(token) {
		return "", false
	}
	return token, true
}

func (DevService) Close() error { return nil }
