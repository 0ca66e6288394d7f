package auth

import (
	"fmt"
	"strings"
)

const (
	AuthModeJWT = "jwt"
	AuthModeDev = "dev"
)

// NewService picks JWT verification when a secret is configured. Without
// a secret only the explicit dev mode is accepted.
func NewService(mode, secret, issuer string) (Service, string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", AuthModeJWT:
		if strings.TrimSpace(secret) == "" {
			return nil, AuthModeJWT, fmt.Errorf("auth mode %q needs a jwt secret (HOLDEM_JWT_SECRET)", AuthModeJWT)
		}
		s, err := NewJWTService(secret, issuer)
		if err != nil {
			return nil, AuthModeJWT, err
		}
		return s, AuthModeJWT, nil
	case AuthModeDev:
		return DevService{}, AuthModeDev, nil
	default:
		return nil, mode, fmt.Errorf("invalid auth mode %q (supported: %s, %s)", mode, AuthModeJWT, AuthModeDev)
	}
}
