package auth

import (
	"errors"
	"time"

	"github.com/adamscao/skillguard/internal/config"
)

var (
	// ErrMissingCredentials is returned when no admin token was presented
	ErrMissingCredentials = errors.New("admin credentials required")
	// ErrInvalidCredentials is returned when the token or one-time code is wrong
	ErrInvalidCredentials = errors.New("invalid admin credentials")
)

// AdminAuthenticator checks admin credentials against the configured secrets
type AdminAuthenticator struct {
	token      string
	tokenHash  string
	totpSecret string
	now        func() time.Time
}

// NewAdminAuthenticator creates an authenticator from admin config
func NewAdminAuthenticator(cfg config.AdminConfig) *AdminAuthenticator {
	return &AdminAuthenticator{
		token:      cfg.Token,
		tokenHash:  cfg.TokenHash,
		totpSecret: cfg.TOTPSecret,
		now:        time.Now,
	}
}

// RequiresOTP reports whether a one-time code must accompany the token
func (a *AdminAuthenticator) RequiresOTP() bool {
	return a.totpSecret != ""
}

// Check validates a presented token and one-time code
func (a *AdminAuthenticator) Check(token, code string) error {
	if token == "" {
		return ErrMissingCredentials
	}

	var ok bool
	switch {
	case a.tokenHash != "":
		ok = VerifyTokenHash(token, a.tokenHash)
	case a.token != "":
		ok = VerifyToken(token, a.token)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if a.totpSecret != "" {
		if code == "" {
			return ErrInvalidCredentials
		}
		valid, err := ValidateTOTP(a.totpSecret, code, a.now())
		if err != nil || !valid {
			return ErrInvalidCredentials
		}
	}

	return nil
}
