package auth

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpIssuer = "skillguard"
)

// GenerateTOTPSecret generates a new TOTP secret and its otpauth:// URL
func GenerateTOTPSecret(account string) (secret, url string, err error) {
	if account == "" {
		account = "admin"
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// ValidateTOTP validates a TOTP code against a secret at t.
// Allows for ±1 time window to account for clock skew
func ValidateTOTP(secret, code string, t time.Time) (bool, error) {
	valid, err := totp.ValidateCustom(code, secret, t, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate TOTP code: %w", err)
	}

	return valid, nil
}
