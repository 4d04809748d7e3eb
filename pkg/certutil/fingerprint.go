package certutil

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"
)

// Summary describes a certificate for operator output
type Summary struct {
	Fingerprint string
	DNSNames    []string
	NotBefore   time.Time
	NotAfter    time.Time
}

// GetFingerprint calculates the SHA256 fingerprint of the first certificate in pemData
func GetFingerprint(pemData []byte) (string, error) {
	cert, err := parse(pemData)
	if err != nil {
		return "", err
	}
	return fingerprint(cert), nil
}

// Summarize parses pemData and returns its fingerprint, names and validity window
func Summarize(pemData []byte) (*Summary, error) {
	cert, err := parse(pemData)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Fingerprint: fingerprint(cert),
		DNSNames:    cert.DNSNames,
		NotBefore:   cert.NotBefore,
		NotAfter:    cert.NotAfter,
	}, nil
}

// FingerprintMatches checks if two certificates have the same fingerprint
func FingerprintMatches(pem1, pem2 []byte) (bool, error) {
	fp1, err := GetFingerprint(pem1)
	if err != nil {
		return false, err
	}

	fp2, err := GetFingerprint(pem2)
	if err != nil {
		return false, err
	}

	return fp1 == fp2, nil
}

func parse(pemData []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

func fingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return fmt.Sprintf("SHA256:%s", base64.RawStdEncoding.EncodeToString(hash[:]))
}
