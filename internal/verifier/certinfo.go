package verifier

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"time"
)

// CertInfo holds the certificate fields the content check needs
type CertInfo struct {
	SubjectAltNames []string
	NotBefore       time.Time
	NotAfter        time.Time
}

// ParseCertificate reads the first CERTIFICATE block of data. Raw DER is accepted
// when data carries no PEM header.
func ParseCertificate(data []byte) (*CertInfo, error) {
	der := data
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			der = block.Bytes
			break
		}
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}

	return &CertInfo{
		SubjectAltNames: cert.DNSNames,
		NotBefore:       cert.NotBefore,
		NotAfter:        cert.NotAfter,
	}, nil
}

// CheckContent verifies the certificate names domain and that now falls in its window.
// Identity is checked first.
func CheckContent(info *CertInfo, domain string, now time.Time) error {
	matched := false
	for _, name := range info.SubjectAltNames {
		if strings.EqualFold(name, domain) {
			matched = true
			break
		}
	}
	if !matched {
		return fmt.Errorf("%w: %s not in %v", ErrIdentityMismatch, domain, info.SubjectAltNames)
	}

	if now.Before(info.NotBefore) || now.After(info.NotAfter) {
		return fmt.Errorf("%w: valid %s to %s", ErrOutdatedCertificate,
			info.NotBefore.UTC().Format(time.RFC3339), info.NotAfter.UTC().Format(time.RFC3339))
	}

	return nil
}
