package verifier

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// VerifySignature checks that signature is the base64 SHA-1 signature of body made with
// the key of the certificate in certPEM. Every failure is reported as ErrSignatureMismatch.
func VerifySignature(body []byte, signature string, certPEM []byte) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", ErrSignatureMismatch)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return fmt.Errorf("%w: no PEM block in certificate", ErrSignatureMismatch)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	digest := sha1.Sum(body)

	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, digest[:], sig); err != nil {
			return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
		}
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest[:], sig) {
			return fmt.Errorf("%w: ecdsa verification failed", ErrSignatureMismatch)
		}
	default:
		return fmt.Errorf("%w: unsupported key type %T", ErrSignatureMismatch, pub)
	}

	return nil
}
