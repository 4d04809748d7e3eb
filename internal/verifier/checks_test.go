package verifier_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/skillguard/internal/verifier"
	"github.com/adamscao/skillguard/internal/verifier/certtest"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCheckTimestamp(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		tolerance int
		wantErr   bool
	}{
		{"fresh", 0, 150, false},
		{"exactly at tolerance", 150 * time.Second, 150, false},
		{"one second past", 151 * time.Second, 150, true},
		{"compared in whole seconds", 150*time.Second + 900*time.Millisecond, 150, true},
		{"future", -time.Hour, 150, false},
		{"zero tolerance same second", 0, 0, false},
		{"zero tolerance one second old", time.Second, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.CheckTimestamp(now.Add(-tt.age), now, tt.tolerance)
			if tt.wantErr {
				assert.ErrorIs(t, err, verifier.ErrInvalidTimestamp)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckCertURL(t *testing.T) {
	valid := []string{
		"https://s3.amazonaws.com/echo.api/echo-api-cert.pem",
		"https://s3.amazonaws.com:443/echo.api/echo-api-cert.pem",
		"HTTPS://S3.AMAZONAWS.COM/ECHO.API/cert.pem",
		"https://s3.amazonaws.com/echo.api/",
		"https://s3.amazonaws.com/echo.api/../echo.api/cert.pem",
	}
	invalid := []string{
		"",
		"http://s3.amazonaws.com/echo.api/cert.pem",
		"https://notamazon.com/echo.api/cert.pem",
		"https://s3.amazonaws.com/EcHo.aPi2/cert.pem",
		"https://s3.amazonaws.com/invalid.path/cert.pem",
		"https://s3.amazonaws.com:563/echo.api/cert.pem",
		"https://s3xamazonaws.com/echo.api/cert.pem",
		"https://s3.amazonaws.com/echo.api",
		"ftp://s3.amazonaws.com/echo.api/cert.pem",
		"https://evil.example/https://s3.amazonaws.com/echo.api/cert.pem",
	}

	for _, u := range valid {
		assert.NoError(t, verifier.CheckCertURL(u), u)
	}
	for _, u := range invalid {
		assert.ErrorIs(t, verifier.CheckCertURL(u), verifier.ErrInvalidCertURL, u)
	}
}

func TestVerifySignatureRSA(t *testing.T) {
	cert := certtest.ValidCert(t, now)
	body := []byte("abc")
	sig := certtest.Sign(t, certtest.Key(t), body)

	assert.NoError(t, verifier.VerifySignature(body, sig, cert))

	tests := []struct {
		name string
		body []byte
		sig  string
		cert []byte
	}{
		{"tampered body", []byte("abd"), sig, cert},
		{"empty body", nil, sig, cert},
		{"other key", body, certtest.Sign(t, certtest.OtherKey(t), body), cert},
		{"not base64", body, "%%%", cert},
		{"empty signature", body, "", cert},
		{"no pem", body, sig, []byte("not a certificate")},
		{"garbage pem", body, sig, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, verifier.VerifySignature(tt.body, tt.sig, tt.cert), verifier.ErrSignatureMismatch)
		})
	}
}

func TestVerifySignatureECDSA(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "ec"},
		DNSNames:     []string{certtest.Domain},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	body := []byte(`{"request":{"type":"LaunchRequest"}}`)
	digest := sha1.Sum(body)
	raw, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)
	sig := base64.StdEncoding.EncodeToString(raw)

	assert.NoError(t, verifier.VerifySignature(body, sig, cert))
	assert.ErrorIs(t, verifier.VerifySignature([]byte("x"), sig, cert), verifier.ErrSignatureMismatch)
}

func TestParseCertificate(t *testing.T) {
	notBefore := now.Add(-time.Hour).Truncate(time.Second)
	notAfter := now.Add(time.Hour).Truncate(time.Second)
	certPEM := certtest.Cert(t, certtest.Key(t), []string{"a.example", certtest.Domain}, notBefore, notAfter)

	info, err := verifier.ParseCertificate(certPEM)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example", certtest.Domain}, info.SubjectAltNames)
	assert.True(t, info.NotBefore.Equal(notBefore))
	assert.True(t, info.NotAfter.Equal(notAfter))

	block, _ := pem.Decode(certPEM)
	info, err = verifier.ParseCertificate(block.Bytes)
	require.NoError(t, err, "raw DER")
	assert.Len(t, info.SubjectAltNames, 2)

	keyFirst := append(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")}), certPEM...)
	_, err = verifier.ParseCertificate(keyFirst)
	assert.NoError(t, err, "certificate after another block")

	for _, bad := range [][]byte{nil, []byte("garbage"), pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2}})} {
		_, err := verifier.ParseCertificate(bad)
		assert.ErrorIs(t, err, verifier.ErrMalformedCertificate)
	}
}

func TestCheckContent(t *testing.T) {
	window := func(sans ...string) *verifier.CertInfo {
		return &verifier.CertInfo{SubjectAltNames: sans, NotBefore: now.Add(-time.Hour), NotAfter: now.Add(time.Hour)}
	}

	assert.NoError(t, verifier.CheckContent(window(certtest.Domain), certtest.Domain, now))
	assert.NoError(t, verifier.CheckContent(window("other", "ECHO-API.AMAZON.COM"), certtest.Domain, now))
	assert.NoError(t, verifier.CheckContent(window(certtest.Domain), certtest.Domain, now.Add(time.Hour)), "NotAfter inclusive")
	assert.NoError(t, verifier.CheckContent(window(certtest.Domain), certtest.Domain, now.Add(-time.Hour)), "NotBefore inclusive")

	assert.ErrorIs(t, verifier.CheckContent(window(), certtest.Domain, now), verifier.ErrIdentityMismatch)
	assert.ErrorIs(t, verifier.CheckContent(window("echo-api.amazon.com.evil.net"), certtest.Domain, now), verifier.ErrIdentityMismatch)

	assert.ErrorIs(t, verifier.CheckContent(window(certtest.Domain), certtest.Domain, now.Add(2*time.Hour)), verifier.ErrOutdatedCertificate)
	assert.ErrorIs(t, verifier.CheckContent(window(certtest.Domain), certtest.Domain, now.Add(-2*time.Hour)), verifier.ErrOutdatedCertificate)

	// identity wins over window
	assert.ErrorIs(t, verifier.CheckContent(window("x"), certtest.Domain, now.Add(48*time.Hour)), verifier.ErrIdentityMismatch)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "valid", verifier.Reason(nil))
	assert.Equal(t, "outdated_certificate", verifier.Reason(fmt.Errorf("%w: x", verifier.ErrOutdatedCertificate)))
	assert.Equal(t, "fetch_failed", verifier.Reason(verifier.ErrFetchFailed))
	assert.Equal(t, "unknown", verifier.Reason(errors.New("boom")))
}
