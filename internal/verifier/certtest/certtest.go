// Package certtest mints signing certificates and fakes certificate downloads for tests.
package certtest

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/adamscao/skillguard/internal/verifier"
)

// URL is a certificate location that passes the URL shape check
const URL = "https://s3.amazonaws.com/echo.api/echo-api-cert-test.pem"

// Domain is the SAN issued to the signing authority
const Domain = verifier.DefaultAuthorityDomain

var (
	keysOnce sync.Once
	keys     [2]*rsa.PrivateKey
	keysErr  error
)

func loadKeys(t testing.TB) {
	t.Helper()
	keysOnce.Do(func() {
		for i := range keys {
			keys[i], keysErr = rsa.GenerateKey(rand.Reader, 2048)
			if keysErr != nil {
				return
			}
		}
	})
	if keysErr != nil {
		t.Fatalf("could not generate test key: %v", keysErr)
	}
}

// Key returns a process-wide RSA key
func Key(t testing.TB) *rsa.PrivateKey {
	loadKeys(t)
	return keys[0]
}

// OtherKey returns a second key unrelated to Key
func OtherKey(t testing.TB) *rsa.PrivateKey {
	loadKeys(t)
	return keys[1]
}

// Cert returns a PEM certificate for key carrying dns as SANs, valid from notBefore to notAfter
func Cert(t testing.TB, key *rsa.PrivateKey, dns []string, notBefore, notAfter time.Time) []byte {
	t.Helper()

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("could not generate serial: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "skillguard test"},
		DNSNames:     dns,
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("could not create certificate: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

// ValidCert returns a certificate for Key issued to Domain and valid around now
func ValidCert(t testing.TB, now time.Time) []byte {
	return Cert(t, Key(t), []string{Domain}, now.Add(-time.Hour), now.Add(time.Hour))
}

// ExpiredCert returns a certificate for Key issued to Domain that expired before now
func ExpiredCert(t testing.TB, now time.Time) []byte {
	return Cert(t, Key(t), []string{Domain}, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
}

// Sign returns the base64 SHA-1 PKCS#1 v1.5 signature of body
func Sign(t testing.TB, key *rsa.PrivateKey, body []byte) string {
	t.Helper()

	digest := sha1.Sum(body)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	if err != nil {
		t.Fatalf("could not sign: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

// ErrUnreachable is returned by Client for urls with no configured response
var ErrUnreachable = errors.New("certtest: host unreachable")

// Client is a scripted verifier.HTTPClient. Responses for a url are served in order
// and the last one repeats.
type Client struct {
	mu        sync.Mutex
	responses map[string][]*verifier.HTTPResponse
	calls     map[string]int
}

// NewClient returns a client with no responses
func NewClient() *Client {
	return &Client{
		responses: make(map[string][]*verifier.HTTPResponse),
		calls:     make(map[string]int),
	}
}

// Serve scripts a 200 response with body for url, after any already scripted ones
func (c *Client) Serve(url string, body []byte) *Client {
	return c.Respond(url, &verifier.HTTPResponse{StatusCode: 200, Body: body})
}

// Respond scripts resp for url, after any already scripted ones
func (c *Client) Respond(url string, resp *verifier.HTTPResponse) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[url] = append(c.responses[url], resp)
	return c
}

// Calls returns how many requests were made for url
func (c *Client) Calls(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[url]
}

// TotalCalls returns how many requests were made for any url
func (c *Client) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *Client) Get(_ context.Context, url string) (*verifier.HTTPResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.calls[url]
	c.calls[url] = n + 1

	script := c.responses[url]
	if len(script) == 0 {
		return nil, ErrUnreachable
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n], nil
}
