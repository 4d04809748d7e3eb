// Package verifier authenticates inbound skill requests: it checks the declared
// timestamp, the signing certificate URL, the certificate itself and the body signature.
package verifier

import "errors"

// Verdicts. A nil error from Validate means the request is authentic.
var (
	ErrInvalidTimestamp     = errors.New("request timestamp outside tolerance")
	ErrInvalidCertURL       = errors.New("certificate url is not trusted")
	ErrFetchFailed          = errors.New("certificate download failed")
	ErrSignatureMismatch    = errors.New("signature does not match")
	ErrMalformedCertificate = errors.New("certificate could not be parsed")
	ErrIdentityMismatch     = errors.New("certificate is not issued to the signing authority")
	ErrOutdatedCertificate  = errors.New("certificate is outside its validity window")
)

var reasons = []struct {
	err   error
	label string
}{
	{ErrInvalidTimestamp, "invalid_timestamp"},
	{ErrInvalidCertURL, "invalid_cert_url"},
	{ErrFetchFailed, "fetch_failed"},
	{ErrSignatureMismatch, "signature_mismatch"},
	{ErrMalformedCertificate, "malformed_certificate"},
	{ErrIdentityMismatch, "identity_mismatch"},
	{ErrOutdatedCertificate, "outdated_certificate"},
}

// Reason returns a stable label for err, suitable for metrics and logs
func Reason(err error) string {
	if err == nil {
		return "valid"
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "unknown"
}
