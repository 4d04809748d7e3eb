package verifier

import (
	"fmt"
	"regexp"
)

// The slash after echo.api is required: the signing path is always /echo.api/<file>.
var certURLPattern = regexp.MustCompile(`(?i)^https://s3\.amazonaws\.com(:443)?/echo\.api/`)

// CheckCertURL reports whether url points at the signing authority's certificate location
func CheckCertURL(url string) error {
	if !certURLPattern.MatchString(url) {
		return fmt.Errorf("%w: %q", ErrInvalidCertURL, url)
	}
	return nil
}
