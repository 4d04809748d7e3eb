package certutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/skillguard/internal/verifier/certtest"
)

func TestSummarize(t *testing.T) {
	now := time.Now()
	a := certtest.ValidCert(t, now)
	b := certtest.ExpiredCert(t, now)

	s, err := Summarize(a)
	require.NoError(t, err)
	assert.Contains(t, s.Fingerprint, "SHA256:")
	assert.Equal(t, []string{certtest.Domain}, s.DNSNames)
	assert.True(t, s.NotAfter.After(now))

	same, err := FingerprintMatches(a, a)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = FingerprintMatches(a, b)
	require.NoError(t, err)
	assert.False(t, same)

	_, err = GetFingerprint([]byte("garbage"))
	assert.Error(t, err)
}
