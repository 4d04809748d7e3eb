package skillrequest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeader() http.Header {
	h := http.Header{}
	h.Set(HeaderCertURL, "https://s3.amazonaws.com/echo.api/echo-api-cert.pem")
	h.Set(HeaderSignature, "c2lnbmF0dXJl")
	return h
}

const launch = `{
  "version": "1.0",
  "session": {"sessionId": "s1", "application": {"applicationId": "amzn1.ask.skill.session"}},
  "context": {"System": {"application": {"applicationId": "amzn1.ask.skill.context"}}},
  "request": {"type": "LaunchRequest", "requestId": "r1", "timestamp": "2026-03-01T12:00:00Z"}
}`

func TestMapLaunchRequest(t *testing.T) {
	m, err := Map([]byte(launch), signedHeader())
	require.NoError(t, err)

	assert.Equal(t, "LaunchRequest", m.Envelope.Type())
	assert.Equal(t, "r1", m.Envelope.RequestID())
	assert.Equal(t, "amzn1.ask.skill.session", m.Envelope.ApplicationID())

	v := m.Verify
	assert.Equal(t, []byte(launch), v.Body)
	assert.Equal(t, "https://s3.amazonaws.com/echo.api/echo-api-cert.pem", v.CertURL)
	assert.Equal(t, "c2lnbmF0dXJl", v.Signature)
	assert.True(t, v.CheckSignature)
	assert.True(t, v.CheckTimestamp)
	assert.True(t, v.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestMapHeaderCaseInsensitive(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, err)
	req.Header.Add("signaturecertchainurl", "https://s3.amazonaws.com/echo.api/x.pem")
	req.Header.Add("SIGNATURE", "c2ln")

	m, err := Map([]byte(launch), req.Header)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.amazonaws.com/echo.api/x.pem", m.Verify.CertURL)
	assert.Equal(t, "c2ln", m.Verify.Signature)
}

func TestMapUnixMillisTimestamp(t *testing.T) {
	body := `{"request": {"type": "IntentRequest", "requestId": "r2", "timestamp": 1772366400000}}`
	m, err := Map([]byte(body), signedHeader())
	require.NoError(t, err)
	assert.Equal(t, int64(1772366400), m.Verify.Timestamp.Unix())
}

func TestMapContextApplicationID(t *testing.T) {
	body := `{"context": {"System": {"application": {"applicationId": "amzn1.ask.skill.ctx"}}},
	  "request": {"type": "AudioPlayer.PlaybackStarted", "timestamp": "2026-03-01T12:00:00Z"}}`
	m, err := Map([]byte(body), signedHeader())
	require.NoError(t, err)
	assert.Equal(t, "amzn1.ask.skill.ctx", m.Envelope.ApplicationID())

	m, err = Map([]byte(`{"request": {"type": "LaunchRequest", "timestamp": "2026-03-01T12:00:00Z"}}`), signedHeader())
	require.NoError(t, err)
	assert.Empty(t, m.Envelope.ApplicationID())
}

func TestMapLifecycleEventSkipsTimestamp(t *testing.T) {
	body := `{"request": {"type": "AlexaSkillEvent.SkillEnabled", "requestId": "r3", "timestamp": "2020-01-01T00:00:00Z"}}`
	m, err := Map([]byte(body), signedHeader())
	require.NoError(t, err)
	assert.False(t, m.Verify.CheckTimestamp)
	assert.True(t, m.Verify.CheckSignature)

	m, err = Map([]byte(`{"request": {"type": "AlexaSkillEvent.SkillDisabled"}}`), signedHeader())
	require.NoError(t, err, "lifecycle events may omit the timestamp")
	assert.False(t, m.Verify.CheckTimestamp)
}

func TestMapErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		header http.Header
		want   error
	}{
		{"not json", `<xml/>`, signedHeader(), ErrMalformedRequest},
		{"no request type", `{"version": "1.0", "request": {}}`, signedHeader(), ErrMalformedRequest},
		{"unknown type", `{"request": {"type": "Made.Up", "timestamp": "2026-03-01T12:00:00Z"}}`, signedHeader(), ErrMalformedRequest},
		{"bad timestamp", `{"request": {"type": "LaunchRequest", "timestamp": "yesterday"}}`, signedHeader(), ErrMalformedRequest},
		{"missing timestamp", `{"request": {"type": "LaunchRequest"}}`, signedHeader(), ErrMalformedRequest},
		{"no headers", launch, http.Header{}, ErrMissingHeader},
		{"no signature", launch, http.Header{HeaderCertURL: {"https://s3.amazonaws.com/echo.api/x.pem"}}, ErrMissingHeader},
		{"no cert url", launch, http.Header{HeaderSignature: {"c2ln"}}, ErrMissingHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map([]byte(tt.body), tt.header)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
