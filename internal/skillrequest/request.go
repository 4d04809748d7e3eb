// Package skillrequest maps raw skill webhook traffic onto verifier input.
package skillrequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adamscao/skillguard/internal/verifier"
)

// Header names carrying the signing material
const (
	HeaderCertURL   = "SignatureCertChainUrl"
	HeaderSignature = "Signature"
)

var (
	// ErrMalformedRequest is returned when the body is not a recognised skill request
	ErrMalformedRequest = errors.New("malformed skill request")
	// ErrMissingHeader is returned when a signed request type lacks signing headers
	ErrMissingHeader = errors.New("missing required signature header")
)

// lifecycleEventPrefix marks skill lifecycle events, which may be delivered late
const lifecycleEventPrefix = "AlexaSkillEvent."

var knownTypes = map[string]bool{
	"LaunchRequest":                            true,
	"IntentRequest":                            true,
	"SessionEndedRequest":                      true,
	"CanFulfillIntentRequest":                  true,
	"AudioPlayer.PlaybackStarted":              true,
	"AudioPlayer.PlaybackNearlyFinished":       true,
	"AudioPlayer.PlaybackFinished":             true,
	"AudioPlayer.PlaybackStopped":              true,
	"AudioPlayer.PlaybackFailed":               true,
	"PlaybackController.NextCommandIssued":     true,
	"PlaybackController.PauseCommandIssued":    true,
	"PlaybackController.PlayCommandIssued":     true,
	"PlaybackController.PreviousCommandIssued": true,
	"System.ExceptionEncountered":              true,
	"Display.ElementSelected":                  true,
	"GameEngine.InputHandlerEvent":             true,
	"Connections.Response":                     true,
	"AlexaSkillEvent.SkillAccountLinked":       true,
	"AlexaSkillEvent.SkillEnabled":             true,
	"AlexaSkillEvent.SkillDisabled":            true,
	"AlexaSkillEvent.SkillPermissionAccepted":  true,
	"AlexaSkillEvent.SkillPermissionChanged":   true,
	"Alexa.Presentation.APL.LoadIndexListData": true,
	"Alexa.Presentation.APL.LoadTokenListData": true,
	"Alexa.Presentation.APL.RuntimeError":      true,
	"Alexa.Presentation.APL.UserEvent":         true,
}

type application struct {
	ApplicationID string `json:"applicationId"`
}

// Envelope is the subset of the request body the gateway inspects
type Envelope struct {
	Version string `json:"version"`
	Session *struct {
		SessionID   string       `json:"sessionId"`
		Application *application `json:"application"`
	} `json:"session"`
	Context *struct {
		System *struct {
			Application *application `json:"application"`
		} `json:"System"`
	} `json:"context"`
	Request struct {
		Type      string          `json:"type"`
		RequestID string          `json:"requestId"`
		Timestamp json.RawMessage `json:"timestamp"`
	} `json:"request"`
}

// ApplicationID returns the session application id, falling back to the context one
func (e *Envelope) ApplicationID() string {
	if e.Session != nil && e.Session.Application != nil && e.Session.Application.ApplicationID != "" {
		return e.Session.Application.ApplicationID
	}
	if e.Context != nil && e.Context.System != nil && e.Context.System.Application != nil {
		return e.Context.System.Application.ApplicationID
	}
	return ""
}

// Type returns the request type
func (e *Envelope) Type() string {
	return e.Request.Type
}

// RequestID returns the platform-assigned request id
func (e *Envelope) RequestID() string {
	return e.Request.RequestID
}

// Mapped is the result of mapping one inbound request
type Mapped struct {
	Envelope *Envelope
	Verify   *verifier.Request
}

// Map parses body and the signing headers into verifier input
func Map(body []byte, header http.Header) (*Mapped, error) {
	env := &Envelope{}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	reqType := env.Request.Type
	if reqType == "" {
		return nil, fmt.Errorf("%w: request.type is missing", ErrMalformedRequest)
	}
	if !knownTypes[reqType] {
		return nil, fmt.Errorf("%w: unknown request type %q", ErrMalformedRequest, reqType)
	}

	checkTimestamp := !strings.HasPrefix(reqType, lifecycleEventPrefix)

	ts, err := parseTimestamp(env.Request.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if ts.IsZero() && checkTimestamp {
		return nil, fmt.Errorf("%w: request.timestamp is missing", ErrMalformedRequest)
	}

	certURL := header.Get(HeaderCertURL)
	signature := header.Get(HeaderSignature)
	if certURL == "" || signature == "" {
		return nil, ErrMissingHeader
	}

	return &Mapped{
		Envelope: env,
		Verify: &verifier.Request{
			Body:           body,
			CertURL:        certURL,
			Signature:      signature,
			Timestamp:      ts,
			CheckSignature: true,
			CheckTimestamp: checkTimestamp,
		},
	}, nil
}

// parseTimestamp accepts an RFC3339 string or a number of Unix milliseconds.
// An absent value yields the zero time.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
		}
		return t, nil
	}

	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s", raw)
	}
	n, err := ms.Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s", raw)
	}
	return time.UnixMilli(n), nil
}
