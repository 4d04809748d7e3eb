package middleware

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/policy"
	"github.com/adamscao/skillguard/internal/skillrequest"
	"github.com/adamscao/skillguard/internal/verifier"
)

// Context keys set by VerifySkillRequest
const (
	ContextSkillBody     = "skill_body"
	ContextSkillEnvelope = "skill_envelope"
)

// RequestValidator authenticates a mapped request
type RequestValidator interface {
	Validate(ctx context.Context, req *verifier.Request) error
}

// VerifyOptions configures VerifySkillRequest
type VerifyOptions struct {
	MaxBodyBytes   int64
	ApplicationIDs []string
	Logger         *zap.Logger
}

// VerifySkillRequest authenticates skill requests before they reach the handler.
// Every failure gets the same response and the reason is only logged.
func VerifySkillRequest(v RequestValidator, opts VerifyOptions) gin.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	apps := policy.NewValidator(opts.ApplicationIDs)

	return func(c *gin.Context) {
		reject := func(reason string, err error) {
			logger.Info("skill request rejected",
				zap.String("request_id", RequestID(c)),
				zap.String("reason", reason),
				zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "request_rejected",
				"message": "Request rejected",
			})
			c.Abort()
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, opts.MaxBodyBytes))
		if err != nil {
			reject("unreadable_body", err)
			return
		}

		mapped, err := skillrequest.Map(body, c.Request.Header)
		if err != nil {
			reject("malformed_request", err)
			return
		}

		if err := v.Validate(c.Request.Context(), mapped.Verify); err != nil {
			reject(verifier.Reason(err), err)
			return
		}

		if err := apps.ValidateApplication(mapped.Envelope.ApplicationID()); err != nil {
			reject("application_not_allowed", err)
			return
		}

		c.Set(ContextSkillBody, body)
		c.Set(ContextSkillEnvelope, mapped.Envelope)
		c.Next()
	}
}
