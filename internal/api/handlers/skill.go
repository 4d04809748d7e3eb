package handlers

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/api/middleware"
	"github.com/adamscao/skillguard/internal/skillrequest"
)

// maxUpstreamResponse caps the relayed upstream body
const maxUpstreamResponse = 4 << 20

var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
}

// SkillHandler forwards authenticated skill requests to the upstream backend
type SkillHandler struct {
	upstreamURL string
	client      *http.Client
	logger      *zap.Logger
}

// NewSkillHandler creates a new skill handler
func NewSkillHandler(upstreamURL string, timeout time.Duration, logger *zap.Logger) *SkillHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkillHandler{
		upstreamURL: upstreamURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Forward relays the verified body to the upstream and copies its response back
// POST /skill
func (h *SkillHandler) Forward(c *gin.Context) {
	body := c.MustGet(middleware.ContextSkillBody).([]byte)
	requestID := middleware.RequestID(c)

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.upstreamURL, bytes.NewReader(body))
	if err != nil {
		h.logger.Error("failed to build upstream request", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "internal_error", "Failed to forward request")
		return
	}
	copyHeaders(req.Header, c.Request.Header)
	req.Header.Set(middleware.HeaderRequestID, requestID)
	req.Header.Set("X-Skillguard-Verified", "true")
	if env, ok := c.Get(middleware.ContextSkillEnvelope); ok {
		req.Header.Set("X-Skill-Request-Type", env.(*skillrequest.Envelope).Type())
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("upstream request failed", zap.String("request_id", requestID), zap.Error(err))
		RespondError(c, http.StatusBadGateway, "upstream_unavailable", "Upstream skill unavailable")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamResponse))
	if err != nil {
		h.logger.Warn("failed to read upstream response", zap.String("request_id", requestID), zap.Error(err))
		RespondError(c, http.StatusBadGateway, "upstream_unavailable", "Upstream skill unavailable")
		return
	}

	copyHeaders(c.Writer.Header(), resp.Header)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, respBody)
}

func copyHeaders(dst, src http.Header) {
	for k, vs := range src {
		if hopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
