package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/certcache"
)

// AdminHandler handles certificate cache administration
type AdminHandler struct {
	cache   *certcache.Cache
	backend string
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cache *certcache.Cache, backend string, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		cache:   cache,
		backend: backend,
		logger:  logger,
	}
}

// ListCacheResponse represents the cache listing
type ListCacheResponse struct {
	Backend string   `json:"backend"`
	Count   int      `json:"count"`
	Keys    []string `json:"keys"`
}

// ListCache lists cached certificate keys
// GET /v1/admin/cache
func (h *AdminHandler) ListCache(c *gin.Context) {
	keys, err := h.cache.Keys()
	if errors.Is(err, certcache.ErrNotListable) {
		RespondError(c, http.StatusNotImplemented, "not_supported", "Cache backend cannot list entries")
		return
	}
	if err != nil {
		h.logger.Error("failed to list cache", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "internal_error", "Failed to list cache")
		return
	}

	if keys == nil {
		keys = []string{}
	}
	RespondSuccess(c, ListCacheResponse{
		Backend: h.backend,
		Count:   len(keys),
		Keys:    keys,
	})
}

// EvictCache evicts the certificate cached for one URL
// DELETE /v1/admin/cache?url=...
func (h *AdminHandler) EvictCache(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Query parameter 'url' is required")
		return
	}

	h.cache.Evict(url)
	h.logger.Info("certificate evicted by admin", zap.String("url", url))

	RespondSuccess(c, gin.H{
		"status": "evicted",
		"key":    certcache.Key(url),
	})
}

// PurgeCache evicts every cached certificate
// DELETE /v1/admin/cache/all
func (h *AdminHandler) PurgeCache(c *gin.Context) {
	n, err := h.cache.Purge()
	if errors.Is(err, certcache.ErrNotListable) {
		RespondError(c, http.StatusNotImplemented, "not_supported", "Cache backend cannot list entries")
		return
	}
	if err != nil {
		h.logger.Error("failed to purge cache", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "internal_error", "Failed to purge cache")
		return
	}

	h.logger.Info("certificate cache purged by admin", zap.Int("count", n))
	RespondSuccess(c, gin.H{
		"status": "purged",
		"count":  n,
	})
}
