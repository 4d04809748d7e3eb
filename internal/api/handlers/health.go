package handlers

import "github.com/gin-gonic/gin"

// Health reports liveness
// GET /health
func Health(c *gin.Context) {
	RespondSuccess(c, gin.H{
		"status": "ok",
	})
}
