package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// applyCORSMiddleware allows any origin to call the admin/status surface;
// there is no browser-facing API behind auth here, only read-only
// diagnostics (SPEC_FULL.md §4.8).
func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

// registerHealthRoute reports the minimal liveness payload.
func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "topcoder-x-processor",
			"version": "0.1.0",
		})
	})
}
