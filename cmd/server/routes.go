package main

import (
	"github.com/gin-gonic/gin"

	"github.com/topcoder-platform/topcoder-x-processor/internal/interfaces/http/handlers"
)

// registerStatusRoutes wires the admin/status surface (SPEC_FULL.md §4.8).
// There is no authenticated API behind this process: it only consumes bus
// events and reports its own health, it never serves a client-facing API.
func registerStatusRoutes(r *gin.Engine, status *handlers.StatusHandler) {
	internal := r.Group("/internal")
	{
		internal.GET("/status", status.Status)
	}
}
