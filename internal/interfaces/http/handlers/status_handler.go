package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/topcoder-platform/topcoder-x-processor/internal/interfaces/http/response"
)

// busStatus is the subset of messaging.Bus the status handler needs.
// Declared locally so this package doesn't import the infrastructure
// messaging package directly.
type busStatus interface {
	IsConnected() bool
	LastDeliveryAt() time.Time
}

// keyHolder is the subset of guard.KeyedMutex the status handler needs.
type keyHolder interface {
	HeldCount() int
}

// StatusHandler serves the admin/status surface (SPEC_FULL.md §4.8):
// operational visibility into the bus connection, last delivery, and
// how many CreationGuard keys are currently held.
type StatusHandler struct {
	bus   busStatus
	guard keyHolder
}

// NewStatusHandler builds a StatusHandler.
func NewStatusHandler(bus busStatus, guard keyHolder) *StatusHandler {
	return &StatusHandler{bus: bus, guard: guard}
}

// Status reports the process's operational state.
// GET /internal/status
func (h *StatusHandler) Status(c *gin.Context) {
	var lastDelivery *string
	if t := h.bus.LastDeliveryAt(); !t.IsZero() {
		s := t.UTC().Format(time.RFC3339)
		lastDelivery = &s
	}

	response.Success(c, http.StatusOK, gin.H{
		"busConnected":      h.bus.IsConnected(),
		"lastDeliveryAt":    lastDelivery,
		"guardHeldKeyCount": h.guard.HeldCount(),
	})
}
