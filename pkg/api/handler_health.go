package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health. Status rolls up from the worst tool in
// the registry's availability snapshot (spec.md §3): any tool REQUIRES_
// CREDENTIAL or MISCONFIGURED degrades the server without taking it down,
// since other tools may still be usable; nothing AVAILABLE is unhealthy.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy
	available := 0

	for toolID, avail := range s.registry.AvailabilitySnapshot(reqCtx) {
		switch avail {
		case finding.AvailabilityAvailable:
			available++
			checks[toolID] = HealthCheck{Status: healthStatusHealthy}
		case finding.AvailabilityExternalDown:
			status = healthStatusDegraded
			checks[toolID] = HealthCheck{Status: healthStatusDegraded, Message: string(avail)}
		default:
			if status == healthStatusHealthy {
				status = healthStatusDegraded
			}
			checks[toolID] = HealthCheck{Status: healthStatusUnhealthy, Message: string(avail)}
		}
	}

	if available == 0 && s.registry.Len() > 0 {
		status = healthStatusUnhealthy
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.Full(),
		Checks:  checks,
	})
}
