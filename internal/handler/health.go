package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes. It confirms the process is up and
// serving; it deliberately checks no dependencies, so a MySQL or Redis
// outage does not make the orchestrator restart the service.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
