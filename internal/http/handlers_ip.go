package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"ipsync/internal/jobs"
)

// ipSelectHandler starts a speed test over the posted candidates. A request
// arriving while a run is in flight joins that run and gets the same
// acceptance.
func ipSelectHandler(c *fiber.Ctx) error {
	orch := c.Locals("orchestrator").(*jobs.Orchestrator)

	var addresses []string
	if err := json.Unmarshal(c.Body(), &addresses); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid request body: %w", err))
	}

	orch.Start(c.UserContext(), addresses)
	return success(c)
}

// ipSelectedHandler returns the filtered rows of the last result artifact.
func ipSelectedHandler(c *fiber.Ctx) error {
	orch := c.Locals("orchestrator").(*jobs.Orchestrator)

	rows, err := orch.Collect(c.UserContext())
	if err != nil {
		return fail(c, fiber.StatusOK, CodeInternalError, err)
	}
	return successData(c, rows)
}

// ipSelectStatusHandler reports the current run status tag; a failed run is
// reported as an error carrying the failure message.
func ipSelectStatusHandler(c *fiber.Ctx) error {
	orch := c.Locals("orchestrator").(*jobs.Orchestrator)

	status, err := orch.Status()
	if err != nil {
		return fail(c, fiber.StatusOK, CodeInternalError, err)
	}
	return successData(c, status.Tag())
}
