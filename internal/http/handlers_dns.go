package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"

	"ipsync/internal/services"
)

func dnsSyncHandler(c *fiber.Ctx) error {
	svc := c.Locals("dnsSync").(services.DNSSync)

	var req SyncRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid request body: %w", err))
	}

	ip := strings.TrimSpace(req.IP)
	if ip == "" {
		return fail(c, fiber.StatusBadRequest, CodeBadRequest, errors.New("ip is required"))
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid ip %q", ip))
	}

	if err := svc.Sync(c.UserContext(), addr.String()); err != nil {
		return fail(c, fiber.StatusOK, CodeInternalError, err)
	}
	return success(c)
}
