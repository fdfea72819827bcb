package http

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Code is the application status carried by every API envelope.
type Code int

const (
	CodeSuccess             Code = 0
	CodeRespSerializeFailed Code = 100
	CodeBadRequest          Code = 400
	CodeRateLimited         Code = 429
	CodeInternalError       Code = 500
)

// Resp is the envelope returned by every /api endpoint. Data and Message
// are omitted when unset.
type Resp struct {
	Code    Code   `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// SyncRequest is the body of POST /api/dns/sync.
type SyncRequest struct {
	IP string `json:"ip"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Redis     string `json:"redis,omitempty"`
	SpeedTest string `json:"speedtest,omitempty"`
}

func success(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, Resp{Code: CodeSuccess})
}

func successData(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusOK, Resp{Code: CodeSuccess, Data: data})
}

// fail reports err inside an envelope. Application failures keep HTTP 200.
func fail(c *fiber.Ctx, status int, code Code, err error) error {
	return respond(c, status, Resp{Code: code, Message: err.Error()})
}

func respond(c *fiber.Ctx, status int, resp Resp) error {
	body, err := json.Marshal(resp)
	if err != nil {
		requestLogger(c).ErrorContext(c.UserContext(), "response_serialize_failed", "error", err)
		status = fiber.StatusOK
		body, _ = json.Marshal(Resp{Code: CodeRespSerializeFailed, Message: "Internal Server Error"})
	}
	c.Status(status)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func requestLogger(c *fiber.Ctx) *slog.Logger {
	if logger, ok := c.Locals("logger").(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
