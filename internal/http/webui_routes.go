package http

import (
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	webui "ipsync/frontend"
)

// uiFS returns the configured assets directory when it holds an index.html,
// otherwise the embedded default UI.
func uiFS(assetsDir string, logger *slog.Logger) fs.FS {
	if assetsDir != "" {
		dirFS := os.DirFS(assetsDir)
		if _, err := fs.Stat(dirFS, "index.html"); err == nil {
			return dirFS
		} else if logger != nil {
			logger.Warn("assets_dir_unusable", "dir", assetsDir, "error", err)
		}
	}
	return webui.FS()
}

func registerWebUIRoutes(app *fiber.App, assetsDir string, logger *slog.Logger) {
	uiRoot := uiFS(assetsDir, logger)

	indexHTML, err := fs.ReadFile(uiRoot, "index.html")
	if err != nil {
		if logger != nil {
			logger.Warn("webui_disabled", "error", err)
		}
		return
	}

	serveIndex := func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-cache")
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	}

	app.Get("/", serveIndex)

	app.Get("/*", func(c *fiber.Ctx) error {
		requestPath := c.Path()

		// Don't hijack API routes; let Fiber return a proper 404 for unknown endpoints.
		switch {
		case strings.HasPrefix(requestPath, "/api/"),
			requestPath == "/api",
			requestPath == "/healthz",
			requestPath == "/metrics":
			return fiber.ErrNotFound
		}

		cleaned := path.Clean(requestPath)
		cleaned = strings.TrimPrefix(cleaned, "/")

		if cleaned == "" || cleaned == "." {
			return serveIndex(c)
		}

		// Paths with an extension target a file; anything else falls back
		// to index.html.
		ext := filepath.Ext(cleaned)
		if ext == "" {
			return serveIndex(c)
		}

		payload, err := fs.ReadFile(uiRoot, cleaned)
		if err != nil {
			return fiber.ErrNotFound
		}

		if ct := mime.TypeByExtension(ext); ct != "" {
			c.Set("Content-Type", ct)
		} else {
			c.Type(ext)
		}

		return c.Send(payload)
	})
}
