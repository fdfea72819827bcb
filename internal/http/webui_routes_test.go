package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func getBody(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestWebUIEmbedded(t *testing.T) {
	app := fiber.New()
	app.Get("/api/server/health_check", healthCheckHandler)
	registerWebUIRoutes(app, "", nil)

	resp, body := getBody(t, app, "/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "<title>ipsync</title>") {
		t.Fatalf("unexpected index: %d %q", resp.StatusCode, body)
	}

	resp, _ = getBody(t, app, "/main.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for main.js, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Fatalf("unexpected content type %q", ct)
	}

	// extension-less paths fall back to the index
	resp, body = getBody(t, app, "/results/latest")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "<title>ipsync</title>") {
		t.Fatalf("expected index fallback, got %d", resp.StatusCode)
	}

	for _, target := range []string{"/missing.css", "/api/unknown", "/healthz", "/metrics"} {
		resp, _ = getBody(t, app, target)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", target, resp.StatusCode)
		}
	}

	resp, body = getBody(t, app, "/api/server/health_check")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"code":0`) {
		t.Fatalf("api route hijacked: %d %q", resp.StatusCode, body)
	}
}

func TestWebUIAssetsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>custom</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	registerWebUIRoutes(app, dir, nil)

	_, body := getBody(t, app, "/")
	if body != "<html>custom</html>" {
		t.Fatalf("expected custom index, got %q", body)
	}
	resp, body := getBody(t, app, "/app.css")
	if resp.StatusCode != http.StatusOK || body != "body{}" {
		t.Fatalf("unexpected asset response: %d %q", resp.StatusCode, body)
	}
}

func TestWebUIAssetsDirWithoutIndexFallsBack(t *testing.T) {
	app := fiber.New()
	registerWebUIRoutes(app, t.TempDir(), nil)

	_, body := getBody(t, app, "/")
	if !strings.Contains(body, "<title>ipsync</title>") {
		t.Fatalf("expected embedded index, got %q", body)
	}
}
