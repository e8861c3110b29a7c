package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	handler "github.com/marcdasilva/passtheplate/internal/adapters/http"
	"github.com/marcdasilva/passtheplate/internal/pkg/logging"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "api", "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func logRecords(t *testing.T, buf *bytes.Buffer) map[string]map[string]any {
	t.Helper()
	out := map[string]map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		msg, _ := rec["msg"].(string)
		out[msg] = rec
	}
	return out
}

func TestAccessLog_CarriesRequestAndUser(t *testing.T) {
	buf := captureLogs(t)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(handler.RequestContextMiddleware())
	app.Use(handler.AccessLogMiddleware())
	app.Get("/me/:id", handler.RequireAuth(handler.NewTokens(testSecret)), func(c *fiber.Ctx) error {
		if got := handler.UserIDFromCtx(c.UserContext()); got != "user-7" {
			t.Errorf("expected user-7 in context, got %q", got)
		}
		slog.InfoContext(c.UserContext(), "loading profile")
		return c.JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/me/abc", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("Authorization", bearer(t, "user-7"))
	resp := do(t, app, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	recs := logRecords(t, buf)
	access, ok := recs["http.request"]
	if !ok {
		t.Fatalf("no access log record in %s", buf.String())
	}
	if access["request_id"] != "req-123" || access["user_id"] != "user-7" {
		t.Errorf("access log missing ids: %v", access)
	}
	if access["route"] != "/me/:id" || access["path"] != "/me/abc" {
		t.Errorf("unexpected route/path: %v", access)
	}
	if access["status"] != float64(200) || access["level"] != "INFO" {
		t.Errorf("unexpected status/level: %v", access)
	}

	inner, ok := recs["loading profile"]
	if !ok {
		t.Fatalf("no handler record in %s", buf.String())
	}
	if inner["request_id"] != "req-123" || inner["user_id"] != "user-7" {
		t.Errorf("handler log missing ids: %v", inner)
	}
}

func TestAccessLog_AnonymousRejection(t *testing.T) {
	buf := captureLogs(t)
	app := setupApp(makeDeps())

	req := jsonRequest(t, "PUT", "/v1/profiles/me", map[string]any{"full_name": "x"})
	req.Header.Set("X-Request-ID", "req-401")
	resp := do(t, app, req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if e := decodeError(t, resp.Body); e.RequestID != "req-401" {
		t.Errorf("expected request_id req-401 in body, got %q", e.RequestID)
	}

	access := logRecords(t, buf)["http.request"]
	if access == nil {
		t.Fatalf("no access log record in %s", buf.String())
	}
	if access["level"] != "WARN" || access["status"] != float64(401) {
		t.Errorf("unexpected level/status: %v", access)
	}
	if _, ok := access["user_id"]; ok {
		t.Errorf("anonymous request logged a user: %v", access)
	}
	if access["request_id"] != "req-401" {
		t.Errorf("expected request_id req-401, got %v", access["request_id"])
	}
}

func TestAccessLog_ReturnedErrorStatus(t *testing.T) {
	buf := captureLogs(t)

	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/gone", func(c *fiber.Ctx) error {
		return fiber.ErrGone
	})

	resp := do(t, app, httptest.NewRequest("GET", "/gone", nil))
	if resp.StatusCode != fiber.StatusGone {
		t.Fatalf("expected 410, got %d", resp.StatusCode)
	}
	access := logRecords(t, buf)["http.request"]
	if access == nil || access["status"] != float64(410) || access["level"] != "WARN" {
		t.Errorf("unexpected access record: %v", access)
	}
}

// ---- ETag ----

func etagApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(handler.ETagMiddleware())
	app.Get("/r", h)
	return app
}

func TestETag_RevalidatesAgainstList(t *testing.T) {
	app := etagApp(func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": "d1"})
	})

	resp := do(t, app, httptest.NewRequest("GET", "/r", nil))
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected weak etag, got %q", etag)
	}

	req := httptest.NewRequest("GET", "/r", nil)
	req.Header.Set("If-None-Match", `"stale", `+strings.TrimPrefix(etag, "W/"))
	resp = do(t, app, req)
	if resp.StatusCode != fiber.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
	if body, _ := io.ReadAll(resp.Body); len(body) != 0 {
		t.Errorf("expected empty body, got %s", body)
	}

	req = httptest.NewRequest("GET", "/r", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	if resp := do(t, app, req); resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200 for mismatched tag, got %d", resp.StatusCode)
	}
}

func TestETag_Wildcard(t *testing.T) {
	app := etagApp(func(c *fiber.Ctx) error {
		return c.SendString("hello")
	})
	req := httptest.NewRequest("GET", "/r", nil)
	req.Header.Set("If-None-Match", "*")
	if resp := do(t, app, req); resp.StatusCode != fiber.StatusNotModified {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestETag_KeepsHandlerTag(t *testing.T) {
	app := etagApp(func(c *fiber.Ctx) error {
		c.Set("ETag", `"v1"`)
		return c.SendString("hello")
	})

	resp := do(t, app, httptest.NewRequest("GET", "/r", nil))
	if got := resp.Header.Get("ETag"); got != `"v1"` {
		t.Errorf("expected handler etag, got %q", got)
	}

	req := httptest.NewRequest("GET", "/r", nil)
	req.Header.Set("If-None-Match", `W/"v1"`)
	if resp := do(t, app, req); resp.StatusCode != fiber.StatusNotModified {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestETag_SkipsNoStore(t *testing.T) {
	app := etagApp(func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.SendString("secret")
	})
	resp := do(t, app, httptest.NewRequest("GET", "/r", nil))
	if got := resp.Header.Get("ETag"); got != "" {
		t.Errorf("expected no etag, got %q", got)
	}
}
