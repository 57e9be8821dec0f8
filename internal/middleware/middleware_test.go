package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"bakehouse/internal/employee"
)

func newTestApp() *fiber.App {
	store := session.New()
	isAdmin := func(name string) bool { return name == "Jane Doe" }

	app := fiber.New()
	app.Get("/login-as/:name", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(employee.SessionEmployeeID, uint64(1))
		sess.Set(employee.SessionEmployeeName, c.Params("name"))
		return sess.Save()
	})

	protected := app.Group("/", AuthMiddleware(store), MarkAdmin(isAdmin))
	protected.Get("/schedule", func(c *fiber.Ctx) error {
		admin, _ := c.Locals("is_admin").(bool)
		if admin {
			return c.SendString("admin")
		}
		return c.SendString(c.Locals("employee_name").(string))
	})
	protected.Get("/api/schedule", func(c *fiber.Ctx) error { return c.SendString("ok") })

	admin := app.Group("/admin", AuthMiddleware(store), AdminOnlyMiddleware(isAdmin))
	admin.Get("/schedule/last-run", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func login(t *testing.T, app *fiber.App, name string) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login-as/"+name, nil))
	if err != nil {
		t.Fatal(err)
	}
	cookie := resp.Header.Get("Set-Cookie")
	if cookie == "" {
		t.Fatal("no session cookie")
	}
	return cookie
}

func get(t *testing.T, app *fiber.App, path, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAuthMiddlewareRedirectsAnonymous(t *testing.T) {
	app := newTestApp()

	resp := get(t, app, "/schedule", "")
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/auth/login" {
		t.Fatalf("status %d, location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp = get(t, app, "/api/schedule", "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("api status %d", resp.StatusCode)
	}
}

func TestAdminOnly(t *testing.T) {
	app := newTestApp()

	maxCookie := login(t, app, "Max Muster")
	if resp := get(t, app, "/schedule", maxCookie); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("logged in employee: status %d", resp.StatusCode)
	}
	if resp := get(t, app, "/admin/schedule/last-run", maxCookie); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("non-admin: status %d", resp.StatusCode)
	}

	janeCookie := login(t, app, "Jane Doe")
	if resp := get(t, app, "/admin/schedule/last-run", janeCookie); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin: status %d", resp.StatusCode)
	}
}
