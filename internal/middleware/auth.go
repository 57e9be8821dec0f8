package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/employee"
)

// AuthMiddleware는 세션에 로그인한 직원이 있는지 확인합니다.
func AuthMiddleware(store *session.Store) fiber.Handler {

	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Errorf("미들웨어: 세션 가져오기 실패: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("세션 오류")
		}

		idInterface := sess.Get(employee.SessionEmployeeID)
		nameInterface := sess.Get(employee.SessionEmployeeName)

		id, idOK := idInterface.(uint64)
		name, nameOK := nameInterface.(string)
		if !idOK || !nameOK {
			log.Debugf("미들웨어: 로그인되지 않은 접근 (%s)", c.Path())
			if strings.HasPrefix(c.Path(), "/api/") || c.Method() != fiber.MethodGet {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "로그인이 필요합니다."})
			}
			return c.Redirect("/auth/login")
		}

		c.Locals("employee_id", id)
		c.Locals("employee_name", name)
		return c.Next()
	}
}
