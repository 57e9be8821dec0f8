package middleware

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AdminOnlyMiddleware는 'AuthMiddleware' *다음에* 실행되어야 하며,
// 로그인한 직원 이름이 관리자 목록(ADMIN_EMPLOYEES)에 있는지 확인합니다.
func AdminOnlyMiddleware(isAdmin func(name string) bool) fiber.Handler {

	return func(c *fiber.Ctx) error {
		name, _ := c.Locals("employee_name").(string)

		if name == "" || !isAdmin(name) {
			log.Warnf("[Admin] 권한 없는 접근 (Employee: %q, Path: %s)", name, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "관리자만 접근할 수 있습니다."})
		}

		c.Locals("is_admin", true)
		log.Infof("[Admin] 관리자 접근 허용 (Employee: %s, Path: %s)", name, c.Path())
		return c.Next()
	}
}

// MarkAdmin은 화면에서 관리자 메뉴를 보여주기 위해 is_admin 을 채웁니다. 접근은 막지 않습니다.
func MarkAdmin(isAdmin func(name string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if name, _ := c.Locals("employee_name").(string); name != "" && isAdmin(name) {
			c.Locals("is_admin", true)
		}
		return c.Next()
	}
}
