package employee

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	log "github.com/sirupsen/logrus"
)

// 세션 키
const (
	SessionEmployeeID   = "employee_id"
	SessionEmployeeName = "employee_name"
)

// EmployeeHandler
type EmployeeHandler struct {
	service *Service
	store   *session.Store
}

// NewEmployeeHandler
func NewEmployeeHandler(service *Service, store *session.Store) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		store:   store,
	}
}

// HandleShowLoginPage는 'GET /auth/login' 요청을 처리합니다.
func (h *EmployeeHandler) HandleShowLoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{
		"Title": "Bakehouse | 로그인",
	}, "layout")
}

// HandleLogin은 액세스 코드(5자리)로 로그인합니다.
func (h *EmployeeHandler) HandleLogin(c *fiber.Ctx) error {
	type loginForm struct {
		AccessCode string `form:"access_code"`
	}
	form := new(loginForm)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("입력 값이 올바르지 않습니다.")
	}

	e, err := h.service.FastCodeLogin(form.AccessCode)
	if err != nil {
		if !errors.Is(err, ErrInvalidAccessCode) {
			log.Errorf("[Employee] 로그인 처리 실패: %v", err)
		}
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
			"Title": "Bakehouse | 로그인",
			"Error": "액세스 코드가 올바르지 않습니다.",
		}, "layout")
	}

	sess, err := h.store.Get(c)
	if err != nil {
		log.Errorf("세션 가져오기 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("세션 오류")
	}
	sess.Set(SessionEmployeeID, e.ID)
	sess.Set(SessionEmployeeName, e.Name)
	if err := sess.Save(); err != nil {
		log.Errorf("세션 저장 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("세션 저장 오류")
	}

	log.Infof("[Employee] 로그인 성공: %s", e.Name)
	return c.Redirect("/schedule")
}

// HandleActivate는 이름 + 액세스 코드 확인 후 이메일을 등록합니다.
func (h *EmployeeHandler) HandleActivate(c *fiber.Ctx) error {
	type activateForm struct {
		Name       string `form:"name"`
		AccessCode string `form:"access_code"`
		Email      string `form:"email"`
	}
	form := new(activateForm)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("입력 값이 올바르지 않습니다.")
	}

	e, err := h.service.Activate(form.Name, form.AccessCode, form.Email)
	if err != nil {
		log.Warnf("[Employee] 활성화 실패 (%s): %v", form.Name, err)
		return c.Status(fiber.StatusBadRequest).Render("login", fiber.Map{
			"Title":      "Bakehouse | 로그인",
			"FlashError": "활성화 실패: " + err.Error(),
		}, "layout")
	}

	return c.Render("login", fiber.Map{
		"Title":        "Bakehouse | 로그인",
		"FlashSuccess": e.Name + " 님의 계정이 활성화되었습니다.",
	}, "layout")
}

// HandleLogout
func (h *EmployeeHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Warnf("세션 삭제 실패: %v", err)
		}
	}
	return c.Redirect("/auth/login")
}
