package controller

import (
	"central-ai-web/internal/dto"
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/pkg/guard"
	"central-ai-web/pkg/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	msgMissingCredentials = "Preencha usuário e senha."
	msgInvalidSignup      = "Informe usuário (mín. 3), email válido e senha (mín. 6)."
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	LoginPage(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	ClientLoginPage(ctx *fiber.Ctx) error
	ClientLogin(ctx *fiber.Ctx) error
	SignupPage(ctx *fiber.Ctx) error
	Signup(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	store    *session.Store
	guard    *guard.Guard
	reset    SessionReset
	validate *validator.Validate
}

func NewAuthController(store *session.Store, g *guard.Guard, reset SessionReset, validate *validator.Validate) IAuthController {
	return &authController{store: store, guard: g, reset: reset, validate: validate}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	r.Get("/login", c.LoginPage)
	r.Post("/login", c.Login)
	r.Get("/login/client", c.ClientLoginPage)
	r.Post("/login/client", c.ClientLogin)
	r.Get("/signup", c.SignupPage)
	r.Post("/signup", c.Signup)
	r.Post("/logout", c.Logout)
}

func (c *authController) LoginPage(ctx *fiber.Ctx) error {
	return ctx.Render("login", page(ctx, "Entrar", nil))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := c.validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).Render("login", page(ctx, "Entrar", fiber.Map{
			"Error":    msgMissingCredentials,
			"Username": req.Username,
		}))
	}

	sess, err := c.store.Login(ctx.UserContext(), serverutils.SID(ctx), req.Username, req.Password)
	if err != nil {
		code, _ := serverutils.Classify(err)
		return ctx.Status(code).Render("login", page(ctx, "Entrar", fiber.Map{
			"Error":    session.LoginFailureMessage(err),
			"Username": req.Username,
		}))
	}
	return ctx.Redirect(c.guard.Landing(sess.Role), fiber.StatusSeeOther)
}

func (c *authController) ClientLoginPage(ctx *fiber.Ctx) error {
	return ctx.Render("login_client", page(ctx, "Área do cliente", nil))
}

func (c *authController) ClientLogin(ctx *fiber.Ctx) error {
	var req dto.ClientLoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := c.validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).Render("login_client", page(ctx, "Área do cliente", fiber.Map{
			"Error": msgMissingCredentials,
			"Email": req.Email,
		}))
	}

	sess, err := c.store.LoginClient(ctx.UserContext(), serverutils.SID(ctx), req.Email, req.Password)
	if err != nil {
		code, _ := serverutils.Classify(err)
		return ctx.Status(code).Render("login_client", page(ctx, "Área do cliente", fiber.Map{
			"Error": session.LoginFailureMessage(err),
			"Email": req.Email,
		}))
	}
	return ctx.Redirect(c.guard.Landing(sess.Role), fiber.StatusSeeOther)
}

func (c *authController) SignupPage(ctx *fiber.Ctx) error {
	return ctx.Render("signup", page(ctx, "Criar conta", nil))
}

func (c *authController) Signup(ctx *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	form := fiber.Map{"Username": req.Username, "Email": req.Email}
	if err := c.validate.Struct(&req); err != nil {
		form["Error"] = msgInvalidSignup
		return ctx.Status(fiber.StatusBadRequest).Render("signup", page(ctx, "Criar conta", form))
	}

	sess, err := c.store.Signup(ctx.UserContext(), serverutils.SID(ctx), req.Username, req.Email, req.Password)
	if err != nil {
		code, _ := serverutils.Classify(err)
		form["Error"] = session.SignupFailureMessage(err)
		return ctx.Status(code).Render("signup", page(ctx, "Criar conta", form))
	}
	return ctx.Redirect(c.guard.Landing(sess.Role), fiber.StatusSeeOther)
}

// Logout also closes the browser's chats so the next user starts clean.
func (c *authController) Logout(ctx *fiber.Ctx) error {
	sid := serverutils.SID(ctx)
	if err := c.store.Logout(ctx.UserContext(), sid); err != nil {
		return err
	}
	c.reset.Forget(sid)
	return ctx.Redirect(guard.LoginPath, fiber.StatusSeeOther)
}
