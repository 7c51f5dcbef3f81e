package controller

import (
	"mesh-explorer-be/internal/dto"
	"mesh-explorer-be/internal/pkg/serverutils"
	"mesh-explorer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	CreateAccount(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/v1")
	h.Post("/account", c.CreateAccount)
	h.Post("/login", c.Login)
}

func (c *authController) CreateAccount(ctx *fiber.Ctx) error {
	res, err := c.service.CreateAccount(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create account", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success login", res))
}
